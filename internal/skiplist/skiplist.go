package skiplist

import (
	"bytes"
	"log"
	"math/rand"
	"sync"
)

const maxLevels = 32

// Node represents a node in the SkipList structure
type Node struct {
	next    []*Node
	key     []byte
	offset  uint64
	deleted bool
}

// SkipList is an ordered map from byte string keys to log offsets. It provides
// O(log n) insertion and removal without complicated self-balancing logic
// required of similar tree-like structures (e.g. red/black, AVL trees)
// See the following for more details:
//   - https://en.wikipedia.org/wiki/Skip_list
//   - https://igoro.com/archive/skip-lists-are-fascinating/
//
// Removed keys stay in the list flagged as deleted and are revived by a later Put.
type SkipList struct {
	lock   sync.RWMutex
	rnd    *rand.Rand
	head   *Node
	levels int
	length int
}

func New(seed int64) *SkipList {
	return &SkipList{
		rnd:    rand.New(rand.NewSource(seed)),
		head:   &Node{next: make([]*Node, maxLevels)},
		levels: 1,
	}
}

// Get returns a boolean indicating whether the specified key
// was found in the list. If true, the offset is returned as well
func (s *SkipList) Get(key []byte) (bool, uint64) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if node := s.find(key); node != nil && !node.deleted {
		return true, node.offset
	}
	return false, 0
}

// find returns the node holding key, deleted or not
func (s *SkipList) find(key []byte) *Node {
	c := s.head
	for i := s.levels - 1; i >= 0; i-- {
	rightTraversal:
		for ; c.next[i] != nil; c = c.next[i] {
			switch bytes.Compare(c.next[i].key, key) {
			case 0:
				return c.next[i]
			case 1: // next key is greater than the key we're searching for
				break rightTraversal
			}
		}
	}

	return nil
}

// Put inserts or updates the offset if the key already exists
func (s *SkipList) Put(key []byte, offset uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if node := s.find(key); node != nil {
		if node.deleted {
			s.length++
		}
		node.offset = offset
		node.deleted = false
	} else {
		s.insert(key, offset)
		s.length++
	}
}

// Delete removes the specified key from the skip list. Returns true if
// key was removed and false if key was not present
func (s *SkipList) Delete(key []byte) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	node := s.find(key)
	if node == nil || node.deleted {
		return false
	}

	node.deleted = true
	s.length--

	return true
}

// Len returns the number of live keys in the list
func (s *SkipList) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.length
}

func (s *SkipList) insert(key []byte, offset uint64) {
	levels := s.generateLevels()

	if levels > s.levels {
		s.levels = levels
	}

	newNode := &Node{next: make([]*Node, levels), key: key, offset: offset, deleted: false}

	c := s.head
	for i := s.levels - 1; i >= 0; i-- {
		for ; c.next[i] != nil; c = c.next[i] {
			// Stop moving rightward at this level if next key is greater
			// than key we plan to insert
			if bytes.Compare(c.next[i].key, key) > 0 {
				break
			} else if bytes.Equal(c.next[i].key, key) {
				log.Panicf("attempting to insert key %v (%s) that already exists. "+
					"this should not happen!", key, string(key))
			}
		}
		if levels > i {
			newNode.next[i] = c.next[i]
			c.next[i] = newNode
		}
	}
}

// Level generation shamelessly stolen from
// https://igoro.com/archive/skip-lists-are-fascinating/
func (s *SkipList) generateLevels() int {
	levels := 0
	for num := s.rnd.Int31(); num&1 == 1; num >>= 1 {
		levels += 1
	}

	if levels == 0 {
		levels = 1
	}

	return levels
}
