package skiplist

import (
	"log"
)

// Iterator walks the live keys of a SkipList in ascending key order. Not threadsafe,
// the list must not be modified while iterating
type Iterator struct {
	list    *SkipList
	pointer *Node
}

func NewIterator(list *SkipList) *Iterator {
	return &Iterator{list: list, pointer: list.head}
}

// HasNext returns true if there's another live key available in the iterator
func (i *Iterator) HasNext() bool {
	return i.peek() != nil
}

// Next returns the next key and its offset
func (i *Iterator) Next() ([]byte, uint64) {
	node := i.peek()
	if node == nil {
		log.Panic("iterator has no next element")
	}
	i.pointer = node

	return node.key, node.offset
}

func (i *Iterator) peek() *Node {
	node := i.pointer.next[0]
	for node != nil && node.deleted {
		node = node.next[0]
	}
	return node
}
