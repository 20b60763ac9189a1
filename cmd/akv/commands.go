package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/nbroyles/akv/pkg"
	log "github.com/sirupsen/logrus"
)

var errNotFound = errors.New("not found")

type app struct {
	store    *pkg.Store
	indexKey []byte
	snapshot bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	exitCode int
}

type command struct {
	// number of arguments after the action
	args int
	run  func(a *app, args []string) error
}

var commands = map[string]command{
	"get":    {args: 1, run: (*app).get},
	"find":   {args: 1, run: (*app).find},
	"delete": {args: 1, run: (*app).delete},
	"insert": {args: 2, run: (*app).insert},
	"update": {args: 2, run: (*app).update},
	"shell":  {args: 0, run: (*app).shell},
}

func (a *app) get(args []string) error {
	if err := a.loadIndex(); err != nil {
		return err
	}

	return a.printValue(args[0])
}

// loadIndex prefers the latest persisted index and only replays the records
// written after it. Without a usable snapshot the whole log is replayed
func (a *app) loadIndex() error {
	offset, found, err := a.store.LocateSnapshot(a.indexKey)
	if err != nil {
		return err
	}

	if found {
		err := a.store.LoadSnapshot(a.indexKey, offset)
		if err == nil {
			log.WithFields(log.Fields{"offset": offset, "keys": a.store.Len()}).Debug("loaded index snapshot")
			return nil
		}
		log.WithError(err).WithField("offset", offset).Warn("unable to use index snapshot, replaying log")
	}

	return a.load()
}

func (a *app) find(args []string) error {
	offset, value, found, err := a.store.Find([]byte(args[0]))
	if err != nil {
		return err
	}

	if !found {
		a.notFound(args[0])
		return nil
	}

	fmt.Fprintf(a.stdout, "%d %q\n", offset, value)
	return nil
}

func (a *app) delete(args []string) error {
	if err := a.load(); err != nil {
		return err
	}

	return a.store.Delete([]byte(args[0]))
}

func (a *app) insert(args []string) error {
	if err := a.load(); err != nil {
		return err
	}

	if err := a.store.Insert([]byte(args[0]), []byte(args[1])); err != nil {
		return err
	}

	return a.snapshotIndex()
}

func (a *app) update(args []string) error {
	if err := a.load(); err != nil {
		return err
	}

	if err := a.store.Update([]byte(args[0]), []byte(args[1])); err != nil {
		return err
	}

	return a.snapshotIndex()
}

func (a *app) load() error {
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("unable to load data: %w", err)
	}

	log.WithField("keys", a.store.Len()).Debug("loaded store")
	return nil
}

func (a *app) snapshotIndex() error {
	if !a.snapshot {
		return nil
	}

	offset, err := a.store.SnapshotIndex(a.indexKey)
	if err != nil {
		return fmt.Errorf("unable to store index: %w", err)
	}

	log.WithField("offset", offset).Debug("stored index snapshot")
	return nil
}

func (a *app) printValue(key string) error {
	lookup, err := a.store.Get([]byte(key))
	if err != nil {
		return err
	}

	switch lookup.State {
	case pkg.Absent:
		a.notFound(key)
	case pkg.Tombstoned:
		fmt.Fprintf(a.stderr, "%q deleted\n", key)
		a.exitCode = exitFailure
	default:
		fmt.Fprintf(a.stdout, "%q\n", lookup.Value)
	}

	return nil
}

func (a *app) notFound(key string) {
	fmt.Fprintf(a.stderr, "%q %v\n", key, errNotFound)
	a.exitCode = exitFailure
}
