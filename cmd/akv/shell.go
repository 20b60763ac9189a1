package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
)

const shellHelp = `Commands:
    get KEY
    find KEY
    insert KEY VALUE
    update KEY VALUE
    delete KEY
    snapshot    write the index into the log and reload through it
    load        rebuild the index from the whole log
    count       number of indexed keys
    exit
Keys and values may be quoted like shell words, e.g. insert "my key" 'some value'
`

// shell runs an interactive session against a single loaded store. Unlike the one
// shot commands it doesn't snapshot the index on its own
func (a *app) shell(_ []string) error {
	if err := a.load(); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s: %d keys. Type 'help' for commands or 'exit' to quit.\n",
		a.store.Path(), a.store.Len())

	scanner := bufio.NewScanner(a.stdin)
	for {
		fmt.Fprint(a.stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(a.stdout)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		words, err := shellquote.Split(line)
		if err != nil {
			fmt.Fprintln(a.stdout, "parse error:", err)
			continue
		} else if len(words) == 0 {
			continue
		}

		if words[0] == "exit" || words[0] == "quit" {
			return nil
		}

		if err := a.execute(words[0], words[1:]); err != nil {
			// corruption and I/O faults end the session
			log.WithField("action", words[0]).Error(err)
			return err
		}
	}
}

func (a *app) execute(action string, args []string) error {
	want := map[string]int{
		"get": 1, "find": 1, "delete": 1,
		"insert": 2, "update": 2,
		"snapshot": 0, "load": 0, "count": 0, "help": 0,
	}

	n, ok := want[action]
	if !ok {
		fmt.Fprintf(a.stdout, "unknown command %q, type 'help'\n", action)
		return nil
	}
	if len(args) != n {
		fmt.Fprintf(a.stdout, "%s takes %d argument(s), got %d\n", action, n, len(args))
		return nil
	}

	// a miss inside the shell isn't a failure of the whole session
	defer func() { a.exitCode = exitOK }()

	switch action {
	case "get":
		return a.printValue(args[0])
	case "find":
		return a.find(args)
	case "delete":
		return a.store.Delete([]byte(args[0]))
	case "insert":
		return a.store.Insert([]byte(args[0]), []byte(args[1]))
	case "update":
		return a.store.Update([]byte(args[0]), []byte(args[1]))
	case "snapshot":
		offset, err := a.store.SnapshotIndex(a.indexKey)
		if err != nil {
			return err
		}
		if err := a.store.LoadSnapshot(a.indexKey, offset); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "index stored at offset %d\n", offset)
	case "load":
		return a.load()
	case "count":
		fmt.Fprintln(a.stdout, a.store.Len())
	case "help":
		fmt.Fprint(a.stdout, shellHelp)
	}

	return nil
}
