package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nbroyles/akv/internal/util"
	"github.com/nbroyles/akv/pkg"
	log "github.com/sirupsen/logrus"
)

const usage = `Usage:
    akv [flags] FILE get KEY
    akv [flags] FILE find KEY
    akv [flags] FILE delete KEY
    akv [flags] FILE insert KEY VALUE
    akv [flags] FILE update KEY VALUE
    akv [flags] FILE shell

Flags:
`

const (
	exitOK = iota
	exitFailure
	exitUsage
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	flags := flag.NewFlagSet("akv", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	indexKey := flags.String("index-key", "+index", "key under which the index snapshot is stored")
	logLevel := flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	syncWrites := flags.Bool("sync", false, "fsync the log after every write")
	noSnapshot := flags.Bool("no-snapshot", false, "don't snapshot the index after insert and update")

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "invalid log level %q\n", *logLevel)
		return exitUsage
	}
	log.SetOutput(stderr)
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	if flags.NArg() < 2 {
		flags.Usage()
		return exitUsage
	}
	path, action, rest := flags.Arg(0), flags.Arg(1), flags.Args()[2:]

	cmd, ok := commands[action]
	if !ok || len(rest) != cmd.args {
		flags.Usage()
		return exitUsage
	}

	if exists, err := util.Exists(path); err != nil {
		log.Errorf("unable to open file: %v", err)
		return exitFailure
	} else if !exists {
		log.WithField("path", path).Info("creating new store")
	}

	store, err := pkg.Open(path, pkg.WithSyncWrites(*syncWrites))
	if err != nil {
		log.Errorf("unable to open file: %v", err)
		return exitFailure
	}
	defer store.Close()

	if err := store.Lock(); err != nil {
		log.Errorf("unable to lock store: %v", err)
		return exitFailure
	}
	defer func() {
		if err := store.Unlock(); err != nil {
			log.Warnf("unable to unlock store: %v", err)
		}
	}()

	a := &app{
		store:    store,
		indexKey: []byte(*indexKey),
		snapshot: !*noSnapshot,
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
	}

	if err := cmd.run(a, rest); err != nil {
		log.WithField("action", action).Error(err)
		return exitFailure
	}
	return a.exitCode
}
