// Command irc compiles toy programs to the backpatched instruction chain and
// runs them.
//
//	irc [flags] [file]
//
// Without a file, irc reads stdin, or starts the REPL when stdin is a
// terminal. Files ending in .ir, or any file with -load, are read as textual
// listings instead of source.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tebeka/atexit"

	"toyir/pkg/config"
	"toyir/pkg/utils"
)

func main() {
	atexit.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("irc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.BoolVar(&opts.tokens, "tokens", false, "print the token stream")
	fs.BoolVar(&opts.dump, "dump", false, "print the instruction chain as a table")
	fs.BoolVar(&opts.listing, "asm", false, "print the textual IR listing")
	fs.BoolVar(&opts.symbols, "symbols", false, "print the memory slots")
	fs.BoolVar(&opts.run, "run", true, "execute the program")
	fs.BoolVar(&opts.load, "load", false, "read the input as a textual IR listing")
	fs.IntVar(&opts.maxSteps, "max-steps", cfg.MaxSteps, "instruction budget, 0 for none")
	repl := fs.Bool("repl", false, "start an interactive session")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "irc: at most one input file")
		fs.Usage()
		return 2
	}

	if !isTerminal(stdout) {
		cfg.NoColor = true
	}
	d := &driver{
		opts:   opts,
		style:  cfg.Style(),
		log:    cfg.Logger(stderr),
		stdout: stdout,
		stderr: stderr,
	}

	if *repl || (fs.NArg() == 0 && isTerminal(stdin)) {
		return d.repl(cfg.HistoryFile)
	}

	path := "-"
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	}
	text, name, err := utils.ReadSource(path, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "irc: %v\n", err)
		return 1
	}
	if err := d.process(name, text, opts.load || utils.IsListing(path)); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
