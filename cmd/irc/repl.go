package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/tebeka/atexit"
)

const (
	promptMain = "irc> "
	promptCont = "...> "
	replName   = "<repl>"
)

// prompter is the part of *liner.State the REPL reads through.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (d *driver) repl(histPath string) int {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	atexit.Register(func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
		ln.Close()
	})

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	defer func() {
		signal.Stop(sigc)
		close(done)
	}()
	go exitOnSignal(sigc, done, atexit.Exit)

	fmt.Fprintln(d.stdout, "Enter a program, then an empty line to run it. :quit leaves.")
	for {
		src, ok := readBuffer(ln)
		if !ok {
			fmt.Fprintln(d.stdout)
			return 0
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(strings.TrimRight(src, "\n"), "\n", " "))
		if strings.HasPrefix(trimmed, ":") {
			if d.command(trimmed) {
				return 0
			}
			continue
		}
		if err := d.process(replName, src, false); err != nil {
			fmt.Fprintln(d.stderr, err)
		}
	}
}

// exitOnSignal calls exit(130) when a signal arrives on sigc and returns
// without exiting once done is closed.
func exitOnSignal(sigc <-chan os.Signal, done <-chan struct{}, exit func(int)) {
	select {
	case <-sigc:
		exit(130)
	case <-done:
	}
}

// readBuffer collects lines until an empty one. A line starting with ':' on
// an empty buffer is returned on its own. Ctrl-C drops the buffer; false
// means the input is closed.
func readBuffer(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true
		}
		if strings.TrimSpace(line) == "" {
			return b.String(), true
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// command runs a REPL meta command and reports whether to leave.
func (d *driver) command(cmd string) (exit bool) {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":dump":
		d.opts.dump = !d.opts.dump
		fmt.Fprintf(d.stdout, "dump %s\n", onOff(d.opts.dump))
	case ":asm":
		d.opts.listing = !d.opts.listing
		fmt.Fprintf(d.stdout, "listing %s\n", onOff(d.opts.listing))
	case ":symbols":
		d.opts.symbols = !d.opts.symbols
		fmt.Fprintf(d.stdout, "symbols %s\n", onOff(d.opts.symbols))
	default:
		fmt.Fprintln(d.stdout, "unknown command. Try :dump, :asm, :symbols or :quit.")
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
