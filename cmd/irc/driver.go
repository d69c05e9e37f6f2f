package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"

	"toyir/pkg/asm"
	"toyir/pkg/compiler"
	"toyir/pkg/ir"
	"toyir/pkg/vm"
)

type options struct {
	tokens   bool
	dump     bool
	listing  bool
	symbols  bool
	run      bool
	load     bool
	maxSteps int
}

// driver carries one input through the pipeline and prints whatever the
// options ask for.
type driver struct {
	opts   options
	style  table.Style
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func (d *driver) process(name, text string, isListing bool) error {
	var (
		prog  *ir.Program
		lines map[ir.Ref]int
		err   error
	)

	if isListing {
		a := asm.NewAssembler()
		if prog, err = a.Assemble(text); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		lines = a.SourceMap
	} else {
		if d.opts.tokens {
			if err := d.printTokens(text); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
		if prog, err = compiler.Compile(text, compiler.WithLogger(d.log)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if d.opts.symbols {
		fmt.Fprintln(d.stdout, prog.MemoryTable(d.style))
	}
	if d.opts.dump {
		fmt.Fprintln(d.stdout, prog.Table(d.style))
	}
	if d.opts.listing {
		fmt.Fprint(d.stdout, asm.Disassemble(prog))
	}
	if !d.opts.run {
		return nil
	}

	m := vm.New(prog,
		vm.WithOutput(d.stdout),
		vm.WithMaxSteps(d.opts.maxSteps),
		vm.WithLogger(d.log))
	err = m.Run()
	if len(m.Outputs) > 0 {
		fmt.Fprintln(d.stdout)
	}
	if err != nil {
		if line, ok := lines[m.PC()]; ok {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (d *driver) printTokens(text string) error {
	tokens, err := compiler.Lex(text)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetStyle(d.style)
	t.SetTitle("Tokens")
	t.AppendHeader(table.Row{"Pos", "Type", "Lexeme"})
	for _, tok := range tokens {
		t.AppendRow(table.Row{tok.Pos, tok.Type, tok.Lexeme})
	}
	fmt.Fprintln(d.stdout, t.Render())
	return nil
}
