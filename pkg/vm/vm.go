// Package vm executes an ir.Program.
//
// CJMP follows branch-if-false: a false comparison jumps to the target, a
// true one falls through to next. Execution ends when next is Nil.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"toyir/pkg/ir"
)

// LevelTrace sits below Debug and is used for per-instruction logging.
const LevelTrace slog.Level = slog.LevelDebug - 4

// DefaultMaxSteps bounds a run when no limit is configured.
const DefaultMaxSteps = 1_000_000

var (
	ErrInputExhausted = errors.New("input exhausted")
	ErrDivideByZero   = errors.New("division by zero")
	ErrStepLimit      = errors.New("step limit reached")
	ErrBadReference   = errors.New("bad instruction reference")
)

type VM struct {
	prog   *ir.Program
	mem    []int
	inPos  int
	pc     ir.Ref
	steps  int
	visits map[ir.Ref]int

	Halted   bool
	MaxSteps int

	// Output receives every OUT as "<value> ". If nil, values are only
	// collected in Outputs.
	Output  io.Writer
	Outputs []int

	log *slog.Logger
}

type Option func(*VM)

func WithOutput(w io.Writer) Option {
	return func(v *VM) { v.Output = w }
}

func WithMaxSteps(n int) Option {
	return func(v *VM) { v.MaxSteps = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(v *VM) { v.log = logger }
}

// New prepares a VM for prog. Memory is copied so the program can be run
// more than once.
func New(prog *ir.Program, opts ...Option) *VM {
	v := &VM{
		prog:     prog,
		mem:      append([]int(nil), prog.Memory...),
		pc:       prog.Head(),
		visits:   make(map[ir.Ref]int),
		MaxSteps: DefaultMaxSteps,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.Halted = v.pc == ir.Nil
	return v
}

// Memory returns the current value of every slot.
func (v *VM) Memory() []int { return v.mem }

// Load reads a slot. Slots past the memory image read as zero.
func (v *VM) Load(s ir.Slot) int {
	if int(s) < len(v.mem) {
		return v.mem[s]
	}
	return 0
}

func (v *VM) store(s ir.Slot, val int) {
	for int(s) >= len(v.mem) {
		v.mem = append(v.mem, 0)
	}
	v.mem[s] = val
}

func (v *VM) PC() ir.Ref { return v.pc }
func (v *VM) Steps() int { return v.steps }

// Visits reports how many times the node at ref has executed.
func (v *VM) Visits(ref ir.Ref) int { return v.visits[ref] }

func (v *VM) jump(to ir.Ref) error {
	if to != ir.Nil && !v.prog.Code.Valid(to) {
		return fmt.Errorf("%w: %d", ErrBadReference, to)
	}
	v.pc = to
	if to == ir.Nil {
		v.Halted = true
	}
	return nil
}

// Step executes the instruction at the program counter.
func (v *VM) Step() error {
	if v.Halted {
		return nil
	}
	code := v.prog.Code
	if !code.Valid(v.pc) {
		return fmt.Errorf("%w: pc %d", ErrBadReference, v.pc)
	}
	if v.MaxSteps > 0 && v.steps >= v.MaxSteps {
		return fmt.Errorf("%w after %d instructions", ErrStepLimit, v.steps)
	}

	ref := v.pc
	in := code.At(ref)
	v.steps++
	v.visits[ref]++
	v.log.Log(context.Background(), LevelTrace, "step", "pc", int(ref), "inst", in.Kind().String(), "operands", in.Render(v.prog.SlotName))

	next := code.Next(ref)
	switch in := in.(type) {
	case *ir.Assign:
		val, err := v.eval(in)
		if err != nil {
			return fmt.Errorf("node %d: %w", ref, err)
		}
		v.store(in.Dst, val)

	case *ir.CondJump:
		if !in.Op.Eval(v.Load(in.Src1), v.Load(in.Src2)) {
			next = in.Target
		}

	case *ir.Jump:
		next = in.Target

	case *ir.Input:
		if v.inPos >= len(v.prog.Inputs) {
			return fmt.Errorf("node %d: %w", ref, ErrInputExhausted)
		}
		v.store(in.Dst, v.prog.Inputs[v.inPos])
		v.inPos++

	case *ir.Output:
		val := v.Load(in.Src)
		v.Outputs = append(v.Outputs, val)
		if v.Output != nil {
			if _, err := fmt.Fprintf(v.Output, "%d ", val); err != nil {
				return err
			}
		}

	case *ir.Noop:
		// No operation.

	default:
		return fmt.Errorf("node %d: unknown instruction %T", ref, in)
	}

	return v.jump(next)
}

func (v *VM) eval(in *ir.Assign) (int, error) {
	a := v.Load(in.Src1)
	if in.Op == ir.OpNone {
		return a, nil
	}
	b := v.Load(in.Src2)
	switch in.Op {
	case ir.OpAdd:
		return a + b, nil
	case ir.OpSub:
		return a - b, nil
	case ir.OpMul:
		return a * b, nil
	case ir.OpDiv:
		if b == 0 {
			return 0, ErrDivideByZero
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("unknown operator %v", in.Op)
}

// Run steps until the program halts or fails.
func (v *VM) Run() error {
	for !v.Halted {
		if err := v.Step(); err != nil {
			return err
		}
	}
	v.log.Debug("program halted", "steps", v.steps, "outputs", len(v.Outputs))
	return nil
}

// Execute runs prog to completion and returns the values it printed.
func Execute(prog *ir.Program, opts ...Option) ([]int, error) {
	v := New(prog, opts...)
	err := v.Run()
	return v.Outputs, err
}
