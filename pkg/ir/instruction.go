package ir

import "fmt"

// Slot indexes a cell of program memory.
type Slot int

// Ref indexes a node in a Chain's arena. Nil marks an absent reference.
type Ref int

const Nil Ref = -1

// Kind identifies the variant of an Instruction.
type Kind int

const (
	KindAssign Kind = iota
	KindCondJump
	KindJump
	KindInput
	KindOutput
	KindNoop
)

var kindNames = [...]string{
	KindAssign:   "ASSIGN",
	KindCondJump: "CJMP",
	KindJump:     "JMP",
	KindInput:    "IN",
	KindOutput:   "OUT",
	KindNoop:     "NOOP",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ArithOp is the operator of an Assign. OpNone is a plain copy of Src1.
type ArithOp int

const (
	OpNone ArithOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
)

func (o ArithOp) String() string {
	switch o {
	case OpNone:
		return ""
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	}
	return fmt.Sprintf("ArithOp(%d)", int(o))
}

// CondOp is the comparison of a CondJump.
type CondOp int

const (
	CondNotEqual CondOp = iota
	CondGreater
	CondLess
)

func (o CondOp) String() string {
	switch o {
	case CondNotEqual:
		return "!="
	case CondGreater:
		return ">"
	case CondLess:
		return "<"
	}
	return fmt.Sprintf("CondOp(%d)", int(o))
}

// Eval applies the comparison to a and b.
func (o CondOp) Eval(a, b int) bool {
	switch o {
	case CondGreater:
		return a > b
	case CondLess:
		return a < b
	default:
		return a != b
	}
}

// Instruction is one executable IR node payload. The set of variants is
// closed: Assign, CondJump, Jump, Input, Output and Noop.
type Instruction interface {
	Kind() Kind
	// Render formats the instruction using name to print slots.
	Render(name func(Slot) string) string
	isInstruction()
}

// Assign stores Src1 (Op Src2) into Dst.
type Assign struct {
	Dst  Slot
	Src1 Slot
	Op   ArithOp
	Src2 Slot
}

// CondJump transfers control to Target when the comparison is false and
// falls through to the next node when it is true.
type CondJump struct {
	Src1   Slot
	Op     CondOp
	Src2   Slot
	Target Ref
}

// Jump transfers control to Target unconditionally.
type Jump struct {
	Target Ref
}

// Input reads the next input value into Dst.
type Input struct {
	Dst Slot
}

// Output writes the value of Src.
type Output struct {
	Src Slot
}

// Noop does nothing. The parser uses it as a landing pad for jumps.
type Noop struct{}

func (*Assign) Kind() Kind   { return KindAssign }
func (*CondJump) Kind() Kind { return KindCondJump }
func (*Jump) Kind() Kind     { return KindJump }
func (*Input) Kind() Kind    { return KindInput }
func (*Output) Kind() Kind   { return KindOutput }
func (*Noop) Kind() Kind     { return KindNoop }

func (*Assign) isInstruction()   {}
func (*CondJump) isInstruction() {}
func (*Jump) isInstruction()     {}
func (*Input) isInstruction()    {}
func (*Output) isInstruction()   {}
func (*Noop) isInstruction()     {}

// SlotName is the default slot formatter, "m<index>".
func SlotName(s Slot) string {
	return fmt.Sprintf("m%d", int(s))
}

func (a *Assign) Render(name func(Slot) string) string {
	if a.Op == OpNone {
		return fmt.Sprintf("%s = %s", name(a.Dst), name(a.Src1))
	}
	return fmt.Sprintf("%s = %s %s %s", name(a.Dst), name(a.Src1), a.Op, name(a.Src2))
}

func (c *CondJump) Render(name func(Slot) string) string {
	return fmt.Sprintf("%s %s %s", name(c.Src1), c.Op, name(c.Src2))
}

func (j *Jump) Render(func(Slot) string) string { return "" }

func (i *Input) Render(name func(Slot) string) string { return name(i.Dst) }

func (o *Output) Render(name func(Slot) string) string { return name(o.Src) }

func (*Noop) Render(func(Slot) string) string { return "" }

// Format returns "KIND operands" for inst with default slot names.
func Format(inst Instruction) string {
	ops := inst.Render(SlotName)
	if ops == "" {
		return inst.Kind().String()
	}
	return inst.Kind().String() + " " + ops
}
