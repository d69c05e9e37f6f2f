package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"toyir/pkg/ir"
)

var mnemonics = map[string]ir.Kind{
	"ASSIGN": ir.KindAssign,
	"CJMP":   ir.KindCondJump,
	"JMP":    ir.KindJump,
	"IN":     ir.KindInput,
	"OUT":    ir.KindOutput,
	"NOOP":   ir.KindNoop,
}

var arithOps = map[string]ir.ArithOp{
	"+": ir.OpAdd,
	"-": ir.OpSub,
	"*": ir.OpMul,
	"/": ir.OpDiv,
}

var condOps = map[string]ir.CondOp{
	"!=": ir.CondNotEqual,
	">":  ir.CondGreater,
	"<":  ir.CondLess,
}

// Assembler turns a textual listing back into a Program. Labels are resolved
// in a first pass so that targets and successors may point forward.
type Assembler struct {
	labels map[string]ir.Ref
	slots  map[string]ir.Slot

	// SourceMap maps each node to the listing line that defined it.
	SourceMap map[ir.Ref]int
}

type parsedLine struct {
	lineNo   int
	labels   []string
	mnemonic string
	operands []string
	target   string // "@X"
	next     string // "> X"
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:    make(map[string]ir.Ref),
		slots:     make(map[string]ir.Slot),
		SourceMap: make(map[ir.Ref]int),
	}
}

func Assemble(text string) (*ir.Program, error) {
	return NewAssembler().Assemble(text)
}

func (a *Assembler) Assemble(text string) (*ir.Program, error) {
	lines := strings.Split(text, "\n")

	parsed, err := a.pass1(lines)
	if err != nil {
		return nil, err
	}

	return a.pass2(parsed)
}

// pass1 parses every line, numbers the instructions in order and records
// which node each label names.
func (a *Assembler) pass1(lines []string) ([]parsedLine, error) {
	var out []parsedLine
	var ref ir.Ref

	for i, raw := range lines {
		lineNo := i + 1
		p, err := parseLine(raw, lineNo)
		if err != nil {
			return nil, err
		}

		for _, lbl := range p.labels {
			key := normalizeLabel(lbl)
			if _, exists := a.labels[key]; exists {
				return nil, fmt.Errorf("duplicate label '%s' on line %d", lbl, lineNo)
			}
			a.labels[key] = ref
		}

		if p.mnemonic == "" {
			continue
		}
		if !strings.HasPrefix(p.mnemonic, ".") {
			if _, ok := mnemonics[p.mnemonic]; !ok {
				return nil, fmt.Errorf("unknown instruction on line %d: %s", lineNo, p.mnemonic)
			}
			ref++
		}
		out = append(out, p)
	}

	return out, nil
}

func (a *Assembler) pass2(parsed []parsedLine) (*ir.Program, error) {
	prog := &ir.Program{Code: ir.NewChain()}
	code := prog.Code
	head := ""

	// Nodes are allocated first so that next links can be filled in after.
	var nodes []parsedLine
	for _, p := range parsed {
		switch p.mnemonic {
		case ".HEAD":
			if len(p.operands) != 1 {
				return nil, fmt.Errorf(".HEAD expects exactly one operand on line %d", p.lineNo)
			}
			head = p.operands[0]
		case ".SLOT":
			if err := a.declareSlot(prog, p); err != nil {
				return nil, err
			}
		case ".INPUT":
			for _, op := range p.operands {
				v, err := strconv.Atoi(op)
				if err != nil {
					return nil, fmt.Errorf("invalid input '%s' on line %d", op, p.lineNo)
				}
				prog.Inputs = append(prog.Inputs, v)
			}
		default:
			if strings.HasPrefix(p.mnemonic, ".") {
				return nil, fmt.Errorf("unknown directive on line %d: %s", p.lineNo, p.mnemonic)
			}
			inst, err := a.buildInstruction(p)
			if err != nil {
				return nil, err
			}
			ref := code.New(inst)
			a.SourceMap[ref] = p.lineNo
			nodes = append(nodes, p)
		}
	}

	for i, p := range nodes {
		ref := ir.Ref(i)
		next := ir.Ref(i + 1)
		if i+1 == len(nodes) {
			next = ir.Nil
		}
		if p.next != "" {
			r, err := a.resolveLabel(p.next, p.lineNo)
			if err != nil {
				return nil, err
			}
			next = r
		}
		code.SetNext(ref, next)

		if p.target != "" {
			t, err := a.resolveLabel(p.target, p.lineNo)
			if err != nil {
				return nil, err
			}
			if err := code.SetTarget(ref, t); err != nil {
				return nil, fmt.Errorf("line %d: %w", p.lineNo, err)
			}
		}
	}

	switch {
	case head != "":
		r, err := a.resolveLabel(head, 0)
		if err != nil {
			return nil, err
		}
		code.SetHead(r)
	case len(nodes) > 0:
		code.SetHead(0)
	}
	code.Walk(func(r ir.Ref, _ ir.Instruction) { code.SetTail(r) })

	if err := code.Verify(); err != nil {
		return nil, fmt.Errorf("malformed listing: %w", err)
	}
	return prog, nil
}

// declareSlot handles ".slot mN name value". Slots must be declared in
// order starting at m0.
func (a *Assembler) declareSlot(prog *ir.Program, p parsedLine) error {
	if len(p.operands) != 3 {
		return fmt.Errorf(".SLOT expects slot, name and value on line %d", p.lineNo)
	}
	s, ok := slotNumber(p.operands[0])
	if !ok || int(s) != len(prog.Memory) {
		return fmt.Errorf("expected slot m%d on line %d, got '%s'", len(prog.Memory), p.lineNo, p.operands[0])
	}
	v, err := strconv.Atoi(p.operands[2])
	if err != nil {
		return fmt.Errorf("invalid slot value '%s' on line %d", p.operands[2], p.lineNo)
	}
	name := p.operands[1]
	if name == "_" {
		name = ""
	} else if _, exists := a.slots[name]; !exists {
		a.slots[name] = s
	}
	prog.Memory = append(prog.Memory, v)
	prog.Names = append(prog.Names, name)
	return nil
}

func (a *Assembler) buildInstruction(p parsedLine) (ir.Instruction, error) {
	ops := p.operands
	want := func(n int) error {
		if len(ops) != n {
			return fmt.Errorf("%s expects %d operands on line %d, got %d", p.mnemonic, n, p.lineNo, len(ops))
		}
		return nil
	}
	noTarget := func() error {
		if p.target != "" {
			return fmt.Errorf("%s takes no target on line %d", p.mnemonic, p.lineNo)
		}
		return nil
	}

	switch mnemonics[p.mnemonic] {
	case ir.KindAssign:
		if err := noTarget(); err != nil {
			return nil, err
		}
		if len(ops) != 3 && len(ops) != 5 {
			return nil, fmt.Errorf("ASSIGN expects 'dst = a' or 'dst = a op b' on line %d", p.lineNo)
		}
		if ops[1] != "=" {
			return nil, fmt.Errorf("expected '=' on line %d, got '%s'", p.lineNo, ops[1])
		}
		in := &ir.Assign{}
		var err error
		if in.Dst, err = a.parseSlot(ops[0], p.lineNo); err != nil {
			return nil, err
		}
		if in.Src1, err = a.parseSlot(ops[2], p.lineNo); err != nil {
			return nil, err
		}
		if len(ops) == 5 {
			op, ok := arithOps[ops[3]]
			if !ok {
				return nil, fmt.Errorf("invalid operator '%s' on line %d", ops[3], p.lineNo)
			}
			in.Op = op
			if in.Src2, err = a.parseSlot(ops[4], p.lineNo); err != nil {
				return nil, err
			}
		}
		return in, nil

	case ir.KindCondJump:
		if err := want(3); err != nil {
			return nil, err
		}
		op, ok := condOps[ops[1]]
		if !ok {
			return nil, fmt.Errorf("invalid comparison '%s' on line %d", ops[1], p.lineNo)
		}
		in := &ir.CondJump{Op: op, Target: ir.Nil}
		var err error
		if in.Src1, err = a.parseSlot(ops[0], p.lineNo); err != nil {
			return nil, err
		}
		if in.Src2, err = a.parseSlot(ops[2], p.lineNo); err != nil {
			return nil, err
		}
		return in, nil

	case ir.KindJump:
		if err := want(0); err != nil {
			return nil, err
		}
		return &ir.Jump{Target: ir.Nil}, nil

	case ir.KindInput, ir.KindOutput:
		if err := noTarget(); err != nil {
			return nil, err
		}
		if err := want(1); err != nil {
			return nil, err
		}
		s, err := a.parseSlot(ops[0], p.lineNo)
		if err != nil {
			return nil, err
		}
		if p.mnemonic == "IN" {
			return &ir.Input{Dst: s}, nil
		}
		return &ir.Output{Src: s}, nil

	default:
		if err := noTarget(); err != nil {
			return nil, err
		}
		if err := want(0); err != nil {
			return nil, err
		}
		return &ir.Noop{}, nil
	}
}

// parseSlot accepts "mN" or the name given to a slot by a .slot line.
func (a *Assembler) parseSlot(token string, lineNo int) (ir.Slot, error) {
	if s, ok := slotNumber(token); ok {
		return s, nil
	}
	if s, ok := a.slots[token]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("invalid slot '%s' on line %d", token, lineNo)
}

func (a *Assembler) resolveLabel(token string, lineNo int) (ir.Ref, error) {
	if token == "_" {
		return ir.Nil, nil
	}
	if ref, ok := a.labels[normalizeLabel(token)]; ok {
		return ref, nil
	}
	if lineNo == 0 {
		return ir.Nil, fmt.Errorf("undefined label '%s' in .head", token)
	}
	return ir.Nil, fmt.Errorf("undefined label '%s' on line %d", token, lineNo)
}

func slotNumber(token string) (ir.Slot, bool) {
	if len(token) < 2 || (token[0] != 'm' && token[0] != 'M') {
		return 0, false
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 0 {
		return 0, false
	}
	return ir.Slot(n), true
}

func parseLine(raw string, lineNo int) (parsedLine, error) {
	p := parsedLine{lineNo: lineNo}

	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p, nil
	}

	for {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			break
		}

		beforeColon := strings.TrimSpace(line[:colon])
		if strings.ContainsAny(beforeColon, " \t") {
			break
		}

		if !isIdentifier(beforeColon) {
			return p, fmt.Errorf("invalid label '%s' on line %d", beforeColon, lineNo)
		}

		p.labels = append(p.labels, beforeColon)
		line = strings.TrimSpace(line[colon+1:])
		if line == "" {
			return p, nil
		}
	}

	fields := strings.Fields(line)
	p.mnemonic = strings.ToUpper(fields[0])

	rest := fields[1:]
	for i := 0; i < len(rest); i++ {
		f := rest[i]
		switch {
		case strings.HasPrefix(f, "@"):
			if p.target != "" || len(f) == 1 {
				return p, fmt.Errorf("invalid target '%s' on line %d", f, lineNo)
			}
			p.target = f[1:]
		case f == ">" && !(p.mnemonic == "CJMP" && len(p.operands) < 3):
			// CJMP uses ">" as a comparison until its three operands are read.
			if p.next != "" || i+1 >= len(rest) {
				return p, fmt.Errorf("'>' expects a label on line %d", lineNo)
			}
			i++
			p.next = rest[i]
		default:
			if p.target != "" || p.next != "" {
				return p, fmt.Errorf("unexpected operand '%s' after link on line %d", f, lineNo)
			}
			p.operands = append(p.operands, f)
		}
	}

	return p, nil
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}

func normalizeLabel(label string) string {
	return strings.ToUpper(label)
}
