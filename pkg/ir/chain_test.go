package ir

import (
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
)

func TestChainAppend(t *testing.T) {
	c := NewChain()
	if c.Head() != Nil || c.Tail() != Nil {
		t.Fatalf("empty chain: head=%d tail=%d, want Nil", c.Head(), c.Tail())
	}

	a := c.Emit(&Input{Dst: 0})
	b := c.Emit(&Output{Src: 0})

	if c.Head() != a {
		t.Errorf("head: expected %d, got %d", a, c.Head())
	}
	if c.Tail() != b {
		t.Errorf("tail: expected %d, got %d", b, c.Tail())
	}
	if c.Next(a) != b {
		t.Errorf("next(a): expected %d, got %d", b, c.Next(a))
	}
	if c.Next(b) != Nil {
		t.Errorf("next(b): expected Nil, got %d", c.Next(b))
	}
	if got := c.Linear(); got != "IN -> OUT" {
		t.Errorf("Linear: got %q", got)
	}
}

func TestChainDetachedNode(t *testing.T) {
	c := NewChain()
	exit := c.New(&Noop{})
	first := c.Emit(&Output{Src: 1})

	if c.Head() != first {
		t.Errorf("detached node must not become head: head=%d", c.Head())
	}
	c.Append(exit)
	if c.Next(first) != exit {
		t.Errorf("next(first): expected %d, got %d", exit, c.Next(first))
	}
}

func TestSetTarget(t *testing.T) {
	c := NewChain()
	cj := c.Emit(&CondJump{Src1: 0, Op: CondLess, Src2: 1, Target: Nil})
	jmp := c.Emit(&Jump{Target: cj})
	end := c.Emit(&Noop{})

	if err := c.SetTarget(cj, end); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	if c.Target(cj) != end {
		t.Errorf("cjmp target: expected %d, got %d", end, c.Target(cj))
	}
	if c.Target(jmp) != cj {
		t.Errorf("jmp target: expected %d, got %d", cj, c.Target(jmp))
	}
	if err := c.SetTarget(end, cj); err == nil {
		t.Errorf("SetTarget on NOOP: expected error")
	}
	if c.Target(end) != Nil {
		t.Errorf("Target of NOOP: expected Nil")
	}
	if err := c.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Chain
		want  string
	}{
		{
			name: "empty",
			build: func() *Chain {
				return NewChain()
			},
		},
		{
			name: "unpatched jump",
			build: func() *Chain {
				c := NewChain()
				c.Emit(&CondJump{Target: Nil})
				return c
			},
			want: "has no target",
		},
		{
			name: "target out of range",
			build: func() *Chain {
				c := NewChain()
				c.Emit(&Jump{Target: 7})
				return c
			},
			want: "target 7 out of range",
		},
		{
			name: "next cycle",
			build: func() *Chain {
				c := NewChain()
				a := c.Emit(&Noop{})
				b := c.Emit(&Noop{})
				c.SetNext(b, a)
				return c
			},
			want: "revisits",
		},
		{
			name: "back edge through target is fine",
			build: func() *Chain {
				c := NewChain()
				cj := c.Emit(&CondJump{Target: Nil})
				c.Emit(&Jump{Target: cj})
				end := c.Emit(&Noop{})
				_ = c.SetTarget(cj, end)
				return c
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build().Verify()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{&Assign{Dst: 0, Src1: 1, Op: OpNone}, "ASSIGN m0 = m1"},
		{&Assign{Dst: 0, Src1: 1, Op: OpMul, Src2: 2}, "ASSIGN m0 = m1 * m2"},
		{&CondJump{Src1: 3, Op: CondGreater, Src2: 4}, "CJMP m3 > m4"},
		{&Jump{}, "JMP"},
		{&Input{Dst: 5}, "IN m5"},
		{&Output{Src: 6}, "OUT m6"},
		{&Noop{}, "NOOP"},
	}
	for _, tc := range tests {
		if got := Format(tc.inst); got != tc.want {
			t.Errorf("Format: expected %q, got %q", tc.want, got)
		}
	}
}

func TestCondOpEval(t *testing.T) {
	if !CondNotEqual.Eval(1, 2) || CondNotEqual.Eval(2, 2) {
		t.Errorf("!= evaluated incorrectly")
	}
	if !CondGreater.Eval(3, 2) || CondGreater.Eval(2, 2) {
		t.Errorf("> evaluated incorrectly")
	}
	if !CondLess.Eval(1, 2) || CondLess.Eval(2, 2) {
		t.Errorf("< evaluated incorrectly")
	}
}

func TestProgramListing(t *testing.T) {
	c := NewChain()
	cj := c.Emit(&CondJump{Src1: 0, Op: CondNotEqual, Src2: 0, Target: Nil})
	c.Emit(&Output{Src: 0})
	end := c.Emit(&Noop{})
	_ = c.SetTarget(cj, end)

	p := &Program{Code: c, Memory: []int{5}, Names: []string{"a"}}

	got := p.String()
	for _, want := range []string{"CJMP   a != a [-> 2]", "OUT    a", "NOOP"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q:\n%s", want, got)
		}
	}

	tbl := p.Table(table.StyleLight)
	if !strings.Contains(tbl, "CJMP") || !strings.Contains(tbl, "a != a") {
		t.Errorf("Table() missing instruction row:\n%s", tbl)
	}
	mem := p.MemoryTable(table.StyleLight)
	if !strings.Contains(mem, "a") || !strings.Contains(mem, "5") {
		t.Errorf("MemoryTable() missing slot row:\n%s", mem)
	}
}
