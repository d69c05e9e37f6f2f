package ir

import (
	"fmt"
	"strings"
)

// Node is an arena cell: one instruction and the reference to the node that
// follows it in program order.
type Node struct {
	Inst Instruction
	Next Ref
}

// Chain is an append-only linked list of instructions stored in an arena.
// Refs are arena indices, so targets can be patched after the node they
// point at has been created, forward or backward.
type Chain struct {
	nodes []Node
	head  Ref
	tail  Ref
}

func NewChain() *Chain {
	return &Chain{head: Nil, tail: Nil}
}

// New allocates a detached node for inst and returns its reference.
func (c *Chain) New(inst Instruction) Ref {
	c.nodes = append(c.nodes, Node{Inst: inst, Next: Nil})
	return Ref(len(c.nodes) - 1)
}

// Append links ref after the current tail (or makes it the head of an empty
// chain) and makes it the new tail.
func (c *Chain) Append(ref Ref) {
	if c.head == Nil {
		c.head = ref
	} else {
		c.nodes[c.tail].Next = ref
	}
	c.tail = ref
}

// Emit allocates inst and appends it.
func (c *Chain) Emit(inst Instruction) Ref {
	ref := c.New(inst)
	c.Append(ref)
	return ref
}

func (c *Chain) Head() Ref { return c.head }
func (c *Chain) Tail() Ref { return c.tail }
func (c *Chain) Len() int  { return len(c.nodes) }

// SetTail moves the append point to ref without touching any links.
func (c *Chain) SetTail(ref Ref) { c.tail = ref }

// SetHead overrides the head. Only loaders that rebuild a chain node by node
// need it; the parser always goes through Append.
func (c *Chain) SetHead(ref Ref) { c.head = ref }

// Valid reports whether ref names an allocated node.
func (c *Chain) Valid(ref Ref) bool {
	return ref >= 0 && int(ref) < len(c.nodes)
}

func (c *Chain) At(ref Ref) Instruction { return c.nodes[ref].Inst }
func (c *Chain) Next(ref Ref) Ref       { return c.nodes[ref].Next }

func (c *Chain) SetNext(ref, next Ref) { c.nodes[ref].Next = next }

// Target returns the jump target of ref, or Nil when ref is not a jump.
func (c *Chain) Target(ref Ref) Ref {
	switch in := c.nodes[ref].Inst.(type) {
	case *CondJump:
		return in.Target
	case *Jump:
		return in.Target
	}
	return Nil
}

// SetTarget backpatches the jump at ref.
func (c *Chain) SetTarget(ref, target Ref) error {
	switch in := c.nodes[ref].Inst.(type) {
	case *CondJump:
		in.Target = target
	case *Jump:
		in.Target = target
	default:
		return fmt.Errorf("node %d is %s, not a jump", ref, in.Kind())
	}
	return nil
}

// Walk visits nodes by following Next from the head, stopping at Nil or at the
// first node seen twice.
func (c *Chain) Walk(fn func(Ref, Instruction)) {
	seen := make(map[Ref]bool)
	for r := c.head; r != Nil && !seen[r]; r = c.nodes[r].Next {
		seen[r] = true
		fn(r, c.nodes[r].Inst)
	}
}

// Linear lists the kinds reached from the head via Next, e.g.
// "CJMP -> OUT -> NOOP".
func (c *Chain) Linear() string {
	var parts []string
	c.Walk(func(_ Ref, in Instruction) {
		parts = append(parts, in.Kind().String())
	})
	return strings.Join(parts, " -> ")
}
