package ir

import "fmt"

// Verify checks the structural invariants of a finished chain: every next
// and target reference points at an allocated node, every jump has been
// patched, and following next from the head never revisits a node.
func (c *Chain) Verify() error {
	if c.head != Nil && !c.Valid(c.head) {
		return fmt.Errorf("head %d out of range", c.head)
	}
	for i, n := range c.nodes {
		ref := Ref(i)
		if n.Inst == nil {
			return fmt.Errorf("node %d has no instruction", ref)
		}
		if n.Next != Nil && !c.Valid(n.Next) {
			return fmt.Errorf("node %d: next %d out of range", ref, n.Next)
		}
		switch n.Inst.(type) {
		case *CondJump, *Jump:
			t := c.Target(ref)
			if t == Nil {
				return fmt.Errorf("node %d: %s has no target", ref, n.Inst.Kind())
			}
			if !c.Valid(t) {
				return fmt.Errorf("node %d: target %d out of range", ref, t)
			}
		}
	}
	seen := make(map[Ref]bool)
	for r := c.head; r != Nil; r = c.nodes[r].Next {
		if seen[r] {
			return fmt.Errorf("next chain revisits node %d", r)
		}
		seen[r] = true
	}
	return nil
}
