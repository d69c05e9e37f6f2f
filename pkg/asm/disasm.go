package asm

import (
	"fmt"
	"strings"

	"toyir/pkg/ir"
)

// Disassemble prints prog as a listing that Assemble reads back into the
// same program. Nodes appear in arena order; a successor is written only
// when it is not the following line.
func Disassemble(prog *ir.Program) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, ".head %s\n", label(prog.Head()))
	for i, v := range prog.Memory {
		name := "_"
		if i < len(prog.Names) && prog.Names[i] != "" {
			name = prog.Names[i]
		}
		fmt.Fprintf(&sb, ".slot %s %s %d\n", ir.SlotName(ir.Slot(i)), name, v)
	}
	if len(prog.Inputs) > 0 {
		sb.WriteString(".input")
		for _, v := range prog.Inputs {
			fmt.Fprintf(&sb, " %d", v)
		}
		sb.WriteByte('\n')
	}

	code := prog.Code
	if code == nil {
		return sb.String()
	}
	n := code.Len()
	for i := 0; i < n; i++ {
		ref := ir.Ref(i)
		fmt.Fprintf(&sb, "%s: %s", label(ref), ir.Format(code.At(ref)))
		if t := code.Target(ref); t != ir.Nil {
			fmt.Fprintf(&sb, " @%s", label(t))
		}
		implicit := ref + 1
		if i+1 == n {
			implicit = ir.Nil
		}
		if next := code.Next(ref); next != implicit {
			fmt.Fprintf(&sb, " > %s", label(next))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func label(ref ir.Ref) string {
	if ref == ir.Nil {
		return "_"
	}
	return fmt.Sprintf("L%d", int(ref))
}
