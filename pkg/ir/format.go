package ir

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

func refString(r Ref) string {
	if r == Nil {
		return "-"
	}
	return fmt.Sprintf("%d", int(r))
}

// Table renders every arena node as a row: index, kind, operands, next and
// target. The head row is marked with '*'.
func (p *Program) Table(style table.Style) string {
	t := table.NewWriter()
	t.SetStyle(style)
	t.SetTitle("Instructions")
	t.AppendHeader(table.Row{"", "#", "Kind", "Operands", "Next", "Target"})
	if p.Code != nil {
		for i := 0; i < p.Code.Len(); i++ {
			ref := Ref(i)
			mark := ""
			if ref == p.Code.Head() {
				mark = "*"
			}
			in := p.Code.At(ref)
			target := ""
			if k := in.Kind(); k == KindCondJump || k == KindJump {
				target = refString(p.Code.Target(ref))
			}
			t.AppendRow(table.Row{mark, i, in.Kind(), in.Render(p.SlotName), refString(p.Code.Next(ref)), target})
		}
	}
	return t.Render()
}

// MemoryTable renders slot names and their initial values.
func (p *Program) MemoryTable(style table.Style) string {
	t := table.NewWriter()
	t.SetStyle(style)
	t.SetTitle("Memory")
	t.AppendHeader(table.Row{"Slot", "Name", "Value"})
	for i, v := range p.Memory {
		name := ""
		if i < len(p.Names) {
			name = p.Names[i]
		}
		t.AppendRow(table.Row{i, name, v})
	}
	return t.Render()
}

// String lists the instructions reachable from the head via next, one per
// line, with jump targets in brackets.
func (p *Program) String() string {
	var sb strings.Builder
	if p.Code == nil {
		return ""
	}
	p.Code.Walk(func(r Ref, in Instruction) {
		fmt.Fprintf(&sb, "%3d  %-6s %s", int(r), in.Kind(), in.Render(p.SlotName))
		if k := in.Kind(); k == KindCondJump || k == KindJump {
			fmt.Fprintf(&sb, " [-> %s]", refString(p.Code.Target(r)))
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}
