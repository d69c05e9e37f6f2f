package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"toyir/pkg/ir"
)

// SymbolTable maps identifier and literal lexemes to memory slots.
// Slots are handed out in order of first appearance, starting at 0, and are
// never reused. Numeric literals get their value written into memory when
// their slot is created; later references leave memory alone.
type SymbolTable struct {
	slots map[string]ir.Slot
	names []string
	mem   []int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{slots: make(map[string]ir.Slot)}
}

// Resolve returns the slot for tok's lexeme, allocating one on first use.
func (s *SymbolTable) Resolve(tok Token) (ir.Slot, error) {
	if slot, ok := s.slots[tok.Lexeme]; ok {
		return slot, nil
	}

	value := 0
	if tok.Type == NUMBER {
		v, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return 0, fmt.Errorf("line %d:%d: invalid number %q: %w", tok.Pos.Line, tok.Pos.Column, tok.Lexeme, err)
		}
		value = v
	}

	slot := ir.Slot(len(s.names))
	s.slots[tok.Lexeme] = slot
	s.names = append(s.names, tok.Lexeme)
	s.mem = append(s.mem, value)
	return slot, nil
}

// Lookup returns the slot of name without allocating.
func (s *SymbolTable) Lookup(name string) (ir.Slot, bool) {
	slot, ok := s.slots[name]
	return slot, ok
}

// Len is the number of allocated slots.
func (s *SymbolTable) Len() int { return len(s.names) }

// Names returns the lexeme of every slot, indexed by slot.
func (s *SymbolTable) Names() []string {
	return append([]string(nil), s.names...)
}

// Memory returns a copy of the memory image.
func (s *SymbolTable) Memory() []int {
	return append([]int(nil), s.mem...)
}

func (s *SymbolTable) String() string {
	var sb strings.Builder
	sb.WriteString("Symbol Table:\n")
	for i, name := range s.names {
		sb.WriteString(fmt.Sprintf("  %-12s slot %-4d value %d\n", name, i, s.mem[i]))
	}
	return sb.String()
}
