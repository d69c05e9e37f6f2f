package ir

// Program is what the front-end hands to a runtime: the instruction chain,
// the initial memory image, the input sequence and the lexeme owning each
// slot. A Program is not modified after it has been built.
type Program struct {
	Code   *Chain
	Memory []int
	Inputs []int
	Names  []string
}

// Head is the first instruction to execute, or Nil for an empty program.
func (p *Program) Head() Ref {
	if p.Code == nil {
		return Nil
	}
	return p.Code.Head()
}

// SlotName prints s as its source lexeme when known.
func (p *Program) SlotName(s Slot) string {
	if int(s) >= 0 && int(s) < len(p.Names) && p.Names[s] != "" {
		return p.Names[s]
	}
	return SlotName(s)
}
