package compiler

import "toyir/pkg/ir"

// Compile lexes and parses source text into a Program.
func Compile(src string, opts ...Option) (*ir.Program, error) {
	opts = append([]Option{WithSource(src)}, opts...)
	return Assemble(NewLexer(src), opts...)
}
