package compiler

import (
	"fmt"
	"strings"
)

// ParseError reports a token of the wrong kind where the grammar requires a
// specific one.
type ParseError struct {
	Expected string
	Found    Token
	Snippet  string // trimmed source line, when the source text is known
}

func (e *ParseError) Pos() Pos { return e.Found.Pos }

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("line %d:%d: expected %s, got %s", e.Found.Pos.Line, e.Found.Pos.Column, e.Expected, e.Found.Type)
	if e.Found.Lexeme != "" {
		msg += fmt.Sprintf(" (%q)", e.Found.Lexeme)
	}
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// expectation joins token types as "A or B".
func expectation(types ...TokenType) string {
	names := make([]string, len(types))
	for i, tt := range types {
		names[i] = tt.String()
	}
	return strings.Join(names, " or ")
}
