package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable name
	NUMBER     // decimal integer literal

	// Keywords
	INPUT   // "input"
	OUTPUT  // "output"
	IF      // "if"
	WHILE   // "while"
	FOR     // "for"
	SWITCH  // "switch"
	CASE    // "case"
	DEFAULT // "default"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	SEMICOLON // ;
	COLON     // :
	COMMA     // ,
	ASSIGN    // =

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Comparison
	NOT_EQ  // !=
	GREATER // >
	LESS    // <
)

// tokenNames is indexed by TokenType.
var tokenNames = [...]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	INPUT:      "INPUT",
	OUTPUT:     "OUTPUT",
	IF:         "IF",
	WHILE:      "WHILE",
	FOR:        "FOR",
	SWITCH:     "SWITCH",
	CASE:       "CASE",
	DEFAULT:    "DEFAULT",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	SEMICOLON:  "SEMICOLON",
	COLON:      "COLON",
	COMMA:      "COMMA",
	ASSIGN:     "ASSIGN",
	PLUS:       "PLUS",
	MINUS:      "MINUS",
	STAR:       "STAR",
	SLASH:      "SLASH",
	NOT_EQ:     "NOT_EQ",
	GREATER:    "GREATER",
	LESS:       "LESS",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Pos    Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  %s", t.Type, t.Lexeme, t.Pos)
}
