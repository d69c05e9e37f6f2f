// Package compiler turns the source of a small imperative language into a
// linked instruction chain.
//
// Pipeline: source → Lexer (TokenSource) → Parser → ir.Program
//
// The parser builds the chain in a single pass. Forward jumps are created
// with an empty target and backpatched once the instruction they land on
// has been appended.
package compiler
