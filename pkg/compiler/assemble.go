package compiler

import (
	"fmt"
	"strconv"

	"toyir/pkg/ir"
)

// Run parses a whole program: the declaration header, the body and the
// trailing input literals. It starts from an empty symbol table and chain,
// so a Parser can only meaningfully run once per token source.
func (p *Parser) Run() (*ir.Program, error) {
	p.syms = NewSymbolTable()
	p.chain = ir.NewChain()

	if err := p.parseDecls(); err != nil {
		return nil, err
	}
	if err := p.parseBody(); err != nil {
		return nil, err
	}
	inputs, err := p.parseInputs()
	if err != nil {
		return nil, err
	}
	if err := p.chain.Verify(); err != nil {
		return nil, fmt.Errorf("malformed instruction chain: %w", err)
	}

	p.log.Debug("program assembled",
		"instructions", p.chain.Len(),
		"slots", p.syms.Len(),
		"inputs", len(inputs))

	return &ir.Program{
		Code:   p.chain,
		Memory: p.syms.Memory(),
		Inputs: inputs,
		Names:  p.syms.Names(),
	}, nil
}

// Symbols exposes the table filled by the last Run.
func (p *Parser) Symbols() *SymbolTable { return p.syms }

// parseDecls registers every identifier ahead of the body's "{". Commas and
// semicolons between names are accepted and ignored.
func (p *Parser) parseDecls() error {
	for {
		if err := p.advance(); err != nil {
			return err
		}
		switch p.tok.Type {
		case LBRACE:
			return nil
		case IDENTIFIER:
			if _, err := p.syms.Resolve(p.tok); err != nil {
				return err
			}
		case COMMA, SEMICOLON:
		default:
			return p.unexpected(expectation(IDENTIFIER, LBRACE))
		}
	}
}

// parseInputs collects the integer literals that follow the body, in order.
func (p *Parser) parseInputs() ([]int, error) {
	var inputs []int
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}
		sign := ""
		switch p.tok.Type {
		case EOF:
			return inputs, nil
		case MINUS:
			if err := p.expect(NUMBER); err != nil {
				return nil, err
			}
			sign = "-"
		case NUMBER:
		default:
			return nil, p.unexpected(expectation(NUMBER, EOF))
		}
		v, err := strconv.Atoi(sign + p.tok.Lexeme)
		if err != nil {
			return nil, fmt.Errorf("line %d:%d: invalid input %q: %w", p.tok.Pos.Line, p.tok.Pos.Column, sign+p.tok.Lexeme, err)
		}
		inputs = append(inputs, v)
	}
}

// Assemble parses a complete program from src.
func Assemble(src TokenSource, opts ...Option) (*ir.Program, error) {
	return NewParser(src, opts...).Run()
}
