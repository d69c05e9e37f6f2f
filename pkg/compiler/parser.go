package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"toyir/pkg/ir"
)

// Parser consumes tokens one at a time from a TokenSource and builds the IR
// chain directly, with no intermediate syntax tree. Jump targets that are
// not known when a jump is created are backpatched once the landing node
// exists.
//
// Grammar:
//
//	program   = decls "{" body "}" inputs
//	decls     = (IDENTIFIER | "," | ";")*
//	body      = statement*
//	statement = assign | input | output | if | while | for | switch
//	assign    = IDENTIFIER "=" operand (arith operand)? ";"
//	input     = "input" IDENTIFIER ";"
//	output    = "output" IDENTIFIER ";"
//	if        = "if" guard "{" body "}"
//	while     = "while" guard "{" body "}"
//	guard     = cond | "(" cond ")"
//	for       = "for" "(" assign cond ";" IDENTIFIER "=" operand (arith operand)? ";"? ")" "{" body "}"
//	switch    = "switch" (IDENTIFIER | "(" IDENTIFIER ")") "{" (case | default)* "}"
//	case      = "case" operand ":" "{" body "}"
//	default   = "default" ":" "{" body "}"
//	cond      = operand ("!=" | ">" | "<") operand
//	operand   = IDENTIFIER | NUMBER
//	inputs    = ("-"? NUMBER)* EOF
type Parser struct {
	src   TokenSource
	tok   Token // most recently consumed token
	syms  *SymbolTable
	chain *ir.Chain
	log   *slog.Logger
	lines []string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger routes backpatch debug events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.log = logger }
}

// WithSource lets parse errors quote the offending source line.
func WithSource(text string) Option {
	return func(p *Parser) { p.lines = strings.Split(text, "\n") }
}

func NewParser(src TokenSource, opts ...Option) *Parser {
	p := &Parser{
		src:   src,
		syms:  NewSymbolTable(),
		chain: ir.NewChain(),
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var arithOps = map[TokenType]ir.ArithOp{
	PLUS:  ir.OpAdd,
	MINUS: ir.OpSub,
	STAR:  ir.OpMul,
	SLASH: ir.OpDiv,
}

var condOps = map[TokenType]ir.CondOp{
	NOT_EQ:  ir.CondNotEqual,
	GREATER: ir.CondGreater,
	LESS:    ir.CondLess,
}

// advance pulls the next token from the source.
func (p *Parser) advance() error {
	tok, err := p.src.NextToken()
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	p.tok = tok
	return nil
}

// unexpected builds a ParseError for the current token.
func (p *Parser) unexpected(expected string) error {
	e := &ParseError{Expected: expected, Found: p.tok}
	if idx := p.tok.Pos.Line - 1; idx >= 0 && idx < len(p.lines) {
		e.Snippet = strings.TrimSpace(p.lines[idx])
	}
	return e
}

// expect consumes the next token and checks that it has type tt.
func (p *Parser) expect(tt TokenType) error {
	if err := p.advance(); err != nil {
		return err
	}
	if p.tok.Type != tt {
		return p.unexpected(tt.String())
	}
	return nil
}

// operandHere resolves the current token as an operand.
func (p *Parser) operandHere() (ir.Slot, error) {
	if p.tok.Type != IDENTIFIER && p.tok.Type != NUMBER {
		return 0, p.unexpected("IDENTIFIER or NUMBER")
	}
	return p.syms.Resolve(p.tok)
}

// readOperand consumes the next token as an operand.
func (p *Parser) readOperand() (ir.Slot, error) {
	if err := p.advance(); err != nil {
		return 0, err
	}
	return p.operandHere()
}

// identifierHere resolves the current token, which must be an identifier.
func (p *Parser) identifierHere() (ir.Slot, error) {
	if p.tok.Type != IDENTIFIER {
		return 0, p.unexpected(IDENTIFIER.String())
	}
	return p.syms.Resolve(p.tok)
}

// patch backpatches the jump at ref to land on target.
func (p *Parser) patch(construct string, ref, target ir.Ref) error {
	if err := p.chain.SetTarget(ref, target); err != nil {
		return err
	}
	p.log.Debug("backpatch", "construct", construct, "jump", int(ref), "target", int(target))
	return nil
}

// parseBody parses statements up to and including the closing "}". The
// opening "{" must already have been consumed.
func (p *Parser) parseBody() error {
	for {
		if err := p.advance(); err != nil {
			return err
		}
		if p.tok.Type == RBRACE {
			return nil
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
}

// parseStatement dispatches on the statement's first token, which has
// already been consumed. Each rule consumes through its final token.
func (p *Parser) parseStatement() error {
	switch p.tok.Type {
	case IDENTIFIER:
		in, err := p.parseAssignment(SEMICOLON)
		if err != nil {
			return err
		}
		p.chain.Emit(in)
		return nil
	case INPUT:
		return p.parseIO(func(s ir.Slot) ir.Instruction { return &ir.Input{Dst: s} })
	case OUTPUT:
		return p.parseIO(func(s ir.Slot) ir.Instruction { return &ir.Output{Src: s} })
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case SWITCH:
		return p.parseSwitch()
	default:
		return p.unexpected("statement")
	}
}

// parseAssignment parses "lhs = a [op b]" followed by one of terms. The lhs
// identifier is the current token. The instruction is returned unlinked so
// that the caller decides where it goes in the chain.
func (p *Parser) parseAssignment(terms ...TokenType) (*ir.Assign, error) {
	dst, err := p.identifierHere()
	if err != nil {
		return nil, err
	}
	if err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	src1, err := p.readOperand()
	if err != nil {
		return nil, err
	}
	in := &ir.Assign{Dst: dst, Src1: src1, Op: ir.OpNone}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if op, ok := arithOps[p.tok.Type]; ok {
		in.Op = op
		if in.Src2, err = p.readOperand(); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if !p.at(terms...) {
		return nil, p.unexpected(expectation(terms...) + " or arithmetic operator")
	}

	if !p.at(terms...) {
		return nil, p.unexpected(expectation(terms...))
	}
	return in, nil
}

func (p *Parser) at(types ...TokenType) bool {
	for _, tt := range types {
		if p.tok.Type == tt {
			return true
		}
	}
	return false
}

func (p *Parser) parseIO(build func(ir.Slot) ir.Instruction) error {
	if err := p.advance(); err != nil {
		return err
	}
	slot, err := p.identifierHere()
	if err != nil {
		return err
	}
	if err := p.expect(SEMICOLON); err != nil {
		return err
	}
	p.chain.Emit(build(slot))
	return nil
}

// conditionHere parses "a cmp b" starting at the current token and returns
// an unpatched CondJump.
func (p *Parser) conditionHere() (*ir.CondJump, error) {
	src1, err := p.operandHere()
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	op, ok := condOps[p.tok.Type]
	if !ok {
		return nil, p.unexpected(expectation(NOT_EQ, GREATER, LESS))
	}
	src2, err := p.readOperand()
	if err != nil {
		return nil, err
	}
	return &ir.CondJump{Src1: src1, Op: op, Src2: src2, Target: ir.Nil}, nil
}

// parseGuard parses the condition of an if or while, optionally wrapped in
// parentheses, and the "{" that opens the body.
func (p *Parser) parseGuard() (*ir.CondJump, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	paren := p.tok.Type == LPAREN
	if paren {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	cond, err := p.conditionHere()
	if err != nil {
		return nil, err
	}
	if paren {
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
	}
	if err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseIf emits CJMP, body, NOOP and points the CJMP at the NOOP, so a false
// condition skips the body.
func (p *Parser) parseIf() error {
	cond, err := p.parseGuard()
	if err != nil {
		return err
	}
	jump := p.chain.Emit(cond)
	if err := p.parseBody(); err != nil {
		return err
	}
	end := p.chain.Emit(&ir.Noop{})
	return p.patch("if", jump, end)
}

// parseWhile emits CJMP, body, JMP back to the CJMP, then the exit NOOP.
func (p *Parser) parseWhile() error {
	cond, err := p.parseGuard()
	if err != nil {
		return err
	}
	jump := p.chain.Emit(cond)
	if err := p.parseBody(); err != nil {
		return err
	}
	p.chain.Emit(&ir.Jump{Target: jump})
	end := p.chain.Emit(&ir.Noop{})
	return p.patch("while", jump, end)
}

// parseFor lowers "for (init cond; incr) { body }" to
// init, CJMP, body, incr, JMP, NOOP. The increment is parsed before the
// body but linked after it.
func (p *Parser) parseFor() error {
	if err := p.expect(LPAREN); err != nil {
		return err
	}
	if err := p.expect(IDENTIFIER); err != nil {
		return err
	}
	setup, err := p.parseAssignment(SEMICOLON)
	if err != nil {
		return err
	}
	p.chain.Emit(setup)

	if err := p.advance(); err != nil {
		return err
	}
	cond, err := p.conditionHere()
	if err != nil {
		return err
	}
	jump := p.chain.Emit(cond)
	if err := p.expect(SEMICOLON); err != nil {
		return err
	}

	if err := p.expect(IDENTIFIER); err != nil {
		return err
	}
	incr, err := p.parseAssignment(SEMICOLON, RPAREN)
	if err != nil {
		return err
	}
	if p.tok.Type == SEMICOLON {
		if err := p.expect(RPAREN); err != nil {
			return err
		}
	}
	if err := p.expect(LBRACE); err != nil {
		return err
	}
	if err := p.parseBody(); err != nil {
		return err
	}

	p.chain.Emit(incr)
	p.chain.Emit(&ir.Jump{Target: jump})
	end := p.chain.Emit(&ir.Noop{})
	return p.patch("for", jump, end)
}

// parseSwitch chains one CJMP(scrutinee != value) per case through next.
// Each case body is cut out of the next chain: the CJMP's target (taken when
// the values are equal) is the body's first node and the body's last node
// continues at the shared exit NOOP. A default body stays inline with no
// guard, so it runs whenever control reaches it.
func (p *Parser) parseSwitch() error {
	if err := p.advance(); err != nil {
		return err
	}
	paren := p.tok.Type == LPAREN
	if paren {
		if err := p.advance(); err != nil {
			return err
		}
	}
	scrutinee, err := p.identifierHere()
	if err != nil {
		return err
	}
	if paren {
		if err := p.expect(RPAREN); err != nil {
			return err
		}
	}
	if err := p.expect(LBRACE); err != nil {
		return err
	}

	exit := p.chain.New(&ir.Noop{})

	for {
		if err := p.advance(); err != nil {
			return err
		}
		switch p.tok.Type {
		case RBRACE:
			p.chain.Append(exit)
			return nil

		case CASE:
			value, err := p.readOperand()
			if err != nil {
				return err
			}
			if err := p.expect(COLON); err != nil {
				return err
			}
			if err := p.expect(LBRACE); err != nil {
				return err
			}
			jump := p.chain.Emit(&ir.CondJump{Src1: scrutinee, Op: ir.CondNotEqual, Src2: value, Target: ir.Nil})
			if err := p.parseBody(); err != nil {
				return err
			}

			if p.chain.Tail() == jump {
				// Empty body: a match goes straight to the exit.
				if err := p.patch("case", jump, exit); err != nil {
					return err
				}
				continue
			}
			if err := p.patch("case", jump, p.chain.Next(jump)); err != nil {
				return err
			}
			p.chain.SetNext(p.chain.Tail(), exit)
			p.chain.SetNext(jump, ir.Nil)
			p.chain.SetTail(jump)

		case DEFAULT:
			if err := p.expect(COLON); err != nil {
				return err
			}
			if err := p.expect(LBRACE); err != nil {
				return err
			}
			if err := p.parseBody(); err != nil {
				return err
			}

		default:
			return p.unexpected(expectation(CASE, DEFAULT, RBRACE))
		}
	}
}
