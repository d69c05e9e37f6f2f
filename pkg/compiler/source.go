package compiler

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_token_source_test.go toyir/pkg/compiler TokenSource

// TokenSource supplies tokens on demand. The parser pulls exactly one token
// per call and never pushes a token back.
type TokenSource interface {
	NextToken() (Token, error)
}

// SliceSource replays a pre-lexed token slice. Past the end it keeps
// returning EOF.
type SliceSource struct {
	tokens []Token
	pos    int
}

func NewSliceSource(tokens []Token) *SliceSource {
	return &SliceSource{tokens: tokens}
}

func (s *SliceSource) NextToken() (Token, error) {
	if s.pos >= len(s.tokens) {
		var pos Pos
		if n := len(s.tokens); n > 0 {
			pos = s.tokens[n-1].Pos
		}
		return Token{Type: EOF, Pos: pos}, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}
