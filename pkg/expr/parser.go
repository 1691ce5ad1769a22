package expr

import (
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Parser is a recursive descent parser over a token slice with one token of
// lookahead.
//
// Grammar, lowest precedence first:
//
//	body       ::= expression ( '=' expression )?
//	expression ::= prio ( ('+'|'-') expression )?
//	prio       ::= atom ( ('*'|'/') prio )?
//	atom       ::= '(' expression ')' | scalar | time
//
// Both binary rules recurse into themselves for the right operand, so chains
// of equal precedence group to the right: a - b - c is a - (b - c).
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser for the given tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseExpression tokenizes and parses a complete expression string.
func ParseExpression(input string) (Node, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, types.NewEmptyInputError()
	}
	return ParseTokens(tokens)
}

// ParseTokens parses a token sequence into an AST. All tokens must be
// consumed.
func ParseTokens(tokens []Token) (Node, error) {
	return NewParser(tokens).Parse()
}

// Parse parses the parser's tokens into an AST.
func (p *Parser) Parse() (Node, error) {
	node, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != TokenEOF {
		return nil, types.NewParseError(tok.Pos, "unexpected '%s' at pos %d after end of expression", tok, tok.Pos)
	}
	return node, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		end := 0
		if n := len(p.tokens); n > 0 {
			end = p.tokens[n-1].Pos + len(p.tokens[n-1].Value)
		}
		return Token{Type: TokenEOF, Pos: end}
	}
	return p.tokens[p.pos]
}

// accept consumes the current token if it has the given type and, when
// value is not empty, the given text.
func (p *Parser) accept(tt TokenType, value string) (Token, bool) {
	tok := p.current()
	if tok.Type != tt || (value != "" && tok.Value != value) {
		return tok, false
	}
	p.pos++
	return tok, true
}

// expect is accept that fails when the token does not match.
func (p *Parser) expect(tt TokenType, value string) (Token, error) {
	if tok, ok := p.accept(tt, value); ok {
		return tok, nil
	}
	want := value
	if want == "" {
		want = tt.String()
	}
	return Token{}, p.unexpected("'" + want + "'")
}

// unexpected builds the error for a missing token.
func (p *Parser) unexpected(want string) error {
	tok := p.current()
	if tok.Type == TokenEOF {
		return types.NewParseError(tok.Pos, "expected %s but found EOF", want)
	}
	return types.NewParseError(tok.Pos, "expected %s but found '%s' at pos %d", want, tok, tok.Pos)
}

func (p *Parser) parseBody() (Node, error) {
	left, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, ok := p.accept(TokenEquals, ""); !ok {
		return left, nil
	}
	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: OpEquals, Left: left, Right: right}, nil
}

func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parsePrio()
	if err != nil {
		return nil, err
	}

	var op Operator
	if _, ok := p.accept(TokenSumSub, "+"); ok {
		op = OpSum
	} else if _, ok := p.accept(TokenSumSub, "-"); ok {
		op = OpSubtract
	} else {
		return left, nil
	}

	right, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parsePrio() (Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	var op Operator
	if _, ok := p.accept(TokenMulDiv, "*"); ok {
		op = OpMult
	} else if _, ok := p.accept(TokenMulDiv, "/"); ok {
		op = OpDiv
	} else {
		return left, nil
	}

	right, err := p.parsePrio()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: op, Left: left, Right: right}, nil
}

func (p *Parser) parseAtom() (Node, error) {
	if _, ok := p.accept(TokenParen, "("); ok {
		node, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParen, ")"); err != nil {
			return nil, err
		}
		return node, nil
	}
	if tok, ok := p.accept(TokenScalar, ""); ok {
		return &ScalarNode{Value: tok.IntVal}, nil
	}
	if tok, ok := p.accept(TokenTime, ""); ok {
		return &TimeNode{Hours: tok.Hours, Minutes: tok.Minutes}, nil
	}
	return nil, p.unexpected("'(', scalar or time")
}
