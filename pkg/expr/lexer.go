package expr

import (
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// timePattern is what the text of a time literal must match: one or two
// hour digits and exactly two minute digits.
var timePattern = regexp.MustCompile(`^[0-9]{1,2}:[0-9]{2}$`)

// byteOrderMark is skipped like whitespace.
const byteOrderMark = '\uFEFF'

// Lexer tokenizes a time expression.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the given input and returns all tokens.
func Tokenize(input string) ([]Token, error) {
	return NewLexer(input).Tokenize()
}

// Tokenize scans the entire input and returns all tokens. Empty or
// all-whitespace input yields an empty slice.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			return l.tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, tok)
	}
}

// next reads the token starting at the current position.
func (l *Lexer) next() (Token, error) {
	ch := l.input[l.pos]

	switch ch {
	case '(', ')':
		return l.single(TokenParen), nil
	case '+', '-':
		return l.single(TokenSumSub), nil
	case '*', '/':
		return l.single(TokenMulDiv), nil
	case '=':
		return l.single(TokenEquals), nil
	}

	if isDigit(ch) {
		return l.readNumber()
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return Token{}, types.NewLexError(l.pos, "Unexpected character: '%c' at pos %d", r, l.pos)
}

func (l *Lexer) single(tt TokenType) Token {
	tok := Token{Type: tt, Value: l.input[l.pos : l.pos+1], Pos: l.pos}
	l.pos++
	return tok
}

// readNumber reads a scalar, or a time literal when the digit run is
// followed by a colon.
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	hours := l.readDigits()

	if l.pos >= len(l.input) || l.input[l.pos] != ':' {
		n, err := strconv.ParseInt(hours, 10, 64)
		if err != nil {
			return Token{}, types.NewLexError(start, "Invalid number: %s", hours)
		}
		return Token{Type: TokenScalar, Value: hours, IntVal: n, Pos: start}, nil
	}

	l.pos++ // skip ':'
	minutes := l.readDigits()
	raw := l.input[start:l.pos]
	if !timePattern.MatchString(raw) {
		return Token{}, types.NewLexError(start, "Expected time value (hh:mm) but got: %s", raw)
	}

	// Both parts are at most two digits here, so Atoi cannot fail.
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	return Token{Type: TokenTime, Value: raw, Hours: h, Minutes: m, Pos: start}, nil
}

func (l *Lexer) readDigits() string {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	return l.input[start:l.pos]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) && r != byteOrderMark {
			return
		}
		l.pos += size
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
