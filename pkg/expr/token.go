// Package expr implements the time calculator's expression language: a
// tokenizer, a recursive descent parser, a tree-walking evaluator and the
// formatter for evaluated values.
//
// Expressions mix clock times (h:mm or hh:mm) and integer scalars with
// + - * / and parentheses, and may compare two expressions with a single =.
package expr

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenParen  TokenType = iota // ( or )
	TokenSumSub                  // + or -
	TokenMulDiv                  // * or /
	TokenEquals                  // =
	TokenTime                    // h:mm or hh:mm
	TokenScalar                  // integer literal

	// TokenEOF is never produced by the lexer. The parser returns it when
	// it runs past the last token.
	TokenEOF
)

// Token represents a single lexical token.
type Token struct {
	Type    TokenType
	Value   string // raw source text
	Hours   int    // TokenTime
	Minutes int    // TokenTime
	IntVal  int64  // TokenScalar
	Pos     int    // byte offset in source
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenParen:
		return "PAREN"
	case TokenSumSub:
		return "SUMSUB"
	case TokenMulDiv:
		return "MULDIV"
	case TokenEquals:
		return "EQUALS"
	case TokenTime:
		return "TIME"
	case TokenScalar:
		return "SCALAR"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// String renders the token as it appears in parser error messages.
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenTime:
		return fmt.Sprintf("%d:%02d", t.Hours, t.Minutes)
	default:
		return t.Value
	}
}
