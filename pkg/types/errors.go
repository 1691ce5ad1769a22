package types

import (
	"errors"
	"fmt"
)

// Error tag constants, one per failure class of the calculator.
const (
	TagLexError          = "LexError"
	TagParseError        = "ParseError"
	TagEmptyInputError   = "EmptyInputError"
	TagTypeError         = "TypeError"
	TagZeroDivisionError = "ZeroDivisionError"
	TagInternalError     = "InternalError"
)

// NoPos marks an error that is not tied to an input offset.
const NoPos = -1

// CalcError is an error raised while tokenizing, parsing or evaluating an
// expression. Its message is meant to be shown to the user unchanged.
type CalcError struct {
	Tag     string
	Message string
	Pos     int // byte offset in the input, or NoPos
}

// Error implements the error interface. It returns the message verbatim.
func (e *CalcError) Error() string {
	return e.Message
}

// HasTag returns true if the error carries the given tag.
func (e *CalcError) HasTag(tag string) bool {
	return e.Tag == tag
}

// IsUserError reports whether the error was caused by the input rather than
// by a broken invariant.
func (e *CalcError) IsUserError() bool {
	return e.Tag != TagInternalError
}

// TagOf returns the tag of the first CalcError in err's chain, or "" if
// there is none.
func TagOf(err error) string {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Tag
	}
	return ""
}

// NewLexError creates a LexError at the given offset.
func NewLexError(pos int, format string, args ...any) *CalcError {
	return &CalcError{Tag: TagLexError, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// NewParseError creates a ParseError at the given offset.
func NewParseError(pos int, format string, args ...any) *CalcError {
	return &CalcError{Tag: TagParseError, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// NewEmptyInputError is returned when the input holds no tokens.
func NewEmptyInputError() *CalcError {
	return &CalcError{Tag: TagEmptyInputError, Message: "No expression to parse!", Pos: NoPos}
}

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *CalcError {
	return &CalcError{Tag: TagTypeError, Message: msg, Pos: NoPos}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *CalcError {
	return &CalcError{Tag: TagZeroDivisionError, Message: "Cannot divide by zero", Pos: NoPos}
}

// NewInternalError creates an InternalError for states a correct parser
// never produces.
func NewInternalError(format string, args ...any) *CalcError {
	return &CalcError{Tag: TagInternalError, Message: fmt.Sprintf(format, args...), Pos: NoPos}
}
