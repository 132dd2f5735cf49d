package rulekit

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrMissingAttribute    = errors.New("missing attribute")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrDepthExceeded       = errors.New("maximum evaluation depth exceeded")
	ErrEmptyCombine        = errors.New("no rules to combine")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrOperatorNotAllowed  = errors.New("operator not allowed for attribute")
)

// LexError reports a character the tokenizer could not recognize.
type LexError struct {
	Pos    int
	Char   rune
	Reason string
}

func (e *LexError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("offset %d: unexpected character %q: %s", e.Pos, e.Char, e.Reason)
	}
	return fmt.Sprintf("offset %d: unexpected character %q", e.Pos, e.Char)
}

// Excerpt returns the source with a caret under the offending character.
func (e *LexError) Excerpt(source string) string {
	return excerpt(source, e.Pos)
}

// ParseError reports a structurally malformed rule.
type ParseError struct {
	Pos      int
	Expected []Kind
	Found    Token
}

func (e *ParseError) Error() string {
	want := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		want[i] = k.String()
	}
	return fmt.Sprintf("offset %d: expected %s, found %s", e.Pos, strings.Join(want, " or "), e.Found)
}

// Excerpt returns the source with a caret under the offending token.
func (e *ParseError) Excerpt(source string) string {
	return excerpt(source, e.Pos)
}

// EvalErrorKind classifies evaluation failures.
type EvalErrorKind int

const (
	MissingAttribute EvalErrorKind = iota + 1
	TypeMismatch
	UnsupportedOperator
	DepthExceeded
)

func (k EvalErrorKind) String() string {
	switch k {
	case MissingAttribute:
		return "MissingAttribute"
	case TypeMismatch:
		return "TypeMismatch"
	case UnsupportedOperator:
		return "UnsupportedOperator"
	case DepthExceeded:
		return "DepthExceeded"
	default:
		return fmt.Sprintf("EvalErrorKind(%d)", int(k))
	}
}

// EvalError is returned by Evaluate. Attribute and Op name the comparand that
// failed; they are empty for DepthExceeded.
type EvalError struct {
	Kind      EvalErrorKind
	Attribute string
	Op        Op
	// Value is the record value involved, if any.
	Value   any
	Literal Literal
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case MissingAttribute:
		return fmt.Sprintf("attribute %q not found in record", e.Attribute)
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: %s %s %s with record value %v (%T)", e.Attribute, e.Op, e.Literal, e.Value, e.Value)
	case UnsupportedOperator:
		return fmt.Sprintf("operator %s not supported for %s values (attribute %s)", e.Op, e.Literal.Type(), e.Attribute)
	case DepthExceeded:
		return ErrDepthExceeded.Error()
	default:
		return "evaluation error"
	}
}

// Unwrap maps the kind to its sentinel so callers can use errors.Is.
func (e *EvalError) Unwrap() error {
	switch e.Kind {
	case MissingAttribute:
		return ErrMissingAttribute
	case TypeMismatch:
		return ErrTypeMismatch
	case UnsupportedOperator:
		return ErrUnsupportedOperator
	case DepthExceeded:
		return ErrDepthExceeded
	default:
		return nil
	}
}

// CombineError is returned by Combine.
type CombineError struct {
	Empty bool
}

func (e *CombineError) Error() string {
	return ErrEmptyCombine.Error()
}

func (e *CombineError) Unwrap() error {
	if e.Empty {
		return ErrEmptyCombine
	}
	return nil
}

// SchemaError reports a comparand that does not conform to a Schema.
type SchemaError struct {
	Attribute string
	Op        Op
	Literal   Literal
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Attribute, e.Op, e.Literal, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func excerpt(source string, pos int) string {
	if pos > len(source) {
		pos = len(source)
	}
	lineStart := strings.LastIndexByte(source[:pos], '\n') + 1
	lineEnd := strings.IndexByte(source[pos:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += pos
	}
	var sb strings.Builder
	sb.WriteString(source[lineStart:lineEnd])
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", utf8.RuneCountInString(source[lineStart:pos])))
	sb.WriteString("^")
	return sb.String()
}
