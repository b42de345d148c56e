package parser

import (
	"errors"
	"fmt"
)

// ErrParse is wrapped by every *ParseError.
var ErrParse = errors.New("parse error")

// Reasons reported by ParseError.
const (
	ReasonUnterminatedTag     = "unterminated tag"
	ReasonUnterminatedComment = "unterminated comment"
	ReasonInvalidComment      = "invalid HTML comment"
	ReasonInvalidAttribute    = "invalid attribute name"
	ReasonInvalidTagName      = "invalid tag name"
)

const snippetLen = 60

// ParseError describes malformed input the tree builder refused.
type ParseError struct {
	Offset  int
	Snippet string
	Reason  string
}

func newParseError(input string, offset int, reason string) *ParseError {
	end := min(offset+snippetLen, len(input))
	return &ParseError{Offset: offset, Snippet: input[offset:end], Reason: reason}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s: %q", e.Offset, e.Reason, e.Snippet)
}

func (e *ParseError) Unwrap() error { return ErrParse }
