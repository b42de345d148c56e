package htmlminifier

import (
	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/parser"
)

// ErrParse is wrapped by every error Minify returns for malformed input.
var ErrParse = parser.ErrParse

// ErrNoSite is reported through Options.OnError when MinifyURLs is set
// without an absolute URLSite.
var ErrNoSite = delegate.ErrNoSite

// ParseError reports where and why the input could not be parsed. Use
// errors.As to get at it.
type ParseError = parser.ParseError

// Reasons a ParseError carries.
const (
	ReasonUnterminatedTag     = parser.ReasonUnterminatedTag
	ReasonUnterminatedComment = parser.ReasonUnterminatedComment
	ReasonInvalidComment      = parser.ReasonInvalidComment
	ReasonInvalidAttribute    = parser.ReasonInvalidAttribute
	ReasonInvalidTagName      = parser.ReasonInvalidTagName
)
