package htmlminifier

import (
	"log/slog"
	"regexp"

	"github.com/livefir/htmlminifier/internal/attrs"
	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/metrics"
	"github.com/livefir/htmlminifier/internal/parser"
	"github.com/livefir/htmlminifier/internal/serialize"
	"github.com/livefir/htmlminifier/internal/sorter"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

type (
	// Attribute is one attribute of an element as the hooks see it.
	Attribute = dom.Attribute
	// Surround is a pair of patterns that may wrap an attribute, such as
	// {{#if x}} and {{/if}}.
	Surround = parser.Surround
	// WhitespaceHook overrides the built-in decision def for one tag.
	WhitespaceHook = whitespace.Hook

	JSMinifier      = delegate.JSMinifier
	JSMinifierFunc  = delegate.JSMinifierFunc
	CSSMinifier     = delegate.CSSMinifier
	CSSMinifierFunc = delegate.CSSMinifierFunc
	CSSKind         = delegate.CSSKind
	URLMinifier     = delegate.URLMinifier
	URLMinifierFunc = delegate.URLMinifierFunc

	// Collector aggregates counters over many calls.
	Collector = metrics.Collector
	// Stats is a snapshot of minification counters.
	Stats = metrics.Stats
)

// Kinds of CSS handed to a CSSMinifier.
const (
	CSSStylesheet = delegate.CSSStylesheet
	CSSInline     = delegate.CSSInline
	CSSMedia      = delegate.CSSMedia
)

// NewCollector returns an empty Collector to share between calls.
func NewCollector() *Collector { return metrics.NewCollector() }

// Options selects the transformations Minify applies. The zero value
// parses with the HTML5 content model and re-serializes without changing
// anything else; DefaultOptions adds the usual fragment and comment
// patterns.
type Options struct {
	// CaseSensitive keeps tag and attribute names as written.
	CaseSensitive             bool
	CollapseBooleanAttributes bool
	CollapseWhitespace        bool
	// ConservativeCollapse always leaves one space where whitespace was.
	ConservativeCollapse bool
	// ContinueOnParseError keeps malformed markup as text instead of
	// failing.
	ContinueOnParseError bool
	DecodeEntities       bool
	// HTML4 applies the HTML 4 rule that a block element closes an open
	// inline element.
	HTML4                         bool
	KeepClosingSlash              bool
	PreserveLineBreaks            bool
	PreventAttributesEscaping     bool
	RemoveAttributeQuotes         bool
	RemoveComments                bool
	RemoveEmptyAttributes         bool
	RemoveEmptyElements           bool
	RemoveRedundantAttributes     bool
	RemoveScriptTypeAttributes    bool
	RemoveStyleLinkTypeAttributes bool
	// RemoveTagWhitespace drops the space between attributes where the
	// markup stays unambiguous.
	RemoveTagWhitespace bool
	SortAttributes      bool
	SortClassName       bool
	TrimCustomFragments bool
	UseShortDoctype     bool

	// CustomAttrAssign lists extra attribute assignment operators, such as
	// `\?=`.
	CustomAttrAssign []*regexp.Regexp
	// CustomAttrCollapse selects attributes whose values lose line breaks
	// and runs of whitespace.
	CustomAttrCollapse *regexp.Regexp
	CustomAttrSurround []Surround
	// CustomEventAttributes replaces the on* rule for event handler names.
	CustomEventAttributes []*regexp.Regexp
	// IgnoreCustomComments keeps matching comments under RemoveComments.
	IgnoreCustomComments []*regexp.Regexp
	// IgnoreCustomFragments protects matching markup from every
	// transformation.
	IgnoreCustomFragments []*regexp.Regexp

	// MaxLineLength wraps the output when positive.
	MaxLineLength int
	// ProcessScripts lists the script and style types whose content is
	// minified as markup.
	ProcessScripts []string
	// QuoteCharacter forces ' or " around attribute values. Empty picks the
	// quote needing fewer escapes.
	QuoteCharacter string

	// MinifyJS minifies scripts and event handlers, with JSMinifier when
	// set and tdewolff/minify otherwise. Setting JSMinifier implies
	// MinifyJS.
	MinifyJS   bool
	JSMinifier JSMinifier
	// MinifyCSS minifies style sheets, style attributes and media queries
	// the same way.
	MinifyCSS   bool
	CSSMinifier CSSMinifier
	// MinifyURLs rewrites URLs relative to URLSite, or through URLMinifier
	// when set.
	MinifyURLs  bool
	URLSite     string
	URLMinifier URLMinifier

	// RemoveEmptyAttributeFunc replaces the built-in list of attributes
	// RemoveEmptyAttributes may drop.
	RemoveEmptyAttributeFunc func(tag, name string) bool
	CanCollapseWhitespace    WhitespaceHook
	CanTrimWhitespace        WhitespaceHook

	// Logger receives delegate failures. Defaults to slog.Default().
	Logger *slog.Logger
	// OnError is called for every delegate failure after it is logged.
	OnError func(stage string, err error)
	// Metrics, when set, accumulates the counters of every call.
	Metrics *Collector
}

var (
	defaultIgnoreComments = []*regexp.Regexp{
		regexp.MustCompile(`^!`),
		regexp.MustCompile(`^\s*#`),
	}
	defaultIgnoreFragments = []*regexp.Regexp{
		regexp.MustCompile(`<%[\s\S]*?%>`),
		regexp.MustCompile(`<\?[\s\S]*?\?>`),
	}
)

// DefaultOptions returns the options Minify uses for a nil *Options.
func DefaultOptions() *Options {
	return &Options{
		IgnoreCustomComments:  append([]*regexp.Regexp(nil), defaultIgnoreComments...),
		IgnoreCustomFragments: append([]*regexp.Regexp(nil), defaultIgnoreFragments...),
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) fragmentsConfig() fragments.Config {
	return fragments.Config{
		Patterns:             o.IgnoreCustomFragments,
		CollapseWhitespace:   o.CollapseWhitespace,
		ConservativeCollapse: o.ConservativeCollapse,
		PreserveLineBreaks:   o.PreserveLineBreaks,
		TrimCustomFragments:  o.TrimCustomFragments,
	}
}

func (o *Options) parserConfig() parser.Config {
	return parser.Config{
		CaseSensitive:        o.CaseSensitive,
		DecodeEntities:       o.DecodeEntities,
		HTML5:                !o.HTML4,
		ContinueOnParseError: o.ContinueOnParseError,
		CustomAttrAssign:     o.CustomAttrAssign,
		CustomAttrSurround:   o.CustomAttrSurround,
	}
}

func (o *Options) attrsConfig(table *fragments.Table, run *delegate.Runner) attrs.Config {
	return attrs.Config{
		RemoveRedundantAttributes:     o.RemoveRedundantAttributes,
		RemoveScriptTypeAttributes:    o.RemoveScriptTypeAttributes,
		RemoveStyleLinkTypeAttributes: o.RemoveStyleLinkTypeAttributes,
		CollapseBooleanAttributes:     o.CollapseBooleanAttributes,
		RemoveAttributeQuotes:         o.RemoveAttributeQuotes,
		RemoveEmptyAttributes:         o.RemoveEmptyAttributes,
		ConservativeCollapse:          o.ConservativeCollapse,
		RemoveEmptyAttributeFunc:      o.RemoveEmptyAttributeFunc,
		CustomAttrCollapse:            o.CustomAttrCollapse,
		CustomEventAttributes:         o.CustomEventAttributes,
		PreventAttributesEscaping:     o.PreventAttributesEscaping,
		QuoteCharacter:                o.QuoteCharacter,
		Fragments:                     table,
		Delegates:                     run,
	}
}

func (o *Options) sorterConfig(table *fragments.Table) sorter.Config {
	return sorter.Config{
		SortAttributes: o.SortAttributes,
		SortClassName:  o.SortClassName,
		Fragments:      table,
	}
}

func (o *Options) whitespaceConfig(table *fragments.Table) whitespace.TreeConfig {
	return whitespace.TreeConfig{
		Options: whitespace.Options{
			PreserveLineBreaks:   o.PreserveLineBreaks,
			ConservativeCollapse: o.ConservativeCollapse,
		},
		CanTrim:     o.CanTrimWhitespace,
		CanCollapse: o.CanCollapseWhitespace,
		IgnoreUID:   table.IgnoreUID,
	}
}

func (o *Options) serializeConfig(table *fragments.Table) serialize.Config {
	return serialize.Config{
		KeepClosingSlash:    o.KeepClosingSlash,
		RemoveTagWhitespace: o.RemoveTagWhitespace,
		MaxLineLength:       o.MaxLineLength,
		Fragments:           table,
	}
}
