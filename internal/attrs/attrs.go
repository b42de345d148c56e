// Package attrs normalizes the attribute list of one element: it drops
// redundant and empty attributes, collapses boolean ones, cleans values by
// category and decides how each value is quoted.
package attrs

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/sets"
	"github.com/livefir/htmlminifier/internal/tags"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

// Config selects the pipeline steps.
type Config struct {
	RemoveRedundantAttributes     bool
	RemoveScriptTypeAttributes    bool
	RemoveStyleLinkTypeAttributes bool
	CollapseBooleanAttributes     bool
	RemoveAttributeQuotes         bool
	RemoveEmptyAttributes         bool
	ConservativeCollapse          bool

	// RemoveEmptyAttributeFunc replaces the built-in list of attributes
	// that may be dropped when empty.
	RemoveEmptyAttributeFunc func(tag, name string) bool
	CustomAttrCollapse       *regexp.Regexp
	// CustomEventAttributes replaces the on[a-z]{3,} rule for event
	// handler names.
	CustomEventAttributes []*regexp.Regexp

	PreventAttributesEscaping bool
	QuoteCharacter            string

	// Fragments keeps values holding a protected fragment quoted.
	Fragments *fragments.Table

	// Delegates minifies handler code, inline styles, media queries and
	// URLs. A nil Runner leaves those values as they are.
	Delegates *delegate.Runner
}

// Normalize runs the pipeline over the attributes of one tag and returns
// the new list. The input slice is not modified.
func Normalize(tag string, list []dom.Attribute, cfg Config) []dom.Attribute {
	out := slices.Clone(list)
	if cfg.RemoveRedundantAttributes {
		out = removeRedundant(tag, out)
	}
	if cfg.RemoveScriptTypeAttributes && tag == "script" {
		out = slices.DeleteFunc(out, func(a dom.Attribute) bool {
			return a.Name == "type" && isScriptType(a.Value) && !keepScriptType(a.Value)
		})
	}
	if cfg.RemoveStyleLinkTypeAttributes && (tag == "style" || tag == "link") {
		out = slices.DeleteFunc(out, func(a dom.Attribute) bool {
			return a.Name == "type" && isStyleLinkType(a.Value)
		})
	}
	if cfg.CollapseBooleanAttributes {
		for i := range out {
			if isBoolean(strings.ToLower(out[i].Name), out[i].Value) {
				out[i].Value = ""
				out[i].Quote = dom.QuoteNone
			}
		}
	}
	if len(list) > 0 {
		out = cleanValues(tag, out, cfg)
	}
	if cfg.RemoveAttributeQuotes {
		for i := range out {
			if canUnquote(out[i]) && !cfg.Fragments.HasPlaceholder(out[i].Value) {
				out[i].Quote = dom.QuoteEmpty
			}
		}
	}
	if cfg.RemoveEmptyAttributes {
		out = slices.DeleteFunc(out, func(a dom.Attribute) bool {
			return canDeleteEmpty(tag, a, cfg.RemoveEmptyAttributeFunc)
		})
	}
	return out
}

func has(list []dom.Attribute, name string) bool {
	return slices.ContainsFunc(list, func(a dom.Attribute) bool { return a.Name == name })
}

func hasValue(list []dom.Attribute, name, value string) bool {
	return slices.ContainsFunc(list, func(a dom.Attribute) bool { return a.Name == name && a.Value == value })
}

func removeRedundant(tag string, list []dom.Attribute) []dom.Attribute {
	hasSrc, hasID := has(list, "src"), has(list, "id")
	return slices.DeleteFunc(list, func(a dom.Attribute) bool {
		v := whitespace.Trim(strings.ToLower(a.Value))
		switch {
		case tag == "script" && a.Name == "language" && v == "javascript",
			tag == "form" && a.Name == "method" && v == "get",
			tag == "input" && a.Name == "type" && v == "text",
			tag == "script" && a.Name == "charset" && !hasSrc,
			tag == "a" && a.Name == "name" && hasID,
			tag == "area" && a.Name == "shape" && v == "rect":
			return true
		}
		return false
	})
}

var (
	executableScriptTypes = sets.New(
		"text/javascript", "text/ecmascript", "text/jscript",
		"application/javascript", "application/x-javascript",
		"application/ecmascript", "module",
	)
	keptScriptTypes = sets.New("module")
)

func mimeType(value string) string {
	mime, _, _ := strings.Cut(value, ";")
	return strings.ToLower(whitespace.Trim(mime))
}

func isScriptType(value string) bool {
	m := mimeType(value)
	return m == "" || executableScriptTypes.Has(m)
}

func keepScriptType(value string) bool { return keptScriptTypes.Has(mimeType(value)) }

// IsExecutableScript reports whether a script element holds JavaScript: it
// has no type attribute, or one naming an executable MIME type.
func IsExecutableScript(tag string, list []dom.Attribute) bool {
	if tag != "script" {
		return false
	}
	for _, a := range list {
		if strings.ToLower(a.Name) == "type" {
			return isScriptType(a.Value)
		}
	}
	return true
}

func isStyleLinkType(value string) bool {
	v := strings.ToLower(whitespace.Trim(value))
	return v == "" || v == "text/css"
}

func isBoolean(name, value string) bool {
	return tags.BooleanAttributes.Has(name) || (name == "draggable" && value != "true" && value != "false")
}

// canUnquote reports whether a value survives without quotes.
func canUnquote(a dom.Attribute) bool {
	if !a.Quote.HasValue() || a.Value == "" {
		return false
	}
	return !strings.ContainsAny(a.Value, " \t\n\f\r\"'`=<>")
}

// isJSSpace matches the characters of the \s class in script regular
// expressions.
func isJSSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

var emptyAttributes = regexp.MustCompile(`^(?:class|id|style|title|lang|dir|on(?:focus|blur|change|click|dblclick|mouse(?:down|up|over|move|out)|key(?:press|down|up)))$`)

func canDeleteEmpty(tag string, a dom.Attribute, predicate func(tag, name string) bool) bool {
	if strings.TrimFunc(a.Value, isJSSpace) != "" {
		return false
	}
	if predicate != nil {
		return predicate(tag, a.Name)
	}
	return (tag == "input" && a.Name == "value") || emptyAttributes.MatchString(a.Name)
}
