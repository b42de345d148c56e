// Package whitespace collapses and trims whitespace in text, both as plain
// string helpers and as a pass over a whole document.
package whitespace

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options control how boundary whitespace is reduced.
type Options struct {
	// PreserveLineBreaks keeps one line break at either end of a run.
	PreserveLineBreaks bool
	// ConservativeCollapse never removes a boundary run entirely, it
	// reduces it to a single space.
	ConservativeCollapse bool
}

var (
	anyRun       = regexp.MustCompile(`[ \n\r\t\f\x{00A0}]+`)
	nbspLead     = regexp.MustCompile(`(^|\x{00A0}+)[^\x{00A0}]+`)
	leadingRun   = regexp.MustCompile(`^[ \n\r\t\f\x{00A0}]+`)
	trailingRun  = regexp.MustCompile(`[ \n\r\t\f\x{00A0}]+$`)
	nonNbspHead  = regexp.MustCompile(`^[^\x{00A0}]+`)
	nbspThenRest = regexp.MustCompile(`(\x{00A0}+)[^\x{00A0}]+`)
	restThenNbsp = regexp.MustCompile(`[^\x{00A0}]+(\x{00A0}+)`)
	nonNbspTail  = regexp.MustCompile(`[^\x{00A0}]+$`)
	lineBreakIn  = regexp.MustCompile(`^[ \n\r\t\f]*?[\n\r][ \n\r\t\f]*`)
	lineBreakOut = regexp.MustCompile(`[ \n\r\t\f]*?[\n\r][ \n\r\t\f]*$`)
	nonBlank     = regexp.MustCompile(`[^\t\n\r ]`)
)

// CollapseAll reduces every whitespace run to one space. A lone tab is
// kept, and non-breaking spaces survive with at most one ordinary space
// next to them.
func CollapseAll(s string) string {
	return anyRun.ReplaceAllStringFunc(s, func(run string) string {
		if run == "\t" {
			return run
		}
		return nbspLead.ReplaceAllString(run, "${1} ")
	})
}

// Trim removes ordinary whitespace from both ends. Non-breaking spaces
// are kept.
func Trim(s string) string {
	return strings.TrimRight(strings.TrimLeft(s, " \n\r\t\f"), " \n\r\t\f")
}

func trimStart(s string, hasLineBreak, conservativeCollapse bool) string {
	return replaceFirst(leadingRun, s, func(run string) string {
		conservative := !hasLineBreak && conservativeCollapse
		if conservative && run == "\t" {
			return run
		}
		out := nonNbspHead.ReplaceAllString(run, "")
		out = nbspThenRest.ReplaceAllString(out, "${1} ")
		if out == "" && conservative {
			return " "
		}
		return out
	})
}

func trimEnd(s string, hasLineBreak, conservativeCollapse bool) string {
	return replaceFirst(trailingRun, s, func(run string) string {
		conservative := !hasLineBreak && conservativeCollapse
		if conservative && run == "\t" {
			return run
		}
		out := restThenNbsp.ReplaceAllString(run, " ${1}")
		out = nonNbspTail.ReplaceAllString(out, "")
		if out == "" && conservative {
			return " "
		}
		return out
	})
}

// Collapse trims the requested ends of s and optionally collapses its
// interior runs.
func Collapse(s string, opts Options, trimLeft, trimRight, collapseAll bool) string {
	var before, after string
	if opts.PreserveLineBreaks {
		s = replaceFirst(lineBreakIn, s, func(string) string {
			before = "\n"
			return ""
		})
		s = replaceFirst(lineBreakOut, s, func(string) string {
			after = "\n"
			return ""
		})
	}
	if trimLeft {
		s = trimStart(s, before != "", opts.ConservativeCollapse)
	}
	if trimRight {
		s = trimEnd(s, after != "", opts.ConservativeCollapse)
	}
	if collapseAll {
		s = CollapseAll(s)
	}
	return before + s + after
}

// StartsWithSpace reports whether s begins with a whitespace character.
func StartsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}

// EndsWithSpace reports whether s ends with a whitespace character.
func EndsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}

// IsBlank reports whether s holds nothing but spaces, tabs and line breaks.
func IsBlank(s string) bool { return !nonBlank.MatchString(s) }

func replaceFirst(re *regexp.Regexp, s string, fn func(string) string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + fn(s[loc[0]:loc[1]]) + s[loc[1]:]
}
