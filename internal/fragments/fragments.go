// Package fragments shields foreign markup (template tags, processing
// instructions, htmlmin:ignore blocks) from the minifier by swapping it
// for placeholders before parsing and putting it back afterwards.
package fragments

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/livefir/htmlminifier/internal/whitespace"
)

// Config controls substitution and restoration.
type Config struct {
	// Patterns match the fragments to protect.
	Patterns             []*regexp.Regexp
	CollapseWhitespace   bool
	ConservativeCollapse bool
	PreserveLineBreaks   bool
	// TrimCustomFragments lets restoration drop whitespace around a
	// fragment instead of keeping one space.
	TrimCustomFragments bool
}

// Chunk is one protected fragment with its surrounding whitespace.
type Chunk struct {
	Whole    string
	Leading  string
	Trailing string
}

// Table maps placeholders back to the fragments they replaced.
type Table struct {
	// UID delimits custom fragment placeholders: \t<UID><n><UID>\t.
	UID string
	// IgnoreUID names the placeholder comments of htmlmin:ignore blocks.
	IgnoreUID string

	chunks  []Chunk
	ignored []string
	cfg     Config

	pattern       *regexp.Regexp
	ignoreComment *regexp.Regexp
	ignorePayload *regexp.Regexp
}

var (
	ignoreBlock = regexp.MustCompile(`<!-- htmlmin:ignore -->([\s\S]*?)<!-- htmlmin:ignore -->`)
	edges       = regexp.MustCompile(`^(\s*)[\s\S]*?(\s*)$`)
)

// Protect returns input with every protected region replaced by a
// placeholder, and the table that restores them.
func Protect(input string, cfg Config) (string, *Table) {
	t := &Table{cfg: cfg}
	html := input
	if cfg.CollapseWhitespace {
		html = whitespace.Collapse(html, wsOptions(cfg.PreserveLineBreaks, cfg.ConservativeCollapse), true, true, false)
	}

	if ignoreBlock.MatchString(html) {
		t.IgnoreUID = uniqueID(html)
		t.ignoreComment = regexp.MustCompile(`<!--` + t.IgnoreUID + `([0-9]+)-->`)
		t.ignorePayload = regexp.MustCompile(`^` + t.IgnoreUID + `[0-9]+$`)
		html = replaceSubmatch(ignoreBlock, html, func(m []string) string {
			token := "<!--" + t.IgnoreUID + strconv.Itoa(len(t.ignored)) + "-->"
			t.ignored = append(t.ignored, m[1])
			return token
		})
	}

	if len(cfg.Patterns) > 0 {
		sources := make([]string, len(cfg.Patterns))
		for i, re := range cfg.Patterns {
			sources[i] = re.String()
		}
		custom := regexp.MustCompile(`\s*(?:` + strings.Join(sources, "|") + `)+\s*`)
		html = custom.ReplaceAllStringFunc(html, func(match string) string {
			if t.UID == "" {
				t.UID = uniqueID(html)
				t.pattern = regexp.MustCompile(`(\s*)` + t.UID + `([0-9]+)` + t.UID + `(\s*)`)
			}
			token := t.UID + strconv.Itoa(len(t.chunks)) + t.UID
			e := edges.FindStringSubmatch(match)
			t.chunks = append(t.chunks, Chunk{Whole: match, Leading: e[1], Trailing: e[2]})
			return "\t" + token + "\t"
		})
	}
	return html, t
}

func wsOptions(preserveLineBreaks, conservative bool) whitespace.Options {
	return whitespace.Options{PreserveLineBreaks: preserveLineBreaks, ConservativeCollapse: conservative}
}

// Len returns the number of protected custom fragments.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.chunks)
}

// Restore replaces every placeholder in s with the fragment it stands for.
func (t *Table) Restore(s string) string {
	if t == nil {
		return s
	}
	if t.pattern != nil {
		s = t.pattern.ReplaceAllStringFunc(s, func(match string) string {
			m := t.pattern.FindStringSubmatch(match)
			chunk := t.chunks[atoi(m[2])].Whole
			if !t.cfg.CollapseWhitespace || chunk == "" {
				return chunk
			}
			if m[1] != "\t" {
				chunk = m[1] + chunk
			}
			if m[3] != "\t" {
				chunk += m[3]
			}
			trimLeft := strings.ContainsAny(chunk[:1], " \n\r\t\f")
			trimRight := strings.ContainsAny(chunk[len(chunk)-1:], " \n\r\t\f")
			opts := wsOptions(t.cfg.PreserveLineBreaks, !t.cfg.TrimCustomFragments)
			return whitespace.Collapse(chunk, opts, trimLeft, trimRight, false)
		})
	}
	if t.ignoreComment != nil {
		s = replaceSubmatch(t.ignoreComment, s, func(m []string) string {
			return t.ignored[atoi(m[1])]
		})
	}
	return s
}

// Expand rewrites placeholders inside script code so that each keeps the
// whitespace its fragment originally had.
func (t *Table) Expand(code string) string {
	if t == nil || t.pattern == nil {
		return code
	}
	return replaceSubmatch(t.pattern, code, func(m []string) string {
		c := t.chunks[atoi(m[2])]
		return c.Leading + t.UID + m[2] + t.UID + c.Trailing
	})
}

// IsIgnoreComment reports whether a comment payload is an ignore-block
// placeholder.
func (t *Table) IsIgnoreComment(data string) bool {
	return t != nil && t.ignorePayload != nil && t.ignorePayload.MatchString(data)
}

// HasPlaceholder reports whether s carries any placeholder.
func (t *Table) HasPlaceholder(s string) bool {
	if t == nil {
		return false
	}
	return (t.UID != "" && strings.Contains(s, t.UID)) ||
		(t.IgnoreUID != "" && strings.Contains(s, t.IgnoreUID))
}

// uniqueID returns a letters-only identifier that does not occur in s.
func uniqueID(s string) string {
	for {
		id := strings.Map(func(r rune) rune {
			switch {
			case r == '-':
				return -1
			case r >= '0' && r <= '9':
				return 'g' + (r - '0')
			}
			return r
		}, uuid.NewString())
		if !strings.Contains(s, id) {
			return id
		}
	}
}

func replaceSubmatch(re *regexp.Regexp, s string, fn func([]string) string) string {
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return fn(re.FindStringSubmatch(match))
	})
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
