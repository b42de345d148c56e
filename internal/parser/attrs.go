package parser

import (
	"regexp"
	"strings"

	"github.com/livefir/htmlminifier/internal/dom"
)

// Surround is a pair of patterns wrapping a whole attribute, such as
// {{#if x}}...{{/if}}.
type Surround struct {
	Open  *regexp.Regexp
	Close *regexp.Regexp
}

type anchoredSurround struct {
	open, close *regexp.Regexp
}

func anchor(re *regexp.Regexp) *regexp.Regexp {
	if re == nil {
		return nil
	}
	return regexp.MustCompile(`^(?:` + re.String() + `)`)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\n', '\r', '\t', '\f':
		return true
	}
	return false
}

// tagName returns the name that starts at s, as the tokenizer reads it.
func tagName(s string) string {
	i := 0
	for i < len(s) && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' {
		i++
	}
	return s[:i]
}

// attrScanner re-reads the raw bytes of a start tag. The tokenizer
// normalizes attributes; the minifier needs the quotes and custom syntax
// the author wrote.
type attrScanner struct {
	raw      string
	pos      int
	assign   []*regexp.Regexp
	surround []anchoredSurround
}

func (s *attrScanner) skipSpace() {
	for s.pos < len(s.raw) && isSpace(s.raw[s.pos]) {
		s.pos++
	}
}

func (s *attrScanner) match(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	loc := re.FindStringIndex(s.raw[s.pos:])
	if loc == nil || loc[1] == 0 {
		return ""
	}
	m := s.raw[s.pos : s.pos+loc[1]]
	s.pos += loc[1]
	return m
}

func (s *attrScanner) customAssign() (string, bool) {
	for _, re := range s.assign {
		if loc := re.FindStringIndex(s.raw[s.pos:]); loc != nil && loc[1] > 0 {
			return s.raw[s.pos : s.pos+loc[1]], true
		}
	}
	return "", false
}

// scan returns the attributes, or the offending name when one is invalid.
func (s *attrScanner) scan() ([]dom.Attribute, string) {
	var attrs []dom.Attribute
	for {
		s.skipSpace()
		if s.pos >= len(s.raw) || s.raw[s.pos] == '>' {
			return attrs, ""
		}
		if s.raw[s.pos] == '/' {
			s.pos++
			continue
		}

		attr := dom.Attribute{Assign: "=", Quote: dom.QuoteNone}
		var closeRe *regexp.Regexp
		for _, sr := range s.surround {
			if open := s.match(sr.open); open != "" {
				attr.SurroundOpen = open
				closeRe = sr.close
				s.skipSpace()
				break
			}
		}

		keyStart := s.pos
		assigned := false
		for s.pos < len(s.raw) {
			if s.pos > keyStart {
				if op, ok := s.customAssign(); ok {
					attr.Assign = op
					assigned = true
					break
				}
			}
			c := s.raw[s.pos]
			if c == '=' && s.pos == keyStart {
				s.pos++
				continue
			}
			if isSpace(c) || c == '/' || c == '>' || c == '=' {
				break
			}
			s.pos++
		}
		attr.Name = s.raw[keyStart:s.pos]
		if strings.ContainsAny(attr.Name, "\"'<") {
			return nil, attr.Name
		}

		if assigned {
			s.pos += len(attr.Assign)
			s.value(&attr)
		} else {
			save := s.pos
			s.skipSpace()
			if s.pos < len(s.raw) && s.raw[s.pos] == '=' {
				s.pos++
				s.skipSpace()
				s.value(&attr)
			} else {
				s.pos = save
			}
		}

		if closeRe != nil {
			save := s.pos
			s.skipSpace()
			if closing := s.match(closeRe); closing != "" {
				attr.SurroundClose = closing
			} else {
				s.pos = save
			}
		}

		if attr.Name == "" && attr.SurroundOpen == "" {
			// nothing consumed; step over the byte to guarantee progress
			if s.pos == keyStart {
				s.pos++
			}
			continue
		}
		attrs = append(attrs, attr)
	}
}

func (s *attrScanner) value(attr *dom.Attribute) {
	if s.pos >= len(s.raw) || s.raw[s.pos] == '>' {
		attr.Quote = dom.QuoteUnquoted
		return
	}
	switch q := s.raw[s.pos]; q {
	case '"', '\'':
		end := strings.IndexByte(s.raw[s.pos+1:], q)
		if end < 0 {
			attr.Value = s.raw[s.pos+1:]
			s.pos = len(s.raw)
		} else {
			attr.Value = s.raw[s.pos+1 : s.pos+1+end]
			s.pos += end + 2
		}
		if q == '"' {
			attr.Quote = dom.QuoteDouble
		} else {
			attr.Quote = dom.QuoteSingle
		}
	default:
		start := s.pos
		for s.pos < len(s.raw) && !isSpace(s.raw[s.pos]) && s.raw[s.pos] != '>' {
			s.pos++
		}
		attr.Value = s.raw[start:s.pos]
		attr.Quote = dom.QuoteUnquoted
	}
}
