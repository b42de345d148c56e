// Package parser builds a dom.Document from markup using the
// golang.org/x/net/html tokenizer. It keeps what the minifier needs and
// the standard tree construction drops: source offsets, attribute quotes,
// implied tags and custom attribute syntax.
package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/tags"
)

// Config controls tree construction.
type Config struct {
	// CaseSensitive keeps tag and attribute names as written.
	CaseSensitive bool
	// DecodeEntities decodes character references in text and attribute
	// values.
	DecodeEntities bool
	// HTML5 disables the HTML 4 rule that a block element closes an open
	// inline element.
	HTML5 bool
	// ContinueOnParseError turns malformed regions into literal text.
	ContinueOnParseError bool
	CustomAttrAssign     []*regexp.Regexp
	CustomAttrSurround   []Surround
}

var invalidTagName = regexp.MustCompile(`<[^\sA-Za-z0-9/!?<=>][^<>\s]*>`)

type builder struct {
	input    string
	cfg      Config
	doc      *dom.Document
	stack    []dom.NodeID
	assign   []*regexp.Regexp
	surround []anchoredSurround
}

// Parse builds the document tree of input.
func Parse(input string, cfg Config) (*dom.Document, error) {
	b := &builder{input: input, cfg: cfg, doc: dom.New()}
	for _, re := range cfg.CustomAttrAssign {
		b.assign = append(b.assign, anchor(re))
	}
	for _, s := range cfg.CustomAttrSurround {
		b.surround = append(b.surround, anchoredSurround{open: anchor(s.Open), close: anchor(s.Close)})
	}

	z := html.NewTokenizer(strings.NewReader(input))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenize: %w", err)
			}
			if offset < len(input) {
				if err := b.malformed(offset, len(input), ReasonUnterminatedTag); err != nil {
					return nil, err
				}
			}
			break
		}

		raw := string(z.Raw())
		start, end := offset, offset+len(raw)
		offset = end

		var err error
		switch tt {
		case html.TextToken:
			err = b.text(raw, start, end)
		case html.StartTagToken, html.SelfClosingTagToken:
			var rawText bool
			rawText, err = b.startTag(raw, start, end, tt == html.SelfClosingTagToken)
			if !rawText {
				z.NextIsNotRawText()
			}
		case html.EndTagToken:
			b.endTag(tagName(raw[2:]), start, end)
		case html.CommentToken:
			err = b.comment(raw, start, end, z.Err() == io.EOF)
		case html.DoctypeToken:
			err = b.doctype(raw, start, end)
		}
		if err != nil {
			return nil, err
		}
	}

	for len(b.stack) > 0 {
		b.closeTop(len(input), true)
	}
	return b.doc, nil
}

// malformed handles a malformed region: an error, or literal text when the
// caller asked to continue.
func (b *builder) malformed(start, end int, reason string) error {
	if !b.cfg.ContinueOnParseError {
		return newParseError(b.input, start, reason)
	}
	b.appendText(b.input[start:end], start, end)
	return nil
}

func (b *builder) current() dom.NodeID {
	if n := len(b.stack); n > 0 {
		return b.stack[n-1]
	}
	return b.doc.Root()
}

func (b *builder) name(s string) string {
	if b.cfg.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (b *builder) topName() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.doc.Node(b.current()).Name
}

func (b *builder) closeTop(end int, implied bool) {
	id := b.current()
	b.stack = b.stack[:len(b.stack)-1]
	n := b.doc.Node(id)
	n.End = end
	n.EndImplied = implied
}

func (b *builder) appendText(data string, start, end int) {
	parent := b.doc.Node(b.current())
	if k := len(parent.Children); k > 0 {
		if last := b.doc.Node(parent.Children[k-1]); last.Kind == dom.KindText {
			last.Data += data
			last.End = end
			return
		}
	}
	id := b.doc.NewText(data)
	n := b.doc.Node(id)
	n.Start, n.End = start, end
	b.doc.Append(b.current(), id)
}

func (b *builder) text(raw string, start, end int) error {
	parent := b.topName()
	if !tags.RawText.Has(parent) {
		if loc := invalidTagName.FindStringIndex(raw); loc != nil && !b.cfg.ContinueOnParseError {
			return newParseError(b.input, start+loc[0], ReasonInvalidTagName)
		}
	}
	data := raw
	if b.cfg.DecodeEntities && !tags.SpecialContent.Has(parent) {
		data = html.UnescapeString(raw)
	}
	b.appendText(data, start, end)
	return nil
}

// startTag opens an element and reports whether its content is raw text.
func (b *builder) startTag(raw string, start, end int, selfClosing bool) (bool, error) {
	name := tagName(raw[1:])
	s := &attrScanner{raw: raw, pos: 1 + len(name), assign: b.assign, surround: b.surround}
	attrs, bad := s.scan()
	if bad != "" {
		if !b.cfg.ContinueOnParseError {
			return false, newParseError(b.input, start, ReasonInvalidAttribute)
		}
		b.appendText(raw, start, end)
		return false, nil
	}
	for i := range attrs {
		attrs[i].Name = b.name(attrs[i].Name)
		if b.cfg.DecodeEntities {
			attrs[i].Value = html.UnescapeString(attrs[i].Value)
		}
	}

	name = b.name(name)
	if !b.cfg.HTML5 && tags.HTML4Block.Has(name) {
		for len(b.stack) > 0 && tags.HTML4Inline.Has(b.topName()) {
			b.closeTop(start, true)
		}
	}
	if closes, ok := tags.OpenImpliesClose[name]; ok {
		for len(b.stack) > 0 && closes.Has(b.topName()) {
			b.closeTop(start, true)
		}
	}

	id := b.doc.NewElement(name, attrs)
	n := b.doc.Node(id)
	n.Start, n.End = start, end
	n.SelfClosing = selfClosing
	b.doc.Append(b.current(), id)
	if selfClosing || tags.ParserVoid.Has(name) {
		return false, nil
	}
	b.stack = append(b.stack, id)
	return tags.RawText.Has(name), nil
}

func (b *builder) sameName(a, c string) bool {
	if b.cfg.CaseSensitive {
		return strings.EqualFold(a, c)
	}
	return a == c
}

func (b *builder) endTag(name string, start, end int) {
	name = b.name(name)
	if tags.ParserVoid.Has(name) {
		if name == "br" {
			id := b.doc.NewElement(name, nil)
			n := b.doc.Node(id)
			n.Start, n.End = start, end
			b.doc.Append(b.current(), id)
		}
		return
	}
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.sameName(b.doc.Node(b.stack[i]).Name, name) {
			for len(b.stack) > i+1 {
				b.closeTop(start, true)
			}
			b.closeTop(end, false)
			return
		}
	}
	if name == "p" {
		id := b.doc.NewElement(name, nil)
		n := b.doc.Node(id)
		n.Start, n.End = start, end
		n.EndImplied = true
		b.doc.Append(b.current(), id)
	}
}

// instructionName returns the lower-cased name of a directive payload.
func instructionName(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool {
		return r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
	})
	if i < 0 {
		i = len(s)
	}
	return strings.ToLower(s[:i])
}

func (b *builder) directive(inner string, start, end int) {
	id := b.doc.NewDirective(instructionName(inner), inner)
	n := b.doc.Node(id)
	n.Start, n.End = start, end
	b.doc.Append(b.current(), id)
}

func (b *builder) doctype(raw string, start, end int) error {
	if !strings.HasSuffix(raw, ">") {
		return b.malformed(start, end, ReasonUnterminatedTag)
	}
	inner := raw[1 : len(raw)-1]
	id := b.doc.NewDirective("!doctype", inner)
	n := b.doc.Node(id)
	n.Start, n.End = start, end
	b.doc.Append(b.current(), id)
	return nil
}

func commentData(raw string) string {
	body := raw[len("<!--"):]
	switch {
	case strings.HasSuffix(body, "--!>"):
		return body[:len(body)-4]
	case strings.HasSuffix(body, "-->"):
		return body[:len(body)-3]
	case strings.HasSuffix(body, ">"):
		// abrupt close: <!--> or <!--->
		return strings.TrimRight(body[:len(body)-1], "-")
	}
	return body
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func (b *builder) comment(raw string, start, end int, eof bool) error {
	switch {
	case strings.HasPrefix(raw, "<!--"):
		if eof {
			return b.malformed(start, end, ReasonUnterminatedComment)
		}
		id := b.doc.NewComment(commentData(raw))
		n := b.doc.Node(id)
		n.Start, n.End = start, end
		b.doc.Append(b.current(), id)
	case strings.HasPrefix(raw, "</"):
		// bogus end tags such as </ x> or </> stay in the output
		b.appendText(raw, start, end)
	case eof:
		return b.malformed(start, end, ReasonUnterminatedTag)
	case strings.HasPrefix(raw, "<?"), strings.HasPrefix(raw, "<!["),
		len(raw) > 2 && raw[1] == '!' && isLetter(raw[2]):
		b.directive(strings.TrimSuffix(raw[1:], ">"), start, end)
	default:
		return b.malformed(start, end, ReasonInvalidComment)
	}
	return nil
}
