// Package serialize renders a document back to markup.
package serialize

import (
	"strings"
	"unicode/utf8"

	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/tags"
)

type Config struct {
	KeepClosingSlash    bool
	RemoveTagWhitespace bool
	// MaxLineLength wraps output lines at segment boundaries when positive.
	MaxLineLength int
	// Fragments restores protected fragments in the rendered output.
	Fragments *fragments.Table
}

// Render serializes doc. Protected fragments are restored before lines
// are measured, so line lengths count the original fragment text.
func Render(doc *dom.Document, cfg Config) string {
	r := &renderer{doc: doc, cfg: cfg}
	r.node(doc.Root())
	if cfg.MaxLineLength <= 0 {
		return cfg.Fragments.Restore(strings.Join(r.segments, ""))
	}
	return wrap(r.segments, cfg.MaxLineLength, cfg.Fragments.Restore)
}

type renderer struct {
	doc      *dom.Document
	cfg      Config
	segments []string
}

func (r *renderer) emit(s string) { r.segments = append(r.segments, s) }

func (r *renderer) node(id dom.NodeID) {
	n := r.doc.Node(id)
	switch n.Kind {
	case dom.KindRoot:
		r.children(n)
	case dom.KindElement:
		r.element(n)
	case dom.KindText:
		r.emit(n.Data)
	case dom.KindComment:
		r.emit("<!--" + n.Data + "-->")
	case dom.KindDirective:
		r.emit("<" + n.Data + ">")
	}
}

func (r *renderer) children(n *dom.Node) {
	for _, c := range n.Children {
		r.node(c)
	}
}

func (r *renderer) element(n *dom.Node) {
	void := tags.Void.Has(strings.ToLower(n.Name))
	slash := r.cfg.KeepClosingSlash && n.SelfClosing && (void || len(n.Children) == 0)

	head := "<" + n.Name
	if len(n.Attrs) > 0 {
		head += " "
	}
	r.emit(head)
	for i := range n.Attrs {
		r.emit(r.attribute(n.Attrs, i, slash))
	}
	if slash {
		r.emit("/>")
		return
	}
	r.emit(">")
	if void {
		return
	}
	r.children(n)
	r.emit("</" + n.Name + ">")
}

// attribute renders list[i] together with the space that separates it
// from whatever follows.
func (r *renderer) attribute(list []dom.Attribute, i int, slash bool) string {
	a := list[i]
	var b strings.Builder
	b.WriteString(a.SurroundOpen)
	b.WriteString(a.Name)
	if a.Quote.HasValue() {
		b.WriteString(a.Assign)
		b.WriteString(a.Quote.Char())
		b.WriteString(a.Value)
		b.WriteString(a.Quote.Char())
	}

	last := i == len(list)-1
	bare := a.Quote.Char() == ""
	spaced := false
	switch {
	case last:
		// a slash right after an unquoted value would become part of it
		spaced = slash && bare && a.Quote.HasValue()
	case r.cfg.RemoveTagWhitespace:
		spaced = bare || a.Value == ""
	default:
		spaced = true
	}
	if !spaced && bare && strings.HasSuffix(b.String(), "/") {
		spaced = true
	}
	if spaced {
		b.WriteByte(' ')
	}
	b.WriteString(a.SurroundClose)
	return b.String()
}

// wrap joins segments into lines no longer than max runes. A line is
// broken before the segment that overflows it, unless the line is empty,
// and at every newline inside a segment.
func wrap(segments []string, max int, restore func(string) string) string {
	var lines []string
	line := ""
	for _, seg := range segments {
		for {
			end := strings.IndexByte(seg, '\n')
			piece := seg
			if end >= 0 {
				piece = seg[:end]
			}
			n := len(line)
			line += restore(piece)
			if n > 0 && utf8.RuneCountInString(line) > max {
				lines = append(lines, line[:n])
				line = line[n:]
			}
			if end < 0 {
				break
			}
			lines = append(lines, line)
			line = ""
			seg = seg[end+1:]
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
