package whitespace

import (
	"regexp"
	"strings"

	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/tags"
)

// Hook lets callers override whether a tag's whitespace may be trimmed or
// collapsed. def is the built-in decision.
type Hook func(tag string, attrs []dom.Attribute, def func(tag string) bool) bool

// TreeConfig configures the document pass.
type TreeConfig struct {
	Options
	CanTrim     Hook
	CanCollapse Hook
	// IgnoreUID marks placeholder comments of ignored blocks; whitespace
	// around them is never moved.
	IgnoreUID string
}

// DefaultCanTrim reports whether whitespace inside tag may be trimmed.
func DefaultCanTrim(tag string) bool { return tag != "pre" && tag != "textarea" }

// DefaultCanCollapse reports whether whitespace inside tag may be collapsed.
func DefaultCanCollapse(tag string) bool {
	switch tag {
	case "script", "style", "pre", "textarea":
		return false
	}
	return true
}

type tokenKind uint8

const (
	tokStart tokenKind = iota
	tokEnd
	tokComment
	tokText
)

type token struct {
	kind tokenKind
	id   dom.NodeID
}

var endsInSpaceOrEmpty = regexp.MustCompile(`(?:^|\s)$`)

// pass walks the flattened document once, in order.
type pass struct {
	doc    *dom.Document
	cfg    TreeConfig
	tokens []token

	currentChars string
	noTrim       []dom.NodeID
	noCollapse   []dom.NodeID
	// done is the number of tokens already processed.
	done int
}

// CollapseTree collapses the whitespace of every text node of doc.
func CollapseTree(doc *dom.Document, cfg TreeConfig) {
	p := &pass{doc: doc, cfg: cfg}
	p.flatten(doc.Root())
	for i, tok := range p.tokens {
		switch tok.kind {
		case tokStart:
			p.start(tok.id)
		case tokEnd:
			p.end(tok.id)
		case tokText:
			p.text(i)
		}
		p.done = i + 1
	}
	p.squash("br")
}

func (p *pass) flatten(id dom.NodeID) {
	n := p.doc.Node(id)
	switch n.Kind {
	case dom.KindRoot:
		for _, c := range n.Children {
			p.flatten(c)
		}
	case dom.KindElement:
		p.tokens = append(p.tokens, token{tokStart, id})
		for _, c := range n.Children {
			p.flatten(c)
		}
		if !tags.Void.Has(n.Name) {
			p.tokens = append(p.tokens, token{tokEnd, id})
		}
	case dom.KindText:
		// Texts left adjacent by a removed comment form one run.
		if last := len(p.tokens) - 1; last >= 0 && p.tokens[last].kind == tokText {
			*p.data(last) += n.Data
			n.Data = ""
			return
		}
		p.tokens = append(p.tokens, token{tokText, id})
	case dom.KindComment, dom.KindDirective:
		p.tokens = append(p.tokens, token{tokComment, id})
	}
}

func (p *pass) canTrim(id dom.NodeID) bool {
	n := p.doc.Node(id)
	if p.cfg.CanTrim != nil {
		return p.cfg.CanTrim(n.Name, n.Attrs, DefaultCanTrim)
	}
	return DefaultCanTrim(n.Name)
}

func (p *pass) canCollapse(id dom.NodeID) bool {
	n := p.doc.Node(id)
	if p.cfg.CanCollapse != nil {
		return p.cfg.CanCollapse(n.Name, n.Attrs, DefaultCanCollapse)
	}
	return DefaultCanCollapse(n.Name)
}

// tagOf names a token the way neighbouring text sees it: the element name,
// "/name" for end tags and "comment" for comments and directives.
func (p *pass) tagOf(i int) string {
	if i < 0 || i >= len(p.tokens) {
		return ""
	}
	tok := p.tokens[i]
	switch tok.kind {
	case tokStart:
		return p.doc.Node(tok.id).Name
	case tokEnd:
		return "/" + p.doc.Node(tok.id).Name
	}
	return "comment"
}

func (p *pass) data(i int) *string { return &p.doc.Node(p.tokens[i].id).Data }

func (p *pass) isIgnoredComment(i int) bool {
	return p.cfg.IgnoreUID != "" && strings.Contains(*p.data(i), p.cfg.IgnoreUID)
}

func (p *pass) smart(s, prevTag, nextTag string) string {
	trimLeft := prevTag != "" && !tags.SelfClosingInline.Has(prevTag)
	if trimLeft {
		if name, ok := strings.CutPrefix(prevTag, "/"); ok {
			trimLeft = !tags.Inline.Has(name)
		} else {
			trimLeft = !tags.InlineText.Has(prevTag)
		}
	}
	trimRight := nextTag != "" && !tags.SelfClosingInline.Has(nextTag)
	if trimRight {
		if name, ok := strings.CutPrefix(nextTag, "/"); ok {
			trimRight = !tags.InlineText.Has(name)
		} else {
			trimRight = !tags.Inline.Has(nextTag)
		}
	}
	return Collapse(s, p.cfg.Options, trimLeft, trimRight, prevTag != "" && nextTag != "")
}

// trimTrailing walks back from index through closing tags and trims the
// last text written before nextTag.
func (p *pass) trimTrailing(index int, nextTag string) {
	endTag := dom.NoNode
	for ; index >= 0 && (endTag == dom.NoNode || p.canTrim(endTag)); index-- {
		tok := p.tokens[index]
		switch tok.kind {
		case tokEnd:
			endTag = tok.id
			continue
		case tokText:
			d := p.data(index)
			*d = p.smart(*d, "", nextTag)
			if *d == "" {
				continue
			}
		}
		return
	}
}

func (p *pass) squash(nextTag string) {
	index := p.done - 1
	if p.done > 1 {
		tok := p.tokens[index]
		if (tok.kind == tokComment && !p.isIgnoredComment(index)) || (tok.kind == tokText && *p.data(index) == "") {
			index--
		}
	}
	p.trimTrailing(index, nextTag)
}

func (p *pass) start(id dom.NodeID) {
	name := p.doc.Node(id).Name
	if len(p.noTrim) == 0 {
		p.squash(name)
	}
	if !tags.Void.Has(name) {
		if !p.canTrim(id) || len(p.noTrim) > 0 {
			p.noTrim = append(p.noTrim, id)
		}
		if !p.canCollapse(id) || len(p.noCollapse) > 0 {
			p.noCollapse = append(p.noCollapse, id)
		}
	}
	if !tags.InlineText.Has(name) {
		p.currentChars = ""
	}
}

func (p *pass) end(id dom.NodeID) {
	n := p.doc.Node(id)
	if len(p.noTrim) > 0 {
		if p.noTrim[len(p.noTrim)-1] == id {
			p.noTrim = p.noTrim[:len(p.noTrim)-1]
		}
	} else {
		p.squash("/" + n.Name)
	}
	if len(p.noCollapse) > 0 && p.noCollapse[len(p.noCollapse)-1] == id {
		p.noCollapse = p.noCollapse[:len(p.noCollapse)-1]
	}
	if !tags.Inline.Has(n.Name) {
		p.currentChars = ""
	} else if p.isEmpty(n) {
		p.currentChars += "|"
	}
}

func (p *pass) isEmpty(n *dom.Node) bool {
	for _, c := range n.Children {
		if child := p.doc.Node(c); child.Kind != dom.KindText || child.Data != "" {
			return false
		}
	}
	return true
}

func (p *pass) text(i int) {
	d := p.data(i)
	if parent := p.doc.ParentName(p.tokens[i].id); tags.SpecialContent.Has(parent) {
		if len(p.noTrim) == 0 {
			*d = Collapse(*d, p.cfg.Options, true, true, false)
		}
		return
	}

	text := *d
	prevTag, nextTag := p.tagOf(i-1), p.tagOf(i+1)
	if len(p.noTrim) == 0 {
		if prevTag == "comment" && !p.isIgnoredComment(i-1) &&
			!p.cfg.ConservativeCollapse && strings.HasSuffix(p.currentChars, " ") {
			text = p.moveTrailingSpace(i-2) + text
		}
		if prevTag == "/nobr" || prevTag == "wbr" {
			if StartsWithSpace(text) {
				j := i - 1
				for j > 0 && p.tagOf(j) != prevTag {
					j--
				}
				p.trimTrailing(j-1, "br")
			}
		} else if prevTag != "" && tags.InlineText.Has(strings.TrimPrefix(prevTag, "/")) {
			text = Collapse(text, p.cfg.Options, endsInSpaceOrEmpty.MatchString(p.currentChars), false, false)
		}
		if prevTag != "" || nextTag != "" {
			text = p.smart(text, prevTag, nextTag)
		} else {
			text = Collapse(text, p.cfg.Options, true, true, false)
		}
		if text == "" && EndsWithSpace(p.currentChars) && strings.HasPrefix(prevTag, "/") {
			p.trimTrailing(i-1, nextTag)
		}
	}
	if len(p.noCollapse) == 0 && nextTag != "html" && !(prevTag != "" && nextTag != "") {
		text = CollapseAll(text)
	}
	p.currentChars += text
	*d = text
}

var trailingSpace = regexp.MustCompile(`\s+$`)

// moveTrailingSpace strips the trailing whitespace of text token i and
// returns it.
func (p *pass) moveTrailingSpace(i int) string {
	if i < 0 || p.tokens[i].kind != tokText {
		return ""
	}
	d := p.data(i)
	loc := trailingSpace.FindStringIndex(*d)
	if loc == nil {
		return ""
	}
	moved := (*d)[loc[0]:]
	*d = (*d)[:loc[0]]
	return moved
}
