package htmlminifier

import (
	"regexp"
	"slices"
	"strings"

	"github.com/livefir/htmlminifier/internal/attrs"
	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/metrics"
	"github.com/livefir/htmlminifier/internal/tags"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

var conditionalComment = regexp.MustCompile(`^\[if\s[^\]]+]|\[endif]$`)

// walker applies the per-node transformations to one document.
type walker struct {
	doc   *dom.Document
	opts  *Options
	attrs attrs.Config
	run   *delegate.Runner
	table *fragments.Table
	stats *metrics.Collector
}

func (w *walker) node(id dom.NodeID) {
	n := w.doc.Node(id)
	switch n.Kind {
	case dom.KindRoot:
		w.children(id)
	case dom.KindElement:
		w.element(id)
	case dom.KindText:
		w.text(id)
	case dom.KindComment:
		w.comment(id)
	case dom.KindDirective:
		w.directive(id)
	}
}

// children visits a copy of the child list so removals are safe.
func (w *walker) children(id dom.NodeID) {
	for _, c := range slices.Clone(w.doc.Node(id).Children) {
		w.node(c)
	}
}

func (w *walker) text(id dom.NodeID) {
	if !w.opts.DecodeEntities || tags.SpecialContent.Has(strings.ToLower(w.doc.ParentName(id))) {
		return
	}
	n := w.doc.Node(id)
	n.Data = escapeText(n.Data)
}

func (w *walker) keepComment(data string) bool {
	if w.table.IsIgnoreComment(data) || conditionalComment.MatchString(data) {
		return true
	}
	for _, re := range w.opts.IgnoreCustomComments {
		if re.MatchString(data) {
			return true
		}
	}
	return false
}

func (w *walker) comment(id dom.NodeID) {
	if !w.opts.RemoveComments || w.keepComment(w.doc.Node(id).Data) {
		return
	}
	w.doc.Remove(id)
	w.stats.IncrementCommentRemoved()
}

func (w *walker) directive(id dom.NodeID) {
	n := w.doc.Node(id)
	if n.Name != "!doctype" {
		return
	}
	switch {
	case w.opts.UseShortDoctype && w.opts.RemoveTagWhitespace:
		n.Data = "!doctypehtml"
	case w.opts.UseShortDoctype:
		n.Data = "!doctype html"
	default:
		n.Data = whitespace.CollapseAll(n.Data)
	}
}

// canRemove reports whether an empty element may be dropped. Elements
// whose content comes from an attribute stay.
func canRemove(tag string, n *dom.Node) bool {
	if tags.Void.Has(tag) {
		return false
	}
	switch tag {
	case "textarea":
		return false
	case "audio", "script", "video":
		return !n.HasAttr("src")
	case "iframe":
		return !n.HasAttr("src") && !n.HasAttr("srcdoc")
	case "object":
		return !n.HasAttr("data")
	case "applet":
		return !n.HasAttr("code")
	}
	return true
}

// dropCommentChildren removes the children of id when every one of them is
// a removable comment.
func (w *walker) dropCommentChildren(id dom.NodeID) {
	kids := w.doc.Node(id).Children
	if len(kids) == 0 {
		return
	}
	for _, c := range kids {
		k := w.doc.Node(c)
		if k.Kind != dom.KindComment || w.table.IsIgnoreComment(k.Data) {
			return
		}
	}
	for _, c := range slices.Clone(kids) {
		w.doc.Remove(c)
		w.stats.IncrementCommentRemoved()
	}
}

func (w *walker) element(id dom.NodeID) {
	n := w.doc.Node(id)
	tag := strings.ToLower(n.Name)

	if w.opts.RemoveEmptyElements {
		w.dropCommentChildren(id)
		if len(n.Children) == 0 && canRemove(tag, n) {
			w.doc.Remove(id)
			w.stats.IncrementElementRemoved()
			return
		}
	}

	before := len(n.Attrs)
	n.Attrs = attrs.Normalize(tag, n.Attrs, w.attrs)
	w.stats.AddAttributesRemoved(before - len(n.Attrs))
	attrs.ResolveQuotes(n.Attrs, w.attrs)

	w.children(id)

	first := w.firstText(id)
	if first == nil {
		return
	}
	switch {
	case tag == "script" && attrs.IsExecutableScript(tag, n.Attrs):
		first.Data = w.run.MinifyJS(first.Data, false)
	case tag == "style":
		first.Data = w.run.MinifyCSS(first.Data, delegate.CSSStylesheet)
	}
}

// firstText returns the first child of id when it is a text node.
func (w *walker) firstText(id dom.NodeID) *dom.Node {
	kids := w.doc.Node(id).Children
	if len(kids) == 0 {
		return nil
	}
	if c := w.doc.Node(kids[0]); c.Kind == dom.KindText {
		return c
	}
	return nil
}
