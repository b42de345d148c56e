// Package tags holds the fixed element and attribute tables the minifier
// consults. All names are lower case.
package tags

import "github.com/livefir/htmlminifier/internal/sets"

var (
	// Inline elements: whitespace next to them is significant.
	Inline = sets.New(
		"a", "abbr", "acronym", "b", "bdi", "bdo", "big", "button", "cite",
		"code", "del", "dfn", "em", "font", "i", "img", "input", "ins", "kbd",
		"label", "mark", "math", "nobr", "object", "q", "rp", "rt", "rtc",
		"ruby", "s", "samp", "select", "small", "span", "strike", "strong",
		"sub", "sup", "svg", "textarea", "time", "tt", "u", "var",
	)

	// InlineText elements carry text inline and never reset the run of
	// characters the whitespace pass tracks.
	InlineText = sets.New(
		"a", "abbr", "acronym", "b", "big", "del", "em", "font", "i", "ins",
		"kbd", "mark", "nobr", "rp", "s", "samp", "small", "span", "strike",
		"strong", "sub", "sup", "time", "tt", "u", "var",
	)

	// SelfClosingInline elements never cause the text next to them to be
	// trimmed.
	SelfClosingInline = sets.New("comment", "img", "input", "wbr")

	// Void elements have no end tag when rendered.
	Void = sets.New(
		"area", "base", "br", "col", "embed", "hr", "img", "input", "link",
		"meta", "param", "source", "track", "wbr",
	)

	// ParserVoid is the wider set the tree builder closes immediately,
	// including obsolete elements.
	ParserVoid = Void.Union(sets.New(
		"basefont", "command", "frame", "image", "isindex", "keygen",
	))

	// SpecialContent elements hold script or style text.
	SpecialContent = sets.New("script", "style")

	// RawText elements whose content the tokenizer does not parse as
	// markup.
	RawText = sets.New("script", "style", "textarea", "title")

	// Srcset lists the elements whose srcset attribute is cleaned.
	Srcset = sets.New("img", "source")

	BooleanAttributes = sets.New(
		"allowfullscreen", "async", "autofocus", "autoplay", "checked",
		"compact", "controls", "declare", "default", "defaultchecked",
		"defaultmuted", "defaultselected", "defer", "disabled", "enabled",
		"formnovalidate", "hidden", "indeterminate", "inert", "ismap",
		"itemscope", "loop", "multiple", "muted", "nohref", "noresize",
		"noshade", "novalidate", "nowrap", "open", "pauseonexit", "readonly",
		"required", "reversed", "scoped", "seamless", "selected", "sortable",
		"truespeed", "typemustmatch", "visible",
	)

	// HTML4Block and HTML4Inline drive the HTML 4 content model: a block
	// element opened inside an inline one closes the inline element first.
	HTML4Block = sets.New(
		"address", "applet", "blockquote", "button", "center", "dd", "del",
		"dir", "div", "dl", "dt", "fieldset", "form", "frameset", "hr",
		"iframe", "ins", "isindex", "li", "map", "menu", "noframes",
		"noscript", "object", "ol", "p", "pre", "script", "table", "tbody",
		"td", "tfoot", "th", "thead", "tr", "ul",
	)
	HTML4Inline = sets.New(
		"a", "abbr", "acronym", "applet", "b", "basefont", "bdo", "big", "br",
		"button", "cite", "code", "del", "dfn", "em", "font", "i", "iframe",
		"img", "input", "ins", "kbd", "label", "map", "noscript", "object",
		"q", "s", "samp", "script", "select", "small", "span", "strike",
		"strong", "sub", "sup", "textarea", "tt", "u", "var",
	)
)

var (
	formTags = sets.New("input", "option", "optgroup", "select", "button", "datalist", "textarea")
	pTag     = sets.New("p")
	tableSec = sets.New("thead", "tbody")
	ddt      = sets.New("dd", "dt")
	rtp      = sets.New("rt", "rp")
)

// OpenImpliesClose maps an opening tag to the set of currently open
// elements it implicitly closes.
var OpenImpliesClose = map[string]sets.Set[string]{
	"tr":         sets.New("tr", "th", "td"),
	"th":         sets.New("th"),
	"td":         sets.New("thead", "th", "td"),
	"body":       sets.New("head", "link", "script"),
	"li":         sets.New("li"),
	"p":          pTag,
	"h1":         pTag,
	"h2":         pTag,
	"h3":         pTag,
	"h4":         pTag,
	"h5":         pTag,
	"h6":         pTag,
	"select":     formTags,
	"input":      formTags,
	"output":     formTags,
	"button":     formTags,
	"datalist":   formTags,
	"textarea":   formTags,
	"option":     sets.New("option"),
	"optgroup":   sets.New("optgroup", "option"),
	"dd":         ddt,
	"dt":         ddt,
	"address":    pTag,
	"article":    pTag,
	"aside":      pTag,
	"blockquote": pTag,
	"details":    pTag,
	"div":        pTag,
	"dl":         pTag,
	"fieldset":   pTag,
	"figcaption": pTag,
	"figure":     pTag,
	"footer":     pTag,
	"form":       pTag,
	"header":     pTag,
	"hr":         pTag,
	"main":       pTag,
	"nav":        pTag,
	"ol":         pTag,
	"pre":        pTag,
	"section":    pTag,
	"table":      pTag,
	"ul":         pTag,
	"rt":         rtp,
	"rp":         rtp,
	"tbody":      tableSec,
	"tfoot":      tableSec,
}
