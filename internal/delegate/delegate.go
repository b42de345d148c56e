// Package delegate holds the collaborators that minify embedded scripts,
// stylesheets and URLs, together with the Runner that calls them safely.
package delegate

// CSSKind tells a CSSMinifier what kind of fragment it receives.
type CSSKind string

const (
	// CSSStylesheet is the content of a style element.
	CSSStylesheet CSSKind = ""
	// CSSInline is the declaration list of a style attribute.
	CSSInline CSSKind = "inline"
	// CSSMedia is a media query list.
	CSSMedia CSSKind = "media"
)

// JSMinifier minifies script code. inline is true for event handler
// attributes, whose code may use a bare return.
type JSMinifier interface {
	MinifyJS(code string, inline bool) (string, error)
}

// CSSMinifier minifies style code of the given kind.
type CSSMinifier interface {
	MinifyCSS(code string, kind CSSKind) (string, error)
}

// URLMinifier shortens a single URL.
type URLMinifier interface {
	MinifyURL(u string) (string, error)
}

// JSMinifierFunc adapts a function to JSMinifier.
type JSMinifierFunc func(code string, inline bool) (string, error)

func (f JSMinifierFunc) MinifyJS(code string, inline bool) (string, error) { return f(code, inline) }

// CSSMinifierFunc adapts a function to CSSMinifier.
type CSSMinifierFunc func(code string, kind CSSKind) (string, error)

func (f CSSMinifierFunc) MinifyCSS(code string, kind CSSKind) (string, error) { return f(code, kind) }

// URLMinifierFunc adapts a function to URLMinifier.
type URLMinifierFunc func(u string) (string, error)

func (f URLMinifierFunc) MinifyURL(u string) (string, error) { return f(u) }
