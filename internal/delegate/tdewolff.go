package delegate

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mimeJS  = "application/javascript"
	mimeCSS = "text/css"
)

var (
	minifier *minify.M
	once     sync.Once

	unwrapInlineJS  = regexp.MustCompile(`^function _\(\)\{([\s\S]*)\}$`)
	unwrapInlineCSS = regexp.MustCompile(`^\*\{([\s\S]*)\}$`)
	unwrapMediaCSS  = regexp.MustCompile(`^@media ([\s\S]*?)\s*\{[\s\S]*\}$`)
)

// getMinifier returns the shared script and style minifier (singleton)
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.AddFunc(mimeJS, js.Minify)
		minifier.AddFunc(mimeCSS, css.Minify)
	})
	return minifier
}

// Tdewolff is the default JSMinifier and CSSMinifier, backed by
// github.com/tdewolff/minify.
type Tdewolff struct{}

// MinifyJS minifies code. Inline handler code is minified as the body of a
// function so that a bare return parses.
func (Tdewolff) MinifyJS(code string, inline bool) (string, error) {
	src := code
	if inline {
		src = "function _(){" + code + "}"
	}
	out, err := getMinifier().String(mimeJS, src)
	if err != nil {
		return "", fmt.Errorf("minify js: %w", err)
	}
	if !inline {
		return out, nil
	}
	m := unwrapInlineJS.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("minify js: unexpected output %q", out)
	}
	return m[1], nil
}

// MinifyCSS minifies code. Declaration lists and media queries are wrapped
// into a stylesheet for the minifier and unwrapped afterwards.
func (Tdewolff) MinifyCSS(code string, kind CSSKind) (string, error) {
	var src string
	var unwrap *regexp.Regexp
	switch kind {
	case CSSInline:
		src, unwrap = "*{"+code+"}", unwrapInlineCSS
	case CSSMedia:
		src, unwrap = "@media "+code+"{a{top:0}}", unwrapMediaCSS
	default:
		src = code
	}
	out, err := getMinifier().String(mimeCSS, src)
	if err != nil {
		return "", fmt.Errorf("minify css: %w", err)
	}
	if unwrap == nil {
		return out, nil
	}
	m := unwrap.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("minify css: unexpected %s output %q", kind, out)
	}
	return m[1], nil
}
