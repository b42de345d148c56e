package delegate

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/logfields"
	"github.com/livefir/htmlminifier/internal/metrics"
)

var (
	leadingHTMLComment  = regexp.MustCompile(`^\s*<!--.*`)
	trailingHTMLComment = regexp.MustCompile(`\n\s*-->\s*$`)
)

// Runner calls the configured collaborators. A nil collaborator disables
// that kind of minification. A failing collaborator never fails the
// document: the error is logged and reported, and the original code is
// kept.
type Runner struct {
	JS  JSMinifier
	CSS CSSMinifier
	URL URLMinifier

	// Table expands protected fragments before script code is handed out.
	Table *fragments.Table

	Logger  *slog.Logger
	OnError func(stage string, err error)
	Metrics *metrics.Collector
}

func (r *Runner) fail(stage string, code string, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("minifier failed, keeping original",
		logfields.Stage(stage),
		logfields.BytesIn(len(code)),
		logfields.Error(err))
	if r.OnError != nil {
		r.OnError(stage, err)
	}
}

func (r *Runner) record(stage string, err error) {
	r.Metrics.RecordDelegateCall(err != nil)
	r.Metrics.IncrementCustomCounter("delegate_" + stage)
}

// stripHTMLComments removes the <!-- and --> lines old pages put around
// script bodies.
func stripHTMLComments(code string) string {
	loc := leadingHTMLComment.FindStringIndex(code)
	if loc == nil {
		return code
	}
	return trailingHTMLComment.ReplaceAllString(code[loc[1]:], "")
}

// MinifyJS minifies script code; inline marks event handler code.
func (r *Runner) MinifyJS(text string, inline bool) string {
	if r == nil || r.JS == nil {
		return text
	}
	code := r.Table.Expand(stripHTMLComments(text))
	out, err := r.JS.MinifyJS(code, inline)
	r.record("js", err)
	if err != nil {
		r.fail("js", text, err)
		return text
	}
	return strings.TrimSuffix(out, ";")
}

// MinifyCSS minifies style code, shortening url() references first.
func (r *Runner) MinifyCSS(text string, kind CSSKind) string {
	if r == nil || r.CSS == nil {
		return text
	}
	code := r.rewriteURLs(text)
	out, err := r.CSS.MinifyCSS(code, kind)
	r.record("css", err)
	if err != nil {
		r.fail("css", text, err)
		return text
	}
	return out
}

// MinifyURL shortens one URL.
func (r *Runner) MinifyURL(u string) string {
	if r == nil || r.URL == nil {
		return u
	}
	out, err := r.URL.MinifyURL(u)
	r.record("url", err)
	if err != nil {
		r.fail("url", u, err)
		return u
	}
	return out
}

func isCSSSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// rewriteURLs passes every url(...) argument in css through MinifyURL,
// keeping its quotes.
func (r *Runner) rewriteURLs(css string) string {
	if r.URL == nil {
		return css
	}
	var b strings.Builder
	last := 0
	for i := 0; i+3 <= len(css); i++ {
		if !strings.EqualFold(css[i:i+3], "url") {
			continue
		}
		start, end, next, ok := urlArgument(css, i+3)
		if !ok {
			continue
		}
		b.WriteString(css[last:start])
		b.WriteString(r.MinifyURL(css[start:end]))
		b.WriteString(css[end:next])
		last = next
		i = next - 1
	}
	if last == 0 {
		return css
	}
	b.WriteString(css[last:])
	return b.String()
}

// urlArgument parses `\s*\(\s*(quote?)(.*?)\1\s*\)` at i and returns the
// bounds of the URL and the offset just past the closing parenthesis.
func urlArgument(css string, i int) (start, end, next int, ok bool) {
	for i < len(css) && isCSSSpace(css[i]) {
		i++
	}
	if i >= len(css) || css[i] != '(' {
		return 0, 0, 0, false
	}
	i++
	for i < len(css) && isCSSSpace(css[i]) {
		i++
	}
	var quote byte
	if i < len(css) && (css[i] == '"' || css[i] == '\'') {
		quote = css[i]
		i++
	}
	start = i
	for j := i; j < len(css); j++ {
		if css[j] == '\n' {
			return 0, 0, 0, false
		}
		if quote != 0 && css[j] != quote {
			continue
		}
		k := j
		if quote != 0 {
			k++
		}
		for k < len(css) && isCSSSpace(css[k]) {
			k++
		}
		if k < len(css) && css[k] == ')' {
			if quote == 0 {
				// the lazy match stops before trailing whitespace
				end = j
				for end > start && isCSSSpace(css[end-1]) {
					end--
				}
				return start, end, k + 1, true
			}
			return start, j, k + 1, true
		}
	}
	return 0, 0, 0, false
}
