package htmlminifier

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var errBroken = errors.New("broken")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func minify(t *testing.T, input string, opts *Options) string {
	t.Helper()
	out, err := Minify(input, opts)
	require.NoError(t, err)
	return out
}

func TestMinifyExamples(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts *Options
		want string
	}{
		{"lowercases tags", "<P>foo</p>", nil, "<p>foo</p>"},
		{"trailing whitespace", "<p>blah</p>\n\n\n   ", &Options{CollapseWhitespace: true}, "<p>blah</p>"},
		{"comment", "<!-- test -->", &Options{RemoveComments: true}, ""},
		{"boolean attribute", `<input disabled="disabled">`, &Options{CollapseBooleanAttributes: true}, "<input disabled>"},
		{"class value", `<div class=" foo      ">x</div>`, nil, `<div class="foo">x</div>`},
		{"short doctype", "<!DOCTYPE html>", &Options{UseShortDoctype: true}, "<!doctype html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, minify(t, tt.in, tt.opts))
		})
	}
}

func TestMinifyDoctype(t *testing.T) {
	assert.Equal(t, `<!DOCTYPE html PUBLIC "x">`, minify(t, `<!DOCTYPE   html  PUBLIC "x">`, nil))
	assert.Equal(t, "<!doctypehtml>", minify(t, "<!DOCTYPE html>", &Options{UseShortDoctype: true, RemoveTagWhitespace: true}))
	assert.Equal(t, `<?xml version="1.0"?>`, minify(t, `<?xml version="1.0"?>`, &Options{UseShortDoctype: true}))
}

func TestMinifyComments(t *testing.T) {
	opts := DefaultOptions()
	opts.RemoveComments = true

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<p>a<!-- x -->b</p>", "<p>ab</p>"},
		{"conditional", "<!--[if IE 6]>x<![endif]-->", "<!--[if IE 6]>x<![endif]-->"},
		{"bang", "<!--! keep -->", "<!--! keep -->"},
		{"hash", "<!-- # include -->", "<!-- # include -->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, minify(t, tt.in, opts))
		})
	}

	custom := &Options{RemoveComments: true, IgnoreCustomComments: []*regexp.Regexp{regexp.MustCompile(`^\s*keep`)}}
	assert.Equal(t, "<!-- keep me -->", minify(t, "<!-- keep me --><!-- drop me -->", custom))
}

func TestMinifyRemoveEmptyElements(t *testing.T) {
	opts := &Options{RemoveEmptyElements: true}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty paragraph", "<div><p></p>x</div>", "<div>x</div>"},
		{"parent checked first", "<div><p></p></div>", "<div></div>"},
		{"comment only", "<div>x<span><!-- a --><!-- b --></span></div>", "<div>x</div>"},
		{"textarea kept", "<textarea></textarea>", "<textarea></textarea>"},
		{"void kept", "<br><img src=a>", "<br><img src=\"a\">"},
		{"iframe with src", `<iframe src="a"></iframe><iframe></iframe>`, `<iframe src="a"></iframe>`},
		{"video with src", `<video src="a"></video><video></video>`, `<video src="a"></video>`},
		{"object with data", `<object data="a"></object>`, `<object data="a"></object>`},
		{"script with src", `<script src="a"></script><script></script>`, `<script src="a"></script>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, minify(t, tt.in, opts))
		})
	}
}

func TestMinifyDecodeEntities(t *testing.T) {
	opts := &Options{DecodeEntities: true}
	assert.Equal(t, "<p>a &amplt; b &lt; c & d</p>", minify(t, "<p>a &amp;lt; b &lt; c &amp; d</p>", opts))
	assert.Equal(t, "<script>a&&b<c</script>", minify(t, "<script>a&&b<c</script>", opts))
	assert.Equal(t, "<p>&amp; &lt;</p>", minify(t, "<p>&amp; &lt;</p>", &Options{}))
}

func TestMinifySortAttributes(t *testing.T) {
	in := `<a foo moo></a><a bar foo></a><a baz bar foo></a><a baz foo moo></a><a moo baz></a>`
	want := `<a foo moo></a><a foo bar></a><a foo bar baz></a><a foo baz moo></a><a baz moo></a>`
	assert.Equal(t, in, minify(t, in, nil))
	assert.Equal(t, want, minify(t, in, &Options{SortAttributes: true}))
}

func TestMinifySortClassName(t *testing.T) {
	in := `<a class="foo moo"></a><a class="bar foo"></a><a class="baz bar foo"></a><a class="baz foo moo"></a><a class="moo baz"></a>`
	want := `<a class="foo moo"></a><a class="foo bar"></a><a class="foo bar baz"></a><a class="foo baz moo"></a><a class="baz moo"></a>`
	assert.Equal(t, want, minify(t, in, &Options{SortClassName: true}))
}

func TestMinifySortIsPermutation(t *testing.T) {
	faker := gofakeit.New(11)
	names := []string{"id", "class", "title", "href", "rel", "lang", "dir", "data-x"}
	for i := 0; i < 30; i++ {
		var b strings.Builder
		var elements [][]string
		count := faker.IntRange(1, 5)
		for j := 0; j < count; j++ {
			var list []string
			b.WriteString("<a")
			for _, name := range names {
				if faker.Bool() {
					list = append(list, name)
					fmt.Fprintf(&b, " %s=%q", name, faker.Word())
				}
			}
			b.WriteString("></a>")
			elements = append(elements, list)
		}

		doc, err := Minify(b.String(), &Options{SortAttributes: true})
		require.NoError(t, err)
		tags := strings.Split(strings.TrimSuffix(doc, "></a>"), "></a>")
		require.Len(t, tags, len(elements))
		for k, tag := range tags {
			var got []string
			for _, field := range strings.Fields(strings.TrimPrefix(tag, "<a")) {
				got = append(got, field[:strings.IndexByte(field, '=')])
			}
			assert.ElementsMatch(t, elements[k], got, b.String())
		}
	}
}

func TestMinifyFragments(t *testing.T) {
	in := `<div class="<% c %>"><?php echo 1 ?></div>`
	assert.Equal(t, in, minify(t, in, nil))

	opts := &Options{
		CollapseWhitespace:    true,
		TrimCustomFragments:   true,
		IgnoreCustomFragments: []*regexp.Regexp{regexp.MustCompile(`{{[\s\S]*?}}`)},
	}
	assert.Equal(t, "<p>{{ a }}</p>", minify(t, "<p>   {{ a }}   </p>", opts))
}

func TestMinifyIgnoreBlocks(t *testing.T) {
	in := "<p>a</p>\n<!-- htmlmin:ignore --><b>  keep  </b><!-- htmlmin:ignore -->\n<p>b</p>"
	out := minify(t, in, &Options{CollapseWhitespace: true, RemoveComments: true})
	assert.Contains(t, out, "<b>  keep  </b>")
	assert.NotContains(t, out, "htmlmin")
}

func TestMinifyMaxLineLength(t *testing.T) {
	assert.Equal(t, "<div data-attr=\"foo\">\n</div>", minify(t, `<div data-attr="foo"></div>`, &Options{MaxLineLength: 25}))
}

func TestMinifyParseError(t *testing.T) {
	collector := NewCollector()
	out, stats, err := MinifyWithStats(`<div class="x`, &Options{Metrics: collector})
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonUnterminatedTag, pe.Reason)
	assert.Equal(t, int64(1), stats.ParseErrors)
	assert.Equal(t, int64(1), collector.GetMetrics().ParseErrors)
	assert.Equal(t, int64(0), collector.GetMetrics().Documents)

	assert.Equal(t, "<$unicorn>", minify(t, "<$unicorn>", &Options{ContinueOnParseError: true}))
}

func TestMinifyWithStats(t *testing.T) {
	in := `<div><!-- a --><p></p><span title="">x</span></div>`
	collector := NewCollector()
	opts := &Options{RemoveComments: true, RemoveEmptyElements: true, RemoveEmptyAttributes: true, Metrics: collector}

	out, stats, err := MinifyWithStats(in, opts)
	require.NoError(t, err)
	assert.Equal(t, "<div><span>x</span></div>", out)
	assert.Equal(t, int64(1), stats.Documents)
	assert.Equal(t, int64(1), stats.CommentsRemoved)
	assert.Equal(t, int64(1), stats.ElementsRemoved)
	assert.Equal(t, int64(1), stats.AttributesRemoved)
	assert.Equal(t, int64(len(in)), stats.BytesIn)
	assert.Equal(t, int64(len(out)), stats.BytesOut)

	_, _, err = MinifyWithStats(in, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(2), collector.GetMetrics().Documents)
	assert.Equal(t, int64(2), collector.GetMetrics().CommentsRemoved)
}

func TestMinifyDelegates(t *testing.T) {
	var kinds []CSSKind
	opts := &Options{
		JSMinifier: JSMinifierFunc(func(code string, inline bool) (string, error) {
			return strings.ToUpper(code), nil
		}),
		CSSMinifier: CSSMinifierFunc(func(code string, kind CSSKind) (string, error) {
			kinds = append(kinds, kind)
			return strings.ReplaceAll(code, " ", ""), nil
		}),
	}
	assert.Equal(t, "<script>ALERT(1)</script>", minify(t, "<script>alert(1)</script>", opts))
	assert.Equal(t, `<script type="text/template">alert(1)</script>`, minify(t, `<script type="text/template">alert(1)</script>`, opts))
	assert.Equal(t, "<style>a{color:red}</style>", minify(t, "<style>a { color: red }</style>", opts))
	assert.Equal(t, []CSSKind{CSSStylesheet}, kinds)
}

func TestMinifyDelegateFailure(t *testing.T) {
	var buf bytes.Buffer
	var stages []string
	opts := &Options{
		JSMinifier: JSMinifierFunc(func(string, bool) (string, error) { return "", errBroken }),
		Logger:     slog.New(slog.NewTextHandler(&buf, nil)),
		OnError:    func(stage string, err error) { stages = append(stages, stage) },
	}

	in := "<script>alert( 1 )</script>"
	out, stats, err := MinifyWithStats(in, opts)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, []string{"js"}, stages)
	assert.Contains(t, buf.String(), "stage=js")
	assert.Equal(t, int64(1), stats.DelegateCalls)
	assert.Equal(t, int64(1), stats.DelegateFailures)
}

func TestMinifyURLs(t *testing.T) {
	opts := &Options{MinifyURLs: true, URLSite: "http://website.com/folder/"}
	assert.Equal(t, `<a href="file.html">x</a>`, minify(t, `<a href="http://website.com/folder/file.html">x</a>`, opts))

	var errs []error
	broken := &Options{
		MinifyURLs: true,
		Logger:     quiet(),
		OnError:    func(stage string, err error) { errs = append(errs, err) },
	}
	in := `<a href="http://website.com/folder/file.html">x</a>`
	assert.Equal(t, in, minify(t, in, broken))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNoSite)
}

func TestMinifyProcessScripts(t *testing.T) {
	in := `<script type="text/ng-template"><div>  <p> x </p>  </div></script>`
	opts := &Options{CollapseWhitespace: true, ProcessScripts: []string{"text/ng-template"}}
	assert.Equal(t, `<script type="text/ng-template"><div><p>x</p></div></script>`, minify(t, in, opts))

	unlisted := `<script type="text/x-other"><div>  <p> x </p>  </div></script>`
	assert.Equal(t, unlisted, minify(t, unlisted, opts))
}

func TestMinifyProcessScriptsParseError(t *testing.T) {
	in := `<script type="text/html"><div class="x</script>`
	_, err := Minify(in, &Options{ProcessScripts: []string{"text/html"}})
	assert.ErrorIs(t, err, ErrParse)
}

func TestMinifyIsIdempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.CollapseWhitespace = true
	opts.RemoveComments = true
	opts.CollapseBooleanAttributes = true
	opts.RemoveAttributeQuotes = true
	opts.RemoveRedundantAttributes = true
	opts.UseShortDoctype = true

	inputs := []string{
		"<!DOCTYPE html>\n<html>\n <head>\n  <title> Hi </title>\n </head>\n <body>\n  <p class=\" a  b \">x <b>y</b> z</p>\n<!-- c -->\n  <input type=\"text\" disabled=\"disabled\">\n </body>\n</html>",
		"<ul>\n  <li>one</li>\n  <li>two</li>\n</ul>",
		"<pre>\n  keep   this\n</pre>",
	}

	faker := gofakeit.New(3)
	blocks := []string{"div", "p", "section"}
	for i := 0; i < 20; i++ {
		var b strings.Builder
		count := faker.IntRange(1, 4)
		for j := 0; j < count; j++ {
			tag := faker.RandomString(blocks)
			fmt.Fprintf(&b, "<%s>  %s   %s \n</%s>\n", tag, faker.Word(), faker.Word(), tag)
		}
		inputs = append(inputs, b.String())
	}

	for _, in := range inputs {
		once := minify(t, in, opts)
		assert.Equal(t, once, minify(t, once, opts), in)
	}
}

func TestMinifyRemovedCommentKeepsSpace(t *testing.T) {
	opts := &Options{CollapseWhitespace: true, RemoveComments: true}
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces on both sides", "x <!-- c --> y", "x y"},
		{"space after", "x<!-- c --> y", "x y"},
		{"space before", "x <!-- c -->y", "x y"},
		{"no space", "x<!-- c -->y", "xy"},
	}
	for _, parent := range []string{"p", "div"} {
		for _, tt := range tests {
			t.Run(parent+"/"+tt.name, func(t *testing.T) {
				in := "<" + parent + ">" + tt.in + "</" + parent + ">"
				assert.Equal(t, "<"+parent+">"+tt.want+"</"+parent+">", minify(t, in, opts))
			})
		}
	}

	assert.Equal(t, "<p>hello world</p>", minify(t, "<p>hello <!-- note --> world</p>", opts))
	assert.Equal(t, "<div>a <input> c</div>", minify(t, "<div> a <input><!-- b --> c </div>", opts))
}

func TestMinifyParsesHTML5ByDefault(t *testing.T) {
	in := `<a href="#"><div>x</div></a>`
	assert.Equal(t, in, minify(t, in, &Options{CollapseWhitespace: true}))
	assert.Equal(t, `<a href="#"></a><div>x</div>`, minify(t, in, &Options{HTML4: true}))
}

var (
	markup   = regexp.MustCompile(`<!--[\s\S]*?-->|<[^>]*>`)
	spaceRun = regexp.MustCompile(`\s+`)
	spacing  = []string{"", " ", "  ", "\n", " \n\t "}
)

// visibleText strips markup and normalizes whitespace runs to one space.
func visibleText(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(markup.ReplaceAllString(s, ""), " "))
}

func TestMinifyCollapseOnlyTouchesWhitespace(t *testing.T) {
	opts := &Options{CollapseWhitespace: true, RemoveComments: true}
	faker := gofakeit.New(7)
	word := func() string { return faker.LetterN(uint(faker.IntRange(1, 6))) }

	for i := 0; i < 50; i++ {
		var b strings.Builder
		b.WriteString("<div>")
		for j := faker.IntRange(1, 8); j > 0; j-- {
			b.WriteString(faker.RandomString(spacing))
			switch faker.IntRange(0, 3) {
			case 0:
				fmt.Fprintf(&b, "<b>%s</b>", word())
			case 1:
				fmt.Fprintf(&b, "<!-- %s -->", word())
			default:
				b.WriteString(word())
			}
		}
		b.WriteString(faker.RandomString(spacing))
		b.WriteString("</div>")

		in := b.String()
		out := minify(t, in, opts)
		assert.Equal(t, visibleText(in), markup.ReplaceAllString(out, ""), in)
	}
}

func TestMinifyConcurrentCalls(t *testing.T) {
	collector := NewCollector()
	opts := DefaultOptions()
	opts.CollapseWhitespace = true
	opts.Metrics = collector

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			out, err := Minify("<div>  <p> x </p>  </div>", opts)
			if err != nil {
				return err
			}
			if out != "<div><p>x</p></div>" {
				return fmt.Errorf("unexpected output %q", out)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(8), collector.GetMetrics().Documents)
}

func TestDumpTree(t *testing.T) {
	out, err := DumpTree(`<ul><li>a<li>b</ul><!-- x -->`, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "#document")
	assert.Contains(t, out, "<ul>")
	assert.Contains(t, out, `#text "b"`)
	assert.Contains(t, out, `#comment " x "`)

	_, err = DumpTree(`<div class="x`, nil)
	assert.ErrorIs(t, err, ErrParse)
}

func TestMinifyCountsProtectedFragments(t *testing.T) {
	collector := NewCollector()
	opts := DefaultOptions()
	opts.Metrics = collector

	minify(t, `<div class="<% c %>"><?php echo 1 ?></div>`, opts)
	minify(t, "<p>plain</p>", opts)
	assert.Equal(t, int64(2), collector.GetCustomCounters()["fragments_protected"])
}
