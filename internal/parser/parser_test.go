package parser

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livefir/htmlminifier/internal/dom"
)

// shape renders the tree compactly: elements as name(children), text as
// quoted data, comments as !data, directives as ?data.
func shape(d *dom.Document, id dom.NodeID) string {
	n := d.Node(id)
	var parts []string
	for _, c := range n.Children {
		parts = append(parts, shape(d, c))
	}
	inner := strings.Join(parts, " ")
	switch n.Kind {
	case dom.KindElement:
		return n.Name + "(" + inner + ")"
	case dom.KindText:
		return `"` + n.Data + `"`
	case dom.KindComment:
		return "!" + n.Data
	case dom.KindDirective:
		return "?" + n.Data
	}
	return inner
}

func mustParse(t *testing.T, input string, cfg Config) *dom.Document {
	t.Helper()
	d, err := Parse(input, cfg)
	require.NoError(t, err)
	return d
}

func first(d *dom.Document) *dom.Node {
	return d.Node(d.Node(d.Root()).Children[0])
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		cfg   Config
		want  string
	}{
		{"lowercases names", "<P>foo</p>", Config{HTML5: true}, `p("foo")`},
		{"keeps case", "<P>foo</P>", Config{HTML5: true, CaseSensitive: true}, `P("foo")`},
		{"implied p end", "<p>a<p>b", Config{HTML5: true}, `p("a") p("b")`},
		{"li closes li", "<ul><li>a<li>b</ul>", Config{HTML5: true}, `ul(li("a") li("b"))`},
		{"void element", "<p>a<br>b</p>", Config{HTML5: true}, `p("a" br() "b")`},
		{"stray br end tag", "a</br>b", Config{HTML5: true}, `"a" br() "b"`},
		{"stray p end tag", "a</p>", Config{HTML5: true}, `"a" p()`},
		{"unknown end tag ignored", "a</span>b", Config{HTML5: true}, `"ab"`},
		{"inner elements closed", "<div><span>a</div>b", Config{HTML5: true}, `div(span("a")) "b"`},
		{"self closing", "<div/>x", Config{HTML5: true}, `div() "x"`},
		{"comment", "a<!-- x -->b", Config{HTML5: true}, `"a" ! x  "b"`},
		{"doctype", "<!DOCTYPE html><p>x</p>", Config{HTML5: true}, `?!DOCTYPE html p("x")`},
		{"processing instruction", `<?xml version="1.0"?>`, Config{HTML5: true}, `??xml version="1.0"?`},
		{"bogus end tag is text", "a</ x>b", Config{HTML5: true}, `"a</ x>b"`},
		{"script is raw", "<script>if (a<b) {}</script>", Config{HTML5: true}, `script("if (a<b) {}")`},
		{"self closing script is not raw", "<script/><p>x</p>", Config{HTML5: true}, `script() p("x")`},
		{"decodes text", "a &amp; b", Config{HTML5: true, DecodeEntities: true}, `"a & b"`},
		{"keeps script entities", "<script>a&amp;b</script>", Config{HTML5: true, DecodeEntities: true}, `script("a&amp;b")`},
		{"html4 block closes inline", "<span><div>x</div></span>", Config{}, `span() div("x")`},
		{"html5 block nests in inline", "<span><div>x</div></span>", Config{HTML5: true}, `span(div("x"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, tt.input, tt.cfg)
			assert.Equal(t, tt.want, shape(d, d.Root()))
		})
	}
}

func TestParseAttributes(t *testing.T) {
	d := mustParse(t, `<a HREF=x.html title='t' data-x="y" download>`, Config{HTML5: true})
	a := first(d)
	require.Len(t, a.Attrs, 4)
	assert.Equal(t, dom.Attribute{Name: "href", Value: "x.html", Quote: dom.QuoteUnquoted, Assign: "="}, a.Attrs[0])
	assert.Equal(t, dom.QuoteSingle, a.Attrs[1].Quote)
	assert.Equal(t, dom.QuoteDouble, a.Attrs[2].Quote)
	assert.Equal(t, "y", a.Attrs[2].Value)
	assert.Equal(t, dom.QuoteNone, a.Attrs[3].Quote)
}

func TestParseAttributeEdgeCases(t *testing.T) {
	t.Run("empty value", func(t *testing.T) {
		a := first(mustParse(t, `<input value="">`, Config{HTML5: true}))
		assert.Equal(t, "", a.Attrs[0].Value)
		assert.Equal(t, dom.QuoteDouble, a.Attrs[0].Quote)
	})
	t.Run("spaces around equals", func(t *testing.T) {
		a := first(mustParse(t, `<a href = "x">`, Config{HTML5: true}))
		assert.Equal(t, "x", a.Attrs[0].Value)
	})
	t.Run("non ascii name", func(t *testing.T) {
		a := first(mustParse(t, "<html ⚡></html>", Config{HTML5: true}))
		assert.Equal(t, "⚡", a.Attrs[0].Name)
	})
	t.Run("decoded value", func(t *testing.T) {
		a := first(mustParse(t, `<a title="a&amp;b">`, Config{HTML5: true, DecodeEntities: true}))
		assert.Equal(t, "a&b", a.Attrs[0].Value)
	})
	t.Run("unquoted value before slash", func(t *testing.T) {
		a := first(mustParse(t, `<a href=foo/>`, Config{HTML5: true}))
		assert.Equal(t, "foo/", a.Attrs[0].Value)
	})
}

func TestParseCustomAttributeSyntax(t *testing.T) {
	cfg := Config{
		HTML5:            true,
		CustomAttrAssign: []*regexp.Regexp{regexp.MustCompile(`\?=`)},
		CustomAttrSurround: []Surround{{
			Open:  regexp.MustCompile(`\{\{#if\s+\w+\}\}`),
			Close: regexp.MustCompile(`\{\{/if\}\}`),
		}},
	}

	a := first(mustParse(t, `<div flex?="{{mode != cover}}"></div>`, cfg))
	require.Len(t, a.Attrs, 1)
	assert.Equal(t, "flex", a.Attrs[0].Name)
	assert.Equal(t, "?=", a.Attrs[0].Assign)
	assert.Equal(t, "{{mode != cover}}", a.Attrs[0].Value)

	in := first(mustParse(t, `<input {{#if value}}checked="checked"{{/if}}>`, cfg))
	require.Len(t, in.Attrs, 1)
	assert.Equal(t, "checked", in.Attrs[0].Name)
	assert.Equal(t, "{{#if value}}", in.Attrs[0].SurroundOpen)
	assert.Equal(t, "{{/if}}", in.Attrs[0].SurroundClose)
}

func TestParseOffsets(t *testing.T) {
	d := mustParse(t, "ab<p>cd</p>", Config{HTML5: true})
	root := d.Node(d.Root())
	p := d.Node(root.Children[1])
	assert.Equal(t, 2, p.Start)
	assert.Equal(t, 11, p.End)
	assert.False(t, p.EndImplied)

	d = mustParse(t, "<p>x", Config{HTML5: true})
	p = first(d)
	assert.Equal(t, 4, p.End)
	assert.True(t, p.EndImplied)
}

func TestParseTextCoalesces(t *testing.T) {
	d := mustParse(t, "a</ x>b</span>c", Config{HTML5: true})
	assert.Len(t, d.Node(d.Root()).Children, 1)
	assert.Equal(t, "a</ x>bc", first(d).Data)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"invalid tag name", "<$unicorn>", ReasonInvalidTagName},
		{"invalid attribute name", `<tag v-ref:vm_pv :imgs=" objpicsurl_ " ss"123>`, ReasonInvalidAttribute},
		{"comment inside tag", `<input name="x" <!--FIXME hardcoded --> placeholder="y">`, ReasonInvalidAttribute},
		{"invalid comment", "<!–– Failing New York Times Comment -->", ReasonInvalidComment},
		{"unterminated comment", "<p><!-- open", ReasonUnterminatedComment},
		{"unterminated tag", `<div class="x`, ReasonUnterminatedTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, Config{HTML5: true})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.reason, pe.Reason)
			assert.Contains(t, pe.Error(), tt.reason)
		})
	}
}

func TestParseContinueOnError(t *testing.T) {
	inputs := []string{
		"<$unicorn>",
		`<tag v-ref:vm_pv :imgs=" objpicsurl_ " ss"123>`,
		"<!–– Failing New York Times Comment -->",
		`<div class="x`,
	}
	for _, input := range inputs {
		d := mustParse(t, input, Config{HTML5: true, ContinueOnParseError: true})
		var b strings.Builder
		d.Walk(d.Root(), func(id dom.NodeID) bool {
			if n := d.Node(id); n.Kind == dom.KindText {
				b.WriteString(n.Data)
			}
			return true
		})
		assert.Equal(t, input, b.String(), input)
	}
}

func TestParseErrorSnippet(t *testing.T) {
	input := "ok " + strings.Repeat("x", 100) + `<!– bad`
	_, err := Parse(input, Config{})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.LessOrEqual(t, len(pe.Snippet), snippetLen)
	assert.Equal(t, input[pe.Offset:pe.Offset+len(pe.Snippet)], pe.Snippet)
}
