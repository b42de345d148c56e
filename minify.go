// Package htmlminifier removes the bytes an HTML document does not need:
// redundant whitespace, comments, default attributes, optional quotes and
// empty elements, with script, style and URL minification delegated to
// pluggable collaborators.
//
// Markup the minifier must not touch, such as template tags, is protected
// with Options.IgnoreCustomFragments or with <!-- htmlmin:ignore --> blocks
// and comes back verbatim.
package htmlminifier

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/logfields"
	"github.com/livefir/htmlminifier/internal/metrics"
	"github.com/livefir/htmlminifier/internal/parser"
	"github.com/livefir/htmlminifier/internal/runctx"
	"github.com/livefir/htmlminifier/internal/serialize"
	"github.com/livefir/htmlminifier/internal/sorter"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

// Minify returns the minified form of input. A nil opts means
// DefaultOptions().
func Minify(input string, opts *Options) (string, error) {
	out, _, err := MinifyWithStats(input, opts)
	return out, err
}

// MinifyWithStats is Minify that also returns the counters of this call.
// When opts.Metrics is set the counters are added to it as well.
func MinifyWithStats(input string, opts *Options) (string, Stats, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	stats := metrics.NewCollector()
	m := &minifier{opts: opts, stats: stats, run: opts.runner(stats)}

	out, err := m.minify(input, runctx.Default)
	if err != nil {
		if errors.Is(err, ErrParse) {
			stats.IncrementParseError()
		}
		opts.Metrics.Merge(stats)
		return "", stats.GetMetrics(), err
	}
	stats.RecordDocument(len(input), len(out))
	opts.Metrics.Merge(stats)
	return out, stats.GetMetrics(), nil
}

// runner builds the delegates for one call.
func (o *Options) runner(stats *metrics.Collector) *delegate.Runner {
	run := &delegate.Runner{Logger: o.logger(), OnError: o.OnError, Metrics: stats}
	switch {
	case o.JSMinifier != nil:
		run.JS = o.JSMinifier
	case o.MinifyJS:
		run.JS = delegate.Tdewolff{}
	}
	switch {
	case o.CSSMinifier != nil:
		run.CSS = o.CSSMinifier
	case o.MinifyCSS:
		run.CSS = delegate.Tdewolff{}
	}
	switch {
	case o.URLMinifier != nil:
		run.URL = o.URLMinifier
	case o.MinifyURLs:
		rel, err := delegate.NewRelativizer(o.URLSite)
		if err != nil {
			run.Logger.Warn("URL minification disabled",
				logfields.Stage("url"),
				logfields.Error(err))
			if o.OnError != nil {
				o.OnError("url", err)
			}
			break
		}
		run.URL = rel
	}
	return run
}

type minifier struct {
	opts  *Options
	stats *metrics.Collector
	run   *delegate.Runner
}

// minify runs the whole pipeline over input. A parent context that already
// holds a fragment table marks a nested call over script or style content:
// that content was protected with the outer document, so the nested call
// reuses the table and leaves restoration to the outer call.
func (m *minifier) minify(input string, parent *runctx.Context) (string, error) {
	ctx := runctx.New()
	ctx.Extend(parent)

	html := input
	table, nested := runctx.Value[*fragments.Table](ctx, runctx.KeyFragments)
	if !nested {
		html, table = fragments.Protect(input, m.opts.fragmentsConfig())
		if err := ctx.Set(runctx.KeyFragments, table); err != nil {
			return "", err
		}
		if n := table.Len(); n > 0 {
			m.stats.AddCustomCounter("fragments_protected", int64(n))
		}
		m.run.Table = table
	}

	doc, err := parser.Parse(html, m.opts.parserConfig())
	if err != nil {
		return "", err
	}

	w := &walker{
		doc:   doc,
		opts:  m.opts,
		attrs: m.opts.attrsConfig(table, m.run),
		run:   m.run,
		table: table,
		stats: m.stats,
	}
	w.node(doc.Root())

	if err := sorter.Apply(doc, ctx, m.opts.sorterConfig(table)); err != nil {
		return "", err
	}
	if err := m.processScripts(doc, ctx); err != nil {
		return "", err
	}
	if m.opts.CollapseWhitespace {
		whitespace.CollapseTree(doc, m.opts.whitespaceConfig(table))
	}

	cfg := m.opts.serializeConfig(table)
	if nested {
		cfg.Fragments = nil
	}
	return serialize.Render(doc, cfg), nil
}

// processScripts minifies, as markup, the content of every script and
// style element whose type is listed in Options.ProcessScripts.
func (m *minifier) processScripts(doc *dom.Document, ctx *runctx.Context) error {
	if len(m.opts.ProcessScripts) == 0 {
		return nil
	}
	var errs []error
	doc.Walk(doc.Root(), func(id dom.NodeID) bool {
		n := doc.Node(id)
		if n.Kind != dom.KindElement {
			return true
		}
		tag := strings.ToLower(n.Name)
		if tag != "script" && tag != "style" {
			return true
		}
		typ, ok := n.Attr("type")
		if !ok || !slices.Contains(m.opts.ProcessScripts, typ) || len(n.Children) == 0 {
			return false
		}
		text := doc.Node(n.Children[0])
		if text.Kind != dom.KindText {
			return false
		}
		out, err := m.minify(text.Data, ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("process %s type %q: %w", tag, typ, err))
			return false
		}
		text.Data = out
		return false
	})
	return errors.Join(errs...)
}
