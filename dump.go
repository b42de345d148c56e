package htmlminifier

import (
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/parser"
)

// DumpTree parses input the way Minify does and returns the document tree
// for inspection. Protected fragments appear as their placeholders.
func DumpTree(input string, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	html, _ := fragments.Protect(input, opts.fragmentsConfig())
	doc, err := parser.Parse(html, opts.parserConfig())
	if err != nil {
		return "", err
	}
	return doc.Dump(), nil
}
