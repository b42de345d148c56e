package sorter

import (
	"regexp"
	"slices"
	"strings"

	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/fragments"
	"github.com/livefir/htmlminifier/internal/runctx"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

// Sorter moves known tokens to the front of a sequence, in key order.
type Sorter struct {
	keys     []string
	children map[string]*Sorter
}

// Sort reorders tokens in place and returns them. The first key found is
// moved to the front together with its repeats, and the rest of the
// sequence is sorted by that key's child.
func (s *Sorter) Sort(tokens []string) []string {
	return s.sortFrom(tokens, 0)
}

func (s *Sorter) sortFrom(tokens []string, from int) []string {
	for _, key := range s.keys {
		index := indexFrom(tokens, key, from)
		if index < 0 {
			continue
		}
		for index >= 0 {
			if index != from {
				tokens = slices.Delete(tokens, index, index+1)
				tokens = slices.Insert(tokens, from, key)
			}
			from++
			index = indexFrom(tokens, key, from)
		}
		return s.children[key].sortFrom(tokens, from)
	}
	return tokens
}

func indexFrom(tokens []string, token string, from int) int {
	if from >= len(tokens) {
		return -1
	}
	if i := slices.Index(tokens[from:], token); i >= 0 {
		return from + i
	}
	return -1
}

// AttrChains holds one chain of attribute names per tag.
type AttrChains map[string]*TokenChain

var (
	// Chains are built from every whitespace character, while sorting
	// splits on spaces only, so a class holding a tab-delimited fragment
	// placeholder stays in one piece.
	chainSeparator = regexp.MustCompile(`[ \t\n\f\r]+`)
	classSeparator = regexp.MustCompile(`[ \n\f\r]+`)
)

// Config selects what Apply sorts.
type Config struct {
	SortAttributes bool
	SortClassName  bool
	// Fragments marks placeholder tokens, which are left out of the chains.
	Fragments *fragments.Table
}

// Apply records the attribute names and class names of doc in the chains
// kept on ctx, creating them on first use, then reorders both throughout
// doc. Nested calls sharing a parent context add to the same chains.
func Apply(doc *dom.Document, ctx *runctx.Context, cfg Config) error {
	if !cfg.SortAttributes && !cfg.SortClassName {
		return nil
	}

	var attrChains AttrChains
	if cfg.SortAttributes {
		var ok bool
		if attrChains, ok = runctx.Value[AttrChains](ctx, runctx.KeyAttrChains); !ok {
			attrChains = make(AttrChains)
		}
	}
	var classChain *TokenChain
	if cfg.SortClassName {
		var ok bool
		if classChain, ok = runctx.Value[*TokenChain](ctx, runctx.KeyClassChain); !ok {
			classChain = NewTokenChain()
		}
	}

	keep := func(token string) bool { return !cfg.Fragments.HasPlaceholder(token) }
	doc.Walk(doc.Root(), func(id dom.NodeID) bool {
		n := doc.Node(id)
		if n.Kind != dom.KindElement {
			return true
		}
		if attrChains != nil {
			chain, ok := attrChains[n.Name]
			if !ok {
				chain = NewTokenChain()
				attrChains[n.Name] = chain
			}
			chain.Add(filter(names(n.Attrs), keep))
		}
		if classChain != nil {
			for _, a := range n.Attrs {
				if a.Name == "class" && a.Value != "" {
					classChain.Add(filter(chainSeparator.Split(whitespace.Trim(a.Value), -1), keep))
				}
			}
		}
		return true
	})

	var attrSorters map[string]*Sorter
	if attrChains != nil {
		attrSorters = make(map[string]*Sorter, len(attrChains))
		for tag, chain := range attrChains {
			attrSorters[tag] = chain.Sorter()
		}
		if err := ctx.Set(runctx.KeyAttrChains, attrChains); err != nil {
			return err
		}
	}
	var classSorter *Sorter
	if classChain != nil {
		classSorter = classChain.Sorter()
		if err := ctx.Set(runctx.KeyClassChain, classChain); err != nil {
			return err
		}
	}

	doc.Walk(doc.Root(), func(id dom.NodeID) bool {
		n := doc.Node(id)
		if n.Kind != dom.KindElement {
			return true
		}
		if s, ok := attrSorters[n.Name]; ok {
			n.Attrs = sortAttributes(s, n.Attrs)
		}
		if classSorter != nil {
			for i := range n.Attrs {
				if n.Attrs[i].Name == "class" {
					n.Attrs[i].Value = SortClasses(classSorter, n.Attrs[i].Value)
				}
			}
		}
		return true
	})
	return nil
}

// SortClasses reorders the space separated class names of value.
func SortClasses(s *Sorter, value string) string {
	return strings.Join(s.Sort(classSeparator.Split(value, -1)), " ")
}

// sortAttributes reorders list by name. Attributes sharing a name keep
// their relative order.
func sortAttributes(s *Sorter, list []dom.Attribute) []dom.Attribute {
	byName := make(map[string][]dom.Attribute, len(list))
	for _, a := range list {
		byName[a.Name] = append(byName[a.Name], a)
	}
	out := make([]dom.Attribute, 0, len(list))
	for _, name := range s.Sort(names(list)) {
		out = append(out, byName[name][0])
		byName[name] = byName[name][1:]
	}
	return out
}

func names(list []dom.Attribute) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Name
	}
	return out
}

func filter(tokens []string, keep func(string) bool) []string {
	return slices.DeleteFunc(tokens, func(t string) bool { return !keep(t) })
}
