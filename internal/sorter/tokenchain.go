// Package sorter reorders attributes and class names so that tokens which
// often appear together come out in the same order everywhere, which helps
// the compressor that usually sits behind the minifier.
package sorter

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// TokenChain records token sequences. A sequence is shared by every token
// it contains, so removing a token while building a Sorter is seen through
// all of them.
type TokenChain struct {
	entries map[string]*chainEntry
}

type chainEntry struct {
	sequences []*[]string
	processed int
}

func NewTokenChain() *TokenChain {
	return &TokenChain{entries: make(map[string]*chainEntry)}
}

// Add records one sequence.
func (c *TokenChain) Add(tokens []string) {
	seq := slices.Clone(tokens)
	for _, token := range seq {
		e, ok := c.entries[token]
		if !ok {
			e = &chainEntry{}
			c.entries[token] = e
		}
		e.sequences = append(e.sequences, &seq)
	}
}

// Sorter builds the sorter for the sequences recorded so far. Keys are
// ordered by how many sequences hold them, most first, then by value.
// Building consumes the chain: each key is removed from its sequences and
// the tokens it was seen with are marked processed.
func (c *TokenChain) Sorter() *Sorter {
	keys := slices.Collect(maps.Keys(c.entries))
	slices.SortFunc(keys, func(a, b string) int {
		if n := cmp.Compare(len(c.entries[b].sequences), len(c.entries[a].sequences)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})

	s := &Sorter{children: make(map[string]*Sorter)}
	for _, key := range keys {
		e := c.entries[key]
		if e.processed >= len(e.sequences) {
			continue
		}
		child := NewTokenChain()
		for _, seq := range e.sequences {
			*seq = slices.DeleteFunc(*seq, func(t string) bool { return t == key })
			for _, t := range *seq {
				c.entries[t].processed++
			}
			child.Add(*seq)
		}
		s.keys = append(s.keys, key)
		s.children[key] = child.Sorter()
	}
	return s
}
