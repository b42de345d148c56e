// Package dom is the document model the minifier works on: an arena of
// nodes addressed by NodeID handles. A node's parent owns it through its
// child slice; parent and sibling handles are only ever read.
package dom

import "fmt"

// NodeID addresses a node inside its Document.
type NodeID int32

// NoNode marks an absent parent or sibling.
const NoNode NodeID = -1

// Kind is the closed set of node kinds.
type Kind uint8

const (
	KindRoot Kind = iota
	KindElement
	KindText
	KindComment
	KindDirective
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindDirective:
		return "directive"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Quote records how an attribute value is delimited.
type Quote uint8

const (
	// QuoteNone is an attribute written without a value.
	QuoteNone Quote = iota
	// QuoteUnquoted is a value written without quotes in the source.
	QuoteUnquoted
	// QuoteEmpty is a value whose quotes were removed by the minifier.
	QuoteEmpty
	QuoteDouble
	QuoteSingle
)

// Char returns the delimiter rendered around the value.
func (q Quote) Char() string {
	switch q {
	case QuoteDouble:
		return `"`
	case QuoteSingle:
		return "'"
	}
	return ""
}

// HasValue reports whether the attribute renders with a value.
func (q Quote) HasValue() bool { return q != QuoteNone }

// Attribute is one attribute of an element as written in the source.
type Attribute struct {
	Name  string
	Value string
	Quote Quote
	// Assign is the operator between name and value, "=" unless a custom
	// assignment matched.
	Assign string
	// SurroundOpen and SurroundClose hold a custom wrapper around the
	// whole attribute, such as a template conditional.
	SurroundOpen  string
	SurroundClose string
}

// Node is a single arena slot.
type Node struct {
	Kind Kind
	// Name is the element name, or the lower-cased directive name
	// (!doctype, ?xml, ...).
	Name string
	// Data is the text, comment or directive payload.
	Data     string
	Attrs    []Attribute
	Children []NodeID

	Parent NodeID
	Prev   NodeID
	Next   NodeID

	// Start and End are byte offsets in the parsed input.
	Start int
	End   int

	StartImplied bool
	EndImplied   bool
	// SelfClosing is set for elements written as <x/>.
	SelfClosing bool
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the element carries the named attribute.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}
