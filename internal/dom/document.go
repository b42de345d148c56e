package dom

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xlab/treeprint"
)

// Document owns every node of one parsed input.
type Document struct {
	nodes []Node
}

// New returns a document holding only its root.
func New() *Document {
	d := &Document{}
	d.nodes = append(d.nodes, Node{Kind: KindRoot, Parent: NoNode, Prev: NoNode, Next: NoNode})
	return d
}

// Root returns the handle of the root node.
func (d *Document) Root() NodeID { return 0 }

// Node returns the node behind id. The pointer stays valid until the next
// node is allocated.
func (d *Document) Node(id NodeID) *Node { return &d.nodes[id] }

// Len returns the number of allocated nodes, detached ones included.
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) alloc(n Node) NodeID {
	n.Parent, n.Prev, n.Next = NoNode, NoNode, NoNode
	d.nodes = append(d.nodes, n)
	return NodeID(len(d.nodes) - 1)
}

func (d *Document) NewElement(name string, attrs []Attribute) NodeID {
	return d.alloc(Node{Kind: KindElement, Name: name, Attrs: attrs})
}

func (d *Document) NewText(data string) NodeID {
	return d.alloc(Node{Kind: KindText, Data: data})
}

func (d *Document) NewComment(data string) NodeID {
	return d.alloc(Node{Kind: KindComment, Data: data})
}

func (d *Document) NewDirective(name, data string) NodeID {
	return d.alloc(Node{Kind: KindDirective, Name: name, Data: data})
}

// Append attaches child as the last child of parent.
func (d *Document) Append(parent, child NodeID) {
	p := &d.nodes[parent]
	c := &d.nodes[child]
	if c.Parent != NoNode {
		panic(fmt.Sprintf("dom: node %d already attached to %d", child, c.Parent))
	}
	c.Parent = parent
	c.Next = NoNode
	c.Prev = NoNode
	if n := len(p.Children); n > 0 {
		last := p.Children[n-1]
		d.nodes[last].Next = child
		c.Prev = last
	}
	p.Children = append(p.Children, child)
}

// Remove detaches id from its parent and repairs the sibling links. The
// slot stays allocated.
func (d *Document) Remove(id NodeID) {
	n := &d.nodes[id]
	if n.Parent == NoNode {
		return
	}
	p := &d.nodes[n.Parent]
	if i := slices.Index(p.Children, id); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	if n.Prev != NoNode {
		d.nodes[n.Prev].Next = n.Next
	}
	if n.Next != NoNode {
		d.nodes[n.Next].Prev = n.Prev
	}
	n.Parent, n.Prev, n.Next = NoNode, NoNode, NoNode
}

// ParentName returns the element name of id's parent, or "" at the root.
func (d *Document) ParentName(id NodeID) string {
	p := d.nodes[id].Parent
	if p == NoNode || d.nodes[p].Kind != KindElement {
		return ""
	}
	return d.nodes[p].Name
}

// Walk visits id and its attached descendants in document order. Returning
// false from fn skips the node's children.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	if !fn(id) {
		return
	}
	for _, c := range d.nodes[id].Children {
		d.Walk(c, fn)
	}
}

// Dump renders the tree for debugging.
func (d *Document) Dump() string {
	tree := treeprint.New()
	d.dump(tree.AddBranch("#document"), d.Root())
	return tree.String()
}

func (d *Document) dump(t treeprint.Tree, id NodeID) {
	n := &d.nodes[id]
	switch n.Kind {
	case KindElement:
		var b strings.Builder
		b.WriteString("<" + n.Name)
		for _, a := range n.Attrs {
			b.WriteString(" " + a.Name)
			if a.Quote.HasValue() {
				b.WriteString(fmt.Sprintf("=%q", a.Value))
			}
		}
		b.WriteString(">")
		if n.StartImplied || n.EndImplied {
			b.WriteString(" (implied)")
		}
		if len(n.Children) == 0 {
			t.AddNode(b.String())
			return
		}
		branch := t.AddBranch(b.String())
		for _, c := range n.Children {
			d.dump(branch, c)
		}
	case KindText:
		t.AddNode(fmt.Sprintf("#text %q", n.Data))
	case KindComment:
		t.AddNode(fmt.Sprintf("#comment %q", n.Data))
	case KindDirective:
		t.AddNode(fmt.Sprintf("#directive %q", n.Data))
	case KindRoot:
		for _, c := range n.Children {
			d.dump(t, c)
		}
	}
}
