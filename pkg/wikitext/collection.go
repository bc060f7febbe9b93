package wikitext

import (
	"iter"
	"slices"
)

// NodeCollection is an ordered, mutable list of nodes owned by a parent node.
// The root collection returned by Parse has no parent.
//
// A nil *NodeCollection behaves as an empty, read-only collection.
type NodeCollection struct {
	parent Node
	nodes  []Node
}

// NewCollection returns a parentless collection holding a copy of nodes.
func NewCollection(nodes ...Node) *NodeCollection {
	return &NodeCollection{nodes: slices.Clone(nodes)}
}

// TextCollection returns a collection holding a single text node, or an
// empty collection when text is empty.
func TextCollection(text string) *NodeCollection {
	c := &NodeCollection{}
	c.AddText(text)
	return c
}

func (c *NodeCollection) adopt(parent Node) *NodeCollection {
	if c != nil {
		c.parent = parent
	}
	return c
}

// Parent returns the node owning the collection, or nil for a root.
func (c *NodeCollection) Parent() Node {
	if c == nil {
		return nil
	}
	return c.parent
}

// Len returns the number of direct children.
func (c *NodeCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.nodes)
}

// At returns the i-th direct child.
func (c *NodeCollection) At(i int) Node { return c.nodes[i] }

// Nodes returns the direct children. The slice must not be modified.
func (c *NodeCollection) Nodes() []Node {
	if c == nil {
		return nil
	}
	return c.nodes
}

// Append adds nodes to the end of the collection as they are.
func (c *NodeCollection) Append(nodes ...Node) {
	c.nodes = append(c.nodes, nodes...)
}

// AddText appends literal text, extending a trailing text node if there is one.
func (c *NodeCollection) AddText(text string) {
	if text == "" {
		return
	}
	if n := len(c.nodes); n > 0 {
		if t, ok := c.nodes[n-1].(*TextNode); ok {
			t.Text += text
			return
		}
	}
	c.nodes = append(c.nodes, &TextNode{Text: text})
}

// Merge appends nodes, coalescing adjacent text nodes. Text nodes in nodes
// may be modified.
func (c *NodeCollection) Merge(nodes []Node) {
	for _, n := range nodes {
		if t, ok := n.(*TextNode); ok {
			c.AddText(t.Text)
			continue
		}
		c.nodes = append(c.nodes, n)
	}
}

// Insert places nodes before position i.
func (c *NodeCollection) Insert(i int, nodes ...Node) {
	c.nodes = slices.Insert(c.nodes, i, nodes...)
}

// RemoveAt deletes the i-th direct child.
func (c *NodeCollection) RemoveAt(i int) {
	c.nodes = slices.Delete(c.nodes, i, i+1)
}

// Remove deletes the first direct child identical to n and reports whether
// one was found.
func (c *NodeCollection) Remove(n Node) bool {
	i := slices.Index(c.nodes, n)
	if i < 0 {
		return false
	}
	c.RemoveAt(i)
	return true
}

// Clear removes every child.
func (c *NodeCollection) Clear() { c.nodes = nil }

// SetText replaces the contents with a single text node.
func (c *NodeCollection) SetText(text string) {
	c.nodes = nil
	c.AddText(text)
}

// Replace walks the collection depth first and calls fn on every node.
// When fn returns a non-nil collection, the node is replaced by that
// collection's children and the replacement is not descended into.
func (c *NodeCollection) Replace(fn func(Node) *NodeCollection) {
	if c == nil {
		return
	}
	out := make([]Node, 0, len(c.nodes))
	for _, n := range c.nodes {
		if r := fn(n); r != nil {
			out = append(out, r.nodes...)
			continue
		}
		for _, child := range n.Collections() {
			child.Replace(fn)
		}
		out = append(out, n)
	}
	c.nodes = out
}

// All yields every node in the collection depth first, parents before their
// children.
func (c *NodeCollection) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		c.walk(yield)
	}
}

func (c *NodeCollection) walk(yield func(Node) bool) bool {
	if c == nil {
		return true
	}
	for _, n := range c.nodes {
		if !yield(n) {
			return false
		}
		for _, child := range n.Collections() {
			if !child.walk(yield) {
				return false
			}
		}
	}
	return true
}

// Accept visits each direct child in order.
func (c *NodeCollection) Accept(v Visitor) {
	if c == nil {
		return
	}
	for _, n := range c.nodes {
		n.Accept(v)
	}
}

// String returns the collection serialized back to wikitext.
func (c *NodeCollection) String() string { return Raw(c) }
