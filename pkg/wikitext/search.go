package wikitext

import "strings"

// FindAll returns the nodes of type T in c that satisfy match. A nil match
// accepts every node. When recursive is false only the direct children of c
// are considered; otherwise nodes nested at any depth are included too, in
// document order.
func FindAll[T Node](c *NodeCollection, recursive bool, match func(T) bool) []T {
	var out []T
	consider := func(n Node) {
		if t, ok := n.(T); ok && (match == nil || match(t)) {
			out = append(out, t)
		}
	}
	if !recursive {
		for _, n := range c.Nodes() {
			consider(n)
		}
		return out
	}
	for n := range c.All() {
		consider(n)
	}
	return out
}

// FindFirst returns the first node FindAll would return.
func FindFirst[T Node](c *NodeCollection, recursive bool, match func(T) bool) (T, bool) {
	var found T
	ok := false
	visit := func(n Node) bool {
		if t, is := n.(T); is && (match == nil || match(t)) {
			found, ok = t, true
			return false
		}
		return true
	}
	if !recursive {
		for _, n := range c.Nodes() {
			if !visit(n) {
				break
			}
		}
		return found, ok
	}
	for n := range c.All() {
		if !visit(n) {
			break
		}
	}
	return found, ok
}

// Templates returns the templates whose normalized title equals the
// normalized name. An empty name matches every template.
func (c *NodeCollection) Templates(name string, recursive bool) []*TemplateNode {
	want := NormalizeName(name)
	return FindAll(c, recursive, func(t *TemplateNode) bool {
		return want == "" || t.TitleValue() == want
	})
}

// Links returns every link in the collection at any depth.
func (c *NodeCollection) Links() []*LinkNode {
	return FindAll[*LinkNode](c, true, nil)
}

// Headings returns every validated heading in the collection at any depth.
func (c *NodeCollection) Headings() []*HeadingNode {
	return FindAll[*HeadingNode](c, true, nil)
}

// Tags returns the extension tags with the given name, compared case
// insensitively. An empty name matches every tag.
func (c *NodeCollection) Tags(name string) []*TagNode {
	return FindAll(c, true, func(t *TagNode) bool {
		return name == "" || strings.EqualFold(t.Name, name)
	})
}
