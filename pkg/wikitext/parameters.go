package wikitext

import (
	"strconv"
	"strings"
)

// TitleValue returns the template name with comments removed, normalized
// with NormalizeName.
func (n *TemplateNode) TitleValue() string {
	return NormalizeName(Value(n.Title))
}

// SetTitle replaces the title with literal text, keeping the whitespace that
// surrounded the old title.
func (n *TemplateNode) SetTitle(name string) {
	lead, trail := surrounding(Raw(n.Title))
	n.Title = TextCollection(lead + name + trail).adopt(n)
}

// Key returns the name a parameter resolves under: the trimmed name for named
// parameters and the decimal position for anonymous ones.
func (n *ParameterNode) Key() string {
	if n.Name == nil {
		return strconv.Itoa(n.Index)
	}
	return strings.TrimSpace(Value(n.Name))
}

// ValueText returns the parameter value with comments removed. Named values
// are trimmed; anonymous values keep their whitespace.
func (n *ParameterNode) ValueText() string {
	v := Value(n.Value)
	if n.Name != nil {
		v = strings.TrimSpace(v)
	}
	return v
}

// SetValue replaces the value with literal text. Named parameters keep the
// whitespace that surrounded the old value so line layout survives.
func (n *ParameterNode) SetValue(value string) {
	if n.Name != nil {
		lead, trail := surrounding(Raw(n.Value))
		value = lead + value + trail
	}
	n.Value = TextCollection(value).adopt(n)
}

// Find returns the parameter that name resolves to, or nil. When a key
// occurs more than once the last occurrence wins.
func (n *TemplateNode) Find(name string) *ParameterNode {
	name = strings.TrimSpace(name)
	for i := len(n.Parameters) - 1; i >= 0; i-- {
		if n.Parameters[i].Key() == name {
			return n.Parameters[i]
		}
	}
	return nil
}

// Get returns the value text of the parameter name resolves to.
func (n *TemplateNode) Get(name string) (string, bool) {
	p := n.Find(name)
	if p == nil {
		return "", false
	}
	return p.ValueText(), true
}

// Resolved returns the winning parameter for every key, in source order.
func (n *TemplateNode) Resolved() []*ParameterNode {
	seen := make(map[string]bool, len(n.Parameters))
	out := make([]*ParameterNode, 0, len(n.Parameters))
	for i := len(n.Parameters) - 1; i >= 0; i-- {
		p := n.Parameters[i]
		if k := p.Key(); !seen[k] {
			seen[k] = true
			out = append(out, p)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DuplicateKeys returns the keys given more than once, in order of their
// second occurrence.
func (n *TemplateNode) DuplicateKeys() []string {
	seen := make(map[string]int, len(n.Parameters))
	var dups []string
	for _, p := range n.Parameters {
		k := p.Key()
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}

// Set assigns value to the parameter name resolves to, adding a named
// parameter when there is none.
func (n *TemplateNode) Set(name, value string) *ParameterNode {
	if p := n.Find(name); p != nil {
		p.SetValue(value)
		return p
	}
	return n.Add(name, value)
}

// Add appends a named parameter.
func (n *TemplateNode) Add(name, value string) *ParameterNode {
	p := NewParameter(TextCollection(name), TextCollection(value), 0)
	n.Parameters = append(n.Parameters, p)
	return p
}

// AddPositional appends an anonymous parameter.
func (n *TemplateNode) AddPositional(value string) *ParameterNode {
	index := 1
	for _, p := range n.Parameters {
		if p.Anonymous() {
			index++
		}
	}
	p := NewParameter(nil, TextCollection(value), index)
	n.Parameters = append(n.Parameters, p)
	return p
}

// Remove deletes every parameter resolving under name and returns how many
// were removed. Anonymous parameters after a removed one are renumbered.
func (n *TemplateNode) Remove(name string) int {
	name = strings.TrimSpace(name)
	kept := n.Parameters[:0]
	removed := 0
	for _, p := range n.Parameters {
		if p.Key() == name {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	clear(n.Parameters[len(kept):])
	n.Parameters = kept
	n.renumber()
	return removed
}

// Rename gives the parameter that from resolves to the name to. An anonymous
// parameter becomes named. It reports whether a parameter was found.
func (n *TemplateNode) Rename(from, to string) bool {
	p := n.Find(from)
	if p == nil {
		return false
	}
	if p.Name == nil {
		p.Name = TextCollection(to).adopt(p)
		p.Index = 0
		n.renumber()
		return true
	}
	lead, trail := surrounding(Raw(p.Name))
	p.Name = TextCollection(lead + to + trail).adopt(p)
	return true
}

func (n *TemplateNode) renumber() {
	index := 1
	for _, p := range n.Parameters {
		if p.Name == nil {
			p.Index = index
			index++
		}
	}
}

// surrounding splits off the leading and trailing whitespace of s.
func surrounding(s string) (lead, trail string) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	lead = s[:len(s)-len(trimmed)]
	inner := strings.TrimRight(trimmed, " \t\r\n")
	return lead, trimmed[len(inner):]
}
