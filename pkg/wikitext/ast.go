package wikitext

import "strings"

// Node is any element of a parsed wikitext tree.
type Node interface {
	// Accept calls the Visitor method matching the concrete node type.
	Accept(v Visitor)
	// Collections returns the child collections owned by the node in
	// document order. Leaf nodes return nil.
	Collections() []*NodeCollection
}

// TextNode represents literal text.
type TextNode struct {
	Text string
}

func (n *TextNode) Accept(v Visitor)             { v.VisitText(n) }
func (*TextNode) Collections() []*NodeCollection { return nil }

// CommentNode holds an HTML comment exactly as it appeared in the source,
// including its delimiters. When the scanner folds a comment-only line,
// the surrounding whitespace and the trailing newline belong to the comment.
type CommentNode struct {
	Comment string
}

func (n *CommentNode) Accept(v Visitor)             { v.VisitComment(n) }
func (*CommentNode) Collections() []*NodeCollection { return nil }

// IgnoreNode is a span that is inert in the selected inclusion mode, such as
// a <noinclude> marker or everything outside <onlyinclude>.
type IgnoreNode struct {
	Value string
}

func (n *IgnoreNode) Accept(v Visitor)             { v.VisitIgnore(n) }
func (*IgnoreNode) Collections() []*NodeCollection { return nil }

// TagNode is a recognized extension or control tag. Its contents are opaque.
//
// Inner is nil when the tag had no body (self-closed, or an unmatched void
// tag). Close is nil when no closing tag was found.
type TagNode struct {
	Name        string
	Attributes  string
	Inner       *string
	Close       *string
	SelfClosing bool
}

func (n *TagNode) Accept(v Visitor)             { v.VisitTag(n) }
func (*TagNode) Collections() []*NodeCollection { return nil }

// InnerText returns the tag body, or "" when there is none.
func (n *TagNode) InnerText() string {
	if n.Inner == nil {
		return ""
	}
	return *n.Inner
}

// HeadingNode is a validated section heading. Title holds the whole heading
// line as parsed, delimiting equals signs included.
type HeadingNode struct {
	Level int
	Index int
	Title *NodeCollection
}

// NewHeading returns a heading owning title.
func NewHeading(level, index int, title *NodeCollection) *HeadingNode {
	h := &HeadingNode{Level: level, Index: index}
	h.Title = title.adopt(h)
	return h
}

func (n *HeadingNode) Accept(v Visitor)               { v.VisitHeading(n) }
func (n *HeadingNode) Collections() []*NodeCollection { return []*NodeCollection{n.Title} }

// TitleText returns the heading text between the Level-long runs of equals
// signs, with comments removed and surrounding whitespace trimmed.
func (n *HeadingNode) TitleText() string {
	s := strings.TrimRight(Value(n.Title), " \t\n")
	for i := 0; i < n.Level && len(s) > 1 && s[0] == '=' && s[len(s)-1] == '='; i++ {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// EqualsNode marks the name/value split of a parameter while it is being
// scanned. Finished templates split their parameters instead, so the marker
// only survives in hand-built trees.
type EqualsNode struct{}

func (n *EqualsNode) Accept(v Visitor)             { v.VisitEquals(n) }
func (*EqualsNode) Collections() []*NodeCollection { return nil }

// LinkNode is a [[...]] construct.
type LinkNode struct {
	Title      *NodeCollection
	Parameters []*NodeCollection
}

// NewLink returns a link owning title and parameters.
func NewLink(title *NodeCollection, parameters ...*NodeCollection) *LinkNode {
	l := &LinkNode{}
	l.Title = title.adopt(l)
	for _, p := range parameters {
		l.Parameters = append(l.Parameters, p.adopt(l))
	}
	return l
}

func (n *LinkNode) Accept(v Visitor) { v.VisitLink(n) }

func (n *LinkNode) Collections() []*NodeCollection {
	out := make([]*NodeCollection, 0, len(n.Parameters)+1)
	out = append(out, n.Title)
	return append(out, n.Parameters...)
}

// TargetValue returns the link target with comments removed and whitespace
// trimmed.
func (n *LinkNode) TargetValue() string {
	return strings.TrimSpace(Value(n.Title))
}

// DisplayText returns the value of the last parameter, or "" for a link
// without parameters.
func (n *LinkNode) DisplayText() string {
	if len(n.Parameters) == 0 {
		return ""
	}
	return strings.TrimSpace(Value(n.Parameters[len(n.Parameters)-1]))
}

// SetTarget replaces the link target with literal text.
func (n *LinkNode) SetTarget(target string) {
	n.Title = TextCollection(target).adopt(n)
}

// TemplateNode is a {{...}} transclusion.
type TemplateNode struct {
	Title       *NodeCollection
	Parameters  []*ParameterNode
	AtLineStart bool
}

// NewTemplate returns a template owning title and parameters.
func NewTemplate(title *NodeCollection, parameters []*ParameterNode, atLineStart bool) *TemplateNode {
	t := &TemplateNode{AtLineStart: atLineStart, Parameters: parameters}
	t.Title = title.adopt(t)
	return t
}

func (n *TemplateNode) Accept(v Visitor) { v.VisitTemplate(n) }

func (n *TemplateNode) Collections() []*NodeCollection {
	out := make([]*NodeCollection, 0, 2*len(n.Parameters)+1)
	out = append(out, n.Title)
	for _, p := range n.Parameters {
		out = append(out, p.Collections()...)
	}
	return out
}

// ParameterNode is one pipe-separated parameter of a template.
// Name is nil for anonymous parameters, which carry their 1-based position
// among anonymous parameters in Index.
type ParameterNode struct {
	Name  *NodeCollection
	Value *NodeCollection
	Index int
}

// NewParameter returns a named parameter, or an anonymous one when name is nil.
func NewParameter(name, value *NodeCollection, index int) *ParameterNode {
	p := &ParameterNode{Index: index}
	p.Name = name.adopt(p)
	p.Value = value.adopt(p)
	if name != nil {
		p.Index = 0
	}
	return p
}

func (n *ParameterNode) Accept(v Visitor) { v.VisitParameter(n) }

func (n *ParameterNode) Collections() []*NodeCollection {
	if n.Name == nil {
		return []*NodeCollection{n.Value}
	}
	return []*NodeCollection{n.Name, n.Value}
}

// Anonymous reports whether the parameter has no name.
func (n *ParameterNode) Anonymous() bool { return n.Name == nil }

// ArgumentNode is a {{{...}}} template argument. DefaultValue is nil when no
// pipe follows the name; values after a second pipe are kept in ExtraValues.
type ArgumentNode struct {
	Name         *NodeCollection
	DefaultValue *NodeCollection
	ExtraValues  []*NodeCollection
	AtLineStart  bool
}

// NewArgument returns an argument owning all of its collections.
func NewArgument(name, defaultValue *NodeCollection, extra []*NodeCollection, atLineStart bool) *ArgumentNode {
	a := &ArgumentNode{AtLineStart: atLineStart}
	a.Name = name.adopt(a)
	a.DefaultValue = defaultValue.adopt(a)
	for _, e := range extra {
		a.ExtraValues = append(a.ExtraValues, e.adopt(a))
	}
	return a
}

func (n *ArgumentNode) Accept(v Visitor) { v.VisitArgument(n) }

func (n *ArgumentNode) Collections() []*NodeCollection {
	out := []*NodeCollection{n.Name}
	if n.DefaultValue != nil {
		out = append(out, n.DefaultValue)
	}
	return append(out, n.ExtraValues...)
}

// NameValue returns the argument name with comments removed and whitespace
// trimmed.
func (n *ArgumentNode) NameValue() string {
	return strings.TrimSpace(Value(n.Name))
}
