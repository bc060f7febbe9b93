package wikitext

import (
	"bytes"
	"fmt"
	"strings"
)

// Visitor receives one call per node kind. Implementations decide whether
// and how to descend into child collections.
type Visitor interface {
	VisitText(n *TextNode)
	VisitComment(n *CommentNode)
	VisitIgnore(n *IgnoreNode)
	VisitTag(n *TagNode)
	VisitHeading(n *HeadingNode)
	VisitEquals(n *EqualsNode)
	VisitLink(n *LinkNode)
	VisitTemplate(n *TemplateNode)
	VisitArgument(n *ArgumentNode)
	VisitParameter(n *ParameterNode)
}

// Walk calls fn for every node in c depth first and stops at the first error.
func Walk(c *NodeCollection, fn func(Node) error) error {
	for n := range c.All() {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

// TextVisitor renders nodes back to wikitext.
type TextVisitor struct {
	buf bytes.Buffer
	// StripComments drops comments and ignored spans from the output.
	StripComments bool
}

// String returns everything rendered so far.
func (v *TextVisitor) String() string { return v.buf.String() }

func (v *TextVisitor) VisitText(n *TextNode) { v.buf.WriteString(n.Text) }

func (v *TextVisitor) VisitComment(n *CommentNode) {
	if !v.StripComments {
		v.buf.WriteString(n.Comment)
	}
}

func (v *TextVisitor) VisitIgnore(n *IgnoreNode) {
	if !v.StripComments {
		v.buf.WriteString(n.Value)
	}
}

func (v *TextVisitor) VisitTag(n *TagNode) {
	v.buf.WriteByte('<')
	v.buf.WriteString(n.Name)
	v.buf.WriteString(n.Attributes)
	if n.SelfClosing {
		v.buf.WriteString("/>")
		return
	}
	v.buf.WriteByte('>')
	if n.Inner != nil {
		v.buf.WriteString(*n.Inner)
	}
	if n.Close != nil {
		v.buf.WriteString(*n.Close)
	}
}

func (v *TextVisitor) VisitHeading(n *HeadingNode) { n.Title.Accept(v) }

func (v *TextVisitor) VisitEquals(*EqualsNode) { v.buf.WriteByte('=') }

func (v *TextVisitor) VisitLink(n *LinkNode) {
	v.buf.WriteString("[[")
	n.Title.Accept(v)
	for _, p := range n.Parameters {
		v.buf.WriteByte('|')
		p.Accept(v)
	}
	v.buf.WriteString("]]")
}

func (v *TextVisitor) VisitTemplate(n *TemplateNode) {
	v.buf.WriteString("{{")
	n.Title.Accept(v)
	for _, p := range n.Parameters {
		p.Accept(v)
	}
	v.buf.WriteString("}}")
}

func (v *TextVisitor) VisitArgument(n *ArgumentNode) {
	v.buf.WriteString("{{{")
	n.Name.Accept(v)
	if n.DefaultValue != nil {
		v.buf.WriteByte('|')
		n.DefaultValue.Accept(v)
	}
	for _, e := range n.ExtraValues {
		v.buf.WriteByte('|')
		e.Accept(v)
	}
	v.buf.WriteString("}}}")
}

func (v *TextVisitor) VisitParameter(n *ParameterNode) {
	v.buf.WriteByte('|')
	if n.Name != nil {
		n.Name.Accept(v)
		v.buf.WriteByte('=')
	}
	n.Value.Accept(v)
}

// Raw serializes c back to wikitext. For a freshly parsed document the
// result is byte-identical to the input.
func Raw(c *NodeCollection) string {
	var v TextVisitor
	c.Accept(&v)
	return v.String()
}

// RawNode serializes a single node.
func RawNode(n Node) string {
	var v TextVisitor
	n.Accept(&v)
	return v.String()
}

// Value serializes c with comments and ignored spans removed.
func Value(c *NodeCollection) string {
	v := TextVisitor{StripComments: true}
	c.Accept(&v)
	return v.String()
}

// Pretty returns a line-oriented string representation of the tree.
func Pretty(c *NodeCollection) string {
	p := &prettyVisitor{}
	p.line("Root")
	p.children(c)
	return p.buf.String()
}

type prettyVisitor struct {
	buf    bytes.Buffer
	indent int
}

func (p *prettyVisitor) line(format string, args ...any) {
	p.buf.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *prettyVisitor) children(c *NodeCollection) {
	p.indent++
	c.Accept(p)
	p.indent--
}

func (p *prettyVisitor) section(label string, c *NodeCollection) {
	p.indent++
	p.line("%s", label)
	p.children(c)
	p.indent--
}

func (p *prettyVisitor) VisitText(n *TextNode)       { p.line("Text(%q)", n.Text) }
func (p *prettyVisitor) VisitComment(n *CommentNode) { p.line("Comment(%q)", n.Comment) }
func (p *prettyVisitor) VisitIgnore(n *IgnoreNode)   { p.line("Ignore(%q)", n.Value) }
func (p *prettyVisitor) VisitEquals(*EqualsNode)     { p.line("Equals") }

func (p *prettyVisitor) VisitTag(n *TagNode) {
	switch {
	case n.SelfClosing:
		p.line("Tag(%s %q selfclosing)", n.Name, n.Attributes)
	case n.Close == nil:
		p.line("Tag(%s %q inner=%q unclosed)", n.Name, n.Attributes, n.InnerText())
	default:
		p.line("Tag(%s %q inner=%q)", n.Name, n.Attributes, n.InnerText())
	}
}

func (p *prettyVisitor) VisitHeading(n *HeadingNode) {
	p.line("Heading(level=%d i=%d)", n.Level, n.Index)
	p.children(n.Title)
}

func (p *prettyVisitor) VisitLink(n *LinkNode) {
	p.line("Link")
	p.section("Title", n.Title)
	for _, c := range n.Parameters {
		p.section("Part", c)
	}
}

func (p *prettyVisitor) VisitTemplate(n *TemplateNode) {
	if n.AtLineStart {
		p.line("Template(lineStart)")
	} else {
		p.line("Template")
	}
	p.section("Title", n.Title)
	p.indent++
	for _, param := range n.Parameters {
		param.Accept(p)
	}
	p.indent--
}

func (p *prettyVisitor) VisitArgument(n *ArgumentNode) {
	if n.AtLineStart {
		p.line("Argument(lineStart)")
	} else {
		p.line("Argument")
	}
	p.section("Name", n.Name)
	if n.DefaultValue != nil {
		p.section("Default", n.DefaultValue)
	}
	for _, e := range n.ExtraValues {
		p.section("Extra", e)
	}
}

func (p *prettyVisitor) VisitParameter(n *ParameterNode) {
	if n.Name == nil {
		p.line("Param(%d)", n.Index)
		p.children(n.Value)
		return
	}
	p.line("Param")
	p.section("Name", n.Name)
	p.section("Value", n.Value)
}
