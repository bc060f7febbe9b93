package wikitext

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// XMLVisitor renders a tree in the preprocessor's XML debug format:
// <root>, <template>, <tplarg>, <link>, <part>, <name>, <value>, <ext>,
// <h>, <comment> and <ignore> elements, with text escaped.
type XMLVisitor struct {
	buf   bytes.Buffer
	depth int
	// Indent puts every element on its own tab-indented line.
	Indent bool
}

// XML renders c inside a <root> element.
func XML(c *NodeCollection, indent bool) string {
	v := &XMLVisitor{Indent: indent}
	v.Root(c)
	return v.String()
}

// Root renders c inside a <root> element.
func (v *XMLVisitor) Root(c *NodeCollection) { v.element("root", "", c) }

// String returns everything rendered so far.
func (v *XMLVisitor) String() string { return v.buf.String() }

func (v *XMLVisitor) newline() {
	if !v.Indent {
		return
	}
	v.buf.WriteByte('\n')
	for range v.depth {
		v.buf.WriteByte('\t')
	}
}

func (v *XMLVisitor) open(name, attrs string) {
	v.newline()
	v.buf.WriteString("<" + name + attrs + ">")
	v.depth++
}

func (v *XMLVisitor) close(name string) {
	v.depth--
	v.newline()
	v.buf.WriteString("</" + name + ">")
}

// element writes name around the contents of c, self-closing when c is empty.
func (v *XMLVisitor) element(name, attrs string, c *NodeCollection) {
	if c.Len() == 0 {
		v.newline()
		v.buf.WriteString("<" + name + attrs + "/>")
		return
	}
	v.open(name, attrs)
	c.Accept(v)
	v.close(name)
}

// leaf writes name around escaped text, self-closing when text is empty.
func (v *XMLVisitor) leaf(name, attrs, text string) {
	v.newline()
	if text == "" {
		v.buf.WriteString("<" + name + attrs + "/>")
		return
	}
	v.buf.WriteString("<" + name + attrs + ">")
	v.text(text)
	v.buf.WriteString("</" + name + ">")
}

func (v *XMLVisitor) text(s string) {
	// bytes.Buffer writes cannot fail.
	_ = xml.EscapeText(&v.buf, []byte(s))
}

func lineStartAttr(atLineStart bool) string {
	if atLineStart {
		return ` lineStart="1"`
	}
	return ""
}

func (v *XMLVisitor) VisitText(n *TextNode) {
	v.newline()
	v.text(n.Text)
}

func (v *XMLVisitor) VisitComment(n *CommentNode) { v.leaf("comment", "", n.Comment) }
func (v *XMLVisitor) VisitIgnore(n *IgnoreNode)   { v.leaf("ignore", "", n.Value) }

func (v *XMLVisitor) VisitEquals(*EqualsNode) {
	v.newline()
	v.buf.WriteByte('=')
}

func (v *XMLVisitor) VisitTag(n *TagNode) {
	v.open("ext", "")
	v.leaf("name", "", n.Name)
	v.leaf("attr", "", n.Attributes)
	if n.Inner != nil {
		v.leaf("inner", "", *n.Inner)
	}
	if n.Close != nil {
		v.leaf("close", "", *n.Close)
	}
	v.close("ext")
}

func (v *XMLVisitor) VisitHeading(n *HeadingNode) {
	attrs := ` level="` + strconv.Itoa(n.Level) + `" i="` + strconv.Itoa(n.Index) + `"`
	v.element("h", attrs, n.Title)
}

func (v *XMLVisitor) VisitLink(n *LinkNode) {
	v.open("link", "")
	v.element("title", "", n.Title)
	for _, p := range n.Parameters {
		v.open("part", "")
		v.element("value", "", p)
		v.close("part")
	}
	v.close("link")
}

func (v *XMLVisitor) VisitTemplate(n *TemplateNode) {
	v.open("template", lineStartAttr(n.AtLineStart))
	v.element("title", "", n.Title)
	for _, p := range n.Parameters {
		p.Accept(v)
	}
	v.close("template")
}

func (v *XMLVisitor) VisitArgument(n *ArgumentNode) {
	v.open("tplarg", lineStartAttr(n.AtLineStart))
	v.element("title", "", n.Name)
	parts := n.ExtraValues
	if n.DefaultValue != nil {
		parts = append([]*NodeCollection{n.DefaultValue}, parts...)
	}
	for i, p := range parts {
		v.open("part", "")
		v.leaf("name", ` index="`+strconv.Itoa(i+1)+`"`, "")
		v.element("value", "", p)
		v.close("part")
	}
	v.close("tplarg")
}

func (v *XMLVisitor) VisitParameter(n *ParameterNode) {
	v.open("part", "")
	if n.Name == nil {
		v.leaf("name", ` index="`+strconv.Itoa(n.Index)+`"`, "")
	} else {
		v.element("name", "", n.Name)
		v.VisitEquals(nil)
	}
	v.element("value", "", n.Value)
	v.close("part")
}
