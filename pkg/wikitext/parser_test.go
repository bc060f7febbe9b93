package wikitext

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testTags = []string{"ref", "nowiki", "pre", "math", "references"}

func mustParse(t *testing.T, text string, mode InclusionMode) *NodeCollection {
	t.Helper()
	p, err := NewParser(Options{Tags: testTags, Mode: mode})
	require.NoError(t, err)
	return p.Parse(text)
}

// shape renders a compact structural description of c.
func shape(c *NodeCollection) string {
	parts := make([]string, 0, c.Len())
	for _, n := range c.Nodes() {
		parts = append(parts, shapeNode(n))
	}
	return strings.Join(parts, " ")
}

func shapeNode(n Node) string {
	switch n := n.(type) {
	case *TextNode:
		return fmt.Sprintf("%q", n.Text)
	case *CommentNode:
		return fmt.Sprintf("C(%q)", n.Comment)
	case *IgnoreNode:
		return fmt.Sprintf("I(%q)", n.Value)
	case *EqualsNode:
		return "="
	case *TagNode:
		return fmt.Sprintf("<%s>", n.Name)
	case *HeadingNode:
		return fmt.Sprintf("H%d(%s)", n.Level, shape(n.Title))
	case *LinkNode:
		s := "L(" + shape(n.Title)
		for _, p := range n.Parameters {
			s += " | " + shape(p)
		}
		return s + ")"
	case *TemplateNode:
		s := "T(" + shape(n.Title)
		for _, p := range n.Parameters {
			s += " | "
			if p.Name != nil {
				s += shape(p.Name) + "="
			}
			s += shape(p.Value)
		}
		return s + ")"
	case *ArgumentNode:
		s := "A(" + shape(n.Name)
		if n.DefaultValue != nil {
			s += " | " + shape(n.DefaultValue)
		}
		for _, e := range n.ExtraValues {
			s += " | " + shape(e)
		}
		return s + ")"
	}
	return "?"
}

func TestBraces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{{a}}", `T("a")`},
		{"{{{a}}}", `A("a")`},
		{"{{{{a}}}}", `"{" A("a") "}"`},
		{"{{{{{a}}}}}", `T(A("a"))`},
		{"{{a}}}", `T("a") "}"`},
		{"{{{a}}", `"{" T("a")`},
		{"{a}", `"{a}"`},
		{"{{a|b}}", `T("a" | "b")`},
		{"{{a|{{b}}}}", `T("a" | T("b"))`},
		{"{{a|{{{b|c}}}}}", `T("a" | A("b" | "c"))`},
		{"{{{a|b|c}}}", `A("a" | "b" | "c")`},
		{"{{{a|b=c}}}", `A("a" | "b=c")`},
		{"[[a|b]]", `L("a" | "b")`},
		{"[[[a]]]", `"[" L("a") "]"`},
		{"[a]", `"[a]"`},
		{"[[a|{{b}}]]", `L("a" | T("b"))`},
		{"[[a|b=c]]", `L("a" | "b=c")`},
		{"{{a", `"{{a"`},
		{"{{a|b=c", `"{{a|b=c"`},
		{"x{{a|[[b}}", `"x{{a|[[b}}"`},
		{"{{a|[[b]]}}", `T("a" | L("b"))`},
		{"}}", `"}}"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, ModeEditing)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
		})
	}
}

func TestTemplateParameterSplit(t *testing.T) {
	root := mustParse(t, "{{t|a=1|2|b = x=y |3}}", ModeEditing)
	require.Equal(t, 1, root.Len())
	tpl, ok := root.At(0).(*TemplateNode)
	require.True(t, ok)

	assert.Equal(t, "T", tpl.TitleValue())
	require.Len(t, tpl.Parameters, 4)
	assert.False(t, tpl.Parameters[0].Anonymous())
	assert.Equal(t, "a", tpl.Parameters[0].Key())
	assert.Equal(t, "1", tpl.Parameters[0].ValueText())
	assert.Equal(t, 1, tpl.Parameters[1].Index)
	assert.Equal(t, "2", tpl.Parameters[1].ValueText())
	assert.Equal(t, "b", tpl.Parameters[2].Key())
	assert.Equal(t, "x=y", tpl.Parameters[2].ValueText())
	assert.Equal(t, 2, tpl.Parameters[3].Index)
	assert.Equal(t, "2", tpl.Parameters[3].Key())
}

func TestAtLineStart(t *testing.T) {
	root := mustParse(t, "{{a}}\n{{b}}\n{{{{{c}}}}}", ModeEditing)
	tpls := FindAll[*TemplateNode](root, true, nil)
	require.Len(t, tpls, 3)
	assert.False(t, tpls[0].AtLineStart)
	assert.True(t, tpls[1].AtLineStart)
	// {{{{{c}}}}} is a template around an argument; only the outer one used
	// every opening brace.
	assert.True(t, tpls[2].AtLineStart)
	assert.False(t, tpls[2].Title.At(0).(*ArgumentNode).AtLineStart)
}

func TestHeadings(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		title string
	}{
		{"==Title==\n", `H2("==Title==") "\n"`, "Title"},
		{"==Title=", `H1("==Title=")`, "=Title"},
		{"== Title ==", `H2("== Title ==")`, "Title"},
		{"======a======", `H6("======a======")`, "a"},
		{"=======a=======", `H6("=======a=======")`, "=a="},
		{"===\n", `H1("===") "\n"`, "="},
		{"=\n", `"=\n"`, ""},
		{"==\n", `"==\n"`, ""},
		{"x ==a==", `"x ==a=="`, ""},
		{"x\n==a==", `"x\n" H2("==a==")`, "a"},
		{"==a== <!-- c -->\n", `H2("==a== " C("<!-- c -->")) "\n"`, "a"},
		{"==a{{b}}==", `H2("==a" T("b") "==")`, "a{{b}}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, ModeEditing)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
			if tt.title != "" {
				h, ok := FindFirst[*HeadingNode](root, false, nil)
				require.True(t, ok)
				assert.Equal(t, tt.title, h.TitleText())
			}
		})
	}
}

func TestHeadingIndexes(t *testing.T) {
	root := mustParse(t, "==a==\ntext\n===b===\n{{x|\n==c==\n}}", ModeEditing)
	hs := root.Headings()
	require.Len(t, hs, 3)
	for i, h := range hs {
		assert.Equal(t, i+1, h.Index)
	}
	assert.Equal(t, 3, hs[1].Level)
	assert.Equal(t, "c", hs[2].TitleText())
}

func TestHeadingEqualsInsideTemplate(t *testing.T) {
	root := mustParse(t, "{{a|\n=b}}", ModeEditing)
	tpl := root.At(0).(*TemplateNode)
	require.Len(t, tpl.Parameters, 1)
	assert.Equal(t, "", tpl.Parameters[0].Key())
	assert.Equal(t, "b", tpl.Parameters[0].ValueText())
	assert.Empty(t, root.Headings())
}

func TestComments(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a <!-- c --> b", `"a " C("<!-- c -->") " b"`},
		{"a\n<!-- c -->\nb", `"a\n" C("<!-- c -->\n") "b"`},
		{"a\n  <!-- c -->  \nb", `"a\n" C("  <!-- c -->  \n") "b"`},
		{"a\n<!-- x --> <!-- y -->\nb", `"a\n" C("<!-- x --> ") C("<!-- y -->\n") "b"`},
		{"a\n<!-- x --> <!-- y --> z\nb", `"a\n" C("<!-- x -->") " " C("<!-- y -->") " z\nb"`},
		{"<!-- c -->\nb", `C("<!-- c -->") "\nb"`},
		{"a<!-- c", `"a" C("<!-- c")`},
		{"a\n<!-- c -->\n==h==", `"a\n" C("<!-- c -->\n") H2("==h==")`},
		{"{{a|b<!-- c -->}}", `T("a" | "b" C("<!-- c -->"))`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, ModeEditing)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
		})
	}
}

func TestTags(t *testing.T) {
	root := mustParse(t, `<REF name=a>x</Ref >`, ModeEditing)
	tag, ok := root.At(0).(*TagNode)
	require.True(t, ok)
	assert.Equal(t, "REF", tag.Name)
	assert.Equal(t, " name=a", tag.Attributes)
	assert.Equal(t, "x", tag.InnerText())
	require.NotNil(t, tag.Close)
	assert.Equal(t, "</Ref >", *tag.Close)

	tests := []struct {
		in   string
		want string
	}{
		{"<ref>text", `"<ref>text"`},
		{"<ref>a</ref><ref>b", `<ref> "<ref>b"`},
		{"<refx>a</refx>", `"<refx>a</refx>"`},
		{"<ref", `"<ref"`},
		{"<br/>", `<br>`},
		{"<br>x", `<br> "x"`},
		{"<ref name=x/>", `<ref>`},
		{"<nowiki>{{a}}</nowiki>", `<nowiki>`},
		{"{{a|<ref>|</ref>}}", `T("a" | <ref>)`},
		{"a < b", `"a < b"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, ModeEditing)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
		})
	}
}

func TestVoidAndSelfClosingTags(t *testing.T) {
	root := mustParse(t, "<br/><br>", ModeEditing)
	require.Equal(t, 2, root.Len())
	first := root.At(0).(*TagNode)
	assert.True(t, first.SelfClosing)
	assert.Nil(t, first.Inner)
	second := root.At(1).(*TagNode)
	assert.False(t, second.SelfClosing)
	assert.Nil(t, second.Inner)
	assert.Nil(t, second.Close)
}

func TestInclusionModes(t *testing.T) {
	const text = "a<noinclude>b</noinclude>c<includeonly>d</includeonly>"
	tests := []struct {
		mode InclusionMode
		in   string
		want string
	}{
		{ModeEditing, text, `"a" I("<noinclude>b</noinclude>") "c" I("<includeonly>") "d" I("</includeonly>")`},
		{ModeTranscluded, text, `"a" I("<noinclude>") "b" I("</noinclude>") "c" I("<includeonly>d</includeonly>")`},
		{ModeRaw, text, `"a" <noinclude> "c" <includeonly>`},
		{ModeEditing, "a<noinclude>b", `"a" I("<noinclude>b")`},
		{ModeRaw, "a<includeonly>b", `"a" <includeonly>`},
		{ModeEditing, "a<onlyinclude>b</onlyinclude>c", `I("a<onlyinclude>") "b" I("</onlyinclude>c")`},
		{ModeTranscluded, "a<onlyinclude>b</onlyinclude>c<onlyinclude>d</onlyinclude>",
			`I("a<onlyinclude>") "b" I("</onlyinclude>c<onlyinclude>") "d" I("</onlyinclude>")`},
		{ModeEditing, "a<onlyinclude>b", `"a<onlyinclude>b"`},
		{ModeRaw, "a<onlyinclude>b</onlyinclude>c", `"a" <onlyinclude> "c"`},
		{ModeEditing, "a<OnlyInclude>b</ONLYINCLUDE>c", `I("a<OnlyInclude>") "b" I("</ONLYINCLUDE>c")`},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, tt.mode)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
		})
	}
}

func TestDeepNesting(t *testing.T) {
	const depth = 5000
	open := strings.Repeat("{{a|", depth)

	closed := open + "x" + strings.Repeat("}}", depth)
	root := mustParse(t, closed, ModeEditing)
	require.Equal(t, 1, root.Len())
	_, ok := root.At(0).(*TemplateNode)
	require.True(t, ok)
	assert.Len(t, FindAll[*TemplateNode](root, true, nil), depth)
	assert.Equal(t, closed, Raw(root))

	root = mustParse(t, open, ModeEditing)
	assert.Equal(t, fmt.Sprintf("%q", open), shape(root))
	assert.Equal(t, open, Raw(root))

	mixed := "{{b}}" + strings.Repeat("[[c|{{d|", depth) + "{{e}}"
	root = mustParse(t, mixed, ModeEditing)
	assert.Equal(t, fmt.Sprintf(`T("b") %q T("e")`, mixed[5:len(mixed)-5]), shape(root))
	assert.Equal(t, mixed, Raw(root))
}

func TestUnclosedFramesAfterHeading(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"== a == {{b", `H2("== a == ") "{{b"`},
		{"== a {{b ==", `"== a {{b =="`},
		{"{{x|\n== a == [[b", `"{{x|\n" H2("== a == ") "[[b"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			root := mustParse(t, tt.in, ModeEditing)
			assert.Equal(t, tt.want, shape(root))
			assert.Equal(t, tt.in, Raw(root))
		})
	}
}

func TestLargeLiteralInput(t *testing.T) {
	text := strings.Repeat("See [http://example.org/x y] and a < b. ", 25000)
	start := time.Now()
	root := mustParse(t, text, ModeEditing)
	elapsed := time.Since(start)

	require.Equal(t, 1, root.Len())
	assert.Equal(t, text, Raw(root))
	assert.Less(t, elapsed, 5*time.Second)
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"{{Infobox\n| name = x\n| image = [[File:a.png|thumb|{{{1|}}}]]\n}}\n'''Bold''' text.",
		"==H==\n<!-- a -->\n  <!-- b -->  \n{{t|x=<ref name=\"n\">{{cite|a=b}}</ref>}}",
		"{{{{{{a}}}}}}",
		"[[a|[[b]]]] [[c]",
		"=\n==\n===\n====a\n",
		"<pre>\n{{x}}\n</pre> <math>a<b</math>",
		"{{a|b|c=d|e=}}}}}}}",
		"<!--a--><!--b-->\n<!--c-->",
		"{{#if:{{{1|}}}|yes|no}}",
		"a\r\nb\t{{c\n|d}}",
		"<references/> <ref>x</ref> <ref>y",
	}
	for _, mode := range []InclusionMode{ModeEditing, ModeTranscluded, ModeRaw} {
		for _, in := range inputs {
			root := mustParse(t, in, mode)
			require.Equal(t, in, Raw(root), "mode %v", mode)
			// Parsing the serialization yields the same structure.
			assert.Equal(t, shape(root), shape(mustParse(t, Raw(root), mode)))
		}
	}
}

func TestNewParserErrors(t *testing.T) {
	_, err := NewParser(Options{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewParser(Options{Tags: []string{"re f"}})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewParser(Options{Tags: []string{"ref"}, Mode: InclusionMode(7)})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Parse("x", Options{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseMode(t *testing.T) {
	for _, m := range []InclusionMode{ModeEditing, ModeTranscluded, ModeRaw} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMode(" Transcluded ")
	require.NoError(t, err)
	assert.Equal(t, ModeTranscluded, got)

	_, err = ParseMode("bogus")
	require.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "InclusionMode(9)", InclusionMode(9).String())
}

func TestParserConcurrentUse(t *testing.T) {
	p, err := NewParser(Options{Tags: testTags})
	require.NoError(t, err)

	var g errgroup.Group
	for i := range 16 {
		g.Go(func() error {
			text := fmt.Sprintf("{{t%d|a=<ref>%d</ref>}}\n==h%d==", i, i, i)
			if got := Raw(p.Parse(text)); got != text {
				return fmt.Errorf("round trip %q: got %q", text, got)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
