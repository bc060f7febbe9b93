package wikitext

import "strings"

type frameKind int

const (
	rootFrame frameKind = iota
	braceFrame
	bracketFrame
	headingFrame
)

const baseSearch = "[{<\n"

// piece accumulates the nodes of one pipe-separated slot of a frame.
type piece struct {
	nodes *NodeCollection
	// lit holds literal text not yet moved into nodes.
	lit strings.Builder
	// eqPos is the index of the EqualsNode in nodes, or -1.
	eqPos int
	// commentEnd is the offset of the last byte of the latest comment, or -1.
	commentEnd int
	// visualEnd is the offset where visible text stopped before that comment.
	visualEnd int
}

func newPiece() *piece {
	return &piece{nodes: &NodeCollection{}, eqPos: -1, commentEnd: -1, visualEnd: -1}
}

func (p *piece) addText(text string) { p.lit.WriteString(text) }

func (p *piece) flush() {
	if p.lit.Len() > 0 {
		p.nodes.AddText(p.lit.String())
		p.lit.Reset()
	}
}

// append adds n after any pending text and returns its index.
func (p *piece) append(n Node) int {
	p.flush()
	p.nodes.Append(n)
	return p.nodes.Len() - 1
}

// merge appends nodes, folding text nodes into the pending text.
func (p *piece) merge(nodes []Node) {
	for _, n := range nodes {
		if t, ok := n.(*TextNode); ok {
			p.addText(t.Text)
			continue
		}
		p.append(n)
	}
}

// collection returns the nodes of the piece with pending text flushed.
func (p *piece) collection() *NodeCollection {
	p.flush()
	return p.nodes
}

// trimBlankSuffix removes n trailing blanks from the last node when it is
// text ending in at least n spaces or tabs.
func (p *piece) trimBlankSuffix(n int) bool {
	c := p.collection()
	if c.Len() == 0 {
		return false
	}
	t, ok := c.nodes[len(c.nodes)-1].(*TextNode)
	if !ok || spanBack(t.Text, " \t", len(t.Text)) < n {
		return false
	}
	t.Text = t.Text[:len(t.Text)-n]
	if t.Text == "" {
		c.nodes = c.nodes[:len(c.nodes)-1]
	}
	return true
}

// frame is an open construct awaiting its closing delimiter.
type frame struct {
	kind  frameKind
	open  byte
	count int
	// lineStart records whether the opening run began a line.
	lineStart bool
	// start is the offset of the opening run.
	start int
	parts []*piece
}

func (f *frame) current() *piece { return f.parts[len(f.parts)-1] }

func (f *frame) closeChar() byte {
	switch f.kind {
	case braceFrame:
		return '}'
	case bracketFrame:
		return ']'
	case headingFrame:
		return '\n'
	}
	return 0
}

// findEquals reports whether an equals sign would split the current part
// into a parameter name and value.
func (f *frame) findEquals() bool {
	return f.kind == braceFrame && len(f.parts) > 1 && f.current().eqPos < 0
}

func (f *frame) search() string {
	switch f.kind {
	case braceFrame:
		if f.findEquals() {
			return baseSearch + "}|="
		}
		return baseSearch + "}|"
	case bracketFrame:
		return baseSearch + "]|"
	}
	return baseSearch
}

// breakSyntax returns the frame's contents as literal text wherever it has
// no node of its own, for frames that never found their closing delimiter.
func (f *frame) breakSyntax() []Node {
	if f.kind == rootFrame || f.kind == headingFrame {
		return f.parts[0].collection().nodes
	}
	out := newPiece()
	out.addText(strings.Repeat(string(f.open), f.count))
	for i, p := range f.parts {
		if i > 0 {
			out.addText("|")
		}
		flattenEquals(out, p.collection().nodes)
	}
	return out.collection().nodes
}

// flattenEquals appends nodes to out with every EqualsNode turned into
// literal text.
func flattenEquals(out *piece, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *EqualsNode:
			out.addText("=")
		case *TextNode:
			out.addText(n.Text)
		default:
			out.append(n)
		}
	}
}

// build turns a closed brace or bracket frame into its node. matching is the
// number of closing characters consumed.
func (f *frame) build(matching int, atLineStart bool) Node {
	title := f.parts[0].collection()
	rest := f.parts[1:]
	switch {
	case f.kind == bracketFrame:
		params := make([]*NodeCollection, 0, len(rest))
		for _, p := range rest {
			params = append(params, p.collection())
		}
		return NewLink(title, params...)
	case matching == 2:
		params := make([]*ParameterNode, 0, len(rest))
		index := 1
		for _, p := range rest {
			nodes := p.collection()
			if p.eqPos < 0 {
				params = append(params, NewParameter(nil, nodes, index))
				index++
				continue
			}
			name := NewCollection(nodes.nodes[:p.eqPos]...)
			value := NewCollection(nodes.nodes[p.eqPos+1:]...)
			params = append(params, NewParameter(name, value, 0))
		}
		return NewTemplate(title, params, atLineStart)
	default:
		var def *NodeCollection
		var extra []*NodeCollection
		for i, p := range rest {
			flat := newPiece()
			flattenEquals(flat, p.collection().nodes)
			v := flat.collection()
			if i == 0 {
				def = v
				continue
			}
			extra = append(extra, v)
		}
		return NewArgument(title, def, extra, atLineStart)
	}
}

// stack holds the open frames. The root frame sits at the bottom and is
// never popped.
type stack struct {
	frames []*frame
}

func newStack() *stack {
	s := &stack{frames: make([]*frame, 0, 8)}
	s.push(&frame{kind: rootFrame, parts: []*piece{newPiece()}})
	return s
}

func (s *stack) push(f *frame) {
	if len(s.frames) == cap(s.frames) {
		grown := make([]*frame, len(s.frames), 2*cap(s.frames))
		copy(grown, s.frames)
		s.frames = grown
	}
	s.frames = append(s.frames, f)
}

func (s *stack) pop() *frame {
	if len(s.frames) < 2 {
		panic("wikitext: pop of root frame")
	}
	f := s.frames[len(s.frames)-1]
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

func (s *stack) top() *frame { return s.frames[len(s.frames)-1] }

func (s *stack) depth() int { return len(s.frames) }

// accum returns the piece receiving nodes at the current position.
func (s *stack) accum() *piece { return s.top().current() }
