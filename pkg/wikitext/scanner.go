package wikitext

import "strings"

// scanner holds the state of a single Parse call.
type scanner struct {
	p     *Parser
	text  string
	pos   int
	stack *stack

	headingIndex  int
	fakeLineStart bool

	foldOnlyInclude bool
	findOnlyInclude bool

	// noMoreGT is set once no '>' remains after the current position.
	noMoreGT bool
	// noMoreClosingTag records tags whose closing tag no longer occurs.
	noMoreClosingTag map[string]bool
}

func newScanner(p *Parser, text string) *scanner {
	s := &scanner{
		p:                p,
		text:             text,
		stack:            newStack(),
		headingIndex:     1,
		noMoreClosingTag: map[string]bool{},
	}
	if p.foldOnlyInclude && indexFold(text, onlyIncludeOpen) >= 0 && indexFold(text, onlyIncludeClose) >= 0 {
		s.foldOnlyInclude = true
		s.findOnlyInclude = true
	}
	s.fakeLineStart = len(text) > 0 && text[0] == '='
	return s
}

func (s *scanner) run() *NodeCollection {
	for {
		if s.findOnlyInclude && !s.skipToOnlyInclude() {
			break
		}
		if s.fakeLineStart {
			s.fakeLineStart = false
			s.lineStart()
			continue
		}

		top := s.stack.top()
		n := strings.IndexAny(s.text[s.pos:], top.search())
		if n < 0 {
			n = len(s.text) - s.pos
		}
		if n > 0 {
			s.stack.accum().addText(s.text[s.pos : s.pos+n])
			s.pos += n
		}
		if s.pos >= len(s.text) {
			if top.kind == headingFrame {
				s.lineEnd()
				continue
			}
			break
		}

		switch c := s.text[s.pos]; {
		case c == '|':
			top.parts = append(top.parts, newPiece())
			s.pos++
		case c == '=':
			part := top.current()
			part.eqPos = part.append(&EqualsNode{})
			s.pos++
		case c == '<':
			s.angle()
		case c == '\n':
			if top.kind == headingFrame {
				s.lineEnd()
				continue
			}
			s.stack.accum().addText("\n")
			s.pos++
			s.lineStart()
		case c == top.closeChar():
			s.close()
		case c == '{' || c == '[':
			s.open(c)
		default:
			s.stack.accum().addText(string(c))
			s.pos++
		}
	}
	return s.finish()
}

// skipToOnlyInclude turns everything up to and including the next
// <onlyinclude> into an Ignore node. It reports false when none is left.
func (s *scanner) skipToOnlyInclude() bool {
	s.findOnlyInclude = false
	rest := s.text[s.pos:]
	i := indexFold(rest, onlyIncludeOpen)
	if i < 0 {
		s.ignore(rest)
		s.pos = len(s.text)
		return false
	}
	end := i + len(onlyIncludeOpen)
	s.ignore(rest[:end])
	s.pos += end
	return true
}

func (s *scanner) ignore(text string) {
	if text != "" {
		s.stack.accum().append(&IgnoreNode{Value: text})
	}
}

// lineStart opens a heading frame when the current line starts with equals
// signs.
func (s *scanner) lineStart() {
	count := span(s.text, '=', s.pos, 6)
	if count == 0 {
		return
	}
	// A lone equals sign inside a template parameter is a name/value split.
	if count == 1 && s.stack.top().findEquals() {
		return
	}
	part := newPiece()
	part.addText(strings.Repeat("=", count))
	s.stack.push(&frame{kind: headingFrame, open: '=', count: count, start: s.pos, parts: []*piece{part}})
	s.pos += count
}

// lineEnd closes the heading frame on top of the stack, validating it
// against the equals signs that end the line. The newline is not consumed.
func (s *scanner) lineEnd() {
	f := s.stack.pop()
	s.stack.accum().merge(s.closeHeading(f, s.pos))
}

// closeHeading validates a heading frame whose line ends at offset end. It
// returns the heading node, or the frame's contents when the line does not
// end in equals signs.
func (s *scanner) closeHeading(f *frame, end int) []Node {
	part := f.current()

	searchStart := end - spanBack(s.text, " \t", end)
	if part.commentEnd >= 0 && searchStart-1 == part.commentEnd {
		searchStart = part.visualEnd
		searchStart -= spanBack(s.text, " \t", searchStart)
	}
	level := 0
	if eq := spanBack(s.text, "=", searchStart); eq > 0 {
		if searchStart-eq == f.start {
			// The line is nothing but equals signs.
			if eq >= 3 {
				level = min(6, (eq-1)/2)
			}
		} else {
			level = min(eq, f.count)
		}
	}

	if level == 0 {
		return part.collection().nodes
	}
	h := NewHeading(level, s.headingIndex, part.collection())
	s.headingIndex++
	return []Node{h}
}

// open pushes a brace or bracket frame for a run of two or more opening
// characters. Shorter runs are literal.
func (s *scanner) open(c byte) {
	count := span(s.text, c, s.pos, 0)
	if count < 2 {
		s.stack.accum().addText(string(c))
		s.pos++
		return
	}
	kind := braceFrame
	if c == '[' {
		kind = bracketFrame
	}
	s.stack.push(&frame{
		kind:      kind,
		open:      c,
		count:     count,
		lineStart: s.pos > 0 && s.text[s.pos-1] == '\n',
		start:     s.pos,
		parts:     []*piece{newPiece()},
	})
	s.pos += count
}

// close matches a run of closing characters against the frame on top of the
// stack and turns the matched part into a node.
func (s *scanner) close() {
	f := s.stack.top()
	c := f.closeChar()
	count := span(s.text, c, s.pos, f.count)

	matching := 0
	switch f.kind {
	case braceFrame:
		// Three closing braces make an argument, two a template.
		matching = min(count, 3)
		if matching < 2 {
			matching = 0
		}
	case bracketFrame:
		if count >= 2 {
			matching = 2
		}
	}
	if matching == 0 {
		s.stack.accum().addText(strings.Repeat(string(c), count))
		s.pos += count
		return
	}

	// Only a construct that used up every opening character starts the line.
	node := f.build(matching, f.lineStart && f.count == matching)
	s.pos += matching

	s.stack.pop()
	if remaining := f.count - matching; remaining > 0 {
		if remaining >= 2 {
			// The leftover opening characters become a fresh frame with the
			// new node as the first content of its title.
			s.stack.push(&frame{
				kind:      f.kind,
				open:      f.open,
				count:     remaining,
				lineStart: f.lineStart,
				start:     f.start,
				parts:     []*piece{newPiece()},
			})
		} else {
			s.stack.accum().addText(strings.Repeat(string(f.open), remaining))
		}
	}
	s.stack.accum().append(node)
}

// angle handles '<': onlyinclude boundaries, comments and tags.
func (s *scanner) angle() {
	rest := s.text[s.pos:]
	if s.foldOnlyInclude && hasPrefixFold(rest, onlyIncludeClose) {
		s.findOnlyInclude = true
		return
	}
	if strings.HasPrefix(rest, "<!--") {
		s.comment()
		return
	}
	m := s.p.tagPattern.FindStringSubmatch(rest[1:])
	if m == nil {
		s.stack.accum().addText("<")
		s.pos++
		return
	}
	s.tag(m[1])
}

// comment consumes an HTML comment. A line holding nothing but comments and
// blanks is folded into the comment nodes, trailing newline included.
func (s *scanner) comment() {
	part := s.stack.accum()

	end := strings.Index(s.text[s.pos+4:], "-->")
	if end < 0 {
		part.append(&CommentNode{Comment: s.text[s.pos:]})
		s.pos = len(s.text)
		return
	}
	endPos := s.pos + 4 + end

	wsStart := 0
	if s.pos > 0 {
		wsStart = s.pos - spanBack(s.text, " \t", s.pos)
	}
	// wsEnd is the offset of the last blank after the comment, or of its '>'.
	wsEnd := endPos + 2 + spanAny(s.text, " \t", endPos+3)

	// Each run covers a comment and the blanks after it.
	type run struct{ start, end int }
	runs := []run{{wsStart, wsEnd}}
	for strings.HasPrefix(s.text[wsEnd+1:], "<!--") {
		c := strings.Index(s.text[wsEnd+5:], "-->")
		if c < 0 {
			break
		}
		c += wsEnd + 5
		next := c + 2 + spanAny(s.text, " \t", c+3)
		runs = append(runs, run{wsEnd + 1, next})
		wsEnd = next
	}

	startPos, stop := s.pos, endPos+2
	if wsStart > 0 && s.text[wsStart-1] == '\n' && wsEnd+1 < len(s.text) && s.text[wsEnd+1] == '\n' {
		if wsLength := s.pos - wsStart; wsLength > 0 && !part.trimBlankSuffix(wsLength) {
			// The blanks were not emitted as one trailing run; leave them as text.
			runs[0].start = s.pos
		}
		for _, r := range runs[:len(runs)-1] {
			part.append(&CommentNode{Comment: s.text[r.start : r.end+1]})
		}
		last := runs[len(runs)-1]
		startPos, stop = last.start, last.end+1
		s.fakeLineStart = true
	}

	if part.commentEnd != wsStart-1 {
		part.visualEnd = wsStart
	}
	part.commentEnd = stop
	part.append(&CommentNode{Comment: s.text[startPos : stop+1]})
	s.pos = stop + 1
}

// tag consumes a recognized tag starting at the current '<'.
func (s *scanner) tag(name string) {
	lower := strings.ToLower(name)
	attrStart := s.pos + 1 + len(name)

	tagEnd := -1
	if !s.noMoreGT {
		if i := strings.IndexByte(s.text[attrStart:], '>'); i >= 0 {
			tagEnd = attrStart + i
		}
	}
	if tagEnd < 0 {
		s.noMoreGT = true
		s.stack.accum().addText("<")
		s.pos++
		return
	}

	if s.p.ignoredTags[lower] {
		s.stack.accum().append(&IgnoreNode{Value: s.text[s.pos : tagEnd+1]})
		s.pos = tagEnd + 1
		return
	}

	tagStart := s.pos
	node := &TagNode{Name: name}
	if s.text[tagEnd-1] == '/' {
		node.Attributes = s.text[attrStart : tagEnd-1]
		node.SelfClosing = true
		s.pos = tagEnd + 1
	} else {
		node.Attributes = s.text[attrStart:tagEnd]
		bodyStart := tagEnd + 1
		var loc []int
		if closer := s.p.closers[lower]; closer != nil && !s.noMoreClosingTag[lower] {
			loc = closer.FindStringIndex(s.text[bodyStart:])
		}
		switch {
		case loc != nil:
			inner := s.text[bodyStart : bodyStart+loc[0]]
			closeTag := s.text[bodyStart+loc[0] : bodyStart+loc[1]]
			node.Inner, node.Close = &inner, &closeTag
			s.pos = bodyStart + loc[1]
		case s.p.allowMissingEnd[lower]:
			inner := s.text[bodyStart:]
			node.Inner = &inner
			s.pos = len(s.text)
		case s.p.voidTags[lower]:
			s.pos = bodyStart
		default:
			// Without a closing tag the opening tag is plain text.
			s.noMoreClosingTag[lower] = true
			s.stack.accum().addText(s.text[s.pos:bodyStart])
			s.pos = bodyStart
			return
		}
	}

	if s.p.ignoredElements[lower] {
		s.stack.accum().append(&IgnoreNode{Value: s.text[tagStart:s.pos]})
		return
	}
	s.stack.accum().append(node)
}

// finish unwinds the frames left open at the end of input, bottom-up into
// the root. A heading is validated as if its line ended where the next frame
// opened; anything else is broken back into literal text.
func (s *scanner) finish() *NodeCollection {
	frames := s.stack.frames
	root := frames[0].current()
	for i := 1; i < len(frames); i++ {
		f := frames[i]
		if f.kind != headingFrame {
			root.merge(f.breakSyntax())
			continue
		}
		end := s.pos
		if i+1 < len(frames) {
			end = frames[i+1].start
		}
		root.merge(s.closeHeading(f, end))
	}
	clear(frames[1:])
	s.stack.frames = frames[:1]
	return root.collection()
}
