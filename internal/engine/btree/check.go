package btree

import "fmt"

// Check verifies the structural invariants of the tree and panics with a
// description of the first violation. It is a development aid: trees built
// with WithDebugChecks run it after every mutation.
func (t *Tree) Check() {
	if t.root.parent != nil {
		panic("btree: root has a parent")
	}
	if t.root.numLines < 2 {
		panic(fmt.Sprintf("btree: tree has %d lines, need at least 2", t.root.numLines))
	}
	t.checkNode(t.root)

	// Line links must match tree order.
	count := 0
	var prev *Line
	for l := t.first; l != nil; prev, l = l, l.next {
		if l.prev != prev {
			panic(fmt.Sprintf("btree: line %d has a bad prev link", count))
		}
		if got := LineIndex(l); got != count {
			panic(fmt.Sprintf("btree: line %d reports index %d", count, got))
		}
		count++
	}
	if prev != t.last {
		panic("btree: last line pointer is stale")
	}
	if count != t.root.numLines {
		panic(fmt.Sprintf("btree: %d linked lines, root counts %d", count, t.root.numLines))
	}

	// The dummy line holds only zero-size segments and a single newline.
	var chars *Segment
	for s := t.last.segs; s != nil; s = s.next {
		if s.kind == CharSegment {
			if chars != nil {
				panic("btree: last line has more than one character segment")
			}
			chars = s
		}
	}
	if chars == nil || chars.text != "\n" || chars.next != nil {
		panic("btree: last line must end with a lone newline")
	}

	// Toggles alternate on/off per tag, starting with on.
	open := make(map[*Tag]bool)
	totals := make(map[*Tag]int)
	for l := t.first; l != nil; l = l.next {
		for s := l.segs; s != nil; s = s.next {
			if !s.IsToggle() {
				continue
			}
			totals[s.tag]++
			on := s.kind == ToggleOnSegment
			if open[s.tag] == on {
				panic(fmt.Sprintf("btree: tag %q has two consecutive %s toggles", s.tag.Name, s.kind))
			}
			open[s.tag] = on
		}
	}
	for tag, count := range totals {
		if tag.toggles != count {
			panic(fmt.Sprintf("btree: tag %q counts %d toggles, found %d", tag.Name, tag.toggles, count))
		}
		if count&1 != 0 {
			panic(fmt.Sprintf("btree: tag %q has an odd number of toggles", tag.Name))
		}
	}
}

func (t *Tree) checkNode(n *node) {
	if n != t.root {
		if c := n.numChildren(); c < minChildren || c > maxChildren {
			panic(fmt.Sprintf("btree: node has %d children", c))
		}
	}

	summary := make(map[*Tag]int)
	lines := 0
	if n.level == 0 {
		if len(n.children) != 0 {
			panic("btree: leaf node has child nodes")
		}
		for _, l := range n.lines {
			if l.parent != n {
				panic("btree: line has wrong parent")
			}
			t.checkLine(l)
			lines++
			for s := l.segs; s != nil; s = s.next {
				if s.IsToggle() {
					summary[s.tag]++
				}
			}
		}
	} else {
		if len(n.lines) != 0 {
			panic("btree: interior node holds lines")
		}
		for _, c := range n.children {
			if c.parent != n {
				panic("btree: node has wrong parent")
			}
			if c.level != n.level-1 {
				panic(fmt.Sprintf("btree: level %d node has level %d child", n.level, c.level))
			}
			t.checkNode(c)
			lines += c.numLines
			for tag, count := range c.summary {
				summary[tag] += count
			}
		}
	}

	if lines != n.numLines {
		panic(fmt.Sprintf("btree: node counts %d lines, has %d", n.numLines, lines))
	}
	if len(summary) != len(n.summary) {
		panic("btree: node summary has stale tags")
	}
	for tag, count := range summary {
		if n.summary[tag] != count {
			panic(fmt.Sprintf("btree: node summary for %q is %d, want %d", tag.Name, n.summary[tag], count))
		}
	}
}

func (t *Tree) checkLine(l *Line) {
	if l.segs == nil {
		panic("btree: empty line")
	}
	var last *Segment
	for s := l.segs; s != nil; s = s.next {
		switch s.kind {
		case CharSegment:
			if s.size <= 0 {
				panic("btree: character segment with no characters")
			}
			if n := s.next; n != nil && n.kind == CharSegment {
				panic("btree: adjacent character segments were not merged")
			}
			for i, r := range s.text {
				if r == '\n' && i != len(s.text)-1 {
					panic("btree: newline in the middle of a segment")
				}
			}
		case ToggleOnSegment, ToggleOffSegment:
			if s.size != 0 || s.tag == nil {
				panic("btree: malformed toggle segment")
			}
		case RightMarkSegment, LeftMarkSegment:
			if s.size != 0 || s.mark == nil {
				panic("btree: malformed mark segment")
			}
			if s.mark.seg != s {
				panic(fmt.Sprintf("btree: mark %q does not point back to its segment", s.mark.Name))
			}
			if s.mark.line != l {
				panic(fmt.Sprintf("btree: mark %q has a stale line", s.mark.Name))
			}
		default:
			panic("btree: unknown segment kind")
		}
		last = s
	}
	if last.kind != CharSegment || last.text[len(last.text)-1] != '\n' {
		panic("btree: line does not end with a newline")
	}
}
