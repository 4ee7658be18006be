// Package btree stores the contents of a text widget.
//
// The document is a sequence of lines kept in a balanced tree whose nodes are
// augmented with line counts and per-tag toggle counts. Each line owns a
// singly linked chain of segments: character runs, tag toggles and marks.
// Every line ends with a newline character, and the tree always ends with an
// extra dummy line that holds nothing but that newline; NumLines does not
// count it and the index "end" refers to its start.
//
// Positions are expressed as Index values (line plus character offset). An
// Index is only valid until the next structural change to the tree.
package btree

import (
	"strings"
)

// Node fan-out limits. A node other than the root always has between
// minChildren and maxChildren children.
const (
	minChildren = 6
	maxChildren = 12
)

// Line is one line of text: a chain of segments ending with a newline.
type Line struct {
	parent *node
	prev   *Line
	next   *Line
	segs   *Segment
}

// Segments returns the first segment of the line.
func (l *Line) Segments() *Segment {
	return l.segs
}

// Next returns the following line, or nil for the dummy last line.
func (l *Line) Next() *Line {
	return l.next
}

// Prev returns the preceding line, or nil for the first line.
func (l *Line) Prev() *Line {
	return l.prev
}

// Len returns the number of characters in the line, newline included.
func (l *Line) Len() int {
	n := 0
	for s := l.segs; s != nil; s = s.next {
		n += s.size
	}
	return n
}

// Text returns the characters of the line, newline included.
func (l *Line) Text() string {
	var sb strings.Builder
	for s := l.segs; s != nil; s = s.next {
		if s.kind == CharSegment {
			sb.WriteString(s.text)
		}
	}
	return sb.String()
}

// node is an interior or leaf node of the tree. Level 0 nodes hold lines,
// higher levels hold nodes.
type node struct {
	parent   *node
	level    int
	children []*node
	lines    []*Line
	numLines int

	// summary counts the toggle segments in this subtree, per tag. Tags
	// with no toggles have no entry.
	summary map[*Tag]int
}

func (n *node) numChildren() int {
	if n.level == 0 {
		return len(n.lines)
	}
	return len(n.children)
}

// recompute rebuilds numLines, summary and parent pointers from the node's
// children.
func (n *node) recompute() {
	n.numLines = 0
	n.summary = make(map[*Tag]int)
	if n.level == 0 {
		for _, l := range n.lines {
			l.parent = n
			n.numLines++
			for s := l.segs; s != nil; s = s.next {
				if s.IsToggle() {
					n.summary[s.tag]++
				}
			}
		}
		return
	}
	for _, c := range n.children {
		c.parent = n
		n.numLines += c.numLines
		for tag, count := range c.summary {
			n.summary[tag] += count
		}
	}
}

// indexOf returns the position of child c in n.children.
func (n *node) indexOf(c *node) int {
	for i, child := range n.children {
		if child == c {
			return i
		}
	}
	panic("btree: node not found in parent")
}

func (n *node) lineIndexOf(l *Line) int {
	for i, line := range n.lines {
		if line == l {
			return i
		}
	}
	panic("btree: line not found in parent")
}

// Tree is the line tree of one text widget.
type Tree struct {
	root  *node
	first *Line
	last  *Line

	debug bool
}

// Option configures a Tree.
type Option func(*Tree)

// WithDebugChecks makes the tree run Check after every mutation.
func WithDebugChecks() Option {
	return func(t *Tree) {
		t.debug = true
	}
}

// New returns a tree holding one empty line followed by the dummy last line.
func New(opts ...Option) *Tree {
	first := &Line{}
	first.segs = newCharSegment("\n")
	last := &Line{}
	last.segs = newCharSegment("\n")
	first.next = last
	last.prev = first

	root := &node{lines: []*Line{first, last}}
	root.recompute()

	t := &Tree{root: root, first: first, last: last}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NumLines returns the number of lines, not counting the dummy last line.
func (t *Tree) NumLines() int {
	return t.root.numLines - 1
}

// FirstLine returns the first line of the document.
func (t *Tree) FirstLine() *Line {
	return t.first
}

// FindLine returns the line with the given 0-based number. Numbers past the
// end return the dummy last line; negative numbers return the first line.
func (t *Tree) FindLine(n int) *Line {
	if n <= 0 {
		return t.first
	}
	if n >= t.root.numLines {
		return t.last
	}

	nd := t.root
	for nd.level > 0 {
		for _, c := range nd.children {
			if n < c.numLines {
				nd = c
				break
			}
			n -= c.numLines
		}
	}
	return nd.lines[n]
}

// LineIndex returns the 0-based number of line l.
func (t *Tree) LineIndex(l *Line) int {
	return LineIndex(l)
}

// LineIndex returns the 0-based number of line l.
func LineIndex(l *Line) int {
	nd := l.parent
	index := nd.lineIndexOf(l)
	for parent := nd.parent; parent != nil; nd, parent = parent, parent.parent {
		for _, c := range parent.children {
			if c == nd {
				break
			}
			index += c.numLines
		}
	}
	return index
}

// changeToggleCount adjusts the toggle count for tag in n and all of its
// ancestors.
func (t *Tree) changeToggleCount(n *node, tag *Tag, delta int) {
	tag.toggles += delta
	for ; n != nil; n = n.parent {
		c := n.summary[tag] + delta
		if c == 0 {
			delete(n.summary, tag)
		} else {
			n.summary[tag] = c
		}
	}
}

// insertLineAfter links nl into the tree immediately after prev.
func (t *Tree) insertLineAfter(prev, nl *Line) {
	parent := prev.parent
	pos := parent.lineIndexOf(prev) + 1
	parent.lines = append(parent.lines, nil)
	copy(parent.lines[pos+1:], parent.lines[pos:])
	parent.lines[pos] = nl
	nl.parent = parent

	nl.prev = prev
	nl.next = prev.next
	if prev.next != nil {
		prev.next.prev = nl
	}
	prev.next = nl
	if t.last == prev {
		t.last = nl
	}

	for n := parent; n != nil; n = n.parent {
		n.numLines++
	}
	t.rebalance(parent)
}

// removeLine unlinks l from the tree. Any toggles still on l must already
// have been removed from the node counts.
func (t *Tree) removeLine(l *Line) {
	parent := l.parent
	pos := parent.lineIndexOf(l)
	parent.lines = append(parent.lines[:pos], parent.lines[pos+1:]...)

	if l.prev != nil {
		l.prev.next = l.next
	} else {
		t.first = l.next
	}
	if l.next != nil {
		l.next.prev = l.prev
	} else {
		t.last = l.prev
	}
	l.prev, l.next, l.parent = nil, nil, nil

	for n := parent; n != nil; n = n.parent {
		n.numLines--
	}
	t.rebalance(parent)
}

// rebalance restores the fan-out limits for n and its ancestors, splitting
// overfull nodes and merging or redistributing underfull ones.
func (t *Tree) rebalance(n *node) {
	for ; n != nil; n = n.parent {
		if n.numChildren() > maxChildren {
			for {
				if n.parent == nil {
					root := &node{level: n.level + 1, children: []*node{n}}
					root.recompute()
					t.root = root
				}
				sibling := &node{level: n.level}
				if n.level == 0 {
					sibling.lines = append([]*Line(nil), n.lines[minChildren:]...)
					n.lines = n.lines[:minChildren:minChildren]
				} else {
					sibling.children = append([]*node(nil), n.children[minChildren:]...)
					n.children = n.children[:minChildren:minChildren]
				}
				n.recompute()

				parent := n.parent
				pos := parent.indexOf(n) + 1
				parent.children = append(parent.children, nil)
				copy(parent.children[pos+1:], parent.children[pos:])
				parent.children[pos] = sibling
				sibling.parent = parent

				n = sibling
				if n.numChildren() <= maxChildren {
					n.recompute()
					break
				}
			}
		}

		for n.numChildren() < minChildren {
			parent := n.parent
			if parent == nil {
				if n.numChildren() == 1 && n.level > 0 {
					t.root = n.children[0]
					t.root.parent = nil
				}
				return
			}
			if len(parent.children) < 2 {
				t.rebalance(parent)
				continue
			}

			// Make n the earlier of n and a neighboring sibling.
			pos := parent.indexOf(n)
			if pos == len(parent.children)-1 {
				pos--
				n = parent.children[pos]
			}
			other := parent.children[pos+1]

			total := n.numChildren() + other.numChildren()
			if total <= maxChildren {
				if n.level == 0 {
					n.lines = append(n.lines, other.lines...)
				} else {
					n.children = append(n.children, other.children...)
				}
				n.recompute()
				parent.children = append(parent.children[:pos+1], parent.children[pos+2:]...)
				continue
			}

			first := total / 2
			if n.level == 0 {
				all := append(append([]*Line(nil), n.lines...), other.lines...)
				n.lines = append([]*Line(nil), all[:first]...)
				other.lines = append([]*Line(nil), all[first:]...)
			} else {
				all := append(append([]*node(nil), n.children...), other.children...)
				n.children = append([]*node(nil), all[:first]...)
				other.children = append([]*node(nil), all[first:]...)
			}
			n.recompute()
			other.recompute()
		}
	}
}

// Depth returns the height of the tree; a tree with a single leaf node has
// depth 1.
func (t *Tree) Depth() int {
	return t.root.level + 1
}

func (t *Tree) afterMutation() {
	if t.debug {
		t.Check()
	}
}
