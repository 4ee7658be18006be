package btree

import "github.com/dshills/cktext/internal/engine/uid"

// NewMark returns a mark that is not yet linked into any line.
func NewMark(name uid.UID, gravity Gravity) *Mark {
	m := &Mark{Name: name}
	m.seg = &Segment{kind: markKind(gravity), mark: m}
	return m
}

func markKind(g Gravity) SegmentKind {
	if g == GravityLeft {
		return LeftMarkSegment
	}
	return RightMarkSegment
}

// Linked reports whether the mark currently sits in a line.
func (m *Mark) Linked() bool {
	return m.line != nil
}

// PlaceMark links m at idx, unlinking it from its old position first.
func (t *Tree) PlaceMark(m *Mark, idx Index) {
	if m.line != nil {
		t.UnlinkMark(m)
	}
	prev := t.splitSeg(idx)
	t.linkAfter(idx.Line, prev, m.seg)
	m.line = idx.Line
	t.cleanupLine(idx.Line)
	t.afterMutation()
}

// UnlinkMark removes m from its line. The mark can be placed again later.
func (t *Tree) UnlinkMark(m *Mark) {
	if m.line == nil {
		return
	}
	l := m.line
	t.unlink(l, m.seg)
	m.line = nil
	t.cleanupLine(l)
}

// MarkIndex returns the current position of m, which must be linked.
func (t *Tree) MarkIndex(m *Mark) Index {
	idx := Index{Tree: t, Line: m.line}
	for s := m.line.segs; s != m.seg; s = s.next {
		idx.Char += s.size
	}
	return idx
}

// SetMarkGravity changes which side of inserted text m stays on. The mark
// keeps its position; its segment is replaced by one of the other variant.
func (t *Tree) SetMarkGravity(m *Mark, g Gravity) {
	kind := markKind(g)
	if m.seg.kind == kind {
		return
	}
	if m.line == nil {
		m.seg.kind = kind
		return
	}
	idx := t.MarkIndex(m)
	t.UnlinkMark(m)
	m.seg = &Segment{kind: kind, mark: m}
	t.PlaceMark(m, idx)
}
