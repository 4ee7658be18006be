package btree

import "strings"

// Text returns the characters in [i1, i2).
func (t *Tree) Text(i1, i2 Index) string {
	if Compare(i1, i2) >= 0 {
		return ""
	}
	var sb strings.Builder
	t.Walk(i1, i2, func(_ Index, s *Segment, from, to int) bool {
		if s.kind == CharSegment {
			sb.WriteString(s.text[byteOffset(s.text, from):byteOffset(s.text, to)])
		}
		return true
	})
	return sb.String()
}

// WalkFunc receives each segment overlapping a walked range together with
// the index of its first visited character. For character segments from
// and to bound the visited characters within the segment; zero-size
// segments get 0, 0. Returning false stops the walk.
type WalkFunc func(idx Index, seg *Segment, from, to int) bool

// Walk visits the segments of [i1, i2) in document order. Zero-size
// segments at i1 are visited, those at i2 are not.
func (t *Tree) Walk(i1, i2 Index, fn WalkFunc) {
	if Compare(i1, i2) >= 0 {
		return
	}
	idx := Index{Tree: t, Line: i1.Line}
	for {
		offset := 0
		for s := idx.Line.segs; s != nil; s = s.next {
			start, end := offset, offset+s.size
			offset = end
			if idx.Line == i1.Line && (end < i1.Char || (s.size > 0 && end == i1.Char)) {
				continue
			}
			if idx.Line == i2.Line && start >= i2.Char {
				return
			}
			from, to := 0, s.size
			if idx.Line == i1.Line && i1.Char > start {
				from = i1.Char - start
			}
			if idx.Line == i2.Line && i2.Char < end {
				to = i2.Char - start
			}
			idx.Char = start + from
			if !fn(idx, s, from, to) {
				return
			}
		}
		if idx.Line == i2.Line || idx.Line.next == nil {
			return
		}
		idx.Line = idx.Line.next
		idx.Char = 0
	}
}
