package btree

import "strings"

// splitSeg makes sure a segment boundary exists at idx and returns the
// segment just before it, or nil if the boundary is at the start of the
// line. Zero-size segments with left gravity at idx stay before the
// boundary; all others end up after it.
func (t *Tree) splitSeg(idx Index) *Segment {
	var prev *Segment
	count := idx.Char
	for s := idx.Line.segs; s != nil; prev, s = s, s.next {
		if s.size > count {
			if count == 0 {
				return prev
			}
			s.split(count)
			return s
		}
		if s.size == 0 && count == 0 && !s.leftGravity() {
			return prev
		}
		count -= s.size
	}
	panic("btree: index past end of line")
}

// cleanupLine merges adjacent character segments, cancels toggle pairs that
// enclose nothing and updates mark back-references.
func (t *Tree) cleanupLine(l *Line) {
	for changed := true; changed; {
		changed = false
		for pp := &l.segs; *pp != nil; pp = &(*pp).next {
			s := *pp
			r := t.cleanupSeg(s, l)
			if r != s {
				*pp = r
				changed = true
				if r == nil {
					break
				}
			}
		}
	}
}

// cleanupSeg applies the per-variant cleanup to s and returns the segment
// that should take its place in the chain.
func (t *Tree) cleanupSeg(s *Segment, l *Line) *Segment {
	switch s.kind {
	case CharSegment:
		if n := s.next; n != nil && n.kind == CharSegment {
			merged := &Segment{
				kind: CharSegment,
				next: n.next,
				size: s.size + n.size,
				text: s.text + n.text,
			}
			return merged
		}
	case ToggleOnSegment, ToggleOffSegment:
		want := ToggleOnSegment
		if s.kind == ToggleOnSegment {
			want = ToggleOffSegment
		}
		for prev, s2 := s, s.next; s2 != nil && s2.size == 0; prev, s2 = s2, s2.next {
			if s2.kind != want || s2.tag != s.tag {
				continue
			}
			prev.next = s2.next
			t.changeToggleCount(l.parent, s.tag, -2)
			return s.next
		}
	case RightMarkSegment, LeftMarkSegment:
		s.mark.line = l
	}
	return s
}

// InsertChars inserts text immediately before idx. Newlines in text split
// the line. Insertion on the dummy last line is redirected to just before
// the final newline of the text.
func (t *Tree) InsertChars(idx Index, text string) {
	if text == "" {
		return
	}
	if idx.Line == t.last {
		idx = idx.BackwardChars(1)
	}

	prev := t.splitSeg(idx)
	line := idx.Line
	cur := prev
	for text != "" {
		chunk := text
		eol := strings.IndexByte(text, '\n')
		if eol >= 0 {
			chunk = text[:eol+1]
		}
		text = text[len(chunk):]

		seg := newCharSegment(chunk)
		if cur == nil {
			seg.next = line.segs
			line.segs = seg
		} else {
			seg.next = cur.next
			cur.next = seg
		}
		if eol < 0 {
			break
		}

		// The chunk ended with a newline: move the rest of the line to a new
		// line after it.
		nl := &Line{segs: seg.next}
		seg.next = nil
		t.insertLineAfter(line, nl)
		line = nl
		cur = nil
	}

	t.cleanupLine(idx.Line)
	if line != idx.Line {
		t.cleanupLine(line)
	}
	t.afterMutation()
}

// DeleteChars deletes the characters in [i1, i2). Marks and toggles inside
// the range are moved to i1. The final newline of the text is never
// deleted: if i2 is on the dummy last line both ends are pulled back one
// character and any tags on the surviving newline are removed.
func (t *Tree) DeleteChars(i1, i2 Index) {
	if Compare(i1, i2) >= 0 {
		return
	}
	if i2.Line == t.last {
		old2 := i2
		i1, i2 = t.ClampDelete(i1, i2)
		for _, tag := range t.GetTags(i2) {
			t.TagRange(i2, old2, tag, false)
		}
		if Compare(i1, i2) >= 0 {
			t.afterMutation()
			return
		}
	}
	t.deleteRange(i1, i2)
	t.afterMutation()
}

// ClampDelete returns the range DeleteChars removes when asked to delete
// [i1, i2).
func (t *Tree) ClampDelete(i1, i2 Index) (Index, Index) {
	if i2.Line == t.last {
		i2 = i2.BackwardChars(1)
		if i1.Char == 0 && i1.Line != t.first {
			i1 = i1.BackwardChars(1)
		}
	}
	return i1, i2
}

func (t *Tree) deleteRange(i1, i2 Index) {
	line1, line2 := i1.Line, i2.Line

	// Split at i2 first; the split at i1 cannot disturb it.
	last := t.splitSeg(i2)
	if last != nil {
		last = last.next
	} else {
		last = line2.segs
	}
	prev := t.splitSeg(i1)

	var seg *Segment
	tail := last
	if line1 != line2 {
		tail = nil
	}
	if prev != nil {
		seg = prev.next
		prev.next = tail
	} else {
		seg = line1.segs
		line1.segs = tail
	}

	var doomed []*Line
	cur := line1
	for seg != last {
		if seg == nil {
			if cur != line1 {
				doomed = append(doomed, cur)
			}
			cur = cur.next
			seg = cur.segs
			continue
		}
		next := seg.next
		if seg.survivesDelete() {
			if prev == nil {
				seg.next = line1.segs
				line1.segs = seg
			} else {
				seg.next = prev.next
				prev.next = seg
			}
			if seg.IsToggle() && cur != line1 {
				t.changeToggleCount(cur.parent, seg.tag, -1)
				t.changeToggleCount(line1.parent, seg.tag, 1)
			}
			if seg.leftGravity() {
				prev = seg
			}
		}
		seg = next
	}

	if line1 != line2 {
		// Join what is left of line2 onto line1.
		end := line1.segs
		if end == nil {
			line1.segs = last
		} else {
			for end.next != nil {
				end = end.next
			}
			end.next = last
		}
		for s := last; s != nil; s = s.next {
			if s.IsToggle() {
				t.changeToggleCount(line2.parent, s.tag, -1)
				t.changeToggleCount(line1.parent, s.tag, 1)
			}
		}
		line2.segs = nil
		for _, l := range doomed {
			l.segs = nil
		}
		for _, l := range doomed {
			t.removeLine(l)
		}
		t.removeLine(line2)
	}

	t.cleanupLine(line1)
}
