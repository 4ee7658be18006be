package btree

import "sort"

// TagRange adds tag to (add true) or removes it from (add false) the
// characters in [i1, i2). It returns true if the tree changed. Toggles for
// the same tag always alternate on/off in document order afterwards.
func (t *Tree) TagRange(i1, i2 Index, tag *Tag, add bool) bool {
	if Compare(i1, i2) >= 0 {
		return false
	}

	changed := false
	state := t.CharTagged(i1, tag)
	if add != state {
		seg := newToggleSegment(tag, add)
		t.linkAfter(i1.Line, t.splitSeg(i1), seg)
		t.changeToggleCount(i1.Line.parent, tag, 1)
		changed = true
	}

	// Remove the toggles inside the range, tracking the state at i2.
	search := t.StartSearch(i1, i2, tag)
	cleanup := []*Line{i1.Line}
	for search.Next() {
		changed = true
		state = !state
		line := search.Index.Line
		t.unlink(line, search.Segment)
		t.changeToggleCount(line.parent, tag, -1)
		if cleanup[len(cleanup)-1] != line {
			cleanup = append(cleanup, line)
		}
	}

	if add != state {
		seg := newToggleSegment(tag, !add)
		t.linkAfter(i2.Line, t.splitSeg(i2), seg)
		t.changeToggleCount(i2.Line.parent, tag, 1)
		changed = true
	}
	if cleanup[len(cleanup)-1] != i2.Line {
		cleanup = append(cleanup, i2.Line)
	}
	for _, l := range cleanup {
		t.cleanupLine(l)
	}

	t.afterMutation()
	return changed
}

// RemoveTag strips every toggle for tag from the tree.
func (t *Tree) RemoveTag(tag *Tag) {
	if tag.toggles == 0 {
		return
	}
	t.TagRange(t.Start(), t.End(), tag, false)
}

// linkAfter links seg into l after prev, or at the head when prev is nil.
func (t *Tree) linkAfter(l *Line, prev, seg *Segment) {
	if prev == nil {
		seg.next = l.segs
		l.segs = seg
		return
	}
	seg.next = prev.next
	prev.next = seg
}

// unlink removes seg from l's chain.
func (t *Tree) unlink(l *Line, seg *Segment) {
	if l.segs == seg {
		l.segs = seg.next
		seg.next = nil
		return
	}
	for s := l.segs; s != nil; s = s.next {
		if s.next == seg {
			s.next = seg.next
			seg.next = nil
			return
		}
	}
	panic("btree: segment not found in line")
}

// CharTagged reports whether the character at idx carries tag.
func (t *Tree) CharTagged(idx Index, tag *Tag) bool {
	if tag.toggles == 0 {
		return false
	}

	// The last toggle before idx on its own line decides.
	var toggle *Segment
	offset := 0
	for s := idx.Line.segs; s != nil && offset+s.size <= idx.Char; s = s.next {
		if s.IsToggle() && s.tag == tag {
			toggle = s
		}
		offset += s.size
	}
	if toggle != nil {
		return toggle.kind == ToggleOnSegment
	}

	// Then the last toggle on an earlier line of the same leaf.
	leaf := idx.Line.parent
	for pos := leaf.lineIndexOf(idx.Line) - 1; pos >= 0; pos-- {
		for s := leaf.lines[pos].segs; s != nil; s = s.next {
			if s.IsToggle() && s.tag == tag {
				toggle = s
			}
		}
		if toggle != nil {
			return toggle.kind == ToggleOnSegment
		}
	}

	// Otherwise count the toggles in every subtree to the left; an odd
	// count means a range is open.
	toggles := 0
	for n := leaf; n.parent != nil; n = n.parent {
		for _, sibling := range n.parent.children {
			if sibling == n {
				break
			}
			toggles += sibling.summary[tag]
		}
	}
	return toggles&1 == 1
}

// GetTags returns the tags on the character at idx, ordered by increasing
// priority.
func (t *Tree) GetTags(idx Index) []*Tag {
	open := make(map[*Tag]bool)
	flip := func(tag *Tag) {
		if open[tag] {
			delete(open, tag)
		} else {
			open[tag] = true
		}
	}

	offset := 0
	for s := idx.Line.segs; s != nil && offset+s.size <= idx.Char; s = s.next {
		if s.IsToggle() {
			flip(s.tag)
		}
		offset += s.size
	}

	leaf := idx.Line.parent
	for _, l := range leaf.lines {
		if l == idx.Line {
			break
		}
		for s := l.segs; s != nil; s = s.next {
			if s.IsToggle() {
				flip(s.tag)
			}
		}
	}

	for n := leaf; n.parent != nil; n = n.parent {
		for _, sibling := range n.parent.children {
			if sibling == n {
				break
			}
			for tag, count := range sibling.summary {
				if count&1 == 1 {
					flip(tag)
				}
			}
		}
	}

	tags := make([]*Tag, 0, len(open))
	for tag := range open {
		tags = append(tags, tag)
	}
	SortTags(tags)
	return tags
}

// SortTags orders tags by increasing priority.
func SortTags(tags []*Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Priority < tags[j].Priority
	})
}
