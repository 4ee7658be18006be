package btree

// TagSearch walks the toggle segments for one tag, or for all tags, between
// two indices. A search is invalidated by any change to the tree; start a
// new one after editing.
type TagSearch struct {
	// Index is the position of the current toggle.
	Index Index
	// Segment is the current toggle.
	Segment *Segment
	// Tag is the tag of the current toggle.
	Tag *Tag

	next      *Segment
	last      *Segment
	linesLeft int
	allTags   bool
	done      bool
}

// StartSearch prepares a forward search for toggles of tag in the range
// from i1 up to i2. Toggles sitting exactly at i1 are skipped; those at i2
// are reported. A nil tag searches for toggles of every tag.
func (t *Tree) StartSearch(i1, i2 Index, tag *Tag) *TagSearch {
	s := &TagSearch{Tag: tag, allTags: tag == nil}
	if Compare(i1, i2) > 0 {
		s.done = true
		return s
	}

	seg, offset := i1.ToSegment()
	s.Index = i1
	s.Index.Char -= offset
	s.next = seg
	s.last, _ = i2.ToSegment()
	s.linesLeft = i2.LineNumber() + 1 - i1.LineNumber()

	if s.linesLeft == 1 {
		// Same line: the search is empty if the stop segment comes first.
		found := false
		for p := s.next; p != nil; p = p.next {
			if p == s.last {
				found = true
				break
			}
		}
		if !found {
			s.done = true
		}
	}
	return s
}

func (s *TagSearch) matches(seg *Segment) bool {
	if !seg.IsToggle() {
		return false
	}
	return s.allTags || seg.tag == s.Tag
}

func (s *TagSearch) relevant(n *node) bool {
	if s.allTags {
		return len(n.summary) > 0
	}
	return n.summary[s.Tag] > 0
}

// Next advances to the next toggle. It returns false when the range is
// exhausted.
func (s *TagSearch) Next() bool {
	if s.done {
		return false
	}
	for {
		for s.next != nil {
			seg := s.next
			if s.linesLeft == 1 && seg == s.last {
				return s.finish()
			}
			s.next = seg.next
			if s.matches(seg) {
				s.Segment = seg
				if s.allTags {
					s.Tag = seg.tag
				}
				return true
			}
			s.Index.Char += seg.size
		}

		if s.linesLeft <= 1 {
			return s.finish()
		}

		// Move to the next line of the same leaf if there is one.
		line := s.Index.Line
		leaf := line.parent
		if pos := leaf.lineIndexOf(line); pos+1 < len(leaf.lines) {
			s.linesLeft--
			s.startLine(leaf.lines[pos+1])
			continue
		}

		// Climb until a later sibling subtree holds a relevant toggle, then
		// descend to its first leaf that does.
		n := leaf
		for {
			for n.parent != nil && n.parent.indexOf(n) == len(n.parent.children)-1 {
				n = n.parent
			}
			if n.parent == nil {
				return s.finish()
			}
			n = n.parent.children[n.parent.indexOf(n)+1]
			if s.relevant(n) {
				break
			}
			s.linesLeft -= n.numLines
			if s.linesLeft <= 0 {
				return s.finish()
			}
		}
		for n.level > 0 {
			var child *node
			for _, c := range n.children {
				if s.relevant(c) {
					child = c
					break
				}
				s.linesLeft -= c.numLines
			}
			if child == nil {
				panic("btree: toggle summary without matching child")
			}
			n = child
		}
		s.linesLeft--
		if s.linesLeft <= 0 {
			return s.finish()
		}
		s.startLine(n.lines[0])
	}
}

func (s *TagSearch) startLine(l *Line) {
	s.Index.Line = l
	s.Index.Char = 0
	s.next = l.segs
}

func (s *TagSearch) finish() bool {
	s.done = true
	s.Segment = nil
	return false
}

// TagSearchBack walks toggle segments backward from one index toward an
// earlier one.
type TagSearchBack struct {
	Index   Index
	Segment *Segment
	Tag     *Tag

	stop    Index
	pending []*Segment
	offsets []int
	line    *Line
	allTags bool
	done    bool
}

// StartSearchBack prepares a backward search for toggles of tag strictly
// before from and at or after stop. A nil tag matches every tag.
func (t *Tree) StartSearchBack(from, stop Index, tag *Tag) *TagSearchBack {
	s := &TagSearchBack{Tag: tag, stop: stop, allTags: tag == nil}
	if Compare(from, stop) < 0 {
		s.done = true
		return s
	}
	s.Index = from
	s.loadLine(from.Line, from.Char)
	return s
}

func (s *TagSearchBack) matches(seg *Segment) bool {
	if !seg.IsToggle() {
		return false
	}
	return s.allTags || seg.tag == s.Tag
}

// loadLine collects the matching toggles on l that lie strictly before
// limit, or all of them when limit is negative.
func (s *TagSearchBack) loadLine(l *Line, limit int) {
	s.line = l
	s.pending = s.pending[:0]
	s.offsets = s.offsets[:0]
	offset := 0
	for seg := l.segs; seg != nil; seg = seg.next {
		if limit >= 0 && offset >= limit {
			break
		}
		if s.matches(seg) {
			s.pending = append(s.pending, seg)
			s.offsets = append(s.offsets, offset)
		}
		offset += seg.size
	}
}

// Prev moves to the previous toggle. It returns false when the search has
// passed the stop index.
func (s *TagSearchBack) Prev() bool {
	if s.done {
		return false
	}
	for {
		if n := len(s.pending); n > 0 {
			seg, offset := s.pending[n-1], s.offsets[n-1]
			s.pending, s.offsets = s.pending[:n-1], s.offsets[:n-1]
			idx := Index{Tree: s.stop.Tree, Line: s.line, Char: offset}
			if Compare(idx, s.stop) < 0 {
				s.done = true
				return false
			}
			s.Index = idx
			s.Segment = seg
			if s.allTags {
				s.Tag = seg.tag
			}
			return true
		}

		if s.line == s.stop.Line {
			s.done = true
			return false
		}
		prev := s.line.prev
		// Skip whole leaves with no relevant toggles.
		for prev != nil && prev != s.stop.Line && !s.leafRelevant(prev.parent) {
			first := prev.parent.lines[0]
			if LineIndex(first) <= LineIndex(s.stop.Line) {
				break
			}
			prev = first.prev
		}
		if prev == nil {
			s.done = true
			return false
		}
		s.loadLine(prev, -1)
	}
}

func (s *TagSearchBack) leafRelevant(n *node) bool {
	if s.allTags {
		return len(n.summary) > 0
	}
	return n.summary[s.Tag] > 0
}
