package engine

import (
	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/tags"
)

// ============================================================================
// Tags
// ============================================================================

// Range is a half-open range of tagged characters.
type Range struct {
	Start Index
	End   Index
}

// TagAdd applies the tag called name to [i1, i2), creating the tag if
// needed.
func (t *Text) TagAdd(name string, i1, i2 Index) {
	t.tagRange(name, i1, i2, true)
}

// TagRemove removes the tag called name from [i1, i2).
func (t *Text) TagRemove(name string, i1, i2 Index) {
	t.tagRange(name, i1, i2, false)
}

func (t *Text) tagRange(name string, i1, i2 Index, add bool) {
	tag := t.tags.Create(name)
	if !t.tree.TagRange(i1, i2, tag.Node(), add) {
		return
	}
	t.changed(i1, i2)
	t.requestRepick()
}

// TagConfigure replaces the whole display style of the tag called name,
// creating the tag if needed. Callers that change one attribute start
// from TagStyle.
func (t *Text) TagConfigure(name string, style Style) {
	tag := t.tags.Create(name)
	t.tags.Configure(tag, style)
	t.tagChanged(tag)
}

// TagStyle returns the display attributes of the tag called name.
func (t *Text) TagStyle(name string) (Style, error) {
	tag, err := t.tags.Get(name)
	if err != nil {
		return Style{}, err
	}
	return tag.Style(), nil
}

// TagNames returns all tag names in increasing priority.
func (t *Text) TagNames() []string {
	return t.tags.Names()
}

// TagsAt returns the names of the tags on the character at idx in
// increasing priority.
func (t *Text) TagsAt(idx Index) []string {
	var names []string
	for _, tag := range t.tags.At(idx) {
		names = append(names, tag.Name())
	}
	return names
}

// TagRanges returns every range of the tag called name. Unknown tags have
// no ranges.
func (t *Text) TagRanges(name string) []Range {
	tag, ok := t.tags.Lookup(name)
	if !ok {
		return nil
	}
	return t.ranges(tag.Node(), t.tree.Start(), t.tree.End())
}

func (t *Text) ranges(tag *btree.Tag, i1, i2 Index) []Range {
	var out []Range
	var open Index
	inside := false
	if t.tree.CharTagged(i1, tag) {
		open, inside = i1, true
	}
	s := t.tree.StartSearch(i1, i2, tag)
	for s.Next() {
		if s.Segment.Kind() == btree.ToggleOnSegment {
			if btree.Compare(s.Index, i2) >= 0 {
				break
			}
			open, inside = s.Index, true
			continue
		}
		if inside {
			out = append(out, Range{Start: open, End: s.Index})
			inside = false
		}
	}
	if inside {
		out = append(out, Range{Start: open, End: i2})
	}
	return out
}

// rangeEnd returns the end of the tagged range containing start.
func (t *Text) rangeEnd(tag *btree.Tag, start Index) Index {
	s := t.tree.StartSearch(start, t.tree.End(), tag)
	if s.Next() {
		return s.Index
	}
	return t.tree.End()
}

// TagNextRange returns the first range of the tag called name that starts
// at or after i1 and before i2.
func (t *Text) TagNextRange(name string, i1, i2 Index) (Range, bool) {
	tag, ok := t.tags.Lookup(name)
	if !ok || btree.Compare(i1, i2) >= 0 {
		return Range{}, false
	}
	node := tag.Node()

	if t.rangeStartsAt(node, i1) {
		return Range{Start: i1, End: t.rangeEnd(node, i1)}, true
	}

	s := t.tree.StartSearch(i1, i2, node)
	for s.Next() {
		if s.Segment.Kind() != btree.ToggleOnSegment {
			continue
		}
		if btree.Compare(s.Index, i2) >= 0 {
			break
		}
		return Range{Start: s.Index, End: t.rangeEnd(node, s.Index)}, true
	}
	return Range{}, false
}

// TagPrevRange returns the closest range of the tag called name that
// starts before i1 and at or after i2. A range containing i1 counts; a range
// that began before i2 does not.
func (t *Text) TagPrevRange(name string, i1, i2 Index) (Range, bool) {
	tag, ok := t.tags.Lookup(name)
	if !ok || btree.Compare(i2, i1) >= 0 {
		return Range{}, false
	}
	node := tag.Node()

	s := t.tree.StartSearchBack(i1, i2, node)
	if !s.Prev() {
		if t.rangeStartsAt(node, i2) {
			return Range{Start: i2, End: t.rangeEnd(node, i2)}, true
		}
		return Range{}, false
	}
	if s.Segment.Kind() == btree.ToggleOnSegment {
		return Range{Start: s.Index, End: t.rangeEnd(node, s.Index)}, true
	}

	// Found the end of a range; its start is the next toggle back.
	end := s.Index
	if s.Prev() {
		return Range{Start: s.Index, End: end}, true
	}
	if t.rangeStartsAt(node, i2) {
		return Range{Start: i2, End: end}, true
	}
	return Range{}, false
}

// rangeStartsAt reports whether a range of tag begins exactly at idx.
func (t *Text) rangeStartsAt(tag *btree.Tag, idx Index) bool {
	if !t.tree.CharTagged(idx, tag) {
		return false
	}
	if idx.Line == t.tree.FirstLine() && idx.Char == 0 {
		return true
	}
	return !t.tree.CharTagged(idx.BackwardChars(1), tag)
}

// TagRaise moves the tag called name just above the tag called above, or
// to the top when above is empty.
func (t *Text) TagRaise(name, above string) error {
	tag, other, err := t.tagPair(name, above)
	if err != nil {
		return err
	}
	t.tags.Raise(tag, other)
	t.tagChanged(tag)
	return nil
}

// TagLower moves the tag called name just below the tag called below, or
// to the bottom when below is empty.
func (t *Text) TagLower(name, below string) error {
	tag, other, err := t.tagPair(name, below)
	if err != nil {
		return err
	}
	t.tags.Lower(tag, other)
	t.tagChanged(tag)
	return nil
}

// TagSetPriority moves the tag called name to priority prio, clamped to
// the valid range.
func (t *Text) TagSetPriority(name string, prio int) error {
	tag, err := t.tags.Get(name)
	if err != nil {
		return err
	}
	t.tags.ChangePriority(tag, prio)
	t.tagChanged(tag)
	return nil
}

// SetDefaults sets the widget's own display attributes, used where no tag
// specifies a value.
func (t *Text) SetDefaults(style Style) {
	t.tags.SetDefaults(style)
	t.changed(t.tree.Start(), t.tree.End())
}

func (t *Text) tagPair(name, other string) (*tags.Tag, *tags.Tag, error) {
	tag, err := t.tags.Get(name)
	if err != nil {
		return nil, nil, err
	}
	if other == "" {
		return tag, nil, nil
	}
	o, err := t.tags.Get(other)
	if err != nil {
		return nil, nil, err
	}
	return tag, o, nil
}

// TagDelete deletes the named tags and all their ranges. Unknown names
// are ignored; the selection tag cannot be deleted.
func (t *Text) TagDelete(names ...string) error {
	for _, name := range names {
		tag, ok := t.tags.Lookup(name)
		if !ok {
			continue
		}
		ranges := t.ranges(tag.Node(), t.tree.Start(), t.tree.End())
		if err := t.tags.Delete(name); err != nil {
			return err
		}
		for _, r := range ranges {
			t.changed(r.Start, r.End)
		}
		t.log.Debug("deleted tag %q with %d ranges", name, len(ranges))
		t.requestRepick()
	}
	return nil
}

// tagChanged redraws every range of tag.
func (t *Text) tagChanged(tag *tags.Tag) {
	if t.display == nil || tag.Node().ToggleCount() == 0 {
		return
	}
	for _, r := range t.ranges(tag.Node(), t.tree.Start(), t.tree.End()) {
		t.display.Changed(r.Start, r.End)
	}
}

func (t *Text) changed(i1, i2 Index) {
	if t.display != nil {
		t.display.Changed(i1, i2)
	}
}

func (t *Text) requestRepick() {
	if t.repick != nil {
		t.repick()
	}
}
