package btree

import (
	"unicode/utf8"

	"github.com/dshills/cktext/internal/engine/uid"
)

// SegmentKind identifies the variant stored in a Segment.
type SegmentKind uint8

const (
	// CharSegment holds a run of characters. The last character segment of
	// every line ends with a newline.
	CharSegment SegmentKind = iota

	// ToggleOnSegment starts a tagged range.
	ToggleOnSegment

	// ToggleOffSegment ends a tagged range.
	ToggleOffSegment

	// RightMarkSegment is a mark that moves after text inserted at its
	// position.
	RightMarkSegment

	// LeftMarkSegment is a mark that stays before text inserted at its
	// position.
	LeftMarkSegment
)

// String returns the name of the kind as used by dumps.
func (k SegmentKind) String() string {
	switch k {
	case CharSegment:
		return "char"
	case ToggleOnSegment:
		return "toggleOn"
	case ToggleOffSegment:
		return "toggleOff"
	case RightMarkSegment:
		return "rightMark"
	case LeftMarkSegment:
		return "leftMark"
	default:
		return "unknown"
	}
}

// Tag is the tree's view of a tag: an identity plus a priority. Display
// attributes live in the tag table.
type Tag struct {
	Name     uid.UID
	Priority int

	// toggles is the number of toggle segments for this tag in the tree.
	toggles int
}

// NewTag returns a tag with the given name and priority.
func NewTag(name uid.UID, priority int) *Tag {
	return &Tag{Name: name, Priority: priority}
}

// ToggleCount returns the number of toggle segments for the tag.
func (t *Tag) ToggleCount() int {
	return t.toggles
}

// Mark is a named position embedded in a line's segment chain.
type Mark struct {
	Name uid.UID

	seg  *Segment
	line *Line
}

// Line returns the line currently holding the mark.
func (m *Mark) Line() *Line {
	return m.line
}

// Segment returns the mark's segment in its line's chain.
func (m *Mark) Segment() *Segment {
	return m.seg
}

// Gravity reports which side of inserted text the mark stays on.
type Gravity uint8

const (
	// GravityRight marks move after text inserted at their position.
	GravityRight Gravity = iota
	// GravityLeft marks stay before text inserted at their position.
	GravityLeft
)

// String returns "right" or "left".
func (g Gravity) String() string {
	if g == GravityLeft {
		return "left"
	}
	return "right"
}

// Gravity returns the mark's gravity.
func (m *Mark) Gravity() Gravity {
	if m.seg != nil && m.seg.kind == LeftMarkSegment {
		return GravityLeft
	}
	return GravityRight
}

// Segment is one typed chunk of a line.
type Segment struct {
	kind SegmentKind
	next *Segment

	// size is the segment's width in characters; zero for everything but
	// character segments.
	size int

	text string
	tag  *Tag
	mark *Mark
}

// Kind returns the segment's variant.
func (s *Segment) Kind() SegmentKind { return s.kind }

// Next returns the following segment on the same line, or nil.
func (s *Segment) Next() *Segment { return s.next }

// Size returns the segment's width in characters.
func (s *Segment) Size() int { return s.size }

// Text returns the characters of a character segment.
func (s *Segment) Text() string { return s.text }

// Tag returns the tag of a toggle segment.
func (s *Segment) Tag() *Tag { return s.tag }

// Mark returns the mark of a mark segment.
func (s *Segment) Mark() *Mark { return s.mark }

// IsToggle reports whether s is a ToggleOn or ToggleOff segment.
func (s *Segment) IsToggle() bool {
	return s.kind == ToggleOnSegment || s.kind == ToggleOffSegment
}

// IsMark reports whether s is a mark segment.
func (s *Segment) IsMark() bool {
	return s.kind == RightMarkSegment || s.kind == LeftMarkSegment
}

// leftGravity reports whether the segment stays to the left of text inserted
// at its position. Toggle-off segments have left gravity so that text typed
// at the end of a tagged range does not pick up the tag.
func (s *Segment) leftGravity() bool {
	return s.kind == ToggleOffSegment || s.kind == LeftMarkSegment
}

func newCharSegment(text string) *Segment {
	return &Segment{
		kind: CharSegment,
		size: utf8.RuneCountInString(text),
		text: text,
	}
}

func newToggleSegment(tag *Tag, on bool) *Segment {
	kind := ToggleOffSegment
	if on {
		kind = ToggleOnSegment
	}
	return &Segment{kind: kind, tag: tag}
}

// split cuts a character segment after count characters. s keeps the first
// part and a new segment holding the rest is linked after it.
func (s *Segment) split(count int) {
	if s.kind != CharSegment {
		panic("btree: split of non-character segment")
	}
	b := byteOffset(s.text, count)
	rest := &Segment{
		kind: CharSegment,
		next: s.next,
		size: s.size - count,
		text: s.text[b:],
	}
	s.text = s.text[:b]
	s.size = count
	s.next = rest
}

// survivesDelete reports whether the segment refuses to die when its range
// is deleted. Surviving segments are moved to the deletion point.
func (s *Segment) survivesDelete() bool {
	switch s.kind {
	case CharSegment:
		return false
	case ToggleOnSegment, ToggleOffSegment, RightMarkSegment, LeftMarkSegment:
		return true
	}
	return false
}

// byteOffset returns the byte offset of the count'th rune of text.
func byteOffset(text string, count int) int {
	if count <= 0 {
		return 0
	}
	n := 0
	for i := range text {
		if n == count {
			return i
		}
		n++
	}
	return len(text)
}
