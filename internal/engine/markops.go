package engine

import (
	"fmt"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/marks"
)

// Gravity re-exports the mark gravity type.
type Gravity = btree.Gravity

// Mark gravities.
const (
	GravityLeft  = btree.GravityLeft
	GravityRight = btree.GravityRight
)

// ParseGravity parses "left" or "right".
func ParseGravity(s string) (Gravity, error) {
	switch s {
	case "left":
		return GravityLeft, nil
	case "right":
		return GravityRight, nil
	}
	return GravityRight, fmt.Errorf("engine: bad mark gravity %q: must be left or right", s)
}

// MarkSet places the mark called name at idx, creating it with right
// gravity if needed. Moving the insert mark redraws the old and new
// cursor positions.
func (t *Text) MarkSet(name string, idx Index) {
	var old Index
	moved := false
	if name == marks.Insert {
		old, _ = t.marks.Index(marks.Insert)
		moved = true
	}
	t.marks.Set(name, idx)
	if moved && t.display != nil {
		t.display.Changed(old, old.ForwardChars(1))
		now, _ := t.marks.Index(marks.Insert)
		t.display.Changed(now, now.ForwardChars(1))
	}
}

// MarkUnset removes the named marks. Unknown names and the insert and
// current marks are ignored.
func (t *Text) MarkUnset(names ...string) {
	t.marks.Unset(names...)
}

// MarkIndex returns the position of the mark called name.
func (t *Text) MarkIndex(name string) (Index, error) {
	return t.marks.Index(name)
}

// MarkGravity returns the gravity of the mark called name.
func (t *Text) MarkGravity(name string) (Gravity, error) {
	return t.marks.Gravity(name)
}

// SetMarkGravity changes the gravity of the mark called name.
func (t *Text) SetMarkGravity(name string, g Gravity) error {
	return t.marks.SetGravity(name, g)
}

// MarkNames returns the names of all marks, sorted.
func (t *Text) MarkNames() []string {
	return t.marks.Names()
}

// MarkNext returns the first mark after spec. When spec names a mark the
// search starts just after that mark; otherwise spec is an index and marks
// at that index count.
func (t *Text) MarkNext(spec string) (string, bool, error) {
	if _, ok := t.marks.Lookup(spec); ok {
		name, found := t.marks.NextAfter(spec)
		return name, found, nil
	}
	idx, err := t.Index(spec)
	if err != nil {
		return "", false, err
	}
	name, found := t.marks.Next(idx)
	return name, found, nil
}

// MarkPrevious returns the last mark before spec. When spec names a mark
// the search starts just before that mark; otherwise spec is an index and
// marks at that index count.
func (t *Text) MarkPrevious(spec string) (string, bool, error) {
	if _, ok := t.marks.Lookup(spec); ok {
		name, found := t.marks.PreviousBefore(spec)
		return name, found, nil
	}
	idx, err := t.Index(spec)
	if err != nil {
		return "", false, err
	}
	name, found := t.marks.Previous(idx)
	return name, found, nil
}
