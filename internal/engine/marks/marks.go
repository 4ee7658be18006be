// Package marks implements the mark table of a text widget: named,
// zero-width positions that follow the text around them as it is edited.
package marks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/uid"
)

// Protected marks. They always exist and cannot be unset.
const (
	Insert  = "insert"
	Current = "current"
)

// ErrUnknownMark indicates a lookup of a mark that does not exist.
var ErrUnknownMark = errors.New("marks: unknown mark")

// Table holds the marks of one text widget.
type Table struct {
	tree  *btree.Tree
	names *uid.Registry
	marks map[uid.UID]*btree.Mark
}

// NewTable returns a table for tree with the insert and current marks at
// the start of the text.
func NewTable(tree *btree.Tree, names *uid.Registry) *Table {
	t := &Table{
		tree:  tree,
		names: names,
		marks: make(map[uid.UID]*btree.Mark),
	}
	t.Set(Insert, tree.Start())
	t.Set(Current, tree.Start())
	return t
}

// Set moves the mark called name to idx, creating it with right gravity on
// first use. The insert mark never lands on the dummy last line.
func (t *Table) Set(name string, idx btree.Index) *btree.Mark {
	id := t.names.Intern(name)
	if name == Insert && idx.IsEnd() {
		idx = idx.BackwardChars(1)
	}
	m, ok := t.marks[id]
	if !ok {
		m = btree.NewMark(id, btree.GravityRight)
		t.marks[id] = m
	}
	t.tree.PlaceMark(m, idx)
	return m
}

// Unset removes the named marks. Unknown and protected names are ignored.
func (t *Table) Unset(names ...string) {
	for _, name := range names {
		if name == Insert || name == Current {
			continue
		}
		m, ok := t.Lookup(name)
		if !ok {
			continue
		}
		t.tree.UnlinkMark(m)
		delete(t.marks, m.Name)
	}
}

// Lookup returns the mark called name if it exists.
func (t *Table) Lookup(name string) (*btree.Mark, bool) {
	id, ok := t.names.Lookup(name)
	if !ok {
		return nil, false
	}
	m, ok := t.marks[id]
	return m, ok
}

// Index returns the position of the mark called name.
func (t *Table) Index(name string) (btree.Index, error) {
	m, ok := t.Lookup(name)
	if !ok {
		return btree.Index{}, fmt.Errorf("%w %q", ErrUnknownMark, name)
	}
	return t.tree.MarkIndex(m), nil
}

// Gravity returns the gravity of the mark called name.
func (t *Table) Gravity(name string) (btree.Gravity, error) {
	m, ok := t.Lookup(name)
	if !ok {
		return btree.GravityRight, fmt.Errorf("%w %q", ErrUnknownMark, name)
	}
	return m.Gravity(), nil
}

// SetGravity changes the gravity of the mark called name without moving it.
func (t *Table) SetGravity(name string, g btree.Gravity) error {
	m, ok := t.Lookup(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownMark, name)
	}
	t.tree.SetMarkGravity(m, g)
	return nil
}

// Names returns the names of all marks, sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.marks))
	for id := range t.marks {
		names = append(names, id.String())
	}
	sort.Strings(names)
	return names
}

// Len returns the number of marks, including the protected ones.
func (t *Table) Len() int {
	return len(t.marks)
}

// Next returns the first mark at or after idx in document order.
func (t *Table) Next(idx btree.Index) (string, bool) {
	offset := 0
	for s := idx.Line.Segments(); s != nil; s = s.Next() {
		if offset >= idx.Char && s.IsMark() {
			return s.Mark().Name.String(), true
		}
		offset += s.Size()
	}
	return firstMark(idx.Line.Next())
}

// NextAfter returns the first mark following the mark called name.
func (t *Table) NextAfter(name string) (string, bool) {
	m, ok := t.Lookup(name)
	if !ok {
		return "", false
	}
	for s := m.Segment().Next(); s != nil; s = s.Next() {
		if s.IsMark() {
			return s.Mark().Name.String(), true
		}
	}
	return firstMark(m.Line().Next())
}

func firstMark(l *btree.Line) (string, bool) {
	for ; l != nil; l = l.Next() {
		for s := l.Segments(); s != nil; s = s.Next() {
			if s.IsMark() {
				return s.Mark().Name.String(), true
			}
		}
	}
	return "", false
}

// Previous returns the last mark at or before idx in document order.
func (t *Table) Previous(idx btree.Index) (string, bool) {
	var found *btree.Mark
	offset := 0
	for s := idx.Line.Segments(); s != nil && offset <= idx.Char; s = s.Next() {
		if s.IsMark() {
			found = s.Mark()
		}
		offset += s.Size()
	}
	if found != nil {
		return found.Name.String(), true
	}
	return lastMark(idx.Line.Prev())
}

// PreviousBefore returns the last mark preceding the mark called name.
func (t *Table) PreviousBefore(name string) (string, bool) {
	m, ok := t.Lookup(name)
	if !ok {
		return "", false
	}
	var found *btree.Mark
	for s := m.Line().Segments(); s != m.Segment(); s = s.Next() {
		if s.IsMark() {
			found = s.Mark()
		}
	}
	if found != nil {
		return found.Name.String(), true
	}
	return lastMark(m.Line().Prev())
}

func lastMark(l *btree.Line) (string, bool) {
	for ; l != nil; l = l.Prev() {
		var found *btree.Mark
		for s := l.Segments(); s != nil; s = s.Next() {
			if s.IsMark() {
				found = s.Mark()
			}
		}
		if found != nil {
			return found.Name.String(), true
		}
	}
	return "", false
}
