// Package tags implements the tag table of a text widget.
//
// A tag is a named display overlay applied to ranges of text. The ranges
// themselves live in the line tree as toggle segments; the table owns tag
// identities, their dense priority order and their display attributes.
// The "sel" tag always exists and mirrors its attributes into the widget's
// selection style.
package tags

import (
	"errors"
	"fmt"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/uid"
)

// SelTag is the name of the selection tag.
const SelTag = "sel"

// Errors returned by table lookups.
var (
	// ErrUnknownTag indicates a tag name that has never been created.
	ErrUnknownTag = errors.New("tags: unknown tag")

	// ErrProtectedTag indicates an attempt to delete the selection tag.
	ErrProtectedTag = errors.New("tags: tag cannot be deleted")
)

// Tag is an entry in the table.
type Tag struct {
	node  *btree.Tag
	style Style
}

// Name returns the tag name.
func (t *Tag) Name() string { return t.node.Name.String() }

// UID returns the interned tag name.
func (t *Tag) UID() uid.UID { return t.node.Name }

// Priority returns the tag's position in the priority order; higher values
// are drawn on top.
func (t *Tag) Priority() int { return t.node.Priority }

// Style returns the tag's own display attributes.
func (t *Tag) Style() Style { return t.style }

// Node returns the line tree's view of the tag.
func (t *Tag) Node() *btree.Tag { return t.node }

// Table holds the tags of one text widget.
type Table struct {
	tree  *btree.Tree
	names *uid.Registry

	byName map[uid.UID]*Tag
	byNode map[*btree.Tag]*Tag
	order  []*Tag

	defaults  Style
	selection Style
}

// NewTable returns a table for tree holding only the selection tag. Widget
// defaults start fully unset.
func NewTable(tree *btree.Tree, names *uid.Registry) *Table {
	t := &Table{
		tree:      tree,
		names:     names,
		byName:    make(map[uid.UID]*Tag),
		byNode:    make(map[*btree.Tag]*Tag),
		defaults:  Unset(),
		selection: Unset(),
	}
	t.Create(SelTag)
	return t
}

// Create returns the tag called name, creating it on top of the priority
// order if it does not exist yet.
func (t *Table) Create(name string) *Tag {
	id := t.names.Intern(name)
	if tag, ok := t.byName[id]; ok {
		return tag
	}
	tag := &Tag{
		node:  btree.NewTag(id, len(t.order)),
		style: Unset(),
	}
	t.byName[id] = tag
	t.byNode[tag.node] = tag
	t.order = append(t.order, tag)
	return tag
}

// Lookup returns the tag called name if it exists.
func (t *Table) Lookup(name string) (*Tag, bool) {
	id, ok := t.names.Lookup(name)
	if !ok {
		return nil, false
	}
	tag, ok := t.byName[id]
	return tag, ok
}

// Get returns the tag called name or ErrUnknownTag.
func (t *Table) Get(name string) (*Tag, error) {
	tag, ok := t.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTag, name)
	}
	return tag, nil
}

// Sel returns the selection tag.
func (t *Table) Sel() *Tag {
	tag, _ := t.Lookup(SelTag)
	return tag
}

// Len returns the number of tags.
func (t *Table) Len() int {
	return len(t.order)
}

// Names returns all tag names in increasing priority.
func (t *Table) Names() []string {
	names := make([]string, len(t.order))
	for i, tag := range t.order {
		names[i] = tag.Name()
	}
	return names
}

// Configure replaces the tag's display attributes as a whole; fields of
// style that are unset clear the tag's previous values. Configuring the
// selection tag also updates the widget's selection style.
func (t *Table) Configure(tag *Tag, style Style) {
	tag.style = style
	if tag.Name() == SelTag {
		t.selection = style
	}
}

// ChangePriority moves tag to priority prio, shifting the tags in between
// by one so that priorities stay a dense permutation. prio is clamped to
// the valid range.
func (t *Table) ChangePriority(tag *Tag, prio int) {
	if prio < 0 {
		prio = 0
	}
	if prio >= len(t.order) {
		prio = len(t.order) - 1
	}
	old := tag.Priority()
	if prio == old {
		return
	}
	if prio < old {
		copy(t.order[prio+1:old+1], t.order[prio:old])
	} else {
		copy(t.order[old:prio], t.order[old+1:prio+1])
	}
	t.order[prio] = tag
	t.renumber()
}

// Raise puts tag just above above, or on top of all tags when above is nil.
func (t *Table) Raise(tag, above *Tag) {
	if above == nil {
		t.ChangePriority(tag, len(t.order)-1)
		return
	}
	prio := above.Priority()
	if prio < tag.Priority() {
		prio++
	}
	t.ChangePriority(tag, prio)
}

// Lower puts tag just below below, or under all tags when below is nil.
func (t *Table) Lower(tag, below *Tag) {
	if below == nil {
		t.ChangePriority(tag, 0)
		return
	}
	prio := below.Priority()
	if prio > tag.Priority() {
		prio--
	}
	t.ChangePriority(tag, prio)
}

// Delete removes the tag called name and strips its ranges from the tree.
// Unknown names are ignored. The selection tag cannot be deleted.
func (t *Table) Delete(name string) error {
	tag, ok := t.Lookup(name)
	if !ok {
		return nil
	}
	if name == SelTag {
		return ErrProtectedTag
	}
	t.tree.RemoveTag(tag.node)
	t.order = append(t.order[:tag.Priority()], t.order[tag.Priority()+1:]...)
	delete(t.byName, tag.UID())
	delete(t.byNode, tag.node)
	t.renumber()
	return nil
}

func (t *Table) renumber() {
	for i, tag := range t.order {
		tag.node.Priority = i
	}
}

// SetDefaults sets the widget's own display attributes, used where no tag
// specifies a value.
func (t *Table) SetDefaults(s Style) {
	t.defaults = s
}

// Defaults returns the widget's own display attributes.
func (t *Table) Defaults() Style {
	return t.defaults
}

// Selection returns the widget's selection style as mirrored from the
// selection tag.
func (t *Table) Selection() Style {
	return t.selection
}

// Resolve computes the display style of the character at idx. For each
// attribute the highest priority tag that sets it wins; attributes no tag
// sets come from the widget defaults.
func (t *Table) Resolve(idx btree.Index) Style {
	return t.ResolveTags(t.tree.GetTags(idx))
}

// ResolveTags is Resolve for a known set of tree tags in increasing
// priority order.
func (t *Table) ResolveTags(nodes []*btree.Tag) Style {
	s := Unset()
	for i := len(nodes) - 1; i >= 0; i-- {
		tag := t.byNode[nodes[i]]
		if tag == nil {
			continue
		}
		s = s.Over(tag.style)
	}
	return s.Over(t.defaults)
}

// At returns the tags on the character at idx in increasing priority.
func (t *Table) At(idx btree.Index) []*Tag {
	nodes := t.tree.GetTags(idx)
	out := make([]*Tag, 0, len(nodes))
	for _, n := range nodes {
		if tag := t.byNode[n]; tag != nil {
			out = append(out, tag)
		}
	}
	return out
}
