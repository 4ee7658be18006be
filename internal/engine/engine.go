package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/history"
	"github.com/dshills/cktext/internal/engine/indexexpr"
	"github.com/dshills/cktext/internal/engine/marks"
	"github.com/dshills/cktext/internal/engine/search"
	"github.com/dshills/cktext/internal/engine/tags"
	"github.com/dshills/cktext/internal/engine/uid"
	"github.com/dshills/cktext/internal/logging"
)

// Re-export commonly used types for convenience.
type (
	// Index is a resolved position in the text.
	Index = btree.Index

	// SearchOptions configures Search.
	SearchOptions = search.Options

	// Match is a search result.
	Match = search.Match

	// Style is a set of display attributes.
	Style = tags.Style
)

// Display is told which parts of the text may look different. The indices
// are only valid for the duration of the call.
type Display interface {
	Changed(from, to Index)
}

// State is the logical state of a text.
type State int

const (
	// StateNormal allows edits.
	StateNormal State = iota
	// StateDisabled silently ignores edits.
	StateDisabled
)

// String returns the state name.
func (s State) String() string {
	if s == StateDisabled {
		return "disabled"
	}
	return "normal"
}

// ParseState parses "normal" or "disabled".
func ParseState(s string) (State, error) {
	switch s {
	case "normal", "":
		return StateNormal, nil
	case "disabled":
		return StateDisabled, nil
	}
	return StateNormal, fmt.Errorf("%w %q", ErrBadState, s)
}

// Text is the document model of one text widget: its line tree, tags,
// marks and undo history. It tells its Display which ranges changed after
// every edit.
//
// A Text is not safe for concurrent use; all calls must come from the
// goroutine driving the widget.
type Text struct {
	id    uuid.UUID
	names *uid.Registry

	tree    *btree.Tree
	tags    *tags.Table
	marks   *marks.Table
	parser  *indexexpr.Parser
	history *history.History

	display Display
	repick  func()
	point   indexexpr.PointFunc
	baseLog *logging.Logger
	log     *logging.Logger

	state           State
	top             Index
	editSerial      uint64
	exportSelection bool

	// Configuration
	undo           bool
	autoSeparators bool
	maxUndoEntries int
	debugChecks    bool
	initContent    string
}

// New creates a text with the given options.
func New(opts ...Option) *Text {
	t := &Text{
		id:              uuid.New(),
		undo:            true,
		autoSeparators:  true,
		maxUndoEntries:  DefaultMaxUndoEntries,
		exportSelection: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.names == nil {
		t.names = uid.Default()
	}
	if t.baseLog == nil {
		t.baseLog = logging.Null()
	}
	t.log = t.baseLog.WithComponent("engine").WithField("text", t.id.String()[:8])

	var treeOpts []btree.Option
	if t.debugChecks {
		treeOpts = append(treeOpts, btree.WithDebugChecks())
	}
	t.tree = btree.New(treeOpts...)
	if t.initContent != "" {
		t.tree.InsertChars(t.tree.Start(), t.initContent)
	}
	t.tags = tags.NewTable(t.tree, t.names)
	t.marks = marks.NewTable(t.tree, t.names)
	t.parser = indexexpr.NewParser(t.tree, t.marks, t.tags, indexexpr.WithPoint(t.pointAt))
	t.history = history.New(t.maxUndoEntries,
		history.WithEnabled(t.undo),
		history.WithAutoSeparators(t.autoSeparators))
	t.top = t.tree.Start()
	return t
}

// ID returns the identifier used in log output.
func (t *Text) ID() uuid.UUID { return t.id }

// Tree returns the line tree.
func (t *Text) Tree() *btree.Tree { return t.tree }

// Tags returns the tag table.
func (t *Text) Tags() *tags.Table { return t.tags }

// Marks returns the mark table.
func (t *Text) Marks() *marks.Table { return t.marks }

// Logger returns the engine's logger.
func (t *Text) Logger() *logging.Logger { return t.log }

// SetDisplay replaces the display collaborator.
func (t *Text) SetDisplay(d Display) { t.display = d }

// SetRepick replaces the repick callback.
func (t *Text) SetRepick(fn func()) { t.repick = fn }

// SetPoint replaces the function resolving "@x,y" indices.
func (t *Text) SetPoint(fn indexexpr.PointFunc) { t.point = fn }

func (t *Text) pointAt(x, y int) (Index, bool) {
	if t.point == nil {
		return Index{}, false
	}
	return t.point(x, y)
}

// State returns the current state.
func (t *Text) State() State { return t.state }

// SetState changes the state.
func (t *Text) SetState(s State) { t.state = s }

// SetExportSelection controls whether StartSelection may retrieve the
// selection.
func (t *Text) SetExportSelection(on bool) { t.exportSelection = on }

// NumLines returns the number of lines, not counting the dummy last line.
func (t *Text) NumLines() int { return t.tree.NumLines() }

// Top returns the index of the first character shown by the view.
func (t *Text) Top() Index { return t.top }

// SetTop changes the first character shown by the view.
func (t *Text) SetTop(idx Index) {
	t.top = idx
	if t.display != nil {
		t.display.Changed(idx, t.tree.End())
	}
}

// ============================================================================
// Indices
// ============================================================================

// Index resolves an index expression.
func (t *Text) Index(spec string) (Index, error) {
	idx, err := t.parser.Parse(spec)
	if err != nil {
		t.log.Debug("parse index: %v", err)
		return Index{}, err
	}
	return idx, nil
}

// MustIndex is Index for expressions known to be valid.
func (t *Text) MustIndex(spec string) Index {
	idx, err := t.Index(spec)
	if err != nil {
		panic(err)
	}
	return idx
}

// Compare evaluates "i1 op i2" where op is one of < <= == >= > !=.
func (t *Text) Compare(i1 Index, op string, i2 Index) (bool, error) {
	c := btree.Compare(i1, i2)
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case "==":
		return c == 0, nil
	case ">=":
		return c >= 0, nil
	case ">":
		return c > 0, nil
	case "!=":
		return c != 0, nil
	}
	return false, fmt.Errorf("%w %q", ErrBadOperator, op)
}

// ============================================================================
// Read Operations
// ============================================================================

// Get returns the characters in [i1, i2).
func (t *Text) Get(i1, i2 Index) string {
	return t.tree.Text(i1, i2)
}

// String returns the whole text, including its final newline.
func (t *Text) String() string {
	return t.tree.Text(t.tree.Start(), t.tree.End())
}

// Search looks for pattern from start.
func (t *Text) Search(pattern string, start Index, opts SearchOptions) (Match, bool, error) {
	m, found, err := search.Search(t.tree, pattern, start, opts)
	if err != nil {
		return Match{}, false, err
	}
	return m, found, nil
}

// ============================================================================
// Write Operations
// ============================================================================

// Insert inserts text just before idx. If tagNames are given the new
// characters get exactly those tags; otherwise they get the tags present
// on both sides of idx. Nothing happens when the text is disabled.
func (t *Text) Insert(idx Index, text string, tagNames ...string) {
	if t.state == StateDisabled {
		t.log.Debug("insert ignored: disabled")
		return
	}
	t.insert(idx, text, tagNames)
}

// InsertChecked is Insert reporting ErrDisabled.
func (t *Text) InsertChecked(idx Index, text string, tagNames ...string) error {
	if t.state == StateDisabled {
		return ErrDisabled
	}
	t.insert(idx, text, tagNames)
	return nil
}

// Delete deletes the characters in [i1, i2). The final newline of the
// text is never deleted. Nothing happens when the text is disabled.
func (t *Text) Delete(i1, i2 Index) {
	if t.state == StateDisabled {
		t.log.Debug("delete ignored: disabled")
		return
	}
	t.delete(i1, i2)
}

// DeleteChecked is Delete reporting ErrDisabled.
func (t *Text) DeleteChecked(i1, i2 Index) error {
	if t.state == StateDisabled {
		return ErrDisabled
	}
	t.delete(i1, i2)
	return nil
}

// Replace deletes [i1, i2) and inserts text in its place as one undo unit.
func (t *Text) Replace(i1, i2 Index, text string, tagNames ...string) {
	if t.state == StateDisabled {
		return
	}
	defer t.history.GroupScope("Replace").End()
	at := t.delete(i1, i2)
	t.insert(at, text, tagNames)
}

func pos(idx Index) history.Pos {
	return history.Pos{Line: idx.LineNumber(), Char: idx.Char}
}

// insert performs an insertion and returns the index just past the new
// text.
func (t *Text) insert(idx Index, text string, tagNames []string) Index {
	if idx.IsEnd() {
		idx = idx.BackwardChars(1)
	}
	if text == "" {
		return idx
	}

	before := t.tree.NumLines()
	t.tree.InsertChars(idx, text)
	end := idx.ForwardChars(utf8.RuneCountInString(text))

	if t.top.Line == idx.Line && idx.Char < t.top.Char {
		t.top = t.top.LineStart()
	}

	if len(tagNames) > 0 {
		for _, name := range t.tags.Names() {
			tag, _ := t.tags.Lookup(name)
			t.tree.TagRange(idx, end, tag.Node(), false)
		}
		for _, name := range tagNames {
			t.tree.TagRange(idx, end, t.tags.Create(name).Node(), true)
		}
	}

	if t.display != nil {
		t.display.Changed(idx, end)
	}
	t.editSerial++
	t.history.Push(history.NewInsertCommand(pos(idx), pos(end), text))

	if added := t.tree.NumLines() - before; added > 0 {
		t.log.Debug("inserted %d lines at %s", added, idx)
	}
	return end
}

// delete performs a deletion and returns the index where the deleted text
// used to start.
func (t *Text) delete(i1, i2 Index) Index {
	if btree.Compare(i1, i2) >= 0 {
		return i1
	}
	c1, c2 := t.tree.ClampDelete(i1, i2)
	if btree.Compare(c1, c2) >= 0 {
		// Only tags on the final newline go away.
		t.tree.DeleteChars(i1, i2)
		if t.display != nil {
			t.display.Changed(c1, t.tree.End())
		}
		return c1
	}

	text := t.tree.Text(c1, c2)
	from, to := pos(c1), pos(c2)
	if t.display != nil {
		t.display.Changed(c1, c2)
	}

	resetTop, topLine, topChar := t.topAfterDelete(c1, c2)
	before := t.tree.NumLines()
	t.tree.DeleteChars(i1, i2)
	if resetTop {
		t.top = t.tree.MakeIndex(topLine, topChar)
	}

	t.editSerial++
	t.history.Push(history.NewDeleteCommand(from, to, text))

	if removed := before - t.tree.NumLines(); removed > 0 {
		t.log.Debug("deleted %d lines at %s", removed, c1)
	}
	return c1
}

// topAfterDelete computes where the view should start once [i1, i2) is
// gone. It must run before the deletion.
func (t *Text) topAfterDelete(i1, i2 Index) (reset bool, line, char int) {
	top := t.top
	switch {
	case btree.Compare(i2, top) >= 0 && btree.Compare(i1, top) <= 0:
		// The range straddles the top: start at the range.
		return true, i1.LineNumber(), i1.Char
	case btree.Compare(i2, top) >= 0 && i1.Line == top.Line:
		// The range starts on the top line after the top.
		return true, i1.LineNumber(), top.Char
	case i2.Line == top.Line:
		// The range ends on the top line before the top.
		return true, i1.LineNumber(), i1.Char + top.Char - i2.Char
	}
	return false, 0, 0
}

// ============================================================================
// Undo
// ============================================================================

// historyTarget replays undo and redo through the normal edit path so the
// display and the insert mark follow along.
type historyTarget struct {
	t *Text
}

func (h historyTarget) InsertText(at history.Pos, text string) error {
	end := h.t.insert(h.t.tree.MakeIndex(at.Line, at.Char), text, nil)
	h.t.marks.Set(marks.Insert, end)
	return nil
}

func (h historyTarget) DeleteText(from, to history.Pos) error {
	tree := h.t.tree
	at := h.t.delete(tree.MakeIndex(from.Line, from.Char), tree.MakeIndex(to.Line, to.Char))
	h.t.marks.Set(marks.Insert, at)
	return nil
}

// EditUndo undoes the most recent undo unit.
func (t *Text) EditUndo() error {
	if t.state == StateDisabled {
		return ErrDisabled
	}
	entry, err := t.history.Undo(historyTarget{t})
	if err != nil {
		if errors.Is(err, history.ErrNothingToUndo) {
			return ErrNothingToUndo
		}
		return err
	}
	t.log.Debug("undo: %s", entry.Description())
	return nil
}

// EditRedo reapplies the most recently undone unit.
func (t *Text) EditRedo() error {
	if t.state == StateDisabled {
		return ErrDisabled
	}
	entry, err := t.history.Redo(historyTarget{t})
	if err != nil {
		if errors.Is(err, history.ErrNothingToRedo) {
			return ErrNothingToRedo
		}
		return err
	}
	t.log.Debug("redo: %s", entry.Description())
	return nil
}

// EditSeparator closes the current undo unit.
func (t *Text) EditSeparator() { t.history.Separator() }

// EditReset clears the undo and redo stacks.
func (t *Text) EditReset() { t.history.Reset() }

// EditModified reports whether the text changed since it was last marked
// unmodified.
func (t *Text) EditModified() bool { return t.history.Modified() }

// SetEditModified sets the modified flag.
func (t *Text) SetEditModified(modified bool) { t.history.SetModified(modified) }

// CanUndo reports whether EditUndo has anything to do.
func (t *Text) CanUndo() bool { return t.history.CanUndo() }

// CanRedo reports whether EditRedo has anything to do.
func (t *Text) CanRedo() bool { return t.history.CanRedo() }

// SetUndo turns undo recording on or off. Turning it off discards the
// history.
func (t *Text) SetUndo(on bool) { t.history.SetEnabled(on) }

// ============================================================================
// Dump
// ============================================================================

// DumpKind selects what Dump reports.
type DumpKind uint8

const (
	DumpText DumpKind = 1 << iota
	DumpMark
	DumpTagOn
	DumpTagOff

	DumpAll = DumpText | DumpMark | DumpTagOn | DumpTagOff
)

// DumpEntry is one item reported by Dump.
type DumpEntry struct {
	Kind  string // "text", "mark", "tagon" or "tagoff"
	Value string
	Index string
}

// Dump reports the text, marks and tag toggles of [i1, i2) in document
// order.
func (t *Text) Dump(i1, i2 Index, what DumpKind) []DumpEntry {
	var out []DumpEntry
	t.tree.Walk(i1, i2, func(idx Index, seg *btree.Segment, from, to int) bool {
		var e DumpEntry
		switch seg.Kind() {
		case btree.CharSegment:
			if what&DumpText == 0 {
				return true
			}
			text := seg.Text()
			e = DumpEntry{Kind: "text", Value: substr(text, from, to)}
		case btree.ToggleOnSegment:
			if what&DumpTagOn == 0 {
				return true
			}
			e = DumpEntry{Kind: "tagon", Value: seg.Tag().Name.String()}
		case btree.ToggleOffSegment:
			if what&DumpTagOff == 0 {
				return true
			}
			e = DumpEntry{Kind: "tagoff", Value: seg.Tag().Name.String()}
		default:
			if what&DumpMark == 0 {
				return true
			}
			e = DumpEntry{Kind: "mark", Value: seg.Mark().Name.String()}
		}
		e.Index = idx.String()
		out = append(out, e)
		return true
	})
	return out
}

// substr returns characters [from, to) of s.
func substr(s string, from, to int) string {
	var sb strings.Builder
	i := 0
	for _, r := range s {
		if i >= to {
			break
		}
		if i >= from {
			sb.WriteRune(r)
		}
		i++
	}
	return sb.String()
}
