package history

import "errors"

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("history: nothing to undo")
	ErrNothingToRedo = errors.New("history: nothing to redo")
)

// History manages the undo and redo stacks of one text.
//
// States are numbered: every recorded edit gets a new number, and undo or
// redo moves back to the number the text had before or after a group.
// The modified flag compares the current number with the clean one.
type History struct {
	undoStack []*CompoundCommand
	redoStack []*CompoundCommand

	// Commands recorded since the last separator.
	open *CompoundCommand

	grouping  bool
	groupName string

	enabled        bool
	autoSeparators bool
	maxEntries     int

	// Set while replaying commands so the resulting edits are not recorded.
	applying bool

	seq   int64
	state int64
	clean int64
}

// Option configures a History.
type Option func(*History)

// WithAutoSeparators controls whether a separator is inserted whenever the
// edit kind changes. The default is on.
func WithAutoSeparators(on bool) Option {
	return func(h *History) {
		h.autoSeparators = on
	}
}

// WithEnabled controls whether edits are recorded. A disabled history
// still tracks the modified flag.
func WithEnabled(on bool) Option {
	return func(h *History) {
		h.enabled = on
	}
}

// New creates a history keeping at most maxEntries undo units.
func New(maxEntries int, opts ...Option) *History {
	if maxEntries <= 0 {
		maxEntries = 1000 // Default
	}
	h := &History{
		enabled:        true,
		autoSeparators: true,
		maxEntries:     maxEntries,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Push records an edit that has already been applied. The redo stack is
// cleared.
func (h *History) Push(cmd Command) {
	if h.applying {
		return
	}
	h.seq++
	if !h.enabled {
		h.state = h.seq
		return
	}

	h.redoStack = nil
	if h.autoSeparators && !h.grouping && h.open != nil {
		last := h.open.Commands[len(h.open.Commands)-1]
		if last.Kind() != cmd.Kind() {
			h.Separator()
		}
	}
	if h.open == nil {
		h.open = &CompoundCommand{Name: h.groupName, before: h.state}
	}
	h.open.Add(cmd)
	h.state = h.seq
	h.open.after = h.state
}

// Separator closes the current undo unit. It is ignored inside a group.
func (h *History) Separator() {
	if h.grouping {
		return
	}
	h.closeOpen()
}

func (h *History) closeOpen() {
	if h.open == nil {
		return
	}
	h.undoStack = append(h.undoStack, h.open)
	h.open = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverses the most recent undo unit. It returns the unit that was
// undone.
func (h *History) Undo(t Target) (*CompoundCommand, error) {
	h.grouping = false
	h.groupName = ""
	h.closeOpen()
	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}

	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]

	h.applying = true
	err := entry.Undo(t)
	h.applying = false
	if err != nil {
		h.undoStack = append(h.undoStack, entry)
		return nil, err
	}

	h.redoStack = append(h.redoStack, entry)
	h.state = entry.before
	return entry, nil
}

// Redo reapplies the most recently undone unit. It returns the unit that
// was redone.
func (h *History) Redo(t Target) (*CompoundCommand, error) {
	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}

	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]

	h.applying = true
	err := entry.Execute(t)
	h.applying = false
	if err != nil {
		h.redoStack = append(h.redoStack, entry)
		return nil, err
	}

	h.undoStack = append(h.undoStack, entry)
	h.state = entry.after
	return entry, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0 || h.open != nil
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo units available.
func (h *History) UndoCount() int {
	n := len(h.undoStack)
	if h.open != nil {
		n++
	}
	return n
}

// Reset discards both stacks. The modified flag is left alone.
func (h *History) Reset() {
	h.undoStack = nil
	h.redoStack = nil
	h.open = nil
	h.grouping = false
	h.groupName = ""
}

// Enabled reports whether edits are recorded.
func (h *History) Enabled() bool {
	return h.enabled
}

// SetEnabled turns recording on or off. Turning it off discards the
// stacks.
func (h *History) SetEnabled(on bool) {
	if !on {
		h.Reset()
	}
	h.enabled = on
}

// Modified reports whether the text changed since it was last marked
// clean.
func (h *History) Modified() bool {
	return h.state != h.clean
}

// SetModified sets the modified flag. Clearing it marks the current state
// clean.
func (h *History) SetModified(modified bool) {
	if modified {
		h.clean = -1
	} else {
		h.clean = h.state
	}
}

// SetMaxEntries changes the maximum number of undo units.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = 1000
	}
	h.maxEntries = max

	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo units.
func (h *History) MaxEntries() int {
	return h.maxEntries
}
