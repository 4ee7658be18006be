package history

// GroupScope provides a convenient way to group commands using defer.
// Usage:
//
//	func replace(h *History) {
//	    defer h.GroupScope("Replace").End()
//	    // ... delete, then insert ...
//	}
type GroupScope struct {
	history *History
	active  bool
}

// BeginGroup closes the current undo unit and starts a named one that
// collects every command until EndGroup, regardless of separators.
func (h *History) BeginGroup(name string) {
	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}
	h.closeOpen()
	h.grouping = true
	h.groupName = name
}

// EndGroup finishes a command group.
func (h *History) EndGroup() {
	if !h.grouping {
		return
	}
	h.grouping = false
	h.groupName = ""
	h.closeOpen()
}

// IsGrouping returns true if currently in a command group.
func (h *History) IsGrouping() bool {
	return h.grouping
}

// GroupScope starts a new group scope.
// Call End() or use with defer to properly close the group.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{
		history: h,
		active:  true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Transaction runs fn within a group. Edits fn applied before failing are
// still recorded, since they remain in the text.
func (h *History) Transaction(name string, fn func() error) error {
	defer h.GroupScope(name).End()
	return fn()
}
