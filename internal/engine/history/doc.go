// Package history provides undo/redo for text edits.
//
// Every insertion and deletion applied to a text is recorded as a Command
// holding the positions and text involved. Commands recorded between two
// separators form one undo unit:
//
//	h := history.New(1000)
//	h.Push(history.NewInsertCommand(at, end, "hello"))
//	h.Separator()
//
//	// Undo/redo replay inverse edits through a Target.
//	h.Undo(target)
//	h.Redo(target)
//
// # Separators
//
// With automatic separators enabled (the default) a separator is also
// inserted whenever the kind of edit changes, so typing followed by
// deleting undoes in two steps.
//
// # Modified state
//
// The history tracks whether the text differs from the last state marked
// clean with SetModified(false). Undoing back to that state clears the
// flag again.
package history
