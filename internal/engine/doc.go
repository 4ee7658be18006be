// Package engine provides the document model of a terminal text widget.
//
// A Text ties together the line tree (btree), the tag table (tags), the
// mark table (marks), the index parser (indexexpr), pattern search (search)
// and the undo history (history). The widget command layer drives it with
// index expressions; the display layer is told which ranges changed.
//
// # Basic Usage
//
//	t := engine.New(engine.WithContent("hello world\nfoo bar"))
//
//	// Indices are parsed from expressions
//	at := t.MustIndex("1.6 wordend")  // 1.11
//	t.Insert(at, "!")
//
//	// Tags and marks
//	t.TagAdd("sel", t.MustIndex("1.0"), t.MustIndex("1.5"))
//	t.MarkSet("here", t.MustIndex("2.0"))
//
//	// Search with wraparound
//	m, found, _ := t.Search("bar", t.MustIndex("insert"), engine.SearchOptions{})
//
// # Display Notifications
//
// Every edit, tag change and insert cursor move reports the affected range
// through Display.Changed. Indices passed to Changed are only valid during
// the call. Tag changes additionally call the repick function so hover
// bindings can be re-evaluated.
//
// # Disabled State
//
// A disabled text ignores Insert and Delete without an error. The
// InsertChecked and DeleteChecked variants return ErrDisabled instead.
//
// # Undo/Redo
//
//	t.Insert(t.MustIndex("end"), "more")
//	t.EditSeparator()
//	t.EditUndo()
//
// Undo and redo replay edits through Insert and Delete, so displays and
// marks follow along.
//
// # Selection Retrieval
//
// StartSelection opens a session that reads the "sel" ranges in chunks.
// Editing the text aborts the session; the caller starts a new one.
//
// # Concurrency
//
// A Text is owned by the goroutine driving its widget. There is no
// internal locking.
package engine
