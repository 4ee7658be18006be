package history

import "fmt"

// Pos is a position recorded in history: a 0-based line number and a
// character offset within the line. Positions stay valid because undo and
// redo replay edits in exactly the reverse order they were applied.
type Pos struct {
	Line int
	Char int
}

// String renders the position the way text indices are printed.
func (p Pos) String() string {
	return fmt.Sprintf("%d.%d", p.Line+1, p.Char)
}

// Target applies the edits replayed by undo and redo.
type Target interface {
	// InsertText inserts text before at.
	InsertText(at Pos, text string) error

	// DeleteText deletes the characters in [from, to).
	DeleteText(from, to Pos) error
}
