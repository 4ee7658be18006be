package history

import (
	"fmt"
	"unicode/utf8"
)

// Kind classifies commands for automatic separators.
type Kind int

const (
	KindInsert Kind = iota
	KindDelete
	KindCompound
)

// Command represents an edit that can be executed and undone.
type Command interface {
	// Execute applies the edit again.
	Execute(t Target) error

	// Undo reverses the edit.
	Undo(t Target) error

	// Kind reports the edit kind.
	Kind() Kind

	// Description returns a human-readable description of the command.
	Description() string
}

// InsertCommand records an insertion of Text at At. End is the position
// just past the inserted text.
type InsertCommand struct {
	At   Pos
	End  Pos
	Text string
}

// NewInsertCommand creates a new insert command.
func NewInsertCommand(at, end Pos, text string) *InsertCommand {
	return &InsertCommand{At: at, End: end, Text: text}
}

// Execute inserts the text again.
func (c *InsertCommand) Execute(t Target) error {
	if err := t.InsertText(c.At, c.Text); err != nil {
		return fmt.Errorf("redo insert at %s: %w", c.At, err)
	}
	return nil
}

// Undo removes the inserted text.
func (c *InsertCommand) Undo(t Target) error {
	if err := t.DeleteText(c.At, c.End); err != nil {
		return fmt.Errorf("undo insert at %s: %w", c.At, err)
	}
	return nil
}

// Kind returns KindInsert.
func (c *InsertCommand) Kind() Kind { return KindInsert }

// Description returns a human-readable description.
func (c *InsertCommand) Description() string {
	switch c.Text {
	case "\n":
		return "Insert newline"
	case "\t":
		return "Insert tab"
	}
	n := utf8.RuneCountInString(c.Text)
	if n <= 20 {
		return fmt.Sprintf("Insert %q", c.Text)
	}
	return fmt.Sprintf("Insert %d characters", n)
}

// DeleteCommand records the deletion of Text from [From, To).
type DeleteCommand struct {
	From Pos
	To   Pos
	Text string
}

// NewDeleteCommand creates a new delete command.
func NewDeleteCommand(from, to Pos, text string) *DeleteCommand {
	return &DeleteCommand{From: from, To: to, Text: text}
}

// Execute deletes the range again.
func (c *DeleteCommand) Execute(t Target) error {
	if err := t.DeleteText(c.From, c.To); err != nil {
		return fmt.Errorf("redo delete at %s: %w", c.From, err)
	}
	return nil
}

// Undo restores the deleted text.
func (c *DeleteCommand) Undo(t Target) error {
	if err := t.InsertText(c.From, c.Text); err != nil {
		return fmt.Errorf("undo delete at %s: %w", c.From, err)
	}
	return nil
}

// Kind returns KindDelete.
func (c *DeleteCommand) Kind() Kind { return KindDelete }

// Description returns a human-readable description.
func (c *DeleteCommand) Description() string {
	n := utf8.RuneCountInString(c.Text)
	if n == 1 {
		return "Delete character"
	}
	return fmt.Sprintf("Delete %d characters", n)
}

// CompoundCommand groups multiple commands as one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command

	// States before and after the group, for the modified flag.
	before, after int64
}

// NewCompoundCommand creates a new compound command.
func NewCompoundCommand(name string, commands ...Command) *CompoundCommand {
	return &CompoundCommand{
		Name:     name,
		Commands: commands,
	}
}

// Execute runs all commands in order.
func (c *CompoundCommand) Execute(t Target) error {
	for i, cmd := range c.Commands {
		if err := cmd.Execute(t); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Undo(t)
			}
			return fmt.Errorf("compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Undo reverses all commands in reverse order.
func (c *CompoundCommand) Undo(t Target) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(t); err != nil {
			return fmt.Errorf("undo compound command '%s' step %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Kind returns KindCompound.
func (c *CompoundCommand) Kind() Kind { return KindCompound }

// Description returns the compound command's name.
func (c *CompoundCommand) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d operations", len(c.Commands))
}

// Add adds a command to the compound command.
func (c *CompoundCommand) Add(cmd Command) {
	c.Commands = append(c.Commands, cmd)
}
