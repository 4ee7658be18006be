package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrDisabled indicates an edit was attempted while the text is
	// disabled. Only the ...Checked variants return it.
	ErrDisabled = errors.New("engine: text is disabled")

	// ErrBadOperator indicates an unknown comparison operator.
	ErrBadOperator = errors.New("engine: bad comparison operator")

	// ErrBadState indicates an unknown state name.
	ErrBadState = errors.New("engine: bad state")

	// ErrNoSelection indicates there is no selection to retrieve.
	ErrNoSelection = errors.New("engine: no selection")

	// ErrSelectionAborted indicates the text was edited during a
	// selection retrieval; the caller must start a new one.
	ErrSelectionAborted = errors.New("engine: selection retrieval aborted")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)
