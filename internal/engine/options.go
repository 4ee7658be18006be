package engine

import (
	"github.com/dshills/cktext/internal/engine/indexexpr"
	"github.com/dshills/cktext/internal/engine/uid"
	"github.com/dshills/cktext/internal/logging"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = 1000
)

// Option configures a Text during creation.
type Option func(*Text)

// WithContent sets the initial content. It is not recorded in the undo
// history and does not mark the text modified.
func WithContent(content string) Option {
	return func(t *Text) {
		t.initContent = content
	}
}

// WithRegistry sets the registry tag and mark names are interned in. The
// default is uid.Default().
func WithRegistry(r *uid.Registry) Option {
	return func(t *Text) {
		t.names = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Text) {
		if l != nil {
			t.baseLog = l
		}
	}
}

// WithDisplay sets the collaborator told about changed ranges.
func WithDisplay(d Display) Option {
	return func(t *Text) {
		t.display = d
	}
}

// WithRepick sets the function called when tag changes may alter what is
// under the mouse pointer.
func WithRepick(fn func()) Option {
	return func(t *Text) {
		t.repick = fn
	}
}

// WithPoint enables "@x,y" indices.
func WithPoint(fn indexexpr.PointFunc) Option {
	return func(t *Text) {
		t.point = fn
	}
}

// WithState sets the initial state.
func WithState(s State) Option {
	return func(t *Text) {
		t.state = s
	}
}

// WithUndo turns undo recording on or off. It is on by default.
func WithUndo(on bool) Option {
	return func(t *Text) {
		t.undo = on
	}
}

// WithMaxUndoEntries sets the maximum number of undo units.
func WithMaxUndoEntries(max int) Option {
	return func(t *Text) {
		if max > 0 {
			t.maxUndoEntries = max
		}
	}
}

// WithAutoSeparators controls whether undo units are split whenever
// inserting switches to deleting or back.
func WithAutoSeparators(on bool) Option {
	return func(t *Text) {
		t.autoSeparators = on
	}
}

// WithExportSelection controls whether the selection may be retrieved
// with StartSelection.
func WithExportSelection(on bool) Option {
	return func(t *Text) {
		t.exportSelection = on
	}
}

// WithDebugChecks verifies the line tree after every change.
func WithDebugChecks() Option {
	return func(t *Text) {
		t.debugChecks = true
	}
}
