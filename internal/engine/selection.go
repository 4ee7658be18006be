package engine

import (
	"io"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/tags"
)

// SelectionSession retrieves the selected text in chunks. Any insertion
// or deletion aborts every open session; Read then fails with
// ErrSelectionAborted and the caller must start over.
type SelectionSession struct {
	ID uuid.UUID

	text   *Text
	serial uint64
	ranges []Range
	cur    int
	at     Index
}

// StartSelection opens a session over the current "sel" ranges.
func (t *Text) StartSelection() (*SelectionSession, error) {
	if !t.exportSelection {
		return nil, ErrNoSelection
	}
	ranges := t.TagRanges(tags.SelTag)
	if len(ranges) == 0 {
		return nil, ErrNoSelection
	}
	s := &SelectionSession{
		ID:     uuid.New(),
		text:   t,
		serial: t.editSerial,
		ranges: ranges,
		at:     ranges[0].Start,
	}
	t.log.WithField("session", s.ID).Debug("selection retrieval started: %d ranges", len(ranges))
	return s, nil
}

// Read returns up to max characters of the selection following what
// earlier calls returned. It returns io.EOF once everything was read.
func (s *SelectionSession) Read(max int) (string, error) {
	if s.serial != s.text.editSerial {
		s.text.log.WithField("session", s.ID).Debug("selection retrieval aborted")
		return "", ErrSelectionAborted
	}
	var out []byte
	for max > 0 && s.cur < len(s.ranges) {
		end := s.ranges[s.cur].End
		step := s.at.ForwardChars(max)
		if btree.Compare(step, end) < 0 {
			out = append(out, s.text.Get(s.at, step)...)
			s.at = step
			break
		}
		chunk := s.text.Get(s.at, end)
		out = append(out, chunk...)
		max -= utf8.RuneCountInString(chunk)
		s.cur++
		if s.cur < len(s.ranges) {
			s.at = s.ranges[s.cur].Start
		}
	}
	if len(out) == 0 {
		return "", io.EOF
	}
	return string(out), nil
}

// Aborted reports whether the text was edited since the session started.
func (s *SelectionSession) Aborted() bool {
	return s.serial != s.text.editSerial
}
