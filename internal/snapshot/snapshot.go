// Package snapshot saves a text as JSON and restores it.
//
// A snapshot looks like
//
//	{
//	  "version": 1,
//	  "text": "hello world\n",
//	  "state": "normal",
//	  "top": "1.0",
//	  "tags": [{"name": "sel", "priority": 0, "fg": "", "bg": "", "attr": "reverse", "ranges": ["1.0", "1.5"]}],
//	  "marks": [{"name": "insert", "index": "1.0", "gravity": "right"}],
//	  "dump": [{"kind": "tagon", "value": "sel", "index": "1.0"}, ...]
//	}
//
// "dump" is the output of a full engine.Text.Dump and is informational;
// Restore rebuilds the text from "text", "tags" and "marks".
package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/tags"
)

// Version is the snapshot format version written by Encode.
const Version = 1

var (
	// ErrInvalid is returned for data that is not a snapshot.
	ErrInvalid = errors.New("snapshot: invalid data")

	// ErrVersion is returned for snapshots of an unknown format version.
	ErrVersion = errors.New("snapshot: unsupported version")
)

// Snapshot is a decoded snapshot.
type Snapshot struct {
	Version int
	Text    string
	State   string
	Top     string
	Tags    []Tag
	Marks   []Mark
	Dump    []engine.DumpEntry
}

// Tag is one tag of a snapshot, in increasing priority order.
type Tag struct {
	Name     string
	Priority int
	Fg       string
	Bg       string
	Attr     string
	Ranges   []string // start and end indices, alternating
}

// Mark is one mark of a snapshot.
type Mark struct {
	Name    string
	Index   string
	Gravity string
}

// Encode writes t as JSON.
func Encode(t *engine.Text) ([]byte, error) {
	start, end := t.Tree().Start(), t.Tree().End()
	doc := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err == nil {
			doc, err = sjson.SetBytes(doc, path, value)
		}
	}

	set("version", Version)
	set("text", t.Get(start, end))
	set("state", t.State().String())
	set("top", t.Top().String())
	set("tags", []any{})
	for i, name := range t.TagNames() {
		style, serr := t.TagStyle(name)
		if serr != nil {
			return nil, serr
		}
		ranges := []string{}
		for _, r := range t.TagRanges(name) {
			ranges = append(ranges, r.Start.String(), r.End.String())
		}
		set("tags.-1", map[string]any{
			"name":     name,
			"priority": i,
			"fg":       style.Fg.String(),
			"bg":       style.Bg.String(),
			"attr":     style.Attr.String(),
			"ranges":   ranges,
		})
	}
	set("marks", []any{})
	for _, name := range t.MarkNames() {
		idx, merr := t.MarkIndex(name)
		if merr != nil {
			return nil, merr
		}
		g, _ := t.MarkGravity(name)
		set("marks.-1", map[string]any{
			"name":    name,
			"index":   idx.String(),
			"gravity": g.String(),
		})
	}
	set("dump", []any{})
	for _, e := range t.Dump(start, end, engine.DumpAll) {
		set("dump.-1", map[string]any{
			"kind":  e.Kind,
			"value": e.Value,
			"index": e.Index,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return doc, nil
}

// Decode parses a snapshot.
func Decode(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalid)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: not an object", ErrInvalid)
	}
	version := root.Get("version")
	if !version.Exists() {
		return nil, fmt.Errorf("%w: no version", ErrInvalid)
	}
	if version.Int() != Version {
		return nil, fmt.Errorf("%w %d", ErrVersion, version.Int())
	}
	text := root.Get("text")
	if text.Type != gjson.String {
		return nil, fmt.Errorf("%w: text must be a string", ErrInvalid)
	}

	s := &Snapshot{
		Version: int(version.Int()),
		Text:    text.String(),
		State:   root.Get("state").String(),
		Top:     root.Get("top").String(),
	}
	for _, tr := range root.Get("tags").Array() {
		tag := Tag{
			Name:     tr.Get("name").String(),
			Priority: int(tr.Get("priority").Int()),
			Fg:       tr.Get("fg").String(),
			Bg:       tr.Get("bg").String(),
			Attr:     tr.Get("attr").String(),
		}
		if tag.Name == "" {
			return nil, fmt.Errorf("%w: tag without a name", ErrInvalid)
		}
		for _, r := range tr.Get("ranges").Array() {
			tag.Ranges = append(tag.Ranges, r.String())
		}
		if len(tag.Ranges)%2 != 0 {
			return nil, fmt.Errorf("%w: tag %q has an odd number of range ends", ErrInvalid, tag.Name)
		}
		s.Tags = append(s.Tags, tag)
	}
	for _, mr := range root.Get("marks").Array() {
		m := Mark{
			Name:    mr.Get("name").String(),
			Index:   mr.Get("index").String(),
			Gravity: mr.Get("gravity").String(),
		}
		if m.Name == "" {
			return nil, fmt.Errorf("%w: mark without a name", ErrInvalid)
		}
		s.Marks = append(s.Marks, m)
	}
	root.Get("dump").ForEach(func(_, e gjson.Result) bool {
		s.Dump = append(s.Dump, engine.DumpEntry{
			Kind:  e.Get("kind").String(),
			Value: e.Get("value").String(),
			Index: e.Get("index").String(),
		})
		return true
	})
	return s, nil
}

// Restore builds a new text from s. opts are passed to engine.New; the
// restored content is not part of the undo history.
func (s *Snapshot) Restore(opts ...engine.Option) (*engine.Text, error) {
	content := strings.TrimSuffix(s.Text, "\n")
	t := engine.New(append(opts, engine.WithContent(content))...)

	for _, tag := range s.Tags {
		style, err := tagStyle(tag)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag.Name, err)
		}
		t.TagConfigure(tag.Name, style)
		for i := 0; i < len(tag.Ranges); i += 2 {
			i1, err := t.Index(tag.Ranges[i])
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w", tag.Name, err)
			}
			i2, err := t.Index(tag.Ranges[i+1])
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w", tag.Name, err)
			}
			t.TagAdd(tag.Name, i1, i2)
		}
	}
	for i, tag := range s.Tags {
		if err := t.TagSetPriority(tag.Name, i); err != nil {
			return nil, err
		}
	}

	for _, m := range s.Marks {
		idx, err := t.Index(m.Index)
		if err != nil {
			return nil, fmt.Errorf("mark %q: %w", m.Name, err)
		}
		t.MarkSet(m.Name, idx)
		if m.Gravity != "" {
			g, err := engine.ParseGravity(m.Gravity)
			if err != nil {
				return nil, err
			}
			if err := t.SetMarkGravity(m.Name, g); err != nil {
				return nil, err
			}
		}
	}

	if s.Top != "" {
		top, err := t.Index(s.Top)
		if err != nil {
			return nil, fmt.Errorf("top: %w", err)
		}
		t.SetTop(top)
	}
	if s.State != "" {
		state, err := engine.ParseState(s.State)
		if err != nil {
			return nil, err
		}
		t.SetState(state)
	}
	return t, nil
}

func tagStyle(tag Tag) (tags.Style, error) {
	var st tags.Style
	var err error
	if st.Fg, err = tags.ParseColor(tag.Fg); err != nil {
		return st, err
	}
	if st.Bg, err = tags.ParseColor(tag.Bg); err != nil {
		return st, err
	}
	if st.Attr, err = tags.ParseAttr(tag.Attr); err != nil {
		return st, err
	}
	return st, nil
}
