package snapshot

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/tidwall/gjson"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/tags"
	"github.com/dshills/cktext/internal/engine/uid"
)

func newText(content string) *engine.Text {
	return engine.New(
		engine.WithContent(content),
		engine.WithRegistry(uid.NewRegistry()),
		engine.WithDebugChecks(),
	)
}

func TestEncode(t *testing.T) {
	tx := newText("ab\ncd")
	tx.TagAdd("t", tx.MustIndex("1.1"), tx.MustIndex("2.1"))
	tx.TagConfigure("t", tags.Style{Fg: tags.Red, Bg: tags.ColorUnset, Attr: tags.AttrBold})

	data, err := Encode(tx)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !gjson.ValidBytes(data) {
		t.Fatalf("Encode() produced invalid JSON: %s", data)
	}

	for path, want := range map[string]string{
		"version":      "1",
		"text":         "ab\ncd\n",
		"state":        "normal",
		"top":          "1.0",
		"tags.#":       "2",
		"tags.1.name":  "t",
		"tags.1.fg":    "red",
		"tags.1.attr":  "bold",
		"tags.1.bg":    "",
		"tags.0.name":  "sel",
		"marks.#.name": `["current","insert"]`,
		"dump.#(kind==\"tagon\").index": "1.1",
	} {
		if got := gjson.GetBytes(data, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	ranges := gjson.GetBytes(data, "tags.1.ranges").Array()
	if len(ranges) != 2 || ranges[0].String() != "1.1" || ranges[1].String() != "2.1" {
		t.Errorf("tags.1.ranges = %v, want [1.1 2.1]", ranges)
	}
}

func TestRoundTrip(t *testing.T) {
	tx := newText("hello world\nfoo bar\n\nlast")
	tx.TagConfigure("kw", tags.Style{Fg: tags.Yellow, Bg: tags.Blue, Attr: tags.AttrNormal})
	tx.TagAdd("kw", tx.MustIndex("1.0"), tx.MustIndex("1.5"))
	tx.TagAdd("kw", tx.MustIndex("2.0"), tx.MustIndex("2.3"))
	tx.TagAdd(tags.SelTag, tx.MustIndex("1.6"), tx.MustIndex("2.2"))
	if err := tx.TagLower("kw", ""); err != nil {
		t.Fatal(err)
	}
	tx.MarkSet("m", tx.MustIndex("1.8"))
	if err := tx.SetMarkGravity("m", engine.GravityLeft); err != nil {
		t.Fatal(err)
	}
	tx.MarkSet("insert", tx.MustIndex("4.2"))
	tx.SetTop(tx.MustIndex("2.0"))
	tx.SetState(engine.StateDisabled)

	data, err := Encode(tx)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	restored, err := snap.Restore(engine.WithRegistry(uid.NewRegistry()), engine.WithDebugChecks())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	if restored.String() != tx.String() {
		t.Errorf("restored text = %q, want %q", restored.String(), tx.String())
	}
	if restored.CanUndo() {
		t.Error("restored content is undoable")
	}

	again, err := Encode(restored)
	if err != nil {
		t.Fatal(err)
	}
	snap2, err := Decode(again)
	if err != nil {
		t.Fatal(err)
	}
	// Zero-width segments at one index may come back in another order, so
	// the dump is left out.
	if diff := cmp.Diff(snap, snap2, cmpopts.IgnoreFields(Snapshot{}, "Dump")); diff != "" {
		t.Errorf("snapshot of restored text mismatch (-want +got):\n%s", diff)
	}
	if len(snap.Dump) == 0 {
		t.Error("Decode() lost the dump")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"version": `, ErrInvalid},
		{"array", `[1, 2]`, ErrInvalid},
		{"no version", `{"text": "x"}`, ErrInvalid},
		{"future version", `{"version": 2, "text": "x"}`, ErrVersion},
		{"no text", `{"version": 1}`, ErrInvalid},
		{"text not a string", `{"version": 1, "text": 5}`, ErrInvalid},
		{"unnamed tag", `{"version": 1, "text": "", "tags": [{"ranges": []}]}`, ErrInvalid},
		{"odd ranges", `{"version": 1, "text": "", "tags": [{"name": "a", "ranges": ["1.0"]}]}`, ErrInvalid},
		{"unnamed mark", `{"version": 1, "text": "", "marks": [{"index": "1.0"}]}`, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRestoreErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad range", `{"version": 1, "text": "ab\n", "tags": [{"name": "a", "ranges": ["1.0", "nowhere"]}]}`},
		{"bad color", `{"version": 1, "text": "ab\n", "tags": [{"name": "a", "fg": "mauve"}]}`},
		{"bad mark", `{"version": 1, "text": "ab\n", "marks": [{"name": "m", "index": "x.y"}]}`},
		{"bad gravity", `{"version": 1, "text": "ab\n", "marks": [{"name": "m", "index": "1.0", "gravity": "up"}]}`},
		{"bad state", `{"version": 1, "text": "ab\n", "state": "frozen"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if _, err := snap.Restore(engine.WithRegistry(uid.NewRegistry())); err == nil {
				t.Error("Restore() error = nil")
			}
		})
	}
}
