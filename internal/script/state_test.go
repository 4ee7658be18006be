package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/uid"
)

func newState(t *testing.T, opts ...Option) (*State, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{
		WithOutput(&out),
		WithEngineOptions(engine.WithRegistry(uid.NewRegistry()), engine.WithDebugChecks()),
	}, opts...)
	s := New(opts...)
	t.Cleanup(s.Close)
	return s, &out
}

// run executes code and returns what it printed, one entry per line.
func run(t *testing.T, s *State, out *bytes.Buffer, code string) []string {
	t.Helper()
	out.Reset()
	if err := s.DoString(context.Background(), code); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
}

func TestScenario(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("hello world\nfoo bar")
print(t:index("1.6"))
print(t:index("1.6 wordend"))
t:tag_add("sel", "1.0", "1.5")
print(table.concat(t:tag_names("1.2"), ","))
t:delete("1.0", "1.6")
print(t:get("1.0", "1.end"))
print(t:line_count())
`)
	want := []string{"1.6", "1.11", "sel", "world", "2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestHugeIndexCounts(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("hello world\nfoo bar")
print(t:index("1.5 + 9223372036854775807 chars"))
print(t:index("1.0 - -9223372036854775808 chars"))
print(t:index("2.0 + 9223372036854775807 lines"))
t:insert("1.5 + 9223372036854775807 chars", "!")
print(t:get("2.0", "2.end"))
`)
	want := []string{"3.0", "3.0", "3.0", "foo bar!"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBind(t *testing.T) {
	s, out := newState(t)
	tx := engine.New(engine.WithRegistry(uid.NewRegistry()))
	s.Bind("doc", tx)

	run(t, s, out, `doc:insert("end", "abc", "bold")`)
	if got := tx.String(); got != "abc\n" {
		t.Errorf("String() = %q, want %q", got, "abc\n")
	}
	if diff := cmp.Diff([]string{"bold"}, tx.TagsAt(tx.MustIndex("1.1"))); diff != "" {
		t.Errorf("TagsAt() mismatch (-want +got):\n%s", diff)
	}
	if len(s.Texts()) != 1 || s.Texts()[0] != tx {
		t.Errorf("Texts() = %v, want the bound text", s.Texts())
	}
}

func TestMarksAndTags(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("hello world")
t:mark_set("m", "1.5")
print(t:mark_gravity("m"))
print(t:mark_gravity("m", "left"))
t:insert("1.5", "XYZ")
print(t:index("m"))
print(table.concat(t:mark_names(), ","))
print(t:mark_next("1.1"))
print(t:mark_previous("end"))

t:tag_add("x", "1.0", "1.2")
t:tag_add("x", "1.6")
print(table.concat(t:tag_ranges("x"), " "))
print(t:tag_nextrange("x", "1.1"))
print(t:tag_prevrange("x", "end"))
print(t:tag_nextrange("nope", "1.0"))

local st = t:tag_configure("x", {fg = "red", attr = "bold underline"})
print(st.fg, st.bg == "", st.attr)
t:tag_raise("sel")
print(table.concat(t:tag_names(), ","))
t:tag_lower("sel", "x")
print(table.concat(t:tag_names(), ","))
t:tag_delete("x")
print(#t:tag_ranges("x"))
`)
	want := []string{
		"right",
		"left",
		"1.5",
		"current,insert,m",
		"m",
		"m",
		"1.0 1.2 1.6 1.7",
		"1.6\t1.7",
		"1.6\t1.7",
		"nil",
		"red\ttrue\tbold underline",
		"x,sel",
		"sel,x",
		"0",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTagConfigureMerges(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("abc")
local st = t:tag_configure("x", {fg = "red"})
print(st.fg, st.attr == "")
st = t:tag_configure("x", {attr = "bold"})
print(st.fg, st.attr)
st = t:tag_configure("x", {fg = "", bg = "blue"})
print(st.fg == "", st.bg, st.attr)
st = t:tag_configure("x")
print(st.fg == "", st.bg, st.attr)
`)
	want := []string{"red\ttrue", "red\tbold", "true\tblue\tbold", "true\tblue\tbold"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSearchAndDump(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("one Two\nthree two")
print(t:search("two", "1.0"))
print(t:search("two", "1.0", {nocase = true}))
print(t:search("t[a-z]+", "2.0", {regexp = true, backwards = true}))
print(t:search("zzz", "1.0"))
print(t:search("two", "2.0", {stop = "2.5"}))
print(t:compare("1.0", "<", "2.0"), t:compare("end", "==", "3.0"))

t:mark_set("x", "1.3")
for _, e in ipairs(t:dump("1.1", "1.end", "text mark")) do
  print(e.kind, e.value, e.index)
end
`)
	want := []string{
		"2.6\t3",
		"1.4\t3",
		"2.6\t3",
		"nil",
		"nil",
		"true\ttrue",
		"text\tne\t1.1",
		"mark\tx\t1.3",
		"text\t Two\t1.3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestEditing(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("abc")
print(t:edit_modified())
t:insert("1.3", "def")
t:edit_separator()
t:replace("1.0", "1.1", "A")
print(t:get("1.0", "1.end"), t:edit_modified())
print(t:edit_undo(), t:get("1.0", "1.end"))
print(t:edit_undo(), t:get("1.0", "1.end"))
print(t:edit_undo())
print(t:edit_redo(), t:get("1.0", "1.end"))
t:edit_reset()
print(t:edit_redo())
print(t:edit_modified(false))

print(t:state("disabled"))
t:insert("1.0", "ignored")
t:delete("1.0")
print(t:get("1.0", "1.end"))
t:state("normal")
t:delete("1.0")
print(t:get("1.0", "1.end"))

print(t:yview("1.2"))
`)
	want := []string{
		"false",
		"Abcdef\ttrue",
		"true\tabcdef",
		"true\tabc",
		"false",
		"true\tabcdef",
		"false",
		"false",
		"disabled",
		"abcdef",
		"bcdef",
		"1.2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectionGet(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
local t = text.new("hello\nworld")
print(t:selection_get())
t:tag_add("sel", "1.1", "1.3")
t:tag_add("sel", "2.2", "2.4")
print(t:selection_get())
`)
	want := []string{"nil", "elrl"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"bad index", `text.new():get("bogus")`, `bad text index "bogus"`},
		{"bad operator", `text.new():compare("1.0", "<>", "1.0")`, "bad comparison operator"},
		{"unknown mark", `text.new():mark_gravity("nope")`, "unknown mark"},
		{"bad gravity", `local t = text.new() t:mark_set("m", "1.0") t:mark_gravity("m", "up")`, "bad mark gravity"},
		{"bad color", `text.new():tag_configure("x", {fg = "mauve"})`, "mauve"},
		{"protected tag", `text.new():tag_delete("sel")`, "cannot be deleted"},
		{"bad dump kind", `text.new():dump("1.0", "end", "pixels")`, "unknown dump kind"},
		{"bad regexp", `text.new("x"):search("(", "1.0", {regexp = true})`, "search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newState(t)
			err := s.DoString(context.Background(), tt.code)
			if err == nil {
				t.Fatal("DoString() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DoString() error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	s, out := newState(t)
	got := run(t, s, out, `
print(dofile == nil, loadstring == nil, require == nil)
print(io == nil, os == nil, debug == nil)
print(string.upper("ok"), math.max(1, 2))
`)
	want := []string{"true\ttrue\ttrue", "true\ttrue\ttrue", "OK\t2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeout(t *testing.T) {
	s, _ := newState(t, WithTimeout(50*time.Millisecond))
	err := s.DoString(context.Background(), `while true do end`)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("DoString() error = %v, want ErrTimeout", err)
	}
}

func TestDoFileAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edit.lua")
	if err := os.WriteFile(path, []byte(`doc = text.new("from file")`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newState(t)
	if err := s.DoFile(context.Background(), path); err != nil {
		t.Fatalf("DoFile() error = %v", err)
	}
	if n := len(s.Texts()); n != 1 {
		t.Fatalf("Texts() has %d texts, want 1", n)
	}
	if got := s.Texts()[0].String(); got != "from file\n" {
		t.Errorf("String() = %q", got)
	}

	s.Close()
	if err := s.DoString(context.Background(), `x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close error = %v, want ErrStateClosed", err)
	}
}
