package btree

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/cktext/internal/engine/uid"
)

// tagged reports which characters of a 1-based line carry tag, as a
// string of '1' and '0'.
func tagged(tr *Tree, line int, tag *Tag) string {
	var sb strings.Builder
	l := tr.FindLine(line - 1)
	for c := 0; c < l.Len(); c++ {
		if tr.CharTagged(Index{Tree: tr, Line: l, Char: c}, tag) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func TestTagRange(t *testing.T) {
	names := uid.NewRegistry()
	tests := []struct {
		name    string
		ops     [][3]int // add flag, from char, to char on line 1
		want    string
		toggles int
	}{
		{"single", [][3]int{{1, 0, 5}}, "11111000000", 2},
		{"overlap", [][3]int{{1, 0, 5}, {1, 3, 8}}, "11111111000", 2},
		{"disjoint", [][3]int{{1, 0, 2}, {1, 4, 6}}, "11001100000", 4},
		{"adjacent", [][3]int{{1, 0, 2}, {1, 2, 4}}, "11110000000", 2},
		{"remove middle", [][3]int{{1, 0, 10}, {0, 3, 5}}, "11100111110", 4},
		{"remove all", [][3]int{{1, 2, 6}, {0, 0, 10}}, "00000000000", 0},
		{"remove untagged", [][3]int{{0, 2, 6}}, "00000000000", 0},
		{"empty range", [][3]int{{1, 4, 4}}, "00000000000", 0},
		{"add twice", [][3]int{{1, 1, 4}, {1, 1, 4}}, "01110000000", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTree(t, "0123456789")
			tag := NewTag(names.Intern(tt.name), 0)
			for _, op := range tt.ops {
				tr.TagRange(idx(tr, 1, op[1]), idx(tr, 1, op[2]), tag, op[0] == 1)
			}
			if got := tagged(tr, 1, tag); got != tt.want {
				t.Errorf("tagged = %s, want %s", got, tt.want)
			}
			if tag.ToggleCount() != tt.toggles {
				t.Errorf("ToggleCount() = %d, want %d", tag.ToggleCount(), tt.toggles)
			}
		})
	}
}

func TestTagRangeReportsChange(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "hello")
	tag := NewTag(names.Intern("t"), 0)
	if !tr.TagRange(idx(tr, 1, 0), idx(tr, 1, 3), tag, true) {
		t.Error("adding a new range should report a change")
	}
	if tr.TagRange(idx(tr, 1, 1), idx(tr, 1, 2), tag, true) {
		t.Error("adding inside a range should not report a change")
	}
	if tr.TagRange(idx(tr, 1, 4), idx(tr, 1, 5), tag, false) {
		t.Error("removing from untagged text should not report a change")
	}
}

func TestInsertAtTagBoundaries(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "hello")
	tag := NewTag(names.Intern("t"), 0)
	tr.TagRange(idx(tr, 1, 1), idx(tr, 1, 4), tag, true)

	// Text typed at either edge of the range stays untagged.
	tr.InsertChars(idx(tr, 1, 4), "X")
	tr.InsertChars(idx(tr, 1, 1), "Y")
	if got := allText(tr); got != "hYellXo\n" {
		t.Fatalf("text = %q", got)
	}
	if got := tagged(tr, 1, tag); got != "00111000" {
		t.Errorf("tagged = %s, want 00111000", got)
	}

	// Text typed inside the range is tagged.
	tr.InsertChars(idx(tr, 1, 3), "Z")
	if got := tagged(tr, 1, tag); got != "001111000" {
		t.Errorf("tagged = %s, want 001111000", got)
	}
}

func TestDeleteMovesToggles(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "hello world")
	tag := NewTag(names.Intern("t"), 0)
	tr.TagRange(idx(tr, 1, 3), idx(tr, 1, 8), tag, true)

	tr.DeleteChars(idx(tr, 1, 0), idx(tr, 1, 5))
	if got := tagged(tr, 1, tag); got != "1110000" {
		t.Errorf("tagged = %s, want 1110000", got)
	}

	// Deleting the whole range cancels the toggles.
	tr.DeleteChars(idx(tr, 1, 0), idx(tr, 1, 3))
	if tag.ToggleCount() != 0 {
		t.Errorf("ToggleCount() = %d, want 0", tag.ToggleCount())
	}
	if got := allText(tr); got != "rld\n" {
		t.Errorf("text = %q", got)
	}
}

func TestDeleteToEndRemovesTags(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "ab\ncd")
	tag := NewTag(names.Intern("t"), 0)
	tr.TagRange(tr.Start(), tr.End(), tag, true)
	if !tr.CharTagged(idx(tr, 2, 2), tag) {
		t.Fatal("final newline should be tagged")
	}

	tr.DeleteChars(tr.Start(), tr.End())
	if got := allText(tr); got != "\n" {
		t.Errorf("text = %q, want a lone newline", got)
	}
	if tag.ToggleCount() != 0 {
		t.Errorf("ToggleCount() = %d, want 0", tag.ToggleCount())
	}
	if len(tr.GetTags(tr.Start())) != 0 {
		t.Error("surviving newline still carries tags")
	}
}

func TestGetTags(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "abcdef")
	low := NewTag(names.Intern("low"), 0)
	mid := NewTag(names.Intern("mid"), 1)
	high := NewTag(names.Intern("high"), 2)
	tr.TagRange(idx(tr, 1, 0), idx(tr, 1, 4), high, true)
	tr.TagRange(idx(tr, 1, 2), idx(tr, 1, 6), low, true)
	tr.TagRange(idx(tr, 1, 3), idx(tr, 1, 4), mid, true)

	tests := []struct {
		char int
		want []*Tag
	}{
		{0, []*Tag{high}},
		{2, []*Tag{low, high}},
		{3, []*Tag{low, mid, high}},
		{5, []*Tag{low}},
		{6, []*Tag{}},
	}
	for _, tt := range tests {
		got := tr.GetTags(idx(tr, 1, tt.char))
		if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b *Tag) bool { return a == b })); diff != "" {
			t.Errorf("GetTags(1.%d) mismatch (-want +got):\n%s", tt.char, diff)
		}
	}
}

func TestTagsAcrossManyLines(t *testing.T) {
	names := uid.NewRegistry()
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	tr := newTree(t, sb.String())
	tag := NewTag(names.Intern("t"), 0)
	other := NewTag(names.Intern("other"), 1)
	tr.TagRange(idx(tr, 101, 2), idx(tr, 401, 0), tag, true)
	tr.TagRange(idx(tr, 10, 0), idx(tr, 20, 0), other, true)

	tests := []struct {
		line, char int
		want       bool
	}{
		{1, 0, false},
		{101, 1, false},
		{101, 2, true},
		{250, 0, true},
		{400, 3, true},
		{401, 0, false},
		{499, 0, false},
	}
	for _, tt := range tests {
		if got := tr.CharTagged(idx(tr, tt.line, tt.char), tag); got != tt.want {
			t.Errorf("CharTagged(%d.%d) = %v, want %v", tt.line, tt.char, got, tt.want)
		}
	}

	// Cut out the middle of the range; the ends stay tagged.
	tr.DeleteChars(idx(tr, 50, 0), idx(tr, 300, 0))
	if !tr.CharTagged(idx(tr, 100, 0), tag) {
		t.Error("line 100 should still be tagged after the delete")
	}
	if tr.CharTagged(idx(tr, 49, 0), tag) {
		t.Error("line 49 should not be tagged")
	}
	if other.ToggleCount() != 2 {
		t.Errorf("other ToggleCount() = %d, want 2", other.ToggleCount())
	}

	tr.RemoveTag(tag)
	if tag.ToggleCount() != 0 {
		t.Errorf("ToggleCount() after RemoveTag = %d", tag.ToggleCount())
	}
}

func TestTagSearch(t *testing.T) {
	names := uid.NewRegistry()
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	tr := newTree(t, sb.String())
	a := NewTag(names.Intern("a"), 0)
	b := NewTag(names.Intern("b"), 1)
	tr.TagRange(idx(tr, 3, 1), idx(tr, 3, 4), a, true)
	tr.TagRange(idx(tr, 150, 0), idx(tr, 160, 2), a, true)
	tr.TagRange(idx(tr, 80, 0), idx(tr, 81, 0), b, true)

	collect := func(s *TagSearch) []string {
		var out []string
		for s.Next() {
			out = append(out, fmt.Sprintf("%s %s %s", s.Index, s.Segment.Kind(), s.Tag.Name))
		}
		return out
	}

	got := collect(tr.StartSearch(tr.Start(), tr.End(), a))
	want := []string{"3.1 toggleOn a", "3.4 toggleOff a", "150.0 toggleOn a", "160.2 toggleOff a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("search for a mismatch (-want +got):\n%s", diff)
	}

	got = collect(tr.StartSearch(tr.Start(), tr.End(), nil))
	want = []string{
		"3.1 toggleOn a", "3.4 toggleOff a",
		"80.0 toggleOn b", "81.0 toggleOff b",
		"150.0 toggleOn a", "160.2 toggleOff a",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("search for all tags mismatch (-want +got):\n%s", diff)
	}

	// A toggle at the start index is skipped, one at the stop index is not.
	got = collect(tr.StartSearch(idx(tr, 3, 1), idx(tr, 150, 0), a))
	want = []string{"3.4 toggleOff a", "150.0 toggleOn a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bounded search mismatch (-want +got):\n%s", diff)
	}

	var back []string
	s := tr.StartSearchBack(tr.End(), idx(tr, 3, 4), a)
	for s.Prev() {
		back = append(back, fmt.Sprintf("%s %s", s.Index, s.Segment.Kind()))
	}
	want = []string{"160.2 toggleOff", "150.0 toggleOn", "3.4 toggleOff"}
	if diff := cmp.Diff(want, back); diff != "" {
		t.Errorf("backward search mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "abc\ndef")
	tag := NewTag(names.Intern("t"), 0)
	m := NewMark(names.Intern("m"), GravityRight)
	tr.TagRange(idx(tr, 1, 1), idx(tr, 2, 1), tag, true)
	tr.PlaceMark(m, idx(tr, 2, 0))

	var got []string
	tr.Walk(idx(tr, 1, 1), idx(tr, 2, 1), func(at Index, s *Segment, from, to int) bool {
		switch s.Kind() {
		case CharSegment:
			got = append(got, fmt.Sprintf("%s text %q", at, string([]rune(s.Text())[from:to])))
		case RightMarkSegment, LeftMarkSegment:
			got = append(got, fmt.Sprintf("%s mark %s", at, s.Mark().Name))
		default:
			got = append(got, fmt.Sprintf("%s %s %s", at, s.Kind(), s.Tag().Name))
		}
		return true
	})
	want := []string{
		`1.1 toggleOn t`,
		`1.1 text "bc\n"`,
		`2.0 mark m`,
		`2.0 text "d"`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk mismatch (-want +got):\n%s", diff)
	}
}
