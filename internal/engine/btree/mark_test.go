package btree

import (
	"testing"

	"github.com/dshills/cktext/internal/engine/uid"
)

func TestMarkGravity(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "hello world")
	right := NewMark(names.Intern("right"), GravityRight)
	left := NewMark(names.Intern("left"), GravityLeft)
	tr.PlaceMark(right, idx(tr, 1, 5))
	tr.PlaceMark(left, idx(tr, 1, 5))

	tr.InsertChars(idx(tr, 1, 5), "abc")

	if got := tr.MarkIndex(right).String(); got != "1.8" {
		t.Errorf("right gravity mark = %s, want 1.8", got)
	}
	if got := tr.MarkIndex(left).String(); got != "1.5" {
		t.Errorf("left gravity mark = %s, want 1.5", got)
	}
	if got := allText(tr); got != "helloabc world\n" {
		t.Errorf("text = %q", got)
	}
}

func TestMarkSurvivesDelete(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "ab\ncd\nef")
	inside := NewMark(names.Intern("inside"), GravityRight)
	after := NewMark(names.Intern("after"), GravityLeft)
	tr.PlaceMark(inside, idx(tr, 2, 1))
	tr.PlaceMark(after, idx(tr, 3, 1))

	tr.DeleteChars(idx(tr, 1, 1), idx(tr, 3, 0))

	if got := tr.MarkIndex(inside).String(); got != "1.1" {
		t.Errorf("mark inside deleted range = %s, want 1.1", got)
	}
	if got := tr.MarkIndex(after).String(); got != "1.2" {
		t.Errorf("mark after deleted range = %s, want 1.2", got)
	}
	if inside.Line() != tr.FirstLine() || after.Line() != tr.FirstLine() {
		t.Error("marks do not point at the joined line")
	}
}

func TestMarkAtEnd(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "abc")
	m := NewMark(names.Intern("m"), GravityRight)
	tr.PlaceMark(m, tr.End())
	if got := tr.MarkIndex(m).String(); got != "2.0" {
		t.Errorf("mark = %s, want 2.0", got)
	}

	tr.InsertChars(tr.End(), "\nxyz")
	if got := tr.MarkIndex(m).String(); got != "3.0" {
		t.Errorf("mark after insert = %s, want 3.0", got)
	}
}

func TestPlaceMarkMoves(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "hello\nworld")
	m := NewMark(names.Intern("m"), GravityRight)
	if m.Linked() {
		t.Fatal("new mark should not be linked")
	}
	tr.PlaceMark(m, idx(tr, 1, 2))
	tr.PlaceMark(m, idx(tr, 2, 3))
	if got := tr.MarkIndex(m).String(); got != "2.3" {
		t.Errorf("mark = %s, want 2.3", got)
	}

	// Marks never split character segments for good.
	for s := tr.FirstLine().Segments(); s != nil; s = s.Next() {
		if s.IsMark() {
			t.Error("first line still holds a mark")
		}
	}

	tr.UnlinkMark(m)
	if m.Linked() {
		t.Error("unlinked mark reports being linked")
	}
	tr.Check()
}

func TestSetMarkGravity(t *testing.T) {
	names := uid.NewRegistry()
	tr := newTree(t, "abcd")
	m := NewMark(names.Intern("m"), GravityRight)
	tr.PlaceMark(m, idx(tr, 1, 2))

	tr.SetMarkGravity(m, GravityLeft)
	if m.Gravity() != GravityLeft {
		t.Fatalf("Gravity() = %s, want left", m.Gravity())
	}
	if got := tr.MarkIndex(m).String(); got != "1.2" {
		t.Errorf("mark moved to %s", got)
	}

	tr.InsertChars(idx(tr, 1, 2), "xx")
	if got := tr.MarkIndex(m).String(); got != "1.2" {
		t.Errorf("left gravity mark = %s, want 1.2", got)
	}

	tr.SetMarkGravity(m, GravityRight)
	tr.InsertChars(idx(tr, 1, 2), "yy")
	if got := tr.MarkIndex(m).String(); got != "1.4" {
		t.Errorf("right gravity mark = %s, want 1.4", got)
	}
}
