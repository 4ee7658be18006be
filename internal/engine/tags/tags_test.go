package tags

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/uid"
)

func newTable(t *testing.T, text string) (*Table, *btree.Tree) {
	t.Helper()
	tree := btree.New(btree.WithDebugChecks())
	tree.InsertChars(tree.Start(), text)
	return NewTable(tree, uid.NewRegistry()), tree
}

func TestNewTableHasSel(t *testing.T) {
	tab, _ := newTable(t, "")
	sel := tab.Sel()
	if sel == nil {
		t.Fatal("Sel() = nil")
	}
	if sel.Priority() != 0 {
		t.Errorf("sel priority = %d, want 0", sel.Priority())
	}
	if err := tab.Delete(SelTag); !errors.Is(err, ErrProtectedTag) {
		t.Errorf("Delete(sel) = %v, want ErrProtectedTag", err)
	}
	if tab.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tab.Len())
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	tab, _ := newTable(t, "")
	a := tab.Create("a")
	b := tab.Create("b")
	if a.Priority() != 1 || b.Priority() != 2 {
		t.Errorf("priorities = %d, %d, want 1, 2", a.Priority(), b.Priority())
	}
	if again := tab.Create("a"); again != a {
		t.Error("Create returned a new tag for an existing name")
	}
	if diff := cmp.Diff([]string{"sel", "a", "b"}, tab.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if _, err := tab.Get("missing"); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("Get(missing) = %v, want ErrUnknownTag", err)
	}
}

func TestChangePriority(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		prio int
		want []string
	}{
		{"to bottom", "c", 0, []string{"c", "sel", "a", "b", "d"}},
		{"to top", "a", 4, []string{"sel", "b", "c", "d", "a"}},
		{"down one", "c", 2, []string{"sel", "a", "c", "b", "d"}},
		{"same", "b", 2, []string{"sel", "a", "b", "c", "d"}},
		{"clamped high", "sel", 99, []string{"a", "b", "c", "d", "sel"}},
		{"clamped low", "d", -5, []string{"d", "sel", "a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, _ := newTable(t, "")
			for _, n := range []string{"a", "b", "c", "d"} {
				tab.Create(n)
			}
			tag, _ := tab.Lookup(tt.tag)
			tab.ChangePriority(tag, tt.prio)
			if diff := cmp.Diff(tt.want, tab.Names()); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			for i, n := range tab.Names() {
				if tag, _ := tab.Lookup(n); tag.Priority() != i {
					t.Errorf("%s priority = %d, want %d", n, tag.Priority(), i)
				}
			}
		})
	}
}

func TestRaiseLower(t *testing.T) {
	tab, _ := newTable(t, "")
	a, b, c := tab.Create("a"), tab.Create("b"), tab.Create("c")

	tab.Raise(a, b)
	if diff := cmp.Diff([]string{"sel", "b", "a", "c"}, tab.Names()); diff != "" {
		t.Errorf("Raise(a, b) mismatch (-want +got):\n%s", diff)
	}
	tab.Lower(c, b)
	if diff := cmp.Diff([]string{"sel", "c", "b", "a"}, tab.Names()); diff != "" {
		t.Errorf("Lower(c, b) mismatch (-want +got):\n%s", diff)
	}
	tab.Raise(c, nil)
	tab.Lower(a, nil)
	if diff := cmp.Diff([]string{"a", "sel", "b", "c"}, tab.Names()); diff != "" {
		t.Errorf("Raise/Lower to the ends mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteStripsRanges(t *testing.T) {
	tab, tree := newTable(t, "hello world")
	a := tab.Create("a")
	b := tab.Create("b")
	tree.TagRange(tree.MakeIndex(0, 0), tree.MakeIndex(0, 5), a.Node(), true)

	if err := tab.Delete("a"); err != nil {
		t.Fatalf("Delete(a) = %v", err)
	}
	if a.Node().ToggleCount() != 0 {
		t.Errorf("deleted tag still has %d toggles", a.Node().ToggleCount())
	}
	if _, ok := tab.Lookup("a"); ok {
		t.Error("deleted tag still found")
	}
	if b.Priority() != 1 {
		t.Errorf("b priority = %d, want 1", b.Priority())
	}
	if err := tab.Delete("never"); err != nil {
		t.Errorf("Delete(never) = %v, want nil", err)
	}
}

func TestResolve(t *testing.T) {
	tab, tree := newTable(t, "abcdef")
	tab.SetDefaults(Style{Fg: White, Bg: Black, Attr: AttrNormal})

	low := tab.Create("low")
	high := tab.Create("high")
	tab.Configure(low, Style{Fg: Red, Bg: Blue, Attr: AttrUnset})
	tab.Configure(high, Style{Fg: Green, Bg: ColorUnset, Attr: AttrBold})
	tree.TagRange(tree.MakeIndex(0, 0), tree.MakeIndex(0, 4), low.Node(), true)
	tree.TagRange(tree.MakeIndex(0, 2), tree.MakeIndex(0, 6), high.Node(), true)

	tests := []struct {
		char int
		want Style
	}{
		{0, Style{Fg: Red, Bg: Blue, Attr: AttrNormal}},
		{2, Style{Fg: Green, Bg: Blue, Attr: AttrBold}},
		{4, Style{Fg: Green, Bg: Black, Attr: AttrBold}},
		{6, Style{Fg: White, Bg: Black, Attr: AttrNormal}},
	}
	for _, tt := range tests {
		if got := tab.Resolve(tree.MakeIndex(0, tt.char)); got != tt.want {
			t.Errorf("Resolve(1.%d) = %+v, want %+v", tt.char, got, tt.want)
		}
	}

	// Lowering high below low flips the precedence of fg.
	tab.Lower(high, low)
	if got := tab.Resolve(tree.MakeIndex(0, 2)); got.Fg != Red || got.Attr != AttrBold {
		t.Errorf("after Lower, Resolve(1.2) = %+v", got)
	}

	names := []string{}
	for _, tag := range tab.At(tree.MakeIndex(0, 3)) {
		names = append(names, tag.Name())
	}
	if diff := cmp.Diff([]string{"high", "low"}, names); diff != "" {
		t.Errorf("At(1.3) mismatch (-want +got):\n%s", diff)
	}
}

func TestSelMirrorsStyle(t *testing.T) {
	tab, _ := newTable(t, "")
	want := Style{Fg: Black, Bg: Cyan, Attr: AttrReverse}
	tab.Configure(tab.Sel(), want)
	if got := tab.Selection(); got != want {
		t.Errorf("Selection() = %+v, want %+v", got, want)
	}

	other := tab.Create("other")
	tab.Configure(other, Style{Fg: Red, Bg: Red, Attr: AttrBold})
	if got := tab.Selection(); got != want {
		t.Errorf("configuring another tag changed Selection() to %+v", got)
	}
}

func TestConfigureReplacesWholeStyle(t *testing.T) {
	tab, _ := newTable(t, "")
	tag := tab.Create("x")
	tab.Configure(tag, Style{Fg: Red, Bg: Blue, Attr: AttrBold})
	tab.Configure(tag, Style{Fg: ColorUnset, Bg: ColorUnset, Attr: AttrUnderline})
	want := Style{Fg: ColorUnset, Bg: ColorUnset, Attr: AttrUnderline}
	if got := tag.Style(); got != want {
		t.Errorf("Style() = %+v, want %+v", got, want)
	}
}
