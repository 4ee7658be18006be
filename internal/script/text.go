package script

import (
	"errors"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/tags"
)

const textTypeName = "cktext.text"

// selectionChunk is how many characters selection_get reads per call.
const selectionChunk = 4000

// textMethods lists the methods of a text userdata. Each method's comment
// gives its Lua signature.
func (s *State) textMethods() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"insert":         s.insert,
		"delete":         s.delete,
		"replace":        s.replace,
		"get":            s.get,
		"index":          s.index,
		"compare":        s.compare,
		"line_count":     s.lineCount,
		"state":          s.state,
		"yview":          s.yview,
		"mark_set":       s.markSet,
		"mark_unset":     s.markUnset,
		"mark_gravity":   s.markGravity,
		"mark_names":     s.markNames,
		"mark_next":      s.markNext,
		"mark_previous":  s.markPrevious,
		"tag_add":        s.tagAdd,
		"tag_remove":     s.tagRemove,
		"tag_configure":  s.tagConfigure,
		"tag_ranges":     s.tagRanges,
		"tag_nextrange":  s.tagNextRange,
		"tag_prevrange":  s.tagPrevRange,
		"tag_names":      s.tagNames,
		"tag_delete":     s.tagDelete,
		"tag_raise":      s.tagRaise,
		"tag_lower":      s.tagLower,
		"search":         s.search,
		"dump":           s.dump,
		"selection_get":  s.selectionGet,
		"edit_undo":      s.editUndo,
		"edit_redo":      s.editRedo,
		"edit_separator": s.editSeparator,
		"edit_reset":     s.editReset,
		"edit_modified":  s.editModified,
	}
}

func (s *State) registerTextModule() {
	mt := s.L.NewTypeMetatable(textTypeName)
	s.L.SetField(mt, "__index", s.L.SetFuncs(s.L.NewTable(), s.textMethods()))
	s.L.SetField(mt, "__tostring", s.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkText(L).String()))
		return 1
	}))

	mod := s.L.NewTable()
	s.L.SetField(mod, "new", s.L.NewFunction(s.newText))
	s.L.SetGlobal("text", mod)
}

func (s *State) wrap(t *engine.Text) *lua.LUserData {
	s.texts = append(s.texts, t)
	ud := s.L.NewUserData()
	ud.Value = t
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(textTypeName))
	return ud
}

// text.new([content]) -> text
func (s *State) newText(L *lua.LState) int {
	opts := append([]engine.Option{engine.WithLogger(s.log)}, s.engineOpts...)
	if content := L.OptString(1, ""); content != "" {
		opts = append(opts, engine.WithContent(content))
	}
	L.Push(s.wrap(engine.New(opts...)))
	return 1
}

func checkText(L *lua.LState) *engine.Text {
	ud := L.CheckUserData(1)
	if t, ok := ud.Value.(*engine.Text); ok {
		return t
	}
	L.ArgError(1, "text expected")
	return nil
}

// checkIndex resolves argument n as an index string.
func checkIndex(L *lua.LState, t *engine.Text, n int) engine.Index {
	idx, err := t.Index(L.CheckString(n))
	if err != nil {
		L.RaiseError("%v", err)
	}
	return idx
}

// optEnd resolves argument n, or returns the character after i1 when the
// argument is absent.
func optEnd(L *lua.LState, t *engine.Text, n int, i1 engine.Index) engine.Index {
	if L.Get(n) == lua.LNil {
		return i1.ForwardChars(1)
	}
	return checkIndex(L, t, n)
}

func raise(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}

func stringList(L *lua.LState, items []string) *lua.LTable {
	tbl := L.CreateTable(len(items), 0)
	for _, item := range items {
		tbl.Append(lua.LString(item))
	}
	return tbl
}

// restStrings returns the string arguments from n on.
func restStrings(L *lua.LState, n int) []string {
	var out []string
	for i := n; i <= L.GetTop(); i++ {
		out = append(out, L.CheckString(i))
	}
	return out
}

// insert(index, chars, [tag, ...])
func (s *State) insert(L *lua.LState) int {
	t := checkText(L)
	idx := checkIndex(L, t, 2)
	t.Insert(idx, L.CheckString(3), restStrings(L, 4)...)
	return 0
}

// delete(index1, [index2])
func (s *State) delete(L *lua.LState) int {
	t := checkText(L)
	i1 := checkIndex(L, t, 2)
	t.Delete(i1, optEnd(L, t, 3, i1))
	return 0
}

// replace(index1, index2, chars, [tag, ...])
func (s *State) replace(L *lua.LState) int {
	t := checkText(L)
	i1 := checkIndex(L, t, 2)
	i2 := checkIndex(L, t, 3)
	t.Replace(i1, i2, L.CheckString(4), restStrings(L, 5)...)
	return 0
}

// get(index1, [index2]) -> string
func (s *State) get(L *lua.LState) int {
	t := checkText(L)
	i1 := checkIndex(L, t, 2)
	L.Push(lua.LString(t.Get(i1, optEnd(L, t, 3, i1))))
	return 1
}

// index(index) -> "line.char"
func (s *State) index(L *lua.LState) int {
	t := checkText(L)
	L.Push(lua.LString(checkIndex(L, t, 2).String()))
	return 1
}

// compare(index1, op, index2) -> bool
func (s *State) compare(L *lua.LState) int {
	t := checkText(L)
	i1 := checkIndex(L, t, 2)
	op := L.CheckString(3)
	i2 := checkIndex(L, t, 4)
	ok, err := t.Compare(i1, op, i2)
	raise(L, err)
	L.Push(lua.LBool(ok))
	return 1
}

// line_count() -> number, not counting the empty last line
func (s *State) lineCount(L *lua.LState) int {
	L.Push(lua.LNumber(checkText(L).NumLines()))
	return 1
}

// state([new]) -> "normal" | "disabled"
func (s *State) state(L *lua.LState) int {
	t := checkText(L)
	if L.GetTop() >= 2 {
		st, err := engine.ParseState(L.CheckString(2))
		raise(L, err)
		t.SetState(st)
	}
	L.Push(lua.LString(t.State().String()))
	return 1
}

// yview([index]) -> index of the first character shown
func (s *State) yview(L *lua.LState) int {
	t := checkText(L)
	if L.GetTop() >= 2 {
		t.SetTop(checkIndex(L, t, 2))
	}
	L.Push(lua.LString(t.Top().String()))
	return 1
}

// mark_set(name, index)
func (s *State) markSet(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	t.MarkSet(name, checkIndex(L, t, 3))
	return 0
}

// mark_unset(name, ...)
func (s *State) markUnset(L *lua.LState) int {
	checkText(L).MarkUnset(restStrings(L, 2)...)
	return 0
}

// mark_gravity(name, ["left" | "right"]) -> gravity
func (s *State) markGravity(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	if L.GetTop() >= 3 {
		g, err := engine.ParseGravity(L.CheckString(3))
		raise(L, err)
		raise(L, t.SetMarkGravity(name, g))
	}
	g, err := t.MarkGravity(name)
	raise(L, err)
	L.Push(lua.LString(g.String()))
	return 1
}

// mark_names() -> {name, ...}
func (s *State) markNames(L *lua.LState) int {
	L.Push(stringList(L, checkText(L).MarkNames()))
	return 1
}

// mark_next(index) -> name | nil
func (s *State) markNext(L *lua.LState) int {
	t := checkText(L)
	name, ok, err := t.MarkNext(L.CheckString(2))
	return pushName(L, name, ok, err)
}

// mark_previous(index) -> name | nil
func (s *State) markPrevious(L *lua.LState) int {
	t := checkText(L)
	name, ok, err := t.MarkPrevious(L.CheckString(2))
	return pushName(L, name, ok, err)
}

func pushName(L *lua.LState, name string, ok bool, err error) int {
	raise(L, err)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(name))
	return 1
}

// tag_add(name, index1, [index2])
func (s *State) tagAdd(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	i1 := checkIndex(L, t, 3)
	t.TagAdd(name, i1, optEnd(L, t, 4, i1))
	return 0
}

// tag_remove(name, index1, [index2])
func (s *State) tagRemove(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	i1 := checkIndex(L, t, 3)
	t.TagRemove(name, i1, optEnd(L, t, 4, i1))
	return 0
}

// tag_configure(name, [{fg=, bg=, attr=}]) -> {fg=, bg=, attr=}
//
// Only the fields present in the table change; an empty string unsets one.
func (s *State) tagConfigure(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	if L.GetTop() >= 3 {
		opts := L.CheckTable(3)
		style, err := t.TagStyle(name)
		if err != nil {
			style = tags.Unset()
		}
		set := func(key string, parse func(string) error) {
			if v := L.GetField(opts, key); v != lua.LNil {
				raise(L, parse(v.String()))
			}
		}
		set("fg", func(v string) (err error) {
			style.Fg, err = tags.ParseColor(v)
			return err
		})
		set("bg", func(v string) (err error) {
			style.Bg, err = tags.ParseColor(v)
			return err
		})
		set("attr", func(v string) (err error) {
			style.Attr, err = tags.ParseAttr(v)
			return err
		})
		t.TagConfigure(name, style)
	}
	style, err := t.TagStyle(name)
	raise(L, err)

	tbl := L.NewTable()
	L.SetField(tbl, "fg", lua.LString(style.Fg.String()))
	L.SetField(tbl, "bg", lua.LString(style.Bg.String()))
	L.SetField(tbl, "attr", lua.LString(style.Attr.String()))
	L.Push(tbl)
	return 1
}

// tag_ranges(name) -> {start1, end1, start2, end2, ...}
func (s *State) tagRanges(L *lua.LState) int {
	t := checkText(L)
	var flat []string
	for _, r := range t.TagRanges(L.CheckString(2)) {
		flat = append(flat, r.Start.String(), r.End.String())
	}
	L.Push(stringList(L, flat))
	return 1
}

// tag_nextrange(name, index1, [index2]) -> start, end | nil
func (s *State) tagNextRange(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	i1 := checkIndex(L, t, 3)
	i2 := t.Tree().End()
	if L.Get(4) != lua.LNil {
		i2 = checkIndex(L, t, 4)
	}
	r, ok := t.TagNextRange(name, i1, i2)
	return pushRange(L, r, ok)
}

// tag_prevrange(name, index1, [index2]) -> start, end | nil
func (s *State) tagPrevRange(L *lua.LState) int {
	t := checkText(L)
	name := L.CheckString(2)
	i1 := checkIndex(L, t, 3)
	i2 := t.Tree().Start()
	if L.Get(4) != lua.LNil {
		i2 = checkIndex(L, t, 4)
	}
	r, ok := t.TagPrevRange(name, i1, i2)
	return pushRange(L, r, ok)
}

func pushRange(L *lua.LState, r engine.Range, ok bool) int {
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(r.Start.String()))
	L.Push(lua.LString(r.End.String()))
	return 2
}

// tag_names([index]) -> {name, ...} in increasing priority
func (s *State) tagNames(L *lua.LState) int {
	t := checkText(L)
	if L.Get(2) == lua.LNil {
		L.Push(stringList(L, t.TagNames()))
		return 1
	}
	L.Push(stringList(L, t.TagsAt(checkIndex(L, t, 2))))
	return 1
}

// tag_delete(name, ...)
func (s *State) tagDelete(L *lua.LState) int {
	raise(L, checkText(L).TagDelete(restStrings(L, 2)...))
	return 0
}

// tag_raise(name, [above])
func (s *State) tagRaise(L *lua.LState) int {
	t := checkText(L)
	raise(L, t.TagRaise(L.CheckString(2), L.OptString(3, "")))
	return 0
}

// tag_lower(name, [below])
func (s *State) tagLower(L *lua.LState) int {
	t := checkText(L)
	raise(L, t.TagLower(L.CheckString(2), L.OptString(3, "")))
	return 0
}

// search(pattern, index, [{backwards=, regexp=, nocase=, stop=}])
// -> index, count | nil
func (s *State) search(L *lua.LState) int {
	t := checkText(L)
	pattern := L.CheckString(2)
	start := checkIndex(L, t, 3)

	var opts engine.SearchOptions
	if tbl, ok := L.Get(4).(*lua.LTable); ok {
		opts.Backwards = lua.LVAsBool(L.GetField(tbl, "backwards"))
		opts.Regexp = lua.LVAsBool(L.GetField(tbl, "regexp"))
		opts.NoCase = lua.LVAsBool(L.GetField(tbl, "nocase"))
		if stop, ok := L.GetField(tbl, "stop").(lua.LString); ok {
			idx, err := t.Index(string(stop))
			raise(L, err)
			opts.Stop = &idx
		}
	}

	m, found, err := t.Search(pattern, start, opts)
	raise(L, err)
	if !found {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(m.Index.String()))
	L.Push(lua.LNumber(m.Length))
	return 2
}

// dump(index1, [index2], [kinds]) -> {{kind=, value=, index=}, ...}
//
// kinds is a space separated subset of "text mark tagon tagoff"; the
// default is all of them.
func (s *State) dump(L *lua.LState) int {
	t := checkText(L)
	i1 := checkIndex(L, t, 2)
	i2 := optEnd(L, t, 3, i1)
	what := engine.DumpAll
	if L.Get(4) != lua.LNil {
		what = 0
		for _, k := range strings.Fields(L.CheckString(4)) {
			switch k {
			case "text":
				what |= engine.DumpText
			case "mark":
				what |= engine.DumpMark
			case "tagon":
				what |= engine.DumpTagOn
			case "tagoff":
				what |= engine.DumpTagOff
			case "all":
				what |= engine.DumpAll
			default:
				L.ArgError(4, "unknown dump kind "+k)
			}
		}
	}

	entries := t.Dump(i1, i2, what)
	tbl := L.CreateTable(len(entries), 0)
	for _, e := range entries {
		et := L.NewTable()
		L.SetField(et, "kind", lua.LString(e.Kind))
		L.SetField(et, "value", lua.LString(e.Value))
		L.SetField(et, "index", lua.LString(e.Index))
		tbl.Append(et)
	}
	L.Push(tbl)
	return 1
}

// selection_get() -> string | nil
func (s *State) selectionGet(L *lua.LState) int {
	t := checkText(L)
	sess, err := t.StartSelection()
	if errors.Is(err, engine.ErrNoSelection) {
		L.Push(lua.LNil)
		return 1
	}
	raise(L, err)

	var sb strings.Builder
	for {
		chunk, err := sess.Read(selectionChunk)
		if errors.Is(err, io.EOF) {
			break
		}
		raise(L, err)
		sb.WriteString(chunk)
	}
	L.Push(lua.LString(sb.String()))
	return 1
}

// edit_undo() -> bool, false when there was nothing to undo
func (s *State) editUndo(L *lua.LState) int {
	err := checkText(L).EditUndo()
	return pushDone(L, err, engine.ErrNothingToUndo)
}

// edit_redo() -> bool, false when there was nothing to redo
func (s *State) editRedo(L *lua.LState) int {
	err := checkText(L).EditRedo()
	return pushDone(L, err, engine.ErrNothingToRedo)
}

func pushDone(L *lua.LState, err, nothing error) int {
	if errors.Is(err, nothing) {
		L.Push(lua.LFalse)
		return 1
	}
	raise(L, err)
	L.Push(lua.LTrue)
	return 1
}

// edit_separator()
func (s *State) editSeparator(L *lua.LState) int {
	checkText(L).EditSeparator()
	return 0
}

// edit_reset()
func (s *State) editReset(L *lua.LState) int {
	checkText(L).EditReset()
	return 0
}

// edit_modified([flag]) -> bool
func (s *State) editModified(L *lua.LState) int {
	t := checkText(L)
	if L.GetTop() >= 2 {
		t.SetEditModified(L.CheckBool(2))
	}
	L.Push(lua.LBool(t.EditModified()))
	return 1
}
