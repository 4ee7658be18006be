package display

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/tags"
)

type cellKind uint8

const (
	cellRune cellKind = iota
	cellTab
	cellControl // shown as ^X
)

// cell is one displayed character.
type cell struct {
	kind  cellKind
	r     rune
	comb  []rune
	char  int // character offset in the line
	col   int // column from the start of the line
	width int
	style tags.Style
}

// lineLayout is the displayed form of one text line.
type lineLayout struct {
	line  int
	cells []cell
	eol   int // character offset of the newline
	eolSt tags.Style
}

// row is one screen row: a whole line, or part of one when wrapping.
type row struct {
	line     int
	cells    []cell
	startCol int
	first    bool
	last     bool
	eol      int
	eolStyle tags.Style
}

// layoutLine measures line n and resolves the style of every character.
func layoutLine(tree *btree.Tree, table *tags.Table, n, tabWidth int) lineLayout {
	l := tree.FindLine(n)
	out := lineLayout{line: n}

	active := make(map[*btree.Tag]bool)
	for _, tag := range tree.GetTags(btree.Index{Tree: tree, Line: l}) {
		active[tag] = true
	}
	style := resolve(table, active)

	seenChar := false
	col, char := 0, 0
	for s := l.Segments(); s != nil; s = s.Next() {
		switch s.Kind() {
		case btree.CharSegment:
		case btree.ToggleOnSegment, btree.ToggleOffSegment:
			// Toggles before the first character are part of the initial set.
			if !seenChar {
				continue
			}
			if s.Kind() == btree.ToggleOnSegment {
				active[s.Tag()] = true
			} else {
				delete(active, s.Tag())
			}
			style = resolve(table, active)
			continue
		default:
			continue
		}
		seenChar = true

		for _, r := range s.Text() {
			c := cell{kind: cellRune, r: r, char: char, col: col, width: 1, style: style}
			switch {
			case r == '\n':
				out.eol = char
				out.eolSt = style
				return out
			case r == '\t':
				c.kind = cellTab
				c.width = tabWidth - col%tabWidth
			case r < 0x20 || r == 0x7f:
				c.kind = cellControl
				c.width = 2
			default:
				w := uniseg.StringWidth(string(r))
				if w == 0 && len(out.cells) > 0 {
					prev := &out.cells[len(out.cells)-1]
					prev.comb = append(prev.comb, r)
					char++
					continue
				}
				if w > 0 {
					c.width = w
				}
			}
			out.cells = append(out.cells, c)
			col += c.width
			char++
		}
	}
	out.eol = char
	out.eolSt = style
	return out
}

func resolve(table *tags.Table, active map[*btree.Tag]bool) tags.Style {
	if len(active) == 0 {
		return table.ResolveTags(nil)
	}
	nodes := make([]*btree.Tag, 0, len(active))
	for tag := range active {
		nodes = append(nodes, tag)
	}
	btree.SortTags(nodes)
	return table.ResolveTags(nodes)
}

// rows splits the line into screen rows. Without wrapping the line is one
// row clipped by the painter.
func (ll lineLayout) rows(width int, wrap bool) []row {
	newRow := func(startCol int, first bool) row {
		return row{line: ll.line, startCol: startCol, first: first, eol: ll.eol, eolStyle: ll.eolSt}
	}
	cur := newRow(0, true)
	if !wrap || width <= 0 {
		cur.cells = ll.cells
		cur.last = true
		return []row{cur}
	}

	var out []row
	for _, c := range ll.cells {
		if len(cur.cells) > 0 && c.col+c.width-cur.startCol > width {
			out = append(out, cur)
			cur = newRow(c.col, false)
		}
		cur.cells = append(cur.cells, c)
	}
	cur.last = true
	return append(out, cur)
}

// charAt returns the character shown at column x of the row.
func (r row) charAt(x int) int {
	for _, c := range r.cells {
		if x < c.col-r.startCol+c.width {
			return c.char
		}
	}
	if r.last || len(r.cells) == 0 {
		return r.eol
	}
	return r.cells[len(r.cells)-1].char
}

// colOf returns the column of character char within the row, or false
// when the row does not show it.
func (r row) colOf(char int) (int, bool) {
	for _, c := range r.cells {
		if c.char == char {
			return c.col - r.startCol, true
		}
	}
	if r.last && char >= r.eol {
		end := 0
		if n := len(r.cells); n > 0 {
			c := r.cells[n-1]
			end = c.col + c.width - r.startCol
		}
		return end, true
	}
	return 0, false
}
