// Package display shows a text on a terminal screen.
//
// A View is the display collaborator of an engine.Text. The engine reports
// every range whose content or appearance changed; the view turns the
// indices into line numbers at once, coalesces them, and schedules a single
// pending redraw on its Scheduler. The event loop runs the redraw when it is
// idle. Repick requests are handled the same way and move the "current"
// mark to the character under the pointer.
package display

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/cktext/internal/engine"
	"github.com/dshills/cktext/internal/engine/marks"
	"github.com/dshills/cktext/internal/engine/tags"
	"github.com/dshills/cktext/internal/logging"
)

// DefaultTabWidth is the distance between tab stops in columns.
const DefaultTabWidth = 8

// Option configures a View.
type Option func(*View)

// WithRect places the view at x, y with the given size. By default the
// view covers the whole screen.
func WithRect(x, y, width, height int) Option {
	return func(v *View) {
		v.x, v.y, v.width, v.height = x, y, width, height
		v.sized = true
	}
}

// WithTabWidth sets the distance between tab stops.
func WithTabWidth(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.tabWidth = n
		}
	}
}

// WithWrap wraps long lines at the view width instead of clipping them.
func WithWrap(on bool) Option {
	return func(v *View) { v.wrap = on }
}

// WithInsertStyle sets the attributes drawn over the character under the
// insert mark.
func WithInsertStyle(s tags.Style) Option {
	return func(v *View) { v.insertStyle = s }
}

// WithScheduler sets where redraws and repicks are queued.
func WithScheduler(s Scheduler) Option {
	return func(v *View) { v.sched = s }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(v *View) { v.log = l.WithComponent("display") }
}

// View draws an engine.Text into a tcell screen.
type View struct {
	text   *engine.Text
	screen tcell.Screen
	sched  Scheduler
	log    *logging.Logger

	x, y, width, height int
	sized               bool
	tabWidth            int
	wrap                bool
	insertStyle         tags.Style

	dirty   *tracker
	redraw  func() // cancels the pending redraw
	repick  func() // cancels the pending repick
	rows    []row
	topLine int
	topChar int
	redraws int

	pointerX, pointerY int
	pointer            bool
}

// New creates a view of text on screen and registers it as the text's
// display, repick handler and "@x,y" resolver. A first redraw is scheduled.
func New(text *engine.Text, screen tcell.Screen, opts ...Option) *View {
	v := &View{
		text:        text,
		screen:      screen,
		tabWidth:    DefaultTabWidth,
		insertStyle: tags.Unset(),
		dirty:       newTracker(),
		topLine:     -1,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.sched == nil {
		v.sched = &Idle{}
	}
	if v.log == nil {
		v.log = logging.Null()
	}
	if !v.sized {
		v.width, v.height = screen.Size()
	}

	text.SetDisplay(v)
	text.SetRepick(v.requestRepick)
	text.SetPoint(v.IndexAt)

	v.dirty.markFull()
	v.schedule()
	return v
}

// Changed records that [from, to) may look different. Changes spanning
// lines also redraw everything below, since lines may have moved.
func (v *View) Changed(from, to engine.Index) {
	lo, hi := from.LineNumber(), to.LineNumber()
	if lo == hi && !v.wrap {
		v.dirty.markLines(lo, hi)
	} else {
		v.dirty.markLines(lo, toEnd)
	}
	v.schedule()
}

func (v *View) schedule() {
	if v.redraw != nil {
		return
	}
	v.redraw = v.sched.Schedule(func() {
		v.redraw = nil
		v.Redraw()
	})
}

// Pending reports whether a redraw is scheduled.
func (v *View) Pending() bool {
	return v.redraw != nil
}

// Redraws returns the number of redraws performed.
func (v *View) Redraws() int {
	return v.redraws
}

// Flush performs the pending redraw now, if any.
func (v *View) Flush() {
	if v.redraw != nil {
		v.Redraw()
	}
}

// Resize moves the view and redraws it completely.
func (v *View) Resize(x, y, width, height int) {
	v.x, v.y, v.width, v.height = x, y, width, height
	v.sized = true
	v.dirty.markFull()
	v.schedule()
}

// SetWrap switches line wrapping.
func (v *View) SetWrap(on bool) {
	v.wrap = on
	v.dirty.markFull()
	v.schedule()
}

// SetTabWidth changes the distance between tab stops.
func (v *View) SetTabWidth(n int) {
	if n <= 0 {
		return
	}
	v.tabWidth = n
	v.dirty.markFull()
	v.schedule()
}

// SetInsertStyle changes the attributes of the character under the insert
// mark.
func (v *View) SetInsertStyle(s tags.Style) {
	v.insertStyle = s
	v.dirty.markFull()
	v.schedule()
}

// Destroy cancels pending callbacks and detaches the view from its text.
func (v *View) Destroy() {
	if v.redraw != nil {
		v.redraw()
		v.redraw = nil
	}
	if v.repick != nil {
		v.repick()
		v.repick = nil
	}
	v.text.SetDisplay(nil)
	v.text.SetRepick(nil)
	v.text.SetPoint(nil)
}

// layout returns up to height rows starting with the row that shows
// character topChar of line topLine.
func (v *View) layout(topLine, topChar int) []row {
	var rows []row
	tree, table := v.text.Tree(), v.text.Tags()
	n := v.text.NumLines()
	for line := topLine; line < n && len(rows) < v.height; line++ {
		lr := layoutLine(tree, table, line, v.tabWidth).rows(v.width, v.wrap)
		if line == topLine {
			lr = lr[rowOf(lr, topChar):]
		}
		rows = append(rows, lr...)
	}
	if len(rows) > v.height {
		rows = rows[:v.height]
	}
	return rows
}

// rowOf returns the position in rows of the row showing char.
func rowOf(rows []row, char int) int {
	i := 0
	for j, r := range rows {
		if len(r.cells) > 0 && r.cells[0].char <= char {
			i = j
		}
	}
	return i
}

// Redraw paints every dirty row and places the cursor.
func (v *View) Redraw() {
	if v.redraw != nil {
		v.redraw()
		v.redraw = nil
	}
	v.redraws++

	top := v.text.Top()
	topLine, topChar := top.LineNumber(), top.Char
	if !v.wrap {
		topChar = 0
	}
	if topLine != v.topLine || topChar != v.topChar {
		v.dirty.markFull()
		v.topLine, v.topChar = topLine, topChar
	}

	rows := v.layout(topLine, topChar)
	ins, _ := v.text.MarkIndex(marks.Insert)
	insLine, insChar := ins.LineNumber(), ins.Char
	past := v.text.NumLines()
	fill := convertStyle(v.text.Tags().Defaults())

	painted := 0
	cursorX, cursorY := -1, -1
	for y := 0; y < v.height; y++ {
		if y < len(rows) {
			r := rows[y]
			if r.line == insLine {
				if x, ok := r.colOf(insChar); ok && x < v.width {
					cursorX, cursorY = v.x+x, v.y+y
				}
			}
			moved := y >= len(v.rows) || v.rows[y].line != r.line || v.rows[y].startCol != r.startCol
			if moved || v.dirty.dirty(r.line) {
				v.paintRow(y, r, insLine, insChar)
				painted++
			}
			continue
		}
		if y < len(v.rows) || v.dirty.dirty(past) {
			for x := 0; x < v.width; x++ {
				v.screen.SetContent(v.x+x, v.y+y, ' ', nil, fill)
			}
			painted++
		}
	}
	v.rows = rows
	v.dirty.reset()

	if cursorX >= 0 {
		v.screen.ShowCursor(cursorX, cursorY)
	} else {
		v.screen.HideCursor()
	}
	v.screen.Show()
	v.log.Debug("redraw: %d of %d rows painted", painted, v.height)
}

func (v *View) paintRow(y int, r row, insLine, insChar int) {
	sy := v.y + y
	styleOf := func(st tags.Style, char int) tcell.Style {
		if r.line == insLine && char == insChar {
			st = v.insertStyle.Over(st)
		}
		return convertStyle(st)
	}

	x := 0
	for _, c := range r.cells {
		cx := c.col - r.startCol
		if cx >= v.width {
			break
		}
		st := styleOf(c.style, c.char)
		switch {
		case c.kind == cellTab:
			for i := 0; i < c.width && cx+i < v.width; i++ {
				v.screen.SetContent(v.x+cx+i, sy, ' ', nil, st)
			}
		case c.kind == cellControl:
			v.screen.SetContent(v.x+cx, sy, '^', nil, st)
			if cx+1 < v.width {
				v.screen.SetContent(v.x+cx+1, sy, c.r^0x40, nil, st)
			}
		case cx+c.width > v.width:
			// A wide character that does not fit.
			v.screen.SetContent(v.x+cx, sy, ' ', nil, st)
		default:
			v.screen.SetContent(v.x+cx, sy, c.r, c.comb, st)
		}
		x = min(cx+c.width, v.width)
	}
	if r.last && x < v.width {
		v.screen.SetContent(v.x+x, sy, ' ', nil, styleOf(r.eolStyle, r.eol))
		x++
	}
	fill := convertStyle(v.text.Tags().Defaults())
	for ; x < v.width; x++ {
		v.screen.SetContent(v.x+x, sy, ' ', nil, fill)
	}
}

// IndexAt returns the index of the character displayed at screen position
// x, y. Positions outside the view are clamped to it.
func (v *View) IndexAt(x, y int) (engine.Index, bool) {
	tree := v.text.Tree()
	top := v.text.Top()
	topChar := top.Char
	if !v.wrap {
		topChar = 0
	}
	rows := v.layout(top.LineNumber(), topChar)
	if len(rows) == 0 {
		return tree.End().BackwardChars(1), true
	}
	y -= v.y
	x -= v.x
	y = max(0, min(y, len(rows)-1))
	x = max(0, x)
	r := rows[y]
	return tree.MakeIndex(r.line, r.charAt(x)), true
}

// See scrolls the view so that idx is visible.
func (v *View) See(idx engine.Index) {
	tree := v.text.Tree()
	top := v.text.Top()
	line := idx.LineNumber()
	topChar := top.Char
	if !v.wrap {
		topChar = 0
	}

	if line < top.LineNumber() || (line == top.LineNumber() && idx.Char < topChar) {
		v.text.SetTop(v.rowStart(line, idx.Char))
		return
	}
	for _, r := range v.layout(top.LineNumber(), topChar) {
		if r.line != line {
			continue
		}
		if _, ok := r.colOf(idx.Char); ok || !v.wrap {
			return
		}
	}

	// Make idx the bottom row.
	lr := layoutLine(tree, v.text.Tags(), line, v.tabWidth).rows(v.width, v.wrap)
	need := rowOf(lr, idx.Char) + 1
	if need > v.height {
		v.text.SetTop(v.rowStart(line, idx.Char))
		return
	}
	newTop := line
	for newTop > 0 {
		n := len(layoutLine(tree, v.text.Tags(), newTop-1, v.tabWidth).rows(v.width, v.wrap))
		if need+n > v.height {
			break
		}
		need += n
		newTop--
	}
	v.text.SetTop(tree.MakeIndex(newTop, 0))
}

// rowStart returns the index of the first character of the row showing
// char on line.
func (v *View) rowStart(line, char int) engine.Index {
	tree := v.text.Tree()
	if !v.wrap {
		return tree.MakeIndex(line, 0)
	}
	lr := layoutLine(tree, v.text.Tags(), line, v.tabWidth).rows(v.width, v.wrap)
	r := lr[rowOf(lr, char)]
	if len(r.cells) == 0 {
		return tree.MakeIndex(line, 0)
	}
	return tree.MakeIndex(line, r.cells[0].char)
}

// PointerMoved records the pointer position and repicks.
func (v *View) PointerMoved(x, y int) {
	v.pointerX, v.pointerY, v.pointer = x, y, true
	v.requestRepick()
}

func (v *View) requestRepick() {
	if v.repick != nil || !v.pointer {
		return
	}
	v.repick = v.sched.Schedule(func() {
		v.repick = nil
		v.pick()
	})
}

// pick moves the "current" mark under the pointer.
func (v *View) pick() {
	idx, ok := v.IndexAt(v.pointerX, v.pointerY)
	if !ok {
		return
	}
	v.text.MarkSet(marks.Current, idx)
}
