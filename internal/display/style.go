package display

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/cktext/internal/engine/tags"
)

// tcellColor maps a curses color to the terminal palette.
func tcellColor(c tags.Color) tcell.Color {
	if c < tags.Black || c > tags.White {
		return tcell.ColorDefault
	}
	return tcell.PaletteColor(int(c))
}

// convertStyle converts resolved display attributes to a tcell style.
// Unset fields use the terminal defaults.
func convertStyle(s tags.Style) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(tcellColor(s.Fg)).
		Background(tcellColor(s.Bg))

	a := s.Attr
	if a.Has(tags.AttrBold) {
		style = style.Bold(true)
	}
	if a.Has(tags.AttrDim) {
		style = style.Dim(true)
	}
	if a.Has(tags.AttrUnderline) {
		style = style.Underline(true)
	}
	if a.Has(tags.AttrBlink) {
		style = style.Blink(true)
	}
	// Curses draws standout as reverse video.
	if a.Has(tags.AttrReverse) || a.Has(tags.AttrStandout) {
		style = style.Reverse(true)
	}
	return style
}
