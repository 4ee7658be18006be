package tags

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Errors returned when parsing display attributes.
var (
	// ErrBadColor indicates a color name or value that cannot be used.
	ErrBadColor = errors.New("tags: bad color")

	// ErrBadAttr indicates an unknown attribute keyword.
	ErrBadAttr = errors.New("tags: bad attribute")
)

// Color is one of the eight curses colors, or ColorUnset.
type Color int

// Curses colors.
const (
	ColorUnset Color = -1

	Black Color = iota - 1
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

var colorNames = [...]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// palette holds the reference RGB value of each curses color.
var palette = [...]colorful.Color{
	{R: 0, G: 0, B: 0},
	{R: 0.8, G: 0, B: 0},
	{R: 0, G: 0.8, B: 0},
	{R: 0.8, G: 0.8, B: 0},
	{R: 0, G: 0, B: 0.8},
	{R: 0.8, G: 0, B: 0.8},
	{R: 0, G: 0.8, B: 0.8},
	{R: 0.9, G: 0.9, B: 0.9},
}

// String returns the color name, or "" when unset.
func (c Color) String() string {
	if c < Black || c > White {
		return ""
	}
	return colorNames[c]
}

// ParseColor converts a color name, a curses color number or an "#rgb" /
// "#rrggbb" value into a Color. RGB values map to the nearest curses color.
// The empty string and "default" yield ColorUnset.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "default" {
		return ColorUnset, nil
	}
	for i, name := range colorNames {
		if s == name {
			return Color(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < -1 || n > int(White) {
			return ColorUnset, fmt.Errorf("%w %q", ErrBadColor, s)
		}
		return Color(n), nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return ColorUnset, fmt.Errorf("%w %q", ErrBadColor, s)
		}
		return Nearest(c), nil
	}
	return ColorUnset, fmt.Errorf("%w %q", ErrBadColor, s)
}

// Nearest returns the curses color closest to c in CIE Lab space.
func Nearest(c colorful.Color) Color {
	best, bestDist := Black, -1.0
	for i, p := range palette {
		d := c.DistanceLab(p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = Color(i), d
		}
	}
	return best
}

// Attr is a mask of terminal video attributes, or AttrUnset.
type Attr int

// Video attributes. AttrNormal is an explicit "no attributes" value, which
// differs from AttrUnset.
const (
	AttrUnset  Attr = -1
	AttrNormal Attr = 0

	AttrBold Attr = 1 << iota
	AttrDim
	AttrUnderline
	AttrReverse
	AttrBlink
	AttrStandout
)

var attrNames = []struct {
	name string
	attr Attr
}{
	{"bold", AttrBold},
	{"dim", AttrDim},
	{"underline", AttrUnderline},
	{"reverse", AttrReverse},
	{"blink", AttrBlink},
	{"standout", AttrStandout},
}

// ParseAttr parses a space separated list of attribute keywords such as
// "bold underline". "normal" yields AttrNormal and the empty string yields
// AttrUnset.
func ParseAttr(s string) (Attr, error) {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return AttrUnset, nil
	}
	a := AttrNormal
next:
	for _, f := range fields {
		if f == "normal" {
			continue
		}
		for _, an := range attrNames {
			if f == an.name {
				a |= an.attr
				continue next
			}
		}
		return AttrUnset, fmt.Errorf("%w %q", ErrBadAttr, f)
	}
	return a, nil
}

// Has reports whether every bit of b is set in a.
func (a Attr) Has(b Attr) bool {
	return a != AttrUnset && a&b == b
}

// String returns the attribute keywords, "normal", or "" when unset.
func (a Attr) String() string {
	if a == AttrUnset {
		return ""
	}
	var parts []string
	for _, an := range attrNames {
		if a&an.attr != 0 {
			parts = append(parts, an.name)
		}
	}
	if len(parts) == 0 {
		return "normal"
	}
	return strings.Join(parts, " ")
}

// Style is a set of display attributes. Unset fields inherit from a lower
// priority tag or from the widget.
type Style struct {
	Fg   Color
	Bg   Color
	Attr Attr
}

// Unset returns a style with every field unset.
func Unset() Style {
	return Style{Fg: ColorUnset, Bg: ColorUnset, Attr: AttrUnset}
}

// Over fills the unset fields of s from base.
func (s Style) Over(base Style) Style {
	if s.Fg == ColorUnset {
		s.Fg = base.Fg
	}
	if s.Bg == ColorUnset {
		s.Bg = base.Bg
	}
	if s.Attr == AttrUnset {
		s.Attr = base.Attr
	}
	return s
}
