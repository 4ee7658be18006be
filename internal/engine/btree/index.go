package btree

import (
	"fmt"
	"math"
	"unicode"
)

// Index is a position in the tree: a line and a character offset within it.
// Indices are values; they become invalid after any structural change to the
// tree and must be recomputed.
type Index struct {
	Tree *Tree
	Line *Line
	Char int
}

// MakeIndex returns the index for the given 0-based line and character.
// Out-of-range values saturate: negative lines map to the start of the text,
// lines past the end map to the start of the dummy last line, and character
// offsets past the end of a line map to its newline.
func (t *Tree) MakeIndex(line, char int) Index {
	if line < 0 {
		line = 0
		char = 0
	}
	if line > t.NumLines() {
		return Index{Tree: t, Line: t.last, Char: 0}
	}
	idx := Index{Tree: t, Line: t.FindLine(line), Char: char}
	if idx.Char < 0 {
		idx.Char = 0
	}
	if n := idx.Line.Len(); idx.Char >= n {
		idx.Char = n - 1
	}
	return idx
}

// Start returns the index of the first character in the text.
func (t *Tree) Start() Index {
	return Index{Tree: t, Line: t.first, Char: 0}
}

// End returns the index of the start of the dummy last line.
func (t *Tree) End() Index {
	return Index{Tree: t, Line: t.last, Char: 0}
}

// LineNumber returns the 0-based line number of the index.
func (i Index) LineNumber() int {
	return LineIndex(i.Line)
}

// String prints the index as "line.char" with a 1-based line number.
func (i Index) String() string {
	return fmt.Sprintf("%d.%d", i.LineNumber()+1, i.Char)
}

// IsEnd reports whether the index is on the dummy last line.
func (i Index) IsEnd() bool {
	return i.Line.next == nil
}

// Compare returns -1, 0 or 1 as a is before, equal to or after b.
func Compare(a, b Index) int {
	if a.Line == b.Line {
		switch {
		case a.Char < b.Char:
			return -1
		case a.Char > b.Char:
			return 1
		}
		return 0
	}
	la, lb := a.LineNumber(), b.LineNumber()
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	}
	return 0
}

// ForwardChars returns the index n characters after i. Stepping past the end
// of the text yields the start of the dummy last line. A negative n moves
// backward.
func (i Index) ForwardChars(n int) Index {
	if n < 0 {
		return i.BackwardChars(negate(n))
	}
	dst := i
	for {
		length := dst.Line.Len()
		if n < length-dst.Char {
			dst.Char += n
			return dst
		}
		next := dst.Line.next
		if next == nil {
			dst.Char = length - 1
			return dst
		}
		n -= length - dst.Char
		dst.Line = next
		dst.Char = 0
	}
}

// BackwardChars returns the index n characters before i, stopping at the
// start of the text. A negative n moves forward.
func (i Index) BackwardChars(n int) Index {
	if n < 0 {
		return i.ForwardChars(negate(n))
	}
	dst := i
	for n > dst.Char {
		prev := dst.Line.prev
		if prev == nil {
			dst.Char = 0
			return dst
		}
		n -= dst.Char
		dst.Line = prev
		dst.Char = prev.Len()
	}
	dst.Char -= n
	return dst
}

// negate returns -n, saturating at math.MaxInt.
func negate(n int) int {
	if n == math.MinInt {
		return math.MaxInt
	}
	return -n
}

// ForwardLines returns the index n lines below i, keeping the character
// offset where the target line is long enough. The line is clamped to the
// text.
func (i Index) ForwardLines(n int) Index {
	line := i.LineNumber()
	last := i.Tree.NumLines()
	switch {
	case n > last-line:
		line = last
	case n < -line:
		line = 0
	default:
		line += n
	}
	return i.Tree.MakeIndex(line, i.Char)
}

// BackwardLines returns the index n lines above i.
func (i Index) BackwardLines(n int) Index {
	return i.ForwardLines(negate(n))
}

// LineStart returns the first index of i's line.
func (i Index) LineStart() Index {
	i.Char = 0
	return i
}

// LineEnd returns the index of the newline ending i's line.
func (i Index) LineEnd() Index {
	i.Char = i.Line.Len() - 1
	return i
}

// ToSegment returns the segment holding the character at i and the offset
// of that character within it. Zero-size segments are never returned.
func (i Index) ToSegment() (*Segment, int) {
	offset := i.Char
	s := i.Line.segs
	for offset >= s.size {
		offset -= s.size
		s = s.next
	}
	return s, offset
}

// Rune returns the character at i.
func (i Index) Rune() rune {
	s, offset := i.ToSegment()
	b := byteOffset(s.text, offset)
	for _, r := range s.text[b:] {
		return r
	}
	return '\n'
}

// IsWordRune reports whether r is part of a word for the wordstart and
// wordend modifiers.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// WordEnd returns the index just past the word containing i. If the
// character at i is not part of a word the result is one character later.
func (i Index) WordEnd() Index {
	runes := []rune(i.Line.Text())
	pos := i.Char
	first := true
	for pos < len(runes) && IsWordRune(runes[pos]) {
		pos++
		first = false
	}
	i.Char = pos
	if first {
		return i.ForwardChars(1)
	}
	return i
}

// WordStart returns the index of the first character of the word containing
// i. If the character at i is not part of a word, i is returned unchanged.
func (i Index) WordStart() Index {
	runes := []rune(i.Line.Text())
	pos := i.Char
	first := true
	for pos < len(runes) && IsWordRune(runes[pos]) {
		first = false
		pos--
		if pos < 0 {
			i.Char = 0
			return i
		}
	}
	if !first {
		pos++
	}
	i.Char = pos
	return i
}
