// Package search finds text patterns in a line tree.
//
// Searches run line by line. Without a stop index the scan is circular: it
// starts at the given index, runs to one end of the text, wraps around and
// finishes on the starting line, so every position is examined exactly once.
// Matches never span lines.
package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/cktext/internal/engine/btree"
)

// ErrBadPattern indicates a regular expression that does not compile.
var ErrBadPattern = errors.New("search: bad pattern")

// Options control a search.
type Options struct {
	// Backwards searches toward the start of the text for the closest match
	// before the start index.
	Backwards bool

	// Regexp treats the pattern as a regular expression instead of literal
	// text.
	Regexp bool

	// NoCase ignores letter case.
	NoCase bool

	// Stop, when set, bounds the search instead of wrapping around: forward
	// matches start before it, backward matches start at or after it.
	Stop *btree.Index
}

// Match is a search result.
type Match struct {
	Index btree.Index
	// Length is the length of the match in characters.
	Length int
}

// span is a match within one line, in characters.
type span struct {
	start, end int
}

type matcher struct {
	re      *regexp.Regexp
	after   *regexp.Regexp // one character, then the pattern
	literal string
	noCase  bool
	caser   cases.Caser
}

func newMatcher(pattern string, opts Options) (*matcher, error) {
	m := &matcher{noCase: opts.NoCase}
	if opts.Regexp {
		flags := "(?m)"
		if opts.NoCase {
			flags = "(?mi)"
		}
		re, err := regexp.Compile(flags + pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
		}
		after, err := regexp.Compile(flags + "(?s:.)(?:" + pattern + ")")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
		}
		m.re, m.after = re, after
		return m, nil
	}
	m.literal = pattern
	if opts.NoCase {
		m.caser = cases.Lower(language.Und)
		m.literal = m.caser.String(pattern)
	}
	return m, nil
}

// find returns every match in text ordered by start position. Matches may
// overlap: after each match the scan resumes one character past its start.
func (m *matcher) find(text string) []span {
	if m.re != nil {
		var out []span
		offsets := charOffsets(text)
		for pos := 0; pos <= len(text); {
			b, e, ok := m.findFrom(text, pos)
			if !ok {
				break
			}
			out = append(out, span{start: offsets[b], end: offsets[e]})
			if b == len(text) {
				break
			}
			_, size := utf8.DecodeRuneInString(text[b:])
			pos = b + size
		}
		return out
	}

	starts, ends := charOffsets(text), []int(nil)
	if m.noCase {
		text, starts, ends = m.lower(text)
	}
	if ends == nil {
		ends = starts
	}

	var out []span
	for pos := 0; pos <= len(text); {
		i := strings.Index(text[pos:], m.literal)
		if i < 0 {
			break
		}
		b := pos + i
		out = append(out, span{start: starts[b], end: ends[b+len(m.literal)]})
		_, size := utf8.DecodeRuneInString(text[b:])
		pos = b + size
	}
	return out
}

// findFrom returns the byte range of the leftmost regexp match starting at
// or after pos. Past the start of the line the search begins one character
// early and uses m.after, so that ^ and \b still see the preceding
// character.
func (m *matcher) findFrom(text string, pos int) (int, int, bool) {
	if pos == 0 {
		loc := m.re.FindStringIndex(text)
		if loc == nil {
			return 0, 0, false
		}
		return loc[0], loc[1], true
	}
	_, size := utf8.DecodeLastRuneInString(text[:pos])
	q := pos - size
	loc := m.after.FindStringIndex(text[q:])
	if loc == nil {
		return 0, 0, false
	}
	_, skip := utf8.DecodeRuneInString(text[q+loc[0]:])
	return q + loc[0] + skip, q + loc[1], true
}

// lower lowercases text one character at a time. It returns the lowered
// text and, for every byte offset in it, the index of the original
// character starting there and the number of original characters that
// end at or before it.
func (m *matcher) lower(text string) (string, []int, []int) {
	var sb strings.Builder
	var starts, ends []int
	char := 0
	for _, r := range text {
		low := m.caser.String(string(r))
		for i := 0; i < len(low); i++ {
			starts = append(starts, char)
			if i == 0 {
				ends = append(ends, char)
			} else {
				ends = append(ends, char+1)
			}
		}
		sb.WriteString(low)
		char++
	}
	starts = append(starts, char)
	ends = append(ends, char)
	return sb.String(), starts, ends
}

// charOffsets maps each byte offset of text, and len(text), to a character
// index.
func charOffsets(text string) []int {
	offsets := make([]int, len(text)+1)
	char := 0
	for i := range text {
		offsets[i] = char
		for j := i + 1; j < len(text) && !utf8.RuneStart(text[j]); j++ {
			offsets[j] = char + 1
		}
		char++
	}
	offsets[len(text)] = char
	return offsets
}

// Search looks for pattern starting at start. It returns false when there
// is no match.
func Search(tree *btree.Tree, pattern string, start btree.Index, opts Options) (Match, bool, error) {
	m, err := newMatcher(pattern, opts)
	if err != nil {
		return Match{}, false, err
	}
	if start.IsEnd() {
		start = start.BackwardChars(1)
	}
	if pattern == "" && !opts.Regexp {
		return Match{Index: start}, true, nil
	}
	var mt Match
	var ok bool
	if opts.Stop != nil {
		mt, ok = searchBounded(tree, m, start, *opts.Stop, opts.Backwards)
	} else {
		mt, ok = searchCircular(tree, m, start, opts.Backwards)
	}
	return mt, ok, nil
}

// pick returns the first (or, backwards, the last) span whose start lies in
// [lo, hi). A negative hi means no upper bound.
func pick(spans []span, lo, hi int, last bool) (span, bool) {
	var found span
	ok := false
	for _, s := range spans {
		if s.start < lo || (hi >= 0 && s.start >= hi) {
			continue
		}
		found, ok = s, true
		if !last {
			break
		}
	}
	return found, ok
}

func result(tree *btree.Tree, line int, s span) Match {
	return Match{Index: tree.MakeIndex(line, s.start), Length: s.end - s.start}
}

func searchCircular(tree *btree.Tree, m *matcher, start btree.Index, backwards bool) (Match, bool) {
	numLines := tree.NumLines()
	startLine, startChar := start.LineNumber(), start.Char

	line, wrapped := startLine, false
	for {
		spans := m.find(tree.FindLine(line).Text())
		lo, hi := 0, -1
		if line == startLine {
			// The starting line is split: one half is searched first, the
			// other after wrapping around.
			if wrapped == backwards {
				lo = startChar
			} else {
				hi = startChar
			}
		}
		if s, ok := pick(spans, lo, hi, backwards); ok {
			return result(tree, line, s), true
		}
		if wrapped {
			return Match{}, false
		}

		if backwards {
			line--
			if line < 0 {
				line = numLines - 1
			}
		} else {
			line++
			if line >= numLines {
				line = 0
			}
		}
		if line == startLine {
			wrapped = true
		}
	}
}

func searchBounded(tree *btree.Tree, m *matcher, start, stop btree.Index, backwards bool) (Match, bool) {
	c := btree.Compare(stop, start)
	if (!backwards && c <= 0) || (backwards && c >= 0) {
		return Match{}, false
	}
	startLine, startChar := start.LineNumber(), start.Char
	stopLine, stopChar := stop.LineNumber(), stop.Char
	if stopLine >= tree.NumLines() {
		stopLine, stopChar = tree.NumLines()-1, -1
	}

	if !backwards {
		for line := startLine; line <= stopLine; line++ {
			lo, hi := 0, -1
			if line == startLine {
				lo = startChar
			}
			if line == stopLine {
				hi = stopChar
			}
			if s, ok := pick(m.find(tree.FindLine(line).Text()), lo, hi, false); ok {
				return result(tree, line, s), true
			}
		}
		return Match{}, false
	}

	for line := startLine; line >= stopLine; line-- {
		lo, hi := 0, -1
		if line == startLine {
			hi = startChar
		}
		if line == stopLine {
			lo = stopChar
		}
		if s, ok := pick(m.find(tree.FindLine(line).Text()), lo, hi, true); ok {
			return result(tree, line, s), true
		}
	}
	return Match{}, false
}
