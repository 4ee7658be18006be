// Package indexexpr parses textual text indices such as "1.4", "insert",
// "sel.first + 2 chars" or "end - 1 lines linestart" into tree positions.
//
// An index expression is a base followed by any number of modifiers that
// are applied left to right. Bases are, in order of precedence:
//
//	<tag>.first, <tag>.last   first tagged character / just past the last one
//	@x,y                      the character drawn at a screen position
//	<line>.<char>, <line>.end 1-based line, 0-based character
//	<mark>                    a mark such as insert or current
//	end                       the start of the dummy line after the text
//
// Modifiers are "+ N chars", "- N lines" (units may be abbreviated) and the
// keywords linestart, lineend, wordstart and wordend (at least five letters).
package indexexpr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dshills/cktext/internal/engine/btree"
	"github.com/dshills/cktext/internal/engine/marks"
	"github.com/dshills/cktext/internal/engine/tags"
)

// BadIndexError reports an index expression that could not be resolved.
type BadIndexError struct {
	Text string
}

func (e *BadIndexError) Error() string {
	return fmt.Sprintf("bad text index %q", e.Text)
}

var (
	lineCharRegexp = regexp.MustCompile(`^(-?\d+)\.(\d+|end)`)
	pointRegexp    = regexp.MustCompile(`^@(-?\d+),(-?\d+)`)
)

// PointFunc maps a screen position to the index displayed there. It
// reports false when nothing is displayed.
type PointFunc func(x, y int) (btree.Index, bool)

// Parser resolves index expressions against one widget's tree, marks and
// tags.
type Parser struct {
	tree  *btree.Tree
	marks *marks.Table
	tags  *tags.Table
	point PointFunc
}

// Option configures a Parser.
type Option func(*Parser)

// WithPoint enables "@x,y" bases.
func WithPoint(fn PointFunc) Option {
	return func(p *Parser) {
		p.point = fn
	}
}

// NewParser returns a parser for the given widget state.
func NewParser(tree *btree.Tree, m *marks.Table, t *tags.Table, opts ...Option) *Parser {
	p := &Parser{tree: tree, marks: m, tags: t}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetPoint replaces the function used for "@x,y" bases.
func (p *Parser) SetPoint(fn PointFunc) {
	p.point = fn
}

// Parse resolves spec. It fails with a *BadIndexError.
func (p *Parser) Parse(spec string) (btree.Index, error) {
	idx, rest, ok := p.parseBase(spec)
	if !ok {
		return btree.Index{}, &BadIndexError{Text: spec}
	}
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return idx, nil
		}
		if rest[0] == '+' || rest[0] == '-' {
			idx, rest, ok = forwBack(idx, rest)
		} else {
			idx, rest, ok = startEnd(idx, rest)
		}
		if !ok {
			return btree.Index{}, &BadIndexError{Text: spec}
		}
	}
}

func (p *Parser) parseBase(spec string) (btree.Index, string, bool) {
	if idx, rest, found, ok := p.parseTagBase(spec); found {
		return idx, rest, ok
	}

	if spec != "" && spec[0] == '@' {
		m := pointRegexp.FindStringSubmatch(spec)
		if m == nil || p.point == nil {
			return btree.Index{}, "", false
		}
		x, _ := parseCount(m[1])
		y, _ := parseCount(m[2])
		idx, ok := p.point(x, y)
		return idx, spec[len(m[0]):], ok
	}

	if spec != "" && (spec[0] == '-' || (spec[0] >= '0' && spec[0] <= '9')) {
		m := lineCharRegexp.FindStringSubmatch(spec)
		if m == nil {
			return btree.Index{}, "", false
		}
		line, ok := parseCount(m[1])
		if !ok {
			return btree.Index{}, "", false
		}
		line = max(line, 0) - 1
		var idx btree.Index
		if m[2] == "end" {
			idx = p.tree.MakeIndex(line, 0).LineEnd()
		} else {
			char, ok := parseCount(m[2])
			if !ok {
				return btree.Index{}, "", false
			}
			idx = p.tree.MakeIndex(line, char)
		}
		return idx, spec[len(m[0]):], true
	}

	word := spec
	if i := strings.IndexFunc(spec, isWordEnd); i >= 0 {
		word = spec[:i]
	}
	if word == "" {
		return btree.Index{}, "", false
	}
	rest := spec[len(word):]
	if p.marks != nil {
		if idx, err := p.marks.Index(word); err == nil {
			return idx, rest, true
		}
	}
	if word == "end" {
		return p.tree.End(), rest, true
	}
	return btree.Index{}, "", false
}

// parseTagBase handles "<tag>.first" and "<tag>.last". found is false when
// spec does not name a known tag, so that other bases can be tried.
func (p *Parser) parseTagBase(spec string) (idx btree.Index, rest string, found, ok bool) {
	dot := strings.LastIndexByte(spec, '.')
	if dot < 0 || p.tags == nil {
		return
	}
	after := spec[dot+1:]
	var first bool
	switch {
	case strings.HasPrefix(after, "first"):
		first = true
		rest = after[len("first"):]
	case strings.HasPrefix(after, "last"):
		rest = after[len("last"):]
	default:
		return
	}
	tag, known := p.tags.Lookup(spec[:dot])
	if !known {
		return
	}
	found = true
	if first {
		idx, ok = FirstTagged(p.tree, tag.Node())
	} else {
		idx, ok = LastTagged(p.tree, tag.Node())
	}
	return
}

// FirstTagged returns the first character carrying tag.
func FirstTagged(tree *btree.Tree, tag *btree.Tag) (btree.Index, bool) {
	start := tree.Start()
	if tree.CharTagged(start, tag) {
		return start, true
	}
	s := tree.StartSearch(start, tree.End(), tag)
	if !s.Next() {
		return btree.Index{}, false
	}
	return s.Index, true
}

// LastTagged returns the index just past the last character carrying tag.
func LastTagged(tree *btree.Tree, tag *btree.Tag) (btree.Index, bool) {
	var last btree.Index
	found := false
	s := tree.StartSearch(tree.Start(), tree.End(), tag)
	for s.Next() {
		last, found = s.Index, true
	}
	return last, found
}

func isWordEnd(r rune) bool {
	return unicode.IsSpace(r) || r == '+' || r == '-'
}

// forwBack applies a "+ N units" or "- N units" modifier.
func forwBack(idx btree.Index, s string) (btree.Index, string, bool) {
	sign := s[0]
	s = strings.TrimLeftFunc(s[1:], unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	count, ok := parseCount(s[:end])
	if !ok {
		return idx, "", false
	}
	if sign == '-' {
		count = negate(count)
	}
	s = strings.TrimLeftFunc(s[end:], unicode.IsSpace)

	units := s
	if i := strings.IndexFunc(s, isWordEnd); i >= 0 {
		units = s[:i]
	}
	rest := s[len(units):]
	switch {
	case units == "":
		return idx, "", false
	case strings.HasPrefix("chars", units):
		return idx.ForwardChars(count), rest, true
	case strings.HasPrefix("lines", units):
		return idx.ForwardLines(count), rest, true
	}
	return idx, "", false
}

// parseCount parses a signed decimal count, saturating values that do not
// fit in an int.
func parseCount(s string) (int, bool) {
	n, err := strconv.ParseInt(s, 10, 0)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return int(n), true
}

func negate(n int) int {
	if n == math.MinInt {
		return math.MaxInt
	}
	return -n
}

// startEnd applies one of the linestart, lineend, wordstart or wordend
// keywords.
func startEnd(idx btree.Index, s string) (btree.Index, string, bool) {
	word := s
	if i := strings.IndexFunc(s, isWordEnd); i >= 0 {
		word = s[:i]
	}
	rest := s[len(word):]
	if len(word) < 5 {
		return idx, "", false
	}
	switch {
	case strings.HasPrefix("lineend", word):
		return idx.LineEnd(), rest, true
	case strings.HasPrefix("linestart", word):
		return idx.LineStart(), rest, true
	case strings.HasPrefix("wordend", word):
		return idx.WordEnd(), rest, true
	case strings.HasPrefix("wordstart", word):
		return idx.WordStart(), rest, true
	}
	return idx, "", false
}
