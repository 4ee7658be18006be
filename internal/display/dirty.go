package display

// region is a range of document lines [start, end] waiting to be redrawn.
// An end of toEnd reaches past the last line.
type region struct {
	start int
	end   int
}

const toEnd = -1

func (r region) last() int {
	if r.end == toEnd {
		return int(^uint(0) >> 1)
	}
	return r.end
}

func (r region) contains(line int) bool {
	return line >= r.start && line <= r.last()
}

// merge combines overlapping or adjacent regions.
func (r region) merge(o region) (region, bool) {
	if r.last() < o.start-1 || o.last() < r.start-1 {
		return region{}, false
	}
	m := region{start: min(r.start, o.start), end: max(r.end, o.end)}
	if r.end == toEnd || o.end == toEnd {
		m.end = toEnd
	}
	return m, true
}

// tracker collects dirty line regions between redraws and coalesces them.
// Past maxRegions it gives up and asks for a full redraw.
type tracker struct {
	regions    []region
	full       bool
	maxRegions int
}

func newTracker() *tracker {
	return &tracker{
		regions:    make([]region, 0, 8),
		maxRegions: 16,
	}
}

// markFull marks everything dirty.
func (t *tracker) markFull() {
	t.full = true
	t.regions = t.regions[:0]
}

// markLines marks lines start through end dirty; end may be toEnd.
func (t *tracker) markLines(start, end int) {
	if t.full {
		return
	}
	if start < 0 {
		start = 0
	}
	if end != toEnd && end < start {
		start, end = end, start
	}
	r := region{start: start, end: end}
	for i := range t.regions {
		if m, ok := t.regions[i].merge(r); ok {
			t.regions[i] = m
			t.coalesce()
			return
		}
	}
	t.regions = append(t.regions, r)
	if len(t.regions) > t.maxRegions {
		t.markFull()
	}
}

func (t *tracker) coalesce() {
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(t.regions) && !changed; i++ {
			for j := i + 1; j < len(t.regions); j++ {
				if m, ok := t.regions[i].merge(t.regions[j]); ok {
					t.regions[i] = m
					t.regions = append(t.regions[:j], t.regions[j+1:]...)
					changed = true
					break
				}
			}
		}
	}
}

// dirty reports whether line must be redrawn.
func (t *tracker) dirty(line int) bool {
	if t.full {
		return true
	}
	for _, r := range t.regions {
		if r.contains(line) {
			return true
		}
	}
	return false
}

func (t *tracker) isDirty() bool {
	return t.full || len(t.regions) > 0
}

func (t *tracker) reset() {
	t.full = false
	t.regions = t.regions[:0]
}
