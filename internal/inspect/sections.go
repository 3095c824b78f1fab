package inspect

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// Rect is an inclusive pixel rectangle.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.X0 == r.X1 || r.Y0 == r.Y1
}

// Section is one collapsible subtree of the rendered message.
type Section struct {
	// ID is assigned once, in creation order.
	ID int
	// Key is the hash of Path and its repeat ordinal within a pass.
	Key  uint64
	Path string

	// Box starts as the header row and is extended to the last row of the
	// section body once the section is closed. Zero when an ancestor is
	// collapsed.
	Box       Rect
	Collapsed bool

	sparklines map[string]*SparklineEntry
	order      []*SparklineEntry
}

func newSection(id int, key uint64, path string) *Section {
	return &Section{ID: id, Key: key, Path: path, sparklines: make(map[string]*SparklineEntry)}
}

// Sparkline returns the entry for a field, or nil.
func (s *Section) Sparkline(name string) *SparklineEntry {
	return s.sparklines[name]
}

// Sparklines returns the entries in creation order.
func (s *Section) Sparklines() []*SparklineEntry {
	return s.order
}

func (s *Section) addSparkline(name string, capacity int) *SparklineEntry {
	e := &SparklineEntry{Name: name, Series: NewSeries(name, capacity)}
	s.sparklines[name] = e
	s.order = append(s.order, e)
	return e
}

// SectionStore keeps every Section seen by the panel, keyed by structural
// path so state follows a logical field even when sibling fields change.
type SectionStore struct {
	byKey  map[uint64]*Section
	nextID int

	drawn   []*Section
	pass    []*Section
	repeats map[string]int
}

// NewSectionStore creates an empty store.
func NewSectionStore() *SectionStore {
	return &SectionStore{
		byKey:   make(map[uint64]*Section),
		repeats: make(map[string]int),
	}
}

// Len returns the number of sections ever created.
func (st *SectionStore) Len() int { return len(st.byKey) }

func (st *SectionStore) beginPass() {
	st.pass = nil
	clear(st.repeats)
}

func (st *SectionStore) endPass() {
	st.drawn = st.pass
}

// acquire returns the section for path, creating it on first sight. A path
// met more than once in one pass gets its repeat ordinal folded into the key.
func (st *SectionStore) acquire(path string) *Section {
	n := st.repeats[path]
	st.repeats[path] = n + 1
	id := path
	if n > 0 {
		id = path + "#" + strconv.Itoa(n)
	}

	key := xxh3.HashString(id)
	for {
		s, ok := st.byKey[key]
		if !ok {
			s = newSection(st.nextID, key, id)
			st.nextID++
			st.byKey[key] = s
		}
		if s.Path == id {
			st.pass = append(st.pass, s)
			return s
		}
		key++ // hash collision with another path, probe the next slot
	}
}

// Lookup returns the section for a path, or nil.
func (st *SectionStore) Lookup(path string) *Section {
	key := xxh3.HashString(path)
	for {
		s, ok := st.byKey[key]
		if !ok {
			return nil
		}
		if s.Path == path {
			return s
		}
		key++
	}
}

// Sections returns the sections of the last completed pass in draw order.
func (st *SectionStore) Sections() []*Section {
	return st.drawn
}

// SectionAt returns the last drawn section whose box vertically contains y.
func (st *SectionStore) SectionAt(y int) *Section {
	for i := len(st.drawn) - 1; i >= 0; i-- {
		s := st.drawn[i]
		if s.Box.Y0 < y && s.Box.Y1 > y {
			return s
		}
	}
	return nil
}

// BestContaining scans sections in draw order and returns the last one whose
// box contains the point. Later drawn sections win over earlier ones when
// boxes overlap, whatever their depth.
func (st *SectionStore) BestContaining(x, y int) *Section {
	var best *Section
	for _, s := range st.drawn {
		if !s.Box.Empty() && s.Box.Contains(x, y) {
			best = s
		}
	}
	return best
}

// Toggle flips the collapsed flag; it shows on the next paint.
func (st *SectionStore) Toggle(s *Section) {
	if s != nil {
		s.Collapsed = !s.Collapsed
	}
}

// SetAllCollapsed collapses or expands every known section except the root.
func (st *SectionStore) SetAllCollapsed(collapsed bool) {
	for _, s := range st.byKey {
		if s.Path == rootPath {
			continue
		}
		s.Collapsed = collapsed
	}
}
