// Package listview implements the list reconciliation engine shared by every
// dashboard tab: snapshot ingestion with change detection, a navigation
// debounce window, filtering, sorting, and identity-based selection that
// survives reordering and refreshes.
package listview

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"sort"
	"time"
)

// Row is the capability contract a domain type must satisfy to live in a
// State. Key must be stable across refreshes for the same underlying entity.
// Fingerprint writes only identity-relevant fields; volatile metrics must
// stay out of it so a metrics-only change never counts as new content.
type Row interface {
	Key() string
	Match(query string) bool
	Fingerprint(w io.Writer)
}

// SortColumn pairs a display name with an ascending comparator.
type SortColumn[T Row] struct {
	Name string
	Less func(a, b T) bool
}

const (
	// PageSize is how many rows a page up/down moves the cursor.
	PageSize = 10

	// NavigationDebounce is how long after a navigation keypress incoming
	// snapshots are discarded, so the list does not shift under the cursor.
	NavigationDebounce = 50 * time.Millisecond
)

// State holds one tab's rows plus its selection, filter, and sort settings.
// Not safe for concurrent use; the event loop is the single writer.
type State[T Row] struct {
	rows    []T
	columns []SortColumn[T]

	sortIndex  int
	descending bool
	filter     string

	selectedKey string
	lastNav     time.Time
	fingerprint uint64
	loaded      bool

	now func() time.Time // swapped out in tests
}

// New returns an empty State sorting by columns[sortIndex].
func New[T Row](columns []SortColumn[T], sortIndex int, descending bool) *State[T] {
	if len(columns) == 0 {
		panic("listview: need at least one sort column")
	}
	if sortIndex < 0 || sortIndex >= len(columns) {
		sortIndex = 0
	}
	return &State[T]{
		columns:    columns,
		sortIndex:  sortIndex,
		descending: descending,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for the navigation debounce.
// Tests use it to make the window deterministic.
func (s *State[T]) SetClock(now func() time.Time) {
	s.now = now
}

// Update ingests a fresh snapshot. It returns false when the snapshot is
// rejected: either its fingerprint matches the current content, or a
// navigation happened inside the debounce window. A debounced snapshot does
// not update the stored fingerprint, so the same content is accepted again
// once the window has passed. The very first snapshot is always accepted.
func (s *State[T]) Update(rows []T) bool {
	sum := fingerprint(rows)
	if s.loaded && sum == s.fingerprint {
		return false
	}
	if s.loaded && s.now().Sub(s.lastNav) < NavigationDebounce {
		return false
	}
	s.rows = rows
	s.fingerprint = sum
	s.loaded = true
	s.sort()
	s.reconcile(s.filter)
	return true
}

func fingerprint[T Row](rows []T) uint64 {
	h := fnv.New64a()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(rows)))
	h.Write(n[:])
	for _, r := range rows {
		r.Fingerprint(h)
	}
	return h.Sum64()
}

// SetFilter replaces the persisted filter. Filters apply immediately; they
// are never debounced.
func (s *State[T]) SetFilter(filter string) {
	s.filter = filter
	s.reconcile(filter)
}

// ClearFilter drops the persisted filter.
func (s *State[T]) ClearFilter() {
	s.SetFilter("")
}

// CycleSortColumn advances to the next sort column, wrapping around. The
// sort direction is kept.
func (s *State[T]) CycleSortColumn() {
	s.sortIndex = (s.sortIndex + 1) % len(s.columns)
	s.sort()
}

// ToggleSortOrder flips between ascending and descending.
func (s *State[T]) ToggleSortOrder() {
	s.descending = !s.descending
	s.sort()
}

func (s *State[T]) sort() {
	less := s.columns[s.sortIndex].Less
	if s.descending {
		sort.SliceStable(s.rows, func(i, j int) bool { return less(s.rows[j], s.rows[i]) })
	} else {
		sort.SliceStable(s.rows, func(i, j int) bool { return less(s.rows[i], s.rows[j]) })
	}
}

// visible returns indexes into rows that pass the given filter, in display
// order.
func (s *State[T]) visible(filter string) []int {
	idx := make([]int, 0, len(s.rows))
	for i, r := range s.rows {
		if filter == "" || r.Match(filter) {
			idx = append(idx, i)
		}
	}
	return idx
}

// position returns the position of the selected row within vis, or -1.
func (s *State[T]) position(vis []int) int {
	if s.selectedKey == "" {
		return -1
	}
	for p, i := range vis {
		if s.rows[i].Key() == s.selectedKey {
			return p
		}
	}
	return -1
}

// reconcile re-anchors the selection after rows or the filter changed: keep
// the same identity when it is still visible, otherwise fall back to the
// first visible row, or to nothing when the view is empty.
func (s *State[T]) reconcile(filter string) {
	vis := s.visible(filter)
	if len(vis) == 0 {
		s.selectedKey = ""
		return
	}
	if s.position(vis) >= 0 {
		return
	}
	s.selectedKey = s.rows[vis[0]].Key()
}

// moveTo stamps the navigation time and moves the selection within the view
// defined by filter. step computes the new position from the current one and
// the view length. All navigation is a no-op on an empty view.
func (s *State[T]) moveTo(filter string, step func(pos, n int) int) {
	s.lastNav = s.now()
	vis := s.visible(filter)
	if len(vis) == 0 {
		return
	}
	pos := s.position(vis)
	if pos < 0 {
		pos = 0
	}
	next := step(pos, len(vis))
	s.selectedKey = s.rows[vis[next]].Key()
}

// SelectNext moves the cursor down one row, wrapping to the top.
func (s *State[T]) SelectNext(filter string) {
	s.moveTo(filter, func(pos, n int) int { return (pos + 1) % n })
}

// SelectPrev moves the cursor up one row, wrapping to the bottom.
func (s *State[T]) SelectPrev(filter string) {
	s.moveTo(filter, func(pos, n int) int { return (pos - 1 + n) % n })
}

// SelectPageDown moves the cursor down a page, clamped to the last row.
func (s *State[T]) SelectPageDown(filter string) {
	s.moveTo(filter, func(pos, n int) int {
		if pos+PageSize >= n {
			return n - 1
		}
		return pos + PageSize
	})
}

// SelectPageUp moves the cursor up a page, clamped to the first row.
func (s *State[T]) SelectPageUp(filter string) {
	s.moveTo(filter, func(pos, n int) int {
		if pos-PageSize < 0 {
			return 0
		}
		return pos - PageSize
	})
}

// SelectFirst jumps to the first visible row.
func (s *State[T]) SelectFirst(filter string) {
	s.moveTo(filter, func(pos, n int) int { return 0 })
}

// SelectLast jumps to the last visible row.
func (s *State[T]) SelectLast(filter string) {
	s.moveTo(filter, func(pos, n int) int { return n - 1 })
}

// Selected resolves the current selection through the view defined by
// filter. When the selected identity is not visible the first visible row is
// returned. ok is false only when the view is empty.
func (s *State[T]) Selected(filter string) (row T, ok bool) {
	vis := s.visible(filter)
	if len(vis) == 0 {
		return row, false
	}
	pos := s.position(vis)
	if pos < 0 {
		pos = 0
	}
	return s.rows[vis[pos]], true
}

// Items returns the backing row slice in display order. Callers may mutate
// row fields in place (the metrics pass does); they must not grow or reorder
// the slice.
func (s *State[T]) Items() []T { return s.rows }

// VisibleIndexes returns the display-order indexes of rows passing filter.
func (s *State[T]) VisibleIndexes(filter string) []int { return s.visible(filter) }

// Cursor returns the selection's position within the filtered view, or 0
// when the selected identity is not visible, or -1 for an empty view.
func (s *State[T]) Cursor(filter string) int {
	vis := s.visible(filter)
	if len(vis) == 0 {
		return -1
	}
	pos := s.position(vis)
	if pos < 0 {
		pos = 0
	}
	return pos
}

// Len returns the total (unfiltered) row count.
func (s *State[T]) Len() int { return len(s.rows) }

// Loaded reports whether a snapshot has ever been accepted.
func (s *State[T]) Loaded() bool { return s.loaded }

// Filter returns the persisted filter.
func (s *State[T]) Filter() string { return s.filter }

// SortName returns the active sort column's display name.
func (s *State[T]) SortName() string { return s.columns[s.sortIndex].Name }

// Descending reports the sort direction.
func (s *State[T]) Descending() bool { return s.descending }
