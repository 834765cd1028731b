// Package index maintains the keyed metadata store and its two build paths:
// full reconstruction and incremental merge.
package index

import (
	"maps"
	"slices"
	"time"

	"github.com/starford/postindex/internal/models"
)

// Store is the in-memory metadata store, keyed by filename.
//
// The persisted form is produced by Snapshot, which first orders records by
// filename and then stable-sorts them by date descending, so the final order
// depends only on the set of records and never on how they were inserted.
type Store struct {
	records map[string]models.Post
}

// NewStore creates a store seeded with posts. A later record with the same
// filename replaces an earlier one.
func NewStore(posts []models.Post) *Store {
	s := &Store{records: make(map[string]models.Post, len(posts))}
	for _, p := range posts {
		s.Put(p)
	}
	return s
}

// Put inserts or replaces the record keyed by p.Filename.
func (s *Store) Put(p models.Post) {
	s.records[p.Filename] = p
}

// Delete removes the record for filename. Deleting an absent key is a no-op.
func (s *Store) Delete(filename string) bool {
	if _, ok := s.records[filename]; !ok {
		return false
	}
	delete(s.records, filename)
	return true
}

// Get returns the record for filename.
func (s *Store) Get(filename string) (models.Post, bool) {
	p, ok := s.records[filename]
	return p, ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Snapshot returns the records in their persisted order.
func (s *Store) Snapshot() []models.Post {
	keys := slices.Sorted(maps.Keys(s.records))
	out := make([]models.Post, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.records[k])
	}
	SortByDate(out)
	return out
}

// SortByDate stable-sorts posts by date, newest first. Dates that cannot be
// parsed sort after every valid date.
func SortByDate(posts []models.Post) {
	keys := make(map[string]time.Time, len(posts))
	for _, p := range posts {
		if _, ok := keys[p.Date]; !ok {
			keys[p.Date] = ParseDate(p.Date)
		}
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return keys[b.Date].Compare(keys[a.Date])
	})
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateOnly,
	time.DateTime,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseDate parses a record date. The zero time is returned for values that
// match no known layout.
func ParseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
