package models

import (
	"slices"
)

// ChangeSet classifies content filenames touched since a reference point.
//
// A nil *ChangeSet means the changes could not be determined and a full
// rebuild is required. A non-nil ChangeSet with no entries means there is
// nothing to do.
type ChangeSet struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// Len returns the total number of entries across all three sets.
func (c *ChangeSet) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Empty reports whether a known change set carries no work.
func (c *ChangeSet) Empty() bool {
	return c != nil && c.Len() == 0
}

// Normalize sorts each set and removes duplicates within it.
func (c *ChangeSet) Normalize() {
	if c == nil {
		return
	}
	c.Added = sortedUnique(c.Added)
	c.Modified = sortedUnique(c.Modified)
	c.Deleted = sortedUnique(c.Deleted)
}

// Touched returns added and modified filenames, deduplicated, added first.
func (c *ChangeSet) Touched() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Added)+len(c.Modified))
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	for _, set := range [][]string{c.Added, c.Modified} {
		for _, name := range set {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}
