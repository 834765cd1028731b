package changes

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/storage"
)

type eventKind int

const (
	kindAdded eventKind = iota + 1
	kindModified
	kindDeleted
)

// EventSet accumulates filesystem events for the top level of a content
// directory into a change set. It is not safe for concurrent use.
type EventSet struct {
	root  string
	state map[string]eventKind
}

// NewEventSet creates an empty accumulator for events under root.
func NewEventSet(root string) *EventSet {
	return &EventSet{root: filepath.Clean(root), state: make(map[string]eventKind)}
}

// Add records ev. It reports whether the event concerned a content file
// directly inside root.
func (s *EventSet) Add(ev fsnotify.Event) bool {
	if filepath.Dir(filepath.Clean(ev.Name)) != s.root {
		return false
	}
	name := filepath.Base(ev.Name)
	if !storage.IsContent(name) {
		return false
	}

	prev := s.state[name]
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		s.state[name] = kindDeleted
	case ev.Op&fsnotify.Create != 0:
		if prev == kindDeleted {
			// replaced in place, e.g. an editor's atomic save
			s.state[name] = kindModified
		} else {
			s.state[name] = kindAdded
		}
	case ev.Op&fsnotify.Write != 0:
		if prev != kindAdded {
			s.state[name] = kindModified
		}
	default:
		return false
	}
	return true
}

// Len returns the number of distinct files recorded.
func (s *EventSet) Len() int { return len(s.state) }

// Flush returns the accumulated change set and resets the accumulator.
func (s *EventSet) Flush() *models.ChangeSet {
	cs := &models.ChangeSet{}
	for name, k := range s.state {
		switch k {
		case kindAdded:
			cs.Added = append(cs.Added, name)
		case kindModified:
			cs.Modified = append(cs.Modified, name)
		case kindDeleted:
			cs.Deleted = append(cs.Deleted, name)
		}
	}
	clear(s.state)
	cs.Normalize()
	return cs
}
