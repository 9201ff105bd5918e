package board

import (
	"slices"

	"github.com/revisjon/tavle/internal/domain"
)

// Store owns the in-memory task list the board renders from. It is the only
// shared mutable resource of the engine and is confined to the UI event
// loop. Every mutation replaces the whole slice, never a task in place, so
// consumers keying change detection on slice identity observe each commit.
type Store struct {
	tasks []domain.Task
}

// NewStore constructs a store seeded with the given tasks.
func NewStore(tasks []domain.Task) *Store {
	s := &Store{}
	s.Replace(tasks)
	return s
}

// Replace swaps in a fresh authoritative task list, e.g. after a bulk fetch.
func (s *Store) Replace(tasks []domain.Task) {
	next := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		next = append(next, t.Clone())
	}
	s.tasks = next
}

// Tasks returns the current list. The slice is replaced wholesale on every
// mutation; callers must treat it as immutable.
func (s *Store) Tasks() []domain.Task {
	return s.tasks
}

// Len returns the number of tasks held.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (domain.Task, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Task{}, false
}

// Put replaces the task with a matching id in a fresh slice. Tasks other
// than the one addressed are untouched. Returns false when the id is
// unknown, in which case the list is left as-is.
func (s *Store) Put(task domain.Task) bool {
	idx := slices.IndexFunc(s.tasks, func(t domain.Task) bool { return t.ID == task.ID })
	if idx < 0 {
		return false
	}
	next := make([]domain.Task, len(s.tasks))
	copy(next, s.tasks)
	next[idx] = task.Clone()
	s.tasks = next
	return true
}
