package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskFilter narrows a bulk task fetch. Zero values mean "no constraint".
type TaskFilter struct {
	Status     Status
	Priority   Priority
	AssignedTo string
	ClientID   string
	DueFrom    *time.Time
	DueTo      *time.Time
	Statutory  *bool
	Tag        string
	Search     string
}

// IsZero reports whether the filter constrains nothing.
func (f TaskFilter) IsZero() bool {
	return f == TaskFilter{}
}

// Match reports whether a task passes the filter. The sqlite adapter filters
// in SQL; this is the reference semantics used by fakes and local filtering.
func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
		return false
	}
	if f.ClientID != "" && t.ClientID != f.ClientID {
		return false
	}
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueTo)) {
		return false
	}
	if f.Statutory != nil && t.IsStatutory != *f.Statutory {
		return false
	}
	if f.Tag != "" && !slices.Contains(t.Tags, strings.ToLower(strings.TrimSpace(f.Tag))) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		title := strings.ToLower(t.Title)
		desc := strings.ToLower(t.Description)
		if !strings.Contains(title, needle) && !strings.Contains(desc, needle) {
			return false
		}
	}
	return true
}
