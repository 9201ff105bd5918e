package domain

import (
	"slices"
	"strings"
	"time"
)

// Priority represents a task's urgency bucket.
type Priority string

// PriorityLow and related constants define package defaults.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var validPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(validPriorities, p)
}

// Priorities returns the priorities in ascending urgency order.
func Priorities() []Priority {
	return slices.Clone(validPriorities)
}

// Role is a tenant user's access role, denormalized onto assignments for
// display. Access control itself lives in the surrounding system.
type Role string

// RoleSuperadmin and related constants define the tenant roles.
const (
	RoleSuperadmin Role = "SUPERADMIN"
	RoleOwner      Role = "OWNER"
	RoleEmployee   Role = "EMPLOYEE"
)

var validRoles = []Role{RoleSuperadmin, RoleOwner, RoleEmployee}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return slices.Contains(validRoles, r)
}

// Task is one unit of work on the board. The board engine mutates only
// Status, BoardColumn, BoardOrder, the assignment fields, and UpdatedAt;
// everything else arrives from the backend and is rendered as-is.
type Task struct {
	ID          string
	CompanyID   string
	ClientID    string
	Title       string
	Description string

	Status      Status
	BoardColumn ColumnID
	BoardOrder  int

	Priority Priority
	Tags     []string

	DueDate     *time.Time
	StartDate   *time.Time
	CompletedAt *time.Time

	AssignedTo      string
	AssignedToEmail string
	AssignedToRole  Role

	IsStatutory   bool
	StatutoryType string

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaskInput holds input values for creating a task. Creation happens in the
// surrounding system (forms, statutory batch jobs); the seed command and the
// sqlite stand-in use this constructor.
type TaskInput struct {
	ID            string
	CompanyID     string
	ClientID      string
	Title         string
	Description   string
	BoardColumn   ColumnID
	BoardOrder    int
	Priority      Priority
	Tags          []string
	DueDate       *time.Time
	StartDate     *time.Time
	AssignedTo    string
	IsStatutory   bool
	StatutoryType string
	CreatedBy     string
}

// NewTask constructs a task with the status derived from its column.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.CompanyID = strings.TrimSpace(in.CompanyID)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.CompanyID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.BoardColumn == "" {
		in.BoardColumn = ColumnTodo
	}
	if !in.BoardColumn.Valid() {
		return Task{}, ErrInvalidColumn
	}
	if in.BoardOrder < 0 {
		return Task{}, ErrInvalidOrder
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Priority.Valid() {
		return Task{}, ErrInvalidPriority
	}

	return Task{
		ID:            in.ID,
		CompanyID:     in.CompanyID,
		ClientID:      strings.TrimSpace(in.ClientID),
		Title:         in.Title,
		Description:   in.Description,
		Status:        in.BoardColumn.Status(),
		BoardColumn:   in.BoardColumn,
		BoardOrder:    in.BoardOrder,
		Priority:      in.Priority,
		Tags:          normalizeTags(in.Tags),
		DueDate:       normalizeStamp(in.DueDate),
		StartDate:     normalizeStamp(in.StartDate),
		AssignedTo:    strings.TrimSpace(in.AssignedTo),
		IsStatutory:   in.IsStatutory,
		StatutoryType: strings.TrimSpace(in.StatutoryType),
		CreatedBy:     strings.TrimSpace(in.CreatedBy),
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}, nil
}

// MoveToColumn places the task in a column and re-derives its status so the
// two fields cannot diverge. CompletedAt tracks entry into the completed
// column and is cleared on the way out.
func (t *Task) MoveToColumn(column ColumnID, now time.Time) error {
	if !column.Valid() {
		return ErrInvalidColumn
	}
	ts := now.UTC()
	t.BoardColumn = column
	t.Status = column.Status()
	switch {
	case t.Status == StatusCompleted && t.CompletedAt == nil:
		t.CompletedAt = &ts
	case t.Status != StatusCompleted:
		t.CompletedAt = nil
	}
	t.UpdatedAt = ts
	return nil
}

// SetBoardOrder records a same-column reorder.
func (t *Task) SetBoardOrder(order int, now time.Time) error {
	if order < 0 {
		return ErrInvalidOrder
	}
	t.BoardOrder = order
	t.UpdatedAt = now.UTC()
	return nil
}

// Assign sets the assignee and its denormalized display fields.
func (t *Task) Assign(userID, email string, role Role, now time.Time) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidID
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	t.AssignedTo = userID
	t.AssignedToEmail = strings.TrimSpace(email)
	t.AssignedToRole = role
	t.UpdatedAt = now.UTC()
	return nil
}

// Unassign clears the assignee and its display fields.
func (t *Task) Unassign(now time.Time) {
	t.AssignedTo = ""
	t.AssignedToEmail = ""
	t.AssignedToRole = ""
	t.UpdatedAt = now.UTC()
}

// Clone returns a deep copy so stored tasks are never mutated in place.
func (t Task) Clone() Task {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.DueDate = cloneStamp(t.DueDate)
	out.StartDate = cloneStamp(t.StartDate)
	out.CompletedAt = cloneStamp(t.CompletedAt)
	return out
}

// Equal reports field-for-field equality, used by the optimistic protocol
// to skip redundant reconciliation.
func (t Task) Equal(o Task) bool {
	if !slices.Equal(t.Tags, o.Tags) {
		return false
	}
	if !stampEqual(t.DueDate, o.DueDate) || !stampEqual(t.StartDate, o.StartDate) || !stampEqual(t.CompletedAt, o.CompletedAt) {
		return false
	}
	if !t.CreatedAt.Equal(o.CreatedAt) || !t.UpdatedAt.Equal(o.UpdatedAt) {
		return false
	}
	return t.ID == o.ID &&
		t.CompanyID == o.CompanyID &&
		t.ClientID == o.ClientID &&
		t.Title == o.Title &&
		t.Description == o.Description &&
		t.Status == o.Status &&
		t.BoardColumn == o.BoardColumn &&
		t.BoardOrder == o.BoardOrder &&
		t.Priority == o.Priority &&
		t.AssignedTo == o.AssignedTo &&
		t.AssignedToEmail == o.AssignedToEmail &&
		t.AssignedToRole == o.AssignedToRole &&
		t.IsStatutory == o.IsStatutory &&
		t.StatutoryType == o.StatutoryType &&
		t.CreatedBy == o.CreatedBy
}

func normalizeStamp(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := ts.UTC().Truncate(time.Second)
	return &v
}

func cloneStamp(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	v := *ts
	return &v
}

func stampEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}
