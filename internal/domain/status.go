package domain

import "slices"

// Status is a task's workflow state as persisted by the backend.
type Status string

// StatusTodo and related constants define the workflow states.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var validStatuses = []Status{
	StatusTodo,
	StatusInProgress,
	StatusReview,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is a known workflow state.
func (s Status) Valid() bool {
	return slices.Contains(validStatuses, s)
}

// Statuses returns the workflow states in canonical order.
func Statuses() []Status {
	return slices.Clone(validStatuses)
}

// ColumnID identifies a board column. Columns are a superset of statuses:
// backlog and todo both map to the todo status.
type ColumnID string

// ColumnBacklog and related constants define the board columns.
const (
	ColumnBacklog    ColumnID = "backlog"
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "in-progress"
	ColumnReview     ColumnID = "review"
	ColumnCompleted  ColumnID = "completed"
	ColumnCancelled  ColumnID = "cancelled"
)

var columnOrder = []ColumnID{
	ColumnBacklog,
	ColumnTodo,
	ColumnInProgress,
	ColumnReview,
	ColumnCompleted,
	ColumnCancelled,
}

// statusByColumn is the fixed, total column-to-status mapping. A committed
// transition must never let the two fields diverge from it.
var statusByColumn = map[ColumnID]Status{
	ColumnBacklog:    StatusTodo,
	ColumnTodo:       StatusTodo,
	ColumnInProgress: StatusInProgress,
	ColumnReview:     StatusReview,
	ColumnCompleted:  StatusCompleted,
	ColumnCancelled:  StatusCancelled,
}

// Valid reports whether c is a known board column.
func (c ColumnID) Valid() bool {
	_, ok := statusByColumn[c]
	return ok
}

// Status derives the workflow state for a column. Unknown columns derive
// todo, matching the grouping default for tasks with a missing column.
func (c ColumnID) Status() Status {
	if s, ok := statusByColumn[c]; ok {
		return s
	}
	return StatusTodo
}

// ColumnIDs returns the board columns in canonical order.
func ColumnIDs() []ColumnID {
	return slices.Clone(columnOrder)
}
