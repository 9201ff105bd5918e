package domain

import "strings"

// Column is static board configuration supplied by the surrounding system.
// WIPLimit of 0 means unlimited.
type Column struct {
	ID       ColumnID
	Title    string
	Color    string
	WIPLimit int
}

// NewColumn constructs a column definition.
func NewColumn(id ColumnID, title, color string, wipLimit int) (Column, error) {
	title = strings.TrimSpace(title)
	if !id.Valid() {
		return Column{}, ErrInvalidColumn
	}
	if title == "" {
		return Column{}, ErrInvalidTitle
	}
	if wipLimit < 0 {
		return Column{}, ErrInvalidOrder
	}
	return Column{
		ID:       id,
		Title:    title,
		Color:    strings.TrimSpace(color),
		WIPLimit: wipLimit,
	}, nil
}

// DefaultColumns returns the six-column board used when no configuration
// overrides it.
func DefaultColumns() []Column {
	return []Column{
		{ID: ColumnBacklog, Title: "Backlog", Color: "244", WIPLimit: 0},
		{ID: ColumnTodo, Title: "To Do", Color: "39", WIPLimit: 0},
		{ID: ColumnInProgress, Title: "In Progress", Color: "214", WIPLimit: 0},
		{ID: ColumnReview, Title: "Review", Color: "171", WIPLimit: 0},
		{ID: ColumnCompleted, Title: "Completed", Color: "78", WIPLimit: 0},
		{ID: ColumnCancelled, Title: "Cancelled", Color: "241", WIPLimit: 0},
	}
}
