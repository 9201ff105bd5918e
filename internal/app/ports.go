package app

import (
	"context"

	"github.com/revisjon/tavle/internal/domain"
)

// Backend is the surrounding system's row-level-secured query/RPC surface.
// The board treats fetch results as authoritative truth and does not
// interpret update failures beyond success/failure.
type Backend interface {
	// FetchTasks bulk-reads a company's tasks, optionally filtered.
	FetchTasks(ctx context.Context, companyID string, filter domain.TaskFilter) ([]domain.Task, error)
	// UpdateTaskStatus commits a status/column transition and returns the
	// authoritative record for reconciliation.
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error)
	// ReorderTask commits a same-column position change. Sibling
	// renumbering happens server-side.
	ReorderTask(ctx context.Context, taskID string, boardOrder int) (domain.Task, error)
	// AssignTask sets or, with an empty userID, clears the assignee. The
	// user must belong to the same tenant; the backend validates that.
	AssignTask(ctx context.Context, taskID string, userID string) (domain.Task, error)
}

// ActivityLogger records board transitions. Best-effort: a failed write
// must never block or roll back the transition it describes.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry domain.ActivityEntry) error
}

// UserDirectory resolves tenant users for the assignment picker.
type UserDirectory interface {
	ListUsers(ctx context.Context, companyID string) ([]User, error)
}

// User is a tenant member eligible for assignment.
type User struct {
	ID    string
	Email string
	Role  domain.Role
}
