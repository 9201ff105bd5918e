package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/revisjon/tavle/internal/domain"
)

// IDGenerator returns unique identifiers for new records.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service fronts the external persistence operations for one company's
// board. It owns the diagnostics and the fire-and-forget activity log; the
// optimistic state itself lives with the caller, in the board package.
type Service struct {
	backend   Backend
	activity  ActivityLogger
	directory UserDirectory
	companyID string
	actorID   string
	idGen     IDGenerator
	clock     Clock
	logger    *log.Logger
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CompanyID string
	ActorID   string
}

// NewService constructs the service. activity and directory may be nil when
// the surrounding system provides neither.
func NewService(backend Backend, activity ActivityLogger, directory UserDirectory, idGen IDGenerator, clock Clock, logger *log.Logger, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		backend:   backend,
		activity:  activity,
		directory: directory,
		companyID: cfg.CompanyID,
		actorID:   cfg.ActorID,
		idGen:     idGen,
		clock:     clock,
		logger:    logger,
	}
}

// CompanyID returns the tenant this service is scoped to.
func (s *Service) CompanyID() string {
	return s.companyID
}

// LoadBoard fetches the authoritative task list for the board.
func (s *Service) LoadBoard(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := s.backend.FetchTasks(ctx, s.companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("fetch tasks: %w", err)
	}
	return tasks, nil
}

// MoveTask commits a cross-column transition and logs it best-effort.
func (s *Service) MoveTask(ctx context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error) {
	task, err := s.backend.UpdateTaskStatus(ctx, taskID, status, column)
	if err != nil {
		return domain.Task{}, fmt.Errorf("update task status: %w", err)
	}
	s.logActivity(ctx, taskID, domain.ActivityStatusChanged,
		fmt.Sprintf("moved to %s (%s)", column, status))
	return task, nil
}

// ReorderTask commits a same-column reorder and logs it best-effort.
func (s *Service) ReorderTask(ctx context.Context, taskID string, boardOrder int) (domain.Task, error) {
	task, err := s.backend.ReorderTask(ctx, taskID, boardOrder)
	if err != nil {
		return domain.Task{}, fmt.Errorf("reorder task: %w", err)
	}
	s.logActivity(ctx, taskID, domain.ActivityReordered,
		fmt.Sprintf("reordered to position %d", boardOrder))
	return task, nil
}

// AssignTask sets or clears a task's assignee and logs it best-effort.
func (s *Service) AssignTask(ctx context.Context, taskID, userID string) (domain.Task, error) {
	task, err := s.backend.AssignTask(ctx, taskID, userID)
	if err != nil {
		return domain.Task{}, fmt.Errorf("assign task: %w", err)
	}
	action := domain.ActivityAssigned
	detail := "assigned to " + userID
	if userID == "" {
		action = domain.ActivityUnassigned
		detail = "unassigned"
	}
	s.logActivity(ctx, taskID, action, detail)
	return task, nil
}

// ListUsers returns the tenant's members for the assignment picker.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	if s.directory == nil {
		return nil, nil
	}
	users, err := s.directory.ListUsers(ctx, s.companyID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// logActivity writes one transition record. Failures are swallowed after a
// diagnostic; they never surface to the user and never trigger rollback.
func (s *Service) logActivity(ctx context.Context, taskID string, action domain.ActivityAction, detail string) {
	if s.activity == nil {
		return
	}
	entry, err := domain.NewActivityEntry(s.idGen(), s.companyID, taskID, action, detail, s.actorID, s.clock())
	if err != nil {
		s.logger.Debug("skipping malformed activity entry", "task_id", taskID, "err", err)
		return
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed", "task_id", taskID, "action", string(action), "err", err)
	}
}
