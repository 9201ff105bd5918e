package app

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/revisjon/tavle/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeBackend struct {
	tasks      map[string]domain.Task
	failUpdate error
	lastStatus domain.Status
	lastColumn domain.ColumnID
	lastOrder  int
}

func newFakeBackend(tasks ...domain.Task) *fakeBackend {
	f := &fakeBackend{tasks: map[string]domain.Task{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeBackend) FetchTasks(_ context.Context, companyID string, filter domain.TaskFilter) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		if t.CompanyID != companyID {
			continue
		}
		if !filter.Match(t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeBackend) UpdateTaskStatus(_ context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error) {
	if f.failUpdate != nil {
		return domain.Task{}, f.failUpdate
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if err := task.MoveToColumn(column, testNow); err != nil {
		return domain.Task{}, err
	}
	f.tasks[taskID] = task
	f.lastStatus = status
	f.lastColumn = column
	return task, nil
}

func (f *fakeBackend) ReorderTask(_ context.Context, taskID string, boardOrder int) (domain.Task, error) {
	if f.failUpdate != nil {
		return domain.Task{}, f.failUpdate
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if err := task.SetBoardOrder(boardOrder, testNow); err != nil {
		return domain.Task{}, err
	}
	f.tasks[taskID] = task
	f.lastOrder = boardOrder
	return task, nil
}

func (f *fakeBackend) AssignTask(_ context.Context, taskID, userID string) (domain.Task, error) {
	if f.failUpdate != nil {
		return domain.Task{}, f.failUpdate
	}
	task, ok := f.tasks[taskID]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	if userID == "" {
		task.Unassign(testNow)
	} else if err := task.Assign(userID, userID+"@acme.test", domain.RoleEmployee, testNow); err != nil {
		return domain.Task{}, err
	}
	f.tasks[taskID] = task
	return task, nil
}

type fakeActivityLog struct {
	entries []domain.ActivityEntry
	fail    error
}

func (f *fakeActivityLog) LogActivity(_ context.Context, entry domain.ActivityEntry) error {
	if f.fail != nil {
		return f.fail
	}
	f.entries = append(f.entries, entry)
	return nil
}

func testTask(t *testing.T, id string, column domain.ColumnID) domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.TaskInput{
		ID:          id,
		CompanyID:   "acme",
		Title:       "task " + id,
		BoardColumn: column,
	}, testNow)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	return task
}

func newTestService(backend Backend, activity ActivityLogger) *Service {
	seq := 0
	idGen := func() string {
		seq++
		return "id-" + strconv.Itoa(seq)
	}
	clock := func() time.Time { return testNow }
	return NewService(backend, activity, nil, idGen, clock, nil, ServiceConfig{
		CompanyID: "acme",
		ActorID:   "user-1",
	})
}

func TestLoadBoardScopesToCompany(t *testing.T) {
	mine := testTask(t, "t1", domain.ColumnTodo)
	foreign := testTask(t, "t2", domain.ColumnTodo)
	foreign.CompanyID = "other"
	backend := newFakeBackend(mine, foreign)
	svc := newTestService(backend, nil)

	tasks, err := svc.LoadBoard(context.Background(), domain.TaskFilter{})
	if err != nil {
		t.Fatalf("LoadBoard: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("LoadBoard = %v, want only t1", tasks)
	}
}

func TestMoveTaskCommitsAndLogs(t *testing.T) {
	// Scenario: a todo task moves to in-progress; the persistence call
	// carries the derived status and column, and the transition is logged.
	backend := newFakeBackend(testTask(t, "t1", domain.ColumnTodo))
	activity := &fakeActivityLog{}
	svc := newTestService(backend, activity)

	task, err := svc.MoveTask(context.Background(), "t1", domain.StatusInProgress, domain.ColumnInProgress)
	if err != nil {
		t.Fatalf("MoveTask: %v", err)
	}
	if task.BoardColumn != domain.ColumnInProgress || task.Status != domain.StatusInProgress {
		t.Fatalf("authoritative task = %q/%q", task.BoardColumn, task.Status)
	}
	if backend.lastStatus != domain.StatusInProgress || backend.lastColumn != domain.ColumnInProgress {
		t.Fatalf("backend called with %q/%q", backend.lastStatus, backend.lastColumn)
	}
	if len(activity.entries) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(activity.entries))
	}
	entry := activity.entries[0]
	if entry.Action != domain.ActivityStatusChanged || entry.TaskID != "t1" || entry.CompanyID != "acme" {
		t.Fatalf("entry = %+v", entry)
	}
}

func TestMoveTaskBackendFailure(t *testing.T) {
	backend := newFakeBackend(testTask(t, "t1", domain.ColumnTodo))
	backend.failUpdate = errors.New("network down")
	activity := &fakeActivityLog{}
	svc := newTestService(backend, activity)

	if _, err := svc.MoveTask(context.Background(), "t1", domain.StatusCompleted, domain.ColumnCompleted); err == nil {
		t.Fatalf("MoveTask succeeded against a failing backend")
	}
	if len(activity.entries) != 0 {
		t.Fatalf("failed transition was logged")
	}
}

func TestActivityLogFailureIsSwallowed(t *testing.T) {
	backend := newFakeBackend(testTask(t, "t1", domain.ColumnTodo))
	activity := &fakeActivityLog{fail: errors.New("log sink down")}
	svc := newTestService(backend, activity)

	if _, err := svc.MoveTask(context.Background(), "t1", domain.StatusReview, domain.ColumnReview); err != nil {
		t.Fatalf("logging failure propagated: %v", err)
	}
}

func TestReorderTaskLogs(t *testing.T) {
	backend := newFakeBackend(testTask(t, "t1", domain.ColumnTodo))
	activity := &fakeActivityLog{}
	svc := newTestService(backend, activity)

	task, err := svc.ReorderTask(context.Background(), "t1", 4)
	if err != nil {
		t.Fatalf("ReorderTask: %v", err)
	}
	if task.BoardOrder != 4 || backend.lastOrder != 4 {
		t.Fatalf("order = %d (backend %d), want 4", task.BoardOrder, backend.lastOrder)
	}
	if len(activity.entries) != 1 || activity.entries[0].Action != domain.ActivityReordered {
		t.Fatalf("activity = %+v", activity.entries)
	}
}

func TestAssignAndUnassignLogging(t *testing.T) {
	backend := newFakeBackend(testTask(t, "t1", domain.ColumnTodo))
	activity := &fakeActivityLog{}
	svc := newTestService(backend, activity)

	task, err := svc.AssignTask(context.Background(), "t1", "user-9")
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	if task.AssignedTo != "user-9" {
		t.Fatalf("AssignedTo = %q", task.AssignedTo)
	}
	if _, err := svc.AssignTask(context.Background(), "t1", ""); err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if len(activity.entries) != 2 {
		t.Fatalf("activity entries = %d, want 2", len(activity.entries))
	}
	if activity.entries[0].Action != domain.ActivityAssigned || activity.entries[1].Action != domain.ActivityUnassigned {
		t.Fatalf("actions = %q/%q", activity.entries[0].Action, activity.entries[1].Action)
	}
}
