package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/revisjon/tavle/internal/app"
	"github.com/revisjon/tavle/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tavle.db"), func() time.Time { return testNow })
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedTask(t *testing.T, repo *Repository, id string, column domain.ColumnID, order int, mutate func(*domain.TaskInput)) domain.Task {
	t.Helper()
	in := domain.TaskInput{
		ID:          id,
		CompanyID:   "acme",
		Title:       "Task " + id,
		BoardColumn: column,
		BoardOrder:  order,
		CreatedBy:   "user-1",
	}
	if mutate != nil {
		mutate(&in)
	}
	task, err := domain.NewTask(in, testNow)
	if err != nil {
		t.Fatalf("NewTask(%s): %v", id, err)
	}
	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask(%s): %v", id, err)
	}
	return task
}

func fetchByID(t *testing.T, repo *Repository, id string) domain.Task {
	t.Helper()
	tasks, err := repo.FetchTasks(context.Background(), "acme", domain.TaskFilter{})
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	for _, task := range tasks {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not found", id)
	return domain.Task{}
}

func TestFetchTasksRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seeded := seedTask(t, repo, "t1", domain.ColumnReview, 2, func(in *domain.TaskInput) {
		in.ClientID = "client-7"
		in.Description = "Quarterly VAT return"
		in.Priority = domain.PriorityUrgent
		in.Tags = []string{"VAT", "q1"}
		in.DueDate = &due
		in.IsStatutory = true
		in.StatutoryType = "vat_return"
	})

	got := fetchByID(t, repo, "t1")
	if !got.Equal(seeded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, seeded)
	}
	if got.Status != domain.StatusReview {
		t.Fatalf("status = %q, want review", got.Status)
	}
}

func TestFetchTasksScopedToCompany(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "ours", domain.ColumnTodo, 0, nil)
	seedTask(t, repo, "theirs", domain.ColumnTodo, 0, func(in *domain.TaskInput) {
		in.CompanyID = "rival"
	})

	tasks, err := repo.FetchTasks(context.Background(), "acme", domain.TaskFilter{})
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "ours" {
		t.Fatalf("tasks = %+v, want only ours", tasks)
	}
}

func TestFetchTasksFilters(t *testing.T) {
	repo := openTestRepo(t)
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	seedTask(t, repo, "vat", domain.ColumnTodo, 0, func(in *domain.TaskInput) {
		in.Priority = domain.PriorityHigh
		in.Tags = []string{"vat"}
		in.DueDate = &due
		in.IsStatutory = true
		in.AssignedTo = "user-2"
	})
	seedTask(t, repo, "payroll", domain.ColumnInProgress, 0, func(in *domain.TaskInput) {
		in.Title = "Run March payroll"
	})

	cases := []struct {
		name   string
		filter domain.TaskFilter
		want   []string
	}{
		{"by status", domain.TaskFilter{Status: domain.StatusInProgress}, []string{"payroll"}},
		{"by priority", domain.TaskFilter{Priority: domain.PriorityHigh}, []string{"vat"}},
		{"by assignee", domain.TaskFilter{AssignedTo: "user-2"}, []string{"vat"}},
		{"by tag", domain.TaskFilter{Tag: "VAT"}, []string{"vat"}},
		{"by statutory", domain.TaskFilter{Statutory: ptrBool(true)}, []string{"vat"}},
		{"by due from", domain.TaskFilter{DueFrom: ptrTime(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))}, []string{"vat"}},
		{"by due from excludes", domain.TaskFilter{DueFrom: ptrTime(time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))}, nil},
		{"by search", domain.TaskFilter{Search: "March"}, []string{"payroll"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := repo.FetchTasks(context.Background(), "acme", tc.filter)
			if err != nil {
				t.Fatalf("FetchTasks: %v", err)
			}
			ids := []string{}
			for _, task := range tasks {
				ids = append(ids, task.ID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", ids, tc.want)
			}
			for i := range tc.want {
				if ids[i] != tc.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tc.want)
				}
			}
		})
	}
}

func TestUpdateTaskStatusMovesAndAppends(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "moving", domain.ColumnTodo, 0, nil)
	seedTask(t, repo, "resident", domain.ColumnInProgress, 0, nil)

	got, err := repo.UpdateTaskStatus(context.Background(), "moving", domain.StatusInProgress, domain.ColumnInProgress)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if got.BoardColumn != domain.ColumnInProgress || got.Status != domain.StatusInProgress {
		t.Fatalf("moved task = %+v", got)
	}
	if got.BoardOrder != 1 {
		t.Fatalf("board order = %d, want appended at 1", got.BoardOrder)
	}

	persisted := fetchByID(t, repo, "moving")
	if !persisted.Equal(got) {
		t.Fatalf("persisted = %+v, want %+v", persisted, got)
	}
}

func TestUpdateTaskStatusCompletedTimestamps(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "t1", domain.ColumnReview, 0, nil)

	done, err := repo.UpdateTaskStatus(context.Background(), "t1", domain.StatusCompleted, domain.ColumnCompleted)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(testNow) {
		t.Fatalf("CompletedAt = %v, want %v", done.CompletedAt, testNow)
	}

	reopened, err := repo.UpdateTaskStatus(context.Background(), "t1", domain.StatusTodo, domain.ColumnTodo)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("CompletedAt = %v, want cleared", reopened.CompletedAt)
	}
}

func TestUpdateTaskStatusUnknownTask(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.UpdateTaskStatus(context.Background(), "ghost", domain.StatusTodo, domain.ColumnTodo)
	if !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("err = %v, want app.ErrNotFound", err)
	}
}

func TestReorderTaskRenumbersSiblings(t *testing.T) {
	repo := openTestRepo(t)
	for i := 0; i < 4; i++ {
		seedTask(t, repo, fmt.Sprintf("t%d", i), domain.ColumnTodo, i, nil)
	}

	// Move the last task to the top.
	got, err := repo.ReorderTask(context.Background(), "t3", 0)
	if err != nil {
		t.Fatalf("ReorderTask: %v", err)
	}
	if got.BoardOrder != 0 {
		t.Fatalf("board order = %d, want 0", got.BoardOrder)
	}

	tasks, err := repo.FetchTasks(context.Background(), "acme", domain.TaskFilter{})
	if err != nil {
		t.Fatalf("FetchTasks: %v", err)
	}
	wantOrder := []string{"t3", "t0", "t1", "t2"}
	for i, task := range tasks {
		if task.ID != wantOrder[i] {
			t.Fatalf("position %d = %s, want %s", i, task.ID, wantOrder[i])
		}
		if task.BoardOrder != i {
			t.Fatalf("task %s order = %d, want contiguous %d", task.ID, task.BoardOrder, i)
		}
	}
}

func TestReorderTaskClampsPastEnd(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "a", domain.ColumnTodo, 0, nil)
	seedTask(t, repo, "b", domain.ColumnTodo, 1, nil)

	got, err := repo.ReorderTask(context.Background(), "a", 99)
	if err != nil {
		t.Fatalf("ReorderTask: %v", err)
	}
	if got.BoardOrder != 1 {
		t.Fatalf("board order = %d, want clamped to 1", got.BoardOrder)
	}
}

func TestReorderTaskRejectsNegative(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "a", domain.ColumnTodo, 0, nil)
	if _, err := repo.ReorderTask(context.Background(), "a", -1); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("err = %v, want ErrInvalidOrder", err)
	}
}

func TestAssignTask(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "t1", domain.ColumnTodo, 0, nil)
	if err := repo.CreateUser(context.Background(), "acme", app.User{
		ID: "user-2", Email: "kari@acme.example", Role: domain.RoleEmployee,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := repo.AssignTask(context.Background(), "t1", "user-2")
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	if got.AssignedTo != "user-2" || got.AssignedToEmail != "kari@acme.example" || got.AssignedToRole != domain.RoleEmployee {
		t.Fatalf("assignment = %+v", got)
	}

	cleared, err := repo.AssignTask(context.Background(), "t1", "")
	if err != nil {
		t.Fatalf("AssignTask(unassign): %v", err)
	}
	if cleared.AssignedTo != "" || cleared.AssignedToEmail != "" || cleared.AssignedToRole != "" {
		t.Fatalf("unassigned task = %+v", cleared)
	}
}

func TestAssignTaskRejectsForeignUser(t *testing.T) {
	repo := openTestRepo(t)
	seedTask(t, repo, "t1", domain.ColumnTodo, 0, nil)
	if err := repo.CreateUser(context.Background(), "rival", app.User{
		ID: "outsider", Email: "x@rival.example", Role: domain.RoleOwner,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := repo.AssignTask(context.Background(), "t1", "outsider"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("err = %v, want app.ErrNotFound for cross-tenant assignee", err)
	}
}

func TestActivityLog(t *testing.T) {
	repo := openTestRepo(t)
	for i := 0; i < 3; i++ {
		entry, err := domain.NewActivityEntry(
			fmt.Sprintf("evt-%d", i), "acme", "t1",
			domain.ActivityStatusChanged, "todo -> in-progress", "user-1",
			testNow.Add(time.Duration(i)*time.Minute),
		)
		if err != nil {
			t.Fatalf("NewActivityEntry: %v", err)
		}
		if err := repo.LogActivity(context.Background(), entry); err != nil {
			t.Fatalf("LogActivity: %v", err)
		}
	}

	entries, err := repo.ListActivity(context.Background(), "acme", 2)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want limit 2", len(entries))
	}
	if entries[0].ID != "evt-2" {
		t.Fatalf("newest entry = %s, want evt-2", entries[0].ID)
	}

	foreign, err := repo.ListActivity(context.Background(), "rival", 10)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(foreign) != 0 {
		t.Fatalf("foreign entries = %+v, want none", foreign)
	}
}

func TestListUsers(t *testing.T) {
	repo := openTestRepo(t)
	users := []app.User{
		{ID: "u2", Email: "b@acme.example", Role: domain.RoleEmployee},
		{ID: "u1", Email: "a@acme.example", Role: domain.RoleOwner},
	}
	for _, u := range users {
		if err := repo.CreateUser(context.Background(), "acme", u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	if err := repo.CreateUser(context.Background(), "rival", app.User{
		ID: "u3", Email: "c@rival.example", Role: domain.RoleSuperadmin,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := repo.ListUsers(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u2" {
		t.Fatalf("users = %+v, want u1 then u2 by email", got)
	}
}

func ptrBool(v bool) *bool { return &v }

func ptrTime(v time.Time) *time.Time { return &v }
