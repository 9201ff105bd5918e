package board

import (
	"errors"
	"testing"
	"time"

	"github.com/revisjon/tavle/internal/domain"
)

func newTestProtocol(t *testing.T, tasks ...domain.Task) (*Protocol, *Store) {
	t.Helper()
	store := NewStore(tasks)
	clock := func() time.Time { return groupNow.Add(time.Minute) }
	return NewProtocol(store, clock, nil), store
}

func movePatch(column domain.ColumnID, order int) Patch {
	status := column.Status()
	return Patch{Status: &status, BoardColumn: &column, BoardOrder: &order}
}

func TestApplyIsVisibleImmediately(t *testing.T) {
	task := makeTask(t, "t1", domain.ColumnTodo, 0)
	protocol, store := newTestProtocol(t, task)
	before := store.Tasks()

	pending, err := protocol.Apply("t1", movePatch(domain.ColumnInProgress, 0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, _ := store.Get("t1")
	if got.BoardColumn != domain.ColumnInProgress || got.Status != domain.StatusInProgress {
		t.Fatalf("optimistic state = %q/%q, want in-progress", got.BoardColumn, got.Status)
	}
	if !got.UpdatedAt.After(task.UpdatedAt) {
		t.Fatalf("UpdatedAt not refreshed: %v", got.UpdatedAt)
	}
	if &before[0] == &store.Tasks()[0] && len(before) == len(store.Tasks()) {
		// Whole-list replacement: consumers watching slice identity must
		// see a fresh slice after the mutation.
		t.Fatalf("task slice was mutated in place")
	}
	if pending.TaskID != "t1" {
		t.Fatalf("pending keyed to %q, want t1", pending.TaskID)
	}
}

func TestApplyUnknownTask(t *testing.T) {
	protocol, _ := newTestProtocol(t)
	if _, err := protocol.Apply("ghost", movePatch(domain.ColumnTodo, 0)); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestReconcileMatchingResponseIsNoop(t *testing.T) {
	task := makeTask(t, "t1", domain.ColumnTodo, 0)
	protocol, store := newTestProtocol(t, task)

	pending, err := protocol.Apply("t1", movePatch(domain.ColumnCompleted, 0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	applied := store.Tasks()

	if changed := protocol.Reconcile(pending, pending.Applied()); changed {
		t.Fatalf("Reconcile rewrote state for a matching response")
	}
	after := store.Tasks()
	if len(applied) != len(after) {
		t.Fatalf("task count changed during no-op reconcile")
	}
	for i := range applied {
		if !applied[i].Equal(after[i]) {
			t.Fatalf("task %s changed during no-op reconcile", applied[i].ID)
		}
	}
}

func TestReconcileOverwritesWithAuthoritativeValues(t *testing.T) {
	task := makeTask(t, "t1", domain.ColumnTodo, 0)
	protocol, store := newTestProtocol(t, task)

	pending, err := protocol.Apply("t1", movePatch(domain.ColumnCompleted, 0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Server computed completed_at, which the optimistic copy lacks.
	authoritative := pending.Applied()
	done := groupNow.Add(2 * time.Minute)
	authoritative.CompletedAt = &done
	authoritative.UpdatedAt = done

	if changed := protocol.Reconcile(pending, authoritative); !changed {
		t.Fatalf("Reconcile skipped a divergent response")
	}
	got, _ := store.Get("t1")
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Fatalf("authoritative CompletedAt not applied: %v", got.CompletedAt)
	}
}

func TestReconcileIgnoresForeignResponse(t *testing.T) {
	task := makeTask(t, "t1", domain.ColumnTodo, 0)
	other := makeTask(t, "t2", domain.ColumnTodo, 1)
	protocol, store := newTestProtocol(t, task, other)

	pending, err := protocol.Apply("t1", movePatch(domain.ColumnReview, 0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if changed := protocol.Reconcile(pending, other); changed {
		t.Fatalf("Reconcile accepted a response for a different task")
	}
	got, _ := store.Get("t2")
	if got.BoardColumn != domain.ColumnTodo {
		t.Fatalf("foreign task mutated: %q", got.BoardColumn)
	}
}

func TestRollbackRestoresSnapshotExactly(t *testing.T) {
	// Scenario: the persistence call rejects and the task reverts
	// field-for-field; no other task is touched.
	due := groupNow.Add(48 * time.Hour)
	task := makeTask(t, "t2", domain.ColumnTodo, 3)
	task.DueDate = &due
	task.Tags = []string{"statutory", "vat"}
	bystander := makeTask(t, "b1", domain.ColumnReview, 0)
	protocol, store := newTestProtocol(t, task, bystander)

	pending, err := protocol.Apply("t2", movePatch(domain.ColumnCompleted, 0))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	mid, _ := store.Get("t2")
	if mid.BoardColumn != domain.ColumnCompleted {
		t.Fatalf("optimistic state missing before rollback")
	}

	protocol.Rollback(pending)

	got, _ := store.Get("t2")
	if !got.Equal(task) {
		t.Fatalf("post-rollback task differs from snapshot:\n got %+v\nwant %+v", got, task)
	}
	gotBystander, _ := store.Get("b1")
	if !gotBystander.Equal(bystander) {
		t.Fatalf("rollback touched an unrelated task")
	}
}

func TestApplyReorderRenumbersDisplacedSiblings(t *testing.T) {
	// t3 was created after t4, so when both hold board order 0 the
	// created-at tie-break would keep t3 on top. The reorder must shift
	// t3 down explicitly, not rely on the dragged task's new order alone.
	t3 := makeTask(t, "t3", domain.ColumnTodo, 0)
	t4 := makeTask(t, "t4", domain.ColumnTodo, 1)
	t4.CreatedAt = groupNow.Add(-time.Hour)
	protocol, store := newTestProtocol(t, t3, t4)

	pending, err := protocol.ApplyReorder("t4", 0)
	if err != nil {
		t.Fatalf("ApplyReorder: %v", err)
	}

	g := Group(store.Tasks(), testColumns())
	column := g.Column(domain.ColumnTodo)
	if len(column) != 2 || column[0].ID != "t4" || column[1].ID != "t3" {
		ids := make([]string, 0, len(column))
		for _, task := range column {
			ids = append(ids, task.ID)
		}
		t.Fatalf("after reorder column = %v, want [t4 t3]", ids)
	}
	if column[0].BoardOrder != 0 || column[1].BoardOrder != 1 {
		t.Fatalf("orders = %d/%d, want contiguous 0/1", column[0].BoardOrder, column[1].BoardOrder)
	}

	moved, _ := store.Get("t4")
	if !moved.UpdatedAt.After(t4.UpdatedAt) {
		t.Fatalf("moved task UpdatedAt not refreshed")
	}
	sibling, _ := store.Get("t3")
	if !sibling.UpdatedAt.Equal(t3.UpdatedAt) {
		t.Fatalf("displaced sibling UpdatedAt changed")
	}
	if pending.TaskID != "t4" {
		t.Fatalf("pending keyed to %q, want t4", pending.TaskID)
	}
}

func TestApplyReorderToEndAndClamp(t *testing.T) {
	tasks := []domain.Task{
		makeTask(t, "a", domain.ColumnTodo, 0),
		makeTask(t, "b", domain.ColumnTodo, 1),
		makeTask(t, "c", domain.ColumnTodo, 2),
	}
	protocol, store := newTestProtocol(t, tasks...)

	if _, err := protocol.ApplyReorder("a", 99); err != nil {
		t.Fatalf("ApplyReorder: %v", err)
	}

	g := Group(store.Tasks(), testColumns())
	column := g.Column(domain.ColumnTodo)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if column[i].ID != id || column[i].BoardOrder != i {
			t.Fatalf("slot %d = %s/%d, want %s/%d", i, column[i].ID, column[i].BoardOrder, id, i)
		}
	}
}

func TestApplyReorderUnknownTask(t *testing.T) {
	protocol, _ := newTestProtocol(t)
	if _, err := protocol.ApplyReorder("ghost", 0); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestRollbackRestoresDisplacedSiblings(t *testing.T) {
	t3 := makeTask(t, "t3", domain.ColumnTodo, 0)
	t4 := makeTask(t, "t4", domain.ColumnTodo, 1)
	t4.CreatedAt = groupNow.Add(-time.Hour)
	protocol, store := newTestProtocol(t, t3, t4)

	pending, err := protocol.ApplyReorder("t4", 0)
	if err != nil {
		t.Fatalf("ApplyReorder: %v", err)
	}
	protocol.Rollback(pending)

	gotMoved, _ := store.Get("t4")
	if !gotMoved.Equal(t4) {
		t.Fatalf("moved task not restored:\n got %+v\nwant %+v", gotMoved, t4)
	}
	gotSibling, _ := store.Get("t3")
	if !gotSibling.Equal(t3) {
		t.Fatalf("displaced sibling not restored:\n got %+v\nwant %+v", gotSibling, t3)
	}
}

func TestApplyAssignmentPatch(t *testing.T) {
	task := makeTask(t, "t1", domain.ColumnTodo, 0)
	protocol, store := newTestProtocol(t, task)

	userID := "user-7"
	email := "berit@acme.test"
	role := domain.RoleOwner
	pending, err := protocol.Apply("t1", Patch{
		AssignedTo:      &userID,
		AssignedToEmail: &email,
		AssignedToRole:  &role,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := store.Get("t1")
	if got.AssignedTo != userID || got.AssignedToEmail != email || got.AssignedToRole != role {
		t.Fatalf("assignment patch not applied: %q/%q/%q", got.AssignedTo, got.AssignedToEmail, got.AssignedToRole)
	}
	if got.BoardColumn != domain.ColumnTodo || got.Status != domain.StatusTodo {
		t.Fatalf("assignment patch moved the task")
	}
	protocol.Rollback(pending)
	got, _ = store.Get("t1")
	if got.AssignedTo != "" {
		t.Fatalf("rollback left assignment: %q", got.AssignedTo)
	}
}
