package board

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/revisjon/tavle/internal/domain"
)

// Patch is the partial update applied ahead of persistence. Nil fields are
// left alone. Assignment fields travel together so the denormalized display
// values never go stale relative to the assignee id.
type Patch struct {
	Status      *domain.Status
	BoardColumn *domain.ColumnID
	BoardOrder  *int

	AssignedTo      *string
	AssignedToEmail *string
	AssignedToRole  *domain.Role
}

// Pending is the rollback ticket for one in-flight transition. At most one
// per task is assumed; everything in it is keyed by the task id, so a slow
// resolution can never touch another task's state. Reorders additionally
// carry snapshots of the siblings they displaced.
type Pending struct {
	TaskID    string
	snapshot  domain.Task
	applied   domain.Task
	displaced []domain.Task
}

// Applied returns the optimistically applied task value.
func (p Pending) Applied() domain.Task {
	return p.applied.Clone()
}

// Protocol applies tentative mutations to the store immediately, then
// reconciles against the authoritative persistence result or rolls back.
type Protocol struct {
	store  *Store
	clock  func() time.Time
	logger *log.Logger
}

// NewProtocol constructs the optimistic update protocol over a store.
func NewProtocol(store *Store, clock func() time.Time, logger *log.Logger) *Protocol {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Protocol{store: store, clock: clock, logger: logger}
}

// Apply snapshots the task and synchronously swaps in a merged copy with a
// refreshed UpdatedAt, so the renderer sees the change before the network
// call resolves. The returned ticket feeds Reconcile or Rollback.
func (p *Protocol) Apply(taskID string, patch Patch) (Pending, error) {
	task, ok := p.store.Get(taskID)
	if !ok {
		return Pending{}, ErrTaskNotFound
	}
	snapshot := task.Clone()

	merged := task
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.BoardColumn != nil {
		merged.BoardColumn = *patch.BoardColumn
	}
	if patch.BoardOrder != nil {
		merged.BoardOrder = *patch.BoardOrder
	}
	if patch.AssignedTo != nil {
		merged.AssignedTo = *patch.AssignedTo
	}
	if patch.AssignedToEmail != nil {
		merged.AssignedToEmail = *patch.AssignedToEmail
	}
	if patch.AssignedToRole != nil {
		merged.AssignedToRole = *patch.AssignedToRole
	}
	merged.UpdatedAt = p.clock().UTC()

	p.store.Put(merged)
	return Pending{TaskID: taskID, snapshot: snapshot, applied: merged.Clone()}, nil
}

// ApplyReorder applies a same-column reorder: the moved task lands at the
// requested index and every displaced sibling is renumbered contiguously,
// the same way the backend renumbers them, so the rendered order changes
// even when the displaced sibling held the colliding board order and a
// tie-break would otherwise decide. The ticket rolls the whole column
// slice back on failure.
func (p *Protocol) ApplyReorder(taskID string, order int) (Pending, error) {
	task, ok := p.store.Get(taskID)
	if !ok {
		return Pending{}, ErrTaskNotFound
	}
	snapshot := task.Clone()

	siblings := make([]domain.Task, 0)
	for _, t := range p.store.Tasks() {
		if t.BoardColumn == task.BoardColumn && t.ID != taskID {
			siblings = append(siblings, t.Clone())
		}
	}
	slices.SortStableFunc(siblings, compareTasks)
	if order < 0 {
		order = 0
	}
	if order > len(siblings) {
		order = len(siblings)
	}
	ordered := slices.Insert(siblings, order, task)

	var displaced []domain.Task
	for i, t := range ordered {
		if t.ID == taskID || t.BoardOrder == i {
			continue
		}
		displaced = append(displaced, t.Clone())
		t.BoardOrder = i
		p.store.Put(t)
	}

	merged := task
	merged.BoardOrder = order
	merged.UpdatedAt = p.clock().UTC()
	p.store.Put(merged)

	return Pending{
		TaskID:    taskID,
		snapshot:  snapshot,
		applied:   merged.Clone(),
		displaced: displaced,
	}, nil
}

// Reconcile settles a successful persistence call. When the authoritative
// row matches what was applied, nothing is touched, avoiding a redundant
// re-render; otherwise the server-computed values win. Returns whether the
// store changed.
func (p *Protocol) Reconcile(pending Pending, authoritative domain.Task) bool {
	if authoritative.ID != pending.TaskID {
		p.logger.Warn("reconcile response for different task, ignoring",
			"task_id", pending.TaskID, "response_id", authoritative.ID)
		return false
	}
	if authoritative.Equal(pending.applied) {
		return false
	}
	return p.store.Put(authoritative)
}

// Rollback reverts the task to the pre-update snapshot exactly,
// field-for-field, along with any siblings a reorder displaced. Tasks
// outside the ticket are untouched.
func (p *Protocol) Rollback(pending Pending) {
	if !p.store.Put(pending.snapshot) {
		p.logger.Warn("rollback target no longer in store", "task_id", pending.TaskID)
	}
	for _, sibling := range pending.displaced {
		if !p.store.Put(sibling) {
			p.logger.Warn("rollback sibling no longer in store", "task_id", sibling.ID)
		}
	}
}
