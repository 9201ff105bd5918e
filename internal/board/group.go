package board

import (
	"slices"

	"github.com/revisjon/tavle/internal/domain"
)

// Grouped is the deterministic per-column view of a task list. It is a pure
// function of its inputs: recompute it whenever the list changes instead of
// mutating it, so re-renders stay idempotent.
type Grouped struct {
	order     []domain.ColumnID
	byColumn  map[domain.ColumnID][]domain.Task
	positions map[string]position
}

type position struct {
	column domain.ColumnID
	index  int
}

// Group partitions tasks by board column and sorts each partition. Tasks
// with a missing or unconfigured column land in todo. Every configured
// column is present in the result, empty ones included.
func Group(tasks []domain.Task, columns []domain.Column) Grouped {
	g := Grouped{
		order:     make([]domain.ColumnID, 0, len(columns)),
		byColumn:  make(map[domain.ColumnID][]domain.Task, len(columns)),
		positions: make(map[string]position, len(tasks)),
	}
	for _, c := range columns {
		g.order = append(g.order, c.ID)
		g.byColumn[c.ID] = []domain.Task{}
	}

	for _, t := range tasks {
		column := t.BoardColumn
		if _, ok := g.byColumn[column]; !ok {
			column = domain.ColumnTodo
		}
		g.byColumn[column] = append(g.byColumn[column], t.Clone())
	}

	for column, colTasks := range g.byColumn {
		slices.SortStableFunc(colTasks, compareTasks)
		for i, t := range colTasks {
			g.positions[t.ID] = position{column: column, index: i}
		}
		g.byColumn[column] = colTasks
	}
	return g
}

// compareTasks orders tasks within one column: board order first, then due
// date (tasks without one last), then most recently created first.
func compareTasks(a, b domain.Task) int {
	if a.BoardOrder != b.BoardOrder {
		if a.BoardOrder < b.BoardOrder {
			return -1
		}
		return 1
	}
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
		if a.DueDate.Before(*b.DueDate) {
			return -1
		}
		return 1
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	}
	return 0
}

// ColumnIDs returns the configured columns in display order.
func (g Grouped) ColumnIDs() []domain.ColumnID {
	return slices.Clone(g.order)
}

// Column returns the ordered tasks for one column. Unconfigured columns
// yield an empty sequence.
func (g Grouped) Column(id domain.ColumnID) []domain.Task {
	return g.byColumn[id]
}

// Count returns the number of tasks currently in one column.
func (g Grouped) Count(id domain.ColumnID) int {
	return len(g.byColumn[id])
}

// Locate returns the column and intra-column index of a task.
func (g Grouped) Locate(taskID string) (domain.ColumnID, int, bool) {
	pos, ok := g.positions[taskID]
	if !ok {
		return "", 0, false
	}
	return pos.column, pos.index, true
}

// Task returns a task by id from the grouped view.
func (g Grouped) Task(taskID string) (domain.Task, bool) {
	pos, ok := g.positions[taskID]
	if !ok {
		return domain.Task{}, false
	}
	return g.byColumn[pos.column][pos.index], true
}
