// Package sqlite is a local stand-in for the hosted backend the board talks
// to in production. It implements the same query/RPC surface, including the
// server-side numbering the board never computes itself.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/revisjon/tavle/internal/app"
	"github.com/revisjon/tavle/internal/domain"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository implements app.Backend, app.ActivityLogger, and
// app.UserDirectory over one sqlite database.
type Repository struct {
	db    *sql.DB
	clock func() time.Time
}

// Open opens (and migrates) the database at path.
func Open(path string, clock func() time.Time) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db, clock)
}

// OpenInMemory opens a throwaway in-memory database, used by tests and the
// demo mode.
func OpenInMemory(clock func() time.Time) (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db, clock)
}

func newRepository(db *sql.DB, clock func() time.Time) (*Repository, error) {
	if clock == nil {
		clock = time.Now
	}
	repo := &Repository{db: db, clock: clock}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			client_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'todo',
			board_column TEXT NOT NULL DEFAULT 'todo',
			board_order INTEGER NOT NULL DEFAULT 0,
			priority TEXT NOT NULL DEFAULT 'medium',
			tags_json TEXT NOT NULL DEFAULT '[]',
			due_date TEXT,
			start_date TEXT,
			completed_at TEXT,
			assigned_to TEXT NOT NULL DEFAULT '',
			assigned_to_email TEXT NOT NULL DEFAULT '',
			assigned_to_role TEXT NOT NULL DEFAULT '',
			is_statutory INTEGER NOT NULL DEFAULT 0,
			statutory_type TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			task_id TEXT NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			actor_id TEXT NOT NULL DEFAULT '',
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_company_column_order ON tasks(company_id, board_column, board_order);`,
		`CREATE INDEX IF NOT EXISTS idx_users_company ON users(company_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_company_at ON activity_log(company_id, at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// CreateTask inserts a task row. Used by the seed command and tests; the
// production backend creates tasks from its own forms and batch jobs.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	tagsJSON, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks(
			id, company_id, client_id, title, description,
			status, board_column, board_order, priority, tags_json,
			due_date, start_date, completed_at,
			assigned_to, assigned_to_email, assigned_to_role,
			is_statutory, statutory_type, created_by, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.CompanyID, t.ClientID, t.Title, t.Description,
		string(t.Status), string(t.BoardColumn), t.BoardOrder, string(t.Priority), string(tagsJSON),
		nullableTS(t.DueDate), nullableTS(t.StartDate), nullableTS(t.CompletedAt),
		t.AssignedTo, t.AssignedToEmail, string(t.AssignedToRole),
		boolToInt(t.IsStatutory), t.StatutoryType, t.CreatedBy, ts(t.CreatedAt), ts(t.UpdatedAt))
	return err
}

// CreateUser inserts a tenant member.
func (r *Repository) CreateUser(ctx context.Context, companyID string, u app.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(id, company_id, email, role)
		VALUES (?, ?, ?, ?)
	`, u.ID, companyID, u.Email, string(u.Role))
	return err
}

// FetchTasks bulk-reads a company's tasks with the filter applied in SQL.
func (r *Repository) FetchTasks(ctx context.Context, companyID string, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `
		SELECT id, company_id, client_id, title, description,
			status, board_column, board_order, priority, tags_json,
			due_date, start_date, completed_at,
			assigned_to, assigned_to_email, assigned_to_role,
			is_statutory, statutory_type, created_by, created_at, updated_at
		FROM tasks
		WHERE company_id = ?
	`
	args := []any{companyID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, string(filter.Priority))
	}
	if filter.AssignedTo != "" {
		query += ` AND assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	if filter.ClientID != "" {
		query += ` AND client_id = ?`
		args = append(args, filter.ClientID)
	}
	if filter.DueFrom != nil {
		query += ` AND due_date IS NOT NULL AND due_date >= ?`
		args = append(args, ts(*filter.DueFrom))
	}
	if filter.DueTo != nil {
		query += ` AND due_date IS NOT NULL AND due_date <= ?`
		args = append(args, ts(*filter.DueTo))
	}
	if filter.Statutory != nil {
		query += ` AND is_statutory = ?`
		args = append(args, boolToInt(*filter.Statutory))
	}
	if filter.Tag != "" {
		query += ` AND tags_json LIKE ?`
		args = append(args, `%"`+strings.ToLower(strings.TrimSpace(filter.Tag))+`"%`)
	}
	if filter.Search != "" {
		query += ` AND (title LIKE ? OR description LIKE ?)`
		needle := "%" + strings.TrimSpace(filter.Search) + "%"
		args = append(args, needle, needle)
	}
	query += ` ORDER BY board_column ASC, board_order ASC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// UpdateTaskStatus commits a column transition. The status is re-derived
// from the column server-side so the two fields cannot diverge, and the
// task is appended to the target column's order.
func (r *Repository) UpdateTaskStatus(ctx context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error) {
	if column == "" {
		column = columnForStatus(status)
	}
	if !column.Valid() {
		return domain.Task{}, domain.ErrInvalidColumn
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	task, err := getTaskByID(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.MoveToColumn(column, r.clock()); err != nil {
		return domain.Task{}, err
	}

	var nextOrder int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(board_order) + 1, 0)
		FROM tasks
		WHERE company_id = ? AND board_column = ? AND id != ?
	`, task.CompanyID, string(column), taskID).Scan(&nextOrder); err != nil {
		return domain.Task{}, err
	}
	task.BoardOrder = nextOrder

	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET status = ?, board_column = ?, board_order = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, string(task.Status), string(task.BoardColumn), task.BoardOrder,
		nullableTS(task.CompletedAt), ts(task.UpdatedAt), taskID); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// ReorderTask moves a task to a position within its column and renumbers
// its siblings contiguously, the job the board pushes to the server.
func (r *Repository) ReorderTask(ctx context.Context, taskID string, boardOrder int) (domain.Task, error) {
	if boardOrder < 0 {
		return domain.Task{}, domain.ErrInvalidOrder
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	task, err := getTaskByID(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM tasks
		WHERE company_id = ? AND board_column = ? AND id != ?
		ORDER BY board_order ASC, due_date IS NULL ASC, due_date ASC, created_at DESC
	`, task.CompanyID, string(task.BoardColumn), taskID)
	if err != nil {
		return domain.Task{}, err
	}
	siblings := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return domain.Task{}, err
		}
		siblings = append(siblings, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Task{}, err
	}

	if boardOrder > len(siblings) {
		boardOrder = len(siblings)
	}
	ordered := make([]string, 0, len(siblings)+1)
	ordered = append(ordered, siblings[:boardOrder]...)
	ordered = append(ordered, taskID)
	ordered = append(ordered, siblings[boardOrder:]...)

	now := r.clock().UTC()
	for idx, id := range ordered {
		if id == taskID {
			if err := task.SetBoardOrder(idx, now); err != nil {
				return domain.Task{}, err
			}
			if _, err := tx.ExecContext(ctx, `
				UPDATE tasks SET board_order = ?, updated_at = ? WHERE id = ?
			`, idx, ts(now), id); err != nil {
				return domain.Task{}, err
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE tasks SET board_order = ? WHERE id = ?
		`, idx, id); err != nil {
			return domain.Task{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// AssignTask sets or clears a task's assignee. The assignee must belong to
// the task's company; the denormalized email/role fields are filled from
// the users table.
func (r *Repository) AssignTask(ctx context.Context, taskID, userID string) (domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	task, err := getTaskByID(ctx, tx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	now := r.clock()
	if userID == "" {
		task.Unassign(now)
	} else {
		var email, role string
		err := tx.QueryRowContext(ctx, `
			SELECT email, role FROM users WHERE id = ? AND company_id = ?
		`, userID, task.CompanyID).Scan(&email, &role)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, fmt.Errorf("assignee %s not in company %s: %w", userID, task.CompanyID, app.ErrNotFound)
		}
		if err != nil {
			return domain.Task{}, err
		}
		if err := task.Assign(userID, email, domain.Role(role), now); err != nil {
			return domain.Task{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks
		SET assigned_to = ?, assigned_to_email = ?, assigned_to_role = ?, updated_at = ?
		WHERE id = ?
	`, task.AssignedTo, task.AssignedToEmail, string(task.AssignedToRole), ts(task.UpdatedAt), taskID); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// LogActivity appends one activity record.
func (r *Repository) LogActivity(ctx context.Context, entry domain.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log(id, company_id, task_id, action, detail, actor_id, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.CompanyID, entry.TaskID, string(entry.Action), entry.Detail, entry.ActorID, ts(entry.At))
	return err
}

// ListActivity returns a company's most recent activity records.
func (r *Repository) ListActivity(ctx context.Context, companyID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_id, task_id, action, detail, actor_id, at
		FROM activity_log
		WHERE company_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ActivityEntry{}
	for rows.Next() {
		var (
			entry  domain.ActivityEntry
			action string
			atRaw  string
		)
		if err := rows.Scan(&entry.ID, &entry.CompanyID, &entry.TaskID, &action, &entry.Detail, &entry.ActorID, &atRaw); err != nil {
			return nil, err
		}
		entry.Action = domain.ActivityAction(action)
		entry.At = parseTS(atRaw)
		out = append(out, entry)
	}
	return out, rows.Err()
}

// ListUsers returns a company's members.
func (r *Repository) ListUsers(ctx context.Context, companyID string) ([]app.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, role FROM users WHERE company_id = ? ORDER BY email ASC
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []app.User{}
	for rows.Next() {
		var (
			u    app.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Email, &role); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTaskByID(ctx context.Context, q queryRower, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, company_id, client_id, title, description,
			status, board_column, board_order, priority, tags_json,
			due_date, start_date, completed_at,
			assigned_to, assigned_to_email, assigned_to_role,
			is_statutory, statutory_type, created_by, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, fmt.Errorf("task %s: %w", id, app.ErrNotFound)
	}
	return task, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t           domain.Task
		status      string
		column      string
		priority    string
		tagsRaw     string
		due         sql.NullString
		start       sql.NullString
		completed   sql.NullString
		role        string
		isStatutory int
		createdRaw  string
		updatedRaw  string
	)
	if err := s.Scan(&t.ID, &t.CompanyID, &t.ClientID, &t.Title, &t.Description,
		&status, &column, &t.BoardOrder, &priority, &tagsRaw,
		&due, &start, &completed,
		&t.AssignedTo, &t.AssignedToEmail, &role,
		&isStatutory, &t.StatutoryType, &t.CreatedBy, &createdRaw, &updatedRaw); err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.Status(status)
	t.BoardColumn = domain.ColumnID(column)
	t.Priority = domain.Priority(priority)
	if err := json.Unmarshal([]byte(tagsRaw), &t.Tags); err != nil {
		return domain.Task{}, fmt.Errorf("decode tags for task %s: %w", t.ID, err)
	}
	t.DueDate = parseNullTS(due)
	t.StartDate = parseNullTS(start)
	t.CompletedAt = parseNullTS(completed)
	t.AssignedToRole = domain.Role(role)
	t.IsStatutory = isStatutory != 0
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

// columnForStatus picks the canonical column for a status when the caller
// names none; backlog never wins here since todo maps first.
func columnForStatus(status domain.Status) domain.ColumnID {
	for _, column := range domain.ColumnIDs() {
		if column != domain.ColumnBacklog && column.Status() == status {
			return column
		}
	}
	return domain.ColumnTodo
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	parsed := parseTS(v.String)
	return &parsed
}
