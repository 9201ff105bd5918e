package board

import "github.com/revisjon/tavle/internal/domain"

// Policy enforces per-column WIP limits. It is a soft gate checked before a
// transition commits; transient violations caused by concurrent external
// edits are only surfaced through OverLimit, never repaired.
type Policy struct {
	limits map[domain.ColumnID]int
	titles map[domain.ColumnID]string
}

// NewPolicy builds the policy from static column configuration. A limit of
// 0 means unlimited.
func NewPolicy(columns []domain.Column) Policy {
	p := Policy{
		limits: make(map[domain.ColumnID]int, len(columns)),
		titles: make(map[domain.ColumnID]string, len(columns)),
	}
	for _, c := range columns {
		p.limits[c.ID] = c.WIPLimit
		p.titles[c.ID] = c.Title
	}
	return p
}

// CheckLimit reports whether a column may hold proposedCount tasks. The
// proposed count includes the incoming task, counted before it leaves its
// source column.
func (p Policy) CheckLimit(column domain.ColumnID, proposedCount int) bool {
	limit, ok := p.limits[column]
	if !ok || limit <= 0 {
		return true
	}
	return proposedCount <= limit
}

// OverLimit reports whether a column currently exceeds its limit, for the
// visual over-limit indicator.
func (p Policy) OverLimit(column domain.ColumnID, count int) bool {
	limit, ok := p.limits[column]
	if !ok || limit <= 0 {
		return false
	}
	return count > limit
}

// Limit returns a column's WIP limit; ok is false when unlimited.
func (p Policy) Limit(column domain.ColumnID) (int, bool) {
	limit, present := p.limits[column]
	if !present || limit <= 0 {
		return 0, false
	}
	return limit, true
}

// Title returns the display title for a column, falling back to its id.
func (p Policy) Title(column domain.ColumnID) string {
	if title, ok := p.titles[column]; ok && title != "" {
		return title
	}
	return string(column)
}
