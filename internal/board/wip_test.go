package board

import (
	"testing"

	"github.com/revisjon/tavle/internal/domain"
)

func TestCheckLimit(t *testing.T) {
	policy := NewPolicy(testColumns())
	cases := []struct {
		name     string
		column   domain.ColumnID
		proposed int
		want     bool
	}{
		{"unlimited column", domain.ColumnTodo, 50, true},
		{"under limit", domain.ColumnReview, 2, true},
		{"at limit boundary", domain.ColumnInProgress, 3, true},
		{"over limit", domain.ColumnReview, 3, false},
		{"unknown column is unlimited", "limbo", 99, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.CheckLimit(tc.column, tc.proposed); got != tc.want {
				t.Fatalf("CheckLimit(%q, %d) = %v, want %v", tc.column, tc.proposed, got, tc.want)
			}
		})
	}
}

func TestOverLimitIndicator(t *testing.T) {
	policy := NewPolicy(testColumns())
	if policy.OverLimit(domain.ColumnReview, 2) {
		t.Fatalf("at-limit column flagged over limit")
	}
	// Concurrent external edits can push a column past its limit; that is
	// tolerated and only flagged visually.
	if !policy.OverLimit(domain.ColumnReview, 3) {
		t.Fatalf("over-limit column not flagged")
	}
	if policy.OverLimit(domain.ColumnTodo, 100) {
		t.Fatalf("unlimited column flagged over limit")
	}
}

func TestLimitAndTitle(t *testing.T) {
	policy := NewPolicy(testColumns())
	if limit, ok := policy.Limit(domain.ColumnReview); !ok || limit != 2 {
		t.Fatalf("Limit(review) = %d/%v, want 2/true", limit, ok)
	}
	if _, ok := policy.Limit(domain.ColumnTodo); ok {
		t.Fatalf("unlimited column reported a limit")
	}
	if got := policy.Title(domain.ColumnInProgress); got != "In Progress" {
		t.Fatalf("Title = %q, want In Progress", got)
	}
	if got := policy.Title("limbo"); got != "limbo" {
		t.Fatalf("Title fallback = %q, want limbo", got)
	}
}
