// Package board implements the kanban board engine: the in-memory task
// store, column grouping, drop-target resolution, the drag state machine,
// the optimistic update protocol, and the WIP-limit policy. It is
// UI-agnostic; the TUI feeds it pointer events in cell coordinates.
package board

import "errors"

// ErrTaskNotFound and related errors describe engine failures.
var (
	ErrTaskNotFound = errors.New("task not found")
)
