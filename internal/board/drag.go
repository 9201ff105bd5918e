package board

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/revisjon/tavle/internal/domain"
)

// Phase is the drag state machine's observable state.
type Phase int

// PhaseIdle and related constants define the drag phases.
const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseResolving
)

// Sensor configures gesture recognition: how far the pointer must travel
// before a press becomes a drag, and how long a touch press must be held.
// The controller only consumes these thresholds; the event source that
// honors TouchDelay is whatever feeds it pointer events.
type Sensor struct {
	ActivationDistance int
	TouchDelay         time.Duration
}

// DefaultSensor matches a mouse: drag arms after one cell of travel.
func DefaultSensor() Sensor {
	return Sensor{ActivationDistance: 1}
}

// OutcomeKind classifies the result of a drag gesture.
type OutcomeKind int

// OutcomeCancelled and related constants define the gesture results.
const (
	// OutcomeCancelled is the silent path: no drop target, stale task, or
	// a gesture that never resolved. Indistinguishable from a no-op to the
	// renderer.
	OutcomeCancelled OutcomeKind = iota
	// OutcomeNoop is the explicit short-circuit for drops onto the current
	// column or onto the task itself.
	OutcomeNoop
	// OutcomeMove is a cross-column transition carrying the derived status.
	OutcomeMove
	// OutcomeReorder is a same-column position change; status and column
	// are untouched.
	OutcomeReorder
	// OutcomeBlocked is a WIP-limit rejection, surfaced to the user before
	// anything is persisted.
	OutcomeBlocked
)

// Outcome is the resolved intent of one completed drag gesture.
type Outcome struct {
	Kind   OutcomeKind
	TaskID string

	// Move fields.
	Column domain.ColumnID
	Status domain.Status

	// Move and Reorder: destination index within the target column. The
	// optimistic apply and the backend both renumber displaced siblings.
	Order int

	// Blocked fields.
	BlockedColumn string
	BlockedLimit  int
}

// Controller drives a single drag gesture from start through over events to
// the drop resolution. It owns no task state; callers hand it the current
// grouped view at the moments that matter.
type Controller struct {
	phase    Phase
	activeID string
	origin   Pointer
	armed    bool
	over     DropTarget
	hasOver  bool
	sensor   Sensor
	logger   *log.Logger
}

// NewController constructs a controller with the given sensor thresholds.
func NewController(sensor Sensor, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{sensor: sensor, logger: logger}
}

// Phase returns the current state machine phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// ActiveID returns the task being dragged, if any.
func (c *Controller) ActiveID() (string, bool) {
	if c.phase == PhaseIdle {
		return "", false
	}
	return c.activeID, true
}

// Armed reports whether the pointer has traveled past the activation
// distance; renderers use it to avoid drag chrome on plain clicks.
func (c *Controller) Armed() bool {
	return c.phase == PhaseDragging && c.armed
}

// Hover returns the advisory drop target recorded by the last over event.
// It drives drop-zone highlighting only and never mutates task state.
func (c *Controller) Hover() (DropTarget, bool) {
	if c.phase != PhaseDragging || !c.hasOver {
		return DropTarget{}, false
	}
	return c.over, true
}

// Start begins a gesture on a task card. The task must exist in the current
// grouped view: a stale reference stays Idle with a diagnostic rather than
// crashing the surrounding UI.
func (c *Controller) Start(taskID string, at Pointer, g Grouped) bool {
	if c.phase != PhaseIdle {
		c.logger.Debug("drag start while gesture active, ignoring", "task_id", taskID, "phase", int(c.phase))
		return false
	}
	if _, _, ok := g.Locate(taskID); !ok {
		c.logger.Warn("drag start on unknown task, staying idle", "task_id", taskID)
		return false
	}
	c.phase = PhaseDragging
	c.activeID = taskID
	c.origin = at
	c.armed = c.sensor.ActivationDistance <= 0
	c.hasOver = false
	return true
}

// Over records an advisory target while dragging. No state mutation, no
// persistence call.
func (c *Controller) Over(at Pointer, target DropTarget, ok bool) {
	if c.phase != PhaseDragging {
		return
	}
	if !c.armed && travel(c.origin, at) >= c.sensor.ActivationDistance {
		c.armed = true
	}
	c.over = target
	c.hasOver = ok
}

// Cancel abandons the gesture with zero state mutation.
func (c *Controller) Cancel() {
	c.reset()
}

// End resolves the gesture. The returned outcome carries the intended
// change; committing it is the optimistic protocol's job. The controller is
// Idle again when End returns, whatever the outcome.
func (c *Controller) End(target DropTarget, targeted bool, g Grouped, policy Policy) Outcome {
	if c.phase != PhaseDragging {
		c.reset()
		return Outcome{Kind: OutcomeCancelled}
	}
	c.phase = PhaseResolving
	taskID := c.activeID
	defer c.reset()

	if !targeted {
		return Outcome{Kind: OutcomeCancelled, TaskID: taskID}
	}
	task, ok := g.Task(taskID)
	if !ok {
		c.logger.Warn("drag end on task missing from board, cancelling", "task_id", taskID)
		return Outcome{Kind: OutcomeCancelled, TaskID: taskID}
	}
	sourceColumn, sourceIndex, _ := g.Locate(taskID)

	targetColumn, targetIndex, ok := c.resolveDestination(target, g)
	if !ok {
		return Outcome{Kind: OutcomeCancelled, TaskID: taskID}
	}

	if targetColumn == sourceColumn {
		if target.Kind == TargetColumn || target.TaskID == taskID || targetIndex == sourceIndex {
			return Outcome{Kind: OutcomeNoop, TaskID: taskID}
		}
		return Outcome{Kind: OutcomeReorder, TaskID: taskID, Column: sourceColumn, Status: task.Status, Order: targetIndex}
	}

	status := targetColumn.Status()
	if status == task.Status && targetColumn == task.BoardColumn {
		return Outcome{Kind: OutcomeNoop, TaskID: taskID}
	}

	proposed := g.Count(targetColumn) + 1
	if !policy.CheckLimit(targetColumn, proposed) {
		limit, _ := policy.Limit(targetColumn)
		return Outcome{
			Kind:          OutcomeBlocked,
			TaskID:        taskID,
			Column:        targetColumn,
			BlockedColumn: policy.Title(targetColumn),
			BlockedLimit:  limit,
		}
	}

	return Outcome{Kind: OutcomeMove, TaskID: taskID, Column: targetColumn, Status: status, Order: targetIndex}
}

// resolveDestination turns a drop target into a column and insertion index:
// a column target appends, a task target inserts at that task's slot.
func (c *Controller) resolveDestination(target DropTarget, g Grouped) (domain.ColumnID, int, bool) {
	switch target.Kind {
	case TargetColumn:
		return target.ColumnID, g.Count(target.ColumnID), true
	case TargetTask:
		column, index, ok := g.Locate(target.TaskID)
		if !ok {
			c.logger.Debug("drop target task vanished, cancelling", "target_task_id", target.TaskID)
			return "", 0, false
		}
		return column, index, true
	}
	return "", 0, false
}

func (c *Controller) reset() {
	c.phase = PhaseIdle
	c.activeID = ""
	c.armed = false
	c.hasOver = false
	c.over = DropTarget{}
}

// travel is the Chebyshev distance between two cell positions.
func travel(a, b Pointer) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	return max(dx, dy)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
