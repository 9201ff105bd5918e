package board

import "github.com/revisjon/tavle/internal/domain"

// Pointer is a drag position in cell coordinates.
type Pointer struct {
	X int
	Y int
}

// Rect is a droppable region in cell coordinates.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(p Pointer) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Intersects reports whether two rects overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// TargetKind distinguishes the two classes of droppable region.
type TargetKind int

// TargetColumn and TargetTask define the droppable region kinds.
const (
	TargetColumn TargetKind = iota
	TargetTask
)

// DropTarget is a resolved drop destination.
type DropTarget struct {
	Kind     TargetKind
	ColumnID domain.ColumnID
	TaskID   string
}

// Zone pairs a droppable target with its on-screen region. Zones are given
// in render order, which resolution relies on for determinism.
type Zone struct {
	Target DropTarget
	Rect   Rect
}

// Resolve picks the single best drop target for the current pointer and the
// dragged card's rect, or reports none.
//
// A task card and the column underneath it both register as valid targets at
// the same pointer location, and naive first-overlap strategies drop onto
// the wrong column near card edges or over nearly-empty columns. Candidates
// from pointer containment and rectangle intersection are merged, then any
// column candidate wins over task candidates: the coarser target is stabler
// and does not flicker while crossing card boundaries.
func Resolve(p Pointer, active Rect, zones []Zone) (DropTarget, bool) {
	var pointerHits, rectHits []Zone
	for _, z := range zones {
		switch {
		case z.Rect.Contains(p):
			pointerHits = append(pointerHits, z)
		case z.Rect.Intersects(active):
			rectHits = append(rectHits, z)
		}
	}
	candidates := append(pointerHits, rectHits...)

	var firstTask *DropTarget
	for i := range candidates {
		target := candidates[i].Target
		if target.Kind == TargetColumn {
			return target, true
		}
		if firstTask == nil {
			firstTask = &target
		}
	}
	if firstTask != nil {
		return *firstTask, true
	}
	return DropTarget{}, false
}
