package tui

import (
	"github.com/revisjon/tavle/internal/board"
	"github.com/revisjon/tavle/internal/domain"
)

// Geometry shared by rendering and mouse hit-testing. The two must agree
// cell-for-cell or drops land on the wrong card.
const (
	// boardTop is the first row of the column borders: header line, status
	// line, spacer.
	boardTop = 3
	// colOverhead is per-column chrome: left/right border (2), horizontal
	// padding (4), margin-right (1).
	colOverhead = 7
	// colContentOffset is rows from the column border to the first header
	// line: top border plus vertical padding.
	colContentOffset = 2
	// colHeaderLines is the fixed header block inside each column: title
	// line plus the count/warning line, followed by one blank separator.
	colHeaderLines = 3
	// cardLines is the rendered height of one task card (title + meta).
	cardLines = 2
	// cardStride is cardLines plus the separator row between cards.
	cardStride = 3
)

// layout captures the resolved board geometry for one terminal size.
type layout struct {
	colWidth  int
	colHeight int
	columns   []domain.ColumnID
}

// computeLayout sizes the board for the current terminal.
func computeLayout(width, height int, columns []domain.Column) layout {
	ids := make([]domain.ColumnID, 0, len(columns))
	for _, c := range columns {
		ids = append(ids, c.ID)
	}
	return layout{
		colWidth:  columnWidthFor(width, len(columns)),
		colHeight: columnHeightFor(height),
		columns:   ids,
	}
}

// columnWidthFor splits the board width across columns, clamped to keep
// cards readable on narrow and very wide terminals.
func columnWidthFor(boardWidth, columnCount int) int {
	if columnCount == 0 {
		return 24
	}
	w := 28
	if boardWidth > 0 {
		usable := boardWidth - columnCount*colOverhead
		candidate := usable / columnCount
		if candidate > 0 {
			w = candidate
		}
	}
	if w < 20 {
		return 20
	}
	if w > 42 {
		return 42
	}
	return w
}

// columnHeightFor reserves rows for the header above and status/help below.
func columnHeightFor(height int) int {
	h := height - boardTop - 3
	if h < 12 {
		return 12
	}
	return h
}

// columnRect returns the droppable region of one column, excluding the
// margin between columns.
func (l layout) columnRect(idx int) board.Rect {
	outer := l.colWidth + colOverhead
	return board.Rect{
		X: idx * outer,
		Y: boardTop,
		W: outer - 1,
		H: l.colHeight,
	}
}

// cardRect returns the on-screen region of the card at one column slot.
func (l layout) cardRect(colIdx, taskIdx int) board.Rect {
	col := l.columnRect(colIdx)
	return board.Rect{
		X: col.X + 3,
		Y: col.Y + colContentOffset + colHeaderLines + taskIdx*cardStride,
		W: l.colWidth,
		H: cardLines,
	}
}

// visibleCards returns how many card slots fit in a column.
func (l layout) visibleCards() int {
	rows := l.colHeight - colContentOffset - colHeaderLines - 1
	if rows < cardStride {
		return 1
	}
	return (rows + cardStride - 1) / cardStride
}

// zones builds the droppable regions for the grouped view, in render order.
// Card zones cover each visible card; column zones cover the header block
// and the empty tail below the last card, so a drop on a card resolves to
// that card's slot while a drop on open column space appends.
func (l layout) zones(g board.Grouped) []board.Zone {
	var zones []board.Zone
	visible := l.visibleCards()
	for colIdx, columnID := range l.columns {
		col := l.columnRect(colIdx)
		count := g.Count(columnID)
		if count > visible {
			count = visible
		}

		for taskIdx, task := range g.Column(columnID) {
			if taskIdx >= count {
				break
			}
			zones = append(zones, board.Zone{
				Target: board.DropTarget{Kind: board.TargetTask, TaskID: task.ID},
				Rect:   l.cardRect(colIdx, taskIdx),
			})
		}

		headerBottom := col.Y + colContentOffset + colHeaderLines
		zones = append(zones, board.Zone{
			Target: board.DropTarget{Kind: board.TargetColumn, ColumnID: columnID},
			Rect:   board.Rect{X: col.X, Y: col.Y, W: col.W, H: headerBottom - col.Y},
		})

		tailTop := headerBottom + count*cardStride
		if tailBottom := col.Y + col.H; tailTop < tailBottom {
			zones = append(zones, board.Zone{
				Target: board.DropTarget{Kind: board.TargetColumn, ColumnID: columnID},
				Rect:   board.Rect{X: col.X, Y: tailTop, W: col.W, H: tailBottom - tailTop},
			})
		}
	}
	return zones
}

// cardAt hit-tests the pointer against the visible cards and returns the
// task under it together with its rect.
func (l layout) cardAt(p board.Pointer, g board.Grouped) (string, board.Rect, bool) {
	visible := l.visibleCards()
	for colIdx, columnID := range l.columns {
		if !l.columnRect(colIdx).Contains(p) {
			continue
		}
		for taskIdx, task := range g.Column(columnID) {
			if taskIdx >= visible {
				break
			}
			r := l.cardRect(colIdx, taskIdx)
			if r.Contains(p) {
				return task.ID, r, true
			}
		}
		return "", board.Rect{}, false
	}
	return "", board.Rect{}, false
}

// columnIndexAt returns the column index under an x coordinate.
func (l layout) columnIndexAt(x int) (int, bool) {
	if len(l.columns) == 0 {
		return 0, false
	}
	outer := l.colWidth + colOverhead
	idx := x / outer
	if x < 0 || idx >= len(l.columns) {
		return 0, false
	}
	return idx, true
}
