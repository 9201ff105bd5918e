package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/revisjon/tavle/internal/domain"
)

// minDescriptionWrap keeps glamour from wrapping into unreadable slivers on
// tiny terminals.
const minDescriptionWrap = 24

// descriptionView renders a task's long-form body for the info panel: the
// markdown description plus, for statutory work, a filing note so the
// compliance deadline stands out inside the body itself. The glamour
// renderer is rebuilt only when the wrap width changes.
type descriptionView struct {
	wrap     int
	renderer *glamour.TermRenderer
}

// render produces the styled body for one task, or "" when there is
// nothing to show. Falls back to the unstyled source when glamour fails.
func (v *descriptionView) render(task domain.Task, width int) string {
	source := descriptionSource(task)
	if source == "" {
		return ""
	}

	if width < minDescriptionWrap {
		width = minDescriptionWrap
	}
	if v.renderer == nil || v.wrap != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return source
		}
		v.renderer = renderer
		v.wrap = width
	}

	rendered, err := v.renderer.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(rendered, "\n")
}

// descriptionSource assembles the markdown body for a task.
func descriptionSource(task domain.Task) string {
	var b strings.Builder
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString(desc)
	}
	if task.IsStatutory && task.StatutoryType != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("> **Statutory filing:** " + task.StatutoryType)
		if task.DueDate != nil {
			b.WriteString(", due " + task.DueDate.Local().Format("2 Jan 2006"))
		}
	}
	return b.String()
}
