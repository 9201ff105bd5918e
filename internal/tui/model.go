// Package tui renders the task board and drives its drag-and-drop and
// keyboard transitions over the application service.
package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/revisjon/tavle/internal/app"
	"github.com/revisjon/tavle/internal/board"
	"github.com/revisjon/tavle/internal/domain"
)

// Service is the slice of the application service the board consumes.
type Service interface {
	LoadBoard(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
	MoveTask(ctx context.Context, taskID string, status domain.Status, column domain.ColumnID) (domain.Task, error)
	ReorderTask(ctx context.Context, taskID string, boardOrder int) (domain.Task, error)
	AssignTask(ctx context.Context, taskID, userID string) (domain.Task, error)
	ListUsers(ctx context.Context) ([]app.User, error)
	CompanyID() string
}

type inputMode int

const (
	modeNone inputMode = iota
	modeFilter
	modeTaskInfo
	modeAssign
)

type loadedMsg struct {
	tasks []domain.Task
	err   error
}

// commitMsg carries one persistence result back to the event loop together
// with the rollback ticket issued when the change was applied.
type commitMsg struct {
	pending board.Pending
	task    domain.Task
	verb    string
	err     error
}

type usersMsg struct {
	users []app.User
	err   error
}

type clipboardMsg struct {
	err error
}

// Model is the board's bubbletea model. All task state lives in the store
// and is only touched from this event loop.
type Model struct {
	svc    Service
	logger *log.Logger
	clock  func() time.Time

	keys keyMap
	help help.Model

	ready  bool
	width  int
	height int
	err    error
	status string
	toast  string

	columns []domain.Column
	policy  board.Policy

	store    *board.Store
	grouped  board.Grouped
	drag     *board.Controller
	protocol *board.Protocol
	debounce *board.Debouncer

	sensor       board.Sensor
	dropDebounce time.Duration

	layout layout

	selectedColumn int
	selectedTask   int

	mode        inputMode
	filterInput textinput.Model
	filter      domain.TaskFilter

	users     []app.User
	userIndex int

	infoTaskID  string
	description descriptionView

	// dragRect is the dragged card's rect at gesture start; dragOffset is
	// where inside it the pointer grabbed.
	dragRect   board.Rect
	dragOffset board.Pointer

	writeClipboard func(string) error

	showWIPWarnings bool
}

// New constructs the board model over the application service.
func New(svc Service, columns []domain.Column, logger *log.Logger, opts ...Option) Model {
	if logger == nil {
		logger = log.Default()
	}
	filterInput := textinput.New()
	filterInput.Placeholder = "search title or description"
	filterInput.CharLimit = 120

	m := Model{
		svc:             svc,
		logger:          logger,
		clock:           time.Now,
		keys:            newKeyMap(),
		help:            help.New(),
		columns:         columns,
		policy:          board.NewPolicy(columns),
		sensor:          board.DefaultSensor(),
		dropDebounce:    250 * time.Millisecond,
		filterInput:     filterInput,
		writeClipboard:  clipboard.WriteAll,
		showWIPWarnings: true,
		status:          "loading...",
	}
	for _, opt := range opts {
		opt(&m)
	}

	m.store = board.NewStore(nil)
	m.drag = board.NewController(m.sensor, logger)
	m.protocol = board.NewProtocol(m.store, m.clock, logger)
	m.debounce = board.NewDebouncer(m.dropDebounce, m.clock)
	m.grouped = board.Group(nil, columns)
	m.layout = computeLayout(0, 0, columns)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.layout = computeLayout(m.width, m.height, m.columns)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.toast = ""
		m.store.Replace(msg.tasks)
		m.regroup()
		m.clampSelection()
		m.status = "ready"
		return m, nil

	case commitMsg:
		if msg.err != nil {
			m.protocol.Rollback(msg.pending)
			m.debounce.Reset(msg.pending.TaskID)
			m.regroup()
			m.toast = fmt.Sprintf("could not save %s, changes reverted: %v", msg.verb, msg.err)
			m.logger.Warn("persistence failed, rolled back",
				"task_id", msg.pending.TaskID, "verb", msg.verb, "err", msg.err)
			return m, nil
		}
		if m.protocol.Reconcile(msg.pending, msg.task) {
			m.regroup()
		}
		return m, nil

	case usersMsg:
		if msg.err != nil {
			m.toast = "could not load users: " + msg.err.Error()
			return m, nil
		}
		m.users = msg.users
		m.userIndex = 0
		m.mode = modeAssign
		return m, nil

	case clipboardMsg:
		if msg.err != nil {
			m.toast = "copy failed: " + msg.err.Error()
		} else {
			m.toast = "task id copied"
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// loadBoard fetches the authoritative task list.
func (m Model) loadBoard() tea.Msg {
	tasks, err := m.svc.LoadBoard(context.Background(), m.filter)
	return loadedMsg{tasks: tasks, err: err}
}

// loadUsers fetches the tenant members for the assignment picker.
func (m Model) loadUsers() tea.Msg {
	users, err := m.svc.ListUsers(context.Background())
	return usersMsg{users: users, err: err}
}

func (m *Model) regroup() {
	m.grouped = board.Group(m.store.Tasks(), m.columns)
	m.layout = computeLayout(m.width, m.height, m.columns)
}

func (m *Model) clampSelection() {
	if len(m.columns) == 0 {
		m.selectedColumn, m.selectedTask = 0, 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.columns)-1)
	count := m.grouped.Count(m.columns[m.selectedColumn].ID)
	m.selectedTask = clamp(m.selectedTask, 0, max(0, count-1))
}

// selectedTaskID returns the task under the selection cursor.
func (m Model) selectedTaskID() (string, bool) {
	if m.selectedColumn >= len(m.columns) {
		return "", false
	}
	tasks := m.grouped.Column(m.columns[m.selectedColumn].ID)
	if m.selectedTask >= len(tasks) {
		return "", false
	}
	return tasks[m.selectedTask].ID, true
}

// focusTask moves the selection cursor to a task wherever it landed.
func (m *Model) focusTask(taskID string) {
	column, index, ok := m.grouped.Locate(taskID)
	if !ok {
		m.clampSelection()
		return
	}
	for idx, c := range m.columns {
		if c.ID == column {
			m.selectedColumn = idx
			break
		}
	}
	m.selectedTask = index
}

func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.reload):
		m.status = "loading..."
		return m, m.loadBoard

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.moveLeft):
		m.selectedColumn--
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveRight):
		m.selectedColumn++
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		m.selectedTask--
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		m.selectedTask++
		m.clampSelection()
		return m, nil

	case key.Matches(msg, m.keys.moveTaskLeft):
		return m.moveSelectedTask(-1)

	case key.Matches(msg, m.keys.moveTaskRight):
		return m.moveSelectedTask(1)

	case key.Matches(msg, m.keys.moveTaskUp):
		return m.reorderSelectedTask(-1)

	case key.Matches(msg, m.keys.moveTaskDown):
		return m.reorderSelectedTask(1)

	case key.Matches(msg, m.keys.taskInfo):
		if taskID, ok := m.selectedTaskID(); ok {
			m.infoTaskID = taskID
			m.mode = modeTaskInfo
		}
		return m, nil

	case key.Matches(msg, m.keys.assign):
		if _, ok := m.selectedTaskID(); ok {
			return m, m.loadUsers
		}
		return m, nil

	case key.Matches(msg, m.keys.filter):
		m.mode = modeFilter
		m.filterInput.SetValue(m.filter.Search)
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.copyID):
		if taskID, ok := m.selectedTaskID(); ok {
			return m, m.copyToClipboard(taskID)
		}
		return m, nil

	case key.Matches(msg, m.keys.cancel):
		if m.filter.Search != "" {
			m.filter.Search = ""
			m.status = "loading..."
			return m, m.loadBoard
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeFilter:
		switch msg.String() {
		case "enter":
			m.filter.Search = strings.TrimSpace(m.filterInput.Value())
			m.mode = modeNone
			m.status = "loading..."
			return m, m.loadBoard
		case "esc":
			m.mode = modeNone
			return m, nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd

	case modeTaskInfo:
		switch {
		case key.Matches(msg, m.keys.copyID):
			return m, m.copyToClipboard(m.infoTaskID)
		case msg.String() == "esc" || key.Matches(msg, m.keys.taskInfo), key.Matches(msg, m.keys.quit):
			m.mode = modeNone
			m.infoTaskID = ""
		}
		return m, nil

	case modeAssign:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			return m, nil
		case "k", "up":
			m.userIndex = clamp(m.userIndex-1, 0, len(m.users))
			return m, nil
		case "j", "down":
			m.userIndex = clamp(m.userIndex+1, 0, len(m.users))
			return m, nil
		case "enter":
			return m.applyAssignment()
		}
		return m, nil
	}
	return m, nil
}

// applyAssignment commits the picker choice: index 0 unassigns, the rest
// map to the loaded users.
func (m Model) applyAssignment() (tea.Model, tea.Cmd) {
	taskID, ok := m.selectedTaskID()
	if !ok {
		m.mode = modeNone
		return m, nil
	}
	m.mode = modeNone

	var patch board.Patch
	userID := ""
	if m.userIndex > 0 && m.userIndex-1 < len(m.users) {
		user := m.users[m.userIndex-1]
		userID = user.ID
		patch = board.Patch{
			AssignedTo:      &user.ID,
			AssignedToEmail: &user.Email,
			AssignedToRole:  &user.Role,
		}
	} else {
		empty := ""
		var noRole domain.Role
		patch = board.Patch{
			AssignedTo:      &empty,
			AssignedToEmail: &empty,
			AssignedToRole:  &noRole,
		}
	}

	pending, err := m.protocol.Apply(taskID, patch)
	if err != nil {
		m.toast = "task vanished, reload with r"
		return m, nil
	}
	m.regroup()
	return m, func() tea.Msg {
		task, err := m.svc.AssignTask(context.Background(), taskID, userID)
		return commitMsg{pending: pending, task: task, verb: "assignment", err: err}
	}
}

// moveSelectedTask moves the cursor's task one column left or right through
// the same gate as a drop.
func (m Model) moveSelectedTask(delta int) (tea.Model, tea.Cmd) {
	taskID, ok := m.selectedTaskID()
	if !ok {
		return m, nil
	}
	targetIdx := m.selectedColumn + delta
	if targetIdx < 0 || targetIdx >= len(m.columns) {
		return m, nil
	}
	if !m.drag.Start(taskID, board.Pointer{}, m.grouped) {
		return m, nil
	}
	outcome := m.drag.End(board.DropTarget{
		Kind:     board.TargetColumn,
		ColumnID: m.columns[targetIdx].ID,
	}, true, m.grouped, m.policy)
	cmd := m.applyOutcome(outcome)
	return m, cmd
}

// reorderSelectedTask swaps the cursor's task with its neighbor above or
// below.
func (m Model) reorderSelectedTask(delta int) (tea.Model, tea.Cmd) {
	taskID, ok := m.selectedTaskID()
	if !ok {
		return m, nil
	}
	tasks := m.grouped.Column(m.columns[m.selectedColumn].ID)
	neighborIdx := m.selectedTask + delta
	if neighborIdx < 0 || neighborIdx >= len(tasks) {
		return m, nil
	}
	if !m.drag.Start(taskID, board.Pointer{}, m.grouped) {
		return m, nil
	}
	outcome := m.drag.End(board.DropTarget{
		Kind:   board.TargetTask,
		TaskID: tasks[neighborIdx].ID,
	}, true, m.grouped, m.policy)
	cmd := m.applyOutcome(outcome)
	return m, cmd
}

func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone || msg.Button != tea.MouseLeft {
		return m, nil
	}
	p := board.Pointer{X: msg.X, Y: msg.Y}
	if colIdx, ok := m.layout.columnIndexAt(msg.X); ok {
		m.selectedColumn = colIdx
		m.clampSelection()
	}
	taskID, rect, ok := m.layout.cardAt(p, m.grouped)
	if !ok {
		return m, nil
	}
	m.focusTask(taskID)
	if m.drag.Start(taskID, p, m.grouped) {
		m.dragRect = rect
		m.dragOffset = board.Pointer{X: p.X - rect.X, Y: p.Y - rect.Y}
	}
	return m, nil
}

func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.drag.Phase() != board.PhaseDragging {
		return m, nil
	}
	p := board.Pointer{X: msg.X, Y: msg.Y}
	target, ok := board.Resolve(p, m.activeRect(p), m.layout.zones(m.grouped))
	m.drag.Over(p, target, ok)
	return m, nil
}

func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.drag.Phase() != board.PhaseDragging {
		return m, nil
	}
	if !m.drag.Armed() {
		// A plain click: selection already moved on press.
		m.drag.Cancel()
		return m, nil
	}
	p := board.Pointer{X: msg.X, Y: msg.Y}
	target, ok := board.Resolve(p, m.activeRect(p), m.layout.zones(m.grouped))
	outcome := m.drag.End(target, ok, m.grouped, m.policy)
	cmd := m.applyOutcome(outcome)
	return m, cmd
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedTask--
	case tea.MouseWheelDown:
		m.selectedTask++
	}
	m.clampSelection()
	return m, nil
}

// activeRect is the dragged card's rect translated to follow the pointer.
func (m Model) activeRect(p board.Pointer) board.Rect {
	return board.Rect{
		X: p.X - m.dragOffset.X,
		Y: p.Y - m.dragOffset.Y,
		W: m.dragRect.W,
		H: m.dragRect.H,
	}
}

// applyOutcome turns a resolved gesture into an optimistic store change and
// the persistence command that settles it.
func (m *Model) applyOutcome(outcome board.Outcome) tea.Cmd {
	switch outcome.Kind {
	case board.OutcomeMove:
		if !m.debounce.Allow(outcome.TaskID) {
			m.logger.Debug("drop debounced", "task_id", outcome.TaskID)
			return nil
		}
		pending, err := m.protocol.Apply(outcome.TaskID, board.Patch{
			Status:      &outcome.Status,
			BoardColumn: &outcome.Column,
			BoardOrder:  &outcome.Order,
		})
		if err != nil {
			m.toast = "task vanished, reload with r"
			return nil
		}
		m.regroup()
		m.focusTask(outcome.TaskID)
		m.toast = ""
		return func() tea.Msg {
			task, err := m.svc.MoveTask(context.Background(), outcome.TaskID, outcome.Status, outcome.Column)
			return commitMsg{pending: pending, task: task, verb: "move", err: err}
		}

	case board.OutcomeReorder:
		if !m.debounce.Allow(outcome.TaskID) {
			m.logger.Debug("drop debounced", "task_id", outcome.TaskID)
			return nil
		}
		pending, err := m.protocol.ApplyReorder(outcome.TaskID, outcome.Order)
		if err != nil {
			m.toast = "task vanished, reload with r"
			return nil
		}
		m.regroup()
		m.focusTask(outcome.TaskID)
		m.toast = ""
		return func() tea.Msg {
			task, err := m.svc.ReorderTask(context.Background(), outcome.TaskID, outcome.Order)
			return commitMsg{pending: pending, task: task, verb: "reorder", err: err}
		}

	case board.OutcomeBlocked:
		m.toast = fmt.Sprintf("%s is full (limit %d)", outcome.BlockedColumn, outcome.BlockedLimit)
		return nil
	}
	return nil
}

// copyToClipboard writes a task id to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	write := m.writeClipboard
	return func() tea.Msg {
		return clipboardMsg{err: write(text)}
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("tavle") + "  " + m.svc.CompanyID()
	if m.filter.Search != "" {
		header += statusStyle.Render("  filter: " + m.filter.Search)
	}
	if _, dragging := m.drag.ActiveID(); dragging {
		header += statusStyle.Render("  dragging")
	}

	var body string
	switch m.mode {
	case modeTaskInfo:
		body = m.renderTaskInfo(accent, muted)
	case modeAssign:
		body = m.renderAssignPicker(accent, muted)
	default:
		body = m.renderBoard(accent, muted, dim)
	}

	statusLine := m.status
	if m.toast != "" {
		statusLine = m.toast
	}
	if m.mode == modeFilter {
		statusLine = "filter: " + m.filterInput.View()
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	sections := []string{header, statusStyle.Render(statusLine), body}
	content := strings.Join(sections, "\n")
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}

	v := tea.NewView(content + "\n" + helpLine)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderBoard draws the columns and cards with the geometry from layout.go.
func (m Model) renderBoard(accent, muted, dim color.Color) string {
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	warningStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	draggedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true)
	metaStyle := lipgloss.NewStyle().Foreground(muted)

	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(1, 2).
		MarginRight(1).
		Width(m.layout.colWidth)

	hover, hovering := m.drag.Hover()
	activeID, dragging := m.drag.ActiveID()
	visible := m.layout.visibleCards()

	columnViews := make([]string, 0, len(m.columns))
	for colIdx, column := range m.columns {
		tasks := m.grouped.Column(column.ID)
		count := len(tasks)

		colHeader := fmt.Sprintf("%s (%d)", column.Title, count)
		if column.WIPLimit > 0 {
			colHeader = fmt.Sprintf("%s (%d/%d)", column.Title, count, column.WIPLimit)
		}
		counts := ""
		if m.showWIPWarnings && m.policy.OverLimit(column.ID, count) {
			counts = warningStyle.Render(fmt.Sprintf("over WIP limit: %d/%d", count, column.WIPLimit))
		}
		lines := []string{
			lipgloss.NewStyle().Foreground(lipgloss.Color(column.Color)).Inherit(colTitle).Render(colHeader),
			counts,
			"",
		}

		if count == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		for taskIdx, task := range tasks {
			if taskIdx >= visible {
				break
			}
			title := truncate(task.Title, max(1, m.layout.colWidth-2))
			meta := m.cardMeta(task)
			switch {
			case dragging && task.ID == activeID:
				title = draggedStyle.Render("◈ " + title)
			case colIdx == m.selectedColumn && taskIdx == m.selectedTask:
				title = selectedStyle.Render("│ " + title)
			default:
				title = "  " + title
			}
			lines = append(lines, title, "  "+metaStyle.Render(meta))
			if taskIdx < count-1 {
				lines = append(lines, "")
			}
		}

		style := baseColStyle
		switch {
		case hovering && dragTargetsColumn(hover, column.ID, m.grouped):
			style = style.BorderForeground(accent)
		case colIdx == m.selectedColumn:
			style = style.BorderForeground(lipgloss.Color("248"))
		}
		inner := max(1, m.layout.colHeight-2)
		columnViews = append(columnViews, style.Render(fitLines(strings.Join(lines, "\n"), inner)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// cardMeta builds the one-line summary under a card title.
func (m Model) cardMeta(task domain.Task) string {
	parts := []string{priorityGlyph(task.Priority) + " " + string(task.Priority)}
	if task.DueDate != nil {
		parts = append(parts, task.DueDate.Local().Format("Jan 02"))
	}
	if task.AssignedToEmail != "" {
		parts = append(parts, truncate(task.AssignedToEmail, 16))
	} else if task.AssignedTo != "" {
		parts = append(parts, truncate(task.AssignedTo, 12))
	}
	if task.IsStatutory {
		label := "§"
		if task.StatutoryType != "" {
			label += task.StatutoryType
		}
		parts = append(parts, label)
	}
	return truncate(strings.Join(parts, " · "), max(1, m.layout.colWidth-2))
}

// renderTaskInfo draws the full-screen task detail panel.
func (m Model) renderTaskInfo(accent, muted color.Color) string {
	task, ok := m.store.Get(m.infoTaskID)
	if !ok {
		return "task no longer on the board, esc to close"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle := lipgloss.NewStyle().Foreground(muted)

	width := max(24, m.width-8)
	lines := []string{
		titleStyle.Render(task.Title),
		"",
		labelStyle.Render("id        ") + task.ID,
		labelStyle.Render("column    ") + string(task.BoardColumn) + "  (" + string(task.Status) + ")",
		labelStyle.Render("priority  ") + string(task.Priority),
	}
	if task.ClientID != "" {
		lines = append(lines, labelStyle.Render("client    ")+task.ClientID)
	}
	if task.AssignedTo != "" {
		assignee := task.AssignedToEmail
		if assignee == "" {
			assignee = task.AssignedTo
		}
		lines = append(lines, labelStyle.Render("assignee  ")+assignee+" ("+string(task.AssignedToRole)+")")
	}
	if task.DueDate != nil {
		lines = append(lines, labelStyle.Render("due       ")+task.DueDate.Local().Format("2006-01-02"))
	}
	if len(task.Tags) > 0 {
		lines = append(lines, labelStyle.Render("tags      ")+strings.Join(task.Tags, ", "))
	}
	// The statutory filing note travels inside the rendered body.
	dv := m.description
	if body := dv.render(task, width); body != "" {
		lines = append(lines, "", body)
	}
	lines = append(lines, "", labelStyle.Render("y copy id • esc close"))
	return strings.Join(lines, "\n")
}

// renderAssignPicker draws the assignment picker list.
func (m Model) renderAssignPicker(accent, muted color.Color) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	selStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(muted)

	lines := []string{titleStyle.Render("assign to"), ""}
	entries := make([]string, 0, len(m.users)+1)
	entries = append(entries, "(unassign)")
	for _, user := range m.users {
		entries = append(entries, fmt.Sprintf("%s  %s", user.Email, labelStyle.Render(string(user.Role))))
	}
	for idx, entry := range entries {
		if idx == m.userIndex {
			lines = append(lines, selStyle.Render("│ "+entry))
		} else {
			lines = append(lines, "  "+entry)
		}
	}
	lines = append(lines, "", labelStyle.Render("enter select • esc cancel"))
	return strings.Join(lines, "\n")
}

// dragTargetsColumn reports whether the hover target lands in a column, for
// drop-zone highlighting.
func dragTargetsColumn(target board.DropTarget, columnID domain.ColumnID, g board.Grouped) bool {
	switch target.Kind {
	case board.TargetColumn:
		return target.ColumnID == columnID
	case board.TargetTask:
		column, _, ok := g.Locate(target.TaskID)
		return ok && column == columnID
	}
	return false
}

func priorityGlyph(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "‼"
	case domain.PriorityHigh:
		return "▲"
	case domain.PriorityLow:
		return "▽"
	default:
		return "•"
	}
}

// fitLines pads or trims content to an exact line count.
func fitLines(content string, height int) string {
	if height <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(runes[:limit-1]) + "…"
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
