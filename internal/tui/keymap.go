package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	moveLeft      key.Binding
	moveRight     key.Binding
	moveUp        key.Binding
	moveDown      key.Binding
	moveTaskLeft  key.Binding
	moveTaskRight key.Binding
	moveTaskUp    key.Binding
	moveTaskDown  key.Binding
	taskInfo      key.Binding
	assign        key.Binding
	filter        key.Binding
	copyID        key.Binding
	cancel        key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:     key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		moveTaskLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move task left")),
		moveTaskRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move task right")),
		moveTaskUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "reorder up")),
		moveTaskDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "reorder down")),
		taskInfo:      key.NewBinding(key.WithKeys("i", "enter"), key.WithHelp("i/enter", "task info")),
		assign:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "assign")),
		filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		copyID:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task id")),
		cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.taskInfo, k.assign, k.filter, k.moveTaskLeft, k.moveTaskRight, k.reload, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.moveTaskLeft, k.moveTaskRight, k.moveTaskUp, k.moveTaskDown},
		{k.taskInfo, k.assign, k.filter, k.copyID, k.reload, k.toggleHelp, k.quit},
	}
}
