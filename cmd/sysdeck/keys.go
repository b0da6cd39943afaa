package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	First      key.Binding // chord: gg
	Last       key.Binding
	Refresh    key.Binding
	Search     key.Binding
	Sort       key.Binding
	Order      key.Binding
	Kill       key.Binding
	Toggle     key.Binding
	LockSearch key.Binding
	Enter      key.Binding
	Esc        key.Binding
	Help       key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	PageUp:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "page up")),
	PageDown:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "page down")),
	First:      key.NewBinding(key.WithKeys("g"), key.WithHelp("gg", "first")),
	Last:       key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "last")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
	Order:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sort order")),
	Kill:       key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "kill")),
	Toggle:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start/stop")),
	LockSearch: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "find lock holders")),
	Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Esc:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear/close")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Confirm:    key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
	Cancel:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Search, k.Sort, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.Up, k.Down, k.PageUp, k.PageDown},
		{k.First, k.Last, k.Search, k.Esc, k.Refresh},
		{k.Sort, k.Order, k.Kill, k.Toggle, k.LockSearch},
		{k.Help, k.Quit},
	}
}

// contextHelp returns the status-bar hint for the current tab.
func contextHelp(t tabID, elevated bool) string {
	base := "j/k: move | /: search | s/S: sort | gg/G: jump | f: locks | tab: next | q: quit"
	switch t {
	case tabProcesses:
		if elevated {
			return "K: kill | " + base
		}
	case tabServices:
		if elevated {
			return "enter: start/stop | " + base
		}
	}
	return base
}
