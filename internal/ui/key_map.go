package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	start   key.Binding
	finish  key.Binding
	clear   key.Binding
	refresh key.Binding
	root    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		finish:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "finish")),
		clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		root:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next root")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.start, k.finish, k.clear, k.refresh, k.root, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.start, k.finish, k.clear},
		{k.refresh, k.root, k.quit},
	}
}
