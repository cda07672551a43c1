package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	remove  key.Binding
	sort    key.Binding
	shuffle key.Binding
	reverse key.Binding
	links   key.Binding
	rebuild key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		remove:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove row")),
		sort:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7"), key.WithHelp("1-7", "sort column")),
		shuffle: key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "shuffle")),
		reverse: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reverse")),
		links:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "check links")),
		rebuild: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "rebuild")),
		cancel:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel run")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.sort, k.remove, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.sort, k.remove, k.shuffle, k.reverse},
		{k.links, k.rebuild, k.cancel, k.quit},
	}
}
