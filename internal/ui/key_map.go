package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	complete key.Binding
	star     key.Binding
	open     key.Binding
	profile  key.Binding
	signOut  key.Binding
	next     key.Binding
	submit   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "toggle complete")),
		star:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "star")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "watch")),
		profile:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
		signOut:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "sign out")),
		next:     key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.complete, k.star, k.open},
		{k.profile, k.signOut, k.quit},
	}
}
