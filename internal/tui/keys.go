package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Pick   key.Binding
	Drop   key.Binding
	Cancel key.Binding
	Reload key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "stage left")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "stage right")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Pick:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		Drop:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Up, k.Down, k.Pick, k.Drop, k.Cancel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.Pick, k.Drop, k.Cancel},
		{k.Reload, k.Quit},
	}
}
