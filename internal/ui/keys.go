package ui

import "charm.land/bubbles/v2/key"

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Decrease    key.Binding
	Increase    key.Binding
	DecreaseBig key.Binding
	IncreaseBig key.Binding
	Reset       key.Binding
	Capture     key.Binding
	Load        key.Binding
	Find        key.Binding
	SelectAll   key.Binding
	Clear       key.Binding
	Theme       key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓", "focus"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→", "adjust"),
		),
		Increase: key.NewBinding(
			key.WithKeys("right", "l"),
		),
		DecreaseBig: key.NewBinding(
			key.WithKeys("shift+left", "H"),
		),
		IncreaseBig: key.NewBinding(
			key.WithKeys("shift+right", "L"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Capture: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "capture"),
		),
		Load: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "load selection"),
		),
		Find: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "select shape"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear"),
		),
		Theme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "host theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// setHostControls enables the bindings that drive the host document.
func (k *keyMap) setHostControls(enabled bool) {
	k.Find.SetEnabled(enabled)
	k.SelectAll.SetEnabled(enabled)
	k.Clear.SetEnabled(enabled)
	k.Theme.SetEnabled(enabled)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Decrease, k.Capture, k.Load, k.Find, k.SelectAll, k.Clear, k.Theme, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Decrease, k.Increase, k.DecreaseBig, k.IncreaseBig, k.Reset},
		{k.Capture, k.Load},
		{k.Find, k.SelectAll, k.Clear, k.Theme},
		{k.Quit},
	}
}
