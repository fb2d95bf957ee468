package app

import (
	"github.com/atomicstack/billboard/internal/host/memdoc"
	"github.com/atomicstack/billboard/internal/state"
	"github.com/atomicstack/billboard/internal/ui"
)

// documentControls lets the sandbox panel drive the in-memory document.
type documentControls struct {
	*memdoc.Document
}

var _ ui.HostControls = documentControls{}

// ToggleTheme flips the host between light and dark and returns the new theme.
func (c documentControls) ToggleTheme() string {
	next := state.ThemeLight
	if state.Theme(c.Theme()) == state.ThemeLight {
		next = state.ThemeDark
	}
	c.SetTheme(string(next))
	return string(next)
}
