package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/atomicstack/billboard/internal/state"
)

// Styles describes reusable Lip Gloss styles shared across the panel.
type Styles struct {
	Title         *lipgloss.Style
	Label         *lipgloss.Style
	FocusedLabel  *lipgloss.Style
	Track         *lipgloss.Style
	TrackFill     *lipgloss.Style
	Value         *lipgloss.Style
	Preview       *lipgloss.Style
	Selection     *lipgloss.Style
	NoSelection   *lipgloss.Style
	Loading       *lipgloss.Style
	Info          *lipgloss.Style
	Error         *lipgloss.Style
	Footer        *lipgloss.Style
	FilterPrompt  *lipgloss.Style
	FilterMatch   *lipgloss.Style
	SelectedMatch *lipgloss.Style
}

var darkStyles = Styles{
	Title: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
	),
	Label: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	FocusedLabel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	),
	Track: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	TrackFill: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	),
	Value: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	Preview: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	Selection: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	NoSelection: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	),
	Loading: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	),
	FilterPrompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	FilterMatch: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	SelectedMatch: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")),
	),
}

var lightStyles = Styles{
	Title: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Bold(true),
	),
	Label: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	FocusedLabel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
	),
	Track: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	),
	TrackFill: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
	),
	Value: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("236")),
	),
	Preview: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	Selection: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("153")).Bold(true),
	),
	NoSelection: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true),
	),
	Loading: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Italic(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	),
	FilterPrompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
	),
	FilterMatch: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	),
	SelectedMatch: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("232")).Background(lipgloss.Color("153")),
	),
}

// Default exposes the dark style set, used when the host theme is unknown.
func Default() *Styles {
	return &darkStyles
}

// ForTheme picks the style set matching the host theme. Anything other than
// "light" renders dark.
func ForTheme(t state.Theme) *Styles {
	if t == state.ThemeLight {
		return &lightStyles
	}
	return &darkStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
