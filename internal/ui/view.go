package ui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/billboard/internal/format/table"
)

const (
	panelTitle  = "Billboard"
	trackWidth  = 20
	trackFilled = "━"
	trackEmpty  = "─"
	focusMarker = "›"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	// raw lines already carry styling and are only truncated
	raw bool
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	view := tea.NewView(m.render())
	view.AltScreen = true
	return view
}

func (m *Model) render() string {
	lines := make([]styledLine, 0, 32)
	lines = append(lines, styledLine{text: panelTitle, style: m.styles.Title})
	lines = append(lines, m.selectionLine())
	lines = append(lines, styledLine{})
	for _, row := range m.sliderRows() {
		lines = append(lines, styledLine{text: row, raw: true})
	}
	lines = append(lines, styledLine{})
	for _, row := range m.sketch {
		lines = append(lines, styledLine{text: row, style: m.styles.Preview})
	}
	if m.loaded != nil {
		lines = append(lines, styledLine{
			text:  fmt.Sprintf("last loaded: %.0fx%.0f (%s)", m.loaded.width, m.loaded.height, formatBytes(m.loaded.bytes)),
			style: m.styles.Info,
		})
	}
	if m.promptOpen {
		lines = append(lines, styledLine{})
		lines = append(lines, m.promptLines()...)
	}
	if status, ok := m.statusLine(); ok {
		lines = append(lines, styledLine{})
		lines = append(lines, status)
	}
	lines = append(lines, styledLine{})
	lines = append(lines, styledLine{text: m.help.View(m.keys), raw: true})
	return m.renderLines(lines)
}

func (m *Model) selectionLine() styledLine {
	sel := m.selection.Get()
	var b strings.Builder
	b.WriteString(m.styles.Label.Render("selection: "))
	if sel.SelectedName != nil {
		b.WriteString(m.styles.Selection.Render(*sel.SelectedName))
	} else {
		b.WriteString(m.styles.NoSelection.Render("none"))
	}
	if sel.IsLoading {
		b.WriteString("  ")
		b.WriteString(m.styles.Loading.Render(m.spinner.View() + " loading selection"))
	} else if m.capturing {
		b.WriteString("  ")
		b.WriteString(m.styles.Loading.Render(m.spinner.View() + " capturing"))
	}
	return styledLine{text: b.String(), raw: true}
}

func (m *Model) sliderRows() []string {
	values := m.rotation.Get()
	rows := make([][]string, len(m.sliders))
	for i, s := range m.sliders {
		label := m.styles.Label.Render("  " + s.label)
		if i == m.focus {
			label = m.styles.FocusedLabel.Render(focusMarker + " " + s.label)
		}
		filled := int(s.fraction(values)*trackWidth + 0.5)
		track := m.styles.TrackFill.Render(strings.Repeat(trackFilled, filled)) +
			m.styles.Track.Render(strings.Repeat(trackEmpty, trackWidth-filled))
		rows[i] = []string{label, track, m.styles.Value.Render(s.display(values))}
	}
	return table.Format(rows, []table.Alignment{table.AlignLeft, table.AlignLeft, table.AlignRight})
}

func (m *Model) promptLines() []styledLine {
	lines := []styledLine{{text: m.styles.FilterPrompt.Render(m.prompt.View()), raw: true}}
	if len(m.matches) == 0 {
		return append(lines, styledLine{text: "  no matching shapes", style: m.styles.NoSelection})
	}
	for i, name := range m.matches {
		if i >= maxPromptMatch {
			lines = append(lines, styledLine{
				text:  fmt.Sprintf("  … %d more", len(m.matches)-maxPromptMatch),
				style: m.styles.FilterMatch,
			})
			break
		}
		if i == m.matchCursor {
			lines = append(lines, styledLine{text: focusMarker + " " + name, style: m.styles.SelectedMatch})
			continue
		}
		lines = append(lines, styledLine{text: "  " + name, style: m.styles.FilterMatch})
	}
	return lines
}

func (m *Model) statusLine() (styledLine, bool) {
	switch {
	case m.errMsg != "":
		return styledLine{text: m.errMsg, style: m.styles.Error}, true
	case m.portClosed:
		return styledLine{text: "plugin disconnected", style: m.styles.Error}, true
	case m.infoMsg != "":
		return styledLine{text: m.infoMsg, style: m.styles.Info}, true
	}
	return styledLine{}, false
}

func (m *Model) renderLines(lines []styledLine) string {
	if m.height > 0 && len(lines) > m.height {
		// the help footer always stays visible
		keep := lines[:m.height-1]
		lines = append(keep[:len(keep):len(keep)], lines[len(lines)-1])
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if m.width > 0 {
			text = ansi.Truncate(text, m.width, "…")
		}
		if !line.raw && line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
