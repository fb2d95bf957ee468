package ui

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
)

var errNoHostControls = errors.New("host controls are not available")

type hostControlResult struct {
	action string
	info   string
	err    error
}

// hostControl runs fn against the attached host controls and reports the
// outcome as a hostControlResult.
func (m *Model) hostControl(action, arg string, fn func(HostControls) (string, error)) tea.Cmd {
	controls := m.controls
	return func() tea.Msg {
		if controls == nil {
			return hostControlResult{action: action, err: errNoHostControls}
		}
		events.Panel.HostControl(action, arg)
		info, err := fn(controls)
		return hostControlResult{action: action, info: info, err: err}
	}
}

func (m *Model) handleHostControlResult(msg tea.Msg) tea.Cmd {
	res, ok := msg.(hostControlResult)
	if !ok {
		return nil
	}
	if res.err != nil {
		logging.ErrorDetail("host "+res.action, res.err)
		m.errMsg = res.err.Error()
		return nil
	}
	m.errMsg = ""
	if res.info != "" {
		m.setInfo(res.info)
	}
	return nil
}

func (m *Model) openPrompt() tea.Cmd {
	if m.controls == nil {
		return nil
	}
	m.clearStatus()
	m.promptOpen = true
	m.prompt.SetValue("")
	m.refreshMatches()
	return m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptOpen = false
	m.prompt.Blur()
	m.prompt.SetValue("")
	m.matches = nil
	m.matchCursor = 0
}

func (m *Model) refreshMatches() {
	if m.controls == nil {
		m.matches = nil
		return
	}
	m.matches = m.controls.Match(strings.TrimSpace(m.prompt.Value()))
	if m.matchCursor >= len(m.matches) {
		m.matchCursor = max(0, len(m.matches)-1)
	}
}

// handlePromptMsg owns key presses while the shape prompt is open. Other
// messages fall through to the regular handlers.
func (m *Model) handlePromptMsg(msg tea.Msg) (bool, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return false, cmd
	}
	switch keyMsg.String() {
	case "esc", "ctrl+c":
		m.closePrompt()
		return true, nil
	case "up", "ctrl+p":
		if m.matchCursor > 0 {
			m.matchCursor--
		}
		return true, nil
	case "down", "ctrl+n", "tab":
		if m.matchCursor < min(len(m.matches), maxPromptMatch)-1 {
			m.matchCursor++
		}
		return true, nil
	case "enter":
		if len(m.matches) == 0 {
			m.errMsg = "no shape matches " + strings.TrimSpace(m.prompt.Value())
			return true, nil
		}
		name := m.matches[m.matchCursor]
		m.closePrompt()
		return true, m.hostControl("select", name, func(c HostControls) (string, error) {
			if err := c.SelectByName(name); err != nil {
				return "", err
			}
			return "Selected " + name, nil
		})
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(keyMsg)
	m.matchCursor = 0
	m.refreshMatches()
	return true, cmd
}
