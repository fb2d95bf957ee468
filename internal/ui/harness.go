package ui

import (
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/billboard/internal/message"
)

const harnessCmdWait = 250 * time.Millisecond

// Harness drives the UI model programmatically for integration tests. It
// stops the model from reading its port itself; inbound messages are fed with
// Receive instead. Commands that do not finish promptly (timers) are dropped
// and spinner ticks are swallowed.
type Harness struct {
	model *Model
	quit  bool
}

// NewHarness creates a harness for the provided model.
func NewHarness(model *Model) *Harness {
	if model != nil {
		model.watchPort = false
	}
	return &Harness{model: model}
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

// Receive delivers msg as though it had arrived on the panel's port.
func (h *Harness) Receive(msg message.Message) {
	h.Send(portMessageMsg{msg: msg})
}

// Press sends a key press for a printable key.
func (h *Harness) Press(text string) {
	r := []rune(text)
	if len(r) == 0 {
		return
	}
	h.Send(tea.KeyPressMsg{Code: r[0], Text: text})
}

// PressKey sends a key press for a special key such as tea.KeyUp.
func (h *Harness) PressKey(code rune, mod tea.KeyMod) {
	h.Send(tea.KeyPressMsg{Code: code, Mod: mod})
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg, ok := runWithin(cmd, harnessCmdWait)
	if !ok {
		return
	}
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, c := range msg {
			h.processCmd(c)
		}
	case spinner.TickMsg:
		return
	case tea.QuitMsg:
		h.quit = true
	default:
		mdl, next := h.model.Update(msg)
		if updated, ok := mdl.(*Model); ok {
			h.model = updated
		}
		h.processCmd(next)
	}
}

func runWithin(cmd tea.Cmd, wait time.Duration) (tea.Msg, bool) {
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg, true
	case <-time.After(wait):
		return nil, false
	}
}

// View returns the current rendered panel.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.render()
}

// Quit reports whether the model asked the program to exit.
func (h *Harness) Quit() bool {
	return h.quit
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
