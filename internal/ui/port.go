package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
	"github.com/atomicstack/billboard/internal/preview"
	"github.com/atomicstack/billboard/internal/state"
	"github.com/atomicstack/billboard/internal/transport"
)

var errNoPort = errors.New("panel is not connected")

func waitForPortMessage(p transport.Port) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.Messages()
		if !ok {
			return portClosedMsg{}
		}
		return portMessageMsg{msg: msg}
	}
}

type portMessageMsg struct {
	msg message.Message
}

type portClosedMsg struct{}

type sendResultMsg struct {
	kind message.Type
	err  error
}

type captureDoneMsg struct {
	err error
}

type loadTimeoutMsg struct {
	seq int
}

func (m *Model) handlePortMessageMsg(msg tea.Msg) tea.Cmd {
	portMsg, ok := msg.(portMessageMsg)
	if !ok {
		return nil
	}
	m.applyInbound(portMsg.msg)
	if !m.watchPort {
		return nil
	}
	return waitForPortMessage(m.port)
}

func (m *Model) handlePortClosedMsg(tea.Msg) tea.Cmd {
	m.portClosed = true
	m.selection.SetLoading(false)
	logging.Info("panel port closed")
	m.Close()
	return tea.Quit
}

// applyInbound folds a plugin message into the panel stores.
func (m *Model) applyInbound(msg message.Message) {
	if msg == nil {
		return
	}
	events.Panel.Receive(string(msg.Type()))
	switch msg := msg.(type) {
	case message.Theme:
		m.themes.Update(state.Theme(msg.Content))
	case message.SelectionUpdate:
		m.selection.SetName(msg.Name)
	case message.SelectionLoaded:
		m.loaded = &loadedImage{width: msg.Width, height: msg.Height, bytes: len(msg.ImageData)}
		m.setInfo(fmt.Sprintf("Loaded selection %.0fx%.0f", msg.Width, msg.Height))
	case message.SelectionLoading:
		m.selection.SetLoading(msg.IsLoading)
	case message.CaptureResult:
		m.capturing = false
		if msg.OK {
			m.errMsg = ""
			m.setInfo("Capture placed")
			return
		}
		m.errMsg = "capture failed: " + msg.Error
	case message.Invalid:
		logging.Warn("panel ignored undecodable message %q: %v", msg.Tag, msg.Err)
	default:
		logging.Warn("panel ignored unexpected %s message", msg.Type())
	}
}

func (m *Model) sendCmd(msg message.Message) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		if port == nil {
			return sendResultMsg{kind: msg.Type(), err: errNoPort}
		}
		err := port.Send(msg)
		if err == nil {
			events.Panel.Send(string(msg.Type()))
		}
		return sendResultMsg{kind: msg.Type(), err: err}
	}
}

func (m *Model) handleSendResultMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(sendResultMsg)
	if !ok || res.err == nil {
		return nil
	}
	logging.ErrorDetail("panel send "+string(res.kind), res.err)
	m.errMsg = fmt.Sprintf("send %s: %v", res.kind, res.err)
	if res.kind == message.TypeLoadSelection {
		m.selection.SetLoading(false)
	}
	return nil
}

// captureFrame is the panel's registered capturer: it renders the preview at
// the current rotation values and sends it to the plugin.
func (m *Model) captureFrame(ctx context.Context) error {
	if m.port == nil {
		return errNoPort
	}
	values := m.rotation.Get()
	data, err := preview.EncodePNG(values)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	w, h := preview.Size(values)
	msg := message.AddCapture{ImageData: data, Width: float64(w), Height: float64(h)}
	if err := m.port.Send(msg); err != nil {
		return fmt.Errorf("send capture: %w", err)
	}
	events.Panel.Send(string(msg.Type()))
	return nil
}

func (m *Model) startCapture() tea.Cmd {
	if m.capturing {
		return nil
	}
	m.capturing = true
	m.clearStatus()
	captures := m.captures
	ctx, cancel := m.captureContext()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		defer cancel()
		return captureDoneMsg{err: captures.Capture(ctx)}
	})
}

func (m *Model) handleCaptureDoneMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(captureDoneMsg)
	if !ok {
		return nil
	}
	m.capturing = false
	if done.err != nil {
		logging.ErrorDetail("capture", done.err)
		m.errMsg = done.err.Error()
		return nil
	}
	m.setInfo("Capture sent")
	return nil
}

func (m *Model) startLoadSelection() tea.Cmd {
	m.clearStatus()
	m.selection.SetLoading(true)
	m.loadSeq++
	seq := m.loadSeq
	return tea.Batch(
		m.sendCmd(message.LoadSelection{}),
		m.spinner.Tick,
		tea.Tick(m.loadTimeout, func(time.Time) tea.Msg { return loadTimeoutMsg{seq: seq} }),
	)
}

// handleLoadTimeoutMsg clears a loading flag that the plugin never answered.
// Stale timers from earlier requests are ignored.
func (m *Model) handleLoadTimeoutMsg(msg tea.Msg) tea.Cmd {
	timeout, ok := msg.(loadTimeoutMsg)
	if !ok || timeout.seq != m.loadSeq {
		return nil
	}
	if !m.selection.Get().IsLoading {
		return nil
	}
	m.selection.SetLoading(false)
	m.errMsg = "selection load timed out"
	logging.Warn("selection load %d timed out after %s", timeout.seq, m.loadTimeout)
	events.Panel.LoadTimeout(timeout.seq)
	return nil
}
