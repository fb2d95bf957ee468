package ui

import (
	"context"
	"reflect"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/preview"
	"github.com/atomicstack/billboard/internal/state"
	"github.com/atomicstack/billboard/internal/theme"
	"github.com/atomicstack/billboard/internal/transport"
)

// DefaultLoadTimeout bounds how long the panel shows a selection load as in
// progress without hearing back from the plugin.
const DefaultLoadTimeout = 10 * time.Second

const (
	infoTTL        = 4 * time.Second
	sketchCols     = 36
	sketchRows     = 12
	maxPromptMatch = 5
)

type msgHandler func(tea.Msg) tea.Cmd

// HostControls lets the panel drive the host document directly. Only the
// sandbox provides them.
type HostControls interface {
	Match(query string) []string
	SelectByName(names ...string) error
	SelectAll()
	ClearSelection()
	ToggleTheme() string
}

// Options configures a panel model.
type Options struct {
	Port        transport.Port
	Theme       state.Theme
	LoadTimeout time.Duration
	Controls    HostControls
	Width       int
	Height      int
	Verbose     bool
}

// Model implements the Bubble Tea model for the billboard panel.
type Model struct {
	port     transport.Port
	controls HostControls

	rotation  state.RotationStore
	selection state.SelectionStore
	themes    state.ThemeStore
	captures  state.CaptureRegistry

	styles  *theme.Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	sliders []slider
	focus   int
	sketch  []string

	prompt      textinput.Model
	promptOpen  bool
	matches     []string
	matchCursor int

	loadTimeout time.Duration
	loadSeq     int
	capturing   bool
	loaded      *loadedImage
	portClosed  bool
	watchPort   bool

	errMsg     string
	infoMsg    string
	infoExpire time.Time

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool

	handlers    map[reflect.Type]msgHandler
	unsubscribe []func()
}

type loadedImage struct {
	width  float64
	height float64
	bytes  int
}

// NewModel initialises the panel state and registers the capture function.
func NewModel(opts Options) *Model {
	timeout := opts.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	ti := textinput.New()
	ti.Prompt = "shape: "
	ti.Placeholder = "type to search"
	ti.CharLimit = 120

	m := &Model{
		port:        opts.Port,
		controls:    opts.Controls,
		rotation:    state.NewRotationStore(),
		selection:   state.NewSelectionStore(),
		themes:      state.NewThemeStore(opts.Theme),
		captures:    state.NewCaptureRegistry(),
		styles:      theme.ForTheme(opts.Theme),
		keys:        defaultKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		sliders:     defaultSliders(),
		prompt:      ti,
		loadTimeout: timeout,
		watchPort:   opts.Port != nil,
	}
	m.keys.setHostControls(opts.Controls != nil)
	m.help.ShowAll = opts.Verbose
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}

	m.themes.OnApply(func(t state.Theme) {
		m.styles = theme.ForTheme(t)
		events.Panel.Theme(string(t))
	})
	m.unsubscribe = append(m.unsubscribe, m.rotation.Subscribe(func(v state.RotationValues) {
		m.sketch = preview.Sketch(preview.Render(v), sketchCols, sketchRows)
	}))
	if err := m.captures.Register(state.CaptureFunc(m.captureFrame)); err != nil {
		logging.Error(err)
	}
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if !m.watchPort {
		return nil
	}
	return waitForPortMessage(m.port)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.expireInfo(time.Now())
	if m.promptOpen {
		if handled, cmd := m.handlePromptMsg(msg); handled {
			return m, cmd
		}
	}
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyPressMsg{}):    m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):  m.handleWindowSizeMsg,
		reflect.TypeOf(spinner.TickMsg{}):    m.handleSpinnerTickMsg,
		reflect.TypeOf(portMessageMsg{}):     m.handlePortMessageMsg,
		reflect.TypeOf(portClosedMsg{}):      m.handlePortClosedMsg,
		reflect.TypeOf(sendResultMsg{}):      m.handleSendResultMsg,
		reflect.TypeOf(captureDoneMsg{}):     m.handleCaptureDoneMsg,
		reflect.TypeOf(loadTimeoutMsg{}):     m.handleLoadTimeoutMsg,
		reflect.TypeOf(hostControlResult{}): m.handleHostControlResult,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		m.moveFocus(-1)
	case key.Matches(keyMsg, m.keys.Down):
		m.moveFocus(1)
	case key.Matches(keyMsg, m.keys.DecreaseBig):
		m.adjustFocused(-1, true)
	case key.Matches(keyMsg, m.keys.IncreaseBig):
		m.adjustFocused(1, true)
	case key.Matches(keyMsg, m.keys.Decrease):
		m.adjustFocused(-1, false)
	case key.Matches(keyMsg, m.keys.Increase):
		m.adjustFocused(1, false)
	case key.Matches(keyMsg, m.keys.Reset):
		m.resetRotation()
	case key.Matches(keyMsg, m.keys.Capture):
		return m.startCapture()
	case key.Matches(keyMsg, m.keys.Load):
		return m.startLoadSelection()
	case key.Matches(keyMsg, m.keys.Find):
		return m.openPrompt()
	case key.Matches(keyMsg, m.keys.SelectAll):
		return m.hostControl("select-all", "", func(c HostControls) (string, error) {
			c.SelectAll()
			return "Selected all shapes", nil
		})
	case key.Matches(keyMsg, m.keys.Clear):
		return m.hostControl("clear", "", func(c HostControls) (string, error) {
			c.ClearSelection()
			return "Selection cleared", nil
		})
	case key.Matches(keyMsg, m.keys.Theme):
		return m.hostControl("theme", "", func(c HostControls) (string, error) {
			return "Host theme: " + c.ToggleTheme(), nil
		})
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = size.Width
	}
	if !m.fixedHeight {
		m.height = size.Height
	}
	return nil
}

func (m *Model) handleSpinnerTickMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok {
		return nil
	}
	if !m.selection.Get().IsLoading && !m.capturing {
		return nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(tick)
	return cmd
}

// Close releases store subscriptions. The port is owned by the caller.
func (m *Model) Close() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
}

func (m *Model) setInfo(msg string) {
	m.infoMsg = msg
	m.infoExpire = time.Now().Add(infoTTL)
}

func (m *Model) expireInfo(now time.Time) {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && now.After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
}

func (m *Model) clearStatus() {
	m.errMsg = ""
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

// Rotation exposes the rotation store.
func (m *Model) Rotation() state.RotationStore { return m.rotation }

// Selection exposes the selection store.
func (m *Model) Selection() state.SelectionStore { return m.selection }

// Theme exposes the theme store.
func (m *Model) Theme() state.ThemeStore { return m.themes }

// Captures exposes the capture registry.
func (m *Model) Captures() state.CaptureRegistry { return m.captures }

func (m *Model) captureContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.loadTimeout)
}
