package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/sync/errgroup"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/host/memdoc"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/plugin"
	"github.com/atomicstack/billboard/internal/router"
	"github.com/atomicstack/billboard/internal/state"
	"github.com/atomicstack/billboard/internal/transport"
	"github.com/atomicstack/billboard/internal/ui"
)

// PanelPath is the websocket endpoint served in serve mode.
const PanelPath = "/panel"

// Config describes user-provided application options.
type Config struct {
	Listen      string
	Connect     string
	Theme       string
	AssetName   string
	ExportScale float64
	AckCaptures bool
	LoadTimeout time.Duration
	PanelWidth  int
	PanelHeight int
	Width       int
	Height      int
	Verbose     bool
}

type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeServe   Mode = "serve"
	ModeAttach  Mode = "attach"
)

// ModeFor picks the run mode from the configured addresses.
func ModeFor(cfg Config) Mode {
	switch {
	case cfg.Connect != "":
		return ModeAttach
	case cfg.Listen != "":
		return ModeServe
	default:
		return ModeSandbox
	}
}

// Run bootstraps and executes the configured mode until the panel quits or
// the process is interrupted.
func Run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mode := ModeFor(cfg)
	events.App.Mode(string(mode))
	switch mode {
	case ModeAttach:
		return runAttach(ctx, cfg)
	case ModeServe:
		return runServe(ctx, cfg)
	default:
		return runSandbox(ctx, cfg)
	}
}

func pluginOptions(cfg Config) plugin.Options {
	return plugin.Options{
		PanelSize: host.Size{Width: cfg.PanelWidth, Height: cfg.PanelHeight},
		Router: router.Options{
			AssetName:   cfg.AssetName,
			ExportScale: cfg.ExportScale,
			AckCaptures: cfg.AckCaptures,
		},
	}
}

func panelOptions(cfg Config, port transport.Port, theme state.Theme, controls ui.HostControls) ui.Options {
	return ui.Options{
		Port:        port,
		Theme:       theme,
		LoadTimeout: cfg.LoadTimeout,
		Controls:    controls,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Verbose:     cfg.Verbose,
	}
}

// newDocument returns the in-memory host document, seeded with a few named
// frames so selection and export have something to work on.
func newDocument(theme string) *memdoc.Document {
	doc := memdoc.New(theme)
	doc.AddRectangle("Hero frame", 0, 0, 640, 360)
	doc.AddRectangle("Product shot", 700, 0, 400, 400)
	doc.AddRectangle("Logo", 0, 420, 160, 160)
	doc.SetViewportCenter(host.Point{X: 320, Y: 180})
	return doc
}

// sandbox is a plugin and a panel sharing one process over a pipe.
type sandbox struct {
	doc    *memdoc.Document
	plugin *plugin.Plugin
	model  *ui.Model
	panel  transport.Port
}

func newSandbox(cfg Config) (*sandbox, error) {
	doc := newDocument(cfg.Theme)
	panelEnd, pluginEnd := transport.Pipe()
	p := plugin.New(doc, pluginEnd, pluginOptions(cfg))
	u, err := p.Open()
	if err != nil {
		panelEnd.Close()
		return nil, err
	}
	controls := documentControls{doc}
	model := ui.NewModel(panelOptions(cfg, panelEnd, state.ThemeFromURL(u), controls))
	return &sandbox{doc: doc, plugin: p, model: model, panel: panelEnd}, nil
}

func runSandbox(ctx context.Context, cfg Config) error {
	sb, err := newSandbox(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sb.plugin.Run(ctx)
	})
	g.Go(func() error {
		defer sb.panel.Close()
		defer cancel()
		return runProgram(ctx, sb.model)
	})
	return g.Wait()
}

func runAttach(ctx context.Context, cfg Config) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	port, err := transport.Dial(dialCtx, cfg.Connect)
	cancel()
	if err != nil {
		return err
	}
	defer port.Close()
	theme := state.ThemeFromURL(cfg.Connect)
	if theme == "" {
		theme = state.Theme(cfg.Theme)
	}
	return runProgram(ctx, ui.NewModel(panelOptions(cfg, port, theme, nil)))
}

func runProgram(ctx context.Context, model *ui.Model) error {
	program := tea.NewProgram(model, tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// panelServer hands each websocket connection its own plugin bound to the
// shared document. Only one panel is served at a time.
type panelServer struct {
	ctx    context.Context
	doc    *memdoc.Document
	opts   plugin.Options
	active atomic.Bool
}

func newPanelServer(ctx context.Context, doc *memdoc.Document, opts plugin.Options) http.Handler {
	s := &panelServer{ctx: ctx, doc: doc, opts: opts}
	mux := http.NewServeMux()
	mux.Handle(PanelPath, transport.Handler(s.accept))
	return mux
}

func (s *panelServer) accept(port transport.Port) {
	if !s.active.CompareAndSwap(false, true) {
		logging.Warn("rejecting panel connection: a panel is already attached")
		return
	}
	defer s.active.Store(false)

	p := plugin.New(s.doc, port, s.opts)
	if _, err := p.Open(); err != nil {
		logging.ErrorDetail("open panel", err)
		return
	}
	if err := p.Run(s.ctx); err != nil {
		logging.ErrorDetail("plugin session", err)
	}
}

func runServe(ctx context.Context, cfg Config) error {
	doc := newDocument(cfg.Theme)
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	srv := &http.Server{
		Handler:           newPanelServer(ctx, doc, pluginOptions(cfg)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	fmt.Fprintf(os.Stderr, "billboard: panel endpoint ws://%s%s%s\n", ln.Addr(), PanelPath, plugin.PanelURL(doc.Theme()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
