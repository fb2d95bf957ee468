package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/billboard/internal/app"
	"github.com/atomicstack/billboard/internal/config"
	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/plugin"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("the panel needs an interactive terminal; use -listen to serve without one")

func main() {
	cfg := config.MustLoad()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)

	tty := probeTerminal(os.Stdin, os.Stdout)
	mode := app.ModeFor(cfg.App)
	events.App.Start(startupTracePayload(cfg, tty))

	if err := requireTerminal(mode, tty); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	cfg.App = fitPanel(cfg.App, tty)

	if err := app.Run(cfg.App); err != nil {
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// terminal is what the startup probe found on the descriptors the panel
// reads keys from and draws on.
type terminal struct {
	Stdin  ttyProbe `json:"stdin"`
	Stdout ttyProbe `json:"stdout"`
}

type ttyProbe struct {
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

func probeTerminal(in, out *os.File) terminal {
	return terminal{Stdin: probeFile(in), Stdout: probeFile(out)}
}

func probeFile(f *os.File) ttyProbe {
	if f == nil {
		return ttyProbe{Error: "missing descriptor"}
	}
	fd := int(f.Fd())
	if fd < 0 || !term.IsTerminal(fd) {
		return ttyProbe{}
	}
	p := ttyProbe{IsTerminal: true}
	if w, h, err := term.GetSize(fd); err == nil {
		p.Width, p.Height = w, h
	} else {
		p.Error = err.Error()
	}
	return p
}

func (t terminal) interactive() bool {
	return t.Stdin.IsTerminal && t.Stdout.IsTerminal
}

// requireTerminal refuses to start a panel without a terminal. Serve mode
// only runs the plugin and needs none.
func requireTerminal(mode app.Mode, t terminal) error {
	if mode == app.ModeServe || t.interactive() {
		return nil
	}
	return errNoTerminal
}

// fitPanel clamps a requested panel size to the terminal the panel will draw
// on. Zero sizes follow the window and are left alone.
func fitPanel(cfg app.Config, t terminal) app.Config {
	if t.Stdout.Width > 0 && cfg.Width > t.Stdout.Width {
		logging.Warn("panel width %d exceeds terminal width %d", cfg.Width, t.Stdout.Width)
		cfg.Width = t.Stdout.Width
	}
	if t.Stdout.Height > 0 && cfg.Height > t.Stdout.Height {
		logging.Warn("panel height %d exceeds terminal height %d", cfg.Height, t.Stdout.Height)
		cfg.Height = t.Stdout.Height
	}
	return cfg
}

// startupTracePayload records the resolved mode, the panel the host will be
// asked to open and the capture options, alongside the raw flags.
func startupTracePayload(cfg config.Config, t terminal) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags)+2)
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath

	panel := plugin.DefaultPanelSize
	if cfg.App.PanelWidth > 0 && cfg.App.PanelHeight > 0 {
		panel = host.Size{Width: cfg.App.PanelWidth, Height: cfg.App.PanelHeight}
	}
	return map[string]interface{}{
		"mode":  string(app.ModeFor(cfg.App)),
		"argv":  cfg.Args,
		"flags": flags,
		"panel": map[string]interface{}{
			"width":       panel.Width,
			"height":      panel.Height,
			"theme":       cfg.App.Theme,
			"loadTimeout": cfg.App.LoadTimeout.String(),
		},
		"capture": map[string]interface{}{
			"assetName":   cfg.App.AssetName,
			"exportScale": cfg.App.ExportScale,
			"ack":         cfg.App.AckCaptures,
		},
		"terminal": t,
	}
}
