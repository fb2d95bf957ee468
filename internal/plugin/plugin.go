// Package plugin assembles the plugin side: it opens the panel, subscribes the
// bridge to host events and feeds panel messages and host events through one
// dispatch loop into the router and bridge.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/atomicstack/billboard/internal/backend"
	"github.com/atomicstack/billboard/internal/bridge"
	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/router"
	"github.com/atomicstack/billboard/internal/transport"
)

const DefaultTitle = "Billboard"

var DefaultPanelSize = host.Size{Width: 664, Height: 600}

type Options struct {
	Title     string
	PanelSize host.Size
	Router    router.Options
}

type Plugin struct {
	host   host.Host
	port   transport.Port
	loop   *backend.Loop
	bridge *bridge.Bridge
	opts   Options
}

func New(h host.Host, port transport.Port, opts Options) *Plugin {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.PanelSize.Width <= 0 || opts.PanelSize.Height <= 0 {
		opts.PanelSize = DefaultPanelSize
	}
	b := bridge.New(h, port)
	r := router.New(h, port, opts.Router)
	return &Plugin{
		host:   h,
		port:   port,
		bridge: b,
		loop:   backend.NewLoop(backend.Handlers{Messages: r, HostEvents: b}),
		opts:   opts,
	}
}

// PanelURL is the query string handed to the panel; it carries the host theme
// at open time.
func PanelURL(theme string) string {
	return "?theme=" + url.QueryEscape(theme)
}

// Open asks the host to show the panel and returns the URL it was opened with.
func (p *Plugin) Open() (string, error) {
	u := PanelURL(p.host.Theme())
	if err := p.host.OpenPanel(p.opts.Title, u, p.opts.PanelSize); err != nil {
		return "", fmt.Errorf("open panel: %w", err)
	}
	events.App.PanelOpened(p.opts.Title, u, p.opts.PanelSize.Width, p.opts.PanelSize.Height)
	return u, nil
}

// Run dispatches until ctx ends or the panel connection closes. A closed
// connection is a normal end of session and returns nil. Host event
// subscriptions last only as long as Run.
func (p *Plugin) Run(ctx context.Context) error {
	unsubscribe := p.bridge.Subscribe(p.loop)
	defer unsubscribe()

	go p.pump(ctx)
	err := p.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends Run without waiting for queued events.
func (p *Plugin) Stop() {
	p.loop.Stop()
}

func (p *Plugin) pump(ctx context.Context) {
	defer p.loop.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.port.Messages():
			if !ok {
				logging.Info("panel connection closed")
				return
			}
			if err := p.loop.PostMessage(msg); err != nil {
				return
			}
		}
	}
}
