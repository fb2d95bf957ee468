package state

import (
	"context"
	"errors"
	"sync"

	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
)

var (
	ErrCaptureRegistered = errors.New("capture already registered")
	ErrNilCapturer       = errors.New("nil capturer")
)

// Capturer renders the current preview and hands it to the host.
type Capturer interface {
	Capture(ctx context.Context) error
}

// CaptureFunc adapts a function to Capturer.
type CaptureFunc func(ctx context.Context) error

func (f CaptureFunc) Capture(ctx context.Context) error {
	return f(ctx)
}

type uninitializedCapture struct{}

// Capture only warns: the panel has not registered its renderer yet.
func (uninitializedCapture) Capture(context.Context) error {
	logging.Warn("capture function not initialized")
	events.Capture.NotInitialized()
	return nil
}

// CaptureRegistry holds the active capture function. It starts with a no-op
// that logs a warning and accepts exactly one registration.
type CaptureRegistry interface {
	Current() Capturer
	Register(Capturer) error
	Registered() bool
	Subscribe(func(Capturer)) func()
	Capture(ctx context.Context) error
}

type captureRegistry struct {
	cell *Cell[Capturer]

	mu         sync.Mutex
	registered bool
}

func NewCaptureRegistry() CaptureRegistry {
	return &captureRegistry{cell: NewCell[Capturer](uninitializedCapture{})}
}

func (r *captureRegistry) Current() Capturer {
	return r.cell.Get()
}

func (r *captureRegistry) Register(c Capturer) error {
	if c == nil {
		return ErrNilCapturer
	}
	r.mu.Lock()
	if r.registered {
		r.mu.Unlock()
		return ErrCaptureRegistered
	}
	r.registered = true
	r.mu.Unlock()
	r.cell.Set(c)
	events.Capture.Registered()
	return nil
}

func (r *captureRegistry) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

func (r *captureRegistry) Subscribe(fn func(Capturer)) func() {
	return r.cell.Subscribe(fn)
}

// Capture runs whichever capturer is current.
func (r *captureRegistry) Capture(ctx context.Context) error {
	return r.Current().Capture(ctx)
}
