package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
)

// ErrStopped is returned by Post once the loop has stopped.
var ErrStopped = errors.New("dispatch loop stopped")

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("dispatch loop already running")

// Kind says which half of Event is populated.
type Kind int

const (
	KindPanelMessage Kind = iota
	KindHostEvent
)

func (k Kind) String() string {
	switch k {
	case KindPanelMessage:
		return "panel-message"
	case KindHostEvent:
		return "host-event"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one unit of work for the loop: a message from the panel or an
// event emitted by the host.
type Event struct {
	Kind      Kind
	Message   message.Message
	HostEvent host.Event
}

// Handler processes events. HandleHostEvent errors are logged by the loop.
type Handler interface {
	HandleMessage(ctx context.Context, msg message.Message)
	HandleHostEvent(ctx context.Context, evt host.Event) error
}

// Handlers joins a message handler and a host event handler into a Handler.
type Handlers struct {
	Messages interface {
		HandleMessage(ctx context.Context, msg message.Message)
	}
	HostEvents interface {
		HandleHostEvent(ctx context.Context, evt host.Event) error
	}
}

func (h Handlers) HandleMessage(ctx context.Context, msg message.Message) {
	if h.Messages == nil {
		logging.Warn("dispatch: no message handler for %s", typeOf(msg))
		return
	}
	h.Messages.HandleMessage(ctx, msg)
}

func (h Handlers) HandleHostEvent(ctx context.Context, evt host.Event) error {
	if h.HostEvents == nil {
		logging.Warn("dispatch: no host event handler for %s", evt.Name)
		return nil
	}
	return h.HostEvents.HandleHostEvent(ctx, evt)
}

func typeOf(msg message.Message) string {
	if msg == nil {
		return "<nil>"
	}
	return string(msg.Type())
}

// Loop is a single-consumer FIFO. Events are handled one at a time, in the
// order they were posted, each running to completion before the next starts.
// Post never blocks, so handlers can post follow-up events (for example the
// selection change a capture causes) without deadlocking.
type Loop struct {
	handler Handler

	mu      sync.Mutex
	queue   []Event
	running bool
	stopped bool
	notify  chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// NewLoop creates a loop dispatching to handler.
func NewLoop(handler Handler) *Loop {
	return &Loop{
		handler: handler,
		notify:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Post appends evt to the queue.
func (l *Loop) Post(evt Event) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, evt)
	depth := len(l.queue)
	l.mu.Unlock()

	events.Loop.Post(evt.Kind.String(), depth)
	select {
	case l.notify <- struct{}{}:
	default:
	}
	return nil
}

// PostMessage queues a panel message.
func (l *Loop) PostMessage(msg message.Message) error {
	return l.Post(Event{Kind: KindPanelMessage, Message: msg})
}

// PostHostEvent queues a host event.
func (l *Loop) PostHostEvent(evt host.Event) error {
	return l.Post(Event{Kind: KindHostEvent, HostEvent: evt})
}

// Pending reports how many events are waiting.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Stop ends Run after the event in progress. Queued events are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		dropped := len(l.queue)
		l.queue = nil
		l.mu.Unlock()
		events.Loop.Stop(dropped)
		close(l.stop)
	})
}

// Run handles events until ctx is done or Stop is called. It returns
// ctx.Err() when the context ended it and nil after Stop.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()
	defer l.Stop()

	for {
		evt, ok := l.next()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.stop:
				return nil
			case <-l.notify:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		default:
		}
		l.dispatch(ctx, evt)
	}
}

func (l *Loop) next() (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return Event{}, false
	}
	evt := l.queue[0]
	l.queue[0] = Event{}
	l.queue = l.queue[1:]
	return evt, true
}

func (l *Loop) dispatch(ctx context.Context, evt Event) {
	events.Loop.Handle(evt.Kind.String())
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorDetail("dispatch "+evt.Kind.String(), logging.NewPanicError(r))
		}
	}()
	switch evt.Kind {
	case KindPanelMessage:
		l.handler.HandleMessage(ctx, evt.Message)
	case KindHostEvent:
		if err := l.handler.HandleHostEvent(ctx, evt.HostEvent); err != nil {
			logging.ErrorDetail(fmt.Sprintf("host event %s", evt.HostEvent.Name), err)
		}
	default:
		logging.Warn("dispatch: unknown event kind %s", evt.Kind)
	}
}
