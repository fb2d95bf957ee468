// Package bridge forwards host theme and selection events to the panel.
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/billboard/internal/backend"
	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
)

// UnnamedElement is reported for a single selected element without a name.
const UnnamedElement = "Unnamed element"

// Outbox delivers messages to the panel.
type Outbox interface {
	Send(message.Message) error
}

// Poster queues host events for the dispatch loop.
type Poster interface {
	PostHostEvent(host.Event) error
}

type Bridge struct {
	host   host.Host
	outbox Outbox
}

func New(h host.Host, outbox Outbox) *Bridge {
	return &Bridge{host: h, outbox: outbox}
}

// Subscribe registers for both host events and returns a func that removes
// both registrations. Events are not handled on the host's callback; they are
// queued on poster so they run in order with panel messages. The selection is
// read when the queued event is handled, so a burst of selection changes may
// all report the latest selection.
func (b *Bridge) Subscribe(poster Poster) (unsubscribe func()) {
	names := []host.EventName{host.EventThemeChange, host.EventSelectionChange}
	cancels := make([]func(), 0, len(names))
	for _, name := range names {
		events.Bridge.Subscribe(string(name))
		cancels = append(cancels, b.host.On(name, func(evt host.Event) {
			err := poster.PostHostEvent(evt)
			if errors.Is(err, backend.ErrStopped) {
				// the panel this subscription served has gone away
				return
			}
			if err != nil {
				logging.ErrorDetail(fmt.Sprintf("queue %s", evt.Name), err)
			}
		}))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// HandleHostEvent translates evt into its panel message and sends it. Send
// failures are returned as-is; nothing is retried or buffered.
func (b *Bridge) HandleHostEvent(ctx context.Context, evt host.Event) error {
	var msg message.Message
	switch evt.Name {
	case host.EventThemeChange:
		msg = message.Theme{Content: evt.Theme}
	case host.EventSelectionChange:
		msg = message.SelectionUpdate{Name: b.selectedName()}
	default:
		logging.Warn("ignoring host event %q", evt.Name)
		return nil
	}
	events.Bridge.Forward(string(evt.Name), string(msg.Type()))
	if err := b.outbox.Send(msg); err != nil {
		return fmt.Errorf("forward %s: %w", evt.Name, err)
	}
	return nil
}

// selectedName is nil unless exactly one element is selected.
func (b *Bridge) selectedName() *string {
	selection := b.host.Selection()
	if len(selection) != 1 || selection[0] == nil {
		return nil
	}
	name := selection[0].Name()
	if name == "" {
		name = UnnamedElement
	}
	return &name
}
