// Package transport carries encoded messages between the panel and the plugin.
// Both ends see a Port; frames that fail to decode are delivered as
// message.Invalid so the receiver decides what to do with them.
package transport

import (
	"errors"
	"sync"

	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
)

// ErrClosed is returned by Send once the port is closed.
var ErrClosed = errors.New("port closed")

// Port is one end of a panel/plugin connection.
type Port interface {
	// Send encodes and delivers msg. It does not queue: if the other side is
	// gone the call fails.
	Send(message.Message) error
	// Messages yields decoded inbound messages and is closed when the
	// connection ends.
	Messages() <-chan message.Message
	Close() error
}

const inboxDepth = 64

// Pipe returns two connected in-process ports. Messages are encoded on Send
// and decoded on the other side so both ends exercise the wire format.
func Pipe() (Port, Port) {
	ab := make(chan []byte, inboxDepth)
	ba := make(chan []byte, inboxDepth)
	shared := &pipeState{done: make(chan struct{})}
	a := newPipeEnd("pipe:a", ab, ba, shared)
	b := newPipeEnd("pipe:b", ba, ab, shared)
	return a, b
}

type pipeState struct {
	once sync.Once
	done chan struct{}
}

func (s *pipeState) close() {
	s.once.Do(func() { close(s.done) })
}

type pipeEnd struct {
	name   string
	out    chan<- []byte
	in     <-chan []byte
	shared *pipeState
	inbox  chan message.Message
}

func newPipeEnd(name string, out chan<- []byte, in <-chan []byte, shared *pipeState) *pipeEnd {
	p := &pipeEnd{
		name:   name,
		out:    out,
		in:     in,
		shared: shared,
		inbox:  make(chan message.Message, inboxDepth),
	}
	go p.read()
	return p
}

func (p *pipeEnd) read() {
	defer close(p.inbox)
	for {
		select {
		case <-p.shared.done:
			return
		case frame := <-p.in:
			msg := message.DecodeOrInvalid(frame)
			if inv, ok := msg.(message.Invalid); ok {
				events.Transport.Invalid(p.name, inv.Err)
			}
			select {
			case p.inbox <- msg:
			case <-p.shared.done:
				return
			}
		}
	}
}

func (p *pipeEnd) Send(msg message.Message) error {
	select {
	case <-p.shared.done:
		return ErrClosed
	default:
	}
	frame, err := message.Encode(msg)
	if err != nil {
		return err
	}
	select {
	case p.out <- frame:
		return nil
	case <-p.shared.done:
		return ErrClosed
	}
}

func (p *pipeEnd) Messages() <-chan message.Message {
	return p.inbox
}

// Close shuts down both ends of the pipe.
func (p *pipeEnd) Close() error {
	p.shared.close()
	events.Transport.Close(p.name, nil)
	return nil
}
