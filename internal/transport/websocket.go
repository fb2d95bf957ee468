package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	// captures carry raw PNG bytes as a JSON number array, so frames get big
	maxFrameSize = 64 << 20
)

type wsPort struct {
	name    string
	conn    *websocket.Conn
	writeMu sync.Mutex
	inbox   chan message.Message
	closed  chan struct{}
	once    sync.Once
}

func newWSPort(name string, conn *websocket.Conn) *wsPort {
	conn.SetReadLimit(maxFrameSize)
	p := &wsPort{
		name:   name,
		conn:   conn,
		inbox:  make(chan message.Message, inboxDepth),
		closed: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

// Dial connects to a plugin serving the panel endpoint.
func Dial(ctx context.Context, url string) (Port, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	events.Transport.Connect("websocket:dial", url)
	return newWSPort("websocket:dial", conn), nil
}

// Handler upgrades requests to websocket ports and hands each to accept.
// accept runs on the request goroutine for the lifetime of the connection;
// the port is closed when it returns.
func Handler(accept func(Port)) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  32 << 10,
		WriteBufferSize: 32 << 10,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.ErrorDetail("websocket upgrade", err)
			return
		}
		events.Transport.Connect("websocket:accept", r.RemoteAddr)
		p := newWSPort("websocket:accept", conn)
		defer p.Close()
		accept(p)
	})
}

func (p *wsPort) readLoop() {
	defer close(p.inbox)
	for {
		_, frame, err := p.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !p.isClosed() {
				logging.ErrorDetail(p.name+" read", err)
			}
			p.markClosed(err)
			return
		}
		msg := message.DecodeOrInvalid(frame)
		if inv, ok := msg.(message.Invalid); ok {
			events.Transport.Invalid(p.name, inv.Err)
		}
		select {
		case p.inbox <- msg:
		case <-p.closed:
			return
		}
	}
}

func (p *wsPort) Send(msg message.Message) error {
	if p.isClosed() {
		return ErrClosed
	}
	frame, err := message.Encode(msg)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%s send %s: %w", p.name, msg.Type(), err)
	}
	if err := p.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("%s send %s: %w", p.name, msg.Type(), err)
	}
	return nil
}

func (p *wsPort) Messages() <-chan message.Message {
	return p.inbox
}

func (p *wsPort) Close() error {
	var err error
	p.once.Do(func() {
		p.writeMu.Lock()
		_ = p.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		p.writeMu.Unlock()
		close(p.closed)
		err = p.conn.Close()
		events.Transport.Close(p.name, err)
	})
	return err
}

func (p *wsPort) markClosed(cause error) {
	p.once.Do(func() {
		close(p.closed)
		_ = p.conn.Close()
		events.Transport.Close(p.name, cause)
	})
}

func (p *wsPort) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}
