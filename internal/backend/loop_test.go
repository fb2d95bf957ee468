package backend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/message"
	"github.com/atomicstack/billboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	seen    []string
	active  int
	overlap bool
	onMsg   func(message.Message)
	hostErr error
	done    chan struct{}
	want    int
}

func (r *recorder) enter(label string) {
	r.mu.Lock()
	r.active++
	if r.active > 1 {
		r.overlap = true
	}
	r.seen = append(r.seen, label)
	r.mu.Unlock()
}

func (r *recorder) leave() {
	r.mu.Lock()
	r.active--
	n := len(r.seen)
	r.mu.Unlock()
	if n == r.want && r.done != nil {
		close(r.done)
	}
}

func (r *recorder) HandleMessage(ctx context.Context, msg message.Message) {
	r.enter(string(msg.Type()))
	time.Sleep(time.Millisecond)
	if r.onMsg != nil {
		r.onMsg(msg)
	}
	r.leave()
}

func (r *recorder) HandleHostEvent(ctx context.Context, evt host.Event) error {
	r.enter(string(evt.Name))
	r.leave()
	return r.hostErr
}

func (r *recorder) labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func runLoop(t *testing.T, l *Loop) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errc
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler")
	}
}

func TestLoopHandlesEventsInOrderWithoutOverlap(t *testing.T) {
	rec := &recorder{done: make(chan struct{}), want: 4}
	l := NewLoop(rec)
	require.NoError(t, l.PostMessage(message.LoadSelection{}))
	require.NoError(t, l.PostHostEvent(host.Event{Name: host.EventThemeChange, Theme: "dark"}))
	runLoop(t, l)
	require.NoError(t, l.PostMessage(message.AddCapture{}))
	require.NoError(t, l.PostHostEvent(host.Event{Name: host.EventSelectionChange}))

	waitDone(t, rec.done)
	assert.Equal(t, []string{"load-selection", "themechange", "add-capture", "selectionchange"}, rec.labels())
	assert.False(t, rec.overlap)
}

func TestLoopHandlerMayPostFollowUp(t *testing.T) {
	rec := &recorder{done: make(chan struct{}), want: 2}
	l := NewLoop(rec)
	rec.onMsg = func(message.Message) {
		require.NoError(t, l.PostHostEvent(host.Event{Name: host.EventSelectionChange}))
	}
	runLoop(t, l)
	require.NoError(t, l.PostMessage(message.AddCapture{}))
	waitDone(t, rec.done)
	assert.Equal(t, []string{"add-capture", "selectionchange"}, rec.labels())
}

func TestLoopStop(t *testing.T) {
	l := NewLoop(&recorder{})
	_, errc := runLoop(t, l)
	l.Stop()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	assert.ErrorIs(t, l.PostMessage(message.LoadSelection{}), ErrStopped)
	assert.ErrorIs(t, l.Run(context.Background()), ErrAlreadyRunning)
}

func TestLoopContextCancel(t *testing.T) {
	l := NewLoop(&recorder{})
	cancel, errc := runLoop(t, l)
	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopSurvivesPanicsAndHostErrors(t *testing.T) {
	testutil.QuietLog(t)
	rec := &recorder{done: make(chan struct{}), want: 3, hostErr: errors.New("send failed")}
	l := NewLoop(rec)
	rec.onMsg = func(m message.Message) {
		if _, ok := m.(message.Theme); ok {
			panic("boom")
		}
	}
	runLoop(t, l)
	require.NoError(t, l.PostMessage(message.Theme{Content: "dark"}))
	require.NoError(t, l.PostHostEvent(host.Event{Name: host.EventThemeChange}))
	require.NoError(t, l.PostMessage(message.LoadSelection{}))
	waitDone(t, rec.done)
	assert.Equal(t, []string{"theme", "themechange", "load-selection"}, rec.labels())
}

func TestHandlersWithoutTargetsAreNoops(t *testing.T) {
	testutil.QuietLog(t)
	var h Handlers
	h.HandleMessage(context.Background(), nil)
	assert.NoError(t, h.HandleHostEvent(context.Background(), host.Event{Name: host.EventThemeChange}))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "panel-message", KindPanelMessage.String())
	assert.Equal(t, "host-event", KindHostEvent.String())
	assert.Equal(t, "kind(7)", Kind(7).String())
}
