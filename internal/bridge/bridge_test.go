package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/host/memdoc"
	"github.com/atomicstack/billboard/internal/message"
	"github.com/atomicstack/billboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	sent []message.Message
	err  error
}

func (o *outbox) Send(m message.Message) error {
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, m)
	return nil
}

// directPoster handles events immediately, standing in for the loop.
type directPoster struct {
	b    *Bridge
	errs []error
}

func (p *directPoster) PostHostEvent(evt host.Event) error {
	if err := p.b.HandleHostEvent(context.Background(), evt); err != nil {
		p.errs = append(p.errs, err)
	}
	return nil
}

func setup() (*memdoc.Document, *outbox, *directPoster) {
	doc, out, poster, _ := setupWithCancel()
	return doc, out, poster
}

func setupWithCancel() (*memdoc.Document, *outbox, *directPoster, func()) {
	doc := memdoc.New("light")
	out := &outbox{}
	b := New(doc, out)
	poster := &directPoster{b: b}
	unsubscribe := b.Subscribe(poster)
	return doc, out, poster, unsubscribe
}

// queuedPoster holds events until drained, like the loop does while busy.
type queuedPoster struct {
	pending []host.Event
}

func (p *queuedPoster) PostHostEvent(evt host.Event) error {
	p.pending = append(p.pending, evt)
	return nil
}

func TestQueuedSelectionEventsReportSelectionAtHandlingTime(t *testing.T) {
	doc := memdoc.New("light")
	doc.AddRectangle("Frame 1", 0, 0, 10, 10)
	doc.AddRectangle("Frame 2", 0, 0, 10, 10)
	out := &outbox{}
	b := New(doc, out)
	poster := &queuedPoster{}
	defer b.Subscribe(poster)()

	require.NoError(t, doc.SelectByName("Frame 1"))
	require.NoError(t, doc.SelectByName("Frame 2"))
	require.Len(t, poster.pending, 2)
	for _, evt := range poster.pending {
		require.NoError(t, b.HandleHostEvent(context.Background(), evt))
	}

	latest := message.SelectionUpdate{Name: message.Name("Frame 2")}
	assert.Equal(t, []message.Message{latest, latest}, out.sent)
}

func TestUnsubscribeStopsForwarding(t *testing.T) {
	doc, out, _, unsubscribe := setupWithCancel()
	doc.AddRectangle("Frame 1", 0, 0, 10, 10)
	doc.SetTheme("dark")
	require.Len(t, out.sent, 1)

	unsubscribe()
	assert.Equal(t, 0, doc.Subscribers(host.EventThemeChange))
	assert.Equal(t, 0, doc.Subscribers(host.EventSelectionChange))

	doc.SetTheme("light")
	doc.SelectAll()
	assert.Len(t, out.sent, 1)
}

func TestThemeChangeForwardedVerbatim(t *testing.T) {
	doc, out, _ := setup()
	doc.SetTheme("dark")
	doc.SetTheme("high-contrast")
	assert.Equal(t, []message.Message{
		message.Theme{Content: "dark"},
		message.Theme{Content: "high-contrast"},
	}, out.sent)
}

func TestSelectionChangeSingleElement(t *testing.T) {
	doc, out, _ := setup()
	doc.AddRectangle("Frame 1", 0, 0, 10, 10)
	require.NoError(t, doc.SelectByName("Frame 1"))
	require.Len(t, out.sent, 1)
	assert.Equal(t, message.SelectionUpdate{Name: message.Name("Frame 1")}, out.sent[0])
}

func TestSelectionChangeUnnamedElement(t *testing.T) {
	doc, out, _ := setup()
	doc.AddRectangle("", 0, 0, 10, 10)
	doc.SelectAll()
	require.Len(t, out.sent, 1)
	assert.Equal(t, message.SelectionUpdate{Name: message.Name(UnnamedElement)}, out.sent[0])
}

func TestSelectionChangeEmptyAndMultipleHaveNoName(t *testing.T) {
	doc, out, _ := setup()
	doc.AddRectangle("Frame 1", 0, 0, 10, 10)
	doc.AddRectangle("Frame 2", 0, 0, 10, 10)
	doc.SelectAll()
	doc.ClearSelection()
	assert.Equal(t, []message.Message{
		message.SelectionUpdate{},
		message.SelectionUpdate{},
	}, out.sent)
}

func TestSendFailureIsReturned(t *testing.T) {
	doc, out, poster := setup()
	out.err = errors.New("panel gone")
	doc.SetTheme("dark")
	require.Len(t, poster.errs, 1)
	assert.ErrorIs(t, poster.errs[0], out.err)
}

func TestUnknownHostEventIgnored(t *testing.T) {
	_, out, poster := setup()
	testutil.QuietLog(t)
	assert.NoError(t, poster.b.HandleHostEvent(context.Background(), host.Event{Name: "resize"}))
	assert.Empty(t, out.sent)
}
