package transport

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/billboard/internal/message"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, p Port) message.Message {
	t.Helper()
	select {
	case msg, ok := <-p.Messages():
		require.True(t, ok, "port closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPipeDeliversBothWays(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	require.NoError(t, a.Send(message.LoadSelection{}))
	assert.Equal(t, message.LoadSelection{}, receive(t, b))

	require.NoError(t, b.Send(message.SelectionUpdate{Name: message.Name("Frame 1")}))
	assert.Equal(t, message.SelectionUpdate{Name: message.Name("Frame 1")}, receive(t, a))
}

func TestPipeSendAfterCloseFails(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, b.Close())
	assert.ErrorIs(t, a.Send(message.LoadSelection{}), ErrClosed)

	select {
	case _, ok := <-a.Messages():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("inbox not closed")
	}
}

func TestPipeRejectsUnencodable(t *testing.T) {
	a, _ := Pipe()
	defer a.Close()
	assert.ErrorIs(t, a.Send(message.Invalid{Tag: "x"}), message.ErrMalformed)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketRoundTrip(t *testing.T) {
	accepted := make(chan Port, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(Handler(func(p Port) {
		accepted <- p
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	capture := message.AddCapture{ImageData: message.Pixels{1, 2, 3}, Width: 10, Height: 20}
	require.NoError(t, client.Send(capture))
	assert.Equal(t, capture, receive(t, server))

	require.NoError(t, server.Send(message.SelectionLoading{IsLoading: false}))
	assert.Equal(t, message.SelectionLoading{}, receive(t, client))
}

func TestWebSocketUndecodableFrameArrivesInvalid(t *testing.T) {
	accepted := make(chan Port, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(Handler(func(p Port) {
		accepted <- p
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := Dial(ctx, wsURL(srv))
	require.NoError(t, err)
	defer client.Close()
	server := <-accepted

	ws := client.(*wsPort)
	require.NoError(t, ws.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`)))

	got := receive(t, server)
	inv, ok := got.(message.Invalid)
	require.True(t, ok, "expected Invalid, got %T", got)
	assert.ErrorIs(t, inv.Err, message.ErrUnknownType)
	assert.Equal(t, message.Type("teleport"), inv.Tag)
}

func TestWebSocketSendAfterClose(t *testing.T) {
	srv := httptest.NewServer(Handler(func(p Port) {
		for range p.Messages() {
		}
	}))
	defer srv.Close()

	client, err := Dial(context.Background(), wsURL(srv))
	require.NoError(t, err)
	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Send(message.LoadSelection{}), ErrClosed)
}
