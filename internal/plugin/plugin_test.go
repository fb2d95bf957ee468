package plugin

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/host/memdoc"
	"github.com/atomicstack/billboard/internal/message"
	"github.com/atomicstack/billboard/internal/router"
	"github.com/atomicstack/billboard/internal/testutil"
	"github.com/atomicstack/billboard/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type session struct {
	doc    *memdoc.Document
	panel  transport.Port
	plugin *Plugin
	done   chan error
}

// start runs a plugin against a fresh document. seed, when set, prepares the
// document before the plugin subscribes to it.
func start(t *testing.T, opts Options, seed func(*memdoc.Document)) *session {
	t.Helper()
	testutil.QuietLog(t)

	doc := memdoc.New("dark")
	if seed != nil {
		seed(doc)
	}
	panel, pluginSide := transport.Pipe()
	p := New(doc, pluginSide, opts)
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{doc: doc, panel: panel, plugin: p, done: make(chan error, 1)}
	go func() { s.done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		panel.Close()
	})
	return s
}

func (s *session) next(t *testing.T) message.Message {
	t.Helper()
	select {
	case msg, ok := <-s.panel.Messages():
		require.True(t, ok, "panel port closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func (s *session) quiet(t *testing.T) {
	t.Helper()
	select {
	case msg := <-s.panel.Messages():
		t.Fatalf("unexpected message %#v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func framePNG(t *testing.T) message.Pixels {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestOpenUsesHostThemeAndDefaults(t *testing.T) {
	doc := memdoc.New("dark")
	a, b := transport.Pipe()
	defer a.Close()
	p := New(doc, b, Options{})
	u, err := p.Open()
	require.NoError(t, err)
	assert.Equal(t, "?theme=dark", u)

	info, ok := doc.Panel()
	require.True(t, ok)
	assert.Equal(t, DefaultTitle, info.Title)
	assert.Equal(t, DefaultPanelSize, info.Size)
}

func TestCaptureFlowsThroughToSelectionUpdate(t *testing.T) {
	s := start(t, Options{}, func(doc *memdoc.Document) {
		doc.SetViewportCenter(host.Point{X: 50, Y: 60})
	})

	require.NoError(t, s.panel.Send(message.AddCapture{ImageData: framePNG(t), Width: 200, Height: 100}))

	assert.Equal(t, message.SelectionUpdate{Name: message.Name("Rectangle")}, s.next(t))
	shapes := s.doc.Shapes()
	require.Len(t, shapes, 1)
	assert.Equal(t, 200.0, shapes[0].Width())
	assert.Equal(t, 50.0, shapes[0].X())
	assert.Equal(t, 0, s.doc.OpenUndoBlocks())
}

func TestHostThemeReachesPanel(t *testing.T) {
	s := start(t, Options{}, nil)
	// the capture's selection update proves the bridge is subscribed
	require.NoError(t, s.panel.Send(message.AddCapture{ImageData: framePNG(t), Width: 10, Height: 10}))
	s.next(t)

	s.doc.SetTheme("light")
	assert.Equal(t, message.Theme{Content: "light"}, s.next(t))
}

func TestLoadSelectionRoundTrip(t *testing.T) {
	s := start(t, Options{Router: router.Options{ExportScale: 2}}, func(doc *memdoc.Document) {
		doc.AddRectangle("Frame 1", 0, 0, 30, 20)
		require.NoError(t, doc.SelectByName("Frame 1"))
	})

	require.NoError(t, s.panel.Send(message.LoadSelection{}))
	loaded, ok := s.next(t).(message.SelectionLoaded)
	require.True(t, ok)
	assert.Equal(t, 30.0, loaded.Width)
	cfg, err := png.DecodeConfig(bytes.NewReader(loaded.ImageData))
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, message.SelectionLoading{IsLoading: false}, s.next(t))
}

func TestLoadSelectionWithNothingSelectedIsSilent(t *testing.T) {
	s := start(t, Options{}, nil)
	require.NoError(t, s.panel.Send(message.LoadSelection{}))
	require.NoError(t, s.panel.Send(message.AddCapture{ImageData: framePNG(t), Width: 10, Height: 10}))
	// messages are handled in order, so nothing may precede the capture's update
	assert.Equal(t, message.SelectionUpdate{Name: message.Name("Rectangle")}, s.next(t))
	s.quiet(t)
}

func TestCaptureAcknowledgedWhenEnabled(t *testing.T) {
	s := start(t, Options{Router: router.Options{AckCaptures: true}}, nil)
	require.NoError(t, s.panel.Send(message.AddCapture{ImageData: framePNG(t), Width: 10, Height: 10}))
	assert.Equal(t, message.CaptureResult{OK: true}, s.next(t))
	assert.Equal(t, message.SelectionUpdate{Name: message.Name("Rectangle")}, s.next(t))
}

func TestRunEndsWhenPanelCloses(t *testing.T) {
	s := start(t, Options{}, nil)
	require.NoError(t, s.panel.Close())
	select {
	case err := <-s.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("plugin did not stop")
	}
}

func TestSessionsOnSharedDocumentReleaseSubscriptions(t *testing.T) {
	testutil.QuietLog(t)
	doc := memdoc.New("light")

	for i := 0; i < 5; i++ {
		panel, pluginSide := transport.Pipe()
		p := New(doc, pluginSide, Options{})
		done := make(chan error, 1)
		go func() { done <- p.Run(context.Background()) }()

		require.Eventually(t, func() bool {
			return doc.Subscribers(host.EventThemeChange) == 1
		}, 2*time.Second, 5*time.Millisecond, "session %d never subscribed", i)
		assert.Equal(t, 1, doc.Subscribers(host.EventSelectionChange))

		require.NoError(t, panel.Close())
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("session %d did not stop", i)
		}
		assert.Equal(t, 0, doc.Subscribers(host.EventThemeChange))
		assert.Equal(t, 0, doc.Subscribers(host.EventSelectionChange))
	}
}

func TestPanelURLEscapesTheme(t *testing.T) {
	assert.Equal(t, "?theme=", PanelURL(""))
	assert.Equal(t, "?theme=a+b", PanelURL("a b"))
}
