package router

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
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
	o.sent = append(o.sent, m)
	return o.err
}

// faultyHost wraps a document and lets tests break individual host calls.
type faultyHost struct {
	*memdoc.Document
	absentUpload bool
	uploadErr    error
	createErr    error
	panicCreate  bool
	begun        int
	finished     int
}

func (f *faultyHost) BeginUndoBlock() host.UndoBlockID {
	f.begun++
	return f.Document.BeginUndoBlock()
}

func (f *faultyHost) FinishUndoBlock(id host.UndoBlockID) error {
	f.finished++
	return f.Document.FinishUndoBlock(id)
}

func (f *faultyHost) UploadMedia(ctx context.Context, name string, data []byte, mime string) (*host.Media, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.absentUpload {
		return nil, nil
	}
	return f.Document.UploadMedia(ctx, name, data, mime)
}

func (f *faultyHost) CreateRectangle() (host.Shape, error) {
	if f.panicCreate {
		panic("renderer exploded")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Document.CreateRectangle()
}

type failingShape struct {
	host.Shape
}

func (failingShape) Export(context.Context, host.ExportOptions) ([]byte, error) {
	return nil, errors.New("export timed out")
}

type fixedSelectionHost struct {
	*memdoc.Document
	selection []host.Shape
}

func (f *fixedSelectionHost) Selection() []host.Shape { return f.selection }

func capturePNG(t *testing.T) message.Pixels {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func newFixture(t *testing.T) (*faultyHost, *outbox, *Router) {
	t.Helper()
	testutil.QuietLog(t)
	h := &faultyHost{Document: memdoc.New("light")}
	out := &outbox{}
	return h, out, New(h, out, Options{})
}

func TestAddCapturePlacesSelectedRectangle(t *testing.T) {
	h, out, r := newFixture(t)
	h.SetViewportCenter(host.Point{X: 320, Y: 180})

	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 400, Height: 300})

	shapes := h.Shapes()
	require.Len(t, shapes, 1)
	rect := shapes[0]
	assert.Equal(t, 320.0, rect.X())
	assert.Equal(t, 180.0, rect.Y())
	assert.Equal(t, 400.0, rect.Width())
	assert.Equal(t, 300.0, rect.Height())

	fills := rect.Fills()
	require.Len(t, fills, 1)
	assert.Equal(t, 1.0, fills[0].FillOpacity)
	require.NotNil(t, fills[0].FillImage)
	assert.Equal(t, DefaultAssetName, fills[0].FillImage.Name)

	sel := h.Selection()
	require.Len(t, sel, 1)
	assert.Equal(t, rect.ID(), sel[0].ID())

	assert.Equal(t, 1, h.begun)
	assert.Equal(t, 1, h.finished)
	assert.Equal(t, 0, h.OpenUndoBlocks())
	require.Len(t, h.History(), 1, "capture is a single undo step")
	assert.Empty(t, out.sent)
}

func TestAddCaptureAbsentUploadCreatesNothing(t *testing.T) {
	h, out, r := newFixture(t)
	h.absentUpload = true

	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 10, Height: 10})

	assert.Empty(t, h.Shapes())
	assert.Equal(t, 1, h.finished)
	assert.Equal(t, 0, h.OpenUndoBlocks())
	assert.Empty(t, out.sent)
}

func TestAddCaptureClosesUndoBlockOnErrors(t *testing.T) {
	cases := map[string]func(*faultyHost){
		"upload error": func(h *faultyHost) { h.uploadErr = errors.New("quota exceeded") },
		"create error": func(h *faultyHost) { h.createErr = errors.New("read-only file") },
		"create panic": func(h *faultyHost) { h.panicCreate = true },
	}
	for name, breakHost := range cases {
		t.Run(name, func(t *testing.T) {
			h, out, r := newFixture(t)
			breakHost(h)
			require.NotPanics(t, func() {
				r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 10, Height: 10})
			})
			assert.Empty(t, h.Shapes())
			assert.Equal(t, 1, h.begun)
			assert.Equal(t, 1, h.finished)
			assert.Equal(t, 0, h.OpenUndoBlocks())
			assert.Empty(t, out.sent)
		})
	}
}

func TestAddCaptureAcknowledgesWhenEnabled(t *testing.T) {
	testutil.QuietLog(t)
	h := &faultyHost{Document: memdoc.New(""), absentUpload: true}
	out := &outbox{}
	r := New(h, out, Options{AckCaptures: true})

	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 10, Height: 10})
	require.Len(t, out.sent, 1)
	assert.Equal(t, message.CaptureResult{OK: false, Error: ErrUploadFailed.Error()}, out.sent[0])

	h.absentUpload = false
	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 10, Height: 10})
	require.Len(t, out.sent, 2)
	assert.Equal(t, message.CaptureResult{OK: true}, out.sent[1])
}

func TestAddCaptureInvalidRequestTouchesNothing(t *testing.T) {
	h, out, r := newFixture(t)
	r.HandleMessage(context.Background(), message.AddCapture{Width: 10, Height: 10})
	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 0, Height: 10})
	assert.Equal(t, 0, h.begun)
	assert.Empty(t, h.Shapes())
	assert.Empty(t, out.sent)
}

func TestUnrecognisedMessagesAreIgnored(t *testing.T) {
	h, out, r := newFixture(t)
	h.AddRectangle("Frame 1", 0, 0, 10, 10)
	historyBefore := len(h.History())

	for _, m := range []message.Message{
		message.Invalid{Tag: "teleport", Err: message.ErrUnknownType},
		message.Theme{Content: "dark"},
		message.SelectionLoading{IsLoading: true},
		message.SelectionUpdate{},
		message.SelectionLoaded{},
		message.CaptureResult{OK: true},
		nil,
	} {
		r.HandleMessage(context.Background(), m)
	}

	assert.Empty(t, out.sent)
	assert.Equal(t, 0, h.begun)
	assert.Len(t, h.History(), historyBefore)
	assert.Len(t, h.Shapes(), 1)
}

func TestLoadSelectionEmptySendsNothing(t *testing.T) {
	h, out, r := newFixture(t)
	h.AddRectangle("Frame 1", 0, 0, 10, 10)
	r.HandleMessage(context.Background(), message.LoadSelection{})
	assert.Empty(t, out.sent)
}

func TestLoadSelectionExportsFirstElement(t *testing.T) {
	h, out, r := newFixture(t)
	h.AddRectangle("Frame 1", 0, 0, 20, 10)
	h.AddRectangle("Frame 2", 0, 0, 5, 5)
	h.SelectAll()

	r.HandleMessage(context.Background(), message.LoadSelection{})

	require.Len(t, out.sent, 2)
	loaded, ok := out.sent[0].(message.SelectionLoaded)
	require.True(t, ok, "expected selection-loaded first, got %T", out.sent[0])
	assert.Equal(t, 20.0, loaded.Width)
	assert.Equal(t, 10.0, loaded.Height)
	cfg, err := png.DecodeConfig(bytes.NewReader(loaded.ImageData))
	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Width, "exported at 4x")
	assert.Equal(t, message.SelectionLoading{IsLoading: false}, out.sent[1])
}

func TestLoadSelectionExportFailureStillClearsLoading(t *testing.T) {
	testutil.QuietLog(t)
	doc := memdoc.New("")
	shape := doc.AddRectangle("Frame 1", 0, 0, 20, 10)
	h := &fixedSelectionHost{Document: doc, selection: []host.Shape{failingShape{Shape: shape}}}
	out := &outbox{}
	r := New(h, out, Options{})

	r.HandleMessage(context.Background(), message.LoadSelection{})
	assert.Equal(t, []message.Message{message.SelectionLoading{IsLoading: false}}, out.sent)
}

func TestLoadSelectionOversizedShapeOnlyClearsLoading(t *testing.T) {
	h, out, r := newFixture(t)
	r.HandleMessage(context.Background(), message.AddCapture{ImageData: capturePNG(t), Width: 100000, Height: 100000})
	require.Len(t, h.Selection(), 1)

	r.HandleMessage(context.Background(), message.LoadSelection{})
	assert.Equal(t, []message.Message{message.SelectionLoading{IsLoading: false}}, out.sent)
}

func TestLoadSelectionSendFailureStillClearsLoading(t *testing.T) {
	h, out, r := newFixture(t)
	out.err = errors.New("panel closed")
	h.AddRectangle("Frame 1", 0, 0, 20, 10)
	h.SelectAll()

	r.HandleMessage(context.Background(), message.LoadSelection{})
	require.Len(t, out.sent, 2)
	assert.Equal(t, message.SelectionLoading{IsLoading: false}, out.sent[1])
}

func TestOptionsDefaults(t *testing.T) {
	r := New(nil, nil, Options{ExportScale: -1})
	assert.Equal(t, DefaultAssetName, r.opts.AssetName)
	assert.Equal(t, float64(DefaultExportScale), r.opts.ExportScale)
}
