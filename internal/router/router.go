// Package router interprets messages from the panel and turns them into host
// document changes and replies. Every branch logs its failures and returns;
// nothing a single message does can end the panel session.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/atomicstack/billboard/internal/logging"
	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/message"
)

var (
	// ErrUploadFailed means the host accepted the upload but returned no media.
	ErrUploadFailed = errors.New("image upload failed, no image returned")
	// ErrInvalidCapture rejects add-capture requests missing data or size.
	ErrInvalidCapture = errors.New("invalid capture request")
)

const (
	DefaultAssetName   = "billboard-capture"
	DefaultExportScale = 4
	captureMimeType    = "image/png"
)

// Outbox delivers messages to the panel.
type Outbox interface {
	Send(message.Message) error
}

// Options tune the router. Zero values fall back to the defaults.
type Options struct {
	AssetName   string
	ExportScale float64
	// AckCaptures sends a capture-result after every add-capture.
	AckCaptures bool
}

type Router struct {
	host   host.Host
	outbox Outbox
	opts   Options
}

func New(h host.Host, outbox Outbox, opts Options) *Router {
	if opts.AssetName == "" {
		opts.AssetName = DefaultAssetName
	}
	if opts.ExportScale <= 0 {
		opts.ExportScale = DefaultExportScale
	}
	return &Router{host: h, outbox: outbox, opts: opts}
}

// HandleMessage processes one inbound message.
func (r *Router) HandleMessage(ctx context.Context, msg message.Message) {
	if msg == nil {
		logging.Warn("received empty message")
		events.Router.Ignore("<nil>", events.RouterReasonMalformed)
		return
	}
	events.Router.Receive(string(msg.Type()))

	switch m := msg.(type) {
	case message.AddCapture:
		if err := message.Validate(m); err != nil {
			logging.Warn("ignoring add-capture: %v", fmt.Errorf("%w: %v", ErrInvalidCapture, err))
			events.Router.Ignore(string(m.Type()), events.RouterReasonMalformed)
			return
		}
		r.addCapture(ctx, m)
	case message.LoadSelection:
		r.loadSelection(ctx)
	case message.Invalid:
		logging.Warn("received message with unknown type or missing data: %v", m.Err)
		events.Router.Ignore(string(m.Tag), events.RouterReasonUnknown)
	case message.Theme, message.SelectionUpdate, message.SelectionLoaded,
		message.SelectionLoading, message.CaptureResult:
		logging.Warn("received %s, which only flows to the panel", m.Type())
		events.Router.Ignore(string(m.Type()), events.RouterReasonOutbound)
	default:
		logging.Warn("received message with unknown type %q", msg.Type())
		events.Router.Ignore(string(msg.Type()), events.RouterReasonUnknown)
	}
}

// addCapture places the frame as an image-filled rectangle at the viewport
// center. The undo block is always finished, whatever happens in between.
func (r *Router) addCapture(ctx context.Context, m message.AddCapture) {
	block := r.host.BeginUndoBlock()
	events.Capture.Begin(string(block), m.Width, m.Height, len(m.ImageData))

	var err error
	defer func() {
		if ferr := r.host.FinishUndoBlock(block); ferr != nil {
			logging.ErrorDetail("finish undo block", ferr)
		}
		events.Capture.Finish(string(block), err)
		if r.opts.AckCaptures {
			result := message.CaptureResult{OK: err == nil}
			if err != nil {
				result.Error = err.Error()
			}
			r.send(result)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			err = logging.NewPanicError(rec)
			events.Router.Recovered(rec)
			logging.ErrorDetail("adding capture to document", err)
		}
	}()

	err = r.placeCapture(ctx, m)
	if err != nil {
		logging.ErrorDetail("adding capture to document", err)
	}
}

func (r *Router) placeCapture(ctx context.Context, m message.AddCapture) error {
	media, err := r.host.UploadMedia(ctx, r.opts.AssetName, m.ImageData, captureMimeType)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}
	if media == nil {
		return ErrUploadFailed
	}
	events.Capture.Uploaded(media.ID)

	rect, err := r.host.CreateRectangle()
	if err != nil {
		return fmt.Errorf("create rectangle: %w", err)
	}
	center := r.host.ViewportCenter()
	rect.SetX(center.X)
	rect.SetY(center.Y)
	rect.Resize(m.Width, m.Height)
	rect.SetFills([]host.Fill{{FillOpacity: 1, FillImage: media}})
	r.host.SetSelection([]host.Shape{rect})
	events.Capture.Placed(rect.ID(), center.X, center.Y, m.Width, m.Height)
	return nil
}

// loadSelection exports the first selected element. Only index 0 of the
// selection is considered. An empty selection sends nothing at all.
func (r *Router) loadSelection(ctx context.Context) {
	selection := r.host.Selection()
	if len(selection) == 0 || selection[0] == nil {
		logging.Warn("no element selected")
		events.Selection.Empty()
		return
	}
	shape := selection[0]
	events.Selection.Export(shape.ID(), shape.Name(), r.opts.ExportScale)

	defer r.send(message.SelectionLoading{IsLoading: false})

	data, err := shape.Export(ctx, host.ExportOptions{Type: "png", Scale: r.opts.ExportScale})
	if err != nil {
		events.Selection.Failed(shape.ID(), err)
		logging.ErrorDetail("loading selection", err)
		return
	}
	events.Selection.Loaded(shape.ID(), len(data))
	r.send(message.SelectionLoaded{
		ImageData: data,
		Width:     shape.Width(),
		Height:    shape.Height(),
	})
}

func (r *Router) send(msg message.Message) {
	events.Router.Send(string(msg.Type()))
	if err := r.outbox.Send(msg); err != nil {
		logging.ErrorDetail(fmt.Sprintf("sending %s", msg.Type()), err)
	}
}
