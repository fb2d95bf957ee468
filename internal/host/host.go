// Package host describes the design-tool surface the plugin drives: the
// document's shapes, selection, media library and undo history, plus the
// events the tool emits when its theme or selection changes.
package host

import "context"

// EventName identifies a host-emitted event.
type EventName string

const (
	EventThemeChange     EventName = "themechange"
	EventSelectionChange EventName = "selectionchange"
)

// Event is the payload handed to On handlers. Theme is only set for
// EventThemeChange.
type Event struct {
	Name  EventName
	Theme string
}

type Point struct {
	X float64
	Y float64
}

type Size struct {
	Width  int
	Height int
}

// UndoBlockID identifies an open undo block.
type UndoBlockID string

// Media is the handle returned after uploading binary media. It can be used as
// an image fill.
type Media struct {
	ID       string
	Name     string
	MimeType string
	Width    int
	Height   int
}

type Fill struct {
	FillOpacity float64
	FillImage   *Media
}

// ExportOptions control Shape.Export.
type ExportOptions struct {
	Type  string
	Scale float64
}

// Shape is a document element.
type Shape interface {
	ID() string
	Name() string
	X() float64
	Y() float64
	Width() float64
	Height() float64
	SetX(float64)
	SetY(float64)
	Resize(width, height float64)
	Fills() []Fill
	SetFills([]Fill)
	Export(ctx context.Context, opts ExportOptions) ([]byte, error)
}

// Host is the document API available to the plugin.
type Host interface {
	OpenPanel(title, url string, size Size) error
	Theme() string

	BeginUndoBlock() UndoBlockID
	FinishUndoBlock(UndoBlockID) error

	// UploadMedia returns a nil Media when the host accepted the call but
	// produced no handle.
	UploadMedia(ctx context.Context, name string, data []byte, mimeType string) (*Media, error)
	CreateRectangle() (Shape, error)

	Selection() []Shape
	SetSelection([]Shape)
	ViewportCenter() Point

	// On registers handler for name. The returned func removes it again and
	// may be called more than once.
	On(name EventName, handler func(Event)) (cancel func())
}
