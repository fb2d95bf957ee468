// Package message defines the tagged union exchanged between the panel and the
// plugin side. Each message travels as a JSON object whose "type" field selects
// the variant; a variant never carries fields that belong to another tag.
package message

import (
	"encoding/json"
	"fmt"
	"math"
)

// Type identifies the kind of message being sent.
type Type string

const (
	// TypeTheme tells the panel the host theme changed.
	// Payload: Theme
	TypeTheme Type = "theme"

	// TypeAddCapture carries a rendered preview frame to be placed in the document.
	// Payload: AddCapture
	TypeAddCapture Type = "add-capture"

	// TypeSelectionUpdate reports the name of the single selected element.
	// Payload: SelectionUpdate
	TypeSelectionUpdate Type = "selection-update"

	// TypeLoadSelection asks the plugin to export the current selection.
	// Payload: none
	TypeLoadSelection Type = "load-selection"

	// TypeSelectionLoaded returns the exported selection raster.
	// Payload: SelectionLoaded
	TypeSelectionLoaded Type = "selection-loaded"

	// TypeSelectionLoading toggles the panel's loading indicator.
	// Payload: SelectionLoading
	TypeSelectionLoading Type = "selection-loading"

	// TypeCaptureResult acknowledges an add-capture request.
	// Payload: CaptureResult
	TypeCaptureResult Type = "capture-result"
)

// Message is implemented by every variant of the union.
type Message interface {
	Type() Type
}

// Pixels is raw image data. It is written as a JSON array of numbers rather
// than base64 so the panel can hand it straight to typed-array constructors.
type Pixels []byte

func (p Pixels) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	ints := make([]int, len(p))
	for i, b := range p {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

func (p *Pixels) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	if len(ints) == 0 {
		// nil and empty both encode as []
		*p = nil
		return nil
	}
	out := make(Pixels, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("pixel %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*p = out
	return nil
}

type Theme struct {
	Content string `json:"content"`
}

type AddCapture struct {
	ImageData Pixels  `json:"imageData"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// SelectionUpdate names the selected element. Name is nil when nothing or more
// than one element is selected.
type SelectionUpdate struct {
	Name *string `json:"name"`
}

type LoadSelection struct{}

type SelectionLoaded struct {
	ImageData Pixels  `json:"imageData"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

type SelectionLoading struct {
	IsLoading bool `json:"isLoading"`
}

type CaptureResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Invalid stands in for a frame that could not be decoded. Transports deliver
// it so the receiving side can log and ignore the frame in one place.
type Invalid struct {
	Tag Type
	Err error
}

func (Theme) Type() Type            { return TypeTheme }
func (AddCapture) Type() Type       { return TypeAddCapture }
func (SelectionUpdate) Type() Type  { return TypeSelectionUpdate }
func (LoadSelection) Type() Type    { return TypeLoadSelection }
func (SelectionLoaded) Type() Type  { return TypeSelectionLoaded }
func (SelectionLoading) Type() Type { return TypeSelectionLoading }
func (CaptureResult) Type() Type    { return TypeCaptureResult }
func (i Invalid) Type() Type        { return i.Tag }

// Name returns a pointer to name, for building SelectionUpdate values.
func Name(name string) *string {
	return &name
}

// Validate checks the payload requirements a handler relies on.
func Validate(m Message) error {
	switch v := m.(type) {
	case AddCapture:
		if len(v.ImageData) == 0 {
			return fmt.Errorf("%w: %s without image data", ErrMalformed, v.Type())
		}
		if !positive(v.Width) || !positive(v.Height) {
			return fmt.Errorf("%w: %s size %vx%v", ErrMalformed, v.Type(), v.Width, v.Height)
		}
	case SelectionLoaded:
		if !finite(v.Width) || !finite(v.Height) {
			return fmt.Errorf("%w: %s size %vx%v", ErrMalformed, v.Type(), v.Width, v.Height)
		}
	case Invalid:
		return v.Err
	case nil:
		return fmt.Errorf("%w: nil message", ErrMalformed)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
