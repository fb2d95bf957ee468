package memdoc

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"

	"github.com/atomicstack/billboard/internal/host"
	"golang.org/x/image/draw"
)

// MaxExportSide bounds each side of an exported image, in pixels.
const MaxExportSide = 8192

type rect struct {
	doc   *Document
	id    string
	name  string
	x, y  float64
	w, h  float64
	fills []host.Fill
}

var _ host.Shape = (*rect)(nil)

func (r *rect) ID() string { return r.id }

func (r *rect) Name() string {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.name
}

func (r *rect) X() float64 {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.x
}

func (r *rect) Y() float64 {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.y
}

func (r *rect) Width() float64 {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.w
}

func (r *rect) Height() float64 {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return r.h
}

func (r *rect) SetX(x float64) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	prev := r.x
	r.x = x
	r.doc.record(fmt.Sprintf("move %s x=%g", r.id, x), func() { r.x = prev })
}

func (r *rect) SetY(y float64) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	prev := r.y
	r.y = y
	r.doc.record(fmt.Sprintf("move %s y=%g", r.id, y), func() { r.y = prev })
}

func (r *rect) Resize(width, height float64) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	pw, ph := r.w, r.h
	r.w, r.h = width, height
	r.doc.record(fmt.Sprintf("resize %s %gx%g", r.id, width, height), func() { r.w, r.h = pw, ph })
}

func (r *rect) Fills() []host.Fill {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	return append([]host.Fill(nil), r.fills...)
}

func (r *rect) SetFills(fills []host.Fill) {
	r.doc.mu.Lock()
	defer r.doc.mu.Unlock()
	prev := r.fills
	r.fills = append([]host.Fill(nil), fills...)
	r.doc.record(fmt.Sprintf("fill %s (%d)", r.id, len(fills)), func() { r.fills = prev })
}

// Export rasterises the shape as PNG. Image fills are scaled to the output
// size; shapes without one are drawn in a colour derived from their id.
func (r *rect) Export(ctx context.Context, opts host.ExportOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t := strings.ToLower(opts.Type); t != "" && t != "png" {
		return nil, fmt.Errorf("export %s: unsupported type %q", r.id, opts.Type)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	r.doc.mu.Lock()
	w, h := r.w, r.h
	var fillID string
	if len(r.fills) > 0 && r.fills[0].FillImage != nil {
		fillID = r.fills[0].FillImage.ID
	}
	var fillData []byte
	if a, ok := r.doc.media[fillID]; ok {
		fillData = a.data
	}
	r.doc.mu.Unlock()

	fw, fh := math.Round(w*scale), math.Round(h*scale)
	if !(fw <= MaxExportSide && fh <= MaxExportSide) {
		return nil, fmt.Errorf("export %s: %gx%g at scale %g: %w", r.id, w, h, scale, ErrExportTooLarge)
	}
	pw := int(math.Max(1, fw))
	ph := int(math.Max(1, fh))
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))

	if fillData != nil {
		src, err := png.Decode(bytes.NewReader(fillData))
		if err != nil {
			return nil, fmt.Errorf("export %s: decode fill: %w", r.id, err)
		}
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	} else {
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: shapeColour(r.id)}, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("export %s: %w", r.id, err)
	}
	return buf.Bytes(), nil
}

func shapeColour(id string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()
	return color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 0xff}
}

func imageConfig(data []byte, mimeType string) (int, int, error) {
	if mimeType != "image/png" {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	return cfg.Width, cfg.Height, nil
}
