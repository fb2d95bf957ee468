// Package preview rasterises the flat-shaded cube shown in the panel and
// captured into the document.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"

	"github.com/atomicstack/billboard/internal/state"
	"golang.org/x/image/vector"
)

const (
	minSide = 1
	maxSide = 4096
	// camera distance from the cube centre, in cube half-widths
	cameraDistance = 4.0
)

var (
	Background = color.RGBA{R: 0x1e, G: 0x1e, B: 0x24, A: 0xff}

	faceColours = [6]color.RGBA{
		{R: 0xe0, G: 0x6c, B: 0x75, A: 0xff},
		{R: 0x98, G: 0xc3, B: 0x79, A: 0xff},
		{R: 0x61, G: 0xaf, B: 0xef, A: 0xff},
		{R: 0xe5, G: 0xc0, B: 0x7b, A: 0xff},
		{R: 0xc6, G: 0x78, B: 0xdd, A: 0xff},
		{R: 0x56, G: 0xb6, B: 0xc2, A: 0xff},
	}

	// direction towards the light: upper left, in front of the cube
	light = normalize(vec3{-0.4, -0.6, -1})
)

type vec3 struct{ x, y, z float64 }

func (a vec3) sub(b vec3) vec3    { return vec3{a.x - b.x, a.y - b.y, a.z - b.z} }
func (a vec3) dot(b vec3) float64 { return a.x*b.x + a.y*b.y + a.z*b.z }
func (a vec3) cross(b vec3) vec3 {
	return vec3{a.y*b.z - a.z*b.y, a.z*b.x - a.x*b.z, a.x*b.y - a.y*b.x}
}

func normalize(v vec3) vec3 {
	l := math.Sqrt(v.dot(v))
	if l == 0 {
		return v
	}
	return vec3{v.x / l, v.y / l, v.z / l}
}

var corners = [8]vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// faces list corner indices counter-clockwise when seen from outside.
var faces = [6][4]int{
	{0, 3, 2, 1}, // front (z-)
	{4, 5, 6, 7}, // back (z+)
	{0, 4, 7, 3}, // left
	{1, 2, 6, 5}, // right
	{0, 1, 5, 4}, // top
	{3, 7, 6, 2}, // bottom
}

// Size returns the clamped pixel dimensions Render produces for v.
func Size(v state.RotationValues) (int, int) {
	return clampSide(v.Width), clampSide(v.Height)
}

func clampSide(f float64) int {
	if math.IsNaN(f) {
		return minSide
	}
	n := int(math.Round(f))
	if n < minSide {
		return minSide
	}
	if n > maxSide {
		return maxSide
	}
	return n
}

func rotate(p vec3, v state.RotationValues) vec3 {
	rx, ry, rz := v.X*math.Pi/180, v.Y*math.Pi/180, v.Z*math.Pi/180
	sx, cx := math.Sincos(rx)
	sy, cy := math.Sincos(ry)
	sz, cz := math.Sincos(rz)

	p = vec3{p.x, p.y*cx - p.z*sx, p.y*sx + p.z*cx}
	p = vec3{p.x*cy + p.z*sy, p.y, -p.x*sy + p.z*cy}
	return vec3{p.x*cz - p.y*sz, p.x*sz + p.y*cz, p.z}
}

type projected struct {
	pts    [4][2]float32
	depth  float64
	colour color.RGBA
}

// Render draws the cube for the given rotation values. Out-of-range
// dimensions are clamped; a non-positive zoom or fov yields only the
// background.
func Render(v state.RotationValues) *image.RGBA {
	w, h := Size(v)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if !(v.Zoom > 0) || !(v.FOV > 0) || v.FOV >= 180 {
		return img
	}
	focal := float64(min(w, h)) / 2 / math.Tan(v.FOV*math.Pi/360) * v.Zoom
	cxp, cyp := float64(w)/2, float64(h)/2

	var world [8]vec3
	for i, c := range corners {
		p := rotate(c, v)
		p.z += cameraDistance
		world[i] = p
	}

	var visible []projected
	for fi, f := range faces {
		a, b, c := world[f[0]], world[f[1]], world[f[2]]
		normal := normalize(b.sub(a).cross(c.sub(a)))
		// camera sits at the origin looking down +z
		if normal.dot(a) >= 0 {
			continue
		}
		var pf projected
		for i, idx := range f {
			p := world[idx]
			pf.pts[i] = [2]float32{
				float32(cxp + focal*p.x/p.z),
				float32(cyp + focal*p.y/p.z),
			}
			pf.depth += p.z
		}
		pf.colour = shade(faceColours[fi], math.Max(0, normal.dot(light)))
		visible = append(visible, pf)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].depth > visible[j].depth })

	for _, pf := range visible {
		z := vector.NewRasterizer(w, h)
		z.MoveTo(pf.pts[0][0], pf.pts[0][1])
		for _, pt := range pf.pts[1:] {
			z.LineTo(pt[0], pt[1])
		}
		z.ClosePath()
		z.Draw(img, img.Bounds(), image.NewUniform(pf.colour), image.Point{})
	}
	return img
}

func shade(c color.RGBA, intensity float64) color.RGBA {
	k := 0.35 + 0.65*intensity
	return color.RGBA{
		R: uint8(math.Min(255, float64(c.R)*k)),
		G: uint8(math.Min(255, float64(c.G)*k)),
		B: uint8(math.Min(255, float64(c.B)*k)),
		A: c.A,
	}
}

// EncodePNG renders v and returns the PNG bytes sent with add-capture.
func EncodePNG(v state.RotationValues) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(v)); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

const ramp = " .:-=+*#%@"

// Sketch reduces img to rows of luminance characters for terminal display.
func Sketch(img image.Image, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	b := img.Bounds()
	bg := luminance(Background)
	out := make([]string, rows)
	line := make([]byte, cols)
	for r := 0; r < rows; r++ {
		y := b.Min.Y + (2*r+1)*b.Dy()/(2*rows)
		for c := 0; c < cols; c++ {
			x := b.Min.X + (2*c+1)*b.Dx()/(2*cols)
			l := luminance(img.At(x, y))
			if l == bg {
				line[c] = ' '
				continue
			}
			i := 1 + int(l*float64(len(ramp)-2))
			line[c] = ramp[min(i, len(ramp)-1)]
		}
		out[r] = string(line)
	}
	return out
}

func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
}
