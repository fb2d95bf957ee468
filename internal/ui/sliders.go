package ui

import (
	"fmt"
	"math"

	"github.com/atomicstack/billboard/internal/logging/events"
	"github.com/atomicstack/billboard/internal/state"
)

type slider struct {
	name   string
	label  string
	min    float64
	max    float64
	step   float64
	coarse float64
	format string
	get    func(state.RotationValues) float64
	set    func(*state.RotationValues, float64)
}

func (s slider) clamp(v float64) float64 {
	return math.Max(s.min, math.Min(s.max, v))
}

func (s slider) display(v state.RotationValues) string {
	return fmt.Sprintf(s.format, s.get(v))
}

// fraction is the slider position in [0,1] for drawing the track.
func (s slider) fraction(v state.RotationValues) float64 {
	if s.max <= s.min {
		return 0
	}
	return (s.clamp(s.get(v)) - s.min) / (s.max - s.min)
}

func defaultSliders() []slider {
	return []slider{
		{
			name: "x", label: "Rotate X", min: -180, max: 180, step: 1, coarse: 15, format: "%.0f°",
			get: func(v state.RotationValues) float64 { return v.X },
			set: func(v *state.RotationValues, f float64) { v.X = f },
		},
		{
			name: "y", label: "Rotate Y", min: -180, max: 180, step: 1, coarse: 15, format: "%.0f°",
			get: func(v state.RotationValues) float64 { return v.Y },
			set: func(v *state.RotationValues, f float64) { v.Y = f },
		},
		{
			name: "z", label: "Rotate Z", min: -180, max: 180, step: 1, coarse: 15, format: "%.0f°",
			get: func(v state.RotationValues) float64 { return v.Z },
			set: func(v *state.RotationValues, f float64) { v.Z = f },
		},
		{
			name: "zoom", label: "Zoom", min: 0.1, max: 5, step: 0.05, coarse: 0.5, format: "%.2fx",
			get: func(v state.RotationValues) float64 { return v.Zoom },
			set: func(v *state.RotationValues, f float64) { v.Zoom = f },
		},
		{
			name: "fov", label: "FOV", min: 10, max: 120, step: 1, coarse: 10, format: "%.0f°",
			get: func(v state.RotationValues) float64 { return v.FOV },
			set: func(v *state.RotationValues, f float64) { v.FOV = f },
		},
		{
			name: "width", label: "Width", min: 16, max: 2048, step: 8, coarse: 64, format: "%.0fpx",
			get: func(v state.RotationValues) float64 { return v.Width },
			set: func(v *state.RotationValues, f float64) { v.Width = f },
		},
		{
			name: "height", label: "Height", min: 16, max: 2048, step: 8, coarse: 64, format: "%.0fpx",
			get: func(v state.RotationValues) float64 { return v.Height },
			set: func(v *state.RotationValues, f float64) { v.Height = f },
		},
	}
}

func (m *Model) moveFocus(delta int) {
	if len(m.sliders) == 0 {
		return
	}
	m.focus = (m.focus + delta + len(m.sliders)) % len(m.sliders)
}

// adjustFocused nudges the focused slider by steps increments of its fine or
// coarse step and clamps the result to the slider's range.
func (m *Model) adjustFocused(steps float64, coarse bool) {
	if m.focus < 0 || m.focus >= len(m.sliders) {
		return
	}
	s := m.sliders[m.focus]
	step := s.step
	if coarse {
		step = s.coarse
	}
	var next float64
	m.rotation.Update(func(v state.RotationValues) state.RotationValues {
		next = s.clamp(roundTo(s.get(v)+steps*step, s.step))
		s.set(&v, next)
		return v
	})
	events.Panel.Slider(s.name, next)
}

func (m *Model) resetRotation() {
	m.rotation.Set(state.DefaultRotation)
	events.Panel.Slider("reset", 0)
}

// roundTo snaps v to the nearest multiple of step so repeated fractional
// steps do not accumulate float drift.
func roundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
