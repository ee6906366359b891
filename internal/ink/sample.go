// Package ink turns a stream of pointer samples into tapered ribbon
// outlines, drawing a live preview while it records the outline as
// drawing operations in page coordinates.
package ink

import "InkLayer/internal/geom"

// Pressure bounds applied to every sample. Devices that report no pressure
// (mice) get defaultPressure plus the bias, so strokes stay visible.
const (
	MinPressure     = 0.1
	MaxPressure     = 2.0
	defaultPressure = 0.6
	pressureBias    = 0.1
)

// Sample is one normalised input event.
type Sample struct {
	// X and Y are page coordinates.
	X, Y float64
	// PageOffsetX/Y is the page position of the viewport origin, so the
	// viewport coordinate is X-PageOffsetX.
	PageOffsetX, PageOffsetY float64
	// T is the capture time in milliseconds.
	T        float64
	Pressure float64
	// Tilt is the nib angle in radians, meaningful when HasTilt is set.
	Tilt    float64
	HasTilt bool
}

// ClampPressure biases raw pressure and limits it to [MinPressure,
// MaxPressure]. A raw value of zero means "not reported".
func ClampPressure(raw float64) float64 {
	if raw == 0 || raw != raw {
		raw = defaultPressure
	}
	return geom.Clamp(raw+pressureBias, MinPressure, MaxPressure)
}

// Pos returns the page position.
func (s Sample) Pos() geom.Point { return geom.Pt(s.X, s.Y) }

// ViewOffset returns the page position of the viewport origin.
func (s Sample) ViewOffset() geom.Point { return geom.Pt(s.PageOffsetX, s.PageOffsetY) }
