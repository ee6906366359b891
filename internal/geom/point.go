// Package geom holds the small geometry and color helpers used across the
// stroke pipeline.
package geom

import (
	"math"
	"strconv"
)

// Point is a position in CSS pixels.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul scales both components by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Rotate turns p counter-clockwise (in screen space, clockwise) by angle
// radians around the origin.
func (p Point) Rotate(angle float64) Point {
	if angle == 0 {
		return p
	}
	sin, cos := math.Sincos(angle)
	return Point{p.X*cos - p.Y*sin, p.X*sin + p.Y*cos}
}

// Finite reports whether neither component is NaN or infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Round1 rounds v half-up to one decimal place.
func Round1(v float64) float64 {
	return math.Floor(v*10.0+0.5) / 10.0
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// FormatNumber prints v in its shortest form ("35", "35.5").
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
