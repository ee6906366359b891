package ink

import (
	"fmt"
	"image/color"
	"math"

	"InkLayer/internal/geom"
	"InkLayer/internal/state"
)

// Epsilon floors time deltas (ms) so samples sharing a timestamp do not
// divide by zero.
const Epsilon = 0.1

// calligraphyAngle turns the default diagonal nib offset into a flat,
// horizontal nib when no stylus tilt is reported.
const calligraphyAngle = -math.Pi / 4

// Surface is the live raster preview. Fill receives ops already in
// surface (viewport) coordinates.
type Surface interface {
	Show()
	Hide()
	Clear()
	Fill(ops []Op, c color.Color) error
}

// Engine renders ribbon segments for active strokes.
type Engine struct {
	surface Surface
	tools   *state.ToolState
}

func NewEngine(surface Surface, tools *state.ToolState) *Engine {
	return &Engine{surface: surface, tools: tools}
}

// Surface returns the preview surface the engine draws on.
func (e *Engine) Surface() Surface { return e.surface }

// ContinueStroke feeds one sample into st. Every fourth buffered sample
// emits a segment: its ops are appended to st and drawn on the preview.
// The tool configuration is read at this moment, so a style change shows
// up mid-stroke.
func (e *Engine) ContinueStroke(st *Stroke, s Sample) error {
	st.last = s
	st.samples++
	if !st.window.Push(s) {
		return nil
	}

	tool := e.tools.Snapshot()
	seg := Segment([WindowSize]Sample{st.window.At(0), st.window.At(1), st.window.At(2), st.window.At(3)}, tool, st.started)
	st.ops = append(st.ops, seg...)
	st.window.Collapse()
	st.started = false

	if e.surface == nil {
		return nil
	}
	view := make([]Op, len(seg))
	offset := s.ViewOffset().Mul(-1)
	for i, op := range seg {
		view[i] = op.Translate(offset)
	}
	if err := e.surface.Fill(view, tool.RGBA.NRGBA()); err != nil {
		return fmt.Errorf("preview segment of stroke %s: %w", st.ID, err)
	}
	return nil
}

// Nib returns the half-width offset vector for s: pressure times the tool
// width on both axes, rotated by the sample tilt (or the flat calligraphy
// angle when the device reports none).
func Nib(s Sample, tool state.Tool) geom.Point {
	d := s.Pressure * tool.Width
	angle := 0.0
	switch {
	case s.HasTilt:
		angle = s.Tilt
	case tool.Mode == state.ModeCalligraphy:
		angle = calligraphyAngle
	}
	return geom.Pt(d, d).Rotate(angle)
}

// Segment builds the ribbon outline from p[1] through p[2] to p[3]. p[0]
// only contributes the entry tangent, except for the first segment of a
// stroke, which also gets a wedge-shaped start cap from p[0].
func Segment(p [WindowSize]Sample, tool state.Tool, start bool) []Op {
	var (
		x0, x1, x2, x3 = p[0].Pos(), p[1].Pos(), p[2].Pos(), p[3].Pos()
		n0, n1, n2, n3 = Nib(p[0], tool), Nib(p[1], tool), Nib(p[2], tool), Nib(p[3], tool)
		nMid           = n1.Add(n2).Mul(0.5)
	)

	dtIn := math.Max(p[1].T-p[0].T, Epsilon)
	dtOut := math.Max(p[2].T-p[1].T, Epsilon)
	v := x1.Sub(x0).Mul(1 / dtIn).Mul(0.5 * dtOut)

	ops := make([]Op, 0, 9)
	if start {
		ops = append(ops,
			Move(x0.Sub(n0)),
			Line(x1.Sub(n1)),
			Line(x1.Add(n1)),
			Line(x0.Sub(n0)),
			Line(x1.Sub(n1)),
		)
	} else {
		ops = append(ops, Move(x1.Sub(n1)))
	}

	ops = append(ops,
		Curve(x1.Add(v).Sub(nMid), x2.Sub(n2), x3.Sub(n3)),
		Line(x3.Add(n3)),
		Curve(x2.Add(n2), x1.Add(v).Add(nMid), x1.Add(n1)),
		Line(x1.Sub(n1)),
	)
	return ops
}
