// Package finalize turns a finished stroke into a self-contained SVG
// fragment in its own local coordinate space.
package finalize

import (
	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/state"
)

// DefaultPadding keeps caps and antialiasing inside the SVG viewport.
const DefaultPadding = 35.0

type Options struct {
	Padding float64
	// TapFallback replaces a stroke without any ribbon segment by a small
	// teardrop at the last sample, so taps leave a mark.
	TapFallback bool
}

func DefaultOptions() Options {
	return Options{Padding: DefaultPadding, TapFallback: true}
}

// Fragment is a finalized stroke ready to be anchored in a document.
type Fragment struct {
	ID    string
	Color string
	RGBA  geom.Quadruple
	// Width and Height are the pixel size of the SVG container.
	Width, Height int
	// Origin is the intended page position of the container's top-left.
	Origin geom.Point
	// Paths hold one op list per ribbon segment, in local coordinates
	// rounded to one decimal.
	Paths  [][]ink.Op
	Markup string
}

// Finalize normalises st into a Fragment. ok is false for degenerate
// geometry (nothing to draw, non-finite coordinates, an empty padded
// container); that is an expected outcome, not an error.
func Finalize(st *ink.Stroke, tool state.Tool, opts Options) (frag *Fragment, ok bool) {
	ops := st.Ops()
	if len(ops) == 0 {
		last, has := st.Last()
		if !opts.TapFallback || !has {
			return nil, false
		}
		ops = TapShape(last, tool.Width)
	}

	var box geom.Box
	for _, op := range ops {
		for _, p := range op.Points {
			if !p.Finite() {
				return nil, false
			}
			box.Add(p)
		}
	}

	pad := opts.Padding
	// A flat outline on one axis still gets a padded container; only an
	// empty container is degenerate.
	w, h := box.Width()+2*pad, box.Height()+2*pad
	if box.Empty() || w <= 0 || h <= 0 {
		return nil, false
	}

	shift := geom.Pt(pad-box.MinX, pad-box.MinY)
	local := make([]ink.Op, len(ops))
	for i, op := range ops {
		moved := op.Translate(shift)
		for j, p := range moved.Points {
			moved.Points[j] = geom.Pt(geom.Round1(p.X), geom.Round1(p.Y))
		}
		local[i] = moved
	}

	frag = &Fragment{
		ID:     st.ID,
		Color:  tool.Color,
		RGBA:   tool.RGBA,
		Width:  int(w),
		Height: int(h),
		Origin: geom.Pt(box.MinX-pad, box.MinY-pad),
		Paths:  ink.Subpaths(local),
	}
	frag.Markup = Markup(frag)
	return frag, true
}

// TapShape is the teardrop drawn for a tap without movement, sized by the
// sample pressure times the tool width.
func TapShape(s ink.Sample, width float64) []ink.Op {
	w := s.Pressure * width
	x, y := s.X, s.Y
	return []ink.Op{
		ink.Move(geom.Pt(x-w, y-w)),
		ink.Curve(geom.Pt(x+w, y+w), geom.Pt(x, y+w), geom.Pt(x-w, y-w)),
		ink.Line(geom.Pt(x, y)),
	}
}
