// Package export writes committed strokes to vector formats.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"InkLayer/internal/board"
	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
)

// ErrNothingToExport is returned for an empty stroke list.
var ErrNothingToExport = errors.New("no strokes to export")

// pxToPt converts CSS pixels to PDF points.
const pxToPt = 0.75

// Margin around the strokes, in points.
const Margin = 18.0

// Bounds returns the page area covered by entries.
func Bounds(entries []*board.Entry) geom.Box {
	var box geom.Box
	for _, e := range entries {
		b := e.Bounds()
		if b.Empty() {
			continue
		}
		box.Add(b.Min())
		box.Add(geom.Pt(b.MaxX, b.MaxY))
	}
	return box
}

// WritePDF draws entries as filled vector paths on one page sized to fit
// them.
func WritePDF(w io.Writer, entries []*board.Entry) error {
	box := Bounds(entries)
	if box.Empty() {
		return ErrNothingToExport
	}

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size: gofpdf.SizeType{
			Wd: box.Width()*pxToPt + 2*Margin,
			Ht: box.Height()*pxToPt + 2*Margin,
		},
	})
	p.SetCreator("InkLayer", true)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetLineWidth(pxToPt)

	for _, e := range entries {
		f := e.Fragment
		r, g, b := int(f.RGBA[0]), int(f.RGBA[1]), int(f.RGBA[2])
		p.SetDrawColor(r, g, b)
		p.SetFillColor(r, g, b)
		p.SetAlpha(float64(f.RGBA[3])/255, "Normal")

		shift := f.Origin.Sub(box.Min())
		for _, path := range f.Paths {
			drawPath(p, path, func(q geom.Point) (float64, float64) {
				q = q.Add(shift).Mul(pxToPt)
				return q.X + Margin, q.Y + Margin
			})
		}
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return p.Output(w)
}

func drawPath(p *gofpdf.Fpdf, ops []ink.Op, at func(geom.Point) (float64, float64)) {
	for _, op := range ops {
		switch op.Kind {
		case ink.MoveTo:
			p.MoveTo(at(op.Points[0]))
		case ink.LineTo:
			p.LineTo(at(op.Points[0]))
		case ink.CurveTo:
			c1x, c1y := at(op.Points[0])
			c2x, c2y := at(op.Points[1])
			x, y := at(op.Points[2])
			p.CurveBezierCubicTo(c1x, c1y, c2x, c2y, x, y)
		}
	}
	p.ClosePath()
	p.DrawPath("DF")
}
