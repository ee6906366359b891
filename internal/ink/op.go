package ink

import "InkLayer/internal/geom"

// OpKind tags a drawing operation.
type OpKind int

const (
	MoveTo OpKind = iota
	LineTo
	CurveTo
)

// Command returns the path letter for k.
func (k OpKind) Command() string {
	switch k {
	case MoveTo:
		return "M"
	case LineTo:
		return "L"
	case CurveTo:
		return "C"
	}
	return "?"
}

// Op is one drawing operation. MoveTo and LineTo carry one point, CurveTo
// carries two control points followed by the end point.
type Op struct {
	Kind   OpKind
	Points []geom.Point
}

func Move(p geom.Point) Op { return Op{Kind: MoveTo, Points: []geom.Point{p}} }
func Line(p geom.Point) Op { return Op{Kind: LineTo, Points: []geom.Point{p}} }

// Curve is a cubic bezier through control points c1, c2 ending at end.
func Curve(c1, c2, end geom.Point) Op {
	return Op{Kind: CurveTo, Points: []geom.Point{c1, c2, end}}
}

// Translate returns a copy of op moved by d.
func (op Op) Translate(d geom.Point) Op {
	pts := make([]geom.Point, len(op.Points))
	for i, p := range op.Points {
		pts[i] = p.Add(d)
	}
	return Op{Kind: op.Kind, Points: pts}
}

// Subpaths splits ops at every MoveTo. Leading ops before the first
// MoveTo form their own group.
func Subpaths(ops []Op) [][]Op {
	var (
		out [][]Op
		cur []Op
	)
	for _, op := range ops {
		if op.Kind == MoveTo && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, op)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
