package geom

import "math"

// Box is a bounding-box accumulator. The zero value is empty.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
	set                    bool
}

// Add grows the box to include p.
func (b *Box) Add(p Point) {
	if !b.set {
		b.MinX, b.MaxX = p.X, p.X
		b.MinY, b.MaxY = p.Y, p.Y
		b.set = true
		return
	}
	b.MinX = math.Min(b.MinX, p.X)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxY = math.Max(b.MaxY, p.Y)
}

// Empty reports whether no point has been added.
func (b Box) Empty() bool { return !b.set }

func (b Box) Width() float64  { return b.MaxX - b.MinX }
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Min returns the top-left corner.
func (b Box) Min() Point { return Point{b.MinX, b.MinY} }

// Pad returns the box grown by pad on every side.
func (b Box) Pad(pad float64) Box {
	if !b.set {
		return b
	}
	return Box{MinX: b.MinX - pad, MinY: b.MinY - pad, MaxX: b.MaxX + pad, MaxY: b.MaxY + pad, set: true}
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return b.set && p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Overlaps reports whether the two boxes share any area or edge.
func (b Box) Overlaps(o Box) bool {
	if !b.set || !o.set {
		return false
	}
	return !(b.MaxX < o.MinX || o.MaxX < b.MinX || b.MaxY < o.MinY || o.MaxY < b.MinY)
}
