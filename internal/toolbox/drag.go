// Package toolbox implements the draggable tool panel position.
package toolbox

import (
	"sync"

	"InkLayer/internal/geom"
)

// Panel is a tool panel whose centre is kept inside the viewport, in
// percent of the viewport size.
type Panel struct {
	mu sync.Mutex
	// centre in percent of the viewport (vw, vh).
	centre   geom.Point
	viewport geom.Point
	size     geom.Point
}

// NewPanel places a panel of size px at centre (in percent) in a viewport
// of the given pixel size.
func NewPanel(centre, size, viewport geom.Point) *Panel {
	p := &Panel{size: size, viewport: viewport}
	p.centre = clampPercent(centre)
	return p
}

func clampPercent(p geom.Point) geom.Point {
	return geom.Pt(geom.Clamp(p.X, 0, 100), geom.Clamp(p.Y, 0, 100))
}

// Resize updates the viewport and panel sizes, in pixels.
func (p *Panel) Resize(size, viewport geom.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.size = size
	p.viewport = viewport
}

// MoveBy moves the panel by a pixel delta.
func (p *Panel) MoveBy(dx, dy float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewport.X <= 0 || p.viewport.Y <= 0 {
		return
	}
	d := geom.Pt(dx/p.viewport.X*100, dy/p.viewport.Y*100)
	p.centre = clampPercent(p.centre.Add(d))
}

// Centre returns the panel centre in percent of the viewport.
func (p *Panel) Centre() geom.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.centre
}

// TopLeft returns the panel's top-left corner in percent of the viewport,
// rounded to one decimal.
func (p *Panel) TopLeft() geom.Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	tl := p.centre
	if p.viewport.X > 0 {
		tl.X -= p.size.X / 2 / p.viewport.X * 100
	}
	if p.viewport.Y > 0 {
		tl.Y -= p.size.Y / 2 / p.viewport.Y * 100
	}
	return geom.Pt(geom.Round1(tl.X), geom.Round1(tl.Y))
}

// TopLeftPx returns TopLeft in pixels.
func (p *Panel) TopLeftPx() geom.Point {
	tl := p.TopLeft()
	p.mu.Lock()
	defer p.mu.Unlock()
	return geom.Pt(tl.X*p.viewport.X/100, tl.Y*p.viewport.Y/100)
}

// Dragger turns pointer down/move/up on a drag handle into deltas.
type Dragger struct {
	// OnDrag receives the movement since the previous event.
	OnDrag func(dx, dy float64)
	// OnDragEnd receives the movement over the whole drag.
	OnDragEnd func(dx, dy float64)

	mu       sync.Mutex
	dragging bool
	enabled  bool
	ending   bool
	start    geom.Point
	last     geom.Point
}

func NewDragger(onDrag func(dx, dy float64)) *Dragger {
	return &Dragger{OnDrag: onDrag, enabled: true}
}

// Dragging reports whether a drag is in progress.
func (d *Dragger) Dragging() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dragging
}

// SetEnabled turns dragging on or off. Disabling during a drag lets that
// drag finish.
func (d *Dragger) SetEnabled(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !on && d.dragging {
		d.ending = true
		return
	}
	d.enabled = on
	d.ending = false
}

// Down starts a drag at screen position p.
func (d *Dragger) Down(p geom.Point) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.enabled {
		return false
	}
	d.dragging = true
	d.start, d.last = p, p
	return true
}

func (d *Dragger) Move(p geom.Point) bool {
	d.mu.Lock()
	if !d.dragging {
		d.mu.Unlock()
		return false
	}
	delta := p.Sub(d.last)
	d.last = p
	fn := d.OnDrag
	d.mu.Unlock()

	if fn != nil {
		fn(delta.X, delta.Y)
	}
	return true
}

// Up ends the drag. It also handles pointer cancel.
func (d *Dragger) Up(p geom.Point) bool {
	d.mu.Lock()
	if !d.dragging {
		d.mu.Unlock()
		return false
	}
	d.dragging = false
	if d.ending {
		d.enabled = false
		d.ending = false
	}
	total := p.Sub(d.start)
	fn := d.OnDragEnd
	d.mu.Unlock()

	if fn != nil {
		fn(total.X, total.Y)
	}
	return true
}
