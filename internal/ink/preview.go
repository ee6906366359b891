package ink

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gg"
)

// Preview is a Surface backed by a software gg canvas sized to the
// viewport.
type Preview struct {
	mu      sync.Mutex
	dc      *gg.Context
	visible bool
}

func NewPreview(width, height int) *Preview {
	return &Preview{dc: gg.NewContext(width, height)}
}

// Resize matches the canvas to the viewport. Content is discarded when the
// size changes.
func (p *Preview) Resize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dc.Resize(width, height)
}

func (p *Preview) Show() {
	p.mu.Lock()
	p.visible = true
	p.mu.Unlock()
}

func (p *Preview) Hide() {
	p.mu.Lock()
	p.visible = false
	p.mu.Unlock()
}

func (p *Preview) Clear() {
	p.mu.Lock()
	p.dc.Clear()
	p.mu.Unlock()
}

// Visible reports whether the preview should be composited.
func (p *Preview) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Fill fills and outlines ops with a 1px stroke of the same color.
func (p *Preview) Fill(ops []Op, c color.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dc.SetColor(c)
	p.dc.SetLineWidth(1)
	for _, op := range ops {
		switch op.Kind {
		case MoveTo:
			p.dc.MoveTo(op.Points[0].X, op.Points[0].Y)
		case LineTo:
			p.dc.LineTo(op.Points[0].X, op.Points[0].Y)
		case CurveTo:
			c1, c2, end := op.Points[0], op.Points[1], op.Points[2]
			p.dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, end.X, end.Y)
		}
	}
	if err := p.dc.FillPreserve(); err != nil {
		p.dc.ClearPath()
		return fmt.Errorf("fill preview: %w", err)
	}
	if err := p.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke preview: %w", err)
	}
	return nil
}

// Image returns the current preview pixels.
func (p *Preview) Image() image.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dc.Image()
}

func (p *Preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dc.Close()
}
