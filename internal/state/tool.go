package state

import (
	"fmt"
	"sync"

	"InkLayer/internal/geom"
)

// Mode selects what pointer input does while the overlay accepts input.
type Mode string

const (
	ModePencil      Mode = "pencil"
	ModeCalligraphy Mode = "calligraphy"
	ModeEraser      Mode = "eraser"
	ModeMouse       Mode = "mouse"
)

// Defaults used until the configuration channel says otherwise.
const (
	DefaultColor = "red"
	DefaultWidth = 2.0
)

// Tool is an immutable snapshot of the active drawing configuration.
type Tool struct {
	Color     string
	RGBA      geom.Quadruple
	Width     float64
	Mode      Mode
	Accepting bool
	TouchDraw bool
}

// ToolState is the shared, asynchronously updated drawing configuration.
// Writers are the configuration channel; readers take a Snapshot per sample.
type ToolState struct {
	mu   sync.RWMutex
	tool Tool
}

func NewToolState() *ToolState {
	return &ToolState{tool: Tool{
		Color:     DefaultColor,
		RGBA:      geom.ColorOrDefault(DefaultColor, geom.Quadruple{255, 0, 0, 255}),
		Width:     DefaultWidth,
		Mode:      ModePencil,
		Accepting: true,
		TouchDraw: true,
	}}
}

// Snapshot returns the current configuration.
func (ts *ToolState) Snapshot() Tool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.tool
}

// SetColor validates and applies a color string. The previous color is
// kept when s does not parse.
func (ts *ToolState) SetColor(s string) error {
	q, err := geom.ParseColor(s)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tool.Color = s
	ts.tool.RGBA = q
	return nil
}

// SetWidth sets the half-width scale multiplied by sample pressure.
func (ts *ToolState) SetWidth(w float64) error {
	if w < 0 || w != w {
		return fmt.Errorf("invalid tool thickness %v", w)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tool.Width = w
	return nil
}

// SetMode selects a nib or tool. Mouse mode stops accepting input so the
// host page receives pointer events; every other mode accepts input.
func (ts *ToolState) SetMode(m Mode) error {
	switch m {
	case ModePencil, ModeCalligraphy, ModeEraser, ModeMouse:
	default:
		return fmt.Errorf("unknown drawing mode %q", m)
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tool.Mode = m
	ts.tool.Accepting = m != ModeMouse
	return nil
}

// SetAccepting turns input acceptance on or off without changing the nib.
// Turning input on while in mouse mode switches back to the pencil.
func (ts *ToolState) SetAccepting(on bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tool.Accepting = on
	if on && ts.tool.Mode == ModeMouse {
		ts.tool.Mode = ModePencil
	}
}

// SetTouchDraw chooses whether non-stylus touch contacts draw or scroll.
func (ts *ToolState) SetTouchDraw(on bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tool.TouchDraw = on
}
