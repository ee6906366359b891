package ink

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkLayer/internal/geom"
	"InkLayer/internal/state"
)

// recordingSurface keeps every filled op list for inspection.
type recordingSurface struct {
	fills   [][]Op
	colors  []color.Color
	visible bool
	cleared int
	err     error
}

func (r *recordingSurface) Show()  { r.visible = true }
func (r *recordingSurface) Hide()  { r.visible = false }
func (r *recordingSurface) Clear() { r.cleared++ }
func (r *recordingSurface) Fill(ops []Op, c color.Color) error {
	r.fills = append(r.fills, ops)
	r.colors = append(r.colors, c)
	return r.err
}

func sample(x, y, t float64) Sample {
	return Sample{X: x, Y: y, T: t, Pressure: 1}
}

func tool(width float64) state.Tool {
	return state.Tool{Width: width, Mode: state.ModePencil, RGBA: geom.Quadruple{255, 0, 0, 255}}
}

func TestClampPressure(t *testing.T) {
	tests := []struct {
		name string
		raw  float64
		want float64
	}{
		{"absent", 0, 0.7},
		{"nan", math.NaN(), 0.7},
		{"half", 0.5, 0.6},
		{"too high", 5, MaxPressure},
		{"negative", -3, MinPressure},
		{"max input", 1.9, MaxPressure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampPressure(tt.raw)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, MinPressure)
			assert.LessOrEqual(t, got, MaxPressure)
		})
	}
}

func TestWindowCollapse(t *testing.T) {
	var w Window
	for i := 0; i < 3; i++ {
		assert.False(t, w.Push(sample(float64(i), 0, float64(i))))
	}
	assert.True(t, w.Push(sample(3, 0, 3)))
	w.Collapse()
	require.Equal(t, 2, w.Len())
	assert.Equal(t, 2.0, w.At(0).X)
	assert.Equal(t, 3.0, w.At(1).X)

	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestSegmentStraightLine(t *testing.T) {
	p := [WindowSize]Sample{sample(0, 0, 0), sample(10, 0, 10), sample(20, 0, 20), sample(30, 0, 30)}
	ops := Segment(p, tool(2), true)

	want := []Op{
		Move(geom.Pt(-2, -2)),
		Line(geom.Pt(8, -2)),
		Line(geom.Pt(12, 2)),
		Line(geom.Pt(-2, -2)),
		Line(geom.Pt(8, -2)),
		Curve(geom.Pt(13, -2), geom.Pt(18, -2), geom.Pt(28, -2)),
		Line(geom.Pt(32, 2)),
		Curve(geom.Pt(22, 2), geom.Pt(17, 2), geom.Pt(12, 2)),
		Line(geom.Pt(8, -2)),
	}
	assert.Equal(t, want, ops)

	cont := Segment(p, tool(2), false)
	assert.Equal(t, Move(geom.Pt(8, -2)), cont[0])
	assert.Equal(t, want[5:], cont[1:])
}

func TestSegmentVelocityUsesOutgoingDelta(t *testing.T) {
	// Entry leg takes 10ms, exit leg 20ms: the tangent is scaled by half
	// the exit delta.
	p := [WindowSize]Sample{sample(0, 0, 0), sample(10, 0, 10), sample(20, 0, 30), sample(30, 0, 40)}
	ops := Segment(p, tool(0), false)
	assert.Equal(t, geom.Pt(20, 0), ops[1].Points[0])
}

func TestSegmentIdenticalTimestampsStayFinite(t *testing.T) {
	p := [WindowSize]Sample{sample(0, 0, 5), sample(3, 4, 5), sample(6, 8, 5), sample(9, 12, 5)}
	for _, op := range Segment(p, tool(1), true) {
		for _, pt := range op.Points {
			assert.True(t, pt.Finite(), "%v", pt)
		}
	}
}

func TestNibTilt(t *testing.T) {
	s := sample(0, 0, 0)
	assert.Equal(t, geom.Pt(2, 2), Nib(s, tool(2)))

	s.HasTilt, s.Tilt = true, math.Pi/2
	n := Nib(s, tool(2))
	assert.InDelta(t, -2, n.X, 1e-9)
	assert.InDelta(t, 2, n.Y, 1e-9)

	cal := tool(1)
	cal.Mode = state.ModeCalligraphy
	n = Nib(sample(0, 0, 0), cal)
	assert.InDelta(t, math.Sqrt2, n.X, 1e-9)
	assert.InDelta(t, 0, n.Y, 1e-9)
}

func TestContinueStrokeEmitsEveryTwoSamplesAfterFirstFour(t *testing.T) {
	surface := &recordingSurface{}
	tools := state.NewToolState()
	e := NewEngine(surface, tools)
	st := NewStroke("s1", 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.ContinueStroke(st, sample(float64(i*10), 0, float64(i*10))))
	}
	assert.Equal(t, 0, st.Len())

	require.NoError(t, e.ContinueStroke(st, sample(30, 0, 30)))
	assert.Equal(t, 9, st.Len())

	require.NoError(t, e.ContinueStroke(st, sample(40, 0, 40)))
	assert.Equal(t, 9, st.Len())
	require.NoError(t, e.ContinueStroke(st, sample(50, 0, 50)))
	assert.Equal(t, 14, st.Len())

	ops := st.Ops()
	assert.Equal(t, MoveTo, ops[9].Kind)
	// Second segment starts at the old p3 (x=30).
	assert.Equal(t, 30-tools.Snapshot().Width, ops[9].Points[0].X)
	assert.Len(t, surface.fills, 2)
	assert.Equal(t, 6, st.Samples())
	last, ok := st.Last()
	require.True(t, ok)
	assert.Equal(t, 50.0, last.X)
}

func TestContinueStrokePreviewUsesViewportCoordinates(t *testing.T) {
	surface := &recordingSurface{}
	e := NewEngine(surface, state.NewToolState())
	st := NewStroke("s1", 1)

	for i := 0; i < 4; i++ {
		s := sample(100+float64(i), 500, float64(i))
		s.PageOffsetX, s.PageOffsetY = 0, 400
		require.NoError(t, e.ContinueStroke(st, s))
	}
	require.Len(t, surface.fills, 1)
	page := st.Ops()
	view := surface.fills[0]
	require.Equal(t, len(page), len(view))
	for i := range page {
		for j := range page[i].Points {
			assert.Equal(t, page[i].Points[j].Sub(geom.Pt(0, 400)), view[i].Points[j])
		}
	}
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, surface.colors[0])
}

func TestContinueStrokeSurfaceErrorKeepsOps(t *testing.T) {
	boom := errors.New("boom")
	e := NewEngine(&recordingSurface{err: boom}, state.NewToolState())
	st := NewStroke("s1", 1)
	var err error
	for i := 0; i < 4; i++ {
		err = e.ContinueStroke(st, sample(float64(i), 0, float64(i)))
	}
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 9, st.Len())
}

func TestSubpaths(t *testing.T) {
	ops := []Op{Move(geom.Pt(0, 0)), Line(geom.Pt(1, 1)), Move(geom.Pt(2, 2)), Line(geom.Pt(3, 3))}
	groups := Subpaths(ops)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Equal(t, MoveTo, groups[1][0].Kind)
	assert.Empty(t, Subpaths(nil))
}

func TestPreviewFillDrawsPixels(t *testing.T) {
	p := NewPreview(64, 64)
	t.Cleanup(func() { _ = p.Close() })

	assert.False(t, p.Visible())
	p.Show()
	assert.True(t, p.Visible())

	seg := Segment([WindowSize]Sample{sample(0, 32, 0), sample(10, 32, 10), sample(30, 32, 20), sample(50, 32, 30)}, tool(4), true)
	require.NoError(t, p.Fill(seg, color.NRGBA{R: 255, A: 255}))

	_, _, _, a := p.Image().At(30, 32).RGBA()
	assert.NotZero(t, a)

	p.Clear()
	_, _, _, a = p.Image().At(30, 32).RGBA()
	assert.Zero(t, a)

	p.Hide()
	assert.False(t, p.Visible())
}
