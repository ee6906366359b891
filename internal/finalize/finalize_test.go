package finalize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/state"
)

func drawStroke(t *testing.T, tools *state.ToolState, samples []ink.Sample) *ink.Stroke {
	t.Helper()
	e := ink.NewEngine(nil, tools)
	st := ink.NewStroke("stroke-1", 1)
	for _, s := range samples {
		require.NoError(t, e.ContinueStroke(st, s))
	}
	return st
}

func wavySamples(n int) []ink.Sample {
	out := make([]ink.Sample, n)
	for i := range out {
		f := float64(i)
		out[i] = ink.Sample{
			X:        200 + 12*f,
			Y:        300 + 40*math.Sin(f/3),
			T:        1000 + 16*f,
			Pressure: ink.ClampPressure(0.2 + 0.1*float64(i%7)),
		}
	}
	return out
}

func TestFinalizeContainsEveryPoint(t *testing.T) {
	tools := state.NewToolState()
	st := drawStroke(t, tools, wavySamples(25))

	frag, ok := Finalize(st, tools.Snapshot(), DefaultOptions())
	require.True(t, ok)
	require.NotEmpty(t, frag.Paths)

	for _, path := range frag.Paths {
		for _, op := range path {
			for _, p := range op.Points {
				assert.GreaterOrEqual(t, p.X, 0.0)
				assert.GreaterOrEqual(t, p.Y, 0.0)
				assert.LessOrEqual(t, p.X, float64(frag.Width))
				assert.LessOrEqual(t, p.Y, float64(frag.Height))
				assert.Equal(t, geom.Round1(p.X), p.X)
			}
		}
	}
}

func TestFinalizeIsDeterministic(t *testing.T) {
	tools := state.NewToolState()
	samples := wavySamples(17)

	a, ok := Finalize(drawStroke(t, tools, samples), tools.Snapshot(), DefaultOptions())
	require.True(t, ok)
	b, ok := Finalize(drawStroke(t, tools, samples), tools.Snapshot(), DefaultOptions())
	require.True(t, ok)

	assert.Equal(t, a.Markup, b.Markup)
	assert.Equal(t, a.Origin, b.Origin)
}

func TestFinalizeTapLeavesMark(t *testing.T) {
	tools := state.NewToolState()
	st := drawStroke(t, tools, []ink.Sample{{X: 50, Y: 60, T: 1, Pressure: ink.ClampPressure(0)}})
	require.Equal(t, 0, st.Len())

	frag, ok := Finalize(st, tools.Snapshot(), DefaultOptions())
	require.True(t, ok)
	assert.Positive(t, frag.Width)
	assert.Positive(t, frag.Height)
	require.Len(t, frag.Paths, 1)
	assert.Equal(t, ink.MoveTo, frag.Paths[0][0].Kind)
	assert.Contains(t, frag.Markup, "<path ")

	// w = 0.7 * 2 = 1.4, the box spans 2w on both axes.
	assert.InDelta(t, 50-1.4-DefaultPadding, frag.Origin.X, 1e-9)
	assert.InDelta(t, 60-1.4-DefaultPadding, frag.Origin.Y, 1e-9)
}

func TestFinalizeDegenerate(t *testing.T) {
	tools := state.NewToolState()

	_, ok := Finalize(ink.NewStroke("empty", 1), tools.Snapshot(), DefaultOptions())
	assert.False(t, ok, "no samples")

	tap := drawStroke(t, tools, []ink.Sample{{X: 5, Y: 5, Pressure: 1}})
	_, ok = Finalize(tap, tools.Snapshot(), Options{Padding: DefaultPadding})
	assert.False(t, ok, "tap without fallback")

	zero := tools.Snapshot()
	zero.Width = 0
	_, ok = Finalize(tap, zero, Options{TapFallback: true})
	assert.False(t, ok, "zero-width tap without padding")
}

func TestFinalizeFlatOutline(t *testing.T) {
	line := func(from geom.Point, step geom.Point, tilt float64) []ink.Sample {
		out := make([]ink.Sample, 8)
		for i := range out {
			p := from.Add(step.Mul(float64(i)))
			out[i] = ink.Sample{X: p.X, Y: p.Y, T: float64(16 * i), Pressure: ink.ClampPressure(0.5)}
			if tilt != 0 {
				out[i].Tilt, out[i].HasTilt = tilt, true
			}
		}
		return out
	}

	tests := []struct {
		name    string
		mode    state.Mode
		samples []ink.Sample
		flatY   bool
	}{
		{"horizontal calligraphy", state.ModeCalligraphy, line(geom.Pt(100, 100), geom.Pt(15, 0), 0), true},
		{"vertical with even tilt", state.ModePencil, line(geom.Pt(150, 100), geom.Pt(0, 15), math.Atan2(1, 1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := state.NewToolState()
			require.NoError(t, tools.SetMode(tt.mode))
			st := drawStroke(t, tools, tt.samples)
			require.NotZero(t, st.Len())

			frag, ok := Finalize(st, tools.Snapshot(), DefaultOptions())
			require.True(t, ok)
			require.NotEmpty(t, frag.Paths)
			flat, long := frag.Height, frag.Width
			if !tt.flatY {
				flat, long = long, flat
			}
			assert.GreaterOrEqual(t, flat, int(2*DefaultPadding))
			assert.Less(t, flat, int(2*DefaultPadding)+2)
			assert.Greater(t, long, int(2*DefaultPadding)+90)
		})
	}
}

func TestFinalizeZeroWidthTap(t *testing.T) {
	tools := state.NewToolState()
	require.NoError(t, tools.SetWidth(0))
	st := drawStroke(t, tools, []ink.Sample{{X: 50, Y: 60, T: 1, Pressure: ink.ClampPressure(0)}})

	frag, ok := Finalize(st, tools.Snapshot(), DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, int(2*DefaultPadding), frag.Width)
	assert.Equal(t, int(2*DefaultPadding), frag.Height)
	assert.Equal(t, geom.Pt(50-DefaultPadding, 60-DefaultPadding), frag.Origin)
	assert.Contains(t, frag.Markup, "<path ")
}

func TestMarkupFormat(t *testing.T) {
	frag := &Fragment{
		ID:     "x",
		Color:  "#f00",
		Width:  80,
		Height: 75,
		Paths: [][]ink.Op{{
			ink.Move(geom.Pt(35, 35)),
			ink.Curve(geom.Pt(40.5, 35), geom.Pt(41, 36), geom.Pt(45, 40)),
			ink.Line(geom.Pt(35, 35)),
		}},
	}
	want := `<svg width="80" height="75">` +
		`<path d="M 35 35 C 40.5 35, 41 36, 45 40 L 35 35 Z" stroke="#f00" fill="#f00"/>` +
		`</svg>`
	assert.Equal(t, want, Markup(frag))
}

func TestMarkupEscapesColor(t *testing.T) {
	frag := &Fragment{Color: `red" onload="x`, Width: 1, Height: 1}
	assert.NotContains(t, Markup(frag), `onload="x"`)
}

func TestFragmentNode(t *testing.T) {
	tools := state.NewToolState()
	frag, ok := Finalize(drawStroke(t, tools, wavySamples(9)), tools.Snapshot(), DefaultOptions())
	require.True(t, ok)

	n, err := frag.Node()
	require.NoError(t, err)
	assert.Equal(t, "div", n.Data)
	require.NotNil(t, n.FirstChild)
	svg := n.FirstChild
	assert.Equal(t, "svg", svg.Data)

	paths := 0
	for c := svg.FirstChild; c != nil; c = c.NextSibling {
		if c.Data == "path" {
			paths++
		}
	}
	assert.Equal(t, len(frag.Paths), paths)
	assert.True(t, strings.HasPrefix(frag.Markup, "<svg "))
}
