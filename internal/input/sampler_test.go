package input

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/state"
)

type call struct {
	kind    string
	pointer int
	sample  ink.Sample
}

type recorder struct {
	calls    []call
	erased   []geom.Point
	endErr   error
	endPanic bool
}

func (r *recorder) Begin(pointer int, _ *html.Node, s ink.Sample) error {
	r.calls = append(r.calls, call{"begin", pointer, s})
	return nil
}

func (r *recorder) Continue(pointer int, s ink.Sample) error {
	r.calls = append(r.calls, call{"continue", pointer, s})
	return nil
}

func (r *recorder) End(pointer int, s ink.Sample) error {
	r.calls = append(r.calls, call{"end", pointer, s})
	if r.endPanic {
		panic("boom")
	}
	return r.endErr
}

func (r *recorder) Abort(pointer int) {
	r.calls = append(r.calls, call{kind: "abort", pointer: pointer})
}

func (r *recorder) EraseAt(p geom.Point) error {
	r.erased = append(r.erased, p)
	return nil
}

func (r *recorder) kinds() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

type captures struct {
	held map[int]bool
	log  []string
}

func (c *captures) Capture(p int) {
	if c.held == nil {
		c.held = map[int]bool{}
	}
	c.held[p] = true
	c.log = append(c.log, "capture")
}

func (c *captures) Release(p int) {
	delete(c.held, p)
	c.log = append(c.log, "release")
}

func setup(t *testing.T) (*Sampler, *recorder, *captures, *state.ToolState) {
	t.Helper()
	tools := state.NewToolState()
	rec := &recorder{}
	caps := &captures{}
	return NewSampler(tools, rec, caps), rec, caps, tools
}

func ev(typ EventType, id int, x, y, t float64) Event {
	return Event{Type: typ, PointerID: id, Kind: Mouse, Primary: true, X: x, Y: y, ClientX: x, ClientY: y, Time: t}
}

func TestEventSample(t *testing.T) {
	e := Event{X: 110, Y: 220, ClientX: 10, ClientY: 20, Time: 5, Pressure: 0.5, TiltX: 0, TiltY: 30}
	s := e.Sample()
	assert.Equal(t, 100.0, s.PageOffsetX)
	assert.Equal(t, 200.0, s.PageOffsetY)
	assert.InDelta(t, 0.6, s.Pressure, 1e-9)
	require.True(t, s.HasTilt)
	assert.InDelta(t, math.Pi/2, s.Tilt, 1e-9)

	s = Event{}.Sample()
	assert.False(t, s.HasTilt)
	assert.InDelta(t, 0.7, s.Pressure, 1e-9)
}

func TestStrokeLifecycle(t *testing.T) {
	s, rec, caps, _ := setup(t)

	require.True(t, s.HandleEvent(ev(Down, 1, 0, 0, 0)))
	assert.True(t, s.Captured(1))
	assert.True(t, caps.held[1])
	require.True(t, s.HandleEvent(ev(Move, 1, 5, 5, 10)))
	require.True(t, s.HandleEvent(ev(Up, 1, 10, 10, 20)))

	assert.Equal(t, []string{"begin", "continue", "end"}, rec.kinds())
	assert.False(t, s.Captured(1))
	assert.Empty(t, caps.held)

	// Events for an uncaptured pointer pass through.
	assert.False(t, s.HandleEvent(ev(Move, 1, 11, 11, 30)))
	assert.False(t, s.HandleEvent(ev(Click, 1, 11, 11, 30)))
}

func TestLeaveAborts(t *testing.T) {
	s, rec, caps, _ := setup(t)
	s.HandleEvent(ev(Down, 3, 0, 0, 0))
	s.HandleEvent(ev(Move, 3, 1, 1, 5))
	require.True(t, s.HandleEvent(ev(Leave, 3, 2, 2, 10)))

	assert.Equal(t, []string{"begin", "continue", "abort"}, rec.kinds())
	assert.Equal(t, []string{"capture", "release"}, caps.log)
	assert.Empty(t, s.Active())
}

func TestIgnorePolicy(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<body><div class="panel inklayer-controls"><button id="b">x</button></div><p id="p">t</p></body>`))
	require.NoError(t, err)
	var button, para *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == "b" {
				button = n
			}
			if a.Key == "id" && a.Val == "p" {
				para = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, button)
	require.NotNil(t, para)

	tests := []struct {
		name    string
		prepare func(*state.ToolState)
		event   Event
		want    bool
	}{
		{"plain mouse", nil, ev(Down, 1, 0, 0, 0), true},
		{"input off", func(ts *state.ToolState) { ts.SetAccepting(false) }, ev(Down, 1, 0, 0, 0), false},
		{"mouse mode", func(ts *state.ToolState) { _ = ts.SetMode(state.ModeMouse) }, ev(Down, 1, 0, 0, 0), false},
		{"inside controls", nil, Event{Type: Down, PointerID: 1, Target: button}, false},
		{"outside controls", nil, Event{Type: Down, PointerID: 1, Target: para}, true},
		{"touch with touch drawing off", func(ts *state.ToolState) { ts.SetTouchDraw(false) }, Event{Type: Down, PointerID: 2, Kind: Touch}, false},
		{"pen with touch drawing off", func(ts *state.ToolState) { ts.SetTouchDraw(false) }, Event{Type: Down, PointerID: 2, Kind: Pen}, true},
		{"touch with touch drawing on", nil, Event{Type: Down, PointerID: 2, Kind: Touch}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec, caps, tools := setup(t)
			if tt.prepare != nil {
				tt.prepare(tools)
			}
			assert.Equal(t, tt.want, s.HandleEvent(tt.event))
			if !tt.want {
				assert.Empty(t, rec.calls)
				assert.Empty(t, caps.log)
			}
		})
	}
}

func TestMultiStrokeIndependentPointers(t *testing.T) {
	s, rec, _, _ := setup(t)
	s.HandleEvent(ev(Down, 1, 0, 0, 0))
	s.HandleEvent(ev(Down, 2, 50, 50, 0))
	s.HandleEvent(ev(Move, 2, 51, 51, 5))
	s.HandleEvent(ev(Move, 1, 1, 1, 5))
	assert.Equal(t, []int{1, 2}, s.Active())
	s.HandleEvent(ev(Up, 1, 2, 2, 10))
	assert.Equal(t, []int{2}, s.Active())

	var one []call
	for _, c := range rec.calls {
		if c.pointer == 1 {
			one = append(one, c)
		}
	}
	require.Len(t, one, 3)
	assert.Equal(t, 0.0, one[0].sample.X)
	assert.Equal(t, 1.0, one[1].sample.X)
	assert.Equal(t, 2.0, one[2].sample.X)
}

func TestSingleStrokeMode(t *testing.T) {
	s, rec, _, _ := setup(t)
	s.MultiStroke = false
	require.True(t, s.HandleEvent(ev(Down, 1, 0, 0, 0)))
	assert.False(t, s.HandleEvent(ev(Down, 2, 0, 0, 0)))

	secondary := ev(Move, 1, 3, 3, 5)
	secondary.Primary = false
	assert.True(t, s.HandleEvent(secondary))
	assert.Equal(t, []string{"begin"}, rec.kinds())
}

func TestCaptureReleasedOnFailure(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		s, rec, caps, _ := setup(t)
		rec.endErr = errors.New("anchor failed")
		s.HandleEvent(ev(Down, 1, 0, 0, 0))
		assert.True(t, s.HandleEvent(ev(Up, 1, 0, 0, 1)))
		assert.Empty(t, caps.held)
		assert.False(t, s.Captured(1))
	})
	t.Run("panic", func(t *testing.T) {
		s, rec, caps, _ := setup(t)
		rec.endPanic = true
		s.HandleEvent(ev(Down, 1, 0, 0, 0))
		assert.True(t, s.HandleEvent(ev(Up, 1, 0, 0, 1)))
		assert.Empty(t, caps.held)
		assert.Equal(t, []string{"begin", "end", "abort"}, rec.kinds())
	})
}

func TestEraserMode(t *testing.T) {
	s, rec, caps, tools := setup(t)
	require.NoError(t, tools.SetMode(state.ModeEraser))

	require.True(t, s.HandleEvent(ev(Down, 1, 4, 4, 0)))
	s.HandleEvent(ev(Move, 1, 6, 6, 5))
	s.HandleEvent(ev(Up, 1, 8, 8, 10))

	assert.Empty(t, rec.calls)
	assert.Equal(t, []geom.Point{{X: 4, Y: 4}, {X: 6, Y: 6}}, rec.erased)
	assert.Empty(t, caps.held)
}
