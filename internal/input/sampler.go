package input

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/logging"
	"InkLayer/internal/state"
)

// ControlsClass marks the toolbox subtree. Events starting inside it are
// left to the host page.
const ControlsClass = "inklayer-controls"

// Handler receives the stroke lifecycle for each captured pointer.
type Handler interface {
	// Begin starts a stroke for pointer. target is the element the pointer
	// went down on and s is the first sample.
	Begin(pointer int, target *html.Node, s ink.Sample) error
	Continue(pointer int, s ink.Sample) error
	// End pushes the final sample and commits the stroke.
	End(pointer int, s ink.Sample) error
	// Abort discards the stroke without committing anything.
	Abort(pointer int)
	EraseAt(p geom.Point) error
}

// Capturer grabs and releases exclusive delivery of a pointer's events.
type Capturer interface {
	Capture(pointer int)
	Release(pointer int)
}

type pointerState struct {
	erasing bool
}

// Sampler tracks capture per pointer id and feeds a Handler.
type Sampler struct {
	tools    *state.ToolState
	handler  Handler
	capturer Capturer

	// MultiStroke lets every captured pointer draw its own stroke. When
	// off, only one pointer draws at a time and non-primary moves are
	// dropped.
	MultiStroke bool

	mu       sync.Mutex
	captured map[int]*pointerState
}

// NewSampler builds a sampler with multi-stroke drawing on. capturer may
// be nil.
func NewSampler(tools *state.ToolState, handler Handler, capturer Capturer) *Sampler {
	return &Sampler{
		tools:       tools,
		handler:     handler,
		capturer:    capturer,
		MultiStroke: true,
		captured:    make(map[int]*pointerState),
	}
}

// Captured reports whether pointer is currently captured.
func (s *Sampler) Captured(pointer int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.captured[pointer]
	return ok
}

// Active returns the captured pointer ids in ascending order.
func (s *Sampler) Active() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.captured))
	for id := range s.captured {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HandleEvent processes ev and reports whether it was consumed. The
// caller suppresses the host's default handling for consumed events.
func (s *Sampler) HandleEvent(ev Event) bool {
	switch ev.Type {
	case Down:
		return s.down(ev)
	case Move:
		return s.move(ev)
	case Up, Click:
		return s.up(ev)
	case Leave:
		return s.leave(ev)
	}
	return false
}

// Ignored reports whether a down event should be left to the host page.
func (s *Sampler) Ignored(ev Event, tool state.Tool) bool {
	if !tool.Accepting {
		return true
	}
	if ev.Kind == Touch && !tool.TouchDraw {
		return true
	}
	return insideControls(ev.Target)
}

func (s *Sampler) down(ev Event) bool {
	tool := s.tools.Snapshot()
	if s.Ignored(ev, tool) {
		return false
	}

	s.mu.Lock()
	if _, dup := s.captured[ev.PointerID]; dup {
		s.mu.Unlock()
		return true
	}
	if !s.MultiStroke && len(s.captured) > 0 {
		s.mu.Unlock()
		return false
	}
	p := &pointerState{erasing: tool.Mode == state.ModeEraser}
	s.captured[ev.PointerID] = p
	s.mu.Unlock()

	if s.capturer != nil {
		s.capturer.Capture(ev.PointerID)
	}

	var err error
	if p.erasing {
		err = s.handler.EraseAt(geom.Pt(ev.X, ev.Y))
	} else {
		err = s.handler.Begin(ev.PointerID, ev.Target, ev.Sample())
	}
	if err != nil {
		logging.Logger().Warn("[input] pointer down failed", slog.Int("pointer", ev.PointerID), slog.Any("err", err))
		if !p.erasing {
			s.release(ev.PointerID)
			s.handler.Abort(ev.PointerID)
		}
	}
	return true
}

func (s *Sampler) move(ev Event) bool {
	p, ok := s.lookup(ev.PointerID)
	if !ok {
		return false
	}
	if !s.MultiStroke && !ev.Primary {
		return true
	}

	var err error
	if p.erasing {
		err = s.handler.EraseAt(geom.Pt(ev.X, ev.Y))
	} else {
		err = s.handler.Continue(ev.PointerID, ev.Sample())
	}
	if err != nil {
		logging.Logger().Warn("[input] pointer move failed", slog.Int("pointer", ev.PointerID), slog.Any("err", err))
	}
	return true
}

func (s *Sampler) up(ev Event) (consumed bool) {
	p, ok := s.lookup(ev.PointerID)
	if !ok {
		return false
	}
	defer s.release(ev.PointerID)

	if p.erasing {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Logger().Error("[input] stroke end panicked", slog.Int("pointer", ev.PointerID), slog.Any("panic", r))
			s.handler.Abort(ev.PointerID)
			consumed = true
		}
	}()
	if err := s.handler.End(ev.PointerID, ev.Sample()); err != nil {
		logging.Logger().Warn("[input] stroke end failed", slog.Int("pointer", ev.PointerID), slog.Any("err", err))
	}
	return true
}

func (s *Sampler) leave(ev Event) bool {
	p, ok := s.lookup(ev.PointerID)
	if !ok {
		return false
	}
	defer s.release(ev.PointerID)
	if !p.erasing {
		s.handler.Abort(ev.PointerID)
	}
	return true
}

func (s *Sampler) lookup(pointer int) (*pointerState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.captured[pointer]
	return p, ok
}

func (s *Sampler) release(pointer int) {
	s.mu.Lock()
	delete(s.captured, pointer)
	s.mu.Unlock()
	if s.capturer != nil {
		s.capturer.Release(pointer)
	}
}

func insideControls(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key == "class" && slices.Contains(strings.Fields(a.Val), ControlsClass) {
				return true
			}
		}
	}
	return false
}
