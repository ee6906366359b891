// Package input normalises pointer, pen and touch events into ink samples
// and decides which events the overlay consumes.
package input

import (
	"fmt"
	"math"

	"golang.org/x/net/html"

	"InkLayer/internal/ink"
)

type EventType int

const (
	Down EventType = iota
	Move
	Up
	Leave
	Click
)

func (t EventType) String() string {
	switch t {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Leave:
		return "leave"
	case Click:
		return "click"
	}
	return "unknown"
}

// PointerKind is the device class reported with an event.
type PointerKind int

const (
	Mouse PointerKind = iota
	Pen
	Touch
)

// Event is a raw pointer event as delivered by the host.
type Event struct {
	Type      EventType
	PointerID int
	Kind      PointerKind
	// Primary is set for the first contact of a multi-touch gesture.
	Primary bool

	// X and Y are page coordinates; ClientX and ClientY are viewport
	// coordinates of the same point.
	X, Y             float64
	ClientX, ClientY float64

	// Pressure is the raw device pressure, zero when not reported.
	Pressure float64
	// TiltX and TiltY are the pen tilt in degrees.
	TiltX, TiltY float64
	// Time is the event timestamp in milliseconds.
	Time float64

	Target *html.Node
}

// Sample converts the event into an ink sample.
func (ev Event) Sample() ink.Sample {
	s := ink.Sample{
		X:           ev.X,
		Y:           ev.Y,
		PageOffsetX: ev.X - ev.ClientX,
		PageOffsetY: ev.Y - ev.ClientY,
		T:           ev.Time,
		Pressure:    ink.ClampPressure(ev.Pressure),
	}
	if ev.TiltX != 0 || ev.TiltY != 0 {
		s.Tilt = math.Atan2(ev.TiltY, ev.TiltX)
		s.HasTilt = true
	}
	return s
}

func (ev Event) String() string {
	return fmt.Sprintf("%s pointer=%d (%.1f,%.1f)", ev.Type, ev.PointerID, ev.X, ev.Y)
}
