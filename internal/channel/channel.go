package channel

import (
	"errors"
	"fmt"
	"log/slog"

	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
	"InkLayer/internal/state"
)

// ErrUnknownCommand is reported (and logged) for commands outside the
// vocabulary. It is never fatal.
var ErrUnknownCommand = errors.New("unknown command")

// Channel applies configuration messages to a ToolState.
type Channel struct {
	tools *state.ToolState
	bus   Bus
	// OnApplied runs after a message changed the tool state.
	OnApplied func(Message)
}

// New builds a Channel. bus may be nil when no relay exists.
func New(tools *state.ToolState, bus Bus) *Channel {
	return &Channel{tools: tools, bus: bus}
}

// Attach subscribes the channel to its bus.
func (c *Channel) Attach() (cancel func()) {
	if c.bus == nil {
		return func() {}
	}
	return c.bus.Subscribe(func(m Message) {
		_ = c.Receive(m)
	})
}

// Receive applies m and relays it once when Forward is set. Failures are
// logged and returned for callers that care; they never stop the relay.
func (c *Channel) Receive(m Message) error {
	err := c.apply(m)
	if err != nil {
		logging.Logger().Warn("[channel] message not applied", slog.String("command", m.Command), slog.Any("err", err))
	} else if c.OnApplied != nil {
		c.OnApplied(m)
	}

	if m.Forward && c.bus != nil {
		relay := m
		relay.Forward = false
		if perr := c.bus.Publish(relay); perr != nil {
			logging.Logger().Warn("[channel] relay failed", slog.String("command", m.Command), slog.Any("err", perr))
			return errors.Join(err, perr)
		}
	}
	return err
}

// Send publishes m on the bus without applying it locally.
func (c *Channel) Send(m Message) error {
	if c.bus == nil {
		return c.Receive(m)
	}
	return c.bus.Publish(m)
}

func (c *Channel) apply(m Message) error {
	switch m.Command {
	case SetToolColor:
		s, err := m.Text()
		if err != nil {
			return err
		}
		if err := c.tools.SetColor(s); err != nil {
			// The tool always keeps a valid color.
			_ = c.tools.SetColor(state.DefaultColor)
			return fmt.Errorf("%w, using %s", err, state.DefaultColor)
		}
		return nil

	case SetToolThickness:
		w, err := m.Float()
		if err != nil {
			return err
		}
		return c.tools.SetWidth(w)

	case SetDrawingMode:
		if on, err := m.Bool(); err == nil {
			c.tools.SetAccepting(on)
			return nil
		}
		s, err := m.Text()
		if err != nil {
			return err
		}
		return c.tools.SetMode(state.Mode(s))

	case SetTouchDrawEnabled:
		on, err := m.Bool()
		if err != nil {
			return err
		}
		c.tools.SetTouchDraw(on)
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, m.Command)
}

// ValidColor reports whether s would be accepted by setToolColor.
func ValidColor(s string) bool {
	_, err := geom.ParseColor(s)
	return err == nil
}
