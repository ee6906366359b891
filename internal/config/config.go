// Package config persists the last used tool settings and replays them
// when an overlay starts.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"InkLayer/internal/channel"
	"InkLayer/internal/logging"
)

// FileName is the preferences file looked up in the user config dir.
const FileName = "inklayer.toml"

// Preferences is the content of the preferences file.
type Preferences struct {
	ToolColor        string  `toml:"toolColor"`
	ToolThickness    float64 `toml:"toolThickness"`
	TouchDrawEnabled bool    `toml:"touchDrawEnabled"`

	Relay   RelayConfig   `toml:"relay"`
	Overlay OverlayConfig `toml:"overlay"`
}

type RelayConfig struct {
	Port int `toml:"port"`
	// Advertise announces a hosted relay over mDNS.
	Advertise bool `toml:"advertise"`
}

type OverlayConfig struct {
	MultiStroke bool    `toml:"multi_stroke"`
	TapFallback bool    `toml:"tap_fallback"`
	Padding     float64 `toml:"padding"`
}

// Default returns the preferences used when no file exists.
func Default() Preferences {
	return Preferences{
		ToolColor:        "red",
		ToolThickness:    0.5,
		TouchDrawEnabled: true,
		Relay: RelayConfig{
			Port:      8888,
			Advertise: true,
		},
		Overlay: OverlayConfig{
			MultiStroke: true,
			TapFallback: true,
			Padding:     35,
		},
	}
}

// DefaultPath returns the preferences file in the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "inklayer", FileName), nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Preferences, error) {
	prefs := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return prefs, nil
}

// Save writes prefs to path, creating the directory if needed.
func Save(path string, prefs Preferences) error {
	data, err := toml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// StartupMessages are the messages that restore prefs into a freshly
// installed overlay.
func (p Preferences) StartupMessages() []channel.Message {
	return []channel.Message{
		channel.MustMessage(channel.SetToolColor, p.ToolColor, false),
		channel.MustMessage(channel.SetToolThickness, p.ToolThickness, false),
		channel.MustMessage(channel.SetTouchDrawEnabled, p.TouchDrawEnabled, false),
	}
}

// Store keeps the preferences file in step with the tool messages that
// pass through a relay.
type Store struct {
	path string

	mu    sync.Mutex
	prefs Preferences
}

// Open loads path into a Store. An empty path keeps the preferences in
// memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, prefs: Default()}
	if path == "" {
		return s, nil
	}
	prefs, err := Load(path)
	if err != nil {
		return s, err
	}
	s.prefs = prefs
	return s, nil
}

func (s *Store) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Observe records the value of a color, thickness or touch message and
// saves the file. Other commands are ignored.
func (s *Store) Observe(m channel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.prefs
	switch m.Command {
	case channel.SetToolColor:
		v, err := m.Text()
		if err != nil {
			return err
		}
		if !channel.ValidColor(v) {
			return fmt.Errorf("not saving invalid color %q", v)
		}
		next.ToolColor = v
	case channel.SetToolThickness:
		v, err := m.Float()
		if err != nil {
			return err
		}
		next.ToolThickness = v
	case channel.SetTouchDrawEnabled:
		v, err := m.Bool()
		if err != nil {
			return err
		}
		next.TouchDrawEnabled = v
	default:
		return nil
	}
	if next == s.prefs {
		return nil
	}
	s.prefs = next
	if s.path == "" {
		return nil
	}
	if err := Save(s.path, next); err != nil {
		return err
	}
	logging.Logger().Debug("[config] saved preferences", slog.String("path", s.path), slog.String("command", m.Command))
	return nil
}

// Watch observes every message on bus until the returned cancel runs.
// Save failures are logged.
func (s *Store) Watch(bus channel.Bus) (cancel func()) {
	return bus.Subscribe(func(m channel.Message) {
		if err := s.Observe(m); err != nil {
			logging.Logger().Warn("[config] preference not saved", slog.String("command", m.Command), slog.Any("err", err))
		}
	})
}
