// Package channel carries tool configuration messages between execution
// contexts and applies them to the shared ToolState.
package channel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Command vocabulary.
const (
	SetToolColor        = "setToolColor"
	SetToolThickness    = "setToolThickness"
	SetDrawingMode      = "setDrawingMode"
	SetTouchDrawEnabled = "setTouchDrawEnabled"
)

// Message is one fire-and-forget configuration message. Forward asks the
// receiver to re-broadcast it once, with Forward cleared.
type Message struct {
	Command string          `json:"command"`
	Value   json.RawMessage `json:"value,omitempty"`
	Forward bool            `json:"forward,omitempty"`
}

// NewMessage encodes value into a message.
func NewMessage(command string, value any, forward bool) (Message, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s value: %w", command, err)
	}
	return Message{Command: command, Value: raw, Forward: forward}, nil
}

// MustMessage is NewMessage for values known to encode.
func MustMessage(command string, value any, forward bool) Message {
	m, err := NewMessage(command, value, forward)
	if err != nil {
		panic(err)
	}
	return m
}

// Text decodes the value as text. Numbers and booleans are
// returned in their JSON spelling.
func (m Message) Text() (string, error) {
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s, nil
	}
	raw := strings.TrimSpace(string(m.Value))
	if raw == "" || raw == "null" || strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return "", fmt.Errorf("%s: value %s is not a string", m.Command, raw)
	}
	return raw, nil
}

// Float decodes a number, accepting numeric strings as sent by range
// inputs.
func (m Message) Float() (float64, error) {
	var f float64
	if err := json.Unmarshal(m.Value, &f); err == nil {
		return f, nil
	}
	s, err := m.Text()
	if err != nil {
		return 0, err
	}
	f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", m.Command, err)
	}
	return f, nil
}

// Bool decodes a boolean, accepting "true"/"false" strings as stored by
// string-only preference stores.
func (m Message) Bool() (bool, error) {
	var b bool
	if err := json.Unmarshal(m.Value, &b); err == nil {
		return b, nil
	}
	s, err := m.Text()
	if err != nil {
		return false, err
	}
	b, err = strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%s: %w", m.Command, err)
	}
	return b, nil
}
