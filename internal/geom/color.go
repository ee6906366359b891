package geom

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrInvalidColor is returned for color strings that cannot be parsed.
var ErrInvalidColor = errors.New("invalid color")

// Quadruple is an (r, g, b, a) color with 0..255 components.
type Quadruple [4]uint8

// NRGBA converts q to a non-premultiplied color.
func (q Quadruple) NRGBA() color.NRGBA {
	return color.NRGBA{R: q[0], G: q[1], B: q[2], A: q[3]}
}

// Palette names recognised before falling back to the CSS name table.
// Several differ from CSS on purpose (gray, purple, orange).
var namedQuadruples = map[string]Quadruple{
	"red":    {255, 0, 0, 255},
	"green":  {0, 255, 0, 255},
	"blue":   {0, 0, 255, 255},
	"white":  {255, 255, 255, 255},
	"black":  {0, 0, 0, 255},
	"gray":   {100, 100, 100, 255},
	"yellow": {255, 255, 0, 255},
	"purple": {255, 0, 255, 255},
	"orange": {255, 200, 50, 255},
}

// ParseColor converts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() or a
// named color into a Quadruple. An empty string is black.
func ParseColor(s string) (Quadruple, error) {
	s = strings.TrimSpace(s)
	if q, ok := namedQuadruples[strings.ToLower(s)]; ok {
		return q, nil
	}
	if s == "" {
		return namedQuadruples["black"], nil
	}

	switch {
	case s[0] == '#':
		return parseHexColor(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFunctionalColor(s)
	}

	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return Quadruple{c.R, c.G, c.B, c.A}, nil
	}
	return Quadruple{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// ColorOrDefault parses s and returns def when s is malformed.
func ColorOrDefault(s string, def Quadruple) Quadruple {
	q, err := ParseColor(s)
	if err != nil {
		return def
	}
	return q
}

func parseHexColor(s string) (Quadruple, error) {
	digits := s[1:]
	nibble := func(i int) (uint8, error) {
		v, err := strconv.ParseUint(digits[i:i+1], 16, 8)
		return uint8(v) * 16, err
	}
	pair := func(i int) (uint8, error) {
		v, err := strconv.ParseUint(digits[i:i+2], 16, 8)
		return uint8(v), err
	}

	var (
		q    = Quadruple{0, 0, 0, 255}
		read func(int) (uint8, error)
		step int
	)
	switch len(digits) {
	case 3, 4:
		read, step = nibble, 1
	case 6, 8:
		read, step = pair, 2
	default:
		return Quadruple{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	for i := 0; i*step < len(digits); i++ {
		v, err := read(i * step)
		if err != nil {
			return Quadruple{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		q[i] = v
	}
	return q, nil
}

func parseFunctionalColor(s string) (Quadruple, error) {
	expected, start := 3, len("rgb(")
	if strings.HasPrefix(s, "rgba(") {
		expected, start = 4, len("rgba(")
	} else if !strings.HasPrefix(s, "rgb(") {
		return Quadruple{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if !strings.HasSuffix(s, ")") {
		return Quadruple{}, fmt.Errorf("%w: %q: missing ')'", ErrInvalidColor, s)
	}

	parts := strings.Split(s[start:len(s)-1], ",")
	if len(parts) != expected {
		return Quadruple{}, fmt.Errorf("%w: %q has %d components, want %d", ErrInvalidColor, s, len(parts), expected)
	}

	q := Quadruple{0, 0, 0, 255}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Quadruple{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
		}
		q[i] = uint8(Clamp(math.Floor(v), 0, 255))
	}
	return q, nil
}

// ToHex formats n in lower-case hexadecimal, left-padded with zeros to
// padTo digits.
func ToHex(n uint64, padTo int) string {
	s := strconv.FormatUint(n, 16)
	if n == 0 {
		s = ""
	}
	if len(s) < padTo {
		s = strings.Repeat("0", padTo-len(s)) + s
	}
	return s
}

// QuadrupleToHex formats q as rrggbbaa without a leading '#'.
func QuadrupleToHex(q Quadruple) string {
	var b strings.Builder
	for _, c := range q {
		b.WriteString(ToHex(uint64(c), 2))
	}
	return b.String()
}
