package anchor

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html"

	"InkLayer/internal/geom"
)

// ErrNotMeasured is returned when a layout cannot place a node.
var ErrNotMeasured = errors.New("node not measured")

// Layout reports where the host renders a node, in page coordinates.
type Layout interface {
	Position(ctx context.Context, n *html.Node) (geom.Point, error)
}

// LayoutFunc adapts a function to Layout.
type LayoutFunc func(ctx context.Context, n *html.Node) (geom.Point, error)

func (f LayoutFunc) Position(ctx context.Context, n *html.Node) (geom.Point, error) {
	return f(ctx, n)
}

// StaticLayout knows the page position of some nodes. A node without an
// entry is reported at the position of its nearest known ancestor, which
// is how a zero-size, relatively positioned wrapper lays out at the start
// of its container.
type StaticLayout struct {
	Positions map[*html.Node]geom.Point
}

func NewStaticLayout() *StaticLayout {
	return &StaticLayout{Positions: make(map[*html.Node]geom.Point)}
}

// Set records the position of n.
func (l *StaticLayout) Set(n *html.Node, p geom.Point) {
	l.Positions[n] = p
}

func (l *StaticLayout) Position(_ context.Context, n *html.Node) (geom.Point, error) {
	for cur := n; cur != nil; cur = cur.Parent {
		if p, ok := l.Positions[cur]; ok {
			return p, nil
		}
	}
	return geom.Point{}, fmt.Errorf("%w: no positioned ancestor for <%s>", ErrNotMeasured, n.Data)
}
