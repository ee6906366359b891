package finalize

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
)

// StrokeClass marks the wrapper element of every committed stroke.
const StrokeClass = "inklayer-stroke"

// PathData serialises ops as an SVG path description, closed with Z.
func PathData(ops []ink.Op) string {
	parts := make([]string, 0, len(ops)+1)
	for _, op := range ops {
		pts := make([]string, len(op.Points))
		for i, p := range op.Points {
			pts[i] = geom.FormatNumber(p.X) + " " + geom.FormatNumber(p.Y)
		}
		parts = append(parts, op.Kind.Command()+" "+strings.Join(pts, ", "))
	}
	parts = append(parts, "Z")
	return strings.Join(parts, " ")
}

// Markup renders the fragment's SVG container. The output depends only on
// the fragment, so identical strokes give identical bytes.
func Markup(f *Fragment) string {
	color := html.EscapeString(f.Color)
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d">`, f.Width, f.Height)
	for _, path := range f.Paths {
		fmt.Fprintf(&b, `<path d="%s" stroke="%s" fill="%s"/>`, PathData(path), color, color)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// Node builds a detached wrapper element holding the parsed SVG, ready to
// be inserted into a host document.
func (f *Fragment) Node() (*html.Node, error) {
	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: StrokeClass},
			{Key: "data-stroke-id", Val: f.ID},
		},
	}
	nodes, err := html.ParseFragment(strings.NewReader(f.Markup), wrapper)
	if err != nil {
		return nil, fmt.Errorf("parse stroke %s markup: %w", f.ID, err)
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return wrapper, nil
}
