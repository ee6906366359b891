package overlay

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"InkLayer/internal/finalize"
	"InkLayer/internal/input"
)

const (
	// StyleID is the id of the injected stylesheet. Its presence marks a
	// document as already annotated.
	StyleID = "inklayer-style"
	// NoTouchScrollClass is set on the document root while touch contacts
	// draw instead of scrolling.
	NoTouchScrollClass = "inklayer-no-touch-scroll"
	PreviewClass       = "inklayer-preview"
)

// Stylesheet positions stroke wrappers without affecting host layout.
var Stylesheet = strings.NewReplacer(
	"$stroke", finalize.StrokeClass,
	"$preview", PreviewClass,
	"$noTouch", NoTouchScrollClass,
	"$controls", input.ControlsClass,
	"$z", "4096",
	"$zStroke", "4092",
).Replace(`
.$preview {
	position: fixed;
	top: 0; left: 0; right: 0; bottom: 0;
	width: 100%; height: 100%;
	pointer-events: none;
	z-index: $z;
}
.$noTouch, .$noTouch * {
	touch-action: pinch-zoom !important;
}
:not(.$noTouch) .$stroke {
	pointer-events: none;
}
.$stroke {
	overflow: visible;
	width: 0; height: 0;
	padding: 0; margin: 0;
	position: relative;
	z-index: $zStroke;
}
.$stroke > svg {
	position: absolute;
	top: 0; left: 0;
	max-width: unset !important;
	height: auto; width: auto;
}
.$controls {
	z-index: $z;
}
`)

func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

func byAtom(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func byID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool { return attr(n, "id") == id }
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n carries class.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

func setClass(n *html.Node, class string, on bool) {
	classes := strings.Fields(attr(n, "class"))
	has := slices.Contains(classes, class)
	switch {
	case on && !has:
		classes = append(classes, class)
	case !on && has:
		classes = slices.DeleteFunc(classes, func(c string) bool { return c == class })
	default:
		return
	}
	val := strings.Join(classes, " ")
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: val})
}

func newStyleElement() *html.Node {
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: StyleID}},
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: Stylesheet})
	return style
}
