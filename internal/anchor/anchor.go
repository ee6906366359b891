// Package anchor re-homes finalized stroke fragments into the host
// document under a structural ancestor, then corrects the layout shift the
// insertion caused.
package anchor

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"InkLayer/internal/finalize"
	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
)

// containers are the block/flow elements a stroke may be anchored under.
// Inline and text-level elements are never chosen, so insertion cannot
// break text flow.
var containers = map[atom.Atom]bool{
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Th:         true,
	atom.Td:         true,
	atom.Article:    true,
	atom.Blockquote: true,
	atom.Main:       true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Body:       true,
	atom.Section:    true,
	atom.Aside:      true,
	atom.Nav:        true,
}

// IsContainer reports whether n may own a stroke fragment.
func IsContainer(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && containers[n.DataAtom]
}

// Placement describes where a fragment lives and how it was corrected.
type Placement struct {
	ID   string
	Node *html.Node
	// Host is the element the fragment was inserted into; Before is the
	// sibling it was inserted in front of, nil when appended.
	Host   *html.Node
	Before *html.Node
	// Intended is the page position the fragment should appear at.
	Intended geom.Point
	// Correction is the top/left offset applied after layout settled.
	Correction geom.Point
	Settled    bool
}

// Placer inserts fragments into a document.
type Placer struct {
	// Root receives fragments when no structural ancestor exists.
	Root      *html.Node
	Layout    Layout
	Scheduler Scheduler
	// OnSettled runs after the fragment became visible.
	OnSettled func(*Placement)
}

// FindAnchor walks up from start to the nearest container. It returns the
// container and the child of it on the path from start (equal to the
// container when start is one). ok is false when no container exists.
func FindAnchor(start *html.Node) (host, relative *html.Node, ok bool) {
	relative = start
	for cur := start; cur != nil; cur = parentElement(cur) {
		if IsContainer(cur) {
			return cur, relative, true
		}
		relative = cur
	}
	return nil, nil, false
}

func parentElement(n *html.Node) *html.Node {
	if n.Parent == nil || n.Parent.Type != html.ElementNode {
		return nil
	}
	return n.Parent
}

// Place inserts frag, hidden, next to start and schedules the measurement
// pass that moves it to frag.Origin and reveals it.
func (p *Placer) Place(ctx context.Context, frag *finalize.Fragment, start *html.Node) (*Placement, error) {
	node, err := frag.Node()
	if err != nil {
		return nil, err
	}
	setStyle(node, "opacity", "0")

	pl := &Placement{ID: frag.ID, Node: node, Intended: frag.Origin}
	if host, relative, ok := FindAnchor(start); ok {
		pl.Host = host
		if relative != host {
			pl.Before = relative
		}
	} else {
		if p.Root == nil {
			return nil, fmt.Errorf("place stroke %s: no container and no root", frag.ID)
		}
		logging.Logger().Debug("[anchor] no structural ancestor, using root", "stroke", frag.ID)
		pl.Host = p.Root
	}
	pl.Host.InsertBefore(node, pl.Before)

	p.Scheduler.Defer(func() {
		p.Scheduler.NextFrame(func() {
			p.settle(ctx, pl)
		})
	})
	return pl, nil
}

func (p *Placer) settle(ctx context.Context, pl *Placement) {
	if pl.Node.Parent == nil {
		// Erased before layout settled.
		return
	}
	if p.Layout != nil {
		pos, err := p.Layout.Position(ctx, pl.Node)
		if err != nil {
			logging.Logger().Warn("[anchor] measurement failed, showing uncorrected", "stroke", pl.ID, "err", err)
		} else {
			pl.Correction = pl.Intended.Sub(pos)
		}
	}
	setStyle(pl.Node, "top", geom.FormatNumber(pl.Correction.Y)+"px")
	setStyle(pl.Node, "left", geom.FormatNumber(pl.Correction.X)+"px")
	setStyle(pl.Node, "opacity", "1")
	pl.Settled = true
	if p.OnSettled != nil {
		p.OnSettled(pl)
	}
}

// Reattach puts an erased fragment back where it was placed, or appends it
// to its host when the old sibling has moved away.
func (pl *Placement) Reattach() {
	if pl.Node.Parent != nil {
		return
	}
	before := pl.Before
	if before != nil && before.Parent != pl.Host {
		before = nil
	}
	pl.Host.InsertBefore(pl.Node, before)
}

// Detach removes the fragment from the document.
func (pl *Placement) Detach() {
	if pl.Node.Parent != nil {
		pl.Node.Parent.RemoveChild(pl.Node)
	}
}

// setStyle sets one declaration in n's inline style, keeping the others
// in their original order.
func setStyle(n *html.Node, prop, value string) {
	idx := -1
	for i, a := range n.Attr {
		if a.Key == "style" {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: prop + ": " + value})
		return
	}

	decls := strings.Split(n.Attr[idx].Val, ";")
	out := make([]string, 0, len(decls)+1)
	found := false
	for _, d := range decls {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.TrimSpace(name) == prop {
			d = prop + ": " + value
			found = true
		}
		out = append(out, d)
	}
	if !found {
		out = append(out, prop+": "+value)
	}
	n.Attr[idx].Val = strings.Join(out, "; ")
}

// Style returns the value of one inline style declaration of n.
func Style(n *html.Node, prop string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		for _, d := range strings.Split(a.Val, ";") {
			name, val, ok := strings.Cut(d, ":")
			if ok && strings.TrimSpace(name) == prop {
				return strings.TrimSpace(val), true
			}
		}
	}
	return "", false
}

func removeAttr(attrs []html.Attribute, key string) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Key != key {
			out = append(out, a)
		}
	}
	return out
}
