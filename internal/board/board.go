// Package board keeps the strokes committed to a host document and applies
// reversible actions to them.
package board

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"InkLayer/internal/anchor"
	"InkLayer/internal/finalize"
	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
)

// Entry is one committed stroke.
type Entry struct {
	Fragment  *finalize.Fragment
	Placement *anchor.Placement
	Lamport   uint64
	Site      string
	CreatedAt time.Time
}

// ID returns the stroke ID.
func (e *Entry) ID() string { return e.Fragment.ID }

// Bounds returns the page area covered by the fragment's container.
func (e *Entry) Bounds() geom.Box {
	var b geom.Box
	b.Add(e.Fragment.Origin)
	b.Add(e.Fragment.Origin.Add(geom.Pt(float64(e.Fragment.Width), float64(e.Fragment.Height))))
	return b
}

// Board is the set of strokes currently committed to one document.
type Board struct {
	siteID  string
	clock   Clock
	entries map[string]*Entry
	mu      sync.RWMutex
}

func NewBoard() *Board {
	return &Board{
		siteID:  uuid.NewString(),
		entries: make(map[string]*Entry),
	}
}

// SiteID identifies this overlay instance.
func (b *Board) SiteID() string { return b.siteID }

// NewEntry stamps a freshly placed fragment with the next logical time.
// It is not part of the board until a StrokeCreated action is applied.
func (b *Board) NewEntry(frag *finalize.Fragment, pl *anchor.Placement) *Entry {
	return &Entry{
		Fragment:  frag,
		Placement: pl,
		Lamport:   b.clock.Tick(),
		Site:      b.siteID,
		CreatedAt: time.Now(),
	}
}

// Apply performs a and reports whether the board changed. Creating a
// stroke that is present, or erasing one that is absent, is a no-op.
func (b *Board) Apply(a Action) (bool, error) {
	e := a.Target()
	if e == nil || e.Fragment == nil || e.Placement == nil {
		return false, fmt.Errorf("apply %T: incomplete entry", a)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_, exists := b.entries[e.ID()]
	switch a.(type) {
	case StrokeCreated:
		if exists {
			logging.Logger().Debug("[board] stroke already present", "stroke", e.ID())
			return false, nil
		}
		e.Placement.Reattach()
		b.entries[e.ID()] = e
	case StrokeErased:
		if !exists {
			return false, nil
		}
		e.Placement.Detach()
		delete(b.entries, e.ID())
	}
	logging.Logger().Info("[board] applied", slog.String("action", fmt.Sprintf("%T", a)), slog.String("stroke", e.ID()))
	return true, nil
}

// Entries returns the committed strokes oldest first.
func (b *Board) Entries() []*Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lamport < out[j].Lamport })
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// At returns the most recently committed stroke whose container lies
// within radius of p.
func (b *Board) At(p geom.Point, radius float64) (*Entry, bool) {
	var area geom.Box
	area.Add(p)
	hits := b.Overlapping(area.Pad(radius))
	if len(hits) == 0 {
		return nil, false
	}
	return hits[len(hits)-1], true
}

// Overlapping returns the strokes whose containers intersect area, oldest
// first.
func (b *Board) Overlapping(area geom.Box) []*Entry {
	var out []*Entry
	for _, e := range b.Entries() {
		if e.Bounds().Overlaps(area) {
			out = append(out, e)
		}
	}
	return out
}
