package overlay

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"InkLayer/internal/anchor"
	"InkLayer/internal/board"
	"InkLayer/internal/finalize"
	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/logging"
)

func (o *Overlay) Begin(pointer int, target *html.Node, s ink.Sample) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := ink.NewStroke(uuid.NewString(), pointer)
	if len(o.strokes) == 0 {
		o.withSurface(func(sf ink.Surface) {
			sf.Clear()
			sf.Show()
		})
	}
	o.strokes[pointer] = &active{stroke: st, target: target}
	o.drawing.Store(int32(len(o.strokes)))
	return o.engine.ContinueStroke(st, s)
}

func (o *Overlay) Continue(pointer int, s ink.Sample) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.strokes[pointer]
	if !ok {
		return fmt.Errorf("pointer %d has no stroke", pointer)
	}
	return o.engine.ContinueStroke(a.stroke, s)
}

// End closes the stroke of pointer and commits it to the document.
func (o *Overlay) End(pointer int, s ink.Sample) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.strokes[pointer]
	if !ok {
		return fmt.Errorf("pointer %d has no stroke", pointer)
	}
	o.forget(pointer)

	if err := o.engine.ContinueStroke(a.stroke, s); err != nil {
		logging.Logger().Warn("[overlay] preview failed", slog.String("stroke", a.stroke.ID), slog.Any("err", err))
	}

	frag, ok := finalize.Finalize(a.stroke, o.tools.Snapshot(), o.opts.Finalize)
	if !ok {
		logging.Logger().Debug("[overlay] degenerate stroke dropped", slog.String("stroke", a.stroke.ID))
		o.hidePreviewIfIdle()
		return nil
	}

	pl, err := o.placer.Place(o.ctx, frag, a.target)
	if err != nil {
		o.hidePreviewIfIdle()
		return fmt.Errorf("commit stroke %s: %w", frag.ID, err)
	}
	if _, err := o.board.Apply(board.StrokeCreated{Entry: o.board.NewEntry(frag, pl)}); err != nil {
		return fmt.Errorf("commit stroke %s: %w", frag.ID, err)
	}
	return nil
}

// Abort discards the stroke of pointer.
func (o *Overlay) Abort(pointer int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.strokes[pointer]; !ok {
		return
	}
	o.forget(pointer)
	o.hidePreviewIfIdle()
}

// EraserRadius is how far from the pointer a stroke container may lie and
// still be erased, in CSS pixels.
const EraserRadius = 4.0

// EraseAt removes the newest committed stroke within EraserRadius of p.
func (o *Overlay) EraseAt(p geom.Point) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.board.At(p, EraserRadius)
	if !ok {
		return nil
	}
	_, err := o.board.Apply(board.StrokeErased{Entry: e})
	return err
}

func (o *Overlay) forget(pointer int) {
	delete(o.strokes, pointer)
	o.drawing.Store(int32(len(o.strokes)))
}

// settled runs from the scheduler once a placement is visible; the
// committed shape now replaces the preview.
func (o *Overlay) settled(pl *anchor.Placement) {
	logging.Logger().Debug("[overlay] stroke settled", slog.String("stroke", pl.ID), slog.Float64("dx", pl.Correction.X), slog.Float64("dy", pl.Correction.Y))
	o.hidePreviewIfIdle()
}

func (o *Overlay) hidePreviewIfIdle() {
	if o.drawing.Load() > 0 {
		return
	}
	o.withSurface(func(sf ink.Surface) {
		sf.Hide()
		sf.Clear()
	})
}

func (o *Overlay) withSurface(fn func(ink.Surface)) {
	if sf := o.engine.Surface(); sf != nil {
		fn(sf)
	}
}
