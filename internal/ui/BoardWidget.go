package ui

import (
	"image/color"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/net/html"

	"InkLayer/internal/anchor"
	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/input"
	"InkLayer/internal/logging"
	"InkLayer/internal/overlay"
)

// mousePointer is the pointer id used for the desktop mouse.
const mousePointer = 1

// BoardWidget shows a document's ink layer and feeds it mouse input. The
// committed strokes are painted on a page raster; the live preview is
// composited above it while a stroke is drawn.
type BoardWidget struct {
	widget.BaseWidget

	overlay *overlay.Overlay
	preview *ink.Preview
	page    *ink.Preview
	queue   *anchor.Queue

	mu               sync.RWMutex
	scrollX, scrollY float32
	size             fyne.Size
	drawing          bool
	start            time.Time

	// TargetAt maps a page position to the element under it. Nil leaves
	// placement to the overlay's root.
	TargetAt func(geom.Point) *html.Node
	// OnCommitted runs after a stroke settled or was erased.
	OnCommitted func()
	// OnResize reports the widget size, for panels that keep a relative
	// position.
	OnResize func(fyne.Size)

	statusBar *widget.Label
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

// NewBoardWidget binds o to a widget. preview must be the surface o was
// installed with and queue its scheduler.
func NewBoardWidget(o *overlay.Overlay, preview *ink.Preview, queue *anchor.Queue) *BoardWidget {
	b := &BoardWidget{
		overlay:   o,
		preview:   preview,
		page:      ink.NewPreview(1024, 768),
		queue:     queue,
		start:     time.Now(),
		statusBar: widget.NewLabel("Ready"),
	}
	b.ExtendBaseWidget(b)
	return b
}

// StatusBar is the label SetStatus writes to.
func (b *BoardWidget) StatusBar() *widget.Label { return b.statusBar }

func (b *BoardWidget) SetStatus(text string) {
	fyne.Do(func() {
		b.statusBar.SetText(text)
	})
}

func (b *BoardWidget) scroll() (float32, float32) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scrollX, b.scrollY
}

// dispatch converts a widget position into an overlay event and reports
// whether the overlay consumed it.
func (b *BoardWidget) dispatch(typ input.EventType, pos fyne.Position) bool {
	sx, sy := b.scroll()
	x, y := float64(pos.X+sx), float64(pos.Y+sy)
	ev := input.Event{
		Type:      typ,
		PointerID: mousePointer,
		Kind:      input.Mouse,
		Primary:   true,
		X:         x,
		Y:         y,
		ClientX:   float64(pos.X),
		ClientY:   float64(pos.Y),
		Time:      float64(time.Since(b.start).Microseconds()) / 1000,
	}
	if b.TargetAt != nil {
		ev.Target = b.TargetAt(geom.Pt(x, y))
	}
	consumed := b.overlay.HandleEvent(ev)
	logging.Logger().Debug("[ui] event", slog.String("event", ev.String()), slog.Bool("consumed", consumed))
	return consumed
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	consumed := b.dispatch(input.Down, e.Position)
	b.mu.Lock()
	b.drawing = consumed
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.mu.Lock()
	wasDrawing := b.drawing
	b.drawing = false
	b.mu.Unlock()
	if !wasDrawing {
		return
	}
	b.dispatch(input.Up, e.Position)
	// Measurement happens a frame after insertion.
	fyne.Do(b.settle)
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.mu.RLock()
	drawing := b.drawing
	b.mu.RUnlock()
	if drawing {
		b.dispatch(input.Move, e.Position)
		b.Refresh()
		return
	}
	b.mu.Lock()
	b.scrollX -= e.Dragged.DX
	b.scrollY -= e.Dragged.DY
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

// MouseOut abandons a stroke in progress.
func (b *BoardWidget) MouseOut() {
	b.mu.Lock()
	wasDrawing := b.drawing
	b.drawing = false
	b.mu.Unlock()
	if wasDrawing {
		b.dispatch(input.Leave, fyne.Position{})
		b.Refresh()
	}
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.mu.Lock()
	b.scrollX -= e.Scrolled.DX
	b.scrollY -= e.Scrolled.DY
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) settle() {
	b.queue.Flush()
	b.Refresh()
	if b.OnCommitted != nil {
		b.OnCommitted()
	}
}

// paintPage redraws the committed strokes at the current scroll offset.
func (b *BoardWidget) paintPage() {
	sx, sy := b.scroll()
	offset := geom.Pt(-float64(sx), -float64(sy))
	b.page.Clear()
	for _, e := range b.overlay.Board().Entries() {
		f := e.Fragment
		shift := f.Origin.Add(offset)
		for _, path := range f.Paths {
			ops := make([]ink.Op, len(path))
			for i, op := range path {
				ops[i] = op.Translate(shift)
			}
			if err := b.page.Fill(ops, f.RGBA.NRGBA()); err != nil {
				logging.Logger().Warn("[ui] paint stroke failed", slog.String("stroke", f.ID), slog.Any("err", err))
				break
			}
		}
	}
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(color.White)
	r.page = canvas.NewImageFromImage(b.page.Image())
	r.page.FillMode = canvas.ImageFillStretch
	r.preview = canvas.NewImageFromImage(b.preview.Image())
	r.preview.FillMode = canvas.ImageFillStretch
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	page       *canvas.Image
	preview    *canvas.Image
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.background, r.page, r.preview}
}

func (r *boardWidgetRenderer) Refresh() {
	r.board.paintPage()
	r.page.Image = r.board.page.Image()
	r.preview.Image = r.board.preview.Image()
	r.preview.Hidden = !r.board.preview.Visible()
	r.page.Refresh()
	r.preview.Refresh()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Destroy() {
	r.board.page.Close()
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	r.page.Resize(size)
	r.preview.Resize(size)

	b := r.board
	b.mu.Lock()
	changed := size != b.size
	b.size = size
	b.mu.Unlock()
	if !changed || size.Width < 1 || size.Height < 1 {
		return
	}
	w, h := int(size.Width), int(size.Height)
	for _, p := range []*ink.Preview{b.page, b.preview} {
		if err := p.Resize(w, h); err != nil {
			logging.Logger().Warn("[ui] resize raster failed", slog.Int("width", w), slog.Int("height", h), slog.Any("err", err))
		}
	}
	if b.OnResize != nil {
		b.OnResize(size)
	}
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}
