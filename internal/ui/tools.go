package ui

import (
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkLayer/internal/channel"
	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
	"InkLayer/internal/state"
	"InkLayer/internal/toolbox"
)

// Palette is the set of swatches offered in the toolbar.
var Palette = []string{"black", "red", "green", "blue", "yellow", "purple", "orange"}

type colorSwatch struct {
	widget.BaseWidget
	Name     string
	Color    color.Color
	OnTapped func(name string)
}

func newColorSwatch(name string, tapped func(string)) *colorSwatch {
	q := geom.ColorOrDefault(name, geom.Quadruple{0, 0, 0, 255})
	s := &colorSwatch{Name: name, Color: q.NRGBA(), OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Name)
	}
}

// dragHandle moves the floating toolbar through a toolbox.Dragger.
type dragHandle struct {
	widget.Icon
	dragger *toolbox.Dragger
	last    fyne.Position
}

func newDragHandle(d *toolbox.Dragger) *dragHandle {
	h := &dragHandle{dragger: d}
	h.Resource = theme.MenuIcon()
	h.ExtendBaseWidget(h)
	return h
}

func (h *dragHandle) Dragged(e *fyne.DragEvent) {
	p := geom.Pt(float64(e.AbsolutePosition.X), float64(e.AbsolutePosition.Y))
	if !h.dragger.Dragging() {
		h.dragger.Down(p.Sub(geom.Pt(float64(e.Dragged.DX), float64(e.Dragged.DY))))
	}
	h.dragger.Move(p)
	h.last = e.AbsolutePosition
}

func (h *dragHandle) DragEnd() {
	h.dragger.Up(geom.Pt(float64(h.last.X), float64(h.last.Y)))
}

// Toolbar holds the tool controls. Every change is sent as a
// configuration message rather than written to the tool state directly.
type Toolbar struct {
	Send     func(channel.Message)
	OnExport func()

	tools *state.ToolState
}

func NewToolbar(tools *state.ToolState, send func(channel.Message)) *Toolbar {
	return &Toolbar{tools: tools, Send: send}
}

func (t *Toolbar) send(command string, value any) {
	m, err := channel.NewMessage(command, value, true)
	if err != nil {
		logging.Logger().Warn("[ui] message not sent", slog.String("command", command), slog.Any("err", err))
		return
	}
	t.Send(m)
}

func (t *Toolbar) sendColor(name string) {
	q := geom.ColorOrDefault(name, geom.Quadruple{0, 0, 0, 255})
	t.send(channel.SetToolColor, "#"+geom.QuadrupleToHex(q))
}

// Object builds the toolbar with a drag handle wired to dragger.
func (t *Toolbar) Object(dragger *toolbox.Dragger) fyne.CanvasObject {
	current := t.tools.Snapshot()

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			t.send(channel.SetDrawingMode, string(state.ModePencil))
		}),
		widget.NewToolbarAction(theme.ColorPaletteIcon(), func() {
			t.send(channel.SetDrawingMode, string(state.ModeCalligraphy))
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			t.send(channel.SetDrawingMode, string(state.ModeEraser))
		}),
		widget.NewToolbarAction(theme.VisibilityOffIcon(), func() {
			t.send(channel.SetDrawingMode, string(state.ModeMouse))
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			if t.OnExport != nil {
				t.OnExport()
			}
		}),
	)

	swatches := make([]fyne.CanvasObject, 0, len(Palette))
	for _, name := range Palette {
		swatches = append(swatches, newColorSwatch(name, t.sendColor))
	}
	colorBox := container.NewHBox(swatches...)

	thickness := widget.NewSlider(0.1, 5.0)
	thickness.Step = 0.1
	thickness.SetValue(current.Width)
	thickness.OnChangeEnded = func(val float64) {
		t.send(channel.SetToolThickness, val)
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), thickness)

	touch := widget.NewCheck("Touch draws", nil)
	touch.SetChecked(current.TouchDraw)
	touch.OnChanged = func(on bool) {
		t.send(channel.SetTouchDrawEnabled, on)
	}

	bg := canvas.NewRectangle(theme.Color(theme.ColorNameBackground))
	bg.StrokeColor = color.Gray{Y: 150}
	bg.StrokeWidth = 1

	return container.NewStack(bg, container.NewHBox(
		newDragHandle(dragger),
		tb,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		touch,
	))
}
