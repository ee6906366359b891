package ui

import (
	"context"
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"InkLayer/internal/anchor"
	"InkLayer/internal/channel"
	"InkLayer/internal/ink"
	"InkLayer/internal/overlay"
)

func newBoard(t *testing.T) *BoardWidget {
	t.Helper()
	test.NewTempApp(t)

	doc, err := html.Parse(strings.NewReader(`<html><body><div id="page">text</div></body></html>`))
	require.NoError(t, err)

	preview := ink.NewPreview(320, 240)
	queue := &anchor.Queue{}
	opts := overlay.DefaultOptions()
	opts.Surface = preview
	opts.Scheduler = queue
	o, _, err := overlay.Install(context.Background(), doc, opts)
	require.NoError(t, err)
	t.Cleanup(o.Uninstall)

	b := NewBoardWidget(o, preview, queue)
	b.Resize(fyne.NewSize(320, 240))
	return b
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y, dx, dy float32) *fyne.DragEvent {
	return &fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Dragged:    fyne.NewDelta(dx, dy),
	}
}

func TestBoardWidgetDrawsStroke(t *testing.T) {
	b := newBoard(t)

	b.MouseDown(mouse(10, 10))
	b.Dragged(drag(20, 15, 10, 5))
	b.Dragged(drag(30, 22, 10, 7))
	b.Dragged(drag(40, 30, 10, 8))
	b.MouseUp(mouse(50, 40))
	b.settle()

	require.Equal(t, 1, b.overlay.Board().Len())
	assert.False(t, b.preview.Visible())
}

func TestBoardWidgetMouseOutDiscards(t *testing.T) {
	b := newBoard(t)

	b.MouseDown(mouse(10, 10))
	b.Dragged(drag(20, 15, 10, 5))
	b.MouseOut()
	b.MouseUp(mouse(20, 15))
	b.settle()

	assert.Zero(t, b.overlay.Board().Len())
}

func TestBoardWidgetPansWhenNotDrawing(t *testing.T) {
	b := newBoard(t)
	require.NoError(t, b.overlay.Receive(channel.MustMessage(channel.SetDrawingMode, "mouse", false)))

	b.MouseDown(mouse(10, 10))
	b.Dragged(drag(20, 15, 10, 5))
	b.MouseUp(mouse(20, 15))

	x, y := b.scroll()
	assert.Equal(t, float32(-10), x)
	assert.Equal(t, float32(-5), y)
	assert.Zero(t, b.overlay.Board().Len())
}

func TestToolbarSendsMessages(t *testing.T) {
	test.NewTempApp(t)
	var sent []channel.Message
	tb := NewToolbar(nil, func(m channel.Message) { sent = append(sent, m) })

	swatch := newColorSwatch("blue", tb.sendColor)
	test.Tap(swatch)

	require.Len(t, sent, 1)
	assert.Equal(t, channel.SetToolColor, sent[0].Command)
	assert.True(t, sent[0].Forward)
	color, err := sent[0].Text()
	require.NoError(t, err)
	assert.Equal(t, "#0000ffff", color)
}
