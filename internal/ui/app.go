// Package ui is the desktop shell: a window showing a document's ink
// layer with a floating, draggable toolbar.
package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"InkLayer/internal/export"
	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
	"InkLayer/internal/toolbox"
)

type AppOptions struct {
	Title string
	// ShareLink is shown in the status bar when hosting a relay.
	ShareLink string
	Board     *BoardWidget
	Toolbar   *Toolbar
}

// RunApp shows the window and blocks until it closes.
func RunApp(opts AppOptions) {
	myApp := app.NewWithID("inklayer")
	myWindow := myApp.NewWindow(opts.Title)
	myWindow.Resize(fyne.NewSize(1024, 768))

	board := opts.Board
	opts.Toolbar.OnExport = func() { exportDialog(myWindow, board) }

	panel := toolbox.NewPanel(geom.Pt(50, 6), geom.Point{}, geom.Pt(1024, 768))
	floating := container.NewWithoutLayout()
	var bar fyne.CanvasObject
	place := func() {
		tl := panel.TopLeftPx()
		bar.Move(fyne.NewPos(float32(tl.X), float32(tl.Y)))
	}
	dragger := toolbox.NewDragger(func(dx, dy float64) {
		panel.MoveBy(dx, dy)
		place()
	})
	bar = opts.Toolbar.Object(dragger)
	bar.Resize(bar.MinSize())
	floating.Add(bar)

	board.OnResize = func(size fyne.Size) {
		barSize := bar.MinSize()
		panel.Resize(geom.Pt(float64(barSize.Width), float64(barSize.Height)), geom.Pt(float64(size.Width), float64(size.Height)))
		place()
	}
	board.OnCommitted = func() {
		board.SetStatus(fmt.Sprintf("%d strokes", board.overlay.Board().Len()))
	}

	var status fyne.CanvasObject = board.StatusBar()
	if opts.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(opts.ShareLink)
		status = container.NewBorder(nil, nil, widget.NewLabel("Join link:"), board.StatusBar(), link)
	}

	content := container.NewBorder(nil, status, nil, nil, container.NewStack(board, floating))
	myWindow.SetContent(content)
	myWindow.ShowAndRun()
}

func exportDialog(win fyne.Window, board *BoardWidget) {
	save := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, win)
			return
		}
		if writer == nil {
			return
		}
		defer func() {
			if err := writer.Close(); err != nil {
				logging.Logger().Warn("[ui] close export file", slog.Any("err", err))
			}
		}()

		entries := board.overlay.Board().Entries()
		if err := export.WritePDF(writer, entries); err != nil {
			board.SetStatus("Export failed: " + err.Error())
			logging.Logger().Error("[ui] pdf export failed", slog.String("uri", writer.URI().String()), slog.Any("err", err))
			return
		}
		board.SetStatus(fmt.Sprintf("Exported %d strokes", len(entries)))
	}, win)
	save.SetFileName("annotations.pdf")
	save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	save.Show()
}
