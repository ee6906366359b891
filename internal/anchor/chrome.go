package anchor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html"

	"InkLayer/internal/geom"
	"InkLayer/internal/logging"
)

const measureAttr = "data-inklayer-measure"

// measureScript returns the page position of the marked element.
const measureScript = `(() => {
	const el = document.querySelector('[` + measureAttr + `]');
	if (!el) { return null; }
	const r = el.getBoundingClientRect();
	return [r.left + window.scrollX, r.top + window.scrollY];
})()`

// ChromeLayout measures nodes by rendering their whole document in a
// headless Chrome tab.
type ChromeLayout struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewChromeLayout starts a headless browser. Close releases it.
func NewChromeLayout(parent context.Context, opts ...chromedp.ExecAllocatorOption) *ChromeLayout {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	allocOpts = append(allocOpts, opts...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)
	return &ChromeLayout{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
	}
}

func (c *ChromeLayout) Close() {
	c.cancel()
}

// Position renders the document containing n with n marked, and reads the
// marked element's bounding rectangle plus the scroll offset.
func (c *ChromeLayout) Position(ctx context.Context, n *html.Node) (geom.Point, error) {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}

	n.Attr = append(n.Attr, html.Attribute{Key: measureAttr, Val: "1"})
	var buf bytes.Buffer
	err := html.Render(&buf, root)
	n.Attr = removeAttr(n.Attr, measureAttr)
	if err != nil {
		return geom.Point{}, fmt.Errorf("render document for measurement: %w", err)
	}

	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var xy []float64
	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(dataURI),
		chromedp.Evaluate(measureScript, &xy),
	); err != nil {
		return geom.Point{}, fmt.Errorf("chromedp measure: %w", err)
	}
	if len(xy) != 2 {
		return geom.Point{}, fmt.Errorf("%w: element missing from rendered page", ErrNotMeasured)
	}
	logging.Logger().Debug("[anchor] measured in chrome", "x", xy[0], "y", xy[1])
	return geom.Pt(xy[0], xy[1]), nil
}
