// Package overlay installs the ink layer into a host document and runs
// the stroke lifecycle from pointer input to committed SVG.
package overlay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"InkLayer/internal/anchor"
	"InkLayer/internal/board"
	"InkLayer/internal/channel"
	"InkLayer/internal/finalize"
	"InkLayer/internal/ink"
	"InkLayer/internal/input"
	"InkLayer/internal/logging"
	"InkLayer/internal/state"
)

type Options struct {
	Finalize    finalize.Options
	MultiStroke bool

	// Surface shows the live preview. Nil draws no preview.
	Surface   ink.Surface
	Layout    anchor.Layout
	Scheduler anchor.Scheduler
	Capturer  input.Capturer
	// Bus delivers configuration messages. Nil means messages only come
	// through Receive.
	Bus channel.Bus
	// Tools is shared with other overlays when set.
	Tools *state.ToolState
}

func DefaultOptions() Options {
	return Options{
		Finalize:    finalize.DefaultOptions(),
		MultiStroke: true,
		Scheduler:   &anchor.Queue{},
	}
}

var (
	registryMu sync.Mutex
	registry   = map[*html.Node]*Overlay{}
)

// IsInstalled reports whether doc already carries an ink layer.
func IsInstalled(doc *html.Node) bool {
	registryMu.Lock()
	_, ok := registry[doc]
	registryMu.Unlock()
	return ok || findElement(doc, byID(StyleID)) != nil
}

// Install adds the ink layer to doc. Installing twice is a no-op: the
// existing overlay is returned with fresh set to false. A document marked
// by a layer this process does not own yields a nil overlay.
func Install(ctx context.Context, doc *html.Node, opts Options) (o *Overlay, fresh bool, err error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := registry[doc]; ok {
		logging.Logger().Info("[overlay] already running")
		return existing, false, nil
	}
	if findElement(doc, byID(StyleID)) != nil {
		logging.Logger().Info("[overlay] document already annotated by another instance")
		return nil, false, nil
	}

	root := findElement(doc, byAtom(atom.Html))
	if root == nil {
		return nil, false, fmt.Errorf("install overlay: document has no root element")
	}
	host := findElement(root, byAtom(atom.Body))
	if host == nil {
		host = root
	}

	if opts.Tools == nil {
		opts.Tools = state.NewToolState()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = &anchor.Queue{}
	}

	o = &Overlay{
		ctx:     ctx,
		doc:     doc,
		root:    root,
		opts:    opts,
		tools:   opts.Tools,
		board:   board.NewBoard(),
		strokes: make(map[int]*active),
	}
	o.engine = ink.NewEngine(opts.Surface, o.tools)
	o.placer = &anchor.Placer{
		Root:      host,
		Layout:    opts.Layout,
		Scheduler: opts.Scheduler,
		OnSettled: o.settled,
	}
	o.sampler = input.NewSampler(o.tools, o, opts.Capturer)
	o.sampler.MultiStroke = opts.MultiStroke
	o.channel = channel.New(o.tools, opts.Bus)
	o.channel.OnApplied = o.applied
	o.detachBus = o.channel.Attach()

	o.style = newStyleElement()
	root.AppendChild(o.style)
	o.syncTouchClass()

	registry[doc] = o
	logging.Logger().Info("[overlay] installed", slog.String("site", o.board.SiteID()))
	return o, true, nil
}

type active struct {
	stroke *ink.Stroke
	target *html.Node
}

// Overlay is the ink layer of one document. Its methods may be called
// from any goroutine; they are serialised internally.
type Overlay struct {
	ctx  context.Context
	doc  *html.Node
	root *html.Node
	opts Options

	tools   *state.ToolState
	engine  *ink.Engine
	sampler *input.Sampler
	placer  *anchor.Placer
	board   *board.Board
	channel *channel.Channel

	style     *html.Node
	detachBus func()

	mu      sync.Mutex
	strokes map[int]*active
	// drawing mirrors len(strokes) for callbacks that must not take mu.
	drawing atomic.Int32
}

func (o *Overlay) Document() *html.Node        { return o.doc }
func (o *Overlay) Board() *board.Board         { return o.board }
func (o *Overlay) Tools() *state.ToolState     { return o.tools }
func (o *Overlay) Sampler() *input.Sampler     { return o.sampler }
func (o *Overlay) Channel() *channel.Channel   { return o.channel }
func (o *Overlay) Scheduler() anchor.Scheduler { return o.opts.Scheduler }

// HandleEvent feeds a pointer event to the sampler and reports whether the
// host should suppress its default handling.
func (o *Overlay) HandleEvent(ev input.Event) bool {
	return o.sampler.HandleEvent(ev)
}

// Receive applies a configuration message.
func (o *Overlay) Receive(m channel.Message) error {
	return o.channel.Receive(m)
}

// Render writes the annotated document.
func (o *Overlay) Render(w io.Writer) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return html.Render(w, o.doc)
}

// Uninstall removes the stylesheet and root class and forgets the
// document. Committed strokes stay in place.
func (o *Overlay) Uninstall() {
	registryMu.Lock()
	defer registryMu.Unlock()
	o.detachBus()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.style.Parent != nil {
		o.style.Parent.RemoveChild(o.style)
	}
	setClass(o.root, NoTouchScrollClass, false)
	delete(registry, o.doc)
}

func (o *Overlay) applied(m channel.Message) {
	switch m.Command {
	case channel.SetTouchDrawEnabled, channel.SetDrawingMode:
		o.mu.Lock()
		o.syncTouchClass()
		o.mu.Unlock()
	}
}

// syncTouchClass stops touch scrolling while touches would draw.
func (o *Overlay) syncTouchClass() {
	tool := o.tools.Snapshot()
	setClass(o.root, NoTouchScrollClass, tool.Accepting && tool.TouchDraw)
}
