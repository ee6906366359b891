package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"InkLayer/internal/anchor"
	"InkLayer/internal/channel"
	"InkLayer/internal/config"
	"InkLayer/internal/export"
	"InkLayer/internal/finalize"
	"InkLayer/internal/geom"
	"InkLayer/internal/ink"
	"InkLayer/internal/logging"
	inknet "InkLayer/internal/net"
	"InkLayer/internal/overlay"
	"InkLayer/internal/state"
	"InkLayer/internal/ui"
)

const blankPage = `<!DOCTYPE html><html><head><title>InkLayer</title></head><body><main></main></body></html>`

type flags struct {
	doc, out, pdf, config string
	chrome, browse        bool
	verbose               bool
}

func main() {
	var f flags
	flag.StringVar(&f.doc, "doc", "", "HTML document to annotate (blank page when empty)")
	flag.StringVar(&f.out, "out", "", "write the annotated document here on exit")
	flag.StringVar(&f.pdf, "pdf", "", "export the strokes as PDF here on exit")
	flag.StringVar(&f.config, "config", "", "preferences file (default in the user config dir)")
	flag.BoolVar(&f.chrome, "chrome", false, "measure layout in headless Chrome")
	flag.BoolVar(&f.browse, "browse", false, "list relays on the local network and exit")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if f.browse {
		err := inknet.Browse(3*time.Second, func(addr string) {
			fmt.Println(inknet.LinkScheme + addr)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var link string
	if args := flag.Args(); len(args) > 0 && strings.HasPrefix(args[0], inknet.LinkScheme) {
		link = args[0]
	}
	if err := run(ctx, f, link); err != nil {
		logging.Logger().Error("[main] exiting", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, f flags, link string) error {
	path := f.config
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			logging.Logger().Warn("[main] preferences kept in memory", slog.Any("err", err))
		}
	}
	store, err := config.Open(path)
	if err != nil {
		logging.Logger().Warn("[main] using default preferences", slog.Any("err", err))
	}
	prefs := store.Preferences()

	doc, err := loadDocument(f.doc)
	if err != nil {
		return err
	}

	var (
		bus       channel.Bus
		shareLink string
		title     = "InkLayer"
	)
	if link != "" {
		client, err := inknet.Dial(ctx, link)
		if err != nil {
			return err
		}
		defer client.Close()
		bus = client
		title = "InkLayer (joined " + strings.TrimPrefix(link, inknet.LinkScheme) + ")"
		logging.Logger().Info("[main] joined relay", slog.String("link", link), slog.String("as", client.LocalAddr()))
	} else {
		hub, shutdown, err := host(prefs.Relay)
		if err != nil {
			return err
		}
		defer shutdown()
		bus = hub
		ip, err := inknet.GetOutgoingIP()
		if err != nil {
			logging.Logger().Warn("[main] no outgoing address", slog.Any("err", err))
			ip = "127.0.0.1"
		}
		shareLink = inknet.Link(ip, prefs.Relay.Port)
	}

	tools := state.NewToolState()
	preview := ink.NewPreview(1024, 768)
	defer preview.Close()
	queue := &anchor.Queue{}

	opts := overlay.DefaultOptions()
	opts.Finalize = finalize.Options{Padding: prefs.Overlay.Padding, TapFallback: prefs.Overlay.TapFallback}
	opts.MultiStroke = prefs.Overlay.MultiStroke
	opts.Surface = preview
	opts.Scheduler = queue
	opts.Bus = bus
	opts.Tools = tools
	if f.chrome {
		chrome := anchor.NewChromeLayout(ctx)
		defer chrome.Close()
		opts.Layout = chrome
	} else {
		layout := anchor.NewStaticLayout()
		layout.Set(doc, geom.Point{})
		opts.Layout = layout
	}

	o, fresh, err := overlay.Install(ctx, doc, opts)
	if err != nil {
		return err
	}
	if !fresh || o == nil {
		return errors.New("document is already annotated")
	}
	defer o.Uninstall()

	cancelWatch := store.Watch(bus)
	defer cancelWatch()
	for _, m := range prefs.StartupMessages() {
		if err := o.Receive(m); err != nil {
			logging.Logger().Warn("[main] stored preference rejected", slog.String("command", m.Command), slog.Any("err", err))
		}
	}

	send := func(m channel.Message) {
		// Receive relays forwarded messages to the other side of the bus.
		if err := o.Receive(m); err != nil {
			return
		}
		if err := store.Observe(m); err != nil {
			logging.Logger().Warn("[main] preference not saved", slog.String("command", m.Command), slog.Any("err", err))
		}
	}

	board := ui.NewBoardWidget(o, preview, queue)
	ui.RunApp(ui.AppOptions{
		Title:     title,
		ShareLink: shareLink,
		Board:     board,
		Toolbar:   ui.NewToolbar(tools, send),
	})

	return writeOutputs(f, o)
}

// host starts the relay hub and, if enabled, announces it over mDNS.
func host(cfg config.RelayConfig) (*inknet.Hub, func(), error) {
	hub := inknet.NewHub()
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Logger().Info("[relay] listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger().Error("[relay] server stopped", slog.Any("err", err))
		}
	}()

	var stopAdvert func() error
	if cfg.Advertise {
		server, err := inknet.Advertise(cfg.Port)
		if err != nil {
			logging.Logger().Warn("[relay] not advertised", slog.Any("err", err))
		} else {
			stopAdvert = server.Shutdown
		}
	}

	shutdown := func() {
		if stopAdvert != nil {
			stopAdvert()
		}
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return hub, shutdown, nil
}

func loadDocument(path string) (*html.Node, error) {
	data := []byte(blankPage)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read document: %w", err)
		}
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return doc, nil
}

func writeOutputs(f flags, o *overlay.Overlay) error {
	var errs []error
	if f.out != "" {
		var buf bytes.Buffer
		if err := o.Render(&buf); err != nil {
			errs = append(errs, fmt.Errorf("render document: %w", err))
		} else if err := os.WriteFile(f.out, buf.Bytes(), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("write document: %w", err))
		}
	}
	if f.pdf != "" {
		file, err := os.Create(f.pdf)
		if err != nil {
			errs = append(errs, fmt.Errorf("create pdf: %w", err))
		} else {
			if err := export.WritePDF(file, o.Board().Entries()); err != nil {
				errs = append(errs, fmt.Errorf("export pdf: %w", err))
			}
			if err := file.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
