// Package net relays configuration messages between processes over
// websockets and finds relays on the local network with mDNS.
package net

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"InkLayer/internal/channel"
	"InkLayer/internal/logging"
)

const (
	// LinkScheme prefixes join links handed out by a host.
	LinkScheme = "inklayer://"
	// Path is where the hub accepts websocket connections.
	Path        = "/ws"
	DefaultPort = 8888
)

var ErrClosed = errors.New("relay closed")

// peer is one websocket connection. gorilla allows a single concurrent
// writer, so writes go through mu.
type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) send(m channel.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(m)
}

// subscribers is the fan-out shared by Hub and Client.
type subscribers struct {
	local *channel.LocalBus
}

func newSubscribers() subscribers { return subscribers{local: channel.NewLocalBus()} }

func (s subscribers) Subscribe(fn func(channel.Message)) func() { return s.local.Subscribe(fn) }

func (s subscribers) deliver(m channel.Message) { _ = s.local.Publish(m) }

// Hub is run by the host. Every peer message is delivered to local
// subscribers; Publish sends to all connected peers.
type Hub struct {
	subscribers
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	peers  map[*peer]bool
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subscribers: newSubscribers(),
		upgrader: websocket.Upgrader{
			// Peers are local tools, not browsers on other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		peers: make(map[*peer]bool),
	}
}

// Handler returns an http.Handler serving the hub at Path.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, h)
	return mux
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("[relay] upgrade failed", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
		return
	}
	p := &peer{conn: conn}
	if !h.add(p) {
		conn.Close()
		return
	}
	defer h.remove(p)

	for {
		var m channel.Message
		if err := conn.ReadJSON(&m); err != nil {
			logging.Logger().Info("[relay] peer disconnected", slog.String("remote", r.RemoteAddr), slog.Any("err", err))
			return
		}
		logging.Logger().Debug("[relay] received", slog.String("command", m.Command), slog.String("remote", r.RemoteAddr))
		h.deliver(m)
	}
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = true
	logging.Logger().Info("[relay] peer connected", slog.String("remote", p.conn.RemoteAddr().String()))
	return true
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p)
	p.conn.Close()
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Publish sends m to every connected peer. Send failures are logged and
// the remaining peers still receive the message.
func (h *Hub) Publish(m channel.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for p := range h.peers {
		if err := p.send(m); err != nil {
			logging.Logger().Warn("[relay] send failed", slog.String("remote", p.conn.RemoteAddr().String()), slog.Any("err", err))
		}
	}
	return nil
}

// Close disconnects every peer and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for p := range h.peers {
		p.conn.Close()
	}
	return nil
}

// Client is a connection to a Hub.
type Client struct {
	subscribers
	peer *peer
	done chan struct{}
	err  error
}

// Dial connects to a hub. addr is a join link, a ws:// URL or host:port.
func Dial(ctx context.Context, addr string) (*Client, error) {
	url := WebsocketURL(addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	c := &Client{
		subscribers: newSubscribers(),
		peer:        &peer{conn: conn},
		done:        make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var m channel.Message
		if err := c.peer.conn.ReadJSON(&m); err != nil {
			c.err = err
			return
		}
		c.deliver(m)
	}
}

// LocalAddr identifies this client to the hub.
func (c *Client) LocalAddr() string { return c.peer.conn.LocalAddr().String() }

func (c *Client) Publish(m channel.Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := c.peer.send(m); err != nil {
		return fmt.Errorf("publish %s: %w", m.Command, err)
	}
	return nil
}

// Done is closed when the connection to the hub ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the read error that ended the connection, valid after Done.
func (c *Client) Err() error {
	<-c.done
	return c.err
}

func (c *Client) Close() error {
	err := c.peer.conn.Close()
	<-c.done
	return err
}

// WebsocketURL turns a join link or host:port into the hub URL.
func WebsocketURL(addr string) string {
	addr = strings.TrimSuffix(strings.TrimPrefix(addr, LinkScheme), "/")
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	return "ws://" + addr + Path
}

// Link builds the join link for a hub listening on host:port.
func Link(host string, port int) string {
	return fmt.Sprintf("%s%s:%d", LinkScheme, host, port)
}
