package bridge

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
)

var (
	// ErrProtocol is returned when the client sends an undecodable or
	// unexpected reply, or does not acknowledge a command in time.
	ErrProtocol = errors.New("E040")

	// ErrClosed is returned by every Document method once the connection
	// is gone.
	ErrClosed = errors.New("E041")
)

//go:embed client.js
var clientScript []byte

// ClientScript returns the browser side of the bridge. It connects to the
// URL in the script tag's data-ws attribute, or to /ws on the page's host.
func ClientScript() []byte { return clientScript }

// Defaults.
const (
	DefaultAckTimeout   = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
	DefaultQueueSize    = 64
)

type binding struct {
	loc   string
	event string
	fn    dom.Listener
}

// Bridge is a dom.Document backed by a browser connected over a WebSocket.
//
// Every primitive is sent as a command and waits for the client's ack, so
// lookup failures in the browser surface as dom.ErrNotFound. Events fired
// in the browser invoke the matching listener on a single goroutine owned
// by Serve, in arrival order.
type Bridge struct {
	id     string
	conn   *websocket.Conn
	root   string
	logger *slog.Logger

	ackTimeout   time.Duration
	writeTimeout time.Duration
	pingInterval time.Duration

	out    chan []byte
	events chan dom.Listener

	mu        sync.Mutex
	seq       uint64
	pending   map[uint64]chan string
	listeners map[int]binding
	nextID    int

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

var _ dom.Document = (*Bridge)(nil)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger. The session ID is attached to every record.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithRoot sets the locator of the mount node. Locators outside it are
// rejected before anything is sent.
func WithRoot(root string) Option {
	return func(b *Bridge) { b.root = root }
}

// WithAckTimeout bounds how long a primitive waits for the client.
func WithAckTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.ackTimeout = d }
}

// WithPingInterval sets the heartbeat interval. The read deadline is twice
// the interval.
func WithPingInterval(d time.Duration) Option {
	return func(b *Bridge) { b.pingInterval = d }
}

// WithQueueSize sets the capacity of the outgoing and event queues.
func WithQueueSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.out = make(chan []byte, n)
			b.events = make(chan dom.Listener, n)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Accept upgrades the request and wraps the connection. Call Serve to
// start exchanging frames.
func Accept(w http.ResponseWriter, r *http.Request, opts ...Option) (*Bridge, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}

// New wraps an established connection.
func New(conn *websocket.Conn, opts ...Option) *Bridge {
	b := &Bridge{
		id:           uuid.NewString(),
		conn:         conn,
		root:         "/html/body",
		logger:       slog.Default(),
		ackTimeout:   DefaultAckTimeout,
		writeTimeout: DefaultWriteTimeout,
		pingInterval: DefaultPingInterval,
		out:          make(chan []byte, DefaultQueueSize),
		events:       make(chan dom.Listener, DefaultQueueSize),
		pending:      make(map[uint64]chan string),
		listeners:    make(map[int]binding),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("session_id", b.id)
	return b
}

// ID returns the session ID.
func (b *Bridge) ID() string { return b.id }

// Listeners returns the number of listeners currently bound.
func (b *Bridge) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Done is closed when the connection is gone.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Close closes the connection. Pending and future calls fail with ErrClosed.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = b.conn.Close()
	})
	return err
}

// SetInnerHTML implements dom.Document.
func (b *Bridge) SetInnerHTML(ctx context.Context, locator, markup string) error {
	if err := b.call(ctx, command{Op: opHTML, Loc: locator, Markup: markup}); err != nil {
		return err
	}
	// The browser dropped the old subtree and its listeners with it.
	prefix := locator + "/"
	b.mu.Lock()
	for id, l := range b.listeners {
		if strings.HasPrefix(l.loc, prefix) {
			delete(b.listeners, id)
		}
	}
	b.mu.Unlock()
	return nil
}

// AppendText implements dom.Document.
func (b *Bridge) AppendText(ctx context.Context, locator, text string) error {
	return b.call(ctx, command{Op: opText, Loc: locator, Text: text})
}

// AddEventListener implements dom.Document.
func (b *Bridge) AddEventListener(ctx context.Context, locator, event string, fn dom.Listener) error {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = binding{loc: locator, event: event, fn: fn}
	b.mu.Unlock()

	if err := b.call(ctx, command{Op: opListen, Loc: locator, Event: event, ID: id}); err != nil {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
		return err
	}
	return nil
}

// RemoveEventListeners implements dom.Document.
func (b *Bridge) RemoveEventListeners(ctx context.Context, locator string) error {
	if err := b.call(ctx, command{Op: opUnlisten, Loc: locator}); err != nil {
		return err
	}
	b.mu.Lock()
	for id, l := range b.listeners {
		if l.loc == locator {
			delete(b.listeners, id)
		}
	}
	b.mu.Unlock()
	return nil
}

// call sends c and waits for its ack.
func (b *Bridge) call(ctx context.Context, c command) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if _, err := dom.Steps(b.root, c.Loc); err != nil {
		return err
	}

	ack := make(chan string, 1)
	b.mu.Lock()
	b.seq++
	c.Seq = b.seq
	b.pending[c.Seq] = ack
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, c.Seq)
		b.mu.Unlock()
	}()

	data, err := json.Marshal(c)
	if err != nil {
		return errors.New("E040").Wrap(err)
	}

	select {
	case b.out <- data:
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	timer := time.NewTimer(b.ackTimeout)
	defer timer.Stop()

	select {
	case msg := <-ack:
		return ackError(c, msg)
	case <-timer.C:
		return errors.New("E040").WithDetailf("%s %s: no ack after %s", c.Op, c.Loc, b.ackTimeout)
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve exchanges frames until the client disconnects, Close is called or
// ctx is done. It returns nil on a normal disconnect.
func (b *Bridge) Serve(ctx context.Context) error {
	defer b.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.writeLoop() })
	g.Go(func() error { return b.eventLoop() })
	g.Go(func() error { return b.readLoop() })
	g.Go(func() error {
		select {
		case <-gctx.Done():
			b.Close()
		case <-b.done:
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// readLoop decodes replies. It returns when the connection fails.
func (b *Bridge) readLoop() error {
	defer b.Close()

	wait := 2 * b.pingInterval
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		b.conn.SetReadDeadline(time.Now().Add(wait))

		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) && !b.closed.Load() {
				b.logger.Error("read error", "error", err)
			}
			return nil
		}

		var r reply
		if err := json.Unmarshal(data, &r); err != nil {
			b.logger.Warn("frame decode error", "error", err)
			continue
		}

		switch r.Type {
		case frameAck:
			b.mu.Lock()
			ack, ok := b.pending[r.Seq]
			b.mu.Unlock()
			if !ok {
				b.logger.Debug("ack for unknown command", "seq", r.Seq)
				continue
			}
			select {
			case ack <- r.Error:
			default:
				b.logger.Debug("duplicate ack", "seq", r.Seq)
			}

		case frameEvent:
			b.mu.Lock()
			l, ok := b.listeners[r.ID]
			b.mu.Unlock()
			if !ok {
				b.logger.Debug("event for unknown listener", "id", r.ID)
				continue
			}
			select {
			case b.events <- l.fn:
			default:
				b.logger.Warn("event queue full, dropping event", "locator", l.loc, "event", l.event)
			}

		default:
			b.logger.Warn("unknown frame type", "type", r.Type)
		}
	}
}

// writeLoop is the only writer of data frames. It also sends heartbeats.
func (b *Bridge) writeLoop() error {
	ticker := time.NewTicker(b.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data := <-b.out:
			b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
			if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.logger.Error("write error", "error", err)
				b.Close()
				return nil
			}

		case <-ticker.C:
			if err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.writeTimeout)); err != nil {
				b.logger.Debug("ping failed", "error", err)
				b.Close()
				return nil
			}

		case <-b.done:
			return nil
		}
	}
}

// eventLoop runs listeners one at a time.
func (b *Bridge) eventLoop() error {
	for {
		select {
		case fn := <-b.events:
			b.invoke(fn)
		case <-b.done:
			return nil
		}
	}
}

func (b *Bridge) invoke(fn dom.Listener) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	fn()
}
