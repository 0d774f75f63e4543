package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	terrors "github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/internal/examples"
	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/dom/memdom"
	"github.com/vango-dev/trellis/pkg/tree"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// browser plays the client side of the protocol against an in-memory
// document.
type browser struct {
	conn *websocket.Conn
	doc  *memdom.Document

	writeMu sync.Mutex
	silent  bool         // never ack
	repeat  atomic.Int32 // extra copies of every ack
}

func (c *browser) send(r reply) {
	data, _ := json.Marshal(r)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *browser) run() {
	ctx := context.Background()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		if c.silent {
			continue
		}

		switch cmd.Op {
		case opHTML:
			err = c.doc.SetInnerHTML(ctx, cmd.Loc, cmd.Markup)
		case opText:
			err = c.doc.AppendText(ctx, cmd.Loc, cmd.Text)
		case opListen:
			id := cmd.ID
			err = c.doc.AddEventListener(ctx, cmd.Loc, cmd.Event, func() {
				c.send(reply{Type: frameEvent, ID: id})
			})
		case opUnlisten:
			err = c.doc.RemoveEventListeners(ctx, cmd.Loc)
		}

		ack := reply{Type: frameAck, Seq: cmd.Seq}
		switch {
		case errors.Is(err, dom.ErrNotFound):
			ack.Error = ackNotFound
		case err != nil:
			ack.Error = err.Error()
		}
		for i := int32(0); i <= c.repeat.Load(); i++ {
			c.send(ack)
		}
	}
}

func connect(t *testing.T, silent bool, opts ...Option) (*Bridge, *browser, <-chan struct{}, *error) {
	t.Helper()

	accepted := make(chan *Bridge, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := Accept(w, r, append([]Option{WithLogger(quiet)}, opts...)...)
		if err != nil {
			t.Errorf("Accept() error = %v", err)
			return
		}
		accepted <- b
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	doc, err := memdom.New()
	if err != nil {
		t.Fatal(err)
	}
	c := &browser{conn: conn, doc: doc, silent: silent}
	go c.run()

	b := <-accepted
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	var serveErr error
	go func() {
		serveErr = b.Serve(ctx)
		close(served)
	}()

	t.Cleanup(func() {
		cancel()
		conn.Close()
		select {
		case <-served:
		case <-time.After(2 * time.Second):
			t.Error("Serve did not return")
		}
	})
	return b, c, served, &serveErr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCommandsReachTheBrowser(t *testing.T) {
	b, c, _, _ := connect(t, false)
	ctx := context.Background()

	if err := b.SetInnerHTML(ctx, "/html/body", "<div><span></span></div>"); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}
	if err := b.AppendText(ctx, "/html/body/*[1]/*[1]", "hi"); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	if got := c.doc.HTML(); got != "<div><span>hi</span></div>" {
		t.Errorf("HTML() = %q", got)
	}
	if b.ID() == "" {
		t.Error("ID() is empty")
	}
}

func TestBrowserLookupFailure(t *testing.T) {
	b, _, _, _ := connect(t, false)

	err := b.AppendText(context.Background(), "/html/body/*[4]", "x")
	if !errors.Is(err, dom.ErrNotFound) {
		t.Errorf("AppendText() error = %v, want ErrNotFound", err)
	}
}

func TestInvalidLocatorIsNotSent(t *testing.T) {
	b, c, _, _ := connect(t, false)

	err := b.SetInnerHTML(context.Background(), "/html/nav", "x")
	if !errors.Is(err, dom.ErrInvalidLocator) {
		t.Errorf("SetInnerHTML() error = %v, want ErrInvalidLocator", err)
	}
	if len(c.doc.Log()) != 0 {
		t.Errorf("browser received %v", c.doc.Log())
	}
}

func TestEventsInvokeListeners(t *testing.T) {
	b, c, _, _ := connect(t, false)
	ctx := context.Background()

	if err := b.SetInnerHTML(ctx, "/html/body", "<button></button>"); err != nil {
		t.Fatal(err)
	}
	fired := make(chan struct{}, 1)
	if err := b.AddEventListener(ctx, "/html/body/*[1]", "click", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	if b.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", b.Listeners())
	}

	if _, err := c.doc.Fire("/html/body/*[1]", "click"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("listener not invoked")
	}

	if err := b.RemoveEventListeners(ctx, "/html/body/*[1]"); err != nil {
		t.Fatal(err)
	}
	if b.Listeners() != 0 {
		t.Errorf("Listeners() = %d after removal, want 0", b.Listeners())
	}
	if n := c.doc.ListenerCount("/html/body/*[1]"); n != 0 {
		t.Errorf("browser still has %d listeners", n)
	}
}

func TestReplacedSubtreeForgetsListeners(t *testing.T) {
	b, _, _, _ := connect(t, false)
	ctx := context.Background()

	if err := b.SetInnerHTML(ctx, "/html/body", "<div><button></button></div>"); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEventListener(ctx, "/html/body/*[1]", "click", func() {}); err != nil {
		t.Fatal(err)
	}
	if err := b.AddEventListener(ctx, "/html/body/*[1]/*[1]", "click", func() {}); err != nil {
		t.Fatal(err)
	}

	if err := b.SetInnerHTML(ctx, "/html/body/*[1]", "<p></p>"); err != nil {
		t.Fatal(err)
	}
	if b.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want only the one on the replaced node itself", b.Listeners())
	}
}

func TestAckTimeout(t *testing.T) {
	b, _, _, _ := connect(t, true, WithAckTimeout(20*time.Millisecond))

	err := b.AppendText(context.Background(), "/html/body", "x")
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("AppendText() error = %v, want E040", err)
	}
}

func TestDisconnect(t *testing.T) {
	b, c, served, serveErr := connect(t, false)

	c.conn.Close()
	select {
	case <-served:
		if *serveErr != nil {
			t.Errorf("Serve() = %v, want nil on disconnect", *serveErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}

	err := b.AppendText(context.Background(), "/html/body", "x")
	if !errors.Is(err, ErrClosed) || !errors.Is(err, terrors.New("E041")) {
		t.Errorf("AppendText() error = %v, want ErrClosed", err)
	}
}

func TestAppOverBridge(t *testing.T) {
	b, c, _, _ := connect(t, false)

	a := app.New(tree.FactoryOf("Counter", examples.NewCounter), b, app.WithLogger(quiet))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	waitFor(t, func() bool {
		return strings.Contains(c.doc.Text(), "count: 0") && c.doc.ListenerCount("/html/body/*[1]") == 1
	})

	for i := 0; i < 3; i++ {
		if _, err := c.doc.Fire("/html/body/*[1]", "click"); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return strings.Contains(c.doc.Text(), "count: 3") })
}

func TestRepeatedAcksDoNotStallReader(t *testing.T) {
	b, c, _, _ := connect(t, false)
	c.repeat.Store(2)
	ctx := context.Background()

	if err := b.SetInnerHTML(ctx, "/html/body", "<button></button>"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := b.AppendText(ctx, "/html/body/*[1]", "x"); err != nil {
			t.Fatalf("AppendText() #%d error = %v", i, err)
		}
	}

	fired := make(chan struct{}, 1)
	if err := b.AddEventListener(ctx, "/html/body/*[1]", "click", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	if _, err := c.doc.Fire("/html/body/*[1]", "click"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered; reader is stuck")
	}
	if got := c.doc.Text(); got != strings.Repeat("x", 10) {
		t.Errorf("Text() = %q", got)
	}
}

func TestClientScriptIsEmbedded(t *testing.T) {
	js := string(ClientScript())
	for _, want := range []string{"document.evaluate", `"not_found"`, `type: "event"`} {
		if !strings.Contains(js, want) {
			t.Errorf("client script missing %s", want)
		}
	}
}
