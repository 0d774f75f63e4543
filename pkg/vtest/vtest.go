package vtest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/dom/memdom"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/reconcile"
	"github.com/vango-dev/trellis/pkg/tree"
)

// Harness is a mounted component on an in-memory document.
type Harness struct {
	t     testing.TB
	app   *app.App
	doc   *memdom.Document
	stats reconcile.Stats
	total reconcile.Stats
}

// Mount renders the component created by factory into a blank document.
// Options are passed to app.New; logging is discarded unless an option
// sets a logger.
//
// Example:
//
//	h := vtest.Mount(t, tree.FactoryOf("Counter", NewCounter))
//	h.Click("/html/body/*[1]")
//	h.ExpectText("count: 1")
func Mount(t testing.TB, factory tree.Factory, opts ...app.Option) *Harness {
	t.Helper()

	doc, err := memdom.New()
	if err != nil {
		t.Fatalf("vtest: creating document: %v", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]app.Option{app.WithLogger(quiet)}, opts...)

	h := &Harness{t: t, doc: doc, app: app.New(factory, doc, opts...)}
	h.render()
	return h
}

// App returns the mounted app.
func (h *Harness) App() *app.App {
	return h.app
}

// Document returns the in-memory document.
func (h *Harness) Document() *memdom.Document {
	return h.doc
}

// Click fires a click on the node at locator. It fails the test when no
// click listener is bound there.
func (h *Harness) Click(locator string) {
	h.t.Helper()
	h.Fire(locator, "click")
}

// Fire fires event on the node at locator and records the DOM work the
// resulting render did.
func (h *Harness) Fire(locator, event string) {
	h.t.Helper()
	h.doc.ResetLog()

	n, err := h.doc.Fire(locator, event)
	if err != nil {
		h.t.Fatalf("vtest: fire %s on %s: %v", event, locator, err)
	}
	if n == 0 {
		h.t.Fatalf("vtest: no %s listener on %s", event, locator)
	}
	h.collect()
}

// Dispatch delivers msg to the component at p and re-renders.
func (h *Harness) Dispatch(p path.Path, msg any) {
	h.t.Helper()
	h.doc.ResetLog()
	if err := h.app.Dispatch(context.Background(), p, msg); err != nil {
		h.t.Fatalf("vtest: dispatch to %s: %v", p, err)
	}
	h.collect()
}

// Rerender renders again without delivering anything.
func (h *Harness) Rerender() reconcile.Stats {
	h.t.Helper()
	h.doc.ResetLog()
	h.render()
	return h.stats
}

// Stats returns the DOM work of the last action.
func (h *Harness) Stats() reconcile.Stats {
	return h.stats
}

// Total returns the DOM work since Mount.
func (h *Harness) Total() reconcile.Stats {
	return h.total
}

// HTML returns the content of the root node.
func (h *Harness) HTML() string {
	return h.doc.HTML()
}

// Text returns the text content of the root node.
func (h *Harness) Text() string {
	return h.doc.Text()
}

// ExpectContains asserts that the document contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	html := h.HTML()
	if !strings.Contains(html, expected) {
		h.t.Errorf("expected document to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that the document does not contain unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	html := h.HTML()
	if strings.Contains(html, unexpected) {
		h.t.Errorf("expected document to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectText asserts that the document's text contains expected.
func (h *Harness) ExpectText(expected string) {
	h.t.Helper()
	text := h.Text()
	if !strings.Contains(text, expected) {
		h.t.Errorf("expected text to contain %q, got %q", expected, truncate(text, 500))
	}
}

// ExpectElement asserts that the document contains a specific tag.
func (h *Harness) ExpectElement(tag string) {
	h.t.Helper()
	html := h.HTML()
	if !strings.Contains(html, "<"+tag) {
		h.t.Errorf("expected document to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that the document contains an attribute value.
func (h *Harness) ExpectAttribute(attr, value string) {
	h.t.Helper()
	needle := attr + `="` + value + `"`
	if html := h.HTML(); !strings.Contains(html, needle) {
		h.t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// ExpectMutations asserts the number of DOM primitives the last action
// applied.
func (h *Harness) ExpectMutations(n int) {
	h.t.Helper()
	if got := h.stats.Mutations(); got != n {
		h.t.Errorf("expected %d DOM mutations, got %d (%+v)", n, got, h.stats)
	}
}

func (h *Harness) render() {
	h.t.Helper()
	stats, err := h.app.Render(context.Background())
	if err != nil {
		h.t.Fatalf("vtest: render: %v", err)
	}
	h.stats = stats
	h.total.Add(stats)
}

// collect derives the stats of a listener-triggered render from the
// document log, since the render ran inside the listener.
func (h *Harness) collect() {
	var s reconcile.Stats
	for op, n := range h.doc.Counts() {
		switch op {
		case dom.OpSetInnerHTML:
			s.Replacements += n
		case dom.OpAppendText:
			s.TextWrites += n
		case dom.OpAddListener:
			s.ListenersAdded += n
		case dom.OpRemoveListeners:
			s.ListenersRemoved += n
		}
	}
	h.stats = s
	h.total.Add(s)
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
