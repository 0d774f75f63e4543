// Package memdom is an in-memory dom.Document built on golang.org/x/net/html.
//
// It holds a parsed HTML document, applies the four DOM primitives to it and
// lets callers fire events on bound nodes. Tests and the CLI use it in
// place of a browser.
package memdom

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
)

// DefaultRoot is the root locator used when none is configured.
const DefaultRoot = "/html/body"

const blank = "<html><head></head><body></body></html>"

// Entry is one applied primitive.
type Entry struct {
	Op      dom.Op
	Locator string
	Arg     string
}

// Binding is a bound listener as seen from outside.
type Binding struct {
	Locator string
	Event   string
}

type listener struct {
	event string
	fn    dom.Listener
}

// Document is an in-memory DOM. It is safe for concurrent use; listeners
// run without the document lock held, so they may mutate the document.
type Document struct {
	mu        sync.Mutex
	root      string
	doc       *html.Node
	mount     *html.Node
	listeners map[*html.Node][]listener
	log       []Entry
}

// Option configures a Document.
type Option func(*Document)

// WithRoot sets the root locator. Named steps ("/html/body") and positional
// steps ("/*[2]") are both accepted.
func WithRoot(locator string) Option {
	return func(d *Document) {
		d.root = locator
	}
}

// New creates a blank document.
func New(opts ...Option) (*Document, error) {
	return Parse(blank, opts...)
}

// Parse creates a document from markup.
func Parse(markup string, opts ...Option) (*Document, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, errors.FromError(err, "E008")
	}

	d := &Document{
		root:      DefaultRoot,
		doc:       doc,
		listeners: make(map[*html.Node][]listener),
	}
	for _, opt := range opts {
		opt(d)
	}

	mount, err := resolveNamed(doc, d.root)
	if err != nil {
		return nil, err
	}
	d.mount = mount
	return d, nil
}

// Root returns the root locator.
func (d *Document) Root() string {
	return d.root
}

// SetInnerHTML implements dom.Document.
func (d *Document) SetInnerHTML(_ context.Context, locator, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve(dom.OpSetInnerHTML, locator)
	if err != nil {
		return err
	}

	nodes, err := html.ParseFragment(strings.NewReader(markup), target)
	if err != nil {
		return errors.FromError(err, "E008").WithDetailf("markup for %s", locator)
	}

	for c := target.FirstChild; c != nil; {
		next := c.NextSibling
		d.forget(c)
		target.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		target.AppendChild(n)
	}

	d.record(dom.OpSetInnerHTML, locator, markup)
	return nil
}

// AppendText implements dom.Document.
func (d *Document) AppendText(_ context.Context, locator, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve(dom.OpAppendText, locator)
	if err != nil {
		return err
	}
	target.AppendChild(&html.Node{Type: html.TextNode, Data: text})

	d.record(dom.OpAppendText, locator, text)
	return nil
}

// AddEventListener implements dom.Document.
func (d *Document) AddEventListener(_ context.Context, locator, event string, fn dom.Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve(dom.OpAddListener, locator)
	if err != nil {
		return err
	}
	d.listeners[target] = append(d.listeners[target], listener{event: event, fn: fn})

	d.record(dom.OpAddListener, locator, event)
	return nil
}

// RemoveEventListeners implements dom.Document.
func (d *Document) RemoveEventListeners(_ context.Context, locator string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve(dom.OpRemoveListeners, locator)
	if err != nil {
		return err
	}
	delete(d.listeners, target)

	d.record(dom.OpRemoveListeners, locator, "")
	return nil
}

// Fire invokes every listener bound for event on the node at locator and
// returns how many ran.
func (d *Document) Fire(locator, event string) (int, error) {
	d.mu.Lock()
	target, err := d.resolve("fire", locator)
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	var fns []dom.Listener
	for _, l := range d.listeners[target] {
		if l.event == event {
			fns = append(fns, l.fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns), nil
}

// Bindings returns every bound listener in document order.
func (d *Document) Bindings() []Binding {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Binding
	var walk func(n *html.Node, loc string)
	walk = func(n *html.Node, loc string) {
		for _, l := range d.listeners[n] {
			out = append(out, Binding{Locator: loc, Event: l.event})
		}
		pos := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			pos++
			walk(c, loc+"/*["+strconv.Itoa(pos)+"]")
		}
	}
	walk(d.mount, d.root)
	return out
}

// ListenerCount returns the number of listeners on the node at locator.
func (d *Document) ListenerCount(locator string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve("count", locator)
	if err != nil {
		return 0
	}
	return len(d.listeners[target])
}

// HTML returns the serialized content of the root node.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return innerHTML(d.mount)
}

// InnerHTML returns the serialized content of the node at locator.
func (d *Document) InnerHTML(locator string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	target, err := d.resolve("inner_html", locator)
	if err != nil {
		return "", err
	}
	return innerHTML(target), nil
}

// Text returns the text content of the root node.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.mount)
	return b.String()
}

// Log returns a copy of the applied primitives.
func (d *Document) Log() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Entry(nil), d.log...)
}

// Counts returns how many times each primitive was applied.
func (d *Document) Counts() map[dom.Op]int {
	d.mu.Lock()
	defer d.mu.Unlock()

	counts := make(map[dom.Op]int)
	for _, e := range d.log {
		counts[e.Op]++
	}
	return counts
}

// ResetLog clears the primitive log.
func (d *Document) ResetLog() {
	d.mu.Lock()
	d.log = nil
	d.mu.Unlock()
}

func (d *Document) record(op dom.Op, locator, arg string) {
	d.log = append(d.log, Entry{Op: op, Locator: locator, Arg: arg})
}

// resolve finds the element at locator. d.mu must be held.
func (d *Document) resolve(op dom.Op, locator string) (*html.Node, error) {
	steps, err := dom.Steps(d.root, locator)
	if err != nil {
		return nil, err
	}
	n := d.mount
	for _, step := range steps {
		n = nthElement(n, step)
		if n == nil {
			return nil, dom.NotFound(op, locator)
		}
	}
	return n, nil
}

// forget drops listeners held by n and its descendants.
func (d *Document) forget(n *html.Node) {
	delete(d.listeners, n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// resolveNamed walks a root locator made of tag names and positional steps.
func resolveNamed(doc *html.Node, locator string) (*html.Node, error) {
	n := doc
	for _, part := range strings.Split(strings.Trim(locator, "/"), "/") {
		if part == "" {
			continue
		}
		var next *html.Node
		if steps, err := dom.Steps("", "/"+part); err == nil && len(steps) == 1 {
			next = nthElement(n, steps[0])
		} else {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == part {
					next = c
					break
				}
			}
		}
		if next == nil {
			return nil, dom.NotFound("root", locator)
		}
		n = next
	}
	return n, nil
}

// nthElement returns the pos-th (1-based) element child of n.
func nthElement(n *html.Node, pos int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		i++
		if i == pos {
			return c
		}
	}
	return nil
}

func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}
