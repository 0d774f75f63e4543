package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/metrics"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/vdom"
)

// Policy decides what happens when a child list changes length.
type Policy int

const (
	// ReplaceChildren rewrites the parent's content whenever the number of
	// children differs.
	ReplaceChildren Policy = iota

	// ZipPrefix compares only the overlapping prefix. Added children are
	// never inserted and removed ones are left in the DOM.
	ZipPrefix
)

// String returns the config name of the policy.
func (p Policy) String() string {
	switch p {
	case ZipPrefix:
		return "zip"
	default:
		return "replace"
	}
}

// ParsePolicy parses a config name. Unknown names yield ReplaceChildren
// and false.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "replace", "":
		return ReplaceChildren, true
	case "zip":
		return ZipPrefix, true
	default:
		return ReplaceChildren, false
	}
}

// DeliverFunc receives a message bound to a DOM event. owner is the Path of
// the component that should handle it.
type DeliverFunc func(owner path.Path, msg any)

// Stats counts the DOM work of one reconcile.
type Stats struct {
	Replacements     int // SetInnerHTML calls
	TextWrites       int // AppendText calls
	ListenersAdded   int
	ListenersRemoved int // RemoveEventListeners calls
	Failures         int // Locators that did not resolve
}

// Mutations returns the number of DOM primitives applied.
func (s Stats) Mutations() int {
	return s.Replacements + s.TextWrites + s.ListenersAdded + s.ListenersRemoved
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Replacements += o.Replacements
	s.TextWrites += o.TextWrites
	s.ListenersAdded += o.ListenersAdded
	s.ListenersRemoved += o.ListenersRemoved
	s.Failures += o.Failures
}

// Reconciler patches a Document from the difference between two virtual
// DOM trees.
type Reconciler struct {
	doc     dom.Document
	deliver DeliverFunc
	root    string
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithRoot sets the locator of the node the root container stands for.
func WithRoot(locator string) Option {
	return func(r *Reconciler) {
		r.root = locator
	}
}

// WithPolicy sets the length-mismatch policy.
func WithPolicy(p Policy) Option {
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithMetrics sets the collectors mutations and failures are recorded in.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

// DefaultRoot is the root locator used when none is configured.
const DefaultRoot = "/html/body"

// New creates a Reconciler that patches doc and hands bound messages to
// deliver.
func New(doc dom.Document, deliver DeliverFunc, opts ...Option) *Reconciler {
	r := &Reconciler{
		doc:     doc,
		deliver: deliver,
		root:    DefaultRoot,
		policy:  ReplaceChildren,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the length-mismatch policy.
func (r *Reconciler) Policy() Policy {
	return r.policy
}

// Root returns the root locator.
func (r *Reconciler) Root() string {
	return r.root
}

// Reconcile brings the DOM from prev to next. Both are root containers as
// produced by vdom.Expander.ExpandRoot; a nil prev mounts next from
// scratch.
//
// A locator that does not resolve below the root is logged, counted in
// Stats.Failures and skips only that branch. An error is returned when the
// root itself cannot be patched or the Document fails for another reason;
// the caller must then keep its previous snapshot.
func (r *Reconciler) Reconcile(ctx context.Context, next, prev *vdom.Node) (Stats, error) {
	_, stats, err := r.Patch(ctx, next, prev)
	return stats, err
}

// Patch is Reconcile that also returns the tree the DOM now reflects: next,
// except that every abandoned branch keeps its subtree from prev and every
// node left unfilled by a passover keeps no text or callbacks. Committing
// that tree makes the next pass retry exactly what did not land. When
// Stats.Failures is zero the result is next itself.
func (r *Reconciler) Patch(ctx context.Context, next, prev *vdom.Node) (*vdom.Node, Stats, error) {
	w := &walk{Reconciler: r, ctx: ctx}
	var (
		applied *vdom.Node
		err     error
	)
	if prev == nil {
		applied, err = w.replace(path.New(), next, nil)
	} else {
		applied, err = w.children(path.New(), next, prev)
	}
	if err != nil {
		return nil, w.stats, err
	}
	return applied, w.stats, nil
}

// Mount renders next into an empty root.
func (r *Reconciler) Mount(ctx context.Context, next *vdom.Node) (Stats, error) {
	return r.Reconcile(ctx, next, nil)
}

// walk is the state of a single reconcile.
type walk struct {
	*Reconciler
	ctx   context.Context
	stats Stats
}

// locator renders the DOM position pos below the root.
func (w *walk) locator(pos path.Path) string {
	return w.root + pos.Locator()
}

// children reconciles the child lists of an equal pair located at pos. Like
// the other walk methods it returns the node the DOM now holds there.
func (w *walk) children(pos path.Path, next, prev *vdom.Node) (*vdom.Node, error) {
	nc, pc := next.Children, prev.Children
	if len(nc) != len(pc) && w.policy == ReplaceChildren {
		return w.replace(pos, next, prev)
	}

	n := min(len(nc), len(pc))
	for i := 0; i < n; i++ {
		a, b := nc[i], pc[i]
		if a.Kind != b.Kind || (a.Kind == vdom.KindElement && !a.Equal(b)) {
			// The parent's child list is stale.
			return w.replace(pos, next, prev)
		}
	}

	var kids []*vdom.Node
	for i := 0; i < n; i++ {
		got, err := w.pair(pos.Child(i, path.Element), nc[i], pc[i])
		if err != nil {
			return nil, err
		}
		kids = swap(kids, nc, i, got)
	}
	return withChildren(next, kids), nil
}

// pair reconciles two nodes of the same kind at pos. Element pairs are
// already known to be equal.
func (w *walk) pair(pos path.Path, next, prev *vdom.Node) (*vdom.Node, error) {
	if next.Kind == vdom.KindTemplate {
		if next.Equal(prev) {
			return next, nil
		}
		ok, err := w.apply(dom.OpSetInnerHTML, pos, next, func(loc string) error {
			return w.doc.SetInnerHTML(w.ctx, loc, next.EscapedText())
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return prev, nil
		}
		w.stats.Replacements++
		return next, nil
	}

	// Listeners capture their owner, so a moved component needs fresh ones
	// even when its messages are unchanged.
	rebind := !vdom.CallbacksEqual(next.Callbacks, prev.Callbacks) ||
		(len(next.Callbacks) > 0 && !next.Owner.Equal(prev.Owner))
	if rebind {
		ok, err := w.apply(dom.OpRemoveListeners, pos, next, func(loc string) error {
			return w.doc.RemoveEventListeners(w.ctx, loc)
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return prev, nil
		}
		w.stats.ListenersRemoved++

		ok, err = w.listen(pos, next)
		if err != nil {
			return nil, err
		}
		if !ok {
			unbound := *prev
			unbound.Callbacks = nil
			return &unbound, nil
		}
	}

	got, err := w.children(pos, next, prev)
	if err != nil {
		return nil, err
	}
	if got == prev && rebind {
		// The listeners landed even though the content did not.
		bound := *prev
		bound.Callbacks, bound.Owner = next.Callbacks, next.Owner
		return &bound, nil
	}
	return got, nil
}

// replace rewrites the content of the node at pos with next's children and
// runs the passover over them. prev is what the DOM keeps if the node
// cannot be found.
func (w *walk) replace(pos path.Path, next, prev *vdom.Node) (*vdom.Node, error) {
	ok, err := w.apply(dom.OpSetInnerHTML, pos, next, func(loc string) error {
		return w.doc.SetInnerHTML(w.ctx, loc, next.ChildrenMarkup())
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return prev, nil
	}
	w.stats.Replacements++
	return w.fill(pos, next)
}

// fill runs the passover over n's children.
func (w *walk) fill(pos path.Path, n *vdom.Node) (*vdom.Node, error) {
	var kids []*vdom.Node
	for i, child := range n.Children {
		got, err := w.passover(pos.Child(i, path.Element), child)
		if err != nil {
			return nil, err
		}
		kids = swap(kids, n.Children, i, got)
	}
	return withChildren(n, kids), nil
}

// passover fills freshly inserted markup: template text is appended and
// listeners are attached, recursively.
func (w *walk) passover(pos path.Path, n *vdom.Node) (*vdom.Node, error) {
	if n.Kind == vdom.KindTemplate {
		if n.Text == "" {
			return n, nil
		}
		ok, err := w.apply(dom.OpAppendText, pos, n, func(loc string) error {
			return w.doc.AppendText(w.ctx, loc, n.Text)
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return unfilled(n), nil
		}
		w.stats.TextWrites++
		return n, nil
	}

	ok, err := w.listen(pos, n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return unfilled(n), nil
	}
	return w.fill(pos, n)
}

// listen attaches one listener per callback of n. Each listener captures
// the node's owner and message. ok is false when the node was not found.
func (w *walk) listen(pos path.Path, n *vdom.Node) (bool, error) {
	deliver := w.deliver
	for _, cb := range n.Callbacks {
		owner, msg := n.Owner, cb.Msg
		fn := func() { deliver(owner, msg) }
		ok, err := w.apply(dom.OpAddListener, pos, n, func(loc string) error {
			return w.doc.AddEventListener(w.ctx, loc, cb.Event, fn)
		})
		if err != nil || !ok {
			return false, err
		}
		w.stats.ListenersAdded++
	}
	return true, nil
}

// swap records got as the i-th child, copying orig on the first child that
// differs from it. kids stays nil while every child matches.
func swap(kids, orig []*vdom.Node, i int, got *vdom.Node) []*vdom.Node {
	if kids == nil {
		if got == orig[i] {
			return nil
		}
		kids = append([]*vdom.Node(nil), orig...)
	}
	kids[i] = got
	return kids
}

// withChildren returns n, or a copy of n holding kids when any child
// changed.
func withChildren(n *vdom.Node, kids []*vdom.Node) *vdom.Node {
	if kids == nil {
		return n
	}
	c := *n
	c.Children = kids
	return &c
}

// unfilled is n as inserted markup holds it before the passover: no text
// and no listeners.
func unfilled(n *vdom.Node) *vdom.Node {
	c := *n
	c.Text, c.Callbacks = "", nil
	if len(n.Children) > 0 {
		c.Children = make([]*vdom.Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = unfilled(child)
		}
	}
	return &c
}

// apply runs one primitive. ok is false when the locator did not resolve
// below the root; the failure has then been logged and counted and the
// caller abandons the branch. Other errors, and any failure at the root,
// are returned.
func (w *walk) apply(op dom.Op, pos path.Path, n *vdom.Node, fn func(loc string) error) (ok bool, err error) {
	loc := w.locator(pos)
	err = fn(loc)
	if err == nil {
		w.metrics.RecordMutation(string(op))
		return true, nil
	}
	if !errors.Is(err, dom.ErrNotFound) || pos.IsRoot() {
		return false, err
	}

	w.stats.Failures++
	w.metrics.RecordLookupFailure(string(op))
	w.logger.Warn("dom lookup failed",
		"op", op,
		"locator", loc,
		"path", n.Path.String(),
		"error", err)
	return false, nil
}
