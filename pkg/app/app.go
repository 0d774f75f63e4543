package app

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
	"github.com/vango-dev/trellis/pkg/metrics"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/reconcile"
	"github.com/vango-dev/trellis/pkg/registry"
	"github.com/vango-dev/trellis/pkg/tree"
	"github.com/vango-dev/trellis/pkg/vdom"
)

// Default tracer name.
const defaultTracerName = "trellis"

var (
	// ErrQueueFull is returned by Post when the message queue is full.
	ErrQueueFull = errors.New("E006")

	// ErrClosed is returned by Post and Run after Close.
	ErrClosed = errors.New("E007")
)

// App owns one mounted component tree: its registry, the last committed
// virtual DOM and the document it renders into.
type App struct {
	registry   *registry.Registry
	root       *registry.Handle
	doc        dom.Document
	expander   *vdom.Expander
	reconciler *reconcile.Reconciler

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	rootLocator string
	policy      reconcile.Policy
	collect     bool
	queueSize   int

	// renderMu serializes render passes.
	renderMu sync.Mutex
	snapshot atomic.Pointer[vdom.Node]
	state    atomic.Int32

	messages  chan message
	running   atomic.Bool
	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// message is a queued delivery.
type message struct {
	path path.Path
	msg  any
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithTracer sets the tracer used for render and dispatch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *App) {
		a.tracer = tracer
	}
}

// WithRegistry uses reg instead of a fresh registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// WithRootLocator sets the locator of the node the root component renders
// into (default "/html/body").
func WithRootLocator(locator string) Option {
	return func(a *App) {
		a.rootLocator = locator
	}
}

// WithPolicy sets the reconciler's length-mismatch policy.
func WithPolicy(p reconcile.Policy) Option {
	return func(a *App) {
		a.policy = p
	}
}

// WithCollect enables or disables removing registry entries of components
// that left the tree.
func WithCollect(collect bool) Option {
	return func(a *App) {
		a.collect = collect
	}
}

// WithQueueSize sets the capacity of the message queue used by Run.
func WithQueueSize(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.queueSize = n
		}
	}
}

// New mounts root at the root path and prepares it to render into doc.
// Nothing is rendered until Render or Run is called.
func New(root tree.Factory, doc dom.Document, opts ...Option) *App {
	a := &App{
		doc:         doc,
		logger:      slog.Default(),
		rootLocator: reconcile.DefaultRoot,
		policy:      reconcile.ReplaceChildren,
		collect:     true,
		queueSize:   256,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = registry.New()
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(defaultTracerName)
	}

	a.messages = make(chan message, a.queueSize)
	a.root, _ = a.registry.GetOrInsert(path.New(), root)
	a.expander = vdom.NewExpander(a.registry, a.logger)
	a.reconciler = reconcile.New(doc, a.deliver,
		reconcile.WithRoot(a.rootLocator),
		reconcile.WithPolicy(a.policy),
		reconcile.WithLogger(a.logger),
		reconcile.WithMetrics(a.metrics),
	)
	return a
}

// Registry returns the component registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Snapshot returns the last committed virtual DOM, or nil before the first
// successful render.
func (a *App) Snapshot() *vdom.Node {
	return a.snapshot.Load()
}

// State returns the current phase of the app.
func (a *App) State() State {
	return State(a.state.Load())
}

// Running reports whether Run is processing messages.
func (a *App) Running() bool {
	return a.running.Load()
}

// Close stops Run and rejects further posts.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		close(a.done)
	})
}

// State is the phase of an App.
type State int32

const (
	StateIdle State = iota
	StateDispatching
	StateRendering
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}
