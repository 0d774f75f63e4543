package registry

import (
	"sync"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/tree"
)

// ErrPoisoned is returned when a previous View or Update panicked.
var ErrPoisoned = errors.New("E005")

// Handle is a shared, lock-protected component instance.
type Handle struct {
	path path.Path

	mu       sync.Mutex
	inst     tree.Instance
	poisoned bool
}

func newHandle(p path.Path, inst tree.Instance) *Handle {
	return &Handle{path: p, inst: inst}
}

// Path returns the path the instance is registered under.
func (h *Handle) Path() path.Path {
	return h.path
}

// Name returns the component's declared name.
func (h *Handle) Name() string {
	return h.inst.Name()
}

// View renders the instance with props under its lock.
func (h *Handle) View(props any) (html tree.Html, err error) {
	err = h.with(func(inst tree.Instance) {
		html = inst.View(props)
	})
	return html, err
}

// Update delivers msg to the instance under its lock.
func (h *Handle) Update(msg any) error {
	return h.with(func(inst tree.Instance) {
		inst.Update(msg)
	})
}

// With runs fn with exclusive access to the instance.
func (h *Handle) With(fn func(inst tree.Instance)) error {
	return h.with(fn)
}

// Poisoned reports whether a previous call panicked.
func (h *Handle) Poisoned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.poisoned
}

// with locks the instance and runs fn. A panic in fn marks the handle
// poisoned, releases the lock and continues unwinding.
func (h *Handle) with(fn func(inst tree.Instance)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.poisoned {
		return errors.New("E005").WithDetailf("component %s at %s", h.inst.Name(), h.path)
	}

	completed := false
	defer func() {
		if !completed {
			h.poisoned = true
		}
	}()
	fn(h.inst)
	completed = true
	return nil
}
