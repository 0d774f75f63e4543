package tree

import (
	"fmt"

	"github.com/vango-dev/trellis/internal/errors"
)

// Component is the typed authoring interface. P is the props type handed to
// View by the parent; M is the message type delivered to Update by event
// bindings and asynchronous producers.
type Component[P, M any] interface {
	View(props P) Html
	Update(msg M)
}

// Instance is a type-erased component as stored in the registry.
type Instance interface {
	Name() string
	View(props any) Html
	Update(msg any)
}

// Factory creates a fresh Instance.
type Factory func() Instance

// Erase wraps a typed component. Props and messages that are not of the
// declared types panic with a contract-violation error (E003, E004).
func Erase[P, M any](name string, c Component[P, M]) Instance {
	return &typed[P, M]{name: name, comp: c}
}

// FactoryOf returns a Factory that calls create and erases the result.
func FactoryOf[P, M any](name string, create func() Component[P, M]) Factory {
	return func() Instance {
		return Erase(name, create())
	}
}

// Mount creates a component reference. name is the discriminator used in
// the component's Path, so two different component types at the same
// position get distinct registry entries.
func Mount[P, M any](name string, create func() Component[P, M], props P, events ...Binding) *ComponentRef {
	return &ComponentRef{
		Name:    name,
		Factory: FactoryOf(name, create),
		Props:   props,
		Events:  events,
	}
}

type typed[P, M any] struct {
	name string
	comp Component[P, M]
}

func (t *typed[P, M]) Name() string {
	return t.name
}

func (t *typed[P, M]) View(props any) Html {
	p, ok := props.(P)
	if !ok {
		if props != nil {
			var zero P
			panic(errors.New("E003").WithDetailf("component %s accepts %T, got %T", t.name, zero, props))
		}
		// A nil bundle stands for the zero value of P (root components).
	}
	return t.comp.View(p)
}

func (t *typed[P, M]) Update(msg any) {
	m, ok := msg.(M)
	if !ok {
		var zero M
		panic(errors.New("E004").WithDetailf("component %s accepts %T, got %T", t.name, zero, msg))
	}
	t.comp.Update(m)
}

// Unwrap returns the typed component behind an Instance created by Erase.
func Unwrap[P, M any](inst Instance) (Component[P, M], bool) {
	t, ok := inst.(*typed[P, M])
	if !ok {
		return nil, false
	}
	return t.comp, true
}

// String implements fmt.Stringer for logging.
func (t *typed[P, M]) String() string {
	return fmt.Sprintf("%s(%T)", t.name, t.comp)
}
