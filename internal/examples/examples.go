// Package examples holds small components used by the CLI, the test
// harness and the documentation.
package examples

import (
	"sort"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/tree"
)

// Example is a named root component.
type Example struct {
	Name        string
	Description string
	Factory     tree.Factory
}

var registry = map[string]Example{
	"counter": {
		Name:        "counter",
		Description: "a button and a running count",
		Factory:     tree.FactoryOf("Counter", NewCounter),
	},
	"todo": {
		Name:        "todo",
		Description: "a list that grows and shrinks",
		Factory:     tree.FactoryOf("TodoList", NewTodoList),
	},
	"greeter": {
		Name:        "greeter",
		Description: "a parent passing props to a stateful child",
		Factory:     tree.FactoryOf("Greeter", NewGreeter),
	},
}

// All returns every example sorted by name.
func All() []Example {
	out := make([]Example, 0, len(registry))
	for _, ex := range registry {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the example called name.
func Lookup(name string) (Example, error) {
	ex, ok := registry[name]
	if !ok {
		return Example{}, errors.New("E060").
			WithDetailf("no example named %q", name).
			WithSuggestion("Run 'trellis examples' to list them")
	}
	return ex, nil
}
