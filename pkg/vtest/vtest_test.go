package vtest_test

import (
	"strings"
	"testing"

	"github.com/vango-dev/trellis/internal/examples"
	"github.com/vango-dev/trellis/pkg/app"
	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/reconcile"
	"github.com/vango-dev/trellis/pkg/tree"
	"github.com/vango-dev/trellis/pkg/vtest"
)

func TestMount(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("Counter", examples.NewCounter))

	h.ExpectText("count: 0")
	h.ExpectElement("button")
	if h.Stats().ListenersAdded != 1 {
		t.Errorf("expected one listener after mount, got %+v", h.Stats())
	}
}

func TestCounterClick(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("Counter", examples.NewCounter))

	h.Click("/html/body/*[1]")
	h.ExpectText("count: 1")
	// Only the text placeholder is rewritten.
	h.ExpectMutations(1)

	h.Click("/html/body/*[1]")
	h.Click("/html/body/*[1]")
	h.ExpectText("count: 3")
	h.ExpectNotContains("count: 2")
}

func TestRerenderWithoutChangeIsFree(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("TodoList", examples.NewTodoList))
	h.Click("/html/body/*[2]")

	if stats := h.Rerender(); stats.Mutations() != 0 {
		t.Errorf("expected no mutations, got %+v", stats)
	}
}

func TestDispatch(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("Counter", examples.NewCounter))
	h.Dispatch(path.New(), examples.Sub)
	h.ExpectText("count: -1")
}

func TestTodoListGrowsAndShrinks(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("TodoList", examples.NewTodoList))

	h.Click("/html/body/*[2]")
	h.Click("/html/body/*[2]")
	h.ExpectText("task 1")
	h.ExpectText("task 2")
	h.ExpectText("2 items")

	// Remove button of the first item: ul > li[1] > button (after the text).
	h.Click("/html/body/*[3]/*[1]/*[2]")
	h.ExpectText("task 2")
	h.ExpectText("1 items")
	if got := h.Text(); strings.Contains(got, "task 1") {
		t.Errorf("removed item still rendered: %q", got)
	}
}

func TestTodoListZipPolicyLeavesListStale(t *testing.T) {
	h := vtest.Mount(t,
		tree.FactoryOf("TodoList", examples.NewTodoList),
		app.WithPolicy(reconcile.ZipPrefix),
	)

	h.Click("/html/body/*[2]")
	h.ExpectText("1 items")
	if got := h.Text(); strings.Contains(got, "task 1") {
		t.Errorf("zip policy should not insert new items, got %q", got)
	}
}

func TestGreeterChildKeepsState(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("Greeter", examples.NewGreeter))
	h.ExpectText("Hello, Ada!")
	h.ExpectAttribute("class", "greeter")
	h.ExpectAttribute("data-component", "Greeting")

	// Wave is owned by the child component.
	h.Click("/html/body/*[1]/*[1]/*[2]")
	h.ExpectText("waves: 1")

	// Next is owned by the parent; the child is re-rendered with new props
	// but keeps its count.
	h.Click("/html/body/*[1]/*[2]")
	h.ExpectText("Hello, Grace!")
	h.ExpectText("waves: 1")
	h.ExpectMutations(1)
}

func TestTotal(t *testing.T) {
	h := vtest.Mount(t, tree.FactoryOf("Counter", examples.NewCounter))
	mounted := h.Total().Mutations()
	h.Click("/html/body/*[1]")
	if got := h.Total().Mutations(); got != mounted+1 {
		t.Errorf("Total() = %d, want %d", got, mounted+1)
	}
}
