package examples

import (
	"errors"
	"testing"

	terrors "github.com/vango-dev/trellis/internal/errors"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"counter", "todo", "greeter"} {
		ex, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
			continue
		}
		if ex.Factory == nil || ex.Factory() == nil {
			t.Errorf("Lookup(%q) has no factory", name)
		}
	}

	_, err := Lookup("nope")
	if !errors.Is(err, terrors.New("E060")) {
		t.Errorf("Lookup(nope) error = %v, want E060", err)
	}
}

func TestAllSorted(t *testing.T) {
	all := All()
	if len(all) != 3 {
		t.Fatalf("All() = %d examples, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Errorf("All() not sorted: %s before %s", all[i-1].Name, all[i].Name)
		}
	}
}

func TestTodoListUpdate(t *testing.T) {
	l := &TodoList{}
	l.Update(TodoMsg{Op: TodoAdd})
	l.Update(TodoMsg{Op: TodoAdd})
	l.Update(TodoMsg{Op: TodoAdd})
	l.Update(TodoMsg{Op: TodoRemove, Index: 1})
	l.Update(TodoMsg{Op: TodoRemove, Index: 9})

	if len(l.Items) != 2 || l.Items[0] != "task 1" || l.Items[1] != "task 3" {
		t.Errorf("Items = %v, want [task 1 task 3]", l.Items)
	}

	l.Update(TodoMsg{Op: TodoClear})
	if len(l.Items) != 0 {
		t.Errorf("Items = %v after clear", l.Items)
	}
}

func TestGreeterCycles(t *testing.T) {
	g := NewGreeter().(*Greeter)
	for i := 0; i < len(g.Names); i++ {
		g.Update(Next)
	}
	if g.i != 0 {
		t.Errorf("index = %d after a full cycle, want 0", g.i)
	}
}
