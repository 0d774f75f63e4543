package examples

import (
	"fmt"

	"github.com/vango-dev/trellis/pkg/tree"
)

// TodoOp selects a TodoMsg action.
type TodoOp int

const (
	TodoAdd TodoOp = iota
	TodoRemove
	TodoClear
)

// TodoMsg is a TodoList message. Index is used by TodoRemove.
type TodoMsg struct {
	Op    TodoOp
	Index int
}

// TodoList is a list that grows and shrinks.
type TodoList struct {
	Items []string
	next  int
}

// NewTodoList creates an empty TodoList.
func NewTodoList() tree.Component[struct{}, TodoMsg] {
	return &TodoList{}
}

func (l *TodoList) View(struct{}) tree.Html {
	return tree.Html{
		tree.H1("Todos"),
		tree.Button(tree.OnClick(TodoMsg{Op: TodoAdd}), "add"),
		tree.Ul(
			tree.Each(l.Items, func(i int, item string) tree.Node {
				return tree.Li(
					item,
					tree.Button(tree.OnClick(TodoMsg{Op: TodoRemove, Index: i}), "x"),
				)
			}),
		),
		tree.P(tree.Textf("%d items", len(l.Items))),
	}
}

func (l *TodoList) Update(msg TodoMsg) {
	switch msg.Op {
	case TodoAdd:
		l.next++
		l.Items = append(l.Items, fmt.Sprintf("task %d", l.next))
	case TodoRemove:
		if msg.Index >= 0 && msg.Index < len(l.Items) {
			l.Items = append(l.Items[:msg.Index], l.Items[msg.Index+1:]...)
		}
	case TodoClear:
		l.Items = nil
	}
}
