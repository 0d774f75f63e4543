package vdom

import (
	"reflect"
	"strings"

	"github.com/vango-dev/trellis/pkg/path"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // <div>, <button>, etc.
	KindTemplate             // Text leaf rendered into a placeholder
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindTemplate:
		return "Template"
	default:
		return "Unknown"
	}
}

// Callback is an event binding carried into the virtual DOM.
type Callback struct {
	Event string
	Msg   any
}

// Node is an addressed, fully expanded virtual DOM node.
type Node struct {
	Kind      Kind
	Tag       string     // Element tag name
	Attrs     string     // Rendered attribute string
	Text      string     // Template text
	Children  []*Node    // Element children
	Callbacks []Callback // Event bindings
	Path      path.Path  // Identity assigned during expansion
	Owner     path.Path  // Component that receives this node's messages
}

// Equal is the restricted equality used by the reconciler: kind plus tag
// and attributes for elements, kind plus text for templates. Children and
// callbacks are not compared.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindTemplate:
		return n.Text == o.Text
	default:
		return n.Tag == o.Tag && n.Attrs == o.Attrs
	}
}

// IsInteractive returns true if the node has event bindings.
func (n *Node) IsInteractive() bool {
	return n != nil && len(n.Callbacks) > 0
}

// TextContent returns the concatenated template text of the subtree.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.Walk(func(node *Node) bool {
		if node.Kind == KindTemplate {
			b.WriteString(node.Text)
		}
		return true
	})
	return b.String()
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// CallbacksEqual reports whether both nodes bind the same events to equal
// messages, in order.
func CallbacksEqual(a, b []Callback) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Event != b[i].Event {
			return false
		}
		if !msgEqual(a[i].Msg, b[i].Msg) {
			return false
		}
	}
	return true
}

// msgEqual compares two opaque messages.
func msgEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case nil:
		return b == nil
	}
	// Fallback to reflect for complex types
	return reflect.DeepEqual(a, b)
}
