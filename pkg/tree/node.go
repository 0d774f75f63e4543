package tree

import "fmt"

// Node is one node of a render tree. The set of implementations is closed:
// *Element, *ComponentRef and *Template.
type Node interface {
	isNode()
}

// Html is the output of a component's View: an ordered list of sibling
// nodes.
type Html []Node

// Binding associates a DOM event name (e.g. "click") with an opaque message
// delivered to the owning component when the event fires.
type Binding struct {
	Event string
	Msg   any
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Element is an HTML element with attributes, event bindings and children.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Events   []Binding
	Children []Node
}

// ComponentRef refers to a child component. Factory creates the instance on
// first encounter of the reference's path; Props are handed to its View on
// every render.
type ComponentRef struct {
	Name    string
	Factory Factory
	Props   any
	Events  []Binding
}

// Template is a leaf. When List is false it displays Text. When List is true
// its Nodes are spliced into the parent's children in place of the template.
type Template struct {
	Text  string
	Nodes []Node
	List  bool
}

func (*Element) isNode()      {}
func (*ComponentRef) isNode() {}
func (*Template) isNode()     {}

// Text creates a template displaying v. Strings are used as-is, everything
// else is formatted with fmt.Sprint.
func Text(v any) *Template {
	switch s := v.(type) {
	case string:
		return &Template{Text: s}
	case fmt.Stringer:
		return &Template{Text: s.String()}
	default:
		return &Template{Text: fmt.Sprint(v)}
	}
}

// Textf creates a formatted text template.
func Textf(format string, args ...any) *Template {
	return &Template{Text: fmt.Sprintf(format, args...)}
}

// List creates a template of nodes. Arguments may be Node, Html or []Node;
// nil values are skipped.
func List(items ...any) *Template {
	t := &Template{List: true}
	for _, item := range items {
		t.Nodes = appendNodes(t.Nodes, item)
	}
	return t
}

// Each maps items to nodes and returns them as a list template.
func Each[T any](items []T, fn func(i int, item T) Node) *Template {
	t := &Template{List: true, Nodes: make([]Node, 0, len(items))}
	for i, item := range items {
		if n := fn(i, item); n != nil {
			t.Nodes = append(t.Nodes, n)
		}
	}
	return t
}

// On binds an event to a message.
func On(event string, msg any) Binding {
	return Binding{Event: event, Msg: msg}
}

// A creates an attribute; the value is formatted with fmt.Sprint.
func A(key string, value any) Attr {
	if s, ok := value.(string); ok {
		return Attr{Key: key, Value: s}
	}
	return Attr{Key: key, Value: fmt.Sprint(value)}
}

func appendNodes(dst []Node, item any) []Node {
	switch v := item.(type) {
	case nil:
	case *Element:
		if v != nil {
			dst = append(dst, v)
		}
	case *ComponentRef:
		if v != nil {
			dst = append(dst, v)
		}
	case *Template:
		if v != nil {
			dst = append(dst, v)
		}
	case Html:
		for _, n := range v {
			dst = appendNodes(dst, n)
		}
	case []Node:
		for _, n := range v {
			dst = appendNodes(dst, n)
		}
	case string:
		dst = append(dst, Text(v))
	}
	return dst
}
