// Package tree provides the render tree: the immutable value a component's
// View returns.
//
// A render tree is built from three node kinds:
//
//   - *Element: a tag, attributes, event bindings and children
//   - *ComponentRef: a child component, its factory and its props
//   - *Template: a text leaf, or a list of nodes spliced into the parent
//
// Render trees carry no identity. Paths are assigned when the vdom package
// expands a tree against a path prefix.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("counter"),
//	    Button(OnClick(Add{}), "+"),
//	    Textf("count: %d", c.count),
//	)
//
// # Components
//
// Components are written against the typed Component[P, M] interface and
// erased to Instance at the boundary. A props or message value of the wrong
// type is a contract violation and panics.
//
//	type Counter struct{ count int }
//
//	func (c *Counter) View(struct{}) tree.Html { ... }
//	func (c *Counter) Update(msg CounterMsg)   { ... }
//
//	tree.Mount("Counter", func() tree.Component[struct{}, CounterMsg] {
//	    return &Counter{}
//	}, struct{}{})
package tree
