// Package vdom provides the addressed virtual DOM.
//
// A Node is the expanded form of a render tree: every component reference
// has been resolved by calling its View, every node carries the Path it
// was expanded at, and event bindings are attached to the nodes that will
// own the DOM listeners.
//
// # Expansion
//
// Expander walks a render tree against a path prefix:
//
//   - an element gets prefix + (index, "element") and expands its children
//     below that path
//   - a text template becomes a template node; a list template splices its
//     expanded items into the parent's children
//   - a component reference gets prefix + (index, name), is fetched from
//     or created in the registry, and its view is expanded below its own
//     path inside a single wrapper element
//
// # Equality
//
// Node.Equal compares kind, tag and attributes (or text), never children.
// The reconciler walks children itself.
//
// # Markup
//
// Markup serializes a subtree with empty placeholders for templates; the
// reconciler fills the text in after inserting the markup. HTML serializes
// with text inlined, which is what a DOM holds afterwards.
package vdom
