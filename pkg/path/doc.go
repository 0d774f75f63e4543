// Package path provides the positional identity of nodes in a component
// tree.
//
// A Path is a sequence of (index, discriminator) segments. The index is the
// node's position among its siblings; the discriminator is "element",
// "template", or the declared name of a component. Paths are immutable
// values: Concat always returns a new Path.
//
// Paths serve two purposes:
//
//   - Key() is the lookup key for persistent component state.
//   - Locator() renders an XPath-like positional locator ("/*[1]/*[3]")
//     that a host DOM resolves relative to the render root.
//
// Identity is purely positional. Reordering siblings changes their Paths.
package path
