// Package reconcile applies the difference between two expanded virtual
// DOM trees to a dom.Document.
//
// The walk is positional. At each level the child lists are compared
// pairwise with vdom.Node.Equal:
//
//   - a template whose text changed has its placeholder rewritten with the
//     escaped text in one primitive, touching nothing else
//   - an element whose tag or attributes changed, or a change of node kind,
//     makes the parent's child list stale; the parent's content is replaced
//     with the markup of all new children
//   - equal elements get their listeners swapped when their callbacks or
//     owner differ, then the walk descends into their children
//
// A change in the number of children is governed by Policy.
//
// Every replacement is followed by a passover of the inserted subtree,
// which appends template text and attaches one listener per callback. A
// listener captures the owner Path and message of its node and hands them
// to the DeliverFunc when the event fires.
//
// A lookup failure abandons its branch. Patch reports the tree the DOM
// holds afterwards, with the previous subtree wherever a branch was
// abandoned, so committing it makes the next pass retry those branches.
//
// Re-rendering an unchanged tree applies no DOM primitive at all.
package reconcile
