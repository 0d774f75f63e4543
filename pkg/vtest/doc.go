// Package vtest provides testing helpers for trellis components.
//
// Mount renders a component into an in-memory document; events are fired
// on locators and assertions run against the resulting document.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.Mount(t, tree.FactoryOf("Counter", NewCounter))
//	    h.ExpectText("count: 0")
//
//	    h.Click("/html/body/*[1]")
//	    h.ExpectText("count: 1")
//	    h.ExpectMutations(1)
//	}
//
// # Locators
//
// Nodes are addressed by the root locator followed by one "/*[n]" step per
// element level, 1-based. Templates render as span elements and components
// as a single wrapper span, so every node counts as one position.
//
// # Render Assertions
//
//	h.ExpectContains(`<button>`)
//	h.ExpectNotContains("Error")
//	h.ExpectAttribute("class", "greeter")
//
// Stats returns the DOM work done by the last action, Total the work since
// Mount.
package vtest
