// Package errors provides structured, coded errors for trellis.
//
// Each error has a unique code (e.g., "E001") that maps to a short
// message, a longer explanation and a documentation URL. Codes are grouped
// by category:
//   - dom: a DOM locator did not resolve (recoverable, logged)
//   - registry: missing or poisoned component instances
//   - contract: props or message type mismatches (programming errors,
//     raised as panics)
//   - runtime: render loop conditions (queue full, closed)
//   - protocol: remote DOM bridge framing
//   - config: configuration loading and validation
//
// Packages export sentinels built with New; decorated copies match them
// with errors.Is because TrellisError compares by code.
//
// # Usage
//
//	err := errors.New("E001").
//	    WithDetailf("locator %s", loc).
//	    WithSuggestion("Check that the render root exists in the document")
//
//	fmt.Println(err.Format())
package errors
