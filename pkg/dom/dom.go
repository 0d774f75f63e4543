// Package dom defines the host DOM capability the reconciler drives.
//
// Nodes are addressed by locators: the configured root locator followed by
// one "/*[n]" step per element level, 1-based, as produced by
// path.Path.Locator. A Document only needs to support that form.
//
// Two implementations ship with the module: memdom, an in-memory document
// used by tests and the CLI, and bridge, which forwards every call to a
// browser over a WebSocket.
package dom

import (
	"context"
	"strings"

	"github.com/vango-dev/trellis/internal/errors"
)

// ErrNotFound is returned when a locator does not resolve to a node.
// Callers treat it as a non-fatal lookup failure.
var ErrNotFound = errors.New("E001")

// ErrInvalidLocator is returned for locators that are not of the supported
// form.
var ErrInvalidLocator = errors.New("E008")

// Listener is invoked when a bound event fires.
type Listener func()

// Document is the host DOM capability.
type Document interface {
	// SetInnerHTML replaces the content of the node at locator with markup.
	SetInnerHTML(ctx context.Context, locator, markup string) error

	// AppendText appends a text node to the node at locator.
	AppendText(ctx context.Context, locator, text string) error

	// AddEventListener attaches fn for event to the node at locator.
	AddEventListener(ctx context.Context, locator, event string, fn Listener) error

	// RemoveEventListeners detaches every listener attached through
	// AddEventListener from the node at locator.
	RemoveEventListeners(ctx context.Context, locator string) error
}

// Op names a Document primitive, for logging and metrics.
type Op string

const (
	OpSetInnerHTML    Op = "set_inner_html"
	OpAppendText      Op = "append_text"
	OpAddListener     Op = "add_listener"
	OpRemoveListeners Op = "remove_listeners"
)

// NotFound builds the lookup-failure error for locator.
func NotFound(op Op, locator string) error {
	return errors.New("E001").WithDetailf("%s: %s", op, locator)
}

// Steps splits a locator below root into 1-based child positions.
// "/html/body/*[2]/*[1]" below "/html/body" yields [2 1].
func Steps(root, locator string) ([]int, error) {
	rest, ok := strings.CutPrefix(locator, root)
	if !ok {
		return nil, errors.New("E008").WithDetailf("%q is not below %q", locator, root)
	}
	if rest == "" {
		return nil, nil
	}

	parts := strings.Split(strings.TrimPrefix(rest, "/"), "/")
	steps := make([]int, 0, len(parts))
	for _, part := range parts {
		n, ok := parseStep(part)
		if !ok {
			return nil, errors.New("E008").WithDetailf("bad step %q in %q", part, locator)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

// parseStep parses "*[n]" with n >= 1.
func parseStep(s string) (int, bool) {
	inner, ok := strings.CutPrefix(s, "*[")
	if !ok {
		return 0, false
	}
	inner, ok = strings.CutSuffix(inner, "]")
	if !ok || inner == "" {
		return 0, false
	}
	n := 0
	for _, r := range inner {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, n >= 1
}
