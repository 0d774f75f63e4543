package bridge

import (
	"fmt"

	"github.com/vango-dev/trellis/internal/errors"
	"github.com/vango-dev/trellis/pkg/dom"
)

// Outgoing operations. Each maps to one dom.Document primitive.
const (
	opHTML     = "html"
	opText     = "text"
	opListen   = "listen"
	opUnlisten = "unlisten"
)

// Incoming frame types.
const (
	frameAck   = "ack"
	frameEvent = "event"
)

// Ack error values the client reports.
const (
	ackNotFound = "not_found"
)

// command is a server-to-client frame.
type command struct {
	Op     string `json:"op"`
	Seq    uint64 `json:"seq"`
	Loc    string `json:"loc"`
	Markup string `json:"markup,omitempty"`
	Text   string `json:"text,omitempty"`
	Event  string `json:"event,omitempty"`
	ID     int    `json:"id,omitempty"`
}

// reply is a client-to-server frame: either the ack of a command or a
// fired listener.
type reply struct {
	Type  string `json:"type"`
	Seq   uint64 `json:"seq,omitempty"`
	Error string `json:"error,omitempty"`
	ID    int    `json:"id,omitempty"`
}

// domOp maps a wire op to the dom.Op used in errors and logs.
func domOp(op string) dom.Op {
	switch op {
	case opHTML:
		return dom.OpSetInnerHTML
	case opText:
		return dom.OpAppendText
	case opListen:
		return dom.OpAddListener
	case opUnlisten:
		return dom.OpRemoveListeners
	}
	return dom.Op(op)
}

// ackError turns the error field of an ack into a Go error.
func ackError(c command, msg string) error {
	switch msg {
	case "":
		return nil
	case ackNotFound:
		return dom.NotFound(domOp(c.Op), c.Loc)
	}
	return errors.New("E040").WithDetail(fmt.Sprintf("%s %s: %s", c.Op, c.Loc, msg))
}
