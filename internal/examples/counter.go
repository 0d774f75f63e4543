package examples

import "github.com/vango-dev/trellis/pkg/tree"

// CounterMsg is a Counter message.
type CounterMsg int

const (
	Add CounterMsg = iota
	Sub
)

// Counter renders a button and the current count.
type Counter struct {
	Count int
}

// NewCounter creates a Counter at zero.
func NewCounter() tree.Component[struct{}, CounterMsg] {
	return &Counter{}
}

func (c *Counter) View(struct{}) tree.Html {
	return tree.Html{
		tree.Button(tree.OnClick(Add), "+"),
		tree.Textf("count: %d", c.Count),
	}
}

func (c *Counter) Update(msg CounterMsg) {
	switch msg {
	case Add:
		c.Count++
	case Sub:
		c.Count--
	}
}
