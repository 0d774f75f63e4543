package examples

import "github.com/vango-dev/trellis/pkg/tree"

// GreeterMsg is a Greeter message.
type GreeterMsg int

// Next moves the Greeter to the next name.
const Next GreeterMsg = 0

// Greeter passes a name to a child Greeting and cycles through names.
type Greeter struct {
	Names []string
	i     int
}

// NewGreeter creates a Greeter with a fixed set of names.
func NewGreeter() tree.Component[struct{}, GreeterMsg] {
	return &Greeter{Names: []string{"Ada", "Grace", "Linus"}}
}

func (g *Greeter) View(struct{}) tree.Html {
	return tree.Html{
		tree.Div(tree.Class("greeter"),
			tree.Mount("Greeting", NewGreeting, GreetingProps{Name: g.Names[g.i]}),
			tree.Button(tree.OnClick(Next), "next"),
		),
	}
}

func (g *Greeter) Update(GreeterMsg) {
	g.i = (g.i + 1) % len(g.Names)
}

// GreetingProps are the props of a Greeting.
type GreetingProps struct {
	Name string
}

// WaveMsg is a Greeting message.
type WaveMsg struct{}

// Greeting greets a name and counts waves. Its count survives changes of
// the name it is given.
type Greeting struct {
	Waves int
}

// NewGreeting creates a Greeting.
func NewGreeting() tree.Component[GreetingProps, WaveMsg] {
	return &Greeting{}
}

func (g *Greeting) View(p GreetingProps) tree.Html {
	return tree.Html{
		tree.P(tree.Textf("Hello, %s!", p.Name)),
		tree.Button(tree.OnClick(WaveMsg{}), "wave"),
		tree.Textf("waves: %d", g.Waves),
	}
}

func (g *Greeting) Update(WaveMsg) {
	g.Waves++
}
