package tree

// El creates an element with the given tag. Arguments can be: nil, Attr,
// []Attr, Binding, []Binding, Node, Html, []Node or string (a text child).
// Anything else is ignored.
func El(tag string, args ...any) *Element {
	el := &Element{
		Tag:   tag,
		Attrs: make(map[string]string),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue

		case Attr:
			if !v.IsEmpty() {
				el.Attrs[v.Key] = v.Value
			}

		case []Attr:
			for _, attr := range v {
				if !attr.IsEmpty() {
					el.Attrs[attr.Key] = attr.Value
				}
			}

		case Binding:
			el.Events = append(el.Events, v)

		case []Binding:
			el.Events = append(el.Events, v...)

		default:
			el.Children = appendNodes(el.Children, arg)
		}
	}

	return el
}

// Common elements.

func Div(args ...any) *Element    { return El("div", args...) }
func Span(args ...any) *Element   { return El("span", args...) }
func P(args ...any) *Element      { return El("p", args...) }
func H1(args ...any) *Element     { return El("h1", args...) }
func H2(args ...any) *Element     { return El("h2", args...) }
func Ul(args ...any) *Element     { return El("ul", args...) }
func Li(args ...any) *Element     { return El("li", args...) }
func Button(args ...any) *Element { return El("button", args...) }
func Input(args ...any) *Element  { return El("input", args...) }
func Label(args ...any) *Element  { return El("label", args...) }
func Section(args ...any) *Element {
	return El("section", args...)
}

// Common attributes.

func Class(name string) Attr { return Attr{Key: "class", Value: name} }
func ID(id string) Attr      { return Attr{Key: "id", Value: id} }
func Type(t string) Attr     { return Attr{Key: "type", Value: t} }
func Value(v string) Attr    { return Attr{Key: "value", Value: v} }

// Common events.

func OnClick(msg any) Binding  { return On("click", msg) }
func OnInput(msg any) Binding  { return On("input", msg) }
func OnChange(msg any) Binding { return On("change", msg) }
func OnSubmit(msg any) Binding { return On("submit", msg) }
