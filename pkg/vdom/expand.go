package vdom

import (
	"log/slog"

	"github.com/vango-dev/trellis/pkg/path"
	"github.com/vango-dev/trellis/pkg/registry"
	"github.com/vango-dev/trellis/pkg/tree"
)

// RootTag is the tag of the synthetic container that stands for the host's
// render root. It is never serialized.
const RootTag = "root"

// ComponentTag is the wrapper element a component occupies in the DOM.
const ComponentTag = "span"

// ComponentAttr names the wrapper attribute carrying the component name.
const ComponentAttr = "data-component"

// Expansion is the result of expanding a component tree.
type Expansion struct {
	// Root is the container node; its children are the root view's nodes.
	Root *Node

	// Live holds the registry keys of every component reached, including
	// the root.
	Live map[string]struct{}

	// Created counts instances created during this expansion.
	Created int
}

// Expander turns render trees into addressed virtual DOM nodes, resolving
// component references against a registry.
type Expander struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewExpander creates an Expander. A nil logger uses slog.Default().
func NewExpander(reg *registry.Registry, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{registry: reg, logger: logger}
}

// pass holds the per-expansion state.
type pass struct {
	*Expander
	live    map[string]struct{}
	created int
}

// ExpandRoot renders the root instance with props and expands its view.
func (e *Expander) ExpandRoot(root *registry.Handle, props any) (*Expansion, error) {
	html, err := root.View(props)
	if err != nil {
		return nil, err
	}

	p := &pass{Expander: e, live: map[string]struct{}{root.Path().Key(): {}}}
	rootPath := root.Path()
	node := &Node{
		Kind:     KindElement,
		Tag:      RootTag,
		Path:     rootPath,
		Owner:    rootPath,
		Children: p.expandAll(html, rootPath, rootPath),
	}

	return &Expansion{Root: node, Live: p.live, Created: p.created}, nil
}

// Expand expands html below prefix with owner as the receiver of its
// messages. Component references are resolved and created as needed.
func (e *Expander) Expand(html tree.Html, prefix, owner path.Path) []*Node {
	p := &pass{Expander: e, live: make(map[string]struct{})}
	return p.expandAll(html, prefix, owner)
}

func (p *pass) expandAll(nodes []tree.Node, prefix, owner path.Path) []*Node {
	out := make([]*Node, 0, len(nodes))
	for i, n := range nodes {
		out = p.expandNode(out, n, i, prefix, owner)
	}
	return out
}

// expandNode appends the expansion of n, the index-th sibling below prefix,
// to out.
func (p *pass) expandNode(out []*Node, n tree.Node, index int, prefix, owner path.Path) []*Node {
	switch v := n.(type) {
	case *tree.Element:
		self := prefix.Child(index, path.Element)
		var children []*Node
		if IsVoidElement(v.Tag) {
			if len(v.Children) > 0 {
				p.logger.Warn("children of void element dropped", "path", self.String(), "tag", v.Tag, "count", len(v.Children))
			}
		} else {
			children = p.expandAll(v.Children, self, owner)
		}
		return append(out, &Node{
			Kind:      KindElement,
			Tag:       v.Tag,
			Attrs:     RenderAttrs(v.Attrs),
			Children:  children,
			Callbacks: callbacks(v.Events),
			Path:      self,
			Owner:     owner,
		})

	case *tree.Template:
		self := prefix.Child(index, path.Template)
		if !v.List {
			return append(out, &Node{
				Kind:  KindTemplate,
				Text:  v.Text,
				Path:  self,
				Owner: owner,
			})
		}
		// A list template flattens into its parent.
		for j, item := range v.Nodes {
			out = p.expandNode(out, item, j, self, owner)
		}
		return out

	case *tree.ComponentRef:
		return append(out, p.expandComponent(v, index, prefix, owner))

	default:
		return out
	}
}

// expandComponent resolves a component reference. The component occupies
// one wrapper element even when its view is empty; its children use the
// component's own path as prefix and owner.
func (p *pass) expandComponent(ref *tree.ComponentRef, index int, prefix, owner path.Path) *Node {
	self := prefix.Child(index, ref.Name)
	p.live[self.Key()] = struct{}{}

	h, created := p.registry.GetOrInsert(self, ref.Factory)
	if created {
		p.created++
		p.logger.Debug("component created", "path", self.String(), "name", ref.Name)
	}

	var children []*Node
	html, err := h.View(ref.Props)
	if err != nil {
		p.logger.Warn("component view skipped", "path", self.String(), "name", ref.Name, "error", err)
	} else {
		children = p.expandAll(html, self, self)
	}

	return &Node{
		Kind:      KindElement,
		Tag:       ComponentTag,
		Attrs:     RenderAttrs(map[string]string{ComponentAttr: ref.Name}),
		Children:  children,
		Callbacks: callbacks(ref.Events),
		Path:      self,
		Owner:     owner,
	}
}

func callbacks(bindings []tree.Binding) []Callback {
	if len(bindings) == 0 {
		return nil
	}
	out := make([]Callback, len(bindings))
	for i, b := range bindings {
		out[i] = Callback{Event: b.Event, Msg: b.Msg}
	}
	return out
}
