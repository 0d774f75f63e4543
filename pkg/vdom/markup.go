package vdom

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// placeholderTag is the element a template occupies in serialized markup.
// Its text is filled in after insertion.
const placeholderTag = "span"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// attrWhitespace keeps newlines and tabs inside attribute values from being
// normalized away by the parser.
var attrWhitespace = strings.NewReplacer("\n", "&#10;", "\r", "&#13;", "\t", "&#9;")

func escapeAttr(s string) string {
	return attrWhitespace.Replace(html.EscapeString(s))
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// RenderAttrs renders attributes sorted by key, so equal maps always
// produce equal strings.
func RenderAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(attrs[k]))
		b.WriteByte('"')
	}
	return b.String()
}

// Markup serializes the subtree rooted at n. Templates render as empty
// placeholders.
func (n *Node) Markup() string {
	var b strings.Builder
	writeMarkup(&b, n)
	return b.String()
}

// ChildrenMarkup serializes n's children, the content that replaces the
// inner HTML of n's DOM counterpart.
func (n *Node) ChildrenMarkup() string {
	var b strings.Builder
	for _, child := range n.Children {
		writeMarkup(&b, child)
	}
	return b.String()
}

// HTML serializes the subtree with template text inlined and escaped. This
// is the markup a DOM holds after a passover.
func (n *Node) HTML() string {
	var b strings.Builder
	writeHTML(&b, n)
	return b.String()
}

// EscapedText returns a template's text as markup, the inner HTML its
// placeholder holds.
func (n *Node) EscapedText() string {
	return html.EscapeString(n.Text)
}

func writeMarkup(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Kind == KindTemplate {
		b.WriteString("<" + placeholderTag + "></" + placeholderTag + ">")
		return
	}
	writeOpen(b, n)
	if IsVoidElement(n.Tag) {
		return
	}
	for _, child := range n.Children {
		writeMarkup(b, child)
	}
	writeClose(b, n)
}

func writeHTML(b *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	if n.Kind == KindTemplate {
		b.WriteString("<" + placeholderTag + ">")
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("</" + placeholderTag + ">")
		return
	}
	writeOpen(b, n)
	if IsVoidElement(n.Tag) {
		return
	}
	for _, child := range n.Children {
		writeHTML(b, child)
	}
	writeClose(b, n)
}

func writeOpen(b *strings.Builder, n *Node) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	if n.Attrs != "" {
		b.WriteByte(' ')
		b.WriteString(n.Attrs)
	}
	b.WriteByte('>')
}

func writeClose(b *strings.Builder, n *Node) {
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
}
