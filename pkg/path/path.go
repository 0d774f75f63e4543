package path

import (
	"strconv"
	"strings"
)

// Discriminators used for non-component segments.
const (
	Element  = "element"
	Template = "template"
)

// Segment is one level of a Path: the position among siblings and a
// discriminator naming the node kind or the component type.
type Segment struct {
	Index int
	Name  string
}

// Path addresses a node from the root of the component tree.
// The zero value is the root path.
type Path struct {
	segs []Segment
}

// New returns the root path.
func New() Path {
	return Path{}
}

// Of builds a path from segments.
func Of(segs ...Segment) Path {
	p := Path{}
	for _, s := range segs {
		p = p.Concat(s)
	}
	return p
}

// Concat returns a new path with seg appended. The receiver is not modified
// and the result never shares its backing array.
func (p Path) Concat(seg Segment) Path {
	segs := make([]Segment, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return Path{segs: append(segs, seg)}
}

// Child is shorthand for Concat(Segment{Index: index, Name: name}).
func (p Path) Child(index int, name string) Path {
	return p.Concat(Segment{Index: index, Name: name})
}

// Len returns the number of segments.
func (p Path) Len() int {
	return len(p.segs)
}

// IsRoot reports whether p has no segments.
func (p Path) IsRoot() bool {
	return len(p.segs) == 0
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segs))
	copy(out, p.segs)
	return out
}

// Last returns the trailing segment and false for the root path.
func (p Path) Last() (Segment, bool) {
	if len(p.segs) == 0 {
		return Segment{}, false
	}
	return p.segs[len(p.segs)-1], true
}

// Parent returns p without its trailing segment. The parent of the root is
// the root.
func (p Path) Parent() Path {
	if len(p.segs) == 0 {
		return p
	}
	return Path{segs: p.segs[:len(p.segs)-1:len(p.segs)-1]}
}

// Equal reports whether both paths have the same segment sequence.
func (p Path) Equal(q Path) bool {
	if len(p.segs) != len(q.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != q.segs[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether q is an ancestor of p or equal to it.
func (p Path) HasPrefix(q Path) bool {
	if len(q.segs) > len(p.segs) {
		return false
	}
	for i := range q.segs {
		if p.segs[i] != q.segs[i] {
			return false
		}
	}
	return true
}

// Key returns a string that is equal for two paths iff the paths are equal.
// Names are length-prefixed so they may contain any character.
func (p Path) Key() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(s.Index))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(len(s.Name)))
		b.WriteByte(':')
		b.WriteString(s.Name)
	}
	return b.String()
}

// Locator renders the positional element locator for p, one "/*[n]" step per
// segment with 1-based positions. The root path renders as "".
func (p Path) Locator() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteString("/*[")
		b.WriteString(strconv.Itoa(s.Index + 1))
		b.WriteByte(']')
	}
	return b.String()
}

// String returns a readable form such as "0:element/1:Counter".
func (p Path) String() string {
	if len(p.segs) == 0 {
		return "/"
	}
	parts := make([]string, len(p.segs))
	for i, s := range p.segs {
		parts[i] = strconv.Itoa(s.Index) + ":" + s.Name
	}
	return strings.Join(parts, "/")
}
