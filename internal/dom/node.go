// Package dom provides the element tree the injection pipeline operates on.
// It is a deliberately small model of the browser DOM: element and text nodes,
// attributes, class lists, subtree text, and the restricted selector grammar
// the target registry needs. Pages are parsed from HTML snapshots via
// golang.org/x/net/html.
package dom

import "strings"

// NodeType discriminates the node kinds the pipeline cares about.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	DocumentNode
)

// Attr is a single element attribute.
type Attr struct {
	Key string
	Val string
}

// Node is one node of the page tree. Element identity is pointer identity;
// de-duplication state lives on the node itself (as an attribute) because the
// node's lifetime is the only lifetime the pipeline can rely on.
type Node struct {
	Type NodeType
	Tag  string // lowercase element tag, empty for text nodes
	Data string // text content for text nodes

	attrs    []Attr
	parent   *Node
	children []*Node

	onClick func()
}

// NewElement creates a detached element node.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: strings.ToLower(tag)}
}

// NewText creates a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Children returns the child nodes in document order.
func (n *Node) Children() []*Node {
	return n.children
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets or replaces the named attribute.
func (n *Node) SetAttr(key, val string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs[i].Val = val
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Val: val})
}

// Classes returns the element's class list.
func (n *Node) Classes() []string {
	val, ok := n.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(val)
}

// HasClass reports whether the element carries the given class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends a class if not already present.
func (n *Node) AddClass(class string) {
	if n.HasClass(class) {
		return
	}
	val, _ := n.Attr("class")
	if val == "" {
		n.SetAttr("class", class)
		return
	}
	n.SetAttr("class", val+" "+class)
}

// RemoveClass drops a class if present.
func (n *Node) RemoveClass(class string) {
	classes := n.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(classes) {
		return
	}
	n.SetAttr("class", strings.Join(kept, " "))
}

// AppendChild attaches child as the last child of n. A child already attached
// elsewhere is detached first.
func (n *Node) AppendChild(child *Node) {
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// PrependChild attaches child as the first child of n.
func (n *Node) PrependChild(child *Node) {
	child.Detach()
	child.parent = n
	n.children = append([]*Node{child}, n.children...)
}

// Detach removes n from its parent. Detached nodes keep their subtree and
// still accept reads and writes; mutating a detached node is a harmless no-op
// as far as the page is concerned.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Connected reports whether n is reachable from a document root.
func (n *Node) Connected() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Type == DocumentNode {
			return true
		}
	}
	return false
}

// Text returns the concatenated text of the subtree, in document order.
// Callers trim as needed.
func (n *Node) Text() string {
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	if n.Type == TextNode {
		sb.WriteString(n.Data)
		return
	}
	for _, c := range n.children {
		c.collectText(sb)
	}
}

// SetText replaces the node's children with a single text node.
func (n *Node) SetText(text string) {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	n.AppendChild(NewText(text))
}

// OnClick installs the activation handler for the node. There is no event
// bubbling; a click fires exactly the handler installed on the node.
func (n *Node) OnClick(fn func()) {
	n.onClick = fn
}

// Click invokes the node's activation handler, if any.
func (n *Node) Click() {
	if n.onClick != nil {
		n.onClick()
	}
}

// Walk visits n and every descendant in document order. Returning false from
// fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}
