package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed page. Its root is a DocumentNode; nodes attached under
// it are connected.
type Document struct {
	root *Node
}

// Root returns the document node.
func (d *Document) Root() *Node { return d.root }

// Body returns the page <body>, or the document root if no body exists.
func (d *Document) Body() *Node {
	var body *Node
	d.root.Walk(func(n *Node) bool {
		if n.Type == ElementNode && n.Tag == "body" {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return d.root
	}
	return body
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{root: &Node{Type: DocumentNode, Tag: "#document"}}
}

// Parse reads an HTML page into a Document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if converted := convert(c); converted != nil {
			doc.root.AppendChild(converted)
		}
	}
	return doc, nil
}

// ParseFragment parses a fragment of HTML (as it would appear inside <body>)
// into detached nodes, ready to be appended to a connected element.
func ParseFragment(src string) ([]*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, err
	}
	var out []*Node
	for _, n := range parsed {
		if converted := convert(n); converted != nil {
			out = append(out, converted)
		}
	}
	return out, nil
}

// convert maps an html.Node subtree onto our node type, dropping comments,
// doctypes, and other node kinds the pipeline never inspects.
func convert(src *html.Node) *Node {
	switch src.Type {
	case html.ElementNode:
		n := NewElement(src.Data)
		for _, a := range src.Attr {
			n.SetAttr(a.Key, a.Val)
		}
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			if converted := convert(c); converted != nil {
				n.AppendChild(converted)
			}
		}
		return n
	case html.TextNode:
		return NewText(src.Data)
	default:
		return nil
	}
}
