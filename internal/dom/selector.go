package dom

import (
	"fmt"
	"strings"
	"sync"
)

// Selector is a compiled selector. The grammar covers what the target
// registry actually uses: an optional tag, class terms, attribute terms
// (presence, exact match, prefix match), and the descendant combinator.
//
//	div.feed-item[role="article"][data-urn^="urn:li:activity:"]
//	div.actor__container span[dir]
//	.ql-editor
type Selector struct {
	parts []compound
	src   string
}

type compound struct {
	tag     string
	classes []string
	attrs   []attrTerm
}

type attrTerm struct {
	key string
	val string
	op  byte // 0 presence, '=' exact, '^' prefix
}

// String returns the source text the selector was compiled from.
func (s *Selector) String() string { return s.src }

var (
	selCacheMu sync.RWMutex
	selCache   = map[string]*Selector{}
)

// Compile parses a selector string.
func Compile(src string) (*Selector, error) {
	selCacheMu.RLock()
	cached, ok := selCache[src]
	selCacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	fields := strings.Fields(src)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty selector")
	}
	sel := &Selector{src: src}
	for _, f := range fields {
		c, err := parseCompound(f)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", src, err)
		}
		sel.parts = append(sel.parts, c)
	}

	selCacheMu.Lock()
	selCache[src] = sel
	selCacheMu.Unlock()
	return sel, nil
}

// MustCompile is Compile for selectors known at build time.
func MustCompile(src string) *Selector {
	sel, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return sel
}

func parseCompound(src string) (compound, error) {
	var c compound
	i := 0
	// leading tag
	start := i
	for i < len(src) && src[i] != '.' && src[i] != '[' {
		i++
	}
	c.tag = strings.ToLower(src[start:i])

	for i < len(src) {
		switch src[i] {
		case '.':
			i++
			start = i
			for i < len(src) && src[i] != '.' && src[i] != '[' {
				i++
			}
			if start == i {
				return c, fmt.Errorf("empty class term in %q", src)
			}
			c.classes = append(c.classes, src[start:i])
		case '[':
			end := strings.IndexByte(src[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute term in %q", src)
			}
			term, err := parseAttrTerm(src[i+1 : i+end])
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, term)
			i += end + 1
		default:
			return c, fmt.Errorf("unexpected %q in %q", src[i], src)
		}
	}
	return c, nil
}

func parseAttrTerm(src string) (attrTerm, error) {
	if src == "" {
		return attrTerm{}, fmt.Errorf("empty attribute term")
	}
	if idx := strings.Index(src, "^="); idx >= 0 {
		return attrTerm{key: src[:idx], val: unquote(src[idx+2:]), op: '^'}, nil
	}
	if idx := strings.IndexByte(src, '='); idx >= 0 {
		return attrTerm{key: src[:idx], val: unquote(src[idx+1:]), op: '='}, nil
	}
	return attrTerm{key: src}, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func (c compound) matches(n *Node) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	if c.tag != "" && n.Tag != c.tag {
		return false
	}
	for _, class := range c.classes {
		if !n.HasClass(class) {
			return false
		}
	}
	for _, t := range c.attrs {
		val, ok := n.Attr(t.key)
		if !ok {
			return false
		}
		switch t.op {
		case '=':
			if val != t.val {
				return false
			}
		case '^':
			if !strings.HasPrefix(val, t.val) {
				return false
			}
		}
	}
	return true
}

// Matches reports whether the node satisfies the full selector, with any
// ancestor part allowed to match anywhere up the ancestor chain.
func (s *Selector) Matches(n *Node) bool {
	last := len(s.parts) - 1
	if !s.parts[last].matches(n) {
		return false
	}
	cur := n.Parent()
	for i := last - 1; i >= 0; i-- {
		for cur != nil && !s.parts[i].matches(cur) {
			cur = cur.Parent()
		}
		if cur == nil {
			return false
		}
		cur = cur.Parent()
	}
	return true
}

// QueryAll returns every descendant of n (excluding n itself) matching the
// selector, in document order.
func (n *Node) QueryAll(src string) []*Node {
	sel, err := Compile(src)
	if err != nil {
		return nil
	}
	var out []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if sel.Matches(d) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// Query returns the first descendant of n matching the selector, or nil.
func (n *Node) Query(src string) *Node {
	sel, err := Compile(src)
	if err != nil {
		return nil
	}
	var found *Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if found != nil {
				return false
			}
			if sel.Matches(d) {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}
