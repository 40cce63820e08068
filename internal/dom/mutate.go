package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Detach removes n from its parent. A detached node is left untouched.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Append moves n to the end of parent's children.
func Append(parent, n *html.Node) {
	Detach(n)
	parent.AppendChild(n)
}

// InsertBefore moves n right before ref. A nil ref appends to parent.
func InsertBefore(parent, n, ref *html.Node) {
	Detach(n)
	if ref == nil || ref.Parent != parent {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, ref)
}

// InsertAfter moves n right after ref, which must be attached.
func InsertAfter(ref, n *html.Node) {
	if ref == nil || ref.Parent == nil {
		return
	}
	Detach(n)
	ref.Parent.InsertBefore(n, ref.NextSibling)
}

// Clear removes every child of n.
func Clear(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// CloneDeep copies n and its subtree. The copy is detached.
func CloneDeep(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      make([]html.Attribute, len(n.Attr)),
	}
	copy(c.Attr, n.Attr)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(CloneDeep(child))
	}
	return c
}

// bodyContext parses fragments as body content so no html/head/body wrapper
// is synthesized around them.
var bodyContext = &html.Node{
	Type:     html.ElementNode,
	DataAtom: atom.Body,
	Data:     "body",
}

// ParseFragment parses HTML body content into detached nodes.
func ParseFragment(content string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(content), bodyContext)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		Detach(n)
	}
	return nodes, nil
}

// SetInnerHTML replaces the children of n with the parsed content.
func SetInnerHTML(n *html.Node, content string) error {
	nodes, err := ParseFragment(content)
	if err != nil {
		return err
	}
	Clear(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, s string) {
	Clear(n)
	if s != "" {
		n.AppendChild(Text(s))
	}
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Render renders n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// TextContent concatenates every text node below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// HasVisibleText reports whether content still has text once tags and
// non-breaking spaces are stripped.
func HasVisibleText(content string) bool {
	nodes, err := ParseFragment(content)
	if err != nil {
		return strings.TrimSpace(content) != ""
	}
	for _, n := range nodes {
		text := strings.ReplaceAll(TextContent(n), "\u00a0", " ")
		if strings.TrimSpace(text) != "" {
			return true
		}
	}
	return false
}

// HasContent reports whether n holds element children or non-blank text.
func HasContent(n *html.Node) bool {
	if len(ElementChildren(n)) > 0 {
		return true
	}
	return strings.TrimSpace(TextContent(n)) != ""
}
