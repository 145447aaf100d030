package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// nodeKind distinguishes the token types kept in a part tree.
type nodeKind int

const (
	elementNode nodeKind = iota
	textNode
	commentNode
	procInstNode
	directiveNode
)

// node is a minimal mutable XML tree. Names keep their original prefixes
// (Space holds the prefix, not the namespace URI) so a part can be written
// back byte-compatible with what Word expects.
type node struct {
	kind     nodeKind
	name     xml.Name
	attrs    []xml.Attr
	children []*node
	parent   *node

	// data holds character data, comment text, directive text or the
	// processing instruction body.
	data string
	// target is the processing instruction target.
	target string
}

// parseTree reads an XML part into a tree rooted at a synthetic document node.
func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	root := &node{kind: elementNode}
	cur := root

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{kind: elementNode, name: t.Name, attrs: append([]xml.Attr(nil), t.Attr...), parent: cur}
			cur.children = append(cur.children, n)
			cur = n
		case xml.EndElement:
			if cur.parent == nil {
				return nil, fmt.Errorf("failed to parse xml: unexpected </%s>", qname(t.Name))
			}
			cur = cur.parent
		case xml.CharData:
			cur.children = append(cur.children, &node{kind: textNode, data: string(t), parent: cur})
		case xml.Comment:
			cur.children = append(cur.children, &node{kind: commentNode, data: string(t), parent: cur})
		case xml.ProcInst:
			cur.children = append(cur.children, &node{kind: procInstNode, target: t.Target, data: string(t.Inst), parent: cur})
		case xml.Directive:
			cur.children = append(cur.children, &node{kind: directiveNode, data: string(t), parent: cur})
		}
	}

	if cur != root {
		return nil, fmt.Errorf("failed to parse xml: unclosed <%s>", qname(cur.name))
	}
	return root, nil
}

// render writes the tree back to bytes.
func (n *node) render() []byte {
	var buf bytes.Buffer
	for _, c := range n.children {
		c.write(&buf)
	}
	return buf.Bytes()
}

func (n *node) write(buf *bytes.Buffer) {
	switch n.kind {
	case textNode:
		escapeText(buf, n.data)
	case commentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.data)
		buf.WriteString("-->")
	case procInstNode:
		buf.WriteString("<?")
		buf.WriteString(n.target)
		if n.data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.data)
		}
		buf.WriteString("?>")
	case directiveNode:
		buf.WriteString("<!")
		buf.WriteString(n.data)
		buf.WriteByte('>')
	case elementNode:
		buf.WriteByte('<')
		buf.WriteString(qname(n.name))
		for _, a := range n.attrs {
			buf.WriteByte(' ')
			buf.WriteString(qname(a.Name))
			buf.WriteString(`="`)
			escapeAttr(buf, a.Value)
			buf.WriteByte('"')
		}
		if len(n.children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.children {
			c.write(buf)
		}
		buf.WriteString("</")
		buf.WriteString(qname(n.name))
		buf.WriteByte('>')
	}
}

// escapeText escapes character data. Unlike xml.EscapeText it leaves tabs
// and newlines alone so untouched parts keep their formatting whitespace.
func escapeText(buf *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
}

func escapeAttr(buf *bytes.Buffer, s string) {
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '"':
			buf.WriteString("&quot;")
		case '\n':
			buf.WriteString("&#xA;")
		case '\r':
			buf.WriteString("&#xD;")
		case '\t':
			buf.WriteString("&#x9;")
		default:
			buf.WriteRune(r)
		}
	}
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// is reports whether n is the element prefix:local.
func (n *node) is(prefix, local string) bool {
	return n.kind == elementNode && n.name.Space == prefix && n.name.Local == local
}

// text returns the concatenated character data directly under n.
func (n *node) text() string {
	var b strings.Builder
	for _, c := range n.children {
		if c.kind == textNode {
			b.WriteString(c.data)
		}
	}
	return b.String()
}

// setText replaces n's children with a single character data node.
func (n *node) setText(s string) {
	if s == "" {
		n.children = nil
		return
	}
	n.children = []*node{{kind: textNode, data: s, parent: n}}
}

// setAttr sets or adds the attribute prefix:local.
func (n *node) setAttr(prefix, local, value string) {
	for i, a := range n.attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

// index returns the position of child c in n.children, or -1.
func (n *node) index(c *node) int {
	for i, x := range n.children {
		if x == c {
			return i
		}
	}
	return -1
}

// replaceChild swaps old for the given nodes, keeping order.
func (n *node) replaceChild(old *node, with ...*node) {
	i := n.index(old)
	if i < 0 {
		return
	}
	for _, w := range with {
		w.parent = n
	}
	rest := append([]*node(nil), n.children[i+1:]...)
	n.children = append(append(n.children[:i], with...), rest...)
}

// walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the visited node.
func (n *node) walk(fn func(*node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.walk(fn)
	}
}

// element creates a detached element prefix:local.
func element(prefix, local string) *node {
	return &node{kind: elementNode, name: xml.Name{Space: prefix, Local: local}}
}
