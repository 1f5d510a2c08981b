package hosttree

import (
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// voidElements are elements that cannot have children and have no closing tag.
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

// OuterHTML serializes h and its subtree. Listeners are not serialized.
func (t *Tree) OuterHTML(h vdom.Handle) string {
	var buf strings.Builder
	t.writeNode(&buf, h)
	return buf.String()
}

// InnerHTML serializes the children of h.
func (t *Tree) InnerHTML(h vdom.Handle) string {
	var buf strings.Builder
	n, err := t.get(h)
	if err != nil {
		return ""
	}
	for _, c := range n.children {
		t.writeNode(&buf, c)
	}
	return buf.String()
}

// WriteHTML streams the children of h to w.
func (t *Tree) WriteHTML(w io.Writer, h vdom.Handle) error {
	_, err := io.WriteString(w, t.InnerHTML(h))
	return err
}

func (t *Tree) writeNode(buf *strings.Builder, h vdom.Handle) {
	n, err := t.get(h)
	if err != nil {
		return
	}
	if n.kind == textNode {
		buf.WriteString(escapeHTML(n.text))
		return
	}

	buf.WriteByte('<')
	buf.WriteString(n.tag)
	t.writeAttributes(buf, n)
	buf.WriteByte('>')
	if voidElements[n.tag] {
		return
	}
	for _, c := range n.children {
		t.writeNode(buf, c)
	}
	buf.WriteString("</")
	buf.WriteString(n.tag)
	buf.WriteByte('>')
}

// writeAttributes renders class, then attributes in sorted order, then style.
func (t *Tree) writeAttributes(buf *strings.Builder, n *node) {
	if n.class != "" {
		writeAttr(buf, "class", n.class)
	}

	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		if k == "class" || k == "style" && len(n.style) > 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := n.attrs[k]; v == "" {
			buf.WriteByte(' ')
			buf.WriteString(k)
		} else {
			writeAttr(buf, k, v)
		}
	}

	if len(n.style) > 0 {
		props := make([]string, 0, len(n.style))
		for k := range n.style {
			props = append(props, k)
		}
		sort.Strings(props)
		var css strings.Builder
		for i, k := range props {
			if i > 0 {
				css.WriteByte(' ')
			}
			css.WriteString(k)
			css.WriteString(": ")
			css.WriteString(n.style[k])
			css.WriteByte(';')
		}
		writeAttr(buf, "style", css.String())
	}
}

func writeAttr(buf *strings.Builder, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(escapeAttr(value))
	buf.WriteByte('"')
}
