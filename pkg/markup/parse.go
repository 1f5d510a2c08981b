// Package markup turns HTML markup into vdom trees and minifies serialized
// output.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Parse errors.
var (
	ErrEmpty         = errors.New("markup: no elements found")
	ErrMultipleRoots = errors.New("markup: expected a single root element")
)

// KeyAttr is the attribute whose value becomes the node key. It is kept on
// the element so keys survive serialization. A plain "key" attribute is
// also honored and does not reach the host.
const KeyAttr = "data-key"

// rawText elements keep their text exactly as written.
var rawText = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

// Parse reads an HTML fragment with exactly one root element and converts
// it to a vdom tree.
func Parse(r io.Reader) (*vdom.VNode, error) {
	nodes, err := ParseFragment(r)
	if err != nil {
		return nil, err
	}
	var root *vdom.VNode
	for _, n := range nodes {
		if n.Kind != vdom.KindElement {
			continue
		}
		if root != nil {
			return nil, ErrMultipleRoots
		}
		root = n
	}
	if root == nil {
		return nil, ErrEmpty
	}
	return root, nil
}

// ParseString is Parse for a string.
func ParseString(s string) (*vdom.VNode, error) {
	return Parse(strings.NewReader(s))
}

// ParseFragment reads an HTML fragment and returns its top-level nodes.
// Whitespace-only text and comments are dropped; other text has its
// whitespace runs collapsed except inside pre, textarea, script and style.
func ParseFragment(r io.Reader) ([]*vdom.VNode, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("markup: parse: %w", err)
	}

	var out []*vdom.VNode
	for _, n := range parsed {
		v, err := convert(n, false)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// convert maps an html.Node to a VNode. A nil result means the node is
// dropped.
func convert(n *html.Node, raw bool) (*vdom.VNode, error) {
	switch n.Type {
	case html.TextNode:
		if raw {
			return vdom.Text(n.Data), nil
		}
		if strings.TrimSpace(n.Data) == "" {
			return nil, nil
		}
		return vdom.Text(collapseSpace(n.Data)), nil

	case html.ElementNode:
		props := make(vdom.Props, len(n.Attr))
		for _, a := range n.Attr {
			switch a.Key {
			case "key":
				props["key"] = a.Val
			case KeyAttr:
				props["key"] = a.Val
				props[a.Key] = a.Val
			case "style":
				if style := parseStyle(a.Val); len(style) > 0 {
					props["style"] = style
				}
			default:
				props[a.Key] = a.Val
			}
		}

		raw = raw || rawText[n.Data]
		var children []*vdom.VNode
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			child, err := convert(c, raw)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}

		// A lone keyed child stays a list so it diffs against longer lists.
		var in any
		switch {
		case len(children) == 0:
		case len(children) == 1 && children[0].Key == nil:
			in = children[0]
		default:
			in = children
		}
		node, err := vdom.CreateElement(n.Data, props, in)
		if err != nil {
			return nil, fmt.Errorf("markup: <%s>: %w", n.Data, err)
		}
		return node, nil

	default:
		// Comments, doctypes and other node types carry nothing to render.
		return nil, nil
	}
}

// parseStyle splits an inline style declaration into properties.
func parseStyle(s string) vdom.Style {
	style := make(vdom.Style)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		style[strings.ToLower(name)] = value
	}
	return style
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}
