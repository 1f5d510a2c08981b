package vdom

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

// textType is the type of TextType.
type textType struct{}

// TextType is the sentinel type passed to CreateElement to build a text node.
var TextType = textType{}

// Construction errors.
var (
	ErrInvalidType     = errors.New("vdom: node type must be a tag name or TextType")
	ErrInvalidChildren = errors.New("vdom: unsupported children value")
	ErrUncomparableKey = errors.New("vdom: key must be comparable")
)

// CreateElement builds a VNode.
//
// typ is either a tag name, producing an element, or TextType, producing a
// text node whose payload is children stringified. For elements, children is
// classified as follows: nil or an empty list gives ShapeNone; a *VNode or a
// scalar (string, bool, number, fmt.Stringer) gives ShapeOne, scalars being
// wrapped in a text node; a non-empty []*VNode, []any or []string gives
// ShapeMany. Any other children value is rejected with ErrInvalidChildren.
//
// The "key" prop is lifted into VNode.Key and removed from Props.
func CreateElement(typ any, props Props, children any) (*VNode, error) {
	switch t := typ.(type) {
	case textType:
		s, ok := scalarString(children)
		if !ok && children != nil {
			return nil, fmt.Errorf("%w: text payload %T", ErrInvalidChildren, children)
		}
		return &VNode{Kind: KindText, Text: s}, nil
	case string:
		return newElement(t, props, children)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidType, typ)
	}
}

func newElement(tag string, props Props, children any) (*VNode, error) {
	node := &VNode{
		Kind:  KindElement,
		Tag:   tag,
		Props: make(Props, len(props)),
	}
	for name, value := range props {
		if name == "key" {
			if value != nil && !reflect.ValueOf(value).Comparable() {
				return nil, fmt.Errorf("%w: %T", ErrUncomparableKey, value)
			}
			node.Key = value
			continue
		}
		node.Props[name] = value
	}

	list, isList, err := childList(children)
	if err != nil {
		return nil, err
	}
	if !isList {
		child, err := childNode(children)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Shape = ShapeOne
			node.Child = child
		}
		return node, nil
	}
	if len(list) > 0 {
		node.Shape = ShapeMany
		node.Children = list
	}
	return node, nil
}

// childList flattens list inputs. isList is false for non-list values.
func childList(children any) (list []*VNode, isList bool, err error) {
	switch v := children.(type) {
	case []*VNode:
		list = make([]*VNode, 0, len(v))
		for _, c := range v {
			if c != nil {
				list = append(list, c)
			}
		}
		return list, true, nil
	case []string:
		list = make([]*VNode, 0, len(v))
		for _, s := range v {
			list = append(list, &VNode{Kind: KindText, Text: s})
		}
		return list, true, nil
	case []any:
		list = make([]*VNode, 0, len(v))
		for _, c := range v {
			child, err := childNode(c)
			if err != nil {
				return nil, true, err
			}
			if child != nil {
				list = append(list, child)
			}
		}
		return list, true, nil
	}
	return nil, false, nil
}

// childNode converts a single child value. A nil result means no child.
func childNode(v any) (*VNode, error) {
	if v == nil {
		return nil, nil
	}
	if n, ok := v.(*VNode); ok {
		return n, nil
	}
	if s, ok := scalarString(v); ok {
		return &VNode{Kind: KindText, Text: s}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidChildren, v)
}

// scalarString stringifies the scalar values accepted as text.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10), true
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	}
	return "", false
}

// H is CreateElement for trees built in code. Arguments are children in
// the CreateElement sense: several are passed as a list, a single one as is.
// It panics on invalid input, which is a programming error at the call site.
func H(tag string, props Props, children ...any) *VNode {
	var in any
	switch len(children) {
	case 0:
	case 1:
		in = children[0]
	default:
		in = children
	}
	node, err := CreateElement(tag, props, in)
	if err != nil {
		panic(err)
	}
	return node
}

// createElement builds an element from the variadic factory arguments.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, []any, or a scalar.
func createElement(tag string, args []any) *VNode {
	props := make(Props)
	var children []any
	listed := false

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue
		case Attr:
			if v.Key != "" {
				props[v.Key] = v.Value
			}
		case []Attr:
			for _, a := range v {
				if a.Key != "" {
					props[a.Key] = a.Value
				}
			}
		case []*VNode, []any, []string:
			// An explicit list keeps ShapeMany even with one element.
			listed = true
			children = append(children, v)
		default:
			children = append(children, v)
		}
	}

	var in any
	switch {
	case len(children) == 1 && !listed:
		in = children[0]
	case len(children) > 0:
		in = flatten(children)
	}

	node, err := CreateElement(tag, props, in)
	if err != nil {
		panic(err)
	}
	return node
}

func flatten(children []any) []any {
	out := make([]any, 0, len(children))
	for _, c := range children {
		switch v := c.(type) {
		case []*VNode:
			for _, n := range v {
				out = append(out, n)
			}
		case []string:
			for _, s := range v {
				out = append(out, s)
			}
		case []any:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{Kind: KindText, Text: content}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Range maps a slice to VNodes.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	result := make([]*VNode, 0, len(items))
	for i, item := range items {
		if node := fn(item, i); node != nil {
			result = append(result, node)
		}
	}
	return result
}

func Div(args ...any) *VNode     { return createElement("div", args) }
func Span(args ...any) *VNode    { return createElement("span", args) }
func P(args ...any) *VNode       { return createElement("p", args) }
func Ul(args ...any) *VNode      { return createElement("ul", args) }
func Ol(args ...any) *VNode      { return createElement("ol", args) }
func Li(args ...any) *VNode      { return createElement("li", args) }
func A(args ...any) *VNode       { return createElement("a", args) }
func Button(args ...any) *VNode  { return createElement("button", args) }
func Input(args ...any) *VNode   { return createElement("input", args) }
func Label(args ...any) *VNode   { return createElement("label", args) }
func Section(args ...any) *VNode { return createElement("section", args) }
func H1(args ...any) *VNode      { return createElement("h1", args) }
func H2(args ...any) *VNode      { return createElement("h2", args) }

// CustomElement creates an element with a custom tag name.
func CustomElement(tag string, args ...any) *VNode {
	return createElement(tag, args)
}
