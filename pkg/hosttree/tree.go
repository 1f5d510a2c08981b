package hosttree

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Host errors.
var (
	ErrUnknownHandle = errors.New("hosttree: unknown handle")
	ErrNotChild      = errors.New("hosttree: node is not a child of container")
	ErrNotElement    = errors.New("hosttree: operation requires an element")
	ErrNotText       = errors.New("hosttree: operation requires a text node")
	ErrCycle         = errors.New("hosttree: cannot insert a node into its own subtree")
)

type nodeKind uint8

const (
	elementNode nodeKind = iota + 1
	textNode
)

type node struct {
	kind      nodeKind
	tag       string
	text      string
	attrs     map[string]string
	style     map[string]string
	class     string
	listeners map[string][]any
	parent    vdom.Handle
	children  []vdom.Handle
	root      bool
}

// Stats counts the mutations applied to a Tree.
type Stats struct {
	Created         int // element and text nodes created
	Inserted        int // AppendChild and InsertBefore calls, moves included
	Removed         int // RemoveChild calls
	AttrWrites      int // SetAttribute and RemoveAttribute calls
	StyleWrites     int // SetStyleProperty and ClearStyleProperty calls
	ClassWrites     int // SetClassName calls
	ListenerChanges int // AddEventListener and RemoveEventListener calls
	TextWrites      int // SetTextValue calls
}

// Total returns the number of mutations.
func (s Stats) Total() int {
	return s.Created + s.Inserted + s.Removed + s.AttrWrites + s.StyleWrites +
		s.ClassWrites + s.ListenerChanges + s.TextWrites
}

// Tree is an in-memory host tree. Nodes live in an arena and are addressed
// by vdom.Handle; slot 0 is never used so the zero handle stays invalid.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes []*node
	free  []vdom.Handle
	stats Stats
}

var _ vdom.Host = (*Tree)(nil)

// New creates an empty Tree.
func New() *Tree {
	return &Tree{nodes: make([]*node, 1, 64)}
}

// NewRoot creates a detached element that acts as a render container.
// Roots and everything attached beneath them survive Collect.
func (t *Tree) NewRoot(tag string) vdom.Handle {
	return t.alloc(&node{kind: elementNode, tag: tag, root: true})
}

func (t *Tree) alloc(n *node) vdom.Handle {
	if k := len(t.free); k > 0 {
		h := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[h] = n
		return h
	}
	t.nodes = append(t.nodes, n)
	return vdom.Handle(len(t.nodes) - 1)
}

func (t *Tree) get(h vdom.Handle) (*node, error) {
	if h == vdom.NoHandle || int(h) >= len(t.nodes) || t.nodes[h] == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return t.nodes[h], nil
}

func (t *Tree) element(h vdom.Handle) (*node, error) {
	n, err := t.get(h)
	if err != nil {
		return nil, err
	}
	if n.kind != elementNode {
		return nil, fmt.Errorf("%w: %d", ErrNotElement, h)
	}
	return n, nil
}

// CreateElementNode implements vdom.Host.
func (t *Tree) CreateElementNode(tag string) (vdom.Handle, error) {
	t.stats.Created++
	return t.alloc(&node{kind: elementNode, tag: tag}), nil
}

// CreateTextNode implements vdom.Host.
func (t *Tree) CreateTextNode(text string) (vdom.Handle, error) {
	t.stats.Created++
	return t.alloc(&node{kind: textNode, text: text}), nil
}

// AppendChild implements vdom.Host. An attached child is moved.
func (t *Tree) AppendChild(container, child vdom.Handle) error {
	parent, c, err := t.prepareInsert(container, child)
	if err != nil {
		return err
	}
	t.detach(child, c)
	parent.children = append(parent.children, child)
	c.parent = container
	t.stats.Inserted++
	return nil
}

// InsertBefore implements vdom.Host. An attached child is moved.
func (t *Tree) InsertBefore(container, child, reference vdom.Handle) error {
	parent, c, err := t.prepareInsert(container, child)
	if err != nil {
		return err
	}
	if slices.Index(parent.children, reference) < 0 {
		return fmt.Errorf("%w: reference %d in %d", ErrNotChild, reference, container)
	}
	t.stats.Inserted++
	if child == reference {
		return nil
	}
	t.detach(child, c)
	i := slices.Index(parent.children, reference)
	parent.children = slices.Insert(parent.children, i, child)
	c.parent = container
	return nil
}

func (t *Tree) prepareInsert(container, child vdom.Handle) (*node, *node, error) {
	parent, err := t.element(container)
	if err != nil {
		return nil, nil, err
	}
	c, err := t.get(child)
	if err != nil {
		return nil, nil, err
	}
	for p := container; p != vdom.NoHandle; p = t.nodes[p].parent {
		if p == child {
			return nil, nil, ErrCycle
		}
	}
	return parent, c, nil
}

func (t *Tree) detach(h vdom.Handle, n *node) {
	if n.parent == vdom.NoHandle {
		return
	}
	p := t.nodes[n.parent]
	if i := slices.Index(p.children, h); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = vdom.NoHandle
}

// RemoveChild implements vdom.Host.
func (t *Tree) RemoveChild(container, child vdom.Handle) error {
	if _, err := t.element(container); err != nil {
		return err
	}
	c, err := t.get(child)
	if err != nil {
		return err
	}
	if c.parent != container {
		return fmt.Errorf("%w: %d in %d", ErrNotChild, child, container)
	}
	t.detach(child, c)
	t.stats.Removed++
	return nil
}

// SetAttribute implements vdom.Host.
func (t *Tree) SetAttribute(h vdom.Handle, name, value string) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	t.stats.AttrWrites++
	return nil
}

// RemoveAttribute implements vdom.Host.
func (t *Tree) RemoveAttribute(h vdom.Handle, name string) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	delete(n.attrs, name)
	t.stats.AttrWrites++
	return nil
}

// SetStyleProperty implements vdom.Host.
func (t *Tree) SetStyleProperty(h vdom.Handle, name, value string) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[name] = value
	t.stats.StyleWrites++
	return nil
}

// ClearStyleProperty implements vdom.Host.
func (t *Tree) ClearStyleProperty(h vdom.Handle, name string) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	delete(n.style, name)
	t.stats.StyleWrites++
	return nil
}

// SetClassName implements vdom.Host.
func (t *Tree) SetClassName(h vdom.Handle, value string) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	n.class = value
	t.stats.ClassWrites++
	return nil
}

// AddEventListener implements vdom.Host.
func (t *Tree) AddEventListener(h vdom.Handle, event string, handler any) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]any)
	}
	n.listeners[event] = append(n.listeners[event], handler)
	t.stats.ListenerChanges++
	return nil
}

// RemoveEventListener implements vdom.Host. Removing a handler that is not
// registered is a no-op, as in the DOM.
func (t *Tree) RemoveEventListener(h vdom.Handle, event string, handler any) error {
	n, err := t.element(h)
	if err != nil {
		return err
	}
	list := n.listeners[event]
	for i, registered := range list {
		if vdom.SameHandler(registered, handler) {
			n.listeners[event] = slices.Delete(list, i, i+1)
			break
		}
	}
	t.stats.ListenerChanges++
	return nil
}

// SetTextValue implements vdom.Host.
func (t *Tree) SetTextValue(h vdom.Handle, text string) error {
	n, err := t.get(h)
	if err != nil {
		return err
	}
	if n.kind != textNode {
		return fmt.Errorf("%w: %d", ErrNotText, h)
	}
	n.text = text
	t.stats.TextWrites++
	return nil
}

// NextSibling implements vdom.Host.
func (t *Tree) NextSibling(h vdom.Handle) vdom.Handle {
	n, err := t.get(h)
	if err != nil || n.parent == vdom.NoHandle {
		return vdom.NoHandle
	}
	siblings := t.nodes[n.parent].children
	i := slices.Index(siblings, h)
	if i < 0 || i+1 >= len(siblings) {
		return vdom.NoHandle
	}
	return siblings[i+1]
}

// Stats returns the mutation counters.
func (t *Tree) Stats() Stats {
	return t.stats
}

// ResetStats zeroes the mutation counters.
func (t *Tree) ResetStats() {
	t.stats = Stats{}
}

// Len returns the number of live nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes) - 1 - len(t.free)
}

// Collect frees every node that is neither a root nor attached below one,
// making its handle available for reuse. It returns the number of freed
// nodes. Handles held on VNodes of discarded trees must not be used after
// Collect.
func (t *Tree) Collect() int {
	reachable := make([]bool, len(t.nodes))
	var mark func(h vdom.Handle)
	mark = func(h vdom.Handle) {
		reachable[h] = true
		for _, c := range t.nodes[h].children {
			mark(c)
		}
	}
	for h, n := range t.nodes {
		if n != nil && n.root {
			mark(vdom.Handle(h))
		}
	}

	freed := 0
	for h := 1; h < len(t.nodes); h++ {
		if t.nodes[h] == nil || reachable[h] {
			continue
		}
		t.nodes[h] = nil
		t.free = append(t.free, vdom.Handle(h))
		freed++
	}
	return freed
}

// Tag returns the tag name of an element, or "" for text and unknown handles.
func (t *Tree) Tag(h vdom.Handle) string {
	n, err := t.get(h)
	if err != nil {
		return ""
	}
	return n.tag
}

// IsText reports whether h is a text node.
func (t *Tree) IsText(h vdom.Handle) bool {
	n, err := t.get(h)
	return err == nil && n.kind == textNode
}

// TextValue returns the payload of a text node.
func (t *Tree) TextValue(h vdom.Handle) string {
	n, err := t.get(h)
	if err != nil {
		return ""
	}
	return n.text
}

// Attr returns an attribute value.
func (t *Tree) Attr(h vdom.Handle, name string) (string, bool) {
	n, err := t.get(h)
	if err != nil {
		return "", false
	}
	v, ok := n.attrs[name]
	return v, ok
}

// StyleProperty returns a style property value.
func (t *Tree) StyleProperty(h vdom.Handle, name string) (string, bool) {
	n, err := t.get(h)
	if err != nil {
		return "", false
	}
	v, ok := n.style[name]
	return v, ok
}

// ClassName returns the class name of an element.
func (t *Tree) ClassName(h vdom.Handle) string {
	n, err := t.get(h)
	if err != nil {
		return ""
	}
	return n.class
}

// Children returns a copy of the child handles of h.
func (t *Tree) Children(h vdom.Handle) []vdom.Handle {
	n, err := t.get(h)
	if err != nil {
		return nil
	}
	return slices.Clone(n.children)
}

// Parent returns the parent of h, or vdom.NoHandle when detached.
func (t *Tree) Parent(h vdom.Handle) vdom.Handle {
	n, err := t.get(h)
	if err != nil {
		return vdom.NoHandle
	}
	return n.parent
}

// Listeners returns the number of handlers registered for event on h.
func (t *Tree) Listeners(h vdom.Handle, event string) int {
	n, err := t.get(h)
	if err != nil {
		return 0
	}
	return len(n.listeners[event])
}
