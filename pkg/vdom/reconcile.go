package vdom

import "fmt"

// Reconciler applies VNode trees to a Host.
//
// Mount materializes a tree for the first time; Patch brings the host nodes
// of a previously mounted tree in line with a new one. Both record host
// handles on the VNodes they visit. A Reconciler holds no per-tree state.
type Reconciler struct {
	host     Host
	handlers map[string]PropHandler
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithPropHandler overrides how the named prop is written to the host.
func WithPropHandler(name string, h PropHandler) Option {
	return func(r *Reconciler) {
		r.handlers[name] = h
	}
}

// NewReconciler creates a Reconciler writing to host.
func NewReconciler(host Host, opts ...Option) *Reconciler {
	r := &Reconciler{
		host:     host,
		handlers: make(map[string]PropHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Host returns the host the reconciler writes to.
func (r *Reconciler) Host() Host {
	return r.host
}

// Mount creates the host nodes for node and inserts them into container,
// before the reference sibling when one is given and appended otherwise.
func (r *Reconciler) Mount(node *VNode, container, before Handle) error {
	switch node.Kind {
	case KindElement:
		h, err := r.host.CreateElementNode(node.Tag)
		if err != nil {
			return fmt.Errorf("vdom: create <%s>: %w", node.Tag, err)
		}
		node.handle = h
		if err := r.patchProps(h, nil, node.Props); err != nil {
			return err
		}
		switch node.Shape {
		case ShapeOne:
			if err := r.Mount(node.Child, h, NoHandle); err != nil {
				return err
			}
		case ShapeMany:
			if err := r.mountAll(node.Children, h); err != nil {
				return err
			}
		}
		return r.insert(container, h, before)

	case KindText:
		h, err := r.host.CreateTextNode(node.Text)
		if err != nil {
			return fmt.Errorf("vdom: create text: %w", err)
		}
		node.handle = h
		return r.insert(container, h, before)

	default:
		return fmt.Errorf("vdom: unknown node kind: %d", node.Kind)
	}
}

func (r *Reconciler) mountAll(nodes []*VNode, container Handle) error {
	for _, child := range nodes {
		if err := r.Mount(child, container, NoHandle); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reconciler) insert(container, child, before Handle) error {
	if before != NoHandle {
		if err := r.host.InsertBefore(container, child, before); err != nil {
			return fmt.Errorf("vdom: insert node: %w", err)
		}
		return nil
	}
	if err := r.host.AppendChild(container, child); err != nil {
		return fmt.Errorf("vdom: append node: %w", err)
	}
	return nil
}

func (r *Reconciler) remove(container Handle, node *VNode) error {
	if err := r.host.RemoveChild(container, node.handle); err != nil {
		return fmt.Errorf("vdom: remove node: %w", err)
	}
	return nil
}

func (r *Reconciler) removeAll(container Handle, nodes []*VNode) error {
	for _, child := range nodes {
		if err := r.remove(container, child); err != nil {
			return err
		}
	}
	return nil
}

// Unmount removes the host node of a mounted tree from container.
func (r *Reconciler) Unmount(node *VNode, container Handle) error {
	return r.remove(container, node)
}

// Patch updates the host node of prev, which lives in container, to match
// next. Nodes of a different kind, tag or key are replaced; otherwise the
// host node is reused and next inherits its handle.
func (r *Reconciler) Patch(prev, next *VNode, container Handle) error {
	if !sameSlot(prev, next) {
		return r.replace(prev, next, container)
	}

	switch next.Kind {
	case KindText:
		next.handle = prev.handle
		if prev.Text == next.Text {
			return nil
		}
		if err := r.host.SetTextValue(next.handle, next.Text); err != nil {
			return fmt.Errorf("vdom: set text: %w", err)
		}
		return nil

	case KindElement:
		next.handle = prev.handle
		if err := r.patchProps(next.handle, prev.Props, next.Props); err != nil {
			return err
		}
		return r.patchChildren(prev, next, next.handle)

	default:
		return fmt.Errorf("vdom: unknown node kind: %d", next.Kind)
	}
}

// replace swaps prev's host node for a fresh mount of next at the same
// position.
func (r *Reconciler) replace(prev, next *VNode, container Handle) error {
	ref := r.host.NextSibling(prev.handle)
	if err := r.remove(container, prev); err != nil {
		return err
	}
	return r.Mount(next, container, ref)
}

// patchChildren dispatches on the (prev, next) children shapes.
func (r *Reconciler) patchChildren(prev, next *VNode, parent Handle) error {
	switch prev.Shape {
	case ShapeNone:
		switch next.Shape {
		case ShapeNone:
			return nil
		case ShapeOne:
			return r.Mount(next.Child, parent, NoHandle)
		case ShapeMany:
			return r.mountAll(next.Children, parent)
		}

	case ShapeOne:
		switch next.Shape {
		case ShapeNone:
			return r.remove(parent, prev.Child)
		case ShapeOne:
			return r.Patch(prev.Child, next.Child, parent)
		case ShapeMany:
			if err := r.remove(parent, prev.Child); err != nil {
				return err
			}
			return r.mountAll(next.Children, parent)
		}

	case ShapeMany:
		switch next.Shape {
		case ShapeNone:
			return r.removeAll(parent, prev.Children)
		case ShapeOne:
			if err := r.removeAll(parent, prev.Children); err != nil {
				return err
			}
			return r.Mount(next.Child, parent, NoHandle)
		case ShapeMany:
			return r.patchKeyed(prev.Children, next.Children, parent)
		}
	}
	return fmt.Errorf("vdom: unknown children shapes %v -> %v", prev.Shape, next.Shape)
}

// patchKeyed reconciles two child lists in a single pass.
//
// Each next child claims the first unclaimed prev child with the same kind,
// tag and key, so repeated slots (unkeyed siblings of one tag, or duplicate
// keys) pair up in order of occurrence. lastIndex tracks the highest prev
// position claimed so far; a claim below it is out of order and its host
// node is moved to just after the previous next child. Unmatched next
// children are mounted in place and unclaimed prev children are removed.
func (r *Reconciler) patchKeyed(prev, next []*VNode, parent Handle) error {
	index := make(map[slotKey][]int, len(prev))
	for j, child := range prev {
		k := slotOf(child)
		index[k] = append(index[k], j)
	}

	claimed := make([]bool, len(prev))
	lastIndex := 0
	for i, child := range next {
		k := slotOf(child)
		candidates := index[k]
		if len(candidates) == 0 {
			var ref Handle
			if i == 0 {
				ref = prev[0].handle
			} else {
				ref = r.host.NextSibling(next[i-1].handle)
			}
			if err := r.Mount(child, parent, ref); err != nil {
				return err
			}
			continue
		}
		j := candidates[0]
		index[k] = candidates[1:]
		claimed[j] = true

		if err := r.Patch(prev[j], child, parent); err != nil {
			return err
		}
		if j < lastIndex {
			ref := r.host.NextSibling(next[i-1].handle)
			if ref == child.handle {
				continue
			}
			if err := r.insert(parent, child.handle, ref); err != nil {
				return err
			}
		} else {
			lastIndex = j
		}
	}

	for j, child := range prev {
		if !claimed[j] {
			if err := r.remove(parent, child); err != nil {
				return err
			}
		}
	}
	return nil
}
