// Package vdom provides the virtual tree and the reconciler that applies it
// to a live host tree.
//
// # Core Types
//
// VNode describes one element or text node. Its children are classified by
// Shape (none, one, many) when the node is built. Props holds attributes, the
// structured "style" map, the "class" name and "@event" handlers.
//
// # Element API
//
// Trees are built with CreateElement, H, or the variadic factories:
//
//	Ul(Class("todo"),
//	    Range(items, func(it Item, _ int) *VNode {
//	        return Li(Key(it.ID), it.Title)
//	    }),
//	)
//
// # Reconciliation
//
// A Host exposes primitive mutations on the live tree. Renderer.Render mounts
// a tree on the first call for a container and patches it on later calls.
// Nodes with the same kind, tag and key reuse their host node; keyed child
// lists are matched in a single pass that moves out-of-order nodes, mounts
// new ones in place and removes the rest. The host tree is never read back
// except through Host.NextSibling.
package vdom
