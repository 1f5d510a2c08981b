package vdom

import (
	"errors"
	"sync"
)

// ErrNilContainer is returned when Render is called without a container.
var ErrNilContainer = errors.New("vdom: container handle is required")

// Renderer remembers the last tree rendered into each container and turns
// every Render call into a mount (first render) or a patch (later renders).
//
// Render is synchronous: every host mutation has been applied when it
// returns. Renders into different containers may run concurrently; renders
// into the same container must be serialized by the caller.
type Renderer struct {
	rec *Reconciler

	mu    sync.Mutex
	trees map[Handle]*VNode
}

// NewRenderer creates a Renderer writing to host.
func NewRenderer(host Host, opts ...Option) *Renderer {
	return &Renderer{
		rec:   NewReconciler(host, opts...),
		trees: make(map[Handle]*VNode),
	}
}

// Reconciler returns the underlying reconciler.
func (r *Renderer) Reconciler() *Reconciler {
	return r.rec
}

// Render makes the children of container match tree. A nil tree removes
// whatever was rendered before.
//
// If the host fails partway, the error is returned, the host keeps the
// mutations applied so far, and the container still remembers the previous
// tree.
func (r *Renderer) Render(tree *VNode, container Handle) error {
	if container == NoHandle {
		return ErrNilContainer
	}
	prev := r.Tree(container)

	var err error
	switch {
	case prev == nil && tree == nil:
		return nil
	case prev == nil:
		err = r.rec.Mount(tree, container, NoHandle)
	case tree == nil:
		err = r.rec.Unmount(prev, container)
	default:
		err = r.rec.Patch(prev, tree, container)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	if tree == nil {
		delete(r.trees, container)
	} else {
		r.trees[container] = tree
	}
	r.mu.Unlock()
	return nil
}

// Tree returns the last tree rendered into container, or nil.
func (r *Renderer) Tree(container Handle) *VNode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trees[container]
}

// Unmount removes the rendered tree from container and forgets it.
func (r *Renderer) Unmount(container Handle) error {
	return r.Render(nil, container)
}

// Forget drops the remembered tree for container without touching the host.
// Use it when the container itself has been discarded.
func (r *Renderer) Forget(container Handle) {
	r.mu.Lock()
	delete(r.trees, container)
	r.mu.Unlock()
}

// Containers returns the number of containers with a remembered tree.
func (r *Renderer) Containers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.trees)
}
