package vtest

import (
	"testing"

	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// Harness keeps a view mounted in an in-memory host tree across passes.
// Failures are reported through t and stop the test.
type Harness struct {
	t        testing.TB
	view     func() *vdom.VNode
	tree     *hosttree.Tree
	root     vdom.Handle
	recorder *protocol.Recorder
	renderer *vdom.Renderer

	passes [][]protocol.Mutation
}

// New mounts view and renders the first pass.
//
// Example:
//
//	h := vtest.New(t, app.View)
//	h.Click(h.Find("button"))
//	h.ExpectHTML(`<button>1</button>`)
func New(t testing.TB, view func() *vdom.VNode, opts ...vdom.Option) *Harness {
	t.Helper()
	tree := hosttree.New()
	recorder := protocol.NewRecorder(tree)
	h := &Harness{
		t:        t,
		view:     view,
		tree:     tree,
		root:     tree.NewRoot("body"),
		recorder: recorder,
		renderer: vdom.NewRenderer(recorder, opts...),
	}
	h.Render()
	return h
}

// Render runs a pass over the current view.
func (h *Harness) Render() {
	h.t.Helper()
	err := h.renderer.Render(h.view(), h.root)
	h.passes = append(h.passes, h.recorder.Take())
	if err != nil {
		h.t.Fatalf("render pass %d failed: %v", len(h.passes), err)
	}
}

// Tree returns the host tree.
func (h *Harness) Tree() *hosttree.Tree { return h.tree }

// Root returns the container handle.
func (h *Harness) Root() vdom.Handle { return h.root }

// HTML returns the markup of the container's children.
func (h *Harness) HTML() string { return h.tree.InnerHTML(h.root) }

// LastPass returns the mutations of the latest pass.
func (h *Harness) LastPass() []protocol.Mutation {
	if len(h.passes) == 0 {
		return nil
	}
	return h.passes[len(h.passes)-1]
}

// Passes returns the number of render passes so far.
func (h *Harness) Passes() int { return len(h.passes) }

// FindAll returns the elements with tag in document order.
func (h *Harness) FindAll(tag string) []vdom.Handle {
	var found []vdom.Handle
	var walk func(vdom.Handle)
	walk = func(n vdom.Handle) {
		if h.tree.IsText(n) {
			return
		}
		if n != h.root && h.tree.Tag(n) == tag {
			found = append(found, n)
		}
		for _, c := range h.tree.Children(n) {
			walk(c)
		}
	}
	walk(h.root)
	return found
}

// Find returns the first element with tag.
func (h *Harness) Find(tag string) vdom.Handle {
	h.t.Helper()
	found := h.FindAll(tag)
	if len(found) == 0 {
		h.t.Fatalf("no <%s> element in:\n%s", tag, truncate(h.HTML(), 500))
	}
	return found[0]
}

// Fire dispatches event to the listeners on node, then re-renders.
func (h *Harness) Fire(node vdom.Handle, event, value string) {
	h.t.Helper()
	n, err := h.tree.Dispatch(node, event, value)
	if err != nil {
		h.t.Fatalf("%s on #%d: %v", event, node, err)
	}
	if n == 0 {
		h.t.Fatalf("%s on #%d: no listeners", event, node)
	}
	h.Render()
}

// Click fires a click at node.
func (h *Harness) Click(node vdom.Handle) {
	h.t.Helper()
	h.Fire(node, "click", "")
}

// Mirror replays every recorded pass into a fresh host tree and returns
// the markup of its container.
func (h *Harness) Mirror() string {
	h.t.Helper()
	mirror := hosttree.New()
	root := mirror.NewRoot("body")
	replayer := protocol.NewReplayer(mirror, nil)
	replayer.Bind(h.root, root)
	for i, pass := range h.passes {
		if err := replayer.Apply(pass); err != nil {
			h.t.Fatalf("replaying pass %d: %v", i+1, err)
		}
	}
	return mirror.InnerHTML(root)
}

// ExpectHTML asserts the container markup, and that a mirror built from
// the recorded passes agrees with it.
func (h *Harness) ExpectHTML(want string) {
	h.t.Helper()
	if got := h.HTML(); got != want {
		h.t.Errorf("HTML() = %s, want %s", got, want)
	}
	if got := h.Mirror(); got != want {
		h.t.Errorf("Mirror() = %s, want %s", got, want)
	}
}
