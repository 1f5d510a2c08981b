package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// ErrUnmapped is returned when a mutation names a remote handle the
// Replayer has not seen created or bound.
var ErrUnmapped = errors.New("protocol: unmapped remote handle")

// ListenerFunc builds the local handler installed for a remote listener.
type ListenerFunc func(remote vdom.Handle, event string) any

type listenerKey struct {
	node  vdom.Handle
	event string
}

// Replayer applies recorded mutations to another host, translating the
// handles of the recording host to its own.
//
// Each Apply is expected to carry one render pass. A batch that removes
// nodes ends with a sweep that forgets every remote handle no longer
// attached below a bound handle, matching hosttree.Tree.Collect on the
// recording side, which may hand those handles out again.
type Replayer struct {
	host      vdom.Host
	listen    ListenerFunc
	nodes     map[vdom.Handle]vdom.Handle
	parents   map[vdom.Handle]vdom.Handle
	bound     map[vdom.Handle]bool
	listeners map[listenerKey]any
}

// NewReplayer creates a Replayer writing to host. listen may be nil, in
// which case listeners are installed as no-op funcs.
func NewReplayer(host vdom.Host, listen ListenerFunc) *Replayer {
	return &Replayer{
		host:      host,
		listen:    listen,
		nodes:     make(map[vdom.Handle]vdom.Handle),
		parents:   make(map[vdom.Handle]vdom.Handle),
		bound:     make(map[vdom.Handle]bool),
		listeners: make(map[listenerKey]any),
	}
}

// Bind maps a remote handle, typically a render container, to a local one.
// Bound handles are never swept.
func (p *Replayer) Bind(remote, local vdom.Handle) {
	p.nodes[remote] = local
	p.bound[remote] = true
}

// Len returns the number of mapped remote handles.
func (p *Replayer) Len() int {
	return len(p.nodes)
}

// Local returns the local handle for a remote one.
func (p *Replayer) Local(remote vdom.Handle) (vdom.Handle, bool) {
	h, ok := p.nodes[remote]
	return h, ok
}

func (p *Replayer) local(remote vdom.Handle) (vdom.Handle, error) {
	h, ok := p.nodes[remote]
	if !ok {
		return vdom.NoHandle, fmt.Errorf("%w: %d", ErrUnmapped, remote)
	}
	return h, nil
}

// Apply replays muts in order. It stops at the first failure.
func (p *Replayer) Apply(muts []Mutation) error {
	removed := false
	for i := range muts {
		if err := p.apply(&muts[i]); err != nil {
			return fmt.Errorf("replay %s: %w", muts[i].Op, err)
		}
		removed = removed || muts[i].Op == OpRemoveChild
	}
	if removed {
		p.sweep()
	}
	return nil
}

// sweep forgets remote handles that are not attached below a bound handle,
// along with their listeners.
func (p *Replayer) sweep() {
	live := make(map[vdom.Handle]bool, len(p.nodes))
	var reachable func(h vdom.Handle) bool
	reachable = func(h vdom.Handle) bool {
		if ok, seen := live[h]; seen {
			return ok
		}
		live[h] = false
		ok := p.bound[h]
		if parent, attached := p.parents[h]; !ok && attached {
			ok = reachable(parent)
		}
		live[h] = ok
		return ok
	}

	for h := range p.nodes {
		if !reachable(h) {
			delete(p.nodes, h)
			delete(p.parents, h)
		}
	}
	for key := range p.listeners {
		if _, ok := p.nodes[key.node]; !ok {
			delete(p.listeners, key)
		}
	}
}

func (p *Replayer) apply(m *Mutation) error {
	switch m.Op {
	case OpCreateElement:
		h, err := p.host.CreateElementNode(m.Name)
		if err != nil {
			return err
		}
		p.nodes[m.Node] = h
		delete(p.parents, m.Node)
		return nil

	case OpCreateText:
		h, err := p.host.CreateTextNode(m.Value)
		if err != nil {
			return err
		}
		p.nodes[m.Node] = h
		delete(p.parents, m.Node)
		return nil

	case OpAppendChild, OpRemoveChild, OpInsertBefore:
		parent, err := p.local(m.Parent)
		if err != nil {
			return err
		}
		child, err := p.local(m.Node)
		if err != nil {
			return err
		}
		switch m.Op {
		case OpAppendChild:
			err = p.host.AppendChild(parent, child)
		case OpRemoveChild:
			if err = p.host.RemoveChild(parent, child); err == nil {
				delete(p.parents, m.Node)
			}
			return err
		default:
			var ref vdom.Handle
			if ref, err = p.local(m.Ref); err != nil {
				return err
			}
			err = p.host.InsertBefore(parent, child, ref)
		}
		if err == nil {
			p.parents[m.Node] = m.Parent
		}
		return err
	}

	node, err := p.local(m.Node)
	if err != nil {
		return err
	}
	switch m.Op {
	case OpSetAttribute:
		return p.host.SetAttribute(node, m.Name, m.Value)
	case OpRemoveAttr:
		return p.host.RemoveAttribute(node, m.Name)
	case OpSetStyle:
		return p.host.SetStyleProperty(node, m.Name, m.Value)
	case OpClearStyle:
		return p.host.ClearStyleProperty(node, m.Name)
	case OpSetClass:
		return p.host.SetClassName(node, m.Value)
	case OpSetText:
		return p.host.SetTextValue(node, m.Value)
	case OpListen:
		key := listenerKey{node: m.Node, event: m.Name}
		handler := p.handler(m.Node, m.Name)
		if err := p.host.AddEventListener(node, m.Name, handler); err != nil {
			return err
		}
		p.listeners[key] = handler
		return nil
	case OpUnlisten:
		key := listenerKey{node: m.Node, event: m.Name}
		handler, ok := p.listeners[key]
		if !ok {
			return nil
		}
		delete(p.listeners, key)
		return p.host.RemoveEventListener(node, m.Name, handler)
	default:
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOp, uint8(m.Op))
	}
}

func (p *Replayer) handler(remote vdom.Handle, event string) any {
	if p.listen != nil {
		return p.listen(remote, event)
	}
	return func() {}
}
