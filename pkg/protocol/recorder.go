package protocol

import (
	"sync"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Recorder is a vdom.Host that forwards every call to an inner host and
// records the successful mutations. Listeners are recorded by event name
// only; the handler values stay on the inner host.
type Recorder struct {
	inner vdom.Host

	mu   sync.Mutex
	muts []Mutation
}

var _ vdom.Host = (*Recorder)(nil)

// NewRecorder wraps inner.
func NewRecorder(inner vdom.Host) *Recorder {
	return &Recorder{inner: inner}
}

// Inner returns the wrapped host.
func (r *Recorder) Inner() vdom.Host {
	return r.inner
}

// Take returns the mutations recorded since the last Take and clears the log.
func (r *Recorder) Take() []Mutation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.muts
	r.muts = nil
	return out
}

// Pending returns the number of recorded mutations not yet taken.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.muts)
}

func (r *Recorder) record(err error, m Mutation) error {
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.muts = append(r.muts, m)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) CreateElementNode(tag string) (vdom.Handle, error) {
	h, err := r.inner.CreateElementNode(tag)
	return h, r.record(err, Mutation{Op: OpCreateElement, Node: h, Name: tag})
}

func (r *Recorder) CreateTextNode(text string) (vdom.Handle, error) {
	h, err := r.inner.CreateTextNode(text)
	return h, r.record(err, Mutation{Op: OpCreateText, Node: h, Value: text})
}

func (r *Recorder) AppendChild(container, child vdom.Handle) error {
	return r.record(r.inner.AppendChild(container, child),
		Mutation{Op: OpAppendChild, Parent: container, Node: child})
}

func (r *Recorder) InsertBefore(container, child, reference vdom.Handle) error {
	return r.record(r.inner.InsertBefore(container, child, reference),
		Mutation{Op: OpInsertBefore, Parent: container, Node: child, Ref: reference})
}

func (r *Recorder) RemoveChild(container, child vdom.Handle) error {
	return r.record(r.inner.RemoveChild(container, child),
		Mutation{Op: OpRemoveChild, Parent: container, Node: child})
}

func (r *Recorder) SetAttribute(node vdom.Handle, name, value string) error {
	return r.record(r.inner.SetAttribute(node, name, value),
		Mutation{Op: OpSetAttribute, Node: node, Name: name, Value: value})
}

func (r *Recorder) RemoveAttribute(node vdom.Handle, name string) error {
	return r.record(r.inner.RemoveAttribute(node, name),
		Mutation{Op: OpRemoveAttr, Node: node, Name: name})
}

func (r *Recorder) SetStyleProperty(node vdom.Handle, name, value string) error {
	return r.record(r.inner.SetStyleProperty(node, name, value),
		Mutation{Op: OpSetStyle, Node: node, Name: name, Value: value})
}

func (r *Recorder) ClearStyleProperty(node vdom.Handle, name string) error {
	return r.record(r.inner.ClearStyleProperty(node, name),
		Mutation{Op: OpClearStyle, Node: node, Name: name})
}

func (r *Recorder) SetClassName(node vdom.Handle, value string) error {
	return r.record(r.inner.SetClassName(node, value),
		Mutation{Op: OpSetClass, Node: node, Value: value})
}

func (r *Recorder) AddEventListener(node vdom.Handle, event string, handler any) error {
	return r.record(r.inner.AddEventListener(node, event, handler),
		Mutation{Op: OpListen, Node: node, Name: event})
}

func (r *Recorder) RemoveEventListener(node vdom.Handle, event string, handler any) error {
	return r.record(r.inner.RemoveEventListener(node, event, handler),
		Mutation{Op: OpUnlisten, Node: node, Name: event})
}

func (r *Recorder) SetTextValue(node vdom.Handle, text string) error {
	return r.record(r.inner.SetTextValue(node, text),
		Mutation{Op: OpSetText, Node: node, Value: text})
}

func (r *Recorder) NextSibling(node vdom.Handle) vdom.Handle {
	return r.inner.NextSibling(node)
}
