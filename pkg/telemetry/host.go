package telemetry

import (
	"sync/atomic"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Mutation operation labels.
const (
	OpCreate    = "create"
	OpInsert    = "insert"
	OpRemove    = "remove"
	OpAttribute = "attribute"
	OpStyle     = "style"
	OpClass     = "class"
	OpListener  = "listener"
	OpText      = "text"
)

// CountingHost is a vdom.Host decorator that counts successful mutations,
// both in total and in the host_mutations_total metric.
type CountingHost struct {
	inner   vdom.Host
	metrics *Metrics
	count   atomic.Int64
}

var _ vdom.Host = (*CountingHost)(nil)

// NewCountingHost wraps inner. m may be nil.
func NewCountingHost(inner vdom.Host, m *Metrics) *CountingHost {
	return &CountingHost{inner: inner, metrics: m}
}

// Count returns the number of successful mutations so far.
func (h *CountingHost) Count() int64 {
	return h.count.Load()
}

func (h *CountingHost) done(op string, err error) error {
	if err == nil {
		h.count.Add(1)
		h.metrics.AddMutation(op)
	}
	return err
}

func (h *CountingHost) CreateElementNode(tag string) (vdom.Handle, error) {
	n, err := h.inner.CreateElementNode(tag)
	return n, h.done(OpCreate, err)
}

func (h *CountingHost) CreateTextNode(text string) (vdom.Handle, error) {
	n, err := h.inner.CreateTextNode(text)
	return n, h.done(OpCreate, err)
}

func (h *CountingHost) AppendChild(container, child vdom.Handle) error {
	return h.done(OpInsert, h.inner.AppendChild(container, child))
}

func (h *CountingHost) InsertBefore(container, child, reference vdom.Handle) error {
	return h.done(OpInsert, h.inner.InsertBefore(container, child, reference))
}

func (h *CountingHost) RemoveChild(container, child vdom.Handle) error {
	return h.done(OpRemove, h.inner.RemoveChild(container, child))
}

func (h *CountingHost) SetAttribute(node vdom.Handle, name, value string) error {
	return h.done(OpAttribute, h.inner.SetAttribute(node, name, value))
}

func (h *CountingHost) RemoveAttribute(node vdom.Handle, name string) error {
	return h.done(OpAttribute, h.inner.RemoveAttribute(node, name))
}

func (h *CountingHost) SetStyleProperty(node vdom.Handle, name, value string) error {
	return h.done(OpStyle, h.inner.SetStyleProperty(node, name, value))
}

func (h *CountingHost) ClearStyleProperty(node vdom.Handle, name string) error {
	return h.done(OpStyle, h.inner.ClearStyleProperty(node, name))
}

func (h *CountingHost) SetClassName(node vdom.Handle, value string) error {
	return h.done(OpClass, h.inner.SetClassName(node, value))
}

func (h *CountingHost) AddEventListener(node vdom.Handle, event string, handler any) error {
	return h.done(OpListener, h.inner.AddEventListener(node, event, handler))
}

func (h *CountingHost) RemoveEventListener(node vdom.Handle, event string, handler any) error {
	return h.done(OpListener, h.inner.RemoveEventListener(node, event, handler))
}

func (h *CountingHost) SetTextValue(node vdom.Handle, text string) error {
	return h.done(OpText, h.inner.SetTextValue(node, text))
}

func (h *CountingHost) NextSibling(node vdom.Handle) vdom.Handle {
	return h.inner.NextSibling(node)
}
