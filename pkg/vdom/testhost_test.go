package vdom

import (
	"errors"
	"fmt"
	"slices"
)

// recordingHost is a minimal Host that logs every call and keeps enough
// structure to answer NextSibling.
type recordingHost struct {
	ops      []string
	next     Handle
	labels   map[Handle]string
	parent   map[Handle]Handle
	children map[Handle][]Handle
	failOn   string
}

var errInjected = errors.New("injected host failure")

func newRecordingHost() *recordingHost {
	return &recordingHost{
		labels:   make(map[Handle]string),
		parent:   make(map[Handle]Handle),
		children: make(map[Handle][]Handle),
	}
}

func (h *recordingHost) root() Handle {
	h.next++
	h.labels[h.next] = "root"
	return h.next
}

func (h *recordingHost) record(op string, args ...any) error {
	entry := op
	if len(args) > 0 {
		entry = fmt.Sprintf("%s %s", op, fmt.Sprint(args...))
	}
	h.ops = append(h.ops, entry)
	if h.failOn != "" && op == h.failOn {
		return errInjected
	}
	return nil
}

func (h *recordingHost) reset() { h.ops = nil }

func (h *recordingHost) detach(child Handle) {
	if p, ok := h.parent[child]; ok {
		list := h.children[p]
		if i := slices.Index(list, child); i >= 0 {
			h.children[p] = slices.Delete(list, i, i+1)
		}
		delete(h.parent, child)
	}
}

func (h *recordingHost) CreateElementNode(tag string) (Handle, error) {
	if err := h.record("create", tag); err != nil {
		return NoHandle, err
	}
	h.next++
	h.labels[h.next] = tag
	return h.next, nil
}

func (h *recordingHost) CreateTextNode(text string) (Handle, error) {
	if err := h.record("text", text); err != nil {
		return NoHandle, err
	}
	h.next++
	h.labels[h.next] = "#" + text
	return h.next, nil
}

func (h *recordingHost) AppendChild(container, child Handle) error {
	if err := h.record("append", h.labels[child]); err != nil {
		return err
	}
	h.detach(child)
	h.children[container] = append(h.children[container], child)
	h.parent[child] = container
	return nil
}

func (h *recordingHost) InsertBefore(container, child, reference Handle) error {
	if err := h.record("insert", h.labels[child], " before ", h.labels[reference]); err != nil {
		return err
	}
	h.detach(child)
	list := h.children[container]
	i := slices.Index(list, reference)
	if i < 0 {
		return fmt.Errorf("reference %d not in %d", reference, container)
	}
	h.children[container] = slices.Insert(list, i, child)
	h.parent[child] = container
	return nil
}

func (h *recordingHost) RemoveChild(container, child Handle) error {
	if err := h.record("remove", h.labels[child]); err != nil {
		return err
	}
	if h.parent[child] != container {
		return fmt.Errorf("%d is not a child of %d", child, container)
	}
	h.detach(child)
	return nil
}

func (h *recordingHost) SetAttribute(node Handle, name, value string) error {
	return h.record("setAttr", name, "=", value)
}

func (h *recordingHost) RemoveAttribute(node Handle, name string) error {
	return h.record("removeAttr", name)
}

func (h *recordingHost) SetStyleProperty(node Handle, name, value string) error {
	return h.record("setStyle", name, "=", value)
}

func (h *recordingHost) ClearStyleProperty(node Handle, name string) error {
	return h.record("clearStyle", name)
}

func (h *recordingHost) SetClassName(node Handle, value string) error {
	return h.record("setClass", value)
}

func (h *recordingHost) AddEventListener(node Handle, event string, handler any) error {
	return h.record("listen", event)
}

func (h *recordingHost) RemoveEventListener(node Handle, event string, handler any) error {
	return h.record("unlisten", event)
}

func (h *recordingHost) SetTextValue(node Handle, text string) error {
	return h.record("setText", text)
}

func (h *recordingHost) NextSibling(node Handle) Handle {
	p, ok := h.parent[node]
	if !ok {
		return NoHandle
	}
	list := h.children[p]
	i := slices.Index(list, node)
	if i < 0 || i+1 >= len(list) {
		return NoHandle
	}
	return list[i+1]
}

// labelsOf returns the labels of container's children in order.
func (h *recordingHost) labelsOf(container Handle) []string {
	var out []string
	for _, c := range h.children[container] {
		out = append(out, h.labels[c])
	}
	return out
}
