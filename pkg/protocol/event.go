package protocol

import (
	"errors"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// ErrEmptyEvent is returned for an event without a name.
var ErrEmptyEvent = errors.New("protocol: event name is required")

// Event is a user interaction reported by a client. Node is the server-side
// handle the client learned from mutation batches.
type Event struct {
	Seq   uint64      // Client sequence number
	Node  vdom.Handle // Target node
	Name  string      // Event name without the "@" prefix, e.g. "click"
	Value string      // Optional payload, e.g. an input value
}

// Frame encodes the event into a FrameEvent frame.
//
// Format: [Seq: varint][Node: varint][Name: len-prefixed][Value: len-prefixed]
func (ev *Event) Frame() *Frame {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteHandle(ev.Node)
	e.WriteString(ev.Name)
	e.WriteString(ev.Value)
	return NewFrame(FrameEvent, e.Bytes())
}

// DecodeEvent decodes the payload of a FrameEvent.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if err := readAll(d.readHandle(&ev.Node), d.readString(&ev.Name), d.readString(&ev.Value)); err != nil {
		return nil, err
	}
	if ev.Name == "" {
		return nil, ErrEmptyEvent
	}
	return ev, nil
}
