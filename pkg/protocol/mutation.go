package protocol

import (
	"errors"
	"fmt"

	"github.com/vango-dev/vtree/pkg/vdom"
)

// Op is a host mutation opcode. There is one opcode per vdom.Host method
// that changes the tree.
type Op uint8

const (
	OpCreateElement Op = 0x01 // Node, Name=tag
	OpCreateText    Op = 0x02 // Node, Value=text
	OpAppendChild   Op = 0x03 // Parent, Node
	OpInsertBefore  Op = 0x04 // Parent, Node, Ref
	OpRemoveChild   Op = 0x05 // Parent, Node
	OpSetAttribute  Op = 0x06 // Node, Name, Value
	OpRemoveAttr    Op = 0x07 // Node, Name
	OpSetStyle      Op = 0x08 // Node, Name, Value
	OpClearStyle    Op = 0x09 // Node, Name
	OpSetClass      Op = 0x0A // Node, Value
	OpListen        Op = 0x0B // Node, Name=event
	OpUnlisten      Op = 0x0C // Node, Name=event
	OpSetText       Op = 0x0D // Node, Value
)

var opNames = map[Op]string{
	OpCreateElement: "CreateElement",
	OpCreateText:    "CreateText",
	OpAppendChild:   "AppendChild",
	OpInsertBefore:  "InsertBefore",
	OpRemoveChild:   "RemoveChild",
	OpSetAttribute:  "SetAttribute",
	OpRemoveAttr:    "RemoveAttribute",
	OpSetStyle:      "SetStyle",
	OpClearStyle:    "ClearStyle",
	OpSetClass:      "SetClass",
	OpListen:        "Listen",
	OpUnlisten:      "Unlisten",
	OpSetText:       "SetText",
}

// String returns the string representation of the opcode.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(0x%02X)", uint8(op))
}

// ErrUnknownOp is returned when decoding an unknown opcode.
var ErrUnknownOp = errors.New("protocol: unknown mutation opcode")

// Mutation is one host operation. Handles are those of the host the
// mutation was recorded on.
type Mutation struct {
	Op     Op
	Node   vdom.Handle // Created, moved, removed or mutated node
	Parent vdom.Handle // Container for insert and remove
	Ref    vdom.Handle // Reference sibling for InsertBefore
	Name   string      // Tag, attribute, style property or event name
	Value  string      // Text, attribute value, style value or class name
}

// String renders the mutation on one line.
func (m Mutation) String() string {
	switch m.Op {
	case OpCreateElement:
		return fmt.Sprintf("%s #%d <%s>", m.Op, m.Node, m.Name)
	case OpCreateText, OpSetText:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Value)
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s #%d -> #%d", m.Op, m.Node, m.Parent)
	case OpInsertBefore:
		return fmt.Sprintf("%s #%d -> #%d before #%d", m.Op, m.Node, m.Parent, m.Ref)
	case OpSetAttribute, OpSetStyle:
		return fmt.Sprintf("%s #%d %s=%q", m.Op, m.Node, m.Name, m.Value)
	case OpRemoveAttr, OpClearStyle, OpListen, OpUnlisten:
		return fmt.Sprintf("%s #%d %s", m.Op, m.Node, m.Name)
	case OpSetClass:
		return fmt.Sprintf("%s #%d %q", m.Op, m.Node, m.Value)
	default:
		return m.Op.String()
	}
}

// Batch is the mutations produced by one render pass.
type Batch struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeBatch encodes a batch as a FrameMutations payload.
//
// Format: [Seq: varint][Count: varint] then per mutation
// [Op: byte][operands: varint handles and length-prefixed strings].
func EncodeBatch(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Mutations)))
	for i := range b.Mutations {
		encodeMutation(e, &b.Mutations[i])
	}
}

// Frame encodes the batch into a FrameMutations frame.
func (b *Batch) Frame() *Frame {
	e := NewEncoder()
	EncodeBatch(e, b)
	return NewFrame(FrameMutations, e.Bytes())
}

func encodeMutation(e *Encoder, m *Mutation) {
	e.WriteByte(byte(m.Op))
	switch m.Op {
	case OpCreateElement:
		e.WriteHandle(m.Node)
		e.WriteString(m.Name)
	case OpCreateText, OpSetClass, OpSetText:
		e.WriteHandle(m.Node)
		e.WriteString(m.Value)
	case OpAppendChild, OpRemoveChild:
		e.WriteHandle(m.Parent)
		e.WriteHandle(m.Node)
	case OpInsertBefore:
		e.WriteHandle(m.Parent)
		e.WriteHandle(m.Node)
		e.WriteHandle(m.Ref)
	case OpSetAttribute, OpSetStyle:
		e.WriteHandle(m.Node)
		e.WriteString(m.Name)
		e.WriteString(m.Value)
	case OpRemoveAttr, OpClearStyle, OpListen, OpUnlisten:
		e.WriteHandle(m.Node)
		e.WriteString(m.Name)
	}
}

// DecodeBatch decodes a FrameMutations payload.
func DecodeBatch(data []byte) (*Batch, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	b := &Batch{Seq: seq, Mutations: make([]Mutation, count)}
	for i := range b.Mutations {
		if err := decodeMutation(d, &b.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return b, nil
}

func decodeMutation(d *Decoder, m *Mutation) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Op = Op(op)

	switch m.Op {
	case OpCreateElement:
		return readAll(d.readHandle(&m.Node), d.readString(&m.Name))
	case OpCreateText, OpSetClass, OpSetText:
		return readAll(d.readHandle(&m.Node), d.readString(&m.Value))
	case OpAppendChild, OpRemoveChild:
		return readAll(d.readHandle(&m.Parent), d.readHandle(&m.Node))
	case OpInsertBefore:
		return readAll(d.readHandle(&m.Parent), d.readHandle(&m.Node), d.readHandle(&m.Ref))
	case OpSetAttribute, OpSetStyle:
		return readAll(d.readHandle(&m.Node), d.readString(&m.Name), d.readString(&m.Value))
	case OpRemoveAttr, OpClearStyle, OpListen, OpUnlisten:
		return readAll(d.readHandle(&m.Node), d.readString(&m.Name))
	default:
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOp, op)
	}
}

// readStep is one deferred field read.
type readStep func() error

func (d *Decoder) readHandle(dst *vdom.Handle) readStep {
	return func() (err error) {
		*dst, err = d.ReadHandle()
		return err
	}
}

func (d *Decoder) readString(dst *string) readStep {
	return func() (err error) {
		*dst, err = d.ReadString()
		return err
	}
}

// readAll runs steps in order and stops at the first error.
func readAll(steps ...readStep) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
