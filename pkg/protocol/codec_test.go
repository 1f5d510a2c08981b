package protocol

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/vango-dev/vtree/pkg/vdom"
)

func TestEncoderDecoder(t *testing.T) {
	e := NewEncoder()
	e.WriteByte(0x42)
	e.WriteUvarint(12345)
	e.WriteHandle(vdom.Handle(math.MaxUint32))
	e.WriteString("hello world")
	e.WriteBool(true)
	e.WriteBool(false)
	e.WriteUint16(0x1234)

	d := NewDecoder(e.Bytes())

	b, err := d.ReadByte()
	if err != nil || b != 0x42 {
		t.Errorf("ReadByte() = %x, %v; want 0x42, nil", b, err)
	}
	uv, err := d.ReadUvarint()
	if err != nil || uv != 12345 {
		t.Errorf("ReadUvarint() = %d, %v; want 12345, nil", uv, err)
	}
	h, err := d.ReadHandle()
	if err != nil || h != vdom.Handle(math.MaxUint32) {
		t.Errorf("ReadHandle() = %d, %v; want MaxUint32, nil", h, err)
	}
	s, err := d.ReadString()
	if err != nil || s != "hello world" {
		t.Errorf("ReadString() = %q, %v; want \"hello world\", nil", s, err)
	}
	bt, err := d.ReadBool()
	if err != nil || bt != true {
		t.Errorf("ReadBool() = %v, %v; want true, nil", bt, err)
	}
	bf, err := d.ReadBool()
	if err != nil || bf != false {
		t.Errorf("ReadBool() = %v, %v; want false, nil", bf, err)
	}
	u16, err := d.ReadUint16()
	if err != nil || u16 != 0x1234 {
		t.Errorf("ReadUint16() = %x, %v; want 0x1234, nil", u16, err)
	}

	if !d.EOF() || d.Remaining() != 0 {
		t.Errorf("decoder should be exhausted, %d bytes remain", d.Remaining())
	}
}

func TestEncoderReset(t *testing.T) {
	e := NewEncoder()
	e.WriteString("abc")
	if e.Len() != 4 {
		t.Errorf("Len() = %d, want 4", e.Len())
	}
	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", e.Len())
	}
}

func TestUvarintEncoding(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		e := NewEncoder()
		e.WriteUvarint(tt.value)
		if !bytes.Equal(e.Bytes(), tt.want) {
			t.Errorf("WriteUvarint(%d) = %x, want %x", tt.value, e.Bytes(), tt.want)
		}
		got, err := NewDecoder(tt.want).ReadUvarint()
		if err != nil || got != tt.value {
			t.Errorf("ReadUvarint(%x) = %d, %v; want %d", tt.want, got, err, tt.value)
		}
	}
}

func TestDecoderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(d *Decoder) error
		want error
	}{
		{
			name: "byte on empty",
			data: nil,
			read: func(d *Decoder) error { _, err := d.ReadByte(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "truncated varint",
			data: []byte{0x80},
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "varint overflow",
			data: bytes.Repeat([]byte{0xFF}, 11),
			read: func(d *Decoder) error { _, err := d.ReadUvarint(); return err },
			want: ErrVarintOverflow,
		},
		{
			name: "handle out of range",
			data: []byte{0x80, 0x80, 0x80, 0x80, 0x10},
			read: func(d *Decoder) error { _, err := d.ReadHandle(); return err },
			want: ErrInvalidHandle,
		},
		{
			name: "string longer than input",
			data: []byte{0x05, 'a', 'b'},
			read: func(d *Decoder) error { _, err := d.ReadString(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "invalid bool",
			data: []byte{0x02},
			read: func(d *Decoder) error { _, err := d.ReadBool(); return err },
			want: ErrInvalidBool,
		},
		{
			name: "short uint16",
			data: []byte{0x01},
			read: func(d *Decoder) error { _, err := d.ReadUint16(); return err },
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "collection too large",
			data: []byte{0xC0, 0x9A, 0x0C},
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: ErrCollectionTooLarge,
		},
		{
			name: "collection longer than input",
			data: []byte{0x03, 0x00},
			read: func(d *Decoder) error { _, err := d.ReadCollectionCount(); return err },
			want: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.read(NewDecoder(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStringAllocationLimit(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(MaxStringSize + 1)
	data := append(e.Bytes(), make([]byte, MaxStringSize+1)...)

	if _, err := NewDecoder(data).ReadString(); !errors.Is(err, ErrAllocationTooLarge) {
		t.Errorf("ReadString() error = %v, want %v", err, ErrAllocationTooLarge)
	}
}
