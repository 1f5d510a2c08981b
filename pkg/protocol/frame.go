package protocol

import (
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 5

	// MaxPayloadSize is the maximum payload size (4MB).
	MaxPayloadSize = 4 << 20
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameMutations FrameType = 0x01 // Server → Client mutation batch
	FrameEvent     FrameType = 0x02 // Client → Server event
	FrameError     FrameType = 0x03 // Error message, either direction
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameMutations:
		return "Mutations"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a typed, length-prefixed payload.
//
// Wire format (5 bytes header + variable payload):
//
//	┌─────────────┬───────────────────────────────┐
//	│ Frame Type  │ Payload Length                │
//	│ (1 byte)    │ (4 bytes, big-endian)         │
//	└─────────────┴───────────────────────────────┘
//	│  Payload (variable length)                  │
//	└─────────────────────────────────────────────┘
type Frame struct {
	Type    FrameType
	Payload []byte
}

// NewFrame creates a frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	length := len(f.Payload)
	buf := make([]byte, FrameHeaderSize+length)
	buf[0] = byte(f.Type)
	putLength(buf[1:], length)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes a frame from bytes holding exactly one frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft, length, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Type: ft, Payload: payload}, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, length, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Type: ft, Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

func parseHeader(header []byte) (FrameType, int, error) {
	ft := FrameType(header[0])
	if ft.String() == "Unknown" {
		return 0, 0, ErrInvalidFrameType
	}
	length := int(header[1])<<24 | int(header[2])<<16 | int(header[3])<<8 | int(header[4])
	if length > MaxPayloadSize {
		return 0, 0, ErrFrameTooLarge
	}
	return ft, length, nil
}

func putLength(buf []byte, n int) {
	buf[0] = byte(n >> 24)
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
}
