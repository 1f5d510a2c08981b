package protocol

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown       ErrorCode = 0x0000 // Unknown error
	ErrInvalidFrame  ErrorCode = 0x0001 // Malformed frame
	ErrInvalidEvent  ErrorCode = 0x0002 // Malformed event
	ErrUnknownTarget ErrorCode = 0x0003 // Event names a node without listeners
	ErrHandlerFailed ErrorCode = 0x0004 // Event handler returned an error
	ErrRenderFailed  ErrorCode = 0x0100 // Render pass failed on the server
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrInvalidFrame:
		return "InvalidFrame"
	case ErrInvalidEvent:
		return "InvalidEvent"
	case ErrUnknownTarget:
		return "UnknownTarget"
	case ErrHandlerFailed:
		return "HandlerFailed"
	case ErrRenderFailed:
		return "RenderFailed"
	default:
		return "Unknown"
	}
}

// ErrorMessage is the payload of FrameError.
type ErrorMessage struct {
	Code    ErrorCode // Error code
	Message string    // Human-readable error message
	Fatal   bool      // If true, connection should be closed
}

// NewError creates a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates a fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// Frame wraps the message in a FrameError.
func (em *ErrorMessage) Frame() *Frame {
	e := NewEncoder()
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return NewFrame(FrameError, e.Bytes())
}

// DecodeErrorMessage decodes the payload of a FrameError.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}
	message, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	return &ErrorMessage{
		Code:    ErrorCode(code),
		Message: message,
		Fatal:   fatal,
	}, nil
}
