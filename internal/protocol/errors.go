package protocol

import (
	"errors"
	"fmt"

	"github.com/danmuck/gbtlink/internal/protocol/frame"
	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

var (
	ErrInvalidBegin       = errors.New("protocol: invalid begin marker")
	ErrUnknownCommand     = errors.New("protocol: unknown command")
	ErrBodyLengthMismatch = errors.New("protocol: body length mismatch")
	ErrChecksumMismatch   = errors.New("protocol: checksum mismatch")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after checksum")
	ErrCommandMismatch    = errors.New("protocol: header command does not match body")
	ErrBodyTooLarge       = errors.New("protocol: body too large")
)

// BodyLengthError reports the declared body length against what the body
// schema actually consumed.
// Consumed is -1 when the schema ran past the declared length; Err then holds
// the underlying short read.
type BodyLengthError struct {
	Command  Command
	Declared int
	Consumed int
	Err      error
}

func (e BodyLengthError) Error() string {
	if e.Consumed < 0 {
		return fmt.Sprintf("protocol: %s body declares %d bytes, schema needs more: %v", e.Command, e.Declared, e.Err)
	}
	return fmt.Sprintf("protocol: %s body declares %d bytes, schema consumed %d", e.Command, e.Declared, e.Consumed)
}

func (e BodyLengthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBodyLengthMismatch}
	}
	return []error{ErrBodyLengthMismatch, e.Err}
}

// ChecksumError carries the received and recomputed BCC.
type ChecksumError struct {
	Want uint8
	Got  uint8
}

func (e ChecksumError) Error() string {
	return fmt.Sprintf("protocol: checksum mismatch: frame carries 0x%02x, computed 0x%02x", e.Got, e.Want)
}

func (e ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// StageError records the decoder state in which a frame failed.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.State, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind returns a short stable label for err, suitable for metrics and API
// responses. Body length problems are reported before the short read they
// may wrap.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrBodyLengthMismatch):
		return "body_length_mismatch"
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum_mismatch"
	case errors.Is(err, ErrInvalidBegin), errors.Is(err, frame.ErrBadBeginMarker):
		return "invalid_begin"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	case errors.Is(err, ErrTrailingBytes):
		return "trailing_bytes"
	case errors.Is(err, ErrCommandMismatch):
		return "command_mismatch"
	case errors.Is(err, ErrBodyTooLarge), errors.Is(err, frame.ErrPayloadTooLarge):
		return "body_too_large"
	case errors.Is(err, wire.ErrUnexpectedEOF):
		return "unexpected_eof"
	case errors.Is(err, wire.ErrEncoding):
		return "encoding"
	case errors.Is(err, wire.ErrInvalidOptionTag):
		return "invalid_option_tag"
	case errors.Is(err, wire.ErrUnknownDiscriminant):
		return "unknown_discriminant"
	case errors.Is(err, wire.ErrUnsupportedShape):
		return "unsupported_shape"
	case errors.Is(err, wire.ErrCustom):
		return "custom"
	default:
		return "other"
	}
}
