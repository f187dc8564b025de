// Package frame pulls complete raw frames off a byte stream. It knows only the
// fixed header geometry, not the body schemas.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

const (
	FixedHeaderLen = 24
	ChecksumLen    = 1
	BeginMarker    = 0x2323

	bodyLenOffset = 22
)

var (
	ErrShortHeader     = fmt.Errorf("frame: short fixed header: %w", wire.ErrUnexpectedEOF)
	ErrShortBody       = fmt.Errorf("frame: short body: %w", wire.ErrUnexpectedEOF)
	ErrBadBeginMarker  = errors.New("frame: bad begin marker")
	ErrPayloadTooLarge = errors.New("frame: body too large")
)

// Limits constrains frame decode memory use.
type Limits struct {
	MaxBodyBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxBodyBytes: 0xffff}
}

// ReadFrame reads one frame: the fixed header, the declared body and the
// checksum byte. The returned slice holds the whole frame. A clean EOF before
// any byte is read is returned as io.EOF.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var fixed [FixedHeaderLen]byte
	if n, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortHeader
		}
		return nil, err
	}

	if begin := binary.BigEndian.Uint16(fixed[0:2]); begin != BeginMarker {
		return nil, fmt.Errorf("%w: 0x%04x", ErrBadBeginMarker, begin)
	}
	bodyLen := int(BodyLen(fixed[:]))
	if limits.MaxBodyBytes > 0 && bodyLen > limits.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, bodyLen, limits.MaxBodyBytes)
	}

	buf := make([]byte, FixedHeaderLen+bodyLen+ChecksumLen)
	copy(buf, fixed[:])
	if _, err := io.ReadFull(r, buf[FixedHeaderLen:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortBody
		}
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes a complete raw frame.
func WriteFrame(w io.Writer, raw []byte) error {
	if len(raw) < FixedHeaderLen+ChecksumLen {
		return ErrShortHeader
	}
	if want := FixedHeaderLen + int(BodyLen(raw)) + ChecksumLen; len(raw) != want {
		return fmt.Errorf("frame: length %d does not match header (%d)", len(raw), want)
	}
	_, err := w.Write(raw)
	return err
}

// BodyLen returns the body length declared in a fixed header.
func BodyLen(header []byte) uint16 {
	return binary.BigEndian.Uint16(header[bodyLenOffset : bodyLenOffset+2])
}
