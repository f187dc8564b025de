package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/danmuck/gbtlink/internal/protocol/gbk"
)

// Encoder appends the wire form of values to an internal buffer.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded bytes. The slice aliases the encoder buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len reports the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) WriteU8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) WriteU16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) WriteU32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) WriteTag(width int, v uint16) error {
	switch width {
	case 1:
		if v > 0xff {
			return Errorf("tag %#x does not fit in one byte", v)
		}
		e.WriteU8(uint8(v))
	case 2:
		e.WriteU16(v)
	default:
		return UnsupportedShapeError{Reason: fmt.Sprintf("tag width %d", width)}
	}
	return nil
}

func (e *Encoder) WriteBlock(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *Encoder) WriteFixedString(s string, width int) error {
	b, err := gbk.EncodeFixed(s, width)
	if err != nil {
		return encodingErr(err)
	}
	e.WriteBlock(b)
	return nil
}

func (e *Encoder) WriteNullTerminated(s string) error {
	b, err := gbk.Encode(s)
	if err != nil {
		return encodingErr(err)
	}
	if bytes.IndexByte(b, 0) >= 0 {
		return encodingErr(fmt.Errorf("%w: embedded zero byte", gbk.ErrEncode))
	}
	e.WriteBlock(b)
	e.WriteU8(0)
	return nil
}

// WriteOptional writes the presence byte and, when present, calls fn.
func (e *Encoder) WriteOptional(present bool, fn func() error) error {
	if !present {
		e.WriteU8(0)
		return nil
	}
	e.WriteU8(1)
	return fn()
}

func (e *Encoder) WriteSequence(n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return wrapField(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}
