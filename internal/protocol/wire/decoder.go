package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/danmuck/gbtlink/internal/protocol/gbk"
)

// Decoder is a read cursor over an in-memory buffer. A Decoder is owned by a
// single decode call and must not be shared between goroutines.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Consumed reports how many bytes have been read so far.
func (d *Decoder) Consumed() int { return d.off }

// Remaining reports how many unread bytes are left.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 {
		return nil, Errorf("negative read width %d", n)
	}
	if d.Remaining() < n {
		return nil, eof(n, d.Remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadTag reads a 1 or 2 byte discriminant. Mapping it to a named value is the
// caller's job.
func (d *Decoder) ReadTag(width int) (uint16, error) {
	switch width {
	case 1:
		v, err := d.ReadU8()
		return uint16(v), err
	case 2:
		return d.ReadU16()
	default:
		return 0, UnsupportedShapeError{Reason: fmt.Sprintf("tag width %d", width)}
	}
}

// ReadBlock copies the next width bytes out of the buffer. A zero width
// yields a nil slice so an absent block compares equal to one never set.
func (d *Decoder) ReadBlock(width int) ([]byte, error) {
	b, err := d.take(width)
	if err != nil || width == 0 {
		return nil, err
	}
	out := make([]byte, width)
	copy(out, b)
	return out, nil
}

// ReadFixedString reads exactly width bytes and decodes the GBK text before the
// first zero byte.
func (d *Decoder) ReadFixedString(width int) (string, error) {
	b, err := d.take(width)
	if err != nil {
		return "", err
	}
	s, err := gbk.DecodeFixed(b)
	if err != nil {
		return "", encodingErr(err)
	}
	return s, nil
}

// ReadNullTerminated reads GBK text up to and including a zero byte.
func (d *Decoder) ReadNullTerminated() (string, error) {
	rest := d.buf[d.off:]
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: missing string terminator", ErrUnexpectedEOF)
	}
	s, err := gbk.Decode(rest[:i])
	if err != nil {
		return "", encodingErr(err)
	}
	d.off += i + 1
	return s, nil
}

// ReadOptional reads a presence byte and calls fn only when the value is present.
func (d *Decoder) ReadOptional(fn func() error) (bool, error) {
	tag, err := d.ReadU8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		if err := fn(); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, InvalidOptionTagError{Tag: tag}
	}
}

// ReadSequence runs fn n times. n comes from the caller, never from the wire.
func (d *Decoder) ReadSequence(n int, fn func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := fn(i); err != nil {
			return wrapField(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}

// ReadRest returns a copy of every unread byte.
func (d *Decoder) ReadRest() []byte {
	out, _ := d.ReadBlock(d.Remaining())
	return out
}
