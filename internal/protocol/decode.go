package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/gbtlink/internal/protocol/frame"
	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

// State is a stage of the frame decoder.
type State int

const (
	StateAwaitHeader State = iota
	StateHaveHeader
	StateHaveBody
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateAwaitHeader:
		return "await_header"
	case StateHaveHeader:
		return "have_header"
	case StateHaveBody:
		return "have_body"
	case StateVerified:
		return "verified"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decode parses one complete frame with the default registry.
func Decode(data []byte) (Packet, error) {
	return defaultRegistry.Decode(data)
}

// Decode parses one complete frame. The begin marker and, when every declared
// byte is present, the checksum are checked before any field is interpreted;
// then the header, then the body schema selected by the header command. Any
// failure aborts the frame; a partial Packet is never returned.
func (r *Registry) Decode(data []byte) (Packet, error) {
	fd := frameDecoder{reg: r, data: data}
	p, err := fd.run()
	if err != nil {
		return Packet{}, &StageError{State: fd.state, Err: err}
	}
	return p, nil
}

// ReadPacket pulls one frame off r and decodes it.
func (r *Registry) ReadPacket(src io.Reader, limits frame.Limits) (Packet, error) {
	raw, err := frame.ReadFrame(src, limits)
	if err != nil {
		return Packet{}, &StageError{State: StateAwaitHeader, Err: err}
	}
	return r.Decode(raw)
}

type frameDecoder struct {
	reg    *Registry
	data   []byte
	state  State
	header Header
	body   Body
}

func (fd *frameDecoder) run() (Packet, error) {
	fd.state = StateAwaitHeader
	if err := fd.checkFraming(); err != nil {
		return Packet{}, err
	}
	if err := fd.readHeader(); err != nil {
		return Packet{}, err
	}
	fd.state = StateHaveHeader
	if err := fd.readBody(); err != nil {
		return Packet{}, err
	}
	fd.state = StateHaveBody
	sum, err := fd.verify()
	if err != nil {
		return Packet{}, err
	}
	fd.state = StateVerified
	return Packet{Header: fd.header, Body: fd.body, Checksum: sum}, nil
}

// checkFraming validates what needs no schema. A damaged header or body byte
// therefore reports as a checksum mismatch, not as whatever the damaged field
// happens to decode to. A frame shorter than its declared length is left for
// readBody to report as truncated.
func (fd *frameDecoder) checkFraming() error {
	if len(fd.data) < 2 {
		return nil
	}
	if begin := binary.BigEndian.Uint16(fd.data); begin != Begin {
		return fmt.Errorf("%w: 0x%04x", ErrInvalidBegin, begin)
	}
	if len(fd.data) < HeaderSize {
		return nil
	}
	end := HeaderSize + int(frame.BodyLen(fd.data[:HeaderSize])) + ChecksumSize
	if len(fd.data) < end {
		return nil
	}
	got := fd.data[end-1]
	if want := Checksum(checksumRange(fd.data[:end])); got != want {
		return ChecksumError{Want: want, Got: got}
	}
	return nil
}

func (fd *frameDecoder) readHeader() error {
	d := wire.NewDecoder(fd.data)
	return d.Decode(&fd.header)
}

func (fd *frameDecoder) readBody() error {
	dec, err := fd.reg.lookup(fd.header.Command)
	if err != nil {
		return err
	}
	declared := int(fd.header.BodyLen)
	if have := len(fd.data) - HeaderSize; have < declared+ChecksumSize {
		return fmt.Errorf("%w: frame declares %d body bytes plus checksum, %d available",
			wire.ErrUnexpectedEOF, declared, have)
	}

	d := wire.NewDecoder(fd.data[HeaderSize : HeaderSize+declared])
	body, err := dec(d)
	if err != nil {
		// The body bytes are all present, so running out means the schema
		// needs more than the header declared.
		if errors.Is(err, wire.ErrUnexpectedEOF) {
			return BodyLengthError{Command: fd.header.Command, Declared: declared, Consumed: -1, Err: err}
		}
		return err
	}
	if d.Remaining() != 0 {
		return BodyLengthError{Command: fd.header.Command, Declared: declared, Consumed: d.Consumed()}
	}
	fd.body = body
	return nil
}

// verify runs once the body decoded, which implies checkFraming saw the whole
// frame and already matched the checksum.
func (fd *frameDecoder) verify() (uint8, error) {
	end := HeaderSize + int(fd.header.BodyLen) + ChecksumSize
	got := fd.data[end-1]
	if extra := len(fd.data) - end; extra > 0 {
		return 0, fmt.Errorf("%w: %d", ErrTrailingBytes, extra)
	}
	return got, nil
}
