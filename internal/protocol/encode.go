package protocol

import (
	"fmt"
	"io"

	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

// Encode serialises p. The begin marker, body length and checksum are always
// recomputed; the values carried in p are ignored.
func Encode(p Packet) ([]byte, error) {
	if p.Body == nil {
		return nil, wire.Errorf("packet has no body")
	}
	if p.Header.Command != p.Body.Command() {
		return nil, fmt.Errorf("%w: header %s, body %s", ErrCommandMismatch, p.Header.Command, p.Body.Command())
	}
	body, err := wire.Marshal(p.Body)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s body: %w", p.Body.Command(), err)
	}
	if len(body) > MaxBodyLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, len(body))
	}

	h := p.Header
	h.Begin = Begin
	h.BodyLen = uint16(len(body))

	e := wire.NewEncoder()
	if err := e.Encode(h); err != nil {
		return nil, fmt.Errorf("protocol: encode header: %w", err)
	}
	e.WriteBlock(body)
	e.WriteU8(Checksum(e.Bytes()[2:]))
	return e.Bytes(), nil
}

// WritePacket encodes p and writes it to w.
func WritePacket(w io.Writer, p Packet) error {
	b, err := Encode(p)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Build assembles a Packet whose header command, begin marker, body length and
// checksum are consistent with b, so that Decode(Encode(p)) == p.
func Build(h Header, b Body) (Packet, error) {
	if b == nil {
		return Packet{}, wire.Errorf("packet has no body")
	}
	h.Command = b.Command()
	raw, err := Encode(Packet{Header: h, Body: b})
	if err != nil {
		return Packet{}, err
	}
	h.Begin = Begin
	h.BodyLen = uint16(len(raw) - HeaderSize - ChecksumSize)
	return Packet{Header: h, Body: b, Checksum: raw[len(raw)-1]}, nil
}

// Respond builds the platform reply to req: same header and body with the
// response code replaced.
func Respond(req Packet, code Response) (Packet, error) {
	h := req.Header
	h.Response = code
	return Build(h, req.Body)
}
