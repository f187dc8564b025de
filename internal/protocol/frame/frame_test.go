package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/gbtlink/internal/protocol/wire"
)

func rawFrame(body []byte) []byte {
	h := make([]byte, FixedHeaderLen)
	h[0], h[1] = 0x23, 0x23
	h[2] = 0x07
	h[3] = 0xfe
	copy(h[4:21], "LZYTBGBW6J1014194")
	h[21] = 0x01
	h[22] = byte(len(body) >> 8)
	h[23] = byte(len(body))
	out := append(h, body...)
	return append(out, 0x00)
}

func TestReadWriteFrameRoundTrip(t *testing.T) {
	in := rawFrame([]byte{1, 2, 3})
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	// Two frames back to back must split cleanly.
	if err := WriteFrame(&buf, rawFrame(nil)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("frame mismatch: got=%x want=%x", out, in)
	}
	out, err = ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read second frame: %v", err)
	}
	if len(out) != FixedHeaderLen+ChecksumLen {
		t.Fatalf("unexpected second frame length %d", len(out))
	}
	if _, err := ReadFrame(&buf, DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadFrameShortHeader(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x23, 0x23, 0x01}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Fatalf("expected wire.ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadFrameShortBody(t *testing.T) {
	raw := rawFrame([]byte{1, 2, 3, 4})
	_, err := ReadFrame(bytes.NewReader(raw[:len(raw)-2]), DefaultLimits())
	if !errors.Is(err, ErrShortBody) {
		t.Fatalf("expected ErrShortBody, got %v", err)
	}
}

func TestReadFrameBadBegin(t *testing.T) {
	raw := rawFrame(nil)
	raw[0] = 0x24
	_, err := ReadFrame(bytes.NewReader(raw), DefaultLimits())
	if !errors.Is(err, ErrBadBeginMarker) {
		t.Fatalf("expected ErrBadBeginMarker, got %v", err)
	}
}

func TestReadFrameLimits(t *testing.T) {
	raw := rawFrame(make([]byte, 64))
	_, err := ReadFrame(bytes.NewReader(raw), Limits{MaxBodyBytes: 32})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWriteFrameRejectsInconsistentLength(t *testing.T) {
	raw := rawFrame([]byte{1, 2})
	if err := WriteFrame(io.Discard, raw[:len(raw)-1]); err == nil {
		t.Fatalf("expected length error")
	}
}
