package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes hex text into raw frame bytes. Whitespace and an optional
// 0x prefix are ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("protocol: hex: %w", err)
	}
	return raw, nil
}

// DecodeHex decodes a frame written as hex text.
func DecodeHex(s string) (Packet, error) {
	raw, err := ParseHex(s)
	if err != nil {
		return Packet{}, err
	}
	return Decode(raw)
}

// EncodeHex encodes p as upper case hex text.
func EncodeHex(p Packet) (string, error) {
	raw, err := Encode(p)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(raw)), nil
}
