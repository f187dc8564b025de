// Package gbk converts between Go strings and GBK encoded byte buffers.
//
// Conversion is strict in both directions: runes that GBK cannot represent and
// byte sequences that are not valid GBK are errors, never replacement characters.
package gbk

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ErrEncode  = errors.New("gbk: text not representable")
	ErrDecode  = errors.New("gbk: invalid byte sequence")
	ErrTooLong = errors.New("gbk: encoded text exceeds field width")
)

// Encode returns the GBK form of text.
func Encode(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: invalid utf-8 input", ErrEncode)
	}
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return out, nil
}

// Decode returns the text held in b.
func Decode(b []byte) (string, error) {
	out, err := simplifiedchinese.GBK.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// The x/text decoder substitutes U+FFFD for malformed input. GBK has no
	// mapping for U+FFFD, so its presence always means a bad source byte.
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", ErrDecode
	}
	return string(out), nil
}

// EncodeFixed encodes text and pads it with zero bytes to exactly width bytes.
func EncodeFixed(text string, width int) ([]byte, error) {
	if width < 0 {
		return nil, fmt.Errorf("gbk: negative width %d", width)
	}
	enc, err := Encode(text)
	if err != nil {
		return nil, err
	}
	if bytes.IndexByte(enc, 0) >= 0 {
		return nil, fmt.Errorf("%w: embedded zero byte", ErrEncode)
	}
	if len(enc) > width {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLong, len(enc), width)
	}
	out := make([]byte, width)
	copy(out, enc)
	return out, nil
}

// DecodeFixed decodes a zero padded field. Bytes after the first zero are ignored.
func DecodeFixed(b []byte) (string, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return Decode(b)
}
