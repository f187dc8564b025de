package gbk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFixedPadsWithZeros(t *testing.T) {
	out, err := EncodeFixed("AB", 5)
	require.NoError(t, err)
	require.Equal(t, []byte{'A', 'B', 0, 0, 0}, out)
}

func TestDecodeFixedStopsAtFirstZero(t *testing.T) {
	s, err := DecodeFixed([]byte{'A', 'B', 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, "AB", s)

	s, err = DecodeFixed([]byte{'A', 'B', 0, 'C', 0})
	require.NoError(t, err)
	require.Equal(t, "AB", s)
}

func TestDecodeFixedIgnoresGarbageAfterTerminator(t *testing.T) {
	s, err := DecodeFixed([]byte{'o', 'k', 0, 0xff, 0xff})
	require.NoError(t, err)
	require.Equal(t, "ok", s)
}

func TestEncodeFixedAlwaysFillsWidth(t *testing.T) {
	for width := 0; width <= 20; width++ {
		out, err := EncodeFixed("粤B12345", width)
		if err != nil {
			require.True(t, errors.Is(err, ErrTooLong), "width %d: %v", width, err)
			continue
		}
		require.Len(t, out, width)
	}
}

func TestChineseRoundTrip(t *testing.T) {
	enc, err := EncodeFixed("中文", 6)
	require.NoError(t, err)
	require.Equal(t, []byte{0xd6, 0xd0, 0xce, 0xc4, 0, 0}, enc)

	s, err := DecodeFixed(enc)
	require.NoError(t, err)
	require.Equal(t, "中文", s)
}

func TestEncodeTooLong(t *testing.T) {
	_, err := EncodeFixed("中文", 3)
	require.ErrorIs(t, err, ErrTooLong)
}

func TestEncodeUnmappableRune(t *testing.T) {
	_, err := Encode("car \U0001F697")
	require.ErrorIs(t, err, ErrEncode)
}

func TestEncodeInvalidUTF8(t *testing.T) {
	_, err := Encode(string([]byte{0xff, 0xfe}))
	require.ErrorIs(t, err, ErrEncode)
}

func TestDecodeInvalidSequence(t *testing.T) {
	// 0xff is never a valid GBK lead byte.
	_, err := Decode([]byte{'A', 0xff})
	require.ErrorIs(t, err, ErrDecode)
}
