package wire

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type width5 struct{}

func (width5) Width() int { return 5 }

type color uint8

const (
	colorRed  color = 1
	colorBlue color = 2
)

func (c color) KnownTag() bool { return c == colorRed || c == colorBlue }

type inner struct {
	A uint8
	B uint16
}

type record struct {
	Flag   uint8
	Count  uint8
	Unit   uint8
	Codes  []byte  `wire:"size=Count*Unit"`
	Pairs  []inner `wire:"count=Count"`
	Name   FixedString[width5]
	Note   string
	Extra  *inner
	Color  color
	Fixed  [3]uint8
	Skip   float64 `wire:"-"`
	hidden int
}

func TestPrimitivesBigEndian(t *testing.T) {
	e := NewEncoder()
	e.WriteU8(0x01)
	e.WriteU16(0x0203)
	e.WriteU32(0x04050607)
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, e.Bytes())

	d := NewDecoder(e.Bytes())
	u8, err := d.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(1), u8)
	u16, err := d.ReadU16()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0203), u16)
	u32, err := d.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x04050607), u32)
	require.Equal(t, 7, d.Consumed())
	require.Zero(t, d.Remaining())
}

func TestReadShortInput(t *testing.T) {
	d := NewDecoder([]byte{0x01})
	_, err := d.ReadU16()
	require.ErrorIs(t, err, ErrUnexpectedEOF)
	require.Zero(t, d.Consumed())

	_, err = NewDecoder([]byte{1, 2, 3}).ReadU32()
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReadTagWidths(t *testing.T) {
	d := NewDecoder([]byte{0xfe, 0x01, 0x02})
	v, err := d.ReadTag(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0xfe), v)
	v, err = d.ReadTag(2)
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), v)

	_, err = NewDecoder([]byte{1, 2, 3}).ReadTag(3)
	require.ErrorIs(t, err, ErrUnsupportedShape)

	require.Error(t, NewEncoder().WriteTag(1, 0x100))
}

func TestOptional(t *testing.T) {
	called := false
	present, err := NewDecoder([]byte{0}).ReadOptional(func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, present)
	require.False(t, called)

	d := NewDecoder([]byte{1, 9})
	var got uint8
	present, err = d.ReadOptional(func() error {
		var err error
		got, err = d.ReadU8()
		return err
	})
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, uint8(9), got)

	_, err = NewDecoder([]byte{2, 9}).ReadOptional(func() error { return nil })
	require.ErrorIs(t, err, ErrInvalidOptionTag)
	var tagErr InvalidOptionTagError
	require.True(t, errors.As(err, &tagErr))
	require.Equal(t, uint8(2), tagErr.Tag)
}

func TestNullTerminated(t *testing.T) {
	e := NewEncoder()
	require.NoError(t, e.WriteNullTerminated("车辆"))
	require.Equal(t, []byte{0xb3, 0xb5, 0xc1, 0xbe, 0}, e.Bytes())

	d := NewDecoder(append(e.Bytes(), 0x7f))
	s, err := d.ReadNullTerminated()
	require.NoError(t, err)
	require.Equal(t, "车辆", s)
	require.Equal(t, 1, d.Remaining())

	_, err = NewDecoder([]byte{'a', 'b'}).ReadNullTerminated()
	require.ErrorIs(t, err, ErrUnexpectedEOF)

	require.ErrorIs(t, NewEncoder().WriteNullTerminated("a\x00b"), ErrEncoding)
}

func TestFixedStringWidth(t *testing.T) {
	s, err := NewFixedString[width5]("AB")
	require.NoError(t, err)
	out, err := Marshal(s)
	require.NoError(t, err)
	require.Equal(t, []byte{'A', 'B', 0, 0, 0}, out)

	var back FixedString[width5]
	require.NoError(t, Unmarshal([]byte{'A', 'B', 0, 'C', 0}, &back))
	require.Equal(t, "AB", back.String())

	_, err = NewFixedString[width5]("ABCDEF")
	require.ErrorIs(t, err, ErrEncoding)

	d := NewDecoder([]byte{'A', 'B', 'C', 'D', 'E', 'F'})
	require.NoError(t, d.Decode(&back))
	require.Equal(t, "ABCDE", back.String())
	require.Equal(t, 5, d.Consumed())
}

func TestRecordRoundTrip(t *testing.T) {
	in := record{
		Flag:  7,
		Count: 2,
		Unit:  3,
		Codes: []byte{1, 2, 3, 4, 5, 6},
		Pairs: []inner{{A: 1, B: 0x0102}, {A: 2, B: 0x0304}},
		Name:  MustFixedString[width5]("粤B"),
		Note:  "ok",
		Extra: &inner{A: 9, B: 10},
		Color: colorBlue,
		Fixed: [3]uint8{7, 8, 9},
	}
	b, err := Marshal(&in)
	require.NoError(t, err)
	require.Len(t, b, 3+6+6+5+3+1+3+1+3)

	var out record
	require.NoError(t, Unmarshal(b, &out))
	require.Equal(t, in, out)

	again, err := Marshal(out)
	require.NoError(t, err)
	require.Equal(t, b, again)
}

func TestAbsentOptionalRoundTrip(t *testing.T) {
	in := record{Name: MustFixedString[width5](""), Color: colorRed}
	b, err := Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, Unmarshal(b, &out))
	require.Nil(t, out.Extra)
	require.Nil(t, out.Codes)
	require.Nil(t, out.Pairs)
	require.Equal(t, in, out)
}

func TestEncodeSizeMismatch(t *testing.T) {
	in := record{Count: 1, Unit: 2, Codes: []byte{1}, Color: colorRed}
	_, err := Marshal(in)
	require.ErrorIs(t, err, ErrCustom)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "Codes", fe.Path)
}

func TestUnknownDiscriminant(t *testing.T) {
	var c color
	err := Unmarshal([]byte{9}, &c)
	require.ErrorIs(t, err, ErrUnknownDiscriminant)
	var de UnknownDiscriminantError
	require.True(t, errors.As(err, &de))
	require.Equal(t, uint64(9), de.Value)

	_, err = Marshal(color(0))
	require.ErrorIs(t, err, ErrUnknownDiscriminant)
}

func TestFailureAtFieldAbortsRecord(t *testing.T) {
	type pair struct {
		First  uint8
		Second inner
	}
	var out pair
	err := Unmarshal([]byte{1, 2}, &out)
	require.ErrorIs(t, err, ErrUnexpectedEOF)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "Second.B", fe.Path)
}

func TestUnsupportedShapes(t *testing.T) {
	cases := map[string]any{
		"float":   new(float32),
		"float64": new(float64),
		"signed":  new(int16),
		"bool":    new(bool),
		"uint64":  new(uint64),
		"map":     new(map[string]uint8),
		"iface":   new(any),
		"slice":   new([]uint8),
		"struct": new(struct {
			A uint8
			F float64
		}),
		"backref": new(struct {
			B []byte `wire:"size=N"`
			N uint8
		}),
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			err := Unmarshal([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, target)
			require.ErrorIs(t, err, ErrUnsupportedShape)
		})
	}

	_, err := Marshal(struct{ V float32 }{V: 1.5})
	require.ErrorIs(t, err, ErrUnsupportedShape)

	var body interface{ Command() uint8 }
	_, err = Marshal(struct{ Body any }{Body: body})
	require.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestDecodeRequiresPointer(t *testing.T) {
	var x uint8
	require.ErrorIs(t, NewDecoder([]byte{1}).Decode(x), ErrUnsupportedShape)
}

func TestUnmarshalTrailingBytes(t *testing.T) {
	var x uint8
	require.ErrorIs(t, Unmarshal([]byte{1, 2}, &x), ErrCustom)
}

func TestRestField(t *testing.T) {
	type report struct {
		Kind uint8
		Data []byte `wire:"rest"`
	}
	var out report
	require.NoError(t, Unmarshal([]byte{1, 2, 3, 4}, &out))
	require.Equal(t, report{Kind: 1, Data: []byte{2, 3, 4}}, out)

	b, err := Marshal(out)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, b)
}

func TestEmptyRestFieldStaysNil(t *testing.T) {
	type report struct {
		Kind uint8
		Data []byte `wire:"rest"`
	}
	in := report{Kind: 7}
	b, err := Marshal(in)
	require.NoError(t, err)

	var out report
	require.NoError(t, Unmarshal(b, &out))
	require.Nil(t, out.Data)
	require.Equal(t, in, out)
}
