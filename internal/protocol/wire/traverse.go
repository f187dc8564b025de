package wire

import (
	"fmt"
	"reflect"
	"strings"
)

// Marshaler is implemented by types that write their own wire form.
type Marshaler interface {
	MarshalWire(e *Encoder) error
}

// Unmarshaler is implemented by types that read their own wire form.
type Unmarshaler interface {
	UnmarshalWire(d *Decoder) error
}

// Discriminant is implemented by enumerated integer types. Values for which
// KnownTag reports false are rejected in both directions.
type Discriminant interface {
	KnownTag() bool
}

// Unmarshal decodes data into the value pointed to by v. Every byte of data
// must be consumed.
func Unmarshal(data []byte, v any) error {
	d := NewDecoder(data)
	if err := d.Decode(v); err != nil {
		return err
	}
	if n := d.Remaining(); n != 0 {
		return Errorf("%d trailing bytes after %T", n, v)
	}
	return nil
}

// Marshal returns the wire form of v.
func Marshal(v any) ([]byte, error) {
	e := NewEncoder()
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Decode reads the value pointed to by v from the cursor.
func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return UnsupportedShapeError{Type: reflect.TypeOf(v), Reason: "decode target must be a non-nil pointer"}
	}
	return d.decodeValue(rv.Elem())
}

// Encode appends the wire form of v. A top level pointer is dereferenced, not
// treated as an option.
func (e *Encoder) Encode(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Errorf("cannot encode nil %T", v)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return UnsupportedShapeError{Reason: "nil value"}
	}
	addr := reflect.New(rv.Type()).Elem()
	addr.Set(rv)
	return e.encodeValue(addr)
}

func (d *Decoder) decodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Pointer && v.CanAddr() {
		if u, ok := v.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalWire(d)
		}
	}

	switch v.Kind() {
	case reflect.Uint8:
		x, err := d.ReadU8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
		return checkDiscriminant(v)
	case reflect.Uint16:
		x, err := d.ReadU16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
		return checkDiscriminant(v)
	case reflect.Uint32:
		x, err := d.ReadU32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(x))
		return checkDiscriminant(v)
	case reflect.String:
		s, err := d.ReadNullTerminated()
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case reflect.Struct:
		return d.decodeStruct(v)
	case reflect.Array:
		return d.ReadSequence(v.Len(), func(i int) error {
			return d.decodeValue(v.Index(i))
		})
	case reflect.Pointer:
		present, err := d.ReadOptional(func() error {
			p := reflect.New(v.Type().Elem())
			if err := d.decodeValue(p.Elem()); err != nil {
				return err
			}
			v.Set(p)
			return nil
		})
		if err != nil {
			return err
		}
		if !present {
			v.SetZero()
		}
		return nil
	case reflect.Slice:
		return UnsupportedShapeError{Type: v.Type(), Reason: "slice length must be declared with a wire tag"}
	default:
		return UnsupportedShapeError{Type: v.Type()}
	}
}

func (d *Decoder) decodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil {
			return wrapField(sf.Name, err)
		}
		if tag.skip {
			continue
		}
		fv := v.Field(i)
		switch {
		case tag.rest:
			fv.SetBytes(d.ReadRest())
		case tag.sized():
			n, err := tag.length(v, i)
			if err == nil {
				err = d.decodeSlice(fv, n)
			}
			if err != nil {
				return wrapField(sf.Name, err)
			}
		default:
			if err := d.decodeValue(fv); err != nil {
				return wrapField(sf.Name, err)
			}
		}
	}
	return nil
}

func (d *Decoder) decodeSlice(v reflect.Value, n int) error {
	elem := v.Type().Elem()
	if elem == byteType {
		b, err := d.ReadBlock(n)
		if err != nil {
			return err
		}
		v.SetBytes(b)
		return nil
	}
	if elem.Size() > 0 && n > d.Remaining() {
		return eof(n, d.Remaining())
	}
	if n == 0 {
		v.SetZero()
		return nil
	}
	s := reflect.MakeSlice(v.Type(), n, n)
	if err := d.ReadSequence(n, func(i int) error {
		return d.decodeValue(s.Index(i))
	}); err != nil {
		return err
	}
	v.Set(s)
	return nil
}

func (e *Encoder) encodeValue(v reflect.Value) error {
	if v.Kind() != reflect.Pointer {
		if v.CanAddr() {
			if m, ok := v.Addr().Interface().(Marshaler); ok {
				return m.MarshalWire(e)
			}
		}
		if v.CanInterface() {
			if m, ok := v.Interface().(Marshaler); ok {
				return m.MarshalWire(e)
			}
		}
	}

	switch v.Kind() {
	case reflect.Uint8:
		if err := checkDiscriminant(v); err != nil {
			return err
		}
		e.WriteU8(uint8(v.Uint()))
		return nil
	case reflect.Uint16:
		if err := checkDiscriminant(v); err != nil {
			return err
		}
		e.WriteU16(uint16(v.Uint()))
		return nil
	case reflect.Uint32:
		if err := checkDiscriminant(v); err != nil {
			return err
		}
		e.WriteU32(uint32(v.Uint()))
		return nil
	case reflect.String:
		return e.WriteNullTerminated(v.String())
	case reflect.Struct:
		return e.encodeStruct(v)
	case reflect.Array:
		return e.WriteSequence(v.Len(), func(i int) error {
			return e.encodeValue(v.Index(i))
		})
	case reflect.Pointer:
		return e.WriteOptional(!v.IsNil(), func() error {
			return e.encodeValue(v.Elem())
		})
	case reflect.Slice:
		return UnsupportedShapeError{Type: v.Type(), Reason: "slice length must be declared with a wire tag"}
	default:
		return UnsupportedShapeError{Type: v.Type()}
	}
}

func (e *Encoder) encodeStruct(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil {
			return wrapField(sf.Name, err)
		}
		if tag.skip {
			continue
		}
		fv := v.Field(i)
		switch {
		case tag.rest:
			e.WriteBlock(fv.Bytes())
		case tag.sized():
			n, err := tag.length(v, i)
			if err == nil && fv.Len() != n {
				err = Errorf("holds %d elements, %s declares %d", fv.Len(), tag.expr, n)
			}
			if err == nil {
				err = e.WriteSequence(n, func(j int) error {
					return e.encodeValue(fv.Index(j))
				})
			}
			if err != nil {
				return wrapField(sf.Name, err)
			}
		default:
			if err := e.encodeValue(fv); err != nil {
				return wrapField(sf.Name, err)
			}
		}
	}
	return nil
}

func checkDiscriminant(v reflect.Value) error {
	if !v.CanInterface() {
		return nil
	}
	if t, ok := v.Interface().(Discriminant); ok && !t.KnownTag() {
		return UnknownDiscriminantError{Type: v.Type().String(), Value: v.Uint()}
	}
	return nil
}

var byteType = reflect.TypeOf(byte(0))

type fieldTag struct {
	skip    bool
	rest    bool
	expr    string
	factors []string
}

func (t fieldTag) sized() bool { return len(t.factors) > 0 }

// parseTag understands `wire:"-"`, `wire:"rest"`, `wire:"size=A"`,
// `wire:"size=A*B"` and `wire:"count=..."` (an alias of size).
func parseTag(sf reflect.StructField) (fieldTag, error) {
	raw, ok := sf.Tag.Lookup("wire")
	if !ok || raw == "" {
		return fieldTag{}, nil
	}
	switch {
	case raw == "-":
		return fieldTag{skip: true}, nil
	case raw == "rest":
		if sf.Type != reflect.TypeOf([]byte(nil)) {
			return fieldTag{}, UnsupportedShapeError{Type: sf.Type, Reason: "rest applies to []byte only"}
		}
		return fieldTag{rest: true}, nil
	}
	key, expr, found := strings.Cut(raw, "=")
	if !found || (key != "size" && key != "count") || expr == "" {
		return fieldTag{}, UnsupportedShapeError{Type: sf.Type, Reason: fmt.Sprintf("bad wire tag %q", raw)}
	}
	if sf.Type.Kind() != reflect.Slice {
		return fieldTag{}, UnsupportedShapeError{Type: sf.Type, Reason: "size tag on non-slice field"}
	}
	factors := strings.Split(expr, "*")
	for i, f := range factors {
		factors[i] = strings.TrimSpace(f)
		if factors[i] == "" {
			return fieldTag{}, UnsupportedShapeError{Type: sf.Type, Reason: fmt.Sprintf("bad wire tag %q", raw)}
		}
	}
	return fieldTag{expr: expr, factors: factors}, nil
}

// length multiplies the already traversed sibling fields named by the tag.
func (t fieldTag) length(parent reflect.Value, index int) (int, error) {
	pt := parent.Type()
	n := uint64(1)
	for _, name := range t.factors {
		sf, ok := pt.FieldByName(name)
		if !ok || len(sf.Index) != 1 {
			return 0, UnsupportedShapeError{Type: pt, Reason: fmt.Sprintf("size field %q not found", name)}
		}
		if sf.Index[0] >= index {
			return 0, UnsupportedShapeError{Type: pt, Reason: fmt.Sprintf("size field %q must precede the sized field", name)}
		}
		fv := parent.Field(sf.Index[0])
		switch fv.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32:
			n *= fv.Uint()
		default:
			return 0, UnsupportedShapeError{Type: sf.Type, Reason: fmt.Sprintf("size field %q is not an unsigned integer", name)}
		}
		if n > 1<<32 {
			return 0, Errorf("declared size %d too large", n)
		}
	}
	return int(n), nil
}
