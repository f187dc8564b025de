package wire

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrUnexpectedEOF       = errors.New("wire: unexpected end of input")
	ErrEncoding            = errors.New("wire: text encoding failed")
	ErrInvalidOptionTag    = errors.New("wire: invalid option tag")
	ErrUnknownDiscriminant = errors.New("wire: unknown discriminant")
	ErrUnsupportedShape    = errors.New("wire: unsupported shape")
	ErrCustom              = errors.New("wire: custom error")
)

// UnsupportedShapeError names the Go type the codec refused to traverse.
type UnsupportedShapeError struct {
	Type   reflect.Type
	Reason string
}

func (e UnsupportedShapeError) Error() string {
	if e.Type == nil {
		return "wire: unsupported shape: " + e.Reason
	}
	if e.Reason == "" {
		return fmt.Sprintf("wire: unsupported shape %v", e.Type)
	}
	return fmt.Sprintf("wire: unsupported shape %v: %s", e.Type, e.Reason)
}

func (e UnsupportedShapeError) Unwrap() error { return ErrUnsupportedShape }

// UnknownDiscriminantError reports a tag value outside its enumeration.
type UnknownDiscriminantError struct {
	Type  string
	Value uint64
}

func (e UnknownDiscriminantError) Error() string {
	return fmt.Sprintf("wire: unknown discriminant %#x for %s", e.Value, e.Type)
}

func (e UnknownDiscriminantError) Unwrap() error { return ErrUnknownDiscriminant }

// InvalidOptionTagError carries the presence byte that was neither 0 nor 1.
type InvalidOptionTagError struct {
	Tag uint8
}

func (e InvalidOptionTagError) Error() string {
	return fmt.Sprintf("wire: invalid option tag %#x", e.Tag)
}

func (e InvalidOptionTagError) Unwrap() error { return ErrInvalidOptionTag }

// CustomError is the escape hatch for ad hoc failures raised during traversal.
type CustomError struct {
	Msg string
}

func (e CustomError) Error() string { return "wire: " + e.Msg }

func (e CustomError) Unwrap() error { return ErrCustom }

// Errorf builds a CustomError.
func Errorf(format string, args ...any) error {
	return CustomError{Msg: fmt.Sprintf(format, args...)}
}

// FieldError locates a failure inside a record. Path is dotted, e.g.
// "VehicleLogin.ICCID".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func wrapField(name string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		sep := "."
		if strings.HasPrefix(fe.Path, "[") {
			sep = ""
		}
		return &FieldError{Path: name + sep + fe.Path, Err: fe.Err}
	}
	return &FieldError{Path: name, Err: err}
}

func eof(want, have int) error {
	return fmt.Errorf("%w: need %d bytes, have %d", ErrUnexpectedEOF, want, have)
}

func encodingErr(err error) error {
	return fmt.Errorf("%w: %w", ErrEncoding, err)
}
