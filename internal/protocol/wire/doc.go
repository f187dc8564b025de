// Package wire is a schema driven, non self-describing binary codec.
//
// The Go type passed to Unmarshal or Marshal fully determines the byte layout:
// exported struct fields are visited in declaration order, integers are big
// endian, strings are GBK with a zero terminator, pointers are presence tagged
// options and arrays are fixed sequences. Slices must declare their length via
// a `wire` struct tag that refers to earlier sibling fields:
//
//	Count uint8
//	Unit  uint8
//	Codes []byte `wire:"size=Count*Unit"`
//
// Floats, signed integers, maps, interfaces and untagged slices are rejected
// with ErrUnsupportedShape. Union types are never resolved here; callers pick
// the concrete type from an already decoded discriminant.
package wire
