// Package thrift is a minimal Thrift binary protocol encoder, enough to
// produce Jaeger batches without generated code.
//
// Encoding is two-pass: size the buffer with CalculateByteLength, then fill
// it with WriteToBuffer. Nothing grows dynamically.
//
//	buf := make([]byte, v.CalculateByteLength())
//	n, err := v.WriteToBuffer(buf, 0)
//
// Encode does both.
package thrift

import (
	"errors"
	"fmt"
)

var (
	// ErrShortBuffer is returned when a value does not fit at the given offset.
	ErrShortBuffer = errors.New("thrift: buffer too short")

	// ErrInvalidI64 is returned for 64-bit inputs that cannot be represented.
	ErrInvalidI64 = errors.New("thrift: invalid 64-bit integer")

	// ErrTypeMismatch is returned when a value's type disagrees with the
	// type declared by its enclosing list or struct field.
	ErrTypeMismatch = errors.New("thrift: type mismatch")
)

// Type is a Thrift wire type tag.
type Type byte

// Wire type tags. Values are fixed by the protocol.
const (
	TypeStop   Type = 0
	TypeBool   Type = 2
	TypeByte   Type = 3
	TypeDouble Type = 4
	TypeI16    Type = 6
	TypeI32    Type = 8
	TypeI64    Type = 10
	TypeString Type = 11
	TypeStruct Type = 12
	TypeMap    Type = 13
	TypeSet    Type = 14
	TypeList   Type = 15
)

func (t Type) String() string {
	switch t {
	case TypeStop:
		return "STOP"
	case TypeBool:
		return "BOOL"
	case TypeByte:
		return "BYTE"
	case TypeDouble:
		return "DOUBLE"
	case TypeI16:
		return "I16"
	case TypeI32:
		return "I32"
	case TypeI64:
		return "I64"
	case TypeString:
		return "STRING"
	case TypeStruct:
		return "STRUCT"
	case TypeMap:
		return "MAP"
	case TypeSet:
		return "SET"
	case TypeList:
		return "LIST"
	default:
		return fmt.Sprintf("Type(%d)", byte(t))
	}
}

// Value is an encodable Thrift value.
type Value interface {
	// Type returns the wire tag used by enclosing lists and struct fields.
	Type() Type
	// CalculateByteLength returns exactly the number of bytes WriteToBuffer writes.
	CalculateByteLength() int
	// WriteToBuffer encodes the value into buf at offset and returns the
	// number of bytes written.
	WriteToBuffer(buf []byte, offset int) (int, error)
}

// Encode sizes a buffer for v and writes v into it.
func Encode(v Value) ([]byte, error) {
	buf := make([]byte, v.CalculateByteLength())
	n, err := v.WriteToBuffer(buf, 0)
	if err != nil {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("thrift: %s wrote %d bytes, calculated %d", v.Type(), n, len(buf))
	}
	return buf, nil
}

func ensure(buf []byte, offset, size int) error {
	if offset < 0 || len(buf)-offset < size {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, size, offset, len(buf))
	}
	return nil
}
