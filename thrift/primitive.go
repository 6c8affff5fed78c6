package thrift

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strings"
	"unicode/utf8"
)

// I32 is a 4-byte big-endian signed integer.
type I32 int32

// Type implements Value.
func (I32) Type() Type { return TypeI32 }

// CalculateByteLength implements Value.
func (I32) CalculateByteLength() int { return 4 }

// WriteToBuffer implements Value.
func (v I32) WriteToBuffer(buf []byte, offset int) (int, error) {
	if err := ensure(buf, offset, 4); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[offset:], uint32(v))
	return 4, nil
}

// I64 is an 8-byte big-endian two's complement integer.
type I64 struct {
	bits uint64
}

// ZeroI64 is the all-zero 64-bit value.
var ZeroI64 = I64{}

// NewI64 wraps a native integer.
func NewI64(v int64) I64 {
	return I64{bits: uint64(v)}
}

// NewI64FromUint64 wraps an unsigned integer; values above MaxInt64 encode
// as their two's complement bit pattern.
func NewI64FromUint64(v uint64) I64 {
	return I64{bits: v}
}

var (
	minI64 = big.NewInt(math.MinInt64)
	maxU64 = new(big.Int).SetUint64(math.MaxUint64)
)

// NewI64FromBig wraps an arbitrary-precision integer in the range
// [MinInt64, MaxUint64].
func NewI64FromBig(v *big.Int) (I64, error) {
	if v == nil {
		return I64{}, fmt.Errorf("%w: nil", ErrInvalidI64)
	}
	if v.Cmp(minI64) < 0 || v.Cmp(maxU64) > 0 {
		return I64{}, fmt.Errorf("%w: %s out of range", ErrInvalidI64, v)
	}
	if v.Sign() < 0 {
		return NewI64(v.Int64()), nil
	}
	return NewI64FromUint64(v.Uint64()), nil
}

// NewI64FromString parses a numeric string. Decimal is the default;
// 0x, 0o and 0b prefixes select other bases.
func NewI64FromString(s string) (I64, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return I64{}, fmt.Errorf("%w: %q", ErrInvalidI64, s)
	}
	return NewI64FromBig(v)
}

// Int64 returns the value as a signed integer.
func (v I64) Int64() int64 { return int64(v.bits) }

// Uint64 returns the raw bit pattern.
func (v I64) Uint64() uint64 { return v.bits }

// Type implements Value.
func (I64) Type() Type { return TypeI64 }

// CalculateByteLength implements Value.
func (I64) CalculateByteLength() int { return 8 }

// WriteToBuffer implements Value.
func (v I64) WriteToBuffer(buf []byte, offset int) (int, error) {
	if err := ensure(buf, offset, 8); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint64(buf[offset:], v.bits)
	return 8, nil
}

// String is a length-prefixed UTF-8 string. Invalid UTF-8 sequences are
// replaced with U+FFFD before encoding.
type String string

func (v String) bytes() string {
	if utf8.ValidString(string(v)) {
		return string(v)
	}
	return strings.ToValidUTF8(string(v), "�")
}

// Type implements Value.
func (String) Type() Type { return TypeString }

// CalculateByteLength implements Value.
func (v String) CalculateByteLength() int { return 4 + len(v.bytes()) }

// WriteToBuffer implements Value.
func (v String) WriteToBuffer(buf []byte, offset int) (int, error) {
	s := v.bytes()
	size := 4 + len(s)
	if err := ensure(buf, offset, size); err != nil {
		return 0, err
	}
	binary.BigEndian.PutUint32(buf[offset:], uint32(len(s)))
	copy(buf[offset+4:], s)
	return size, nil
}
