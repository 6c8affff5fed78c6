package thrift

import (
	"encoding/binary"
	"fmt"
)

// List is a homogeneous list: element type tag, 4-byte count, elements.
type List struct {
	ElemType Type
	Elements []Value
}

// NewList creates an empty list of the given element type.
func NewList(elemType Type, elements ...Value) *List {
	return &List{ElemType: elemType, Elements: elements}
}

// Append adds elements to the list.
func (l *List) Append(elements ...Value) {
	l.Elements = append(l.Elements, elements...)
}

// Type implements Value.
func (*List) Type() Type { return TypeList }

// CalculateByteLength implements Value.
func (l *List) CalculateByteLength() int {
	n := 5
	for _, e := range l.Elements {
		n += e.CalculateByteLength()
	}
	return n
}

// WriteToBuffer implements Value.
func (l *List) WriteToBuffer(buf []byte, offset int) (int, error) {
	if err := ensure(buf, offset, 5); err != nil {
		return 0, err
	}
	buf[offset] = byte(l.ElemType)
	binary.BigEndian.PutUint32(buf[offset+1:], uint32(len(l.Elements)))

	written := 5
	for i, e := range l.Elements {
		if e.Type() != l.ElemType {
			return 0, fmt.Errorf("%w: list of %s has %s at index %d", ErrTypeMismatch, l.ElemType, e.Type(), i)
		}
		n, err := e.WriteToBuffer(buf, offset+written)
		if err != nil {
			return 0, err
		}
		written += n
	}
	return written, nil
}

// Field is one struct field. Name is informational only.
type Field struct {
	Value Value
	Name  string
	ID    int16
	Type  Type
}

// Struct is a sequence of tagged fields terminated by a stop byte. Fields
// are written in the given order.
type Struct struct {
	Fields []Field
}

// NewStruct creates a struct from fields.
func NewStruct(fields ...Field) *Struct {
	return &Struct{Fields: fields}
}

// Type implements Value.
func (*Struct) Type() Type { return TypeStruct }

// CalculateByteLength implements Value.
func (s *Struct) CalculateByteLength() int {
	n := 1
	for _, f := range s.Fields {
		n += 3
		if f.Value != nil {
			n += f.Value.CalculateByteLength()
		}
	}
	return n
}

// WriteToBuffer implements Value.
func (s *Struct) WriteToBuffer(buf []byte, offset int) (int, error) {
	written := 0
	for _, f := range s.Fields {
		if f.Value == nil {
			return 0, fmt.Errorf("%w: field %d (%s) has no value", ErrTypeMismatch, f.ID, f.Name)
		}
		if f.Value.Type() != f.Type {
			return 0, fmt.Errorf("%w: field %d (%s) declared %s, got %s", ErrTypeMismatch, f.ID, f.Name, f.Type, f.Value.Type())
		}
		if err := ensure(buf, offset+written, 3); err != nil {
			return 0, err
		}
		buf[offset+written] = byte(f.Type)
		binary.BigEndian.PutUint16(buf[offset+written+1:], uint16(f.ID))
		written += 3

		n, err := f.Value.WriteToBuffer(buf, offset+written)
		if err != nil {
			return 0, err
		}
		written += n
	}

	if err := ensure(buf, offset+written, 1); err != nil {
		return 0, err
	}
	buf[offset+written] = byte(TypeStop)
	return written + 1, nil
}
