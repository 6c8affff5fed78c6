package collector

import (
	"encoding/binary"
	"fmt"

	"github.com/zoobzio/spanz/thrift"
)

// decoded maps field ids to values: int32, int64, string, decoded or []any.
type decoded map[int16]any

// decoder reads the binary protocol subset the encoder writes.
type decoder struct {
	buf []byte
	pos int
}

func decodeStruct(buf []byte) (decoded, error) {
	d := &decoder{buf: buf}
	out, err := d.structValue()
	if err != nil {
		return nil, err
	}
	if d.pos != len(buf) {
		return nil, fmt.Errorf("%d trailing bytes", len(buf)-d.pos)
	}
	return out, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("short read at %d", d.pos)
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) structValue() (decoded, error) {
	out := decoded{}
	for {
		tb, err := d.take(1)
		if err != nil {
			return nil, err
		}
		t := thrift.Type(tb[0])
		if t == thrift.TypeStop {
			return out, nil
		}
		idb, err := d.take(2)
		if err != nil {
			return nil, err
		}
		v, err := d.value(t)
		if err != nil {
			return nil, err
		}
		out[int16(binary.BigEndian.Uint16(idb))] = v
	}
}

func (d *decoder) value(t thrift.Type) (any, error) {
	switch t {
	case thrift.TypeI32:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		return int32(binary.BigEndian.Uint32(b)), nil
	case thrift.TypeI64:
		b, err := d.take(8)
		if err != nil {
			return nil, err
		}
		return int64(binary.BigEndian.Uint64(b)), nil
	case thrift.TypeString:
		b, err := d.take(4)
		if err != nil {
			return nil, err
		}
		s, err := d.take(int(binary.BigEndian.Uint32(b)))
		if err != nil {
			return nil, err
		}
		return string(s), nil
	case thrift.TypeStruct:
		return d.structValue()
	case thrift.TypeList:
		h, err := d.take(5)
		if err != nil {
			return nil, err
		}
		elem := thrift.Type(h[0])
		n := int(binary.BigEndian.Uint32(h[1:]))
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			v, err := d.value(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

// tagsOf flattens a decoded list of Jaeger tags into key -> vStr and checks
// every vType is STRING.
func tagsOf(list any) (map[string]string, error) {
	out := map[string]string{}
	items, _ := list.([]any)
	for _, item := range items {
		tag := item.(decoded)
		if tag[2] != int32(0) {
			return nil, fmt.Errorf("tag %v has vType %v", tag[1], tag[2])
		}
		out[tag[1].(string)] = tag[3].(string)
	}
	return out, nil
}
