// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"time"
)

// VariantType is the builtin type id carried in a Variant's encoding mask
// (Part 6, 5.2.2.16, Table 14). Only the subset of builtin types this
// module's tests and samples construct is implemented.
type VariantType byte

const (
	VariantTypeNull VariantType = iota
	VariantTypeBoolean
	VariantTypeInt32
	VariantTypeUint32
	VariantTypeInt64
	VariantTypeUint64
	VariantTypeFloat
	VariantTypeDouble
	VariantTypeString
	VariantTypeDateTime
	VariantTypeByteString
	VariantTypeNodeID
	VariantTypeStatusCode
)

// Variant is a tagged union that can hold any of the builtin OPC UA data
// types. It is the payload type for attribute values exchanged over Read,
// Write and DataChangeNotification.
type Variant struct {
	typ VariantType
	val interface{}
}

// MustVariant wraps v in a Variant, panicking if v's Go type has no
// corresponding OPC UA builtin type. This mirrors the teacher's own
// ua.MustVariant helper used throughout the uatest fixtures.
func MustVariant(v interface{}) *Variant {
	variant, err := NewVariant(v)
	if err != nil {
		panic(err)
	}
	return variant
}

// NewVariant wraps v in a Variant.
func NewVariant(v interface{}) (*Variant, error) {
	switch x := v.(type) {
	case nil:
		return &Variant{typ: VariantTypeNull}, nil
	case bool:
		return &Variant{typ: VariantTypeBoolean, val: x}, nil
	case int32:
		return &Variant{typ: VariantTypeInt32, val: x}, nil
	case int:
		return &Variant{typ: VariantTypeInt32, val: int32(x)}, nil
	case uint32:
		return &Variant{typ: VariantTypeUint32, val: x}, nil
	case int64:
		return &Variant{typ: VariantTypeInt64, val: x}, nil
	case uint64:
		return &Variant{typ: VariantTypeUint64, val: x}, nil
	case float32:
		return &Variant{typ: VariantTypeFloat, val: x}, nil
	case float64:
		return &Variant{typ: VariantTypeDouble, val: x}, nil
	case string:
		return &Variant{typ: VariantTypeString, val: x}, nil
	case time.Time:
		return &Variant{typ: VariantTypeDateTime, val: x}, nil
	case []byte:
		return &Variant{typ: VariantTypeByteString, val: x}, nil
	case *NodeID:
		return &Variant{typ: VariantTypeNodeID, val: x}, nil
	case StatusCode:
		return &Variant{typ: VariantTypeStatusCode, val: x}, nil
	default:
		return nil, fmt.Errorf("ua: unsupported variant type %T", v)
	}
}

// Value returns the wrapped Go value.
func (v *Variant) Value() interface{} {
	if v == nil {
		return nil
	}
	return v.val
}

// Type returns the builtin type id of the wrapped value.
func (v *Variant) Type() VariantType {
	if v == nil {
		return VariantTypeNull
	}
	return v.typ
}

func (v *Variant) EncodeBinary(e *Encoder) {
	if v == nil {
		e.WriteUint8(byte(VariantTypeNull))
		return
	}
	e.WriteUint8(byte(v.typ))
	switch v.typ {
	case VariantTypeNull:
	case VariantTypeBoolean:
		e.WriteBool(v.val.(bool))
	case VariantTypeInt32:
		e.WriteInt32(v.val.(int32))
	case VariantTypeUint32:
		e.WriteUint32(v.val.(uint32))
	case VariantTypeInt64:
		e.WriteInt64(v.val.(int64))
	case VariantTypeUint64:
		e.WriteUint64(v.val.(uint64))
	case VariantTypeFloat:
		e.WriteFloat32(v.val.(float32))
	case VariantTypeDouble:
		e.WriteFloat64(v.val.(float64))
	case VariantTypeString:
		e.WriteString(v.val.(string))
	case VariantTypeDateTime:
		e.WriteInt64(v.val.(time.Time).UnixNano())
	case VariantTypeByteString:
		e.WriteByteSlice(v.val.([]byte))
	case VariantTypeNodeID:
		v.val.(*NodeID).EncodeBinary(e)
	case VariantTypeStatusCode:
		v.val.(StatusCode).EncodeBinary(e)
	}
}

func (v *Variant) DecodeBinary(d *Decoder) {
	v.typ = VariantType(d.ReadUint8())
	switch v.typ {
	case VariantTypeNull:
	case VariantTypeBoolean:
		v.val = d.ReadBool()
	case VariantTypeInt32:
		v.val = d.ReadInt32()
	case VariantTypeUint32:
		v.val = d.ReadUint32()
	case VariantTypeInt64:
		v.val = d.ReadInt64()
	case VariantTypeUint64:
		v.val = d.ReadUint64()
	case VariantTypeFloat:
		v.val = d.ReadFloat32()
	case VariantTypeDouble:
		v.val = d.ReadFloat64()
	case VariantTypeString:
		v.val = d.ReadString()
	case VariantTypeDateTime:
		v.val = time.Unix(0, d.ReadInt64()).UTC()
	case VariantTypeByteString:
		v.val = d.ReadByteSlice()
	case VariantTypeNodeID:
		n := &NodeID{}
		n.DecodeBinary(d)
		v.val = n
	case VariantTypeStatusCode:
		var s StatusCode
		s.DecodeBinary(d)
		v.val = s
	default:
		d.fail(fmt.Errorf("ua: unknown variant type %d", v.typ))
	}
}
