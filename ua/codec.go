// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"reflect"
	"time"
)

// BinaryEncoder is implemented by types with a hand-written wire layout
// (NodeID, Variant, ExtensionObject, StatusCode, ...). Types that don't
// implement it fall back to the generic struct-field encoder below.
type BinaryEncoder interface {
	EncodeBinary(e *Encoder)
}

// BinaryDecoder is the decode counterpart of BinaryEncoder.
type BinaryDecoder interface {
	DecodeBinary(d *Decoder)
}

// Encode serializes v, which must be a struct, pointer to struct, or a
// type implementing BinaryEncoder, into its OPC UA binary representation.
func Encode(v interface{}) ([]byte, error) {
	e := NewEncoder()
	encodeValue(e, reflect.ValueOf(v))
	return e.Bytes()
}

// Decode deserializes b into v, which must be a non-nil pointer.
func Decode(b []byte, v interface{}) error {
	d := NewDecoder(b)
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("ua: Decode requires a non-nil pointer, got %T", v)
	}
	decodeValue(d, rv.Elem())
	return d.Err()
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

func encodeValue(e *Encoder, rv reflect.Value) {
	if e.Err() != nil {
		return
	}
	if rv.IsValid() && rv.CanInterface() {
		if enc, ok := rv.Interface().(BinaryEncoder); ok {
			enc.EncodeBinary(e)
			return
		}
		if rv.CanAddr() {
			if enc, ok := rv.Addr().Interface().(BinaryEncoder); ok {
				enc.EncodeBinary(e)
				return
			}
		}
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			encodeValue(e, reflect.Zero(rv.Type().Elem()))
			return
		}
		encodeValue(e, rv.Elem())
	case reflect.Struct:
		if rv.Type() == timeType {
			t := rv.Interface().(time.Time)
			e.WriteInt64(t.UnixNano())
			return
		}
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Type().Field(i)
			if f.PkgPath != "" { // unexported
				continue
			}
			encodeValue(e, rv.Field(i))
		}
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			e.WriteByteSlice(rv.Bytes())
			return
		}
		if rv.IsNil() {
			e.WriteInt32(-1)
			return
		}
		e.WriteInt32(int32(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			encodeValue(e, rv.Index(i))
		}
	case reflect.String:
		e.WriteString(rv.String())
	case reflect.Bool:
		e.WriteBool(rv.Bool())
	case reflect.Uint8:
		e.WriteUint8(uint8(rv.Uint()))
	case reflect.Uint16:
		e.WriteUint16(uint16(rv.Uint()))
	case reflect.Uint32:
		e.WriteUint32(uint32(rv.Uint()))
	case reflect.Uint64, reflect.Uint:
		e.WriteUint64(rv.Uint())
	case reflect.Int16:
		e.WriteInt16(int16(rv.Int()))
	case reflect.Int32:
		e.WriteInt32(int32(rv.Int()))
	case reflect.Int64, reflect.Int:
		if rv.Type() == durationType {
			e.WriteInt64(int64(rv.Int()))
			return
		}
		e.WriteInt64(rv.Int())
	case reflect.Float32:
		e.WriteFloat32(float32(rv.Float()))
	case reflect.Float64:
		e.WriteFloat64(rv.Float())
	case reflect.Interface:
		if rv.IsNil() {
			return
		}
		encodeValue(e, rv.Elem())
	default:
		e.fail(fmt.Errorf("ua: cannot encode kind %s", rv.Kind()))
	}
}

func decodeValue(d *Decoder, rv reflect.Value) {
	if d.Err() != nil {
		return
	}
	if rv.CanAddr() {
		if dec, ok := rv.Addr().Interface().(BinaryDecoder); ok {
			dec.DecodeBinary(d)
			return
		}
	}

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		decodeValue(d, rv.Elem())
	case reflect.Struct:
		if rv.Type() == timeType {
			rv.Set(reflect.ValueOf(time.Unix(0, d.ReadInt64()).UTC()))
			return
		}
		for i := 0; i < rv.NumField(); i++ {
			f := rv.Type().Field(i)
			if f.PkgPath != "" {
				continue
			}
			decodeValue(d, rv.Field(i))
		}
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			rv.SetBytes(d.ReadByteSlice())
			return
		}
		n := d.ReadInt32()
		if d.Err() != nil || n < 0 {
			rv.Set(reflect.Zero(rv.Type()))
			return
		}
		s := reflect.MakeSlice(rv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			decodeValue(d, s.Index(i))
		}
		rv.Set(s)
	case reflect.String:
		rv.SetString(d.ReadString())
	case reflect.Bool:
		rv.SetBool(d.ReadBool())
	case reflect.Uint8:
		rv.SetUint(uint64(d.ReadUint8()))
	case reflect.Uint16:
		rv.SetUint(uint64(d.ReadUint16()))
	case reflect.Uint32:
		rv.SetUint(uint64(d.ReadUint32()))
	case reflect.Uint64, reflect.Uint:
		rv.SetUint(d.ReadUint64())
	case reflect.Int16:
		rv.SetInt(int64(d.ReadInt16()))
	case reflect.Int32:
		rv.SetInt(int64(d.ReadInt32()))
	case reflect.Int64, reflect.Int:
		rv.SetInt(d.ReadInt64())
	case reflect.Float32:
		rv.SetFloat(float64(d.ReadFloat32()))
	case reflect.Float64:
		rv.SetFloat(d.ReadFloat64())
	default:
		d.fail(fmt.Errorf("ua: cannot decode kind %s", rv.Kind()))
	}
}
