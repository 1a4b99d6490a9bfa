// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// Encoder writes OPC UA binary-encoded primitives (Part 6, 5.2) into an
// in-memory buffer. Errors are sticky: once set, every subsequent Write*
// call becomes a no-op so callers don't need to check every line.
type Encoder struct {
	buf bytes.Buffer
	err error
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded buffer, or the sticky error if one occurred.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// Err returns the sticky encode error, if any.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.WriteUint8(1)
	} else {
		e.WriteUint8(0)
	}
}

func (e *Encoder) WriteUint8(v uint8) {
	if e.err != nil {
		return
	}
	e.buf.WriteByte(v)
}

func (e *Encoder) WriteUint16(v uint16) {
	if e.err != nil {
		return
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteUint32(v uint32) {
	if e.err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteUint64(v uint64) {
	if e.err != nil {
		return
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *Encoder) WriteInt16(v int16)   { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteInt32(v int32)   { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteInt64(v int64)   { e.WriteUint64(uint64(v)) }
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}

// WriteByteSlice writes a length-prefixed byte slice (Part 6, 5.2.3
// ByteString), where a nil slice is encoded as length -1.
func (e *Encoder) WriteByteSlice(v []byte) {
	if e.err != nil {
		return
	}
	if v == nil {
		e.WriteInt32(-1)
		return
	}
	e.WriteInt32(int32(len(v)))
	e.buf.Write(v)
}

// WriteString writes a length-prefixed UTF-8 string (Part 6, 5.2.2), where
// an empty string is distinguished from a null string: both encode to
// length -1 in this simplified codec, matching how callers treat the
// string type (there is no separate "IsNull" bit tracked on Go strings).
func (e *Encoder) WriteString(v string) {
	if v == "" {
		e.WriteInt32(-1)
		return
	}
	e.WriteByteSlice([]byte(v))
}

// WriteRaw appends already-encoded bytes verbatim.
func (e *Encoder) WriteRaw(b []byte) {
	if e.err != nil {
		return
	}
	e.buf.Write(b)
}

// Decoder reads OPC UA binary-encoded primitives from an in-memory
// buffer. Like Encoder, errors are sticky.
type Decoder struct {
	r   *bytes.Reader
	err error
}

// NewDecoder wraps b for decoding.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{r: bytes.NewReader(b)}
}

// Err returns the sticky decode error, if any.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Len returns the number of unread bytes.
func (d *Decoder) Len() int { return d.r.Len() }

func (d *Decoder) ReadBool() bool {
	return d.ReadUint8() != 0
}

func (d *Decoder) ReadUint8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadByte()
	if err != nil {
		d.fail(err)
		return 0
	}
	return v
}

func (d *Decoder) ReadUint16() uint16 {
	var b [2]byte
	if !d.readFull(b[:]) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[:])
}

func (d *Decoder) ReadUint32() uint32 {
	var b [4]byte
	if !d.readFull(b[:]) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (d *Decoder) ReadUint64() uint64 {
	var b [8]byte
	if !d.readFull(b[:]) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (d *Decoder) ReadInt16() int16     { return int16(d.ReadUint16()) }
func (d *Decoder) ReadInt32() int32     { return int32(d.ReadUint32()) }
func (d *Decoder) ReadInt64() int64     { return int64(d.ReadUint64()) }
func (d *Decoder) ReadFloat32() float32 { return math.Float32frombits(d.ReadUint32()) }
func (d *Decoder) ReadFloat64() float64 { return math.Float64frombits(d.ReadUint64()) }

func (d *Decoder) readFull(b []byte) bool {
	if d.err != nil {
		return false
	}
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.fail(err)
		return false
	}
	return true
}

// ReadByteSlice reads a length-prefixed byte slice, returning nil for a
// negative-length (null) encoding.
func (d *Decoder) ReadByteSlice() []byte {
	n := d.ReadInt32()
	if d.err != nil || n < 0 {
		return nil
	}
	b := make([]byte, n)
	if !d.readFull(b) {
		return nil
	}
	return b
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() string {
	b := d.ReadByteSlice()
	if b == nil {
		return ""
	}
	return string(b)
}
