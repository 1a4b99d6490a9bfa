// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// DataValue encoding-mask bits (Part 6, 5.2.2.17, Table 15).
const (
	DataValueValue uint8 = 1 << iota
	DataValueStatusCode
	DataValueSourceTimestamp
	DataValueServerTimestamp
	DataValueSourcePicoseconds
	DataValueServerPicoseconds
)

// DataValue is a value along with status and timestamp metadata, returned
// from Read and carried in DataChangeNotifications.
type DataValue struct {
	EncodingMask    uint8
	Value           *Variant
	Status          StatusCode
	SourceTimestamp time.Time
	ServerTimestamp time.Time
}

func (v *DataValue) EncodeBinary(e *Encoder) {
	e.WriteUint8(v.EncodingMask)
	if v.EncodingMask&DataValueValue != 0 {
		v.Value.EncodeBinary(e)
	}
	if v.EncodingMask&DataValueStatusCode != 0 {
		v.Status.EncodeBinary(e)
	}
	if v.EncodingMask&DataValueSourceTimestamp != 0 {
		e.WriteInt64(v.SourceTimestamp.UnixNano())
	}
	if v.EncodingMask&DataValueServerTimestamp != 0 {
		e.WriteInt64(v.ServerTimestamp.UnixNano())
	}
}

func (v *DataValue) DecodeBinary(d *Decoder) {
	v.EncodingMask = d.ReadUint8()
	if v.EncodingMask&DataValueValue != 0 {
		v.Value = &Variant{}
		v.Value.DecodeBinary(d)
	}
	if v.EncodingMask&DataValueStatusCode != 0 {
		v.Status.DecodeBinary(d)
	}
	if v.EncodingMask&DataValueSourceTimestamp != 0 {
		v.SourceTimestamp = time.Unix(0, d.ReadInt64()).UTC()
	}
	if v.EncodingMask&DataValueServerTimestamp != 0 {
		v.ServerTimestamp = time.Unix(0, d.ReadInt64()).UTC()
	}
}
