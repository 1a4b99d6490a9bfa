// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "reflect"

// ExtensionObjectBinary marks an ExtensionObject's body as present and
// binary-encoded (Part 6, 5.2.2.15). A zero encoding mask means the
// object carries no body at all (a "null" extension object).
const ExtensionObjectBinary uint8 = 1

// ExtensionObject wraps a dynamically typed, self-describing payload: a
// type id (as an ExpandedNodeID) plus its binary-encoded body. It is used
// anywhere the protocol needs an open type, notably UserIdentityToken,
// NotificationData and HistoryReadDetails.
type ExtensionObject struct {
	TypeID       *ExpandedNodeID
	EncodingMask uint8
	Value        interface{}
}

// NewExtensionObject wraps v, resolving its binary encoding id from the
// registry populated by RegisterExtensionObjectType. v may be nil, in
// which case the returned object is null.
func NewExtensionObject(v interface{}) *ExtensionObject {
	if v == nil {
		return &ExtensionObject{}
	}
	eo := &ExtensionObject{Value: v, EncodingMask: ExtensionObjectBinary}
	if id, ok := typeToBinaryID[elemType(reflect.TypeOf(v))]; ok {
		eo.TypeID = NewFourByteExpandedNodeID(0, id)
	}
	return eo
}

// IsNull reports whether the extension object carries no payload.
func (eo *ExtensionObject) IsNull() bool {
	return eo == nil || (eo.Value == nil && eo.EncodingMask == 0)
}

func elemType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

var (
	typeToBinaryID = map[reflect.Type]uint32{}
	binaryIDToNew  = map[uint32]func() interface{}{}
)

// RegisterExtensionObjectType associates a binary encoding id with a Go
// type, so that ExtensionObject can encode values of that type and
// reconstruct them again on decode. zero should be a pointer to a freshly
// allocated value of the type being registered, e.g. &DataChangeNotification{}.
// Called from each notification/identity-token type's init().
func RegisterExtensionObjectType(id uint32, zero interface{}) {
	t := reflect.TypeOf(zero)
	typeToBinaryID[elemType(t)] = id
	binaryIDToNew[id] = func() interface{} {
		return reflect.New(elemType(t)).Interface()
	}
}

func (eo *ExtensionObject) EncodeBinary(e *Encoder) {
	if eo.IsNull() {
		(&NodeID{}).EncodeBinary(e)
		e.WriteUint8(0)
		return
	}
	if eo.TypeID == nil {
		if id, ok := typeToBinaryID[elemType(reflect.TypeOf(eo.Value))]; ok {
			eo.TypeID = NewFourByteExpandedNodeID(0, id)
		}
	}
	if eo.TypeID != nil {
		eo.TypeID.EncodeBinary(e)
	} else {
		(&NodeID{}).EncodeBinary(e)
	}
	e.WriteUint8(ExtensionObjectBinary)
	body, err := Encode(eo.Value)
	if err != nil {
		e.fail(err)
		return
	}
	e.WriteByteSlice(body)
}

func (eo *ExtensionObject) DecodeBinary(d *Decoder) {
	nodeID := &NodeID{}
	nodeID.DecodeBinary(d)
	eo.TypeID = &ExpandedNodeID{NodeID: nodeID}
	eo.EncodingMask = d.ReadUint8()
	if eo.EncodingMask == 0 {
		return
	}
	body := d.ReadByteSlice()
	factory, ok := binaryIDToNew[nodeID.NumericID]
	if !ok {
		// Unknown type: keep the raw body out of Value, matching the
		// "BadDataTypeIdUnknown" read path exercised by uatest.
		return
	}
	v := factory()
	if err := Decode(body, v); err != nil {
		d.fail(err)
		return
	}
	eo.Value = v
}
