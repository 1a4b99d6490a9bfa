// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"testing"
	"time"

	"github.com/pascaldekloe/goe/verify"
)

func roundTrip(t *testing.T, name string, want interface{}, got interface{}) {
	t.Helper()
	b, err := Encode(want)
	if err != nil {
		t.Fatalf("%s: Encode failed: %v", name, err)
	}
	if err := Decode(b, got); err != nil {
		t.Fatalf("%s: Decode failed: %v", name, err)
	}
	verify.Values(t, name, got, want)
}

func TestNodeIDRoundTrip(t *testing.T) {
	tests := []*NodeID{
		NewTwoByteNodeID(5),
		NewNumericNodeID(2, 1001),
		NewNumericNodeID(0, 12345),
		NewStringNodeID(2, "rw_bool"),
		NewByteStringNodeID(1, []byte{1, 2, 3, 4}),
	}
	for _, want := range tests {
		got := &NodeID{}
		roundTrip(t, want.String(), want, got)
	}
}

func TestReadValueIDRoundTrip(t *testing.T) {
	want := &ReadValueID{
		NodeID:      NewStringNodeID(2, "rw_int32"),
		AttributeID: AttributeIDValue,
		IndexRange:  "0:1",
	}
	got := &ReadValueID{}
	roundTrip(t, "ReadValueID", want, got)
}

func TestVariantRoundTrip(t *testing.T) {
	tests := []interface{}{
		int32(42),
		true,
		"hello",
		float64(3.25),
		[]byte{0xde, 0xad, 0xbe, 0xef},
	}
	for _, v := range tests {
		want := MustVariant(v)
		got := &Variant{}
		roundTrip(t, fmt.Sprintf("Variant(%v)", v), want, got)
	}
}

func TestDataValueRoundTrip(t *testing.T) {
	want := &DataValue{
		EncodingMask:    DataValueValue | DataValueStatusCode | DataValueSourceTimestamp,
		Value:           MustVariant(int32(7)),
		Status:          StatusOK,
		SourceTimestamp: time.Unix(1700000000, 0).UTC(),
	}
	got := &DataValue{}
	roundTrip(t, "DataValue", want, got)
}

func TestExtensionObjectRoundTrip(t *testing.T) {
	want := NewExtensionObject(&DataChangeNotification{
		MonitoredItems: []MonitoredItemNotification{
			{ClientHandle: 1, Value: DataValue{Value: MustVariant(int32(9))}},
		},
	})
	got := &ExtensionObject{}
	roundTrip(t, "ExtensionObject", want, got)
}

func TestPublishRequestRoundTrip(t *testing.T) {
	want := &PublishRequest{
		RequestHeader: RequestHeader{RequestHandle: 11},
		SubscriptionAcknowledgements: []SubscriptionAcknowledgement{
			{SubscriptionID: 1, SequenceNumber: 4},
			{SubscriptionID: 1, SequenceNumber: 5},
		},
	}
	got := &PublishRequest{}
	roundTrip(t, "PublishRequest", want, got)
}
