// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"reflect"
)

// Binary encoding ids for the top-level service request/response messages
// carried in a secure channel chunk body (Part 6, Table 33, hand-picked
// subset matching the services this module implements).
const (
	binaryIDOpenSecureChannelRequest  uint32 = 446
	binaryIDOpenSecureChannelResponse uint32 = 449
	binaryIDCloseSecureChannelRequest uint32 = 452
	binaryIDCloseSecureChannelResponse uint32 = 455
	binaryIDServiceFault              uint32 = 397

	binaryIDGetEndpointsRequest  uint32 = 428
	binaryIDGetEndpointsResponse uint32 = 431

	binaryIDCreateSessionRequest    uint32 = 461
	binaryIDCreateSessionResponse   uint32 = 464
	binaryIDActivateSessionRequest  uint32 = 467
	binaryIDActivateSessionResponse uint32 = 470
	binaryIDCloseSessionRequest     uint32 = 473
	binaryIDCloseSessionResponse    uint32 = 476

	binaryIDReadRequest  uint32 = 631
	binaryIDReadResponse uint32 = 634
	binaryIDWriteRequest  uint32 = 673
	binaryIDWriteResponse uint32 = 676

	binaryIDBrowseRequest      uint32 = 527
	binaryIDBrowseResponse     uint32 = 530
	binaryIDBrowseNextRequest  uint32 = 533
	binaryIDBrowseNextResponse uint32 = 536

	binaryIDCallRequest  uint32 = 712
	binaryIDCallResponse uint32 = 715

	binaryIDRegisterNodesRequest    uint32 = 562
	binaryIDRegisterNodesResponse   uint32 = 565
	binaryIDUnregisterNodesRequest  uint32 = 568
	binaryIDUnregisterNodesResponse uint32 = 571

	binaryIDHistoryReadRequest  uint32 = 664
	binaryIDHistoryReadResponse uint32 = 667

	binaryIDCreateSubscriptionRequest  uint32 = 787
	binaryIDCreateSubscriptionResponse uint32 = 790
	binaryIDModifySubscriptionRequest  uint32 = 793
	binaryIDModifySubscriptionResponse uint32 = 796
	binaryIDDeleteSubscriptionsRequest  uint32 = 845
	binaryIDDeleteSubscriptionsResponse uint32 = 848
	binaryIDSetPublishingModeRequest    uint32 = 799
	binaryIDSetPublishingModeResponse   uint32 = 802
	binaryIDTransferSubscriptionsRequest  uint32 = 839
	binaryIDTransferSubscriptionsResponse uint32 = 842

	binaryIDCreateMonitoredItemsRequest  uint32 = 751
	binaryIDCreateMonitoredItemsResponse uint32 = 754
	binaryIDModifyMonitoredItemsRequest  uint32 = 763
	binaryIDModifyMonitoredItemsResponse uint32 = 766
	binaryIDDeleteMonitoredItemsRequest  uint32 = 781
	binaryIDDeleteMonitoredItemsResponse uint32 = 784
	binaryIDSetMonitoringModeRequest     uint32 = 767
	binaryIDSetMonitoringModeResponse    uint32 = 770
	binaryIDSetTriggeringRequest         uint32 = 773
	binaryIDSetTriggeringResponse        uint32 = 776

	binaryIDPublishRequest    uint32 = 826
	binaryIDPublishResponse   uint32 = 829
	binaryIDRepublishRequest  uint32 = 832
	binaryIDRepublishResponse uint32 = 835
)

var serviceTypeToBinaryID = map[reflect.Type]uint32{}
var serviceBinaryIDToNew = map[uint32]func() interface{}{}

func registerService(id uint32, zero interface{}) {
	t := elemType(reflect.TypeOf(zero))
	serviceTypeToBinaryID[t] = id
	serviceBinaryIDToNew[id] = func() interface{} {
		return reflect.New(t).Interface()
	}
}

func init() {
	registerService(binaryIDOpenSecureChannelRequest, &OpenSecureChannelRequest{})
	registerService(binaryIDOpenSecureChannelResponse, &OpenSecureChannelResponse{})
	registerService(binaryIDCloseSecureChannelRequest, &CloseSecureChannelRequest{})
	registerService(binaryIDCloseSecureChannelResponse, &CloseSecureChannelResponse{})
	registerService(binaryIDServiceFault, &ServiceFault{})

	registerService(binaryIDGetEndpointsRequest, &GetEndpointsRequest{})
	registerService(binaryIDGetEndpointsResponse, &GetEndpointsResponse{})

	registerService(binaryIDCreateSessionRequest, &CreateSessionRequest{})
	registerService(binaryIDCreateSessionResponse, &CreateSessionResponse{})
	registerService(binaryIDActivateSessionRequest, &ActivateSessionRequest{})
	registerService(binaryIDActivateSessionResponse, &ActivateSessionResponse{})
	registerService(binaryIDCloseSessionRequest, &CloseSessionRequest{})
	registerService(binaryIDCloseSessionResponse, &CloseSessionResponse{})

	registerService(binaryIDReadRequest, &ReadRequest{})
	registerService(binaryIDReadResponse, &ReadResponse{})
	registerService(binaryIDWriteRequest, &WriteRequest{})
	registerService(binaryIDWriteResponse, &WriteResponse{})

	registerService(binaryIDBrowseRequest, &BrowseRequest{})
	registerService(binaryIDBrowseResponse, &BrowseResponse{})
	registerService(binaryIDBrowseNextRequest, &BrowseNextRequest{})
	registerService(binaryIDBrowseNextResponse, &BrowseNextResponse{})

	registerService(binaryIDCallRequest, &CallRequest{})
	registerService(binaryIDCallResponse, &CallResponse{})

	registerService(binaryIDRegisterNodesRequest, &RegisterNodesRequest{})
	registerService(binaryIDRegisterNodesResponse, &RegisterNodesResponse{})
	registerService(binaryIDUnregisterNodesRequest, &UnregisterNodesRequest{})
	registerService(binaryIDUnregisterNodesResponse, &UnregisterNodesResponse{})

	registerService(binaryIDHistoryReadRequest, &HistoryReadRequest{})
	registerService(binaryIDHistoryReadResponse, &HistoryReadResponse{})

	registerService(binaryIDCreateSubscriptionRequest, &CreateSubscriptionRequest{})
	registerService(binaryIDCreateSubscriptionResponse, &CreateSubscriptionResponse{})
	registerService(binaryIDModifySubscriptionRequest, &ModifySubscriptionRequest{})
	registerService(binaryIDModifySubscriptionResponse, &ModifySubscriptionResponse{})
	registerService(binaryIDDeleteSubscriptionsRequest, &DeleteSubscriptionsRequest{})
	registerService(binaryIDDeleteSubscriptionsResponse, &DeleteSubscriptionsResponse{})
	registerService(binaryIDSetPublishingModeRequest, &SetPublishingModeRequest{})
	registerService(binaryIDSetPublishingModeResponse, &SetPublishingModeResponse{})
	registerService(binaryIDTransferSubscriptionsRequest, &TransferSubscriptionsRequest{})
	registerService(binaryIDTransferSubscriptionsResponse, &TransferSubscriptionsResponse{})

	registerService(binaryIDCreateMonitoredItemsRequest, &CreateMonitoredItemsRequest{})
	registerService(binaryIDCreateMonitoredItemsResponse, &CreateMonitoredItemsResponse{})
	registerService(binaryIDModifyMonitoredItemsRequest, &ModifyMonitoredItemsRequest{})
	registerService(binaryIDModifyMonitoredItemsResponse, &ModifyMonitoredItemsResponse{})
	registerService(binaryIDDeleteMonitoredItemsRequest, &DeleteMonitoredItemsRequest{})
	registerService(binaryIDDeleteMonitoredItemsResponse, &DeleteMonitoredItemsResponse{})
	registerService(binaryIDSetMonitoringModeRequest, &SetMonitoringModeRequest{})
	registerService(binaryIDSetMonitoringModeResponse, &SetMonitoringModeResponse{})
	registerService(binaryIDSetTriggeringRequest, &SetTriggeringRequest{})
	registerService(binaryIDSetTriggeringResponse, &SetTriggeringResponse{})

	registerService(binaryIDPublishRequest, &PublishRequest{})
	registerService(binaryIDPublishResponse, &PublishResponse{})
	registerService(binaryIDRepublishRequest, &RepublishRequest{})
	registerService(binaryIDRepublishResponse, &RepublishResponse{})
}

// EncodeServiceMessage serializes v as a secure-channel message body: a
// four-byte NodeID naming its binary encoding id followed by v's own
// binary encoding (Part 6, 6.2.2.1). v must have been passed to
// registerService (every *Request/*Response type this module defines
// has been).
func EncodeServiceMessage(v interface{}) ([]byte, error) {
	id, ok := serviceTypeToBinaryID[elemType(reflect.TypeOf(v))]
	if !ok {
		return nil, fmt.Errorf("ua: %T is not a registered service message", v)
	}
	e := NewEncoder()
	NewNumericNodeID(0, id).EncodeBinary(e)
	body, err := Encode(v)
	if err != nil {
		return nil, err
	}
	e.WriteRaw(body)
	return e.Bytes()
}

// DecodeServiceMessage reverses EncodeServiceMessage, returning a pointer
// to the concrete *Request/*Response type the leading NodeID identifies.
func DecodeServiceMessage(b []byte) (interface{}, error) {
	d := NewDecoder(b)
	nodeID := &NodeID{}
	nodeID.DecodeBinary(d)
	if err := d.Err(); err != nil {
		return nil, err
	}
	factory, ok := serviceBinaryIDToNew[nodeID.NumericID]
	if !ok {
		return nil, fmt.Errorf("ua: unknown service message binary id %d", nodeID.NumericID)
	}
	v := factory()
	if err := Decode(b[len(b)-d.Len():], v); err != nil {
		return nil, err
	}
	return v, nil
}
