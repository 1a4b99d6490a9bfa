// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// SubscriptionAcknowledgement tells the server a previously delivered
// NotificationMessage can be released from its republish cache (Part 4,
// 7.40).
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

// PublishRequest asks the server for the next batch of notifications due
// on any of the session's subscriptions (Part 4, 5.14.2). The client keeps
// a pool of these outstanding at all times; see PublishLimits.
type PublishRequest struct {
	RequestHeader            RequestHeader
	SubscriptionAcknowledgements []SubscriptionAcknowledgement
}

// MonitoredItemNotification carries one monitored item's new value
// (Part 4, 7.28).
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value         DataValue
}

// DataChangeNotification carries data-change notifications for a single
// subscription cycle (Part 4, 7.17.2).
type DataChangeNotification struct {
	MonitoredItems  []MonitoredItemNotification
	DiagnosticInfos []*DiagnosticInfo
}

// EventFieldList carries the selected field values for one fired event
// (Part 4, 7.19).
type EventFieldList struct {
	ClientHandle uint32
	EventFields   []*Variant
}

// EventNotificationList carries event notifications for a single
// subscription cycle (Part 4, 7.18).
type EventNotificationList struct {
	Events []EventFieldList
}

// StatusChangeNotification tells the client a subscription's status
// changed, e.g. it was closed because its lifetime expired (Part 4,
// 7.37.1).
type StatusChangeNotification struct {
	Status           StatusCode
	DiagnosticInfo *DiagnosticInfo
}

// NotificationMessage wraps one or more notification payloads delivered
// to a subscription in a single PublishResponse (Part 4, 7.29).
type NotificationMessage struct {
	SequenceNumber uint32
	PublishTime     time.Time
	NotificationData []*ExtensionObject
}

// PublishResponse is the response to PublishRequest.
type PublishResponse struct {
	ResponseHeader           ResponseHeader
	SubscriptionID            uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications         bool
	NotificationMessage       *NotificationMessage
	Results                   []StatusCode
	DiagnosticInfos           []*DiagnosticInfo
}

// RepublishRequest asks the server to resend a previously sent
// NotificationMessage identified by sequence number, e.g. after the
// client detects a gap (Part 4, 5.14.3).
type RepublishRequest struct {
	RequestHeader  RequestHeader
	SubscriptionID uint32
	RetransmitSequenceNumber uint32
}

// RepublishResponse is the response to RepublishRequest.
type RepublishResponse struct {
	ResponseHeader     ResponseHeader
	NotificationMessage *NotificationMessage
}

func init() {
	RegisterExtensionObjectType(binaryIDDataChangeNotification, &DataChangeNotification{})
	RegisterExtensionObjectType(binaryIDStatusChangeNotification, &StatusChangeNotification{})
	RegisterExtensionObjectType(binaryIDEventNotificationList, &EventNotificationList{})
}
