// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// CreateSubscriptionRequest creates a subscription on the server and
// returns its revised timing parameters (Part 4, 5.13.2).
type CreateSubscriptionRequest struct {
	RequestHeader              RequestHeader
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount uint32
	MaxNotificationsPerPublish uint32
	PublishingEnabled           bool
	Priority                    byte
}

// CreateSubscriptionResponse is the response to CreateSubscriptionRequest.
type CreateSubscriptionResponse struct {
	ResponseHeader             ResponseHeader
	SubscriptionID              uint32
	RevisedPublishingInterval float64
	RevisedLifetimeCount       uint32
	RevisedMaxKeepAliveCount  uint32
}

// ModifySubscriptionRequest changes a subscription's timing parameters
// (Part 4, 5.13.3).
type ModifySubscriptionRequest struct {
	RequestHeader              RequestHeader
	SubscriptionID              uint32
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount uint32
	MaxNotificationsPerPublish uint32
	Priority                    byte
}

// ModifySubscriptionResponse is the response to ModifySubscriptionRequest.
type ModifySubscriptionResponse struct {
	ResponseHeader             ResponseHeader
	RevisedPublishingInterval float64
	RevisedLifetimeCount       uint32
	RevisedMaxKeepAliveCount  uint32
}

// DeleteSubscriptionsRequest deletes one or more subscriptions (Part 4,
// 5.13.8).
type DeleteSubscriptionsRequest struct {
	RequestHeader    RequestHeader
	SubscriptionIDs []uint32
}

// DeleteSubscriptionsResponse is the response to DeleteSubscriptionsRequest.
type DeleteSubscriptionsResponse struct {
	ResponseHeader ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

// SetPublishingModeRequest enables or disables publishing for a set of
// subscriptions without deleting them (Part 4, 5.13.5).
type SetPublishingModeRequest struct {
	RequestHeader    RequestHeader
	PublishingEnabled bool
	SubscriptionIDs  []uint32
}

// SetPublishingModeResponse is the response to SetPublishingModeRequest.
type SetPublishingModeResponse struct {
	ResponseHeader ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}
