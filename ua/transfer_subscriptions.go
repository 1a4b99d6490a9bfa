// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// TransferResult is one subscription's result from TransferSubscriptions
// (Part 4, 5.13.7).
type TransferResult struct {
	StatusCode            StatusCode
	AvailableSequenceNumbers []uint32
}

// TransferSubscriptionsRequest moves subscriptions from one session to
// another, e.g. after a client reconnects under a new session (Part 4,
// 5.13.7). SendInitialValues, when true, requests an immediate
// publish of each transferred monitored item's current value rather than
// waiting for its next natural sampling cycle.
type TransferSubscriptionsRequest struct {
	RequestHeader      RequestHeader
	SubscriptionIDs    []uint32
	SendInitialValues bool
}

// TransferSubscriptionsResponse is the response to
// TransferSubscriptionsRequest.
type TransferSubscriptionsResponse struct {
	ResponseHeader ResponseHeader
	Results         []*TransferResult
	DiagnosticInfos []*DiagnosticInfo
}
