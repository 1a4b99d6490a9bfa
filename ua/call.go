// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// CallMethodRequest invokes a single method node (Part 4, 5.11.2).
type CallMethodRequest struct {
	ObjectID       *NodeID
	MethodID       *NodeID
	InputArguments []*Variant
}

// CallMethodResult is one CallMethodRequest's result.
type CallMethodResult struct {
	StatusCode            StatusCode
	InputArgumentResults   []StatusCode
	InputArgumentDiagnosticInfos []*DiagnosticInfo
	OutputArguments        []*Variant
}

// CallRequest invokes one or more methods in a single round trip (Part 4,
// 5.11.2).
type CallRequest struct {
	RequestHeader RequestHeader
	MethodsToCall  []*CallMethodRequest
}

// CallResponse is the response to CallRequest.
type CallResponse struct {
	ResponseHeader ResponseHeader
	Results         []*CallMethodResult
	DiagnosticInfos []*DiagnosticInfo
}
