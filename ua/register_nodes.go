// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// RegisterNodesRequest asks a server to resolve a set of NodeIDs to
// equivalent, possibly cheaper-to-use, NodeIDs for the lifetime of the
// session (Part 4, 5.8.5).
type RegisterNodesRequest struct {
	RequestHeader RequestHeader
	NodesToRegister []*NodeID
}

// RegisterNodesResponse is the response to RegisterNodesRequest.
type RegisterNodesResponse struct {
	ResponseHeader   ResponseHeader
	RegisteredNodeIDs []*NodeID
}

// UnregisterNodesRequest releases NodeIDs obtained from RegisterNodes
// (Part 4, 5.8.6).
type UnregisterNodesRequest struct {
	RequestHeader RequestHeader
	NodesToUnregister []*NodeID
}

// UnregisterNodesResponse is the response to UnregisterNodesRequest.
type UnregisterNodesResponse struct {
	ResponseHeader ResponseHeader
}
