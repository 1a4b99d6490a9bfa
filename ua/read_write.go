// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// AttributeID identifies which attribute of a node a ReadValueID refers to
// (Part 6, A.1).
type AttributeID uint32

const (
	AttributeIDNodeID             AttributeID = 1
	AttributeIDNodeClass          AttributeID = 2
	AttributeIDBrowseName         AttributeID = 3
	AttributeIDDisplayName        AttributeID = 4
	AttributeIDDescription        AttributeID = 5
	AttributeIDWriteMask          AttributeID = 6
	AttributeIDUserWriteMask      AttributeID = 7
	AttributeIDValue              AttributeID = 13
	AttributeIDDataType           AttributeID = 14
	AttributeIDValueRank          AttributeID = 15
	AttributeIDArrayDimensions    AttributeID = 16
	AttributeIDAccessLevel        AttributeID = 17
	AttributeIDUserAccessLevel    AttributeID = 18
	AttributeIDMinimumSamplingInterval AttributeID = 19
	AttributeIDHistorizing        AttributeID = 20
	AttributeIDExecutable         AttributeID = 21
	AttributeIDUserExecutable     AttributeID = 22
)

// AccessLevelType is the bitmask value of the AccessLevel/UserAccessLevel
// attributes (Part 3, 5.6.3).
type AccessLevelType byte

const (
	AccessLevelCurrentRead      AccessLevelType = 1 << 0
	AccessLevelCurrentWrite     AccessLevelType = 1 << 1
	AccessLevelHistoryRead      AccessLevelType = 1 << 2
	AccessLevelHistoryWrite     AccessLevelType = 1 << 3
	AccessLevelSemanticChange   AccessLevelType = 1 << 4
	AccessLevelStatusWrite      AccessLevelType = 1 << 5
	AccessLevelTimestampWrite   AccessLevelType = 1 << 6
)

// TimestampsToReturn selects which timestamps a Read/Publish should include
// in returned DataValues (Part 4, 7.39).
type TimestampsToReturn int32

const (
	TimestampsToReturnSource TimestampsToReturn = iota
	TimestampsToReturnServer
	TimestampsToReturnBoth
	TimestampsToReturnNeither
	TimestampsToReturnInvalid
)

// ReadValueID names one attribute of one node to read, optionally with an
// index range into an array value (Part 4, 7.32).
type ReadValueID struct {
	NodeID       *NodeID
	AttributeID  AttributeID
	IndexRange   string
	DataEncoding *QualifiedName
}

// ReadRequest reads one or more node attributes in a single round trip
// (Part 4, 5.10.2).
type ReadRequest struct {
	RequestHeader      RequestHeader
	MaxAge              float64
	TimestampsToReturn TimestampsToReturn
	NodesToRead         []*ReadValueID
}

// ReadResponse is the response to ReadRequest.
type ReadResponse struct {
	ResponseHeader ResponseHeader
	Results         []*DataValue
	DiagnosticInfos []*DiagnosticInfo
}

// WriteValue names a node attribute and the value to write into it
// (Part 4, 7.42).
type WriteValue struct {
	NodeID      *NodeID
	AttributeID AttributeID
	IndexRange  string
	Value       *DataValue
}

// WriteRequest writes one or more node attributes in a single round trip
// (Part 4, 5.10.4).
type WriteRequest struct {
	RequestHeader RequestHeader
	NodesToWrite   []*WriteValue
}

// WriteResponse is the response to WriteRequest.
type WriteResponse struct {
	ResponseHeader ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

// QualifiedName is a name qualified by a namespace index (Part 3, 8.3).
type QualifiedName struct {
	NamespaceIndex uint16
	Name            string
}

// LocalizedText is a string tagged with the locale it is written in
// (Part 3, 8.5).
type LocalizedText struct {
	Locale string
	Text    string
}

// DiagnosticInfo carries extended error information a server may attach to
// an operation result (Part 4, 7.12). The module never requests
// diagnostics (RequestHeader.ReturnDiagnostics stays 0), so this is decoded
// only to keep array alignment with whatever a server sends back.
type DiagnosticInfo struct {
	SymbolicID          int32
	NamespaceURI        int32
	Locale               int32
	LocalizedText        int32
	AdditionalInfo       string
	InnerStatusCode      StatusCode
	InnerDiagnosticInfo *DiagnosticInfo
}
