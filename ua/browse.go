// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// BrowseDirection restricts a browse to forward, inverse, or both kinds of
// references (Part 4, 7.8).
type BrowseDirection int32

const (
	BrowseDirectionForward BrowseDirection = iota
	BrowseDirectionInverse
	BrowseDirectionBoth
)

// NodeClass bitmask selecting which node classes a browse should return
// (Part 3, 8.30).
type NodeClass uint32

const (
	NodeClassObject NodeClass = 1 << iota
	NodeClassVariable
	NodeClassMethod
	NodeClassObjectType
	NodeClassVariableType
	NodeClassReferenceType
	NodeClassDataType
	NodeClassView
)

// BrowseResultMask selects which fields of a ReferenceDescription a browse
// populates (Part 4, 7.6).
type BrowseResultMask uint32

const BrowseResultMaskAll BrowseResultMask = 0x3f

// BrowseDescription names a starting node and the filters applied while
// browsing its references (Part 4, 7.4).
type BrowseDescription struct {
	NodeID          *NodeID
	Direction        BrowseDirection
	ReferenceTypeID *NodeID
	IncludeSubtypes bool
	NodeClassMask   NodeClass
	ResultMask      BrowseResultMask
}

// ReferenceDescription describes one reference discovered by Browse
// (Part 4, 7.31).
type ReferenceDescription struct {
	ReferenceTypeID *NodeID
	IsForward        bool
	NodeID           ExpandedNodeID
	BrowseName       QualifiedName
	DisplayName      LocalizedText
	NodeClass        NodeClass
	TypeDefinition   ExpandedNodeID
}

// BrowseResult is one BrowseDescription's result, plus a continuation
// point if the server truncated the list (Part 4, 7.5).
type BrowseResult struct {
	StatusCode       StatusCode
	ContinuationPoint []byte
	References        []*ReferenceDescription
}

// BrowseRequest discovers the references leaving a set of nodes (Part 4,
// 5.8.2).
type BrowseRequest struct {
	RequestHeader              RequestHeader
	View                        ViewDescription
	RequestedMaxReferencesPerNode uint32
	NodesToBrowse                []*BrowseDescription
}

// BrowseResponse is the response to BrowseRequest.
type BrowseResponse struct {
	ResponseHeader ResponseHeader
	Results         []*BrowseResult
	DiagnosticInfos []*DiagnosticInfo
}

// BrowseNextRequest continues a Browse using a continuation point returned
// in an earlier BrowseResult (Part 4, 5.8.3).
type BrowseNextRequest struct {
	RequestHeader       RequestHeader
	ReleaseContinuationPoints bool
	ContinuationPoints   [][]byte
}

// BrowseNextResponse is the response to BrowseNextRequest.
type BrowseNextResponse struct {
	ResponseHeader ResponseHeader
	Results         []*BrowseResult
	DiagnosticInfos []*DiagnosticInfo
}

// ViewDescription restricts a browse to a particular view, or to the
// default address space view when ViewID is null (Part 4, 7.41).
type ViewDescription struct {
	ViewID    *NodeID
	Timestamp time.Time
	ViewVersion uint32
}
