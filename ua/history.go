// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// ReadRawModifiedDetails selects a raw (non-aggregated) history read,
// optionally including the modification history of each value (Part 11,
// 6.4.3).
type ReadRawModifiedDetails struct {
	IsReadModified   bool
	StartTime         time.Time
	EndTime           time.Time
	NumValuesPerNode uint32
	ReturnBounds      bool
}

// HistoryReadValueID names one node whose history is to be read (Part 4,
// 7.21).
type HistoryReadValueID struct {
	NodeID           *NodeID
	IndexRange        string
	DataEncoding      QualifiedName
	ContinuationPoint []byte
}

// HistoryData is the per-node result payload for a raw history read
// (Part 11, 6.2.3).
type HistoryData struct {
	DataValues []*DataValue
}

// HistoryReadResult is one HistoryReadValueID's result (Part 4, 7.20).
type HistoryReadResult struct {
	StatusCode       StatusCode
	ContinuationPoint []byte
	HistoryData       *ExtensionObject
}

// HistoryReadRequest reads historical data or events (Part 4, 5.10.3). The
// ReadRawModifiedDetails filled into HistoryReadDetails covers the only
// history-read variant this module implements; aggregate and
// modified-event reads are out of scope.
type HistoryReadRequest struct {
	RequestHeader              RequestHeader
	HistoryReadDetails          *ExtensionObject
	TimestampsToReturn          TimestampsToReturn
	ReleaseContinuationPoints bool
	NodesToRead                 []*HistoryReadValueID
}

// HistoryReadResponse is the response to HistoryReadRequest.
type HistoryReadResponse struct {
	ResponseHeader ResponseHeader
	Results         []*HistoryReadResult
	DiagnosticInfos []*DiagnosticInfo
}

func init() {
	RegisterExtensionObjectType(binaryIDReadRawModifiedDetails, &ReadRawModifiedDetails{})
	RegisterExtensionObjectType(binaryIDHistoryData, &HistoryData{})
}
