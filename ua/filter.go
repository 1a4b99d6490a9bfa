// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// DeadbandType selects how DataChangeFilter.DeadbandValue is interpreted
// (Part 8, 6.2).
type DeadbandType uint32

const (
	DeadbandTypeNone DeadbandType = iota
	DeadbandTypeAbsolute
	DeadbandTypePercent
)

// DataChangeFilter suppresses data-change notifications whose new value
// doesn't differ from the last reported value by more than DeadbandValue
// (Part 4, 7.17.2). Attached to MonitoringParameters.Filter.
type DataChangeFilter struct {
	Trigger      DataChangeTrigger
	DeadbandType DeadbandType
	DeadbandValue float64
}

// DataChangeTrigger selects which kind of change causes a data-change
// notification (Part 4, 7.17.2).
type DataChangeTrigger int32

const (
	DataChangeTriggerStatus DataChangeTrigger = iota
	DataChangeTriggerStatusValue
	DataChangeTriggerStatusValueTimestamp
)

// SimpleAttributeOperand names one event field to select or filter on,
// relative to a type definition node (Part 4, 7.4.4.2).
type SimpleAttributeOperand struct {
	TypeDefinitionID *NodeID
	BrowsePath        []QualifiedName
	AttributeID       AttributeID
	IndexRange        string
}

// EventFilter selects which event fields are reported and which events
// pass through at all (Part 4, 7.17.3). Only field selection is
// implemented; WhereClause is always empty, i.e. all events pass.
type EventFilter struct {
	SelectClauses []SimpleAttributeOperand
}

func init() {
	RegisterExtensionObjectType(binaryIDDataChangeFilter, &DataChangeFilter{})
	RegisterExtensionObjectType(binaryIDEventFilter, &EventFilter{})
}
