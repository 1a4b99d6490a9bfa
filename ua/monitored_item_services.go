// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// MonitoringMode controls whether a monitored item reports, samples
// silently, or is disabled (Part 4, 7.25).
type MonitoringMode int32

const (
	MonitoringModeDisabled MonitoringMode = iota
	MonitoringModeSampling
	MonitoringModeReporting
)

// MonitoringParameters configures sampling, queueing and filtering for one
// monitored item (Part 4, 7.24).
type MonitoringParameters struct {
	ClientHandle     uint32
	SamplingInterval float64
	Filter            *ExtensionObject
	QueueSize         uint32
	DiscardOldest     bool
}

// MonitoredItemCreateRequest names a node/attribute to monitor plus its
// monitoring parameters (Part 4, 7.23).
type MonitoredItemCreateRequest struct {
	ItemToMonitor    ReadValueID
	MonitoringMode   MonitoringMode
	RequestedParameters MonitoringParameters
}

// MonitoredItemCreateResult is one MonitoredItemCreateRequest's result
// (Part 4, 7.22).
type MonitoredItemCreateResult struct {
	StatusCode                   StatusCode
	MonitoredItemID                uint32
	RevisedSamplingInterval       float64
	RevisedQueueSize                uint32
	FilterResult                    *ExtensionObject
}

// CreateMonitoredItemsRequest adds monitored items to a subscription
// (Part 4, 5.12.2).
type CreateMonitoredItemsRequest struct {
	RequestHeader       RequestHeader
	SubscriptionID       uint32
	TimestampsToReturn  TimestampsToReturn
	ItemsToCreate        []*MonitoredItemCreateRequest
}

// CreateMonitoredItemsResponse is the response to CreateMonitoredItemsRequest.
type CreateMonitoredItemsResponse struct {
	ResponseHeader ResponseHeader
	Results         []*MonitoredItemCreateResult
	DiagnosticInfos []*DiagnosticInfo
}

// MonitoredItemModifyRequest changes the parameters of an existing
// monitored item (Part 4, 7.26).
type MonitoredItemModifyRequest struct {
	MonitoredItemID      uint32
	RequestedParameters MonitoringParameters
}

// MonitoredItemModifyResult is one MonitoredItemModifyRequest's result
// (Part 4, 7.27).
type MonitoredItemModifyResult struct {
	StatusCode              StatusCode
	RevisedSamplingInterval float64
	RevisedQueueSize         uint32
	FilterResult             *ExtensionObject
}

// ModifyMonitoredItemsRequest changes the parameters of existing monitored
// items on a subscription (Part 4, 5.12.3).
type ModifyMonitoredItemsRequest struct {
	RequestHeader      RequestHeader
	SubscriptionID      uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToModify       []*MonitoredItemModifyRequest
}

// ModifyMonitoredItemsResponse is the response to ModifyMonitoredItemsRequest.
type ModifyMonitoredItemsResponse struct {
	ResponseHeader ResponseHeader
	Results         []*MonitoredItemModifyResult
	DiagnosticInfos []*DiagnosticInfo
}

// DeleteMonitoredItemsRequest removes monitored items from a subscription
// (Part 4, 5.12.5).
type DeleteMonitoredItemsRequest struct {
	RequestHeader   RequestHeader
	SubscriptionID   uint32
	MonitoredItemIDs []uint32
}

// DeleteMonitoredItemsResponse is the response to DeleteMonitoredItemsRequest.
type DeleteMonitoredItemsResponse struct {
	ResponseHeader ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

// SetMonitoringModeRequest changes the monitoring mode of a set of
// monitored items (Part 4, 5.12.4).
type SetMonitoringModeRequest struct {
	RequestHeader   RequestHeader
	SubscriptionID   uint32
	MonitoringMode  MonitoringMode
	MonitoredItemIDs []uint32
}

// SetMonitoringModeResponse is the response to SetMonitoringModeRequest.
type SetMonitoringModeResponse struct {
	ResponseHeader ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

// SetTriggeringRequest links or unlinks triggering items to a triggered
// item, so that a change on the triggering item forces the triggered item
// to report even when sampling mode would otherwise suppress it (Part 4,
// 5.12.6).
type SetTriggeringRequest struct {
	RequestHeader        RequestHeader
	SubscriptionID        uint32
	TriggeringItemID       uint32
	LinksToAdd             []uint32
	LinksToRemove          []uint32
}

// SetTriggeringResponse is the response to SetTriggeringRequest.
type SetTriggeringResponse struct {
	ResponseHeader   ResponseHeader
	AddResults        []StatusCode
	AddDiagnosticInfos []*DiagnosticInfo
	RemoveResults      []StatusCode
	RemoveDiagnosticInfos []*DiagnosticInfo
}
