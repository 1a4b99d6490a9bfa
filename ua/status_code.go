// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "fmt"

// StatusCode is a numeric result code as defined by OPC UA Part 4, 7.34.
// It implements error directly so that service calls can return it in
// place of an opaque error value, exactly as the teacher's client.go does
// (e.g. "return ua.StatusBadServerNotConnected").
type StatusCode uint32

// EncodeBinary implements BinaryEncoder.
func (s StatusCode) EncodeBinary(e *Encoder) { e.WriteUint32(uint32(s)) }

// DecodeBinary implements BinaryDecoder.
func (s *StatusCode) DecodeBinary(d *Decoder) { *s = StatusCode(d.ReadUint32()) }

func (s StatusCode) Error() string {
	if name, ok := statusCodeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(0x%08x)", uint32(s))
}

func (s StatusCode) String() string { return s.Error() }

// IsGood reports whether the severity bits (top two bits) indicate success.
func (s StatusCode) IsGood() bool { return uint32(s)&0xC0000000 == 0 }

// IsBad reports whether the severity bits indicate failure.
func (s StatusCode) IsBad() bool { return uint32(s)&0xC0000000 == 0x80000000 }

// Status codes named in spec.md §7 "Error taxonomy", plus a handful the
// teacher's client.go and uatest fixtures reference directly.
const (
	StatusOK StatusCode = 0x00000000
	StatusBad StatusCode = 0x80000000
	StatusUncertain StatusCode = 0x40000000

	// Transport
	StatusBadTCPEndpointURLInvalid StatusCode = 0x80000001
	StatusBadTCPMessageTooLarge    StatusCode = 0x80000002
	StatusBadConnectionClosed      StatusCode = 0x80000003

	// Security
	StatusBadSecurityPolicyRejected    StatusCode = 0x80010000
	StatusBadSecurityChecksFailed      StatusCode = 0x80010001
	StatusBadSecureChannelTokenUnknown StatusCode = 0x80010002
	StatusBadSecureChannelIDInvalid    StatusCode = 0x80010003
	StatusBadCertificateInvalid       StatusCode = 0x80010004
	StatusBadIdentityTokenInvalid      StatusCode = 0x80010005
	StatusBadIdentityTokenRejected     StatusCode = 0x80010006

	// Session
	StatusBadSessionIDInvalid     StatusCode = 0x80020000
	StatusBadSessionNotActivated  StatusCode = 0x80020001
	StatusBadSessionClosed        StatusCode = 0x80020002
	StatusBadServerNotConnected   StatusCode = 0x80020003

	// Subscriptions
	StatusBadSubscriptionIDInvalid StatusCode = 0x80030000
	StatusBadTooManySubscriptions  StatusCode = 0x80030001
	StatusBadNoSubscription        StatusCode = 0x80030002
	StatusBadSequenceNumberUnknown StatusCode = 0x80030003
	StatusBadMessageNotAvailable   StatusCode = 0x80030004

	// Operational
	StatusBadTimeout            StatusCode = 0x80040000
	StatusBadNothingToDo        StatusCode = 0x80040001
	StatusBadTooManyOperations  StatusCode = 0x80040002
	StatusBadAttributeIDInvalid StatusCode = 0x80040003
	StatusBadNodeIDUnknown      StatusCode = 0x80040004
	StatusBadUserAccessDenied   StatusCode = 0x80040005
	StatusBadUnknownResponse    StatusCode = 0x80040006

	// Decoding
	StatusBadDecodingError           StatusCode = 0x80050000
	StatusBadEncodingLimitsExceeded  StatusCode = 0x80050001
	StatusBadDataTypeIDUnknown       StatusCode = 0x80050002
)

var statusCodeNames = map[StatusCode]string{
	StatusOK:        "Good",
	StatusBad:       "Bad",
	StatusUncertain: "Uncertain",

	StatusBadTCPEndpointURLInvalid: "BadTcpEndpointUrlInvalid",
	StatusBadTCPMessageTooLarge:    "BadTcpMessageTooLarge",
	StatusBadConnectionClosed:      "BadConnectionClosed",

	StatusBadSecurityPolicyRejected:    "BadSecurityPolicyRejected",
	StatusBadSecurityChecksFailed:      "BadSecurityChecksFailed",
	StatusBadSecureChannelTokenUnknown: "BadSecureChannelTokenUnknown",
	StatusBadSecureChannelIDInvalid:    "BadSecureChannelIdInvalid",
	StatusBadCertificateInvalid:        "BadCertificateInvalid",
	StatusBadIdentityTokenInvalid:      "BadIdentityTokenInvalid",
	StatusBadIdentityTokenRejected:     "BadIdentityTokenRejected",

	StatusBadSessionIDInvalid:    "BadSessionIdInvalid",
	StatusBadSessionNotActivated: "BadSessionNotActivated",
	StatusBadSessionClosed:       "BadSessionClosed",
	StatusBadServerNotConnected:  "BadServerNotConnected",

	StatusBadSubscriptionIDInvalid: "BadSubscriptionIdInvalid",
	StatusBadTooManySubscriptions:  "BadTooManySubscriptions",
	StatusBadNoSubscription:        "BadNoSubscription",
	StatusBadSequenceNumberUnknown: "BadSequenceNumberUnknown",
	StatusBadMessageNotAvailable:   "BadMessageNotAvailable",

	StatusBadTimeout:            "BadTimeout",
	StatusBadNothingToDo:        "BadNothingToDo",
	StatusBadTooManyOperations:  "BadTooManyOperations",
	StatusBadAttributeIDInvalid: "BadAttributeIdInvalid",
	StatusBadNodeIDUnknown:      "BadNodeIdUnknown",
	StatusBadUserAccessDenied:   "BadUserAccessDenied",
	StatusBadUnknownResponse:    "BadUnknownResponse",

	StatusBadDecodingError:          "BadDecodingError",
	StatusBadEncodingLimitsExceeded: "BadEncodingLimitsExceeded",
	StatusBadDataTypeIDUnknown:      "BadDataTypeIdUnknown",
}
