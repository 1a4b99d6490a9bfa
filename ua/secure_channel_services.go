// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// SecurityTokenRequestType distinguishes an initial channel open from a
// renewal (Part 4, 7.37).
type SecurityTokenRequestType int32

const (
	SecurityTokenRequestTypeIssue SecurityTokenRequestType = iota
	SecurityTokenRequestTypeRenew
)

// ChannelSecurityToken describes the channel id/token id pair and
// lifetime the server grants in an OpenSecureChannelResponse (Part 4,
// 7.6).
type ChannelSecurityToken struct {
	ChannelID       uint32
	TokenID         uint32
	CreatedAt       time.Time
	RevisedLifetime uint32
}

// OpenSecureChannelRequest opens or renews a secure channel (Part 4,
// 5.5.2).
type OpenSecureChannelRequest struct {
	RequestHeader            RequestHeader
	ClientProtocolVersion     uint32
	RequestType               SecurityTokenRequestType
	SecurityMode              MessageSecurityMode
	ClientNonce               []byte
	RequestedLifetime         uint32
}

// OpenSecureChannelResponse is the server's answer to
// OpenSecureChannelRequest.
type OpenSecureChannelResponse struct {
	ResponseHeader        ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken          ChannelSecurityToken
	ServerNonce            []byte
}

// CloseSecureChannelRequest closes a secure channel (Part 4, 5.5.3). It
// carries no response; the server simply drops the TCP connection.
type CloseSecureChannelRequest struct {
	RequestHeader RequestHeader
}

// CloseSecureChannelResponse exists only so the generic Send plumbing has
// a response type to decode into for servers that do reply before
// closing.
type CloseSecureChannelResponse struct {
	ResponseHeader ResponseHeader
}

// ServiceFault is returned instead of the expected response type when a
// service call fails at the message level rather than via a StatusCode
// field inside a normal response (Part 4, 7.35).
type ServiceFault struct {
	ResponseHeader ResponseHeader
}
