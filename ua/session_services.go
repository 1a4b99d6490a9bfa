// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// CreateSessionRequest creates a new, not-yet-activated session (Part 4,
// 5.6.2).
type CreateSessionRequest struct {
	RequestHeader            RequestHeader
	ClientDescription        ApplicationDescription
	ServerURI                 string
	EndpointURL               string
	SessionName               string
	ClientNonce               []byte
	ClientCertificate         []byte
	RequestedSessionTimeout float64
	MaxResponseMessageSize  uint32
}

// CreateSessionResponse is the response to CreateSessionRequest.
type CreateSessionResponse struct {
	ResponseHeader           ResponseHeader
	SessionID                 *NodeID
	AuthenticationToken       *NodeID
	RevisedSessionTimeout   float64
	ServerNonce               []byte
	ServerCertificate         []byte
	ServerEndpoints           []*EndpointDescription
	ServerSignature           SignatureData
	MaxRequestMessageSize   uint32
}

// ActivateSessionRequest activates a session created by CreateSession, or
// reactivates one after reconnection (Part 4, 5.6.3).
type ActivateSessionRequest struct {
	RequestHeader              RequestHeader
	ClientSignature            *SignatureData
	ClientSoftwareCertificates []*SignedSoftwareCertificate
	LocaleIDs                   []string
	UserIdentityToken           *ExtensionObject
	UserTokenSignature          *SignatureData
}

// ActivateSessionResponse is the response to ActivateSessionRequest.
type ActivateSessionResponse struct {
	ResponseHeader ResponseHeader
	ServerNonce     []byte
	Results         []StatusCode
}

// SignedSoftwareCertificate attests to the client software's identity
// (Part 4, 7.38). Not exercised by any component in scope; kept only so
// ActivateSessionRequest's shape matches the wire format.
type SignedSoftwareCertificate struct {
	CertificateData []byte
	Signature        []byte
}

// CloseSessionRequest terminates a session (Part 4, 5.6.4).
type CloseSessionRequest struct {
	RequestHeader       RequestHeader
	DeleteSubscriptions bool
}

// CloseSessionResponse is the response to CloseSessionRequest.
type CloseSessionResponse struct {
	ResponseHeader ResponseHeader
}
