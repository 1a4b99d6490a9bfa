// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// EndpointDescription describes one way to connect to a server: its URL,
// security policy/mode, server certificate and accepted identity tokens
// (Part 4, 7.10).
type EndpointDescription struct {
	EndpointURL         string
	Server               ApplicationDescription
	ServerCertificate    []byte
	SecurityMode         MessageSecurityMode
	SecurityPolicyURI    string
	UserIdentityTokens   []*UserTokenPolicy
	TransportProfileURI string
	SecurityLevel        byte
}

// GetEndpointsRequest asks a server for its available endpoints (Part 4,
// 5.4.4).
type GetEndpointsRequest struct {
	RequestHeader   RequestHeader
	EndpointURL     string
	LocaleIDs        []string
	ProfileURIs      []string
}

// GetEndpointsResponse is the response to GetEndpointsRequest.
type GetEndpointsResponse struct {
	ResponseHeader ResponseHeader
	Endpoints       []*EndpointDescription
}
