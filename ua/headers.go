// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"reflect"
	"time"
)

// Request is implemented (trivially) by every *Request type. It exists
// purely to give Client.Send a type-safe-looking signature; OPC UA's
// binary protocol doesn't otherwise distinguish a request from any other
// struct, so unlike a typical Go interface it carries no methods the
// caller must implement.
type Request interface{}

// Response is the response-side counterpart of Request.
type Response interface{}

// RequestHeader is present on every service request (Part 4, 7.33).
type RequestHeader struct {
	AuthenticationToken *NodeID
	Timestamp            time.Time
	RequestHandle        uint32
	ReturnDiagnostics    uint32
	AuditEntryID         string
	TimeoutHint          uint32
}

// ResponseHeader is present on every service response (Part 4, 7.34).
type ResponseHeader struct {
	Timestamp         time.Time
	RequestHandle     uint32
	ServiceResult     StatusCode
	StringTable       []string
}

// SetRequestHeader overwrites the RequestHeader field of req, which must
// be a pointer to one of this package's *Request types. Used by uasc to
// stamp the authentication token, timestamp and request handle onto a
// caller-built request without every call site repeating that boilerplate.
func SetRequestHeader(req interface{}, h RequestHeader) {
	rv := reflect.ValueOf(req)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return
	}
	f := rv.Elem().FieldByName("RequestHeader")
	if f.IsValid() && f.CanSet() {
		f.Set(reflect.ValueOf(h))
	}
}

// ResponseHeaderOf extracts the ResponseHeader field from resp, which
// must be a pointer to one of this package's *Response types (or
// *ServiceFault). Returns the zero ResponseHeader if resp has none.
func ResponseHeaderOf(resp interface{}) ResponseHeader {
	rv := reflect.ValueOf(resp)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ResponseHeader{}
	}
	f := rv.Elem().FieldByName("ResponseHeader")
	if !f.IsValid() {
		return ResponseHeader{}
	}
	h, _ := f.Interface().(ResponseHeader)
	return h
}

// ApplicationType classifies an ApplicationDescription (Part 4, 7.1).
type ApplicationType int32

const (
	ApplicationTypeServer ApplicationType = iota
	ApplicationTypeClient
	ApplicationTypeClientAndServer
	ApplicationTypeDiscoveryServer
)

// ApplicationDescription describes the client or server application
// involved in a session (Part 4, 7.1).
type ApplicationDescription struct {
	ApplicationURI      string
	ProductURI           string
	ApplicationName      string
	ApplicationType      ApplicationType
	GatewayServerURI     string
	DiscoveryProfileURI string
	DiscoveryURLs        []string
}
