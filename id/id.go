// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package id contains numeric identifiers for well-known OPC UA nodes,
// reference types and data encodings from the standard namespace (ns=0).
// Only the subset exercised by this module's services and tests is kept;
// the full table is generated from the standard nodeset by the (out of
// scope) code generator.
package id

const (
	// ObjectsFolder is the well-known id of the root Objects folder.
	ObjectsFolder uint32 = 85

	// Server_ServerStatus_State is the server's run state variable.
	Server_ServerStatus_State uint32 = 2259

	// ReadRawModifiedDetails_Encoding_DefaultBinary is the binary
	// encoding id for ua.ReadRawModifiedDetails, used to build the
	// ExtensionObject carried by a HistoryReadRequest.
	ReadRawModifiedDetails_Encoding_DefaultBinary uint32 = 638

	// HasComponent is the standard "has component" reference type.
	HasComponent uint32 = 47

	// Organizes is the standard "organizes" reference type, used to
	// browse folder hierarchies.
	Organizes uint32 = 35
)
