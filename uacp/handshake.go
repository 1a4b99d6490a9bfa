// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uacp

import "github.com/segotech/opcua/ua"

// Hello is the first message sent by the client on a new connection
// (Part 6, 6.7.2.2). It proposes the client's buffer limits and the
// endpoint the client wishes to connect to.
type Hello struct {
	Version        uint32
	ReceiveBufSize uint32
	SendBufSize    uint32
	MaxMessageSize uint32
	MaxChunkCount  uint32
	EndpointURL    string
}

// EncodeBinary implements ua.BinaryEncoder.
func (h *Hello) EncodeBinary(e *ua.Encoder) {
	e.WriteUint32(h.Version)
	e.WriteUint32(h.ReceiveBufSize)
	e.WriteUint32(h.SendBufSize)
	e.WriteUint32(h.MaxMessageSize)
	e.WriteUint32(h.MaxChunkCount)
	e.WriteString(h.EndpointURL)
}

// DecodeBinary implements ua.BinaryDecoder.
func (h *Hello) DecodeBinary(d *ua.Decoder) {
	h.Version = d.ReadUint32()
	h.ReceiveBufSize = d.ReadUint32()
	h.SendBufSize = d.ReadUint32()
	h.MaxMessageSize = d.ReadUint32()
	h.MaxChunkCount = d.ReadUint32()
	h.EndpointURL = d.ReadString()
}

// Acknowledge is the server's response to Hello (Part 6, 6.7.2.3). It
// carries the server's own buffer limits; each side then uses the
// smaller of its own and the peer's value.
type Acknowledge struct {
	Version        uint32
	ReceiveBufSize uint32
	SendBufSize    uint32
	MaxMessageSize uint32
	MaxChunkCount  uint32
}

// EncodeBinary implements ua.BinaryEncoder.
func (a *Acknowledge) EncodeBinary(e *ua.Encoder) {
	e.WriteUint32(a.Version)
	e.WriteUint32(a.ReceiveBufSize)
	e.WriteUint32(a.SendBufSize)
	e.WriteUint32(a.MaxMessageSize)
	e.WriteUint32(a.MaxChunkCount)
}

// DecodeBinary implements ua.BinaryDecoder.
func (a *Acknowledge) DecodeBinary(d *ua.Decoder) {
	a.Version = d.ReadUint32()
	a.ReceiveBufSize = d.ReadUint32()
	a.SendBufSize = d.ReadUint32()
	a.MaxMessageSize = d.ReadUint32()
	a.MaxChunkCount = d.ReadUint32()
}

// Error is sent by either side to report a fatal connection-level problem
// and is always immediately followed by closing the socket (Part 6,
// 6.7.2.4). It implements the error interface so it can be returned
// and type-switched on directly, as the client's reconnection monitor
// does.
type Error struct {
	ErrorCode uint32
	Reason    string
}

// EncodeBinary implements ua.BinaryEncoder.
func (e *Error) EncodeBinary(enc *ua.Encoder) {
	enc.WriteUint32(e.ErrorCode)
	enc.WriteString(e.Reason)
}

// DecodeBinary implements ua.BinaryDecoder.
func (e *Error) DecodeBinary(d *ua.Decoder) {
	e.ErrorCode = d.ReadUint32()
	e.Reason = d.ReadString()
}

func (e *Error) Error() string {
	return ua.StatusCode(e.ErrorCode).Error() + ": " + e.Reason
}
