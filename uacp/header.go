// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package uacp implements the OPC UA Connection Protocol (Part 6, 6.7):
// the Hello/Acknowledge/Error handshake that negotiates transport buffer
// sizes before any secure channel traffic is exchanged.
package uacp

import (
	"encoding/binary"
	"io"

	"github.com/segotech/opcua/ua"
)

// Message type markers, the first three bytes of every uacp header.
const (
	MessageTypeHello       = "HEL"
	MessageTypeAcknowledge = "ACK"
	MessageTypeError       = "ERR"
	MessageTypeOpen        = "OPN"
	MessageTypeMessage     = "MSG"
	MessageTypeClose       = "CLO"
)

// Chunk type markers, the fourth byte of every header.
const (
	ChunkTypeIntermediate = 'C'
	ChunkTypeFinal        = 'F'
	ChunkTypeAbort        = 'A'
)

// headerLen is the size in bytes of the fixed message header.
const headerLen = 8

// Header is the 8-byte header prefixing every uacp/uasc message: a
// 3-byte ASCII message type, a 1-byte chunk type, and a little-endian
// uint32 total message size including the header itself.
type Header struct {
	MessageType string
	ChunkType   byte
	MessageSize uint32
}

// Encode writes the header in wire format.
func (h *Header) Encode() []byte {
	b := make([]byte, headerLen)
	copy(b[0:3], h.MessageType)
	b[3] = h.ChunkType
	binary.LittleEndian.PutUint32(b[4:8], h.MessageSize)
	return b
}

// ReadHeader reads and decodes an 8-byte header from r.
func ReadHeader(r io.Reader) (*Header, error) {
	b := make([]byte, headerLen)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return &Header{
		MessageType: string(b[0:3]),
		ChunkType:   b[3],
		MessageSize: binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}

// ValidateSize fails with BadTcpMessageTooLarge if the header's declared
// message size exceeds maxMessageSize, mirroring the cap in
// ChunkCodec (spec.md §4.2).
func (h *Header) ValidateSize(maxMessageSize uint32) error {
	if maxMessageSize > 0 && h.MessageSize > maxMessageSize {
		return ua.StatusBadTCPMessageTooLarge
	}
	return nil
}
