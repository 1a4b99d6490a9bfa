// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeIDType identifies the encoding used for the identifier part of a
// NodeID (Part 6, 5.2.2.9).
type NodeIDType uint8

const (
	NodeIDTypeTwoByte NodeIDType = iota
	NodeIDTypeFourByte
	NodeIDTypeNumeric
	NodeIDTypeString
	NodeIDTypeGUID
	NodeIDTypeByteString
)

// NodeID identifies a node in an OPC UA address space.
type NodeID struct {
	Type           NodeIDType
	Namespace      uint16
	NumericID      uint32
	StringID       string
	ByteStringID   []byte
}

func NewTwoByteNodeID(id byte) *NodeID {
	return &NodeID{Type: NodeIDTypeTwoByte, NumericID: uint32(id)}
}

func NewNumericNodeID(ns uint16, id uint32) *NodeID {
	typ := NodeIDTypeNumeric
	if ns == 0 && id <= 0xFFFF {
		typ = NodeIDTypeFourByte
	}
	return &NodeID{Type: typ, Namespace: ns, NumericID: id}
}

func NewStringNodeID(ns uint16, id string) *NodeID {
	return &NodeID{Type: NodeIDTypeString, Namespace: ns, StringID: id}
}

func NewByteStringNodeID(ns uint16, id []byte) *NodeID {
	return &NodeID{Type: NodeIDTypeByteString, Namespace: ns, ByteStringID: id}
}

// String renders the NodeID using the standard "ns=%d;..." notation
// (Part 6, A.3).
func (n *NodeID) String() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	if n.Namespace != 0 {
		fmt.Fprintf(&sb, "ns=%d;", n.Namespace)
	}
	switch n.Type {
	case NodeIDTypeString:
		fmt.Fprintf(&sb, "s=%s", n.StringID)
	case NodeIDTypeByteString:
		fmt.Fprintf(&sb, "b=%x", n.ByteStringID)
	default:
		fmt.Fprintf(&sb, "i=%d", n.NumericID)
	}
	return sb.String()
}

// ParseNodeID parses the standard NodeID string notation, e.g.
// "ns=2;s=my.node" or "i=85".
func ParseNodeID(s string) (*NodeID, error) {
	if s == "" {
		return NewTwoByteNodeID(0), nil
	}
	var ns uint16
	rest := s
	if strings.HasPrefix(s, "ns=") {
		parts := strings.SplitN(s, ";", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("ua: invalid node id %q", s)
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(parts[0], "ns="), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("ua: invalid namespace in node id %q: %w", s, err)
		}
		ns = uint16(n)
		rest = parts[1]
	}
	switch {
	case strings.HasPrefix(rest, "i="):
		n, err := strconv.ParseUint(strings.TrimPrefix(rest, "i="), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("ua: invalid numeric node id %q: %w", s, err)
		}
		return NewNumericNodeID(ns, uint32(n)), nil
	case strings.HasPrefix(rest, "s="):
		return NewStringNodeID(ns, strings.TrimPrefix(rest, "s=")), nil
	case strings.HasPrefix(rest, "b="):
		return NewByteStringNodeID(ns, []byte(strings.TrimPrefix(rest, "b="))), nil
	default:
		return nil, fmt.Errorf("ua: invalid node id %q", s)
	}
}

// Equal reports whether two node ids refer to the same node.
func (n *NodeID) Equal(o *NodeID) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Namespace != o.Namespace {
		return false
	}
	switch n.Type {
	case NodeIDTypeString:
		return o.Type == NodeIDTypeString && n.StringID == o.StringID
	case NodeIDTypeByteString:
		return o.Type == NodeIDTypeByteString && string(n.ByteStringID) == string(o.ByteStringID)
	default:
		return (o.Type == NodeIDTypeTwoByte || o.Type == NodeIDTypeFourByte || o.Type == NodeIDTypeNumeric) &&
			n.NumericID == o.NumericID
	}
}

// EncodeBinary implements BinaryEncoder.
func (n *NodeID) EncodeBinary(e *Encoder) {
	if n == nil {
		e.WriteUint8(uint8(NodeIDTypeTwoByte))
		e.WriteUint8(0)
		return
	}
	switch n.Type {
	case NodeIDTypeTwoByte:
		e.WriteUint8(uint8(NodeIDTypeTwoByte))
		e.WriteUint8(uint8(n.NumericID))
	case NodeIDTypeFourByte:
		e.WriteUint8(uint8(NodeIDTypeFourByte))
		e.WriteUint8(uint8(n.Namespace))
		e.WriteUint16(uint16(n.NumericID))
	case NodeIDTypeNumeric:
		e.WriteUint8(uint8(NodeIDTypeNumeric))
		e.WriteUint16(n.Namespace)
		e.WriteUint32(n.NumericID)
	case NodeIDTypeString:
		e.WriteUint8(uint8(NodeIDTypeString))
		e.WriteUint16(n.Namespace)
		e.WriteString(n.StringID)
	case NodeIDTypeByteString:
		e.WriteUint8(uint8(NodeIDTypeByteString))
		e.WriteUint16(n.Namespace)
		e.WriteByteSlice(n.ByteStringID)
	default:
		e.WriteUint8(uint8(NodeIDTypeTwoByte))
		e.WriteUint8(0)
	}
}

// DecodeBinary implements BinaryDecoder.
func (n *NodeID) DecodeBinary(d *Decoder) {
	n.Type = NodeIDType(d.ReadUint8())
	switch n.Type {
	case NodeIDTypeTwoByte:
		n.NumericID = uint32(d.ReadUint8())
	case NodeIDTypeFourByte:
		n.Namespace = uint16(d.ReadUint8())
		n.NumericID = uint32(d.ReadUint16())
	case NodeIDTypeNumeric:
		n.Namespace = d.ReadUint16()
		n.NumericID = d.ReadUint32()
	case NodeIDTypeString:
		n.Namespace = d.ReadUint16()
		n.StringID = d.ReadString()
	case NodeIDTypeByteString:
		n.Namespace = d.ReadUint16()
		n.ByteStringID = d.ReadByteSlice()
	default:
		d.fail(fmt.Errorf("ua: unknown node id type %d", n.Type))
	}
}

// ExpandedNodeID is a NodeID plus an optional namespace URI / server index
// (Part 6, 5.2.2.10), used to reference nodes across servers or before a
// namespace table has been negotiated.
type ExpandedNodeID struct {
	NodeID       *NodeID
	NamespaceURI string
	ServerIndex  uint32
}

// NewFourByteExpandedNodeID builds an ExpandedNodeID for a well-known
// standard-namespace numeric identifier, as used to tag ExtensionObject
// payloads with their binary encoding id.
func NewFourByteExpandedNodeID(ns uint16, id uint32) *ExpandedNodeID {
	return &ExpandedNodeID{NodeID: NewNumericNodeID(ns, id)}
}

func (e *ExpandedNodeID) EncodeBinary(enc *Encoder) {
	e.NodeID.EncodeBinary(enc)
}

func (e *ExpandedNodeID) DecodeBinary(dec *Decoder) {
	e.NodeID = &NodeID{}
	e.NodeID.DecodeBinary(dec)
}
