// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"github.com/segotech/opcua/ua"
)

// Node is a high-level wrapper around a NodeID which provides access to
// the attribute, browse and call services through the Client it was
// created from (see Client.Node).
type Node struct {
	ID *ua.NodeID
	c  *Client
}

// String returns the string representation of the node id.
func (n *Node) String() string {
	return n.ID.String()
}

// Attribute reads a single attribute of the node with the default
// timestamps-to-return and data encoding.
func (n *Node) Attribute(attrID ua.AttributeID) (*ua.DataValue, error) {
	req := &ua.ReadRequest{
		NodesToRead: []*ua.ReadValueID{
			{NodeID: n.ID, AttributeID: attrID},
		},
	}
	res, err := n.c.Read(req)
	if err != nil {
		return nil, err
	}
	if len(res.Results) != 1 {
		return nil, ua.StatusBadUnknownResponse
	}
	return res.Results[0], nil
}

// Value reads the node's Value attribute and returns the contained
// Variant, or the status error if the read failed.
func (n *Node) Value() (*ua.Variant, error) {
	v, err := n.Attribute(ua.AttributeIDValue)
	if err != nil {
		return nil, err
	}
	if v.Status != ua.StatusOK {
		return nil, v.Status
	}
	return v.Value, nil
}

// NodeClass reads the node's NodeClass attribute.
func (n *Node) NodeClass() (ua.NodeClass, error) {
	v, err := n.Attribute(ua.AttributeIDNodeClass)
	if err != nil {
		return 0, err
	}
	if v.Status != ua.StatusOK {
		return 0, v.Status
	}
	i, ok := v.Value.Value().(int32)
	if !ok {
		return 0, ua.StatusBadUnknownResponse
	}
	return ua.NodeClass(i), nil
}

// BrowseName reads the node's BrowseName attribute.
func (n *Node) BrowseName() (*ua.QualifiedName, error) {
	v, err := n.Attribute(ua.AttributeIDBrowseName)
	if err != nil {
		return nil, err
	}
	if v.Status != ua.StatusOK {
		return nil, v.Status
	}
	qn, ok := v.Value.Value().(*ua.QualifiedName)
	if !ok {
		return nil, ua.StatusBadUnknownResponse
	}
	return qn, nil
}

// Description reads the node's Description attribute.
func (n *Node) Description() (*ua.LocalizedText, error) {
	v, err := n.Attribute(ua.AttributeIDDescription)
	if err != nil {
		return nil, err
	}
	if v.Status != ua.StatusOK {
		return nil, v.Status
	}
	lt, ok := v.Value.Value().(*ua.LocalizedText)
	if !ok {
		return nil, ua.StatusBadUnknownResponse
	}
	return lt, nil
}

// AccessLevel reads the node's AccessLevel attribute.
func (n *Node) AccessLevel() (ua.AccessLevelType, error) {
	v, err := n.Attribute(ua.AttributeIDAccessLevel)
	if err != nil {
		return 0, err
	}
	if v.Status != ua.StatusOK {
		return 0, v.Status
	}
	b, ok := v.Value.Value().(byte)
	if !ok {
		return 0, ua.StatusBadUnknownResponse
	}
	return ua.AccessLevelType(b), nil
}

// UserAccessLevel reads the node's UserAccessLevel attribute.
func (n *Node) UserAccessLevel() (ua.AccessLevelType, error) {
	v, err := n.Attribute(ua.AttributeIDUserAccessLevel)
	if err != nil {
		return 0, err
	}
	if v.Status != ua.StatusOK {
		return 0, v.Status
	}
	b, ok := v.Value.Value().(byte)
	if !ok {
		return 0, ua.StatusBadUnknownResponse
	}
	return ua.AccessLevelType(b), nil
}

// SetValue writes the node's Value attribute.
func (n *Node) SetValue(v *ua.Variant) (ua.StatusCode, error) {
	req := &ua.WriteRequest{
		NodesToWrite: []*ua.WriteValue{
			{
				NodeID:      n.ID,
				AttributeID: ua.AttributeIDValue,
				Value:       &ua.DataValue{Value: v, Status: ua.StatusOK, EncodingMask: ua.DataValueValue},
			},
		},
	}
	res, err := n.c.Write(req)
	if err != nil {
		return ua.StatusBad, err
	}
	if len(res.Results) != 1 {
		return ua.StatusBad, ua.StatusBadUnknownResponse
	}
	return res.Results[0], nil
}

// Children returns the nodes related to n by referenceType (or
// HierarchicalReferences when referenceType is nil), following forward
// references only.
func (n *Node) Children(referenceType *ua.NodeID) ([]*Node, error) {
	req := &ua.BrowseRequest{
		NodesToBrowse: []*ua.BrowseDescription{
			{
				NodeID:          n.ID,
				Direction:       ua.BrowseDirectionForward,
				ReferenceTypeID: referenceType,
				IncludeSubtypes: true,
				NodeClassMask:   0, // 0 selects all node classes
				ResultMask:      ua.BrowseResultMaskAll,
			},
		},
	}
	res, err := n.c.Browse(req)
	if err != nil {
		return nil, err
	}
	if len(res.Results) != 1 {
		return nil, ua.StatusBadUnknownResponse
	}
	if res.Results[0].StatusCode != ua.StatusOK {
		return nil, res.Results[0].StatusCode
	}
	var nodes []*Node
	for _, ref := range res.Results[0].References {
		nodes = append(nodes, n.c.Node(ref.NodeID.NodeID))
	}
	return nodes, nil
}

// Call invokes a single method on the server, with n as the owning
// object and methodID identifying the method node.
func (n *Node) Call(methodID *ua.NodeID, args ...*ua.Variant) (*ua.CallMethodResult, error) {
	return n.c.Call(&ua.CallMethodRequest{
		ObjectID:       n.ID,
		MethodID:       methodID,
		InputArguments: args,
	})
}
