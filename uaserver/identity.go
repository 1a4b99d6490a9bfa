// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package uaserver provides the minimal server-side pieces needed to
// exercise Republish and TransferSubscriptions without a real OPC UA
// server: identity-token decoding and a per-subscription republish
// cache.
package uaserver

import (
	"github.com/segotech/opcua/ua"
)

// IdentityToken is the decoded form of the UserIdentityToken extension
// object an ActivateSessionRequest carries, mirroring the four concrete
// token kinds a server has to branch on plus the "couldn't decode it"
// case. A null extension object is treated as anonymous, matching how a
// client that never set an identity token is accepted.
type IdentityToken interface {
	isIdentityToken()
}

// AnonymousIdentity is the decoded form of *ua.AnonymousIdentityToken.
type AnonymousIdentity struct {
	PolicyID string
}

// UserNameIdentity is the decoded form of *ua.UserNameIdentityToken.
type UserNameIdentity struct {
	PolicyID            string
	UserName            string
	Password            []byte
	EncryptionAlgorithm string
}

// X509Identity is the decoded form of *ua.X509IdentityToken.
type X509Identity struct {
	PolicyID        string
	CertificateData []byte
}

// IssuedIdentity is the decoded form of *ua.IssuedIdentityToken.
type IssuedIdentity struct {
	PolicyID            string
	TokenData           []byte
	EncryptionAlgorithm string
}

// InvalidIdentity wraps an extension object whose type didn't match any
// of the known identity token kinds.
type InvalidIdentity struct {
	Token *ua.ExtensionObject
}

func (AnonymousIdentity) isIdentityToken() {}
func (UserNameIdentity) isIdentityToken()  {}
func (X509Identity) isIdentityToken()      {}
func (IssuedIdentity) isIdentityToken()    {}
func (InvalidIdentity) isIdentityToken()   {}

// DecodeIdentityToken decodes the UserIdentityToken extension object
// carried by an ActivateSessionRequest. A null extension object decodes
// to AnonymousIdentity with the reserved anonymous policy id, matching
// a client that omitted the field entirely.
func DecodeIdentityToken(o *ua.ExtensionObject) IdentityToken {
	if o.IsNull() {
		return AnonymousIdentity{PolicyID: ua.PolicyIDAnonymous}
	}
	switch tok := o.Value.(type) {
	case *ua.AnonymousIdentityToken:
		return AnonymousIdentity{PolicyID: tok.PolicyID}
	case *ua.UserNameIdentityToken:
		return UserNameIdentity{
			PolicyID:            tok.PolicyID,
			UserName:            tok.UserName,
			Password:            tok.Password,
			EncryptionAlgorithm: tok.EncryptionAlgorithm,
		}
	case *ua.X509IdentityToken:
		return X509Identity{PolicyID: tok.PolicyID, CertificateData: tok.CertificateData}
	case *ua.IssuedIdentityToken:
		return IssuedIdentity{
			PolicyID:            tok.PolicyID,
			TokenData:           tok.TokenData,
			EncryptionAlgorithm: tok.EncryptionAlgorithm,
		}
	default:
		return InvalidIdentity{Token: o}
	}
}
