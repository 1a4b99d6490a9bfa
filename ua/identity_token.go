// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// UserTokenType enumerates the kind of credential an endpoint's
// UserTokenPolicy accepts (Part 4, 7.43).
type UserTokenType int32

const (
	UserTokenTypeAnonymous UserTokenType = iota
	UserTokenTypeUserName
	UserTokenTypeCertificate
	UserTokenTypeIssuedToken
)

// Identity token policy ids reserved by the server, per spec.md §6. Note
// that the issued-token policies intentionally reuse the userpass_*
// prefix: this mirrors the original implementation's identity_token.rs
// constants exactly (see DESIGN.md, Open Question decisions) rather than
// "fixing" what may or may not be a conformance bug.
const (
	PolicyIDAnonymous           = "anonymous"
	PolicyIDUserPassNone        = "userpass_none"
	PolicyIDUserPassRSA15       = "userpass_rsa_15"
	PolicyIDUserPassRSAOAEP     = "userpass_rsa_oaep"
	PolicyIDUserPassRSAOAEP256  = "userpass_rsa_oaep_sha256"
	PolicyIDIssuedTokenNone     = "userpass_none"
	PolicyIDIssuedTokenRSA15    = "userpass_rsa_15"
	PolicyIDIssuedTokenRSAOAEP  = "userpass_rsa_oaep"
	PolicyIDIssuedTokenRSAOAEP256 = "userpass_rsa_oaep_sha256"
	PolicyIDX509                = "x509"
)

// UserTokenPolicy describes one credential type an endpoint accepts.
type UserTokenPolicy struct {
	PolicyID          string
	TokenType         UserTokenType
	IssuedTokenType   string
	IssuerEndpointURL string
	SecurityPolicyURI string
}

// AnonymousIdentityToken is the identity token for anonymous access.
type AnonymousIdentityToken struct {
	PolicyID string
}

// UserNameIdentityToken carries a (possibly encrypted) username/password
// pair.
type UserNameIdentityToken struct {
	PolicyID            string
	UserName             string
	Password             []byte
	EncryptionAlgorithm string
}

// X509IdentityToken carries an X.509 certificate; proof of possession of
// the corresponding private key is carried out-of-band in
// ActivateSessionRequest.UserTokenSignature.
type X509IdentityToken struct {
	PolicyID        string
	CertificateData []byte
}

// IssuedIdentityToken carries an opaque, server-issued credential (e.g. a
// JWT), optionally encrypted the same way a password would be.
type IssuedIdentityToken struct {
	PolicyID            string
	TokenData            []byte
	EncryptionAlgorithm string
}

func init() {
	RegisterExtensionObjectType(binaryIDAnonymousIdentityToken, &AnonymousIdentityToken{})
	RegisterExtensionObjectType(binaryIDUserNameIdentityToken, &UserNameIdentityToken{})
	RegisterExtensionObjectType(binaryIDX509IdentityToken, &X509IdentityToken{})
	RegisterExtensionObjectType(binaryIDIssuedIdentityToken, &IssuedIdentityToken{})
}
