// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package uapki implements the asymmetric cryptographic primitives OPC UA
// security policies need: RSA padding selection for identity-token
// encryption, P_SHA key derivation for secure-channel symmetric keys, and
// signature generation/verification for session and user-token proof of
// possession. Certificate storage and key provisioning are external
// collaborators (spec.md §1); this package only operates on already
// resolved certificate/key bytes.
package uapki

import (
	"crypto"
	"crypto/sha1"
	"crypto/sha256"

	"github.com/segotech/opcua/ua"
)

// AsymmetricPadding identifies the RSA padding scheme a policy uses for
// asymmetric encryption (spec.md §4.4).
type AsymmetricPadding int

const (
	PaddingPKCS1 AsymmetricPadding = iota
	PaddingOAEPSHA1
	PaddingOAEPSHA256
)

// policyProfile bundles everything uapki needs to know about one named
// security policy: its asymmetric encryption padding, its signature
// algorithm and hash, and the symmetric key lengths used to derive keys
// from nonces (Part 7, Annex A).
type policyProfile struct {
	encryptionPadding AsymmetricPadding
	encryptionAlgURI  string
	signatureAlgURI   string
	signatureHash     crypto.Hash
	signatureIsPSS    bool
	symKeyLen         int // bytes
	symBlockSize      int // bytes
	symSigKeyLen      int // bytes
}

const (
	rsa15SigAlgURI       = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	rsaOaepEncAlgURI     = "http://www.w3.org/2001/04/xmlenc#rsa-oaep"
	rsaOaepSha256EncAlgURI = "http://opcfoundation.org/UA/security/rsa-oaep-sha2-256"
	rsaSha256SigAlgURI   = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	rsaPssSha256SigAlgURI = "http://opcfoundation.org/UA/security/rsa-pss-sha2-256"
	rsa15EncAlgURI       = "http://www.w3.org/2001/04/xmlenc#rsa-1_5"
)

var profiles = map[string]policyProfile{
	ua.SecurityPolicyURINone: {
		encryptionPadding: PaddingPKCS1,
	},
	ua.SecurityPolicyURIBasic128Rsa15: {
		encryptionPadding: PaddingPKCS1,
		encryptionAlgURI:  rsa15EncAlgURI,
		signatureAlgURI:   rsa15SigAlgURI,
		signatureHash:     crypto.SHA1,
		symKeyLen:         16,
		symBlockSize:      16,
		symSigKeyLen:      20,
	},
	ua.SecurityPolicyURIBasic256Sha256: {
		encryptionPadding: PaddingOAEPSHA1,
		encryptionAlgURI:  rsaOaepEncAlgURI,
		signatureAlgURI:   rsaSha256SigAlgURI,
		signatureHash:     crypto.SHA256,
		symKeyLen:         32,
		symBlockSize:      16,
		symSigKeyLen:      32,
	},
	ua.SecurityPolicyURIAes128Sha256RsaOaep: {
		encryptionPadding: PaddingOAEPSHA1,
		encryptionAlgURI:  rsaOaepEncAlgURI,
		signatureAlgURI:   rsaSha256SigAlgURI,
		signatureHash:     crypto.SHA256,
		symKeyLen:         16,
		symBlockSize:      16,
		symSigKeyLen:      32,
	},
	ua.SecurityPolicyURIAes256Sha256RsaPss: {
		encryptionPadding: PaddingOAEPSHA256,
		encryptionAlgURI:  rsaOaepSha256EncAlgURI,
		signatureAlgURI:   rsaPssSha256SigAlgURI,
		signatureHash:     crypto.SHA256,
		signatureIsPSS:    true,
		symKeyLen:         32,
		symBlockSize:      16,
		symSigKeyLen:      32,
	},
}

func profile(policyURI string) (policyProfile, error) {
	p, ok := profiles[ua.FormatSecurityPolicyURI(policyURI)]
	if !ok {
		return policyProfile{}, ua.StatusBadSecurityPolicyRejected
	}
	return p, nil
}

func hashSum(h crypto.Hash, data []byte) []byte {
	switch h {
	case crypto.SHA1:
		sum := sha1.Sum(data)
		return sum[:]
	case crypto.SHA256:
		sum := sha256.Sum256(data)
		return sum[:]
	default:
		return nil
	}
}
