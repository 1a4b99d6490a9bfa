// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "strings"

// MessageSecurityMode controls whether, and how, messages on a secure
// channel are signed and/or encrypted (Part 4, 7.15).
type MessageSecurityMode int32

const (
	MessageSecurityModeInvalid MessageSecurityMode = iota
	MessageSecurityModeNone
	MessageSecurityModeSign
	MessageSecurityModeSignAndEncrypt
)

func (m MessageSecurityMode) String() string {
	switch m {
	case MessageSecurityModeNone:
		return "None"
	case MessageSecurityModeSign:
		return "Sign"
	case MessageSecurityModeSignAndEncrypt:
		return "SignAndEncrypt"
	default:
		return "Invalid"
	}
}

// Security policy URIs, as they appear on the wire (Part 7, Annex A).
const (
	SecurityPolicyURINone               = "http://opcfoundation.org/UA/SecurityPolicy#None"
	SecurityPolicyURIBasic128Rsa15       = "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15"
	SecurityPolicyURIBasic256Sha256      = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	SecurityPolicyURIAes128Sha256RsaOaep = "http://opcfoundation.org/UA/SecurityPolicy#Aes128Sha256RsaOaep"
	SecurityPolicyURIAes256Sha256RsaPss  = "http://opcfoundation.org/UA/SecurityPolicy#Aes256Sha256RsaPss"
)

// short policy names, as accepted by SecurityPolicy/FormatSecurityPolicyURI.
const (
	SecurityPolicyNone               = "None"
	SecurityPolicyBasic128Rsa15       = "Basic128Rsa15"
	SecurityPolicyBasic256Sha256      = "Basic256Sha256"
	SecurityPolicyAes128Sha256RsaOaep = "Aes128Sha256RsaOaep"
	SecurityPolicyAes256Sha256RsaPss  = "Aes256Sha256RsaPss"
)

// FormatSecurityPolicyURI accepts either the short name ("Basic256Sha256")
// or the full URI and always returns the full URI, or "" if policy is
// already empty.
func FormatSecurityPolicyURI(policy string) string {
	if policy == "" || strings.HasPrefix(policy, "http://") {
		return policy
	}
	switch policy {
	case SecurityPolicyNone:
		return SecurityPolicyURINone
	case SecurityPolicyBasic128Rsa15:
		return SecurityPolicyURIBasic128Rsa15
	case SecurityPolicyBasic256Sha256:
		return SecurityPolicyURIBasic256Sha256
	case SecurityPolicyAes128Sha256RsaOaep:
		return SecurityPolicyURIAes128Sha256RsaOaep
	case SecurityPolicyAes256Sha256RsaPss:
		return SecurityPolicyURIAes256Sha256RsaPss
	default:
		return policy
	}
}

// SignatureData carries an asymmetric signature and the algorithm used to
// produce it (Part 4, 7.36).
type SignatureData struct {
	Algorithm string
	Signature []byte
}
