// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import "github.com/segotech/opcua/uapki"

// NewSessionSignature signs serverCert||serverNonce with the channel's
// own private key, producing the ClientSignature sent in
// ActivateSessionRequest (spec.md §4.5).
func (c *SecureChannel) NewSessionSignature(serverCert, serverNonce []byte) (sig []byte, algURI string, err error) {
	data := append(append([]byte{}, serverCert...), serverNonce...)
	return uapki.Sign(c.cfg.securityPolicyURI(), c.cfg.LocalKey, data)
}

// VerifySessionSignature verifies the server's ServerSignature over
// localCert||nonce, where nonce is the client nonce sent in
// CreateSessionRequest (spec.md §4.5).
func (c *SecureChannel) VerifySessionSignature(serverCert, nonce, signature []byte) error {
	data := append(append([]byte{}, c.cfg.Certificate...), nonce...)
	return uapki.Verify(c.cfg.securityPolicyURI(), serverCert, data, signature)
}

// NewUserTokenSignature signs serverCert||serverNonce with the user's
// private key, for an X509IdentityToken (spec.md §4.5). policyURI is the
// identity token's own security policy, which may differ from the
// channel's.
func (c *SecureChannel) NewUserTokenSignature(policyURI string, serverCert, serverNonce []byte) (sig []byte, algURI string, err error) {
	data := append(append([]byte{}, serverCert...), serverNonce...)
	return uapki.Sign(policyURI, c.cfg.LocalKey, data)
}

// EncryptUserPassword encrypts password under the identity-token
// encryption matrix selected for policyURI, producing the Password bytes
// and algorithm URI for a UserNameIdentityToken (spec.md §4.4).
func (c *SecureChannel) EncryptUserPassword(policyURI, password string, serverCert, serverNonce []byte) (cipherText []byte, algURI string, err error) {
	mode, selectedPolicy, err := uapki.SelectIdentityEncryption(c.cfg.securityPolicyURI(), c.cfg.SecurityMode, policyURI)
	if err != nil {
		return nil, "", err
	}
	if mode == uapki.EncryptionModePlaintext {
		return []byte(password), "", nil
	}
	return uapki.EncryptSecret(selectedPolicy, []byte(password), serverNonce, serverCert)
}
