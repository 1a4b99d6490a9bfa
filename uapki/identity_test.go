// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uapki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
)

func TestSelectIdentityEncryptionModeNone(t *testing.T) {
	mode, _, err := SelectIdentityEncryption(ua.SecurityPolicyURINone, ua.MessageSecurityModeNone, "")
	require.NoError(t, err)
	assert.Equal(t, EncryptionModePlaintext, mode)
}

func TestSelectIdentityEncryptionEmptyTokenPolicyUsesChannelPolicy(t *testing.T) {
	for _, mode := range []ua.MessageSecurityMode{ua.MessageSecurityModeSign, ua.MessageSecurityModeSignAndEncrypt} {
		got, policy, err := SelectIdentityEncryption(ua.SecurityPolicyURIBasic256Sha256, mode, "")
		require.NoError(t, err)
		assert.Equal(t, EncryptionModeAsymmetric, got)
		assert.Equal(t, ua.SecurityPolicyURIBasic256Sha256, policy)
	}
}

func TestSelectIdentityEncryptionExplicitNoneTokenPolicySignAndEncryptIsPlaintext(t *testing.T) {
	mode, policy, err := SelectIdentityEncryption(ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSignAndEncrypt, ua.SecurityPolicyURINone)
	require.NoError(t, err)
	assert.Equal(t, EncryptionModePlaintext, mode)
	assert.Equal(t, "", policy)
}

func TestSelectIdentityEncryptionExplicitNoneTokenPolicySignIsRejected(t *testing.T) {
	_, _, err := SelectIdentityEncryption(ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSign, ua.SecurityPolicyURINone)
	assert.Equal(t, ua.StatusBadSecurityPolicyRejected, err)
}

func TestSelectIdentityEncryptionExplicitTokenPolicyWins(t *testing.T) {
	mode, policy, err := SelectIdentityEncryption(ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSign, ua.SecurityPolicyURIAes128Sha256RsaOaep)
	require.NoError(t, err)
	assert.Equal(t, EncryptionModeAsymmetric, mode)
	assert.Equal(t, ua.SecurityPolicyURIAes128Sha256RsaOaep, policy)
}

func TestEncryptDecryptSecretRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{SerialNumber: big.NewInt(1), PublicKey: &priv.PublicKey}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	secret := []byte("s3cr3t-password")
	nonce := []byte("0123456789abcdef")

	cipherText, algURI, err := EncryptSecret(ua.SecurityPolicyURIBasic256Sha256, secret, nonce, der)
	require.NoError(t, err)
	assert.NotEmpty(t, algURI)

	got, err := DecryptSecret(ua.SecurityPolicyURIBasic256Sha256, cipherText, priv, nonce)
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestDecryptSecretRejectsMismatchedNonce(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{SerialNumber: big.NewInt(1), PublicKey: &priv.PublicKey}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	cipherText, _, err := EncryptSecret(ua.SecurityPolicyURIBasic256Sha256, []byte("secret"), []byte("nonce-a"), der)
	require.NoError(t, err)

	_, err = DecryptSecret(ua.SecurityPolicyURIBasic256Sha256, cipherText, priv, []byte("nonce-b"))
	assert.Equal(t, ua.StatusBadDecodingError, err)
}
