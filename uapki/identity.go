// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uapki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/binary"

	"github.com/segotech/opcua/errors"
	"github.com/segotech/opcua/ua"
)

// EncryptionMode is the result of applying the identity-token encryption
// matrix (spec.md §4.4, Part 4 §7.41 Table 193).
type EncryptionMode int

const (
	EncryptionModePlaintext EncryptionMode = iota
	EncryptionModeAsymmetric
)

// SelectIdentityEncryption applies the channel_policy/channel_mode/
// token_policy matrix and returns the encryption mode to use plus, for
// Asymmetric, the policy URI to encrypt with.
func SelectIdentityEncryption(channelPolicyURI string, channelMode ua.MessageSecurityMode, tokenPolicyURI string) (EncryptionMode, string, error) {
	channelPolicyURI = ua.FormatSecurityPolicyURI(channelPolicyURI)
	tokenPolicyURI = ua.FormatSecurityPolicyURI(tokenPolicyURI)

	if channelPolicyURI != "" && channelPolicyURI != ua.SecurityPolicyURINone {
		if _, ok := profiles[channelPolicyURI]; !ok {
			return 0, "", ua.StatusBadSecurityPolicyRejected
		}
	}

	switch channelMode {
	case ua.MessageSecurityModeNone:
		if channelPolicyURI == "" || channelPolicyURI == ua.SecurityPolicyURINone {
			if tokenPolicyURI == "" || tokenPolicyURI == ua.SecurityPolicyURINone {
				return EncryptionModePlaintext, "", nil
			}
			return EncryptionModeAsymmetric, tokenPolicyURI, nil
		}
		return 0, "", ua.StatusBadSecurityChecksFailed

	case ua.MessageSecurityModeSign:
		if tokenPolicyURI == "" {
			return EncryptionModeAsymmetric, channelPolicyURI, nil
		}
		if tokenPolicyURI == ua.SecurityPolicyURINone {
			return 0, "", ua.StatusBadSecurityPolicyRejected
		}
		return EncryptionModeAsymmetric, tokenPolicyURI, nil

	case ua.MessageSecurityModeSignAndEncrypt:
		if tokenPolicyURI == "" {
			return EncryptionModeAsymmetric, channelPolicyURI, nil
		}
		if tokenPolicyURI == ua.SecurityPolicyURINone {
			return EncryptionModePlaintext, "", nil
		}
		return EncryptionModeAsymmetric, tokenPolicyURI, nil

	default:
		return 0, "", ua.StatusBadSecurityChecksFailed
	}
}

// EncryptSecret implements the legacy identity-token encryption layout
// (spec.md §4.4): `[u32 length][secret][server_nonce]`, RSA-encrypted to
// the server's public key with the padding the policy specifies.
func EncryptSecret(policyURI string, secret, serverNonce []byte, serverCert []byte) ([]byte, string, error) {
	p, err := profile(policyURI)
	if err != nil {
		return nil, "", err
	}

	cert, err := x509.ParseCertificate(serverCert)
	if err != nil {
		return nil, "", errors.Wrap(err, "uapki: parse server certificate")
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, "", errors.New("uapki: server certificate does not carry an RSA key")
	}

	plain := make([]byte, 4+len(secret)+len(serverNonce))
	binary.LittleEndian.PutUint32(plain, uint32(len(secret)))
	copy(plain[4:], secret)
	copy(plain[4+len(secret):], serverNonce)

	cipherText, err := encryptAsymmetric(p.encryptionPadding, pub, plain)
	if err != nil {
		return nil, "", err
	}
	return cipherText, p.encryptionAlgURI, nil
}

// DecryptSecret reverses EncryptSecret using the local private key,
// verifying that the trailing bytes match serverNonce and that any
// padding left over after the nonce is all zero, per spec.md §4.4.
func DecryptSecret(policyURI string, cipherText []byte, localKey *rsa.PrivateKey, serverNonce []byte) ([]byte, error) {
	p, err := profile(policyURI)
	if err != nil {
		return nil, err
	}

	plain, err := decryptAsymmetric(p.encryptionPadding, localKey, cipherText)
	if err != nil {
		return nil, ua.StatusBadDecodingError
	}
	if len(plain) < 4 {
		return nil, ua.StatusBadDecodingError
	}
	secretLen := int(binary.LittleEndian.Uint32(plain))
	if secretLen < 0 || 4+secretLen+len(serverNonce) > len(plain) {
		return nil, ua.StatusBadDecodingError
	}
	secret := plain[4 : 4+secretLen]
	nonce := plain[4+secretLen : 4+secretLen+len(serverNonce)]
	for i := range nonce {
		if nonce[i] != serverNonce[i] {
			return nil, ua.StatusBadDecodingError
		}
	}
	for _, b := range plain[4+secretLen+len(serverNonce):] {
		if b != 0 {
			return nil, ua.StatusBadDecodingError
		}
	}
	return secret, nil
}

// EncryptBlock RSA-encrypts a single plaintext block (at most
// pub.Size()-overhead bytes) under the padding the named policy
// specifies. Used by uasc to encrypt OPN chunk bodies, which carry no
// length-prefix/nonce framing unlike the legacy identity-token layout
// EncryptSecret produces.
func EncryptBlock(policyURI string, pub *rsa.PublicKey, plain []byte) ([]byte, error) {
	p, err := profile(policyURI)
	if err != nil {
		return nil, err
	}
	return encryptAsymmetric(p.encryptionPadding, pub, plain)
}

// DecryptBlock reverses EncryptBlock.
func DecryptBlock(policyURI string, priv *rsa.PrivateKey, cipherText []byte) ([]byte, error) {
	p, err := profile(policyURI)
	if err != nil {
		return nil, err
	}
	return decryptAsymmetric(p.encryptionPadding, priv, cipherText)
}

func encryptAsymmetric(padding AsymmetricPadding, pub *rsa.PublicKey, plain []byte) ([]byte, error) {
	switch padding {
	case PaddingOAEPSHA1:
		return rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, plain, nil)
	case PaddingOAEPSHA256:
		return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plain, nil)
	default:
		return rsa.EncryptPKCS1v15(rand.Reader, pub, plain)
	}
}

func decryptAsymmetric(padding AsymmetricPadding, priv *rsa.PrivateKey, cipherText []byte) ([]byte, error) {
	switch padding {
	case PaddingOAEPSHA1:
		return rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, cipherText, nil)
	case PaddingOAEPSHA256:
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, cipherText, nil)
	default:
		return rsa.DecryptPKCS1v15(rand.Reader, priv, cipherText)
	}
}
