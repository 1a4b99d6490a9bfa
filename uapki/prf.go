// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uapki

import (
	"crypto"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
)

// PSHA implements the TLS 1.0-style P_hash pseudo-random function used by
// OPC UA to derive symmetric signing/encryption keys and IVs from the
// client and server nonces exchanged in OpenSecureChannel (Part 6,
// 6.7.5). It produces exactly length bytes.
func PSHA(h crypto.Hash, secret, seed []byte, length int) []byte {
	var newHash func() hash.Hash
	switch h {
	case crypto.SHA1:
		newHash = sha1.New
	default:
		newHash = sha256.New
	}

	mac := hmac.New(newHash, secret)
	mac.Write(seed)
	a := mac.Sum(nil)

	out := make([]byte, 0, length+mac.Size())
	for len(out) < length {
		mac.Reset()
		mac.Write(a)
		mac.Write(seed)
		out = append(out, mac.Sum(nil)...)

		mac.Reset()
		mac.Write(a)
		a = mac.Sum(nil)
	}
	return out[:length]
}

// DerivedKeys holds the symmetric key material derived for one direction
// (client-to-server or server-to-client) of a secure channel (Part 6,
// 6.7.5): a signing key, an encryption key, and an initialization vector.
type DerivedKeys struct {
	SigningKey []byte
	EncryptKey []byte
	IV         []byte
}

// DeriveKeys derives the DerivedKeys for one direction from the policy's
// symmetric key lengths and the given secret/seed pair (secret=local
// nonce, seed=remote nonce, or vice versa per Part 6, 6.7.5).
func DeriveKeys(policyURI string, secret, seed []byte) (DerivedKeys, error) {
	p, err := profile(policyURI)
	if err != nil {
		return DerivedKeys{}, err
	}
	if p.symKeyLen == 0 {
		// SecurityPolicy#None: no symmetric key material is derived.
		return DerivedKeys{}, nil
	}

	total := PSHA(p.signatureHash, secret, seed, p.symSigKeyLen+p.symKeyLen+p.symBlockSize)
	return DerivedKeys{
		SigningKey: total[:p.symSigKeyLen],
		EncryptKey: total[p.symSigKeyLen : p.symSigKeyLen+p.symKeyLen],
		IV:         total[p.symSigKeyLen+p.symKeyLen:],
	}, nil
}
