// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uapki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"

	"github.com/segotech/opcua/errors"
)

// Sign produces an asymmetric signature over data with localKey, using
// the signature algorithm the named policy specifies (PKCS1v15 or PSS
// over SHA-1/SHA-256). Used both for the session signature
// (server_cert||server_nonce) and the X509 user-token signature.
func Sign(policyURI string, localKey *rsa.PrivateKey, data []byte) (sig []byte, algURI string, err error) {
	p, err := profile(policyURI)
	if err != nil {
		return nil, "", err
	}
	if p.signatureHash == 0 {
		return nil, "", nil
	}

	digest := hashSum(p.signatureHash, data)
	if p.signatureIsPSS {
		sig, err = rsa.SignPSS(rand.Reader, localKey, p.signatureHash, digest, nil)
	} else {
		sig, err = rsa.SignPKCS1v15(rand.Reader, localKey, p.signatureHash, digest)
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "uapki: sign")
	}
	return sig, p.signatureAlgURI, nil
}

// Verify checks an asymmetric signature produced by Sign, using the
// public key embedded in cert.
func Verify(policyURI string, cert []byte, data, sig []byte) error {
	p, err := profile(policyURI)
	if err != nil {
		return err
	}
	if p.signatureHash == 0 {
		// SecurityPolicy#None: nothing to verify.
		return nil
	}

	parsed, err := x509.ParseCertificate(cert)
	if err != nil {
		return errors.Wrap(err, "uapki: parse certificate")
	}
	pub, ok := parsed.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("uapki: certificate does not carry an RSA key")
	}

	digest := hashSum(p.signatureHash, data)
	if p.signatureIsPSS {
		return rsa.VerifyPSS(pub, p.signatureHash, digest, sig, nil)
	}
	return rsa.VerifyPKCS1v15(pub, p.signatureHash, digest, sig)
}
