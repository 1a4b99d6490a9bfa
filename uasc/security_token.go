// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"time"

	"github.com/segotech/opcua/uapki"
)

// SecurityToken is a server-issued channel id/token id pair plus the
// symmetric key material derived from the OPN handshake nonces
// (spec.md §3 "SecurityToken"). The previous token is kept alongside the
// current one until every chunk signed/encrypted under it has drained, so
// that ingress decryption never races renewal.
type SecurityToken struct {
	ChannelID  uint32
	TokenID    uint32
	CreatedAt  time.Time
	LifetimeMs uint32

	// ClientKeys sign/encrypt chunks sent by the client; ServerKeys
	// verify/decrypt chunks received from the server. For
	// SecurityPolicy#None both are the zero value and chunks under
	// this token are left in plaintext.
	ClientKeys uapki.DerivedKeys
	ServerKeys uapki.DerivedKeys
}

// renewalThreshold is the fraction of a token's lifetime after which the
// channel issues a Renew OPN request (spec.md §4.3 "Open→Renewing at
// ≥75% of lifetime_ms").
const renewalThreshold = 0.75

// ShouldRenew reports whether at least renewalThreshold of the token's
// lifetime has elapsed.
func (t *SecurityToken) ShouldRenew() bool {
	if t.LifetimeMs == 0 {
		return false
	}
	elapsed := time.Since(t.CreatedAt)
	lifetime := time.Duration(t.LifetimeMs) * time.Millisecond
	return float64(elapsed) >= renewalThreshold*float64(lifetime)
}

// Expired reports whether the token's full lifetime has elapsed.
func (t *SecurityToken) Expired() bool {
	if t.LifetimeMs == 0 {
		return false
	}
	return time.Since(t.CreatedAt) >= time.Duration(t.LifetimeMs)*time.Millisecond
}
