// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package uasc

import (
	"crypto/rsa"
	"time"

	"github.com/segotech/opcua/ua"
)

// Config holds everything needed to open and maintain a secure channel:
// the security policy/mode, the local certificate and key used for
// asymmetric operations, and the channel-level behavioral knobs (timeouts,
// reconnection). Certificate/store I/O is an external collaborator
// (spec.md §1 Out of scope); Config takes already-loaded bytes/keys
// rather than a path or a pluggable certificate-store interface.
type Config struct {
	// SecurityPolicyURI is the full policy URI, e.g.
	// ua.SecurityPolicyURINone. Empty is treated as None.
	SecurityPolicyURI string

	// SecurityMode controls whether OPN/MSG/CLO chunks are signed,
	// signed and encrypted, or left in plaintext.
	SecurityMode ua.MessageSecurityMode

	// Certificate is the client's own DER-encoded X.509 certificate,
	// sent to the server in OpenSecureChannel and CreateSession.
	Certificate []byte

	// LocalKey is the private key matching Certificate. Required for
	// any SecurityPolicyURI other than None.
	LocalKey *rsa.PrivateKey

	// RemoteCertificate is the server's DER-encoded certificate. Set
	// after GetEndpoints/SelectEndpoint; required for any
	// SecurityPolicyURI other than None.
	RemoteCertificate []byte

	// Lifetime is the requested security-token lifetime in
	// milliseconds (Part 4, 5.5.2). Renewal is requested at 75% of
	// this value.
	Lifetime uint32

	// RequestTimeout bounds how long a single service call waits for
	// its response before failing with ua.StatusBadTimeout.
	RequestTimeout time.Duration

	// AutoReconnect enables the client's reconnection monitor. When
	// false, any transport error tears the channel down permanently.
	AutoReconnect bool

	// ReconnectInterval is the delay between reconnection attempts.
	ReconnectInterval time.Duration

	// IgnoreClockSkew suppresses rejecting OPN responses whose
	// ResponseHeader.Timestamp disagrees with local time (spec.md
	// §4.3 "Clock-skew handling").
	IgnoreClockSkew bool
}

// DefaultLifetime is used when Config.Lifetime is left at zero.
const DefaultLifetime = 60 * 60 * 1000 // 1 hour, matches common server defaults.

// DefaultRequestTimeout is used when Config.RequestTimeout is left at zero.
const DefaultRequestTimeout = 5 * time.Second

// DefaultReconnectInterval is used when Config.ReconnectInterval is left
// at zero.
const DefaultReconnectInterval = 2 * time.Second

func (c *Config) lifetime() uint32 {
	if c.Lifetime == 0 {
		return DefaultLifetime
	}
	return c.Lifetime
}

func (c *Config) requestTimeout() time.Duration {
	if c.RequestTimeout == 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c *Config) securityPolicyURI() string {
	if c.SecurityPolicyURI == "" {
		return ua.SecurityPolicyURINone
	}
	return c.SecurityPolicyURI
}

// SessionConfig holds the parameters used to create and activate a
// session: identity, locales, and the client application description
// advertised to the server.
type SessionConfig struct {
	SessionName        string
	ClientDescription  ua.ApplicationDescription
	SessionTimeout     time.Duration
	LocaleIDs          []string

	// UserIdentityToken is one of *ua.AnonymousIdentityToken,
	// *ua.UserNameIdentityToken, *ua.X509IdentityToken or
	// *ua.IssuedIdentityToken. nil means "not yet decided"; the
	// client fills in an anonymous token matching the server's
	// advertised policy the first time CreateSession succeeds.
	UserIdentityToken interface{}

	// AuthPolicyURI is the SecurityPolicyURI used to encrypt
	// UserNameIdentityToken.Password or IssuedIdentityToken.TokenData,
	// and to select the signature algorithm for X509IdentityToken.
	AuthPolicyURI string

	// AuthPassword is the plaintext password for a UserName identity;
	// never logged (spec.md §9 "Password secrecy").
	AuthPassword string

	// UserTokenSignature is set by the client before ActivateSession
	// when the identity is X509.
	UserTokenSignature *ua.SignatureData

	// IssuedTokenSource supplies fresh token bytes for an
	// IssuedIdentityToken on every (re)activation.
	IssuedTokenSource ua.IssuedTokenSource
}

// DefaultSessionTimeout is used when SessionConfig.SessionTimeout is left
// at zero.
const DefaultSessionTimeout = 20 * time.Minute

func (c *SessionConfig) sessionTimeout() time.Duration {
	if c.SessionTimeout == 0 {
		return DefaultSessionTimeout
	}
	return c.SessionTimeout
}
