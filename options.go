// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh/terminal"

	"github.com/segotech/opcua/ua"
	"github.com/segotech/opcua/uasc"
)

// Option configures the secure channel and/or session a Client will use to
// connect. Options are applied in order, so a later option overrides an
// earlier one touching the same field.
type Option func(*uasc.Config, *uasc.SessionConfig)

// ApplyConfig builds a default Config and SessionConfig and applies opts to
// them in order.
func ApplyConfig(opts ...Option) (*uasc.Config, *uasc.SessionConfig) {
	cfg := &uasc.Config{
		SecurityPolicyURI: ua.SecurityPolicyURINone,
		SecurityMode:      ua.MessageSecurityModeNone,
		Lifetime:          uasc.DefaultLifetime,
		RequestTimeout:    uasc.DefaultRequestTimeout,
		ReconnectInterval: uasc.DefaultReconnectInterval,
		AutoReconnect:     true,
	}
	sessionCfg := &uasc.SessionConfig{
		ClientDescription: ua.ApplicationDescription{
			ApplicationURI:  "urn:gopcua:client",
			ApplicationName: "gopcua - client",
			ApplicationType: ua.ApplicationTypeClient,
		},
		SessionTimeout: uasc.DefaultSessionTimeout,
	}
	for _, opt := range opts {
		opt(cfg, sessionCfg)
	}
	return cfg, sessionCfg
}

// SecurityPolicy sets the security policy URI (or its short name, e.g.
// "Basic256Sha256") used to secure the channel.
func SecurityPolicy(policy string) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.SecurityPolicyURI = ua.FormatSecurityPolicyURI(policy)
	}
}

// SecurityModeOption sets the message security mode.
func SecurityModeOption(mode ua.MessageSecurityMode) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.SecurityMode = mode
	}
}

// Certificate sets the client's own DER-encoded certificate.
func Certificate(cert []byte) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.Certificate = cert
	}
}

// PrivateKey sets the private key matching the client certificate.
func PrivateKey(key *rsa.PrivateKey) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.LocalKey = key
	}
}

// RemoteCertificate sets the server's DER-encoded certificate, as returned
// in the chosen EndpointDescription.
func RemoteCertificate(cert []byte) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.RemoteCertificate = cert
	}
}

// Lifetime sets the requested security token lifetime.
func Lifetime(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.Lifetime = uint32(d / time.Millisecond)
	}
}

// RequestTimeout sets the default timeout for a single service call.
func RequestTimeout(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.RequestTimeout = d
	}
}

// AutoReconnect enables or disables the client's reconnection monitor.
func AutoReconnect(b bool) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.AutoReconnect = b
	}
}

// ReconnectInterval sets the delay between reconnection attempts.
func ReconnectInterval(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.ReconnectInterval = d
	}
}

// IgnoreClockSkew disables rejecting OpenSecureChannel responses whose
// timestamp disagrees with local time.
func IgnoreClockSkew() Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.IgnoreClockSkew = true
	}
}

// ApplicationName sets the client's ApplicationName, advertised in
// CreateSessionRequest.ClientDescription.
func ApplicationName(name string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.ClientDescription.ApplicationName = name
	}
}

// ApplicationURI sets the client's ApplicationURI.
func ApplicationURI(uri string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.ClientDescription.ApplicationURI = uri
	}
}

// ProductURI sets the client's ProductURI.
func ProductURI(uri string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.ClientDescription.ProductURI = uri
	}
}

// SessionName sets the human-readable name sent in CreateSessionRequest.
func SessionName(name string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.SessionName = name
	}
}

// SessionTimeout sets the requested session timeout.
func SessionTimeout(d time.Duration) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.SessionTimeout = d
	}
}

// Locales sets the preferred locale ids, most preferred first.
func Locales(locales ...string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.LocaleIDs = locales
	}
}

// AuthAnonymous configures an anonymous identity token. This is the
// default when no other Auth* option is given.
func AuthAnonymous() Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.UserIdentityToken = &ua.AnonymousIdentityToken{}
	}
}

// AuthUsername configures a username/password identity token. The
// password is encrypted per the identity token's own security policy at
// ActivateSession time; see uasc.SecureChannel.EncryptUserPassword.
func AuthUsername(user, password string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.UserIdentityToken = &ua.UserNameIdentityToken{UserName: user}
		sc.AuthPassword = password
	}
}

// AuthUserNameFromTerminal configures a username identity token, prompting
// for the password on the controlling terminal without echoing it.
func AuthUserNameFromTerminal(user string) Option {
	return func(cfg *uasc.Config, sc *uasc.SessionConfig) {
		fmt.Fprintf(os.Stderr, "Password for %s: ", user)
		pass, err := terminal.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			sc.UserIdentityToken = &ua.AnonymousIdentityToken{}
			return
		}
		sc.UserIdentityToken = &ua.UserNameIdentityToken{UserName: user}
		sc.AuthPassword = string(pass)
	}
}

// AuthCertificate configures an X509 identity token, proven by signing
// the server's certificate and nonce with key at ActivateSession time.
func AuthCertificate(cert []byte) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.UserIdentityToken = &ua.X509IdentityToken{CertificateData: cert}
	}
}

// AuthIssuedToken configures an issued (e.g. OAuth2) identity token. src
// is consulted for fresh token bytes on every (re)activation.
func AuthIssuedToken(src ua.IssuedTokenSource) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		tok, err := src.IssuedToken()
		if err != nil {
			return
		}
		sc.UserIdentityToken = &ua.IssuedIdentityToken{TokenData: tok}
		sc.IssuedTokenSource = src
	}
}

// AuthPolicyID overwrites the PolicyID field of whichever identity token is
// currently configured. Used internally by CreateSession to fill in the
// server-advertised PolicyID for the anonymous default.
func AuthPolicyID(policyID string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		switch tok := sc.UserIdentityToken.(type) {
		case *ua.AnonymousIdentityToken:
			tok.PolicyID = policyID
		case *ua.UserNameIdentityToken:
			tok.PolicyID = policyID
		case *ua.X509IdentityToken:
			tok.PolicyID = policyID
		case *ua.IssuedIdentityToken:
			tok.PolicyID = policyID
		}
	}
}

// AuthPolicyURI sets the security policy used to encrypt the identity
// token's secret (password or issued token data), or to select the
// signature algorithm for an X509 identity.
func AuthPolicyURI(policyURI string) Option {
	return func(_ *uasc.Config, sc *uasc.SessionConfig) {
		sc.AuthPolicyURI = ua.FormatSecurityPolicyURI(policyURI)
	}
}
