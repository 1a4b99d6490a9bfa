package uaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segotech/opcua/ua"
)

func TestDecodeIdentityTokenNull(t *testing.T) {
	got := DecodeIdentityToken(&ua.ExtensionObject{})
	assert.Equal(t, AnonymousIdentity{PolicyID: ua.PolicyIDAnonymous}, got)
}

func TestDecodeIdentityTokenAnonymous(t *testing.T) {
	o := ua.NewExtensionObject(&ua.AnonymousIdentityToken{PolicyID: "anon"})
	got := DecodeIdentityToken(o)
	assert.Equal(t, AnonymousIdentity{PolicyID: "anon"}, got)
}

func TestDecodeIdentityTokenUserName(t *testing.T) {
	o := ua.NewExtensionObject(&ua.UserNameIdentityToken{
		PolicyID:            "userpass_none",
		UserName:            "alice",
		Password:            []byte("secret"),
		EncryptionAlgorithm: "",
	})
	got := DecodeIdentityToken(o)
	assert.Equal(t, UserNameIdentity{
		PolicyID: "userpass_none",
		UserName: "alice",
		Password: []byte("secret"),
	}, got)
}

func TestDecodeIdentityTokenX509(t *testing.T) {
	o := ua.NewExtensionObject(&ua.X509IdentityToken{PolicyID: "x509", CertificateData: []byte{1, 2, 3}})
	got := DecodeIdentityToken(o)
	assert.Equal(t, X509Identity{PolicyID: "x509", CertificateData: []byte{1, 2, 3}}, got)
}

func TestDecodeIdentityTokenIssued(t *testing.T) {
	o := ua.NewExtensionObject(&ua.IssuedIdentityToken{PolicyID: "userpass_rsa_15", TokenData: []byte("tok")})
	got := DecodeIdentityToken(o)
	assert.Equal(t, IssuedIdentity{PolicyID: "userpass_rsa_15", TokenData: []byte("tok")}, got)
}

func TestDecodeIdentityTokenInvalid(t *testing.T) {
	o := ua.NewExtensionObject(&ua.ReadValueID{})
	got := DecodeIdentityToken(o)
	_, ok := got.(InvalidIdentity)
	assert.True(t, ok)
}
