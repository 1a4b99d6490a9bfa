package opcua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segotech/opcua/ua"
)

func TestConnectToBestEndpointPicksHighestSecurityLevel(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityMode: ua.MessageSecurityModeSign, SecurityLevel: 1, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
		{SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 3, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
		{SecurityMode: ua.MessageSecurityModeSign, SecurityLevel: 2, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
	}

	got, err := ConnectToBestEndpoint(endpoints, ua.UserTokenTypeAnonymous, true)
	require.NoError(t, err)
	assert.Equal(t, byte(3), got.SecurityLevel)
}

func TestConnectToBestEndpointInsecurePicksUnencrypted(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 3, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
		{SecurityMode: ua.MessageSecurityModeNone, SecurityLevel: 0, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
	}

	got, err := ConnectToBestEndpoint(endpoints, ua.UserTokenTypeAnonymous, false)
	require.NoError(t, err)
	assert.Equal(t, ua.MessageSecurityModeNone, got.SecurityMode)
}

func TestConnectToBestEndpointFiltersByTokenType(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 3, UserIdentityTokens: []*ua.UserTokenPolicy{{TokenType: ua.UserTokenTypeAnonymous}}},
	}

	_, err := ConnectToBestEndpoint(endpoints, ua.UserTokenTypeUserName, true)
	assert.Error(t, err)
}

func TestSelectEndpointMatchesPolicyAndMode(t *testing.T) {
	endpoints := []*ua.EndpointDescription{
		{SecurityPolicyURI: ua.SecurityPolicyURINone, SecurityMode: ua.MessageSecurityModeNone, SecurityLevel: 0},
		{SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256, SecurityMode: ua.MessageSecurityModeSignAndEncrypt, SecurityLevel: 3},
	}

	got := SelectEndpoint(endpoints, ua.SecurityPolicyURIBasic256Sha256, ua.MessageSecurityModeSignAndEncrypt)
	require.NotNil(t, got)
	assert.Equal(t, byte(3), got.SecurityLevel)
}
