package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("s3cret")

	resp, err := issuer.CreateToken("ops", RoleAdmin)
	require.NoError(t, err)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	claims, err := issuer.ParseToken(resp.AccessToken, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims["sub"])
}

func TestParseRejectsForeignSignature(t *testing.T) {
	resp, err := NewIssuer("one").CreateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = NewIssuer("two").ParseToken(resp.AccessToken, RoleAdmin)
	assert.Error(t, err)
}

func TestParseRejectsMissingRoleChar(t *testing.T) {
	issuer := NewIssuer("s3cret")
	resp, err := issuer.CreateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.ParseToken(resp.AccessToken[:len(resp.AccessToken)-1]+"x", RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	issuer := NewIssuerWithClock("s3cret", time.Minute, func() time.Time { return issued })
	resp, err := issuer.CreateToken("ops", RoleAdmin)
	require.NoError(t, err)

	_, err = NewIssuer("s3cret").ParseToken(resp.AccessToken, RoleAdmin)
	assert.Error(t, err)
}

func TestNoSecretMeansNoAdminTokens(t *testing.T) {
	issuer := NewIssuer("")
	_, err := issuer.CreateToken("ops", RoleAdmin)
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, err = issuer.ParseToken("abc", RoleAdmin)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestEmptyToken(t *testing.T) {
	_, err := NewIssuer("s3cret").ParseToken("", RoleAdmin)
	assert.ErrorIs(t, err, ErrEmptyToken)
}
