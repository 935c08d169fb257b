package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	Configure(Secrets{
		Access:         "test-access-secret",
		Refresh:        "test-refresh-secret",
		ForgotPassword: "test-forgot-secret",
		EmailVerify:    "test-verify-secret",
	})
}

func TestSignParseRoundTrip(t *testing.T) {
	kinds := []Kind{KindAccess, KindRefresh, KindForgotPassword, KindEmailVerify}
	for _, kind := range kinds {
		token, err := Sign("user-1", kind, StatusVerified, time.Minute)
		require.NoError(t, err, "sign %s", kind)

		claims, err := Parse(token, kind)
		require.NoError(t, err, "parse %s", kind)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, kind, claims.Kind)
		assert.Equal(t, StatusVerified, claims.Verify)
	}
}

func TestParseRejectsCrossKind(t *testing.T) {
	kinds := []Kind{KindAccess, KindRefresh, KindForgotPassword, KindEmailVerify}
	for _, issued := range kinds {
		token, err := Sign("user-1", issued, StatusUnverified, time.Minute)
		require.NoError(t, err)

		for _, verifyAs := range kinds {
			if verifyAs == issued {
				continue
			}
			_, err := Parse(token, verifyAs)
			assert.ErrorIs(t, err, ErrMalformed, "kind %s verified as %s", issued, verifyAs)
		}
	}
}

func TestParseExpired(t *testing.T) {
	token, err := SignWithExpiry("user-1", KindAccess, StatusVerified, time.Now().Add(-time.Second))
	require.NoError(t, err)

	_, err = Parse(token, KindAccess)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse("not-a-token", KindAccess)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse("", KindRefresh)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSignWithExpiryPreservesExpiry(t *testing.T) {
	exp := time.Now().Add(90 * 24 * time.Hour).Truncate(time.Second)
	token, err := SignWithExpiry("user-1", KindRefresh, StatusVerified, exp)
	require.NoError(t, err)

	claims, err := Parse(token, KindRefresh)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Time.Equal(exp))
}
