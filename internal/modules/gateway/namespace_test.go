package gateway

import (
	"testing"
	"time"

	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return &Hub{table: NewSessionTable(), logger: zap.NewNop()}
}

func TestAuthorizeMissingToken(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{id: "s1"}

	_, err := hub.authorize(conn, "")
	assert.ErrorIs(t, err, jwtpkg.ErrMalformed)
	assert.Equal(t, []string{eventError}, conn.events)
}

func TestAuthorizeRejectsExpiredToken(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{id: "s1"}

	token, err := jwtpkg.SignWithExpiry("u1", jwtpkg.KindAccess, jwtpkg.StatusVerified, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	// An access token that lapses mid-connection fails this same check on the
	// next message, which is what forces the close.
	_, err = hub.authorize(conn, token)
	assert.ErrorIs(t, err, jwtpkg.ErrExpired)
	assert.Equal(t, []string{eventError}, conn.events)
}

func TestAuthorizeRejectsUnverifiedAccount(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{id: "s1"}

	token, err := jwtpkg.Sign("u1", jwtpkg.KindAccess, jwtpkg.StatusUnverified, time.Minute)
	require.NoError(t, err)

	_, err = hub.authorize(conn, token)
	assert.ErrorIs(t, err, jwtpkg.ErrMalformed)
	assert.Equal(t, []string{eventError}, conn.events)
}

func TestAuthorizeRejectsOtherTokenKinds(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{id: "s1"}

	token, err := jwtpkg.Sign("u1", jwtpkg.KindRefresh, jwtpkg.StatusVerified, time.Minute)
	require.NoError(t, err)

	_, err = hub.authorize(conn, token)
	assert.Error(t, err)
	assert.Equal(t, []string{eventError}, conn.events)
}

func TestAuthorizeAcceptsVerifiedToken(t *testing.T) {
	hub := newTestHub()
	conn := &fakeConn{id: "s1"}

	token, err := jwtpkg.Sign("u1", jwtpkg.KindAccess, jwtpkg.StatusVerified, time.Minute)
	require.NoError(t, err)

	claims, err := hub.authorize(conn, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Empty(t, conn.events)
}

func TestAuthPayloadToken(t *testing.T) {
	assert.Equal(t, "abc", authPayloadToken(map[string]interface{}{"Authorization": "abc"}))
	assert.Equal(t, "abc", authPayloadToken(map[string]interface{}{"authorization": " abc "}))
	assert.Equal(t, "abc", authPayloadToken(map[string]interface{}{"token": "abc"}))
	assert.Empty(t, authPayloadToken(map[string]interface{}{"token": 42}))
	assert.Empty(t, authPayloadToken(nil))
	assert.Empty(t, authPayloadToken("Bearer abc"))
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", normalizeToken("Bearer abc"))
	assert.Equal(t, "abc", normalizeToken("bearer abc"))
	assert.Equal(t, "abc", normalizeToken("  abc  "))
	assert.Empty(t, normalizeToken(""))
}
