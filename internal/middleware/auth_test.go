package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chirp-social/core/internal/models"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func accessRouter(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AccessToken()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		response.OK(c, gin.H{"user_id": CurrentUserID(c)})
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAccessTokenMissingHeader(t *testing.T) {
	w := doGet(accessRouter(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "access token is required")
}

func TestAccessTokenMalformed(t *testing.T) {
	w := doGet(accessRouter(), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid")
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := jwtpkg.SignWithExpiry("u1", jwtpkg.KindAccess, jwtpkg.StatusVerified, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	w := doGet(accessRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAccessTokenRejectsOtherKinds(t *testing.T) {
	token, err := jwtpkg.Sign("u1", jwtpkg.KindEmailVerify, jwtpkg.StatusVerified, time.Minute)
	require.NoError(t, err)

	w := doGet(accessRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccessTokenAttachesClaims(t *testing.T) {
	token, err := jwtpkg.Sign("u1", jwtpkg.KindAccess, jwtpkg.StatusVerified, time.Minute)
	require.NoError(t, err)

	w := doGet(accessRouter(), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestVerifiedOnlyGate(t *testing.T) {
	unverified, err := jwtpkg.Sign("u1", jwtpkg.KindAccess, jwtpkg.StatusUnverified, time.Minute)
	require.NoError(t, err)
	verified, err := jwtpkg.Sign("u1", jwtpkg.KindAccess, jwtpkg.StatusVerified, time.Minute)
	require.NoError(t, err)

	r := accessRouter(VerifiedOnly())

	w := doGet(r, "Bearer "+unverified)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doGet(r, "Bearer "+verified)
	assert.Equal(t, http.StatusOK, w.Code)
}

// fakeLedger holds tokens in memory for middleware tests.
type fakeLedger struct {
	tokens map[string]models.RefreshTokenModel
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{tokens: make(map[string]models.RefreshTokenModel)}
}

func (f *fakeLedger) Insert(_ context.Context, userID, token string, expiresAt time.Time) error {
	f.tokens[token] = models.RefreshTokenModel{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeLedger) FindByToken(_ context.Context, token string) (*models.RefreshTokenModel, error) {
	rec, ok := f.tokens[token]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeLedger) DeleteByToken(_ context.Context, token string) (bool, error) {
	_, ok := f.tokens[token]
	delete(f.tokens, token)
	return ok, nil
}

func (f *fakeLedger) Rotate(_ context.Context, oldToken, userID, newToken string, expiresAt time.Time) error {
	if _, ok := f.tokens[oldToken]; !ok {
		return ledger.ErrNotFound
	}
	delete(f.tokens, oldToken)
	f.tokens[newToken] = models.RefreshTokenModel{UserID: userID, Token: newToken, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeLedger) PurgeExpired(context.Context) (int64, error) { return 0, nil }

func refreshRouter(led ledger.Ledger) *gin.Engine {
	r := gin.New()
	r.POST("/refresh", RefreshToken(led), func(c *gin.Context) {
		response.OK(c, gin.H{"user_id": RefreshClaims(c).UserID, "token": RawRefreshToken(c)})
	})
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/refresh", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRefreshTokenMissing(t *testing.T) {
	w := postJSON(refreshRouter(newFakeLedger()), `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}

func TestRefreshTokenNotInLedger(t *testing.T) {
	token, err := jwtpkg.Sign("u1", jwtpkg.KindRefresh, jwtpkg.StatusVerified, time.Hour)
	require.NoError(t, err)

	w := postJSON(refreshRouter(newFakeLedger()), `{"refresh_token":"`+token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRefreshTokenLedgerResident(t *testing.T) {
	led := newFakeLedger()
	token, err := jwtpkg.Sign("u1", jwtpkg.KindRefresh, jwtpkg.StatusVerified, time.Hour)
	require.NoError(t, err)
	require.NoError(t, led.Insert(context.Background(), "u1", token, time.Now().Add(time.Hour)))

	w := postJSON(refreshRouter(led), `{"refresh_token":"`+token+`"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}
