package middleware

import (
	"errors"
	"strings"

	"github.com/chirp-social/core/internal/models"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

const (
	ContextKeyClaims        = "auth_claims"
	ContextKeyRefreshClaims = "refresh_claims"
	ContextKeyRefreshToken  = "refresh_token"
	ContextKeyTokenClaims   = "single_use_claims"
	ContextKeyTokenRaw      = "single_use_token"
)

// Gatekeeper failure taxonomy. Every check fails fast and short-circuits the
// rest of the chain; none of these are retried.
var (
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrNotVerified     = errors.New("account is not verified")
	ErrAccountNotFound = errors.New("account not found")
)

// AccessToken enforces a bearer access token on the Authorization header and
// attaches the verified claims to the request context. It never touches the
// database: the verification-status snapshot inside the token is trusted
// until the token expires.
func AccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := NormalizeToken(c.GetHeader("Authorization"))
		if token == "" {
			response.UnauthorizedMsg(c, "access token is required")
			return
		}
		claims, err := jwtpkg.Parse(token, jwtpkg.KindAccess)
		if err != nil {
			response.UnauthorizedMsg(c, tokenErrorMessage("access token", err))
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// OptionalAccessToken attaches claims when a valid bearer token is present
// but never blocks the request.
func OptionalAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := NormalizeToken(c.GetHeader("Authorization")); token != "" {
			if claims, err := jwtpkg.Parse(token, jwtpkg.KindAccess); err == nil {
				c.Set(ContextKeyClaims, claims)
			}
		}
		c.Next()
	}
}

// VerifiedOnly rejects requests whose access-token snapshot is not
// "verified". An account verified mid-session keeps failing here until the
// client refreshes its token pair; refresh is the staleness-correction point.
func VerifiedOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil || claims.Verify != jwtpkg.StatusVerified {
			response.ForbiddenMsg(c, ErrNotVerified.Error())
			return
		}
		c.Next()
	}
}

type refreshTokenBody struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken validates the refresh_token body field: presence, signature,
// expiry, and ledger membership. A token that verifies cryptographically but
// is absent from the ledger was logged out or rotated away and is treated as
// revoked. Claims and the raw token are attached to the context so handlers
// never re-read the body.
func RefreshToken(led ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body refreshTokenBody
		_ = c.ShouldBindBodyWith(&body, binding.JSON)
		token := strings.TrimSpace(body.RefreshToken)
		if token == "" {
			response.UnauthorizedMsg(c, "refresh token is required")
			return
		}
		claims, err := jwtpkg.Parse(token, jwtpkg.KindRefresh)
		if err != nil {
			response.UnauthorizedMsg(c, tokenErrorMessage("refresh token", err))
			return
		}
		if _, err := led.FindByToken(c.Request.Context(), token); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				response.UnauthorizedMsg(c, ErrTokenRevoked.Error())
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(ContextKeyRefreshClaims, claims)
		c.Set(ContextKeyRefreshToken, token)
		c.Next()
	}
}

type emailVerifyTokenBody struct {
	EmailVerifyToken string `json:"email_verify_token"`
}

// EmailVerifyToken validates the email_verify_token body field and resolves
// its subject to an existing account. The exact-match check against the
// account's stored single-use value happens in the session authority when the
// token is consumed.
func EmailVerifyToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body emailVerifyTokenBody
		_ = c.ShouldBindBodyWith(&body, binding.JSON)
		claims, ok := parseSingleUseToken(c, body.EmailVerifyToken, "email verify token", jwtpkg.KindEmailVerify)
		if !ok {
			return
		}
		if !accountExists(c, db, claims.UserID) {
			return
		}
		c.Set(ContextKeyTokenClaims, claims)
		c.Set(ContextKeyTokenRaw, strings.TrimSpace(body.EmailVerifyToken))
		c.Next()
	}
}

type forgotPasswordTokenBody struct {
	ForgotPasswordToken string `json:"forgot_password_token"`
}

// ForgotPasswordToken validates the forgot_password_token body field and
// resolves its subject to an existing account.
func ForgotPasswordToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body forgotPasswordTokenBody
		_ = c.ShouldBindBodyWith(&body, binding.JSON)
		claims, ok := parseSingleUseToken(c, body.ForgotPasswordToken, "forgot password token", jwtpkg.KindForgotPassword)
		if !ok {
			return
		}
		if !accountExists(c, db, claims.UserID) {
			return
		}
		c.Set(ContextKeyTokenClaims, claims)
		c.Set(ContextKeyTokenRaw, strings.TrimSpace(body.ForgotPasswordToken))
		c.Next()
	}
}

func parseSingleUseToken(c *gin.Context, raw, label string, kind jwtpkg.Kind) (*jwtpkg.Claims, bool) {
	token := strings.TrimSpace(raw)
	if token == "" {
		response.UnauthorizedMsg(c, label+" is required")
		return nil, false
	}
	claims, err := jwtpkg.Parse(token, kind)
	if err != nil {
		response.UnauthorizedMsg(c, tokenErrorMessage(label, err))
		return nil, false
	}
	return claims, true
}

func accountExists(c *gin.Context, db *gorm.DB, userID string) bool {
	var count int64
	if err := db.WithContext(c.Request.Context()).
		Model(&models.UserModel{}).
		Where("id = ?", userID).
		Count(&count).Error; err != nil {
		response.InternalError(c, err)
		return false
	}
	if count == 0 {
		response.NotFoundMsg(c, ErrAccountNotFound.Error())
		return false
	}
	return true
}

// tokenErrorMessage distinguishes expiry from malformation for client
// messaging; both travel the same 401 path.
func tokenErrorMessage(label string, err error) string {
	if errors.Is(err, jwtpkg.ErrExpired) {
		return label + " is expired"
	}
	return label + " is invalid"
}

// CurrentClaims returns the access-token claims attached by AccessToken.
func CurrentClaims(c *gin.Context) *jwtpkg.Claims {
	v, _ := c.Get(ContextKeyClaims)
	claims, _ := v.(*jwtpkg.Claims)
	return claims
}

// RefreshClaims returns the refresh-token claims attached by RefreshToken.
func RefreshClaims(c *gin.Context) *jwtpkg.Claims {
	v, _ := c.Get(ContextKeyRefreshClaims)
	claims, _ := v.(*jwtpkg.Claims)
	return claims
}

// RawRefreshToken returns the refresh token string attached by RefreshToken.
func RawRefreshToken(c *gin.Context) string {
	v, _ := c.Get(ContextKeyRefreshToken)
	token, _ := v.(string)
	return token
}

// SingleUseClaims returns claims attached by EmailVerifyToken or
// ForgotPasswordToken.
func SingleUseClaims(c *gin.Context) *jwtpkg.Claims {
	v, _ := c.Get(ContextKeyTokenClaims)
	claims, _ := v.(*jwtpkg.Claims)
	return claims
}

// SingleUseToken returns the raw token string attached alongside
// SingleUseClaims, for exact-match checks against the stored value.
func SingleUseToken(c *gin.Context) string {
	v, _ := c.Get(ContextKeyTokenRaw)
	token, _ := v.(string)
	return token
}

// CurrentUserID extracts the authenticated subject id from context.
func CurrentUserID(c *gin.Context) string {
	if claims := CurrentClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// IsAuthenticated reports whether the request carries a valid access token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
