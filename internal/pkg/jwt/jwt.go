package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Kind identifies which class of token a claim belongs to. Each kind signs
// with its own secret, so a token minted for one kind never verifies as
// another.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
	KindForgotPassword
	KindEmailVerify
)

func (k Kind) String() string {
	switch k {
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	case KindForgotPassword:
		return "forgot_password"
	case KindEmailVerify:
		return "email_verify"
	default:
		return "unknown"
	}
}

// VerifyStatus mirrors the account verification state embedded in a claim at
// issuance time.
type VerifyStatus int

const (
	StatusUnverified VerifyStatus = iota
	StatusVerified
	StatusBanned
)

var (
	// ErrExpired marks a structurally valid token past its expiry.
	ErrExpired = errors.New("token is expired")
	// ErrMalformed marks a token that failed parsing or signature checks.
	ErrMalformed = errors.New("token is malformed")
)

const defaultSecret = "chirp-secret-change-me"

var secrets = map[Kind][]byte{
	KindAccess:         []byte(defaultSecret),
	KindRefresh:        []byte(defaultSecret),
	KindForgotPassword: []byte(defaultSecret),
	KindEmailVerify:    []byte(defaultSecret),
}

// Secrets carries the per-kind signing secrets loaded from config.
type Secrets struct {
	Access         string
	Refresh        string
	ForgotPassword string
	EmailVerify    string
}

// Configure installs the signing secrets (call once on startup). Empty
// entries keep the current secret for that kind.
func Configure(s Secrets) {
	set := func(kind Kind, v string) {
		if v != "" {
			secrets[kind] = []byte(v)
		}
	}
	set(KindAccess, s.Access)
	set(KindRefresh, s.Refresh)
	set(KindForgotPassword, s.ForgotPassword)
	set(KindEmailVerify, s.EmailVerify)
}

// Claims is the JWT payload shared by all token kinds.
type Claims struct {
	UserID string       `json:"user_id"`
	Kind   Kind         `json:"token_type"`
	Verify VerifyStatus `json:"verify"`
	jwtlib.RegisteredClaims
}

// Sign creates a signed token of the given kind expiring after ttl.
func Sign(userID string, kind Kind, verify VerifyStatus, ttl time.Duration) (string, error) {
	return SignWithExpiry(userID, kind, verify, time.Now().Add(ttl))
}

// SignWithExpiry creates a signed token with an explicit expiry. Refresh
// rotation uses this to keep the superseded token's original expiry.
func SignWithExpiry(userID string, kind Kind, verify VerifyStatus, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID: userID,
		Kind:   kind,
		Verify: verify,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secrets[kind])
}

// Parse validates a token string against the secret of the given kind and
// returns its claims. It is pure: no store is consulted, callers layer ledger
// and account checks on top.
func Parse(tokenStr string, kind Kind) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secrets[kind], nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: token kind mismatch", ErrMalformed)
	}
	return claims, nil
}
