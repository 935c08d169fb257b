package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/chirp-social/core/internal/models"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GET /auth/oauth/google?code=...
//
// Completes the Google authorization-code flow and redirects back to the
// client with a freshly issued token pair. First sight of an email creates a
// verified account; the provider already proved mailbox ownership.
func (h *Handler) oauthGoogle(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, "missing code")
		return
	}
	g := h.oauth.Google
	if g.ClientID == "" || g.ClientSecret == "" {
		response.NotFoundMsg(c, "google oauth is not configured")
		return
	}

	accessToken, err := exchangeGoogleCode(code, g.ClientID, g.ClientSecret, g.RedirectURI)
	if err != nil {
		response.InternalError(c, fmt.Errorf("token exchange failed: %w", err))
		return
	}
	info, err := fetchGoogleUser(accessToken)
	if err != nil {
		response.InternalError(c, fmt.Errorf("failed to fetch user info: %w", err))
		return
	}

	pair, newUser, err := h.svc.OAuthGoogle(c.Request.Context(), info)
	if err != nil {
		if errors.Is(err, errEmailNotTrusted) {
			response.ForbiddenMsg(c, errEmailNotTrusted.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	params := url.Values{}
	params.Set("access_token", pair.AccessToken)
	params.Set("refresh_token", pair.RefreshToken)
	params.Set("new_user", strconv.FormatBool(newUser))
	c.Redirect(http.StatusTemporaryRedirect, g.ClientRedirect+"?"+params.Encode())
}

// OAuthGoogle logs in (or registers) the account behind a Google identity.
func (s *Service) OAuthGoogle(ctx context.Context, info *googleUserInfo) (*tokenPair, bool, error) {
	if !info.VerifiedEmail {
		return nil, false, errEmailNotTrusted
	}

	var u models.UserModel
	err := s.db.WithContext(ctx).
		Select("id, verify").
		Where("email = ?", info.Email).
		First(&u).Error
	if err == nil {
		pair, issueErr := s.issuePair(ctx, u.ID, u.Verify)
		return pair, false, issueErr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// The account gets a random password; it can be replaced later through
	// the forgot-password flow.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, err
	}
	id := uuid.New().String()
	u = models.UserModel{
		Base:     models.Base{ID: id},
		Name:     info.Name,
		Email:    info.Email,
		Username: "user" + id[:8],
		Password: string(hash),
		Verify:   jwtpkg.StatusVerified,
		Avatar:   info.Picture,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, false, err
	}

	pair, err := s.issuePair(ctx, id, jwtpkg.StatusVerified)
	return pair, true, err
}

func exchangeGoogleCode(code, clientID, clientSecret, redirectURI string) (string, error) {
	body := url.Values{}
	body.Set("code", code)
	body.Set("client_id", clientID)
	body.Set("client_secret", clientSecret)
	body.Set("redirect_uri", redirectURI)
	body.Set("grant_type", "authorization_code")

	req, _ := http.NewRequest("POST", "https://oauth2.googleapis.com/token", bytes.NewBufferString(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("google: %s", result.Error)
	}
	return result.AccessToken, nil
}

func fetchGoogleUser(accessToken string) (*googleUserInfo, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var u googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
