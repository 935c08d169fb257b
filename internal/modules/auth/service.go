package auth

import (
	"context"
	"errors"
	"time"

	"github.com/chirp-social/core/internal/config"
	"github.com/chirp-social/core/internal/models"
	jwtpkg "github.com/chirp-social/core/internal/pkg/jwt"
	"github.com/chirp-social/core/internal/pkg/ledger"
	"github.com/chirp-social/core/internal/pkg/mail"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// failDelay slows down credential-guessing loops.
var failDelay = 3 * time.Second

type Service struct {
	db     *gorm.DB
	led    ledger.Ledger
	mailer *mail.Sender
	tokens config.JWTConfig
	logger *zap.Logger
}

type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(db *gorm.DB, led ledger.Ledger, mailer *mail.Sender, tokens config.JWTConfig, opts ...ServiceOption) *Service {
	s := &Service{db: db, led: led, mailer: mailer, tokens: tokens, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, email, password string) (*tokenPair, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Select("id, password, verify").
		Where("email = ?", email).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(failDelay)
			return nil, errCredentialMismatch
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		time.Sleep(failDelay)
		return nil, errCredentialMismatch
	}
	return s.issuePair(ctx, u.ID, u.Verify)
}

func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*tokenPair, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("email = ?", dto.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// The id is minted up front so the verify token can reference it before
	// the row exists.
	id := uuid.New().String()
	verifyToken, err := jwtpkg.Sign(id, jwtpkg.KindEmailVerify, jwtpkg.StatusUnverified, s.tokens.EmailVerifyTTL.Std())
	if err != nil {
		return nil, err
	}

	u := models.UserModel{
		Base:             models.Base{ID: id},
		Name:             dto.Name,
		Email:            dto.Email,
		Username:         "user" + id[:8],
		Password:         string(hash),
		DateOfBirth:      dto.DateOfBirth,
		Verify:           jwtpkg.StatusUnverified,
		EmailVerifyToken: verifyToken,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}

	s.sendMailAsync("verify_email", func() error {
		return s.mailer.SendVerifyEmail(u.Email, u.Name, verifyToken)
	})
	return s.issuePair(ctx, id, jwtpkg.StatusUnverified)
}

// Logout removes the refresh token from the ledger. Logging out an
// already-absent token succeeds; the end state is identical.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	_, err := s.led.DeleteByToken(ctx, refreshToken)
	return err
}

// Refresh exchanges a ledger-resident refresh token for a fresh pair. The
// verified status is re-read from the account row, so a stale snapshot in the
// old token corrects itself here. The new refresh token keeps the old one's
// expiry: rotation never extends a session.
func (s *Service) Refresh(ctx context.Context, claims *jwtpkg.Claims, oldToken string) (*tokenPair, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Select("id, verify").
		Where("id = ?", claims.UserID).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}

	expiresAt := claims.ExpiresAt.Time
	access, err := jwtpkg.Sign(u.ID, jwtpkg.KindAccess, u.Verify, s.tokens.AccessTTL.Std())
	if err != nil {
		return nil, err
	}
	refresh, err := jwtpkg.SignWithExpiry(u.ID, jwtpkg.KindRefresh, u.Verify, expiresAt)
	if err != nil {
		return nil, err
	}
	// Rotate fails with ledger.ErrNotFound when a concurrent refresh already
	// consumed the old token; exactly one caller wins.
	if err := s.led.Rotate(ctx, oldToken, u.ID, refresh, expiresAt); err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyEmail consumes an email-verify token. Only the latest issued token
// matches the stored value; anything older is rejected even though its
// signature still verifies.
func (s *Service) VerifyEmail(ctx context.Context, userID, token string) (*tokenPair, error) {
	var u models.UserModel
	if err := s.loadUser(ctx, userID, &u, "id, verify, email_verify_token"); err != nil {
		return nil, err
	}
	if u.EmailVerifyToken == "" && u.Verify != jwtpkg.StatusUnverified {
		return nil, errAlreadyVerified
	}
	if token != u.EmailVerifyToken {
		return nil, errTokenMismatch
	}

	if err := s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"verify":             jwtpkg.StatusVerified,
			"email_verify_token": "",
		}).Error; err != nil {
		return nil, err
	}
	return s.issuePair(ctx, u.ID, jwtpkg.StatusVerified)
}

// ResendVerifyEmail overwrites the stored verify token with a fresh one,
// invalidating any previously mailed link.
func (s *Service) ResendVerifyEmail(ctx context.Context, userID string) error {
	var u models.UserModel
	if err := s.loadUser(ctx, userID, &u, "id, name, email, verify"); err != nil {
		return err
	}
	if u.Verify == jwtpkg.StatusVerified {
		return errAlreadyVerified
	}

	token, err := jwtpkg.Sign(u.ID, jwtpkg.KindEmailVerify, u.Verify, s.tokens.EmailVerifyTTL.Std())
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Update("email_verify_token", token).Error; err != nil {
		return err
	}

	s.sendMailAsync("verify_email", func() error {
		return s.mailer.SendVerifyEmail(u.Email, u.Name, token)
	})
	return nil
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Select("id, name, email, verify").
		Where("email = ?", email).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errUserNotFound
		}
		return err
	}

	token, err := jwtpkg.Sign(u.ID, jwtpkg.KindForgotPassword, u.Verify, s.tokens.ForgotPasswordTTL.Std())
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Update("forgot_password_token", token).Error; err != nil {
		return err
	}

	s.sendMailAsync("reset_password", func() error {
		return s.mailer.SendResetPassword(u.Email, u.Name, token)
	})
	return nil
}

// CheckForgotPasswordToken reports whether the presented token is the latest
// one mailed out. Used by the pre-reset verification endpoint.
func (s *Service) CheckForgotPasswordToken(ctx context.Context, userID, token string) error {
	var u models.UserModel
	if err := s.loadUser(ctx, userID, &u, "id, forgot_password_token"); err != nil {
		return err
	}
	if u.ForgotPasswordToken == "" || token != u.ForgotPasswordToken {
		return errTokenMismatch
	}
	return nil
}

// ResetPassword consumes the forgot-password token and installs a new
// password hash. Clearing the stored token makes the operation single-use.
func (s *Service) ResetPassword(ctx context.Context, userID, token, password string) error {
	if err := s.CheckForgotPasswordToken(ctx, userID, token); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password":              string(hash),
			"forgot_password_token": "",
		}).Error
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, password string) error {
	var u models.UserModel
	if err := s.loadUser(ctx, userID, &u, "id, password"); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(oldPassword)); err != nil {
		return errOldPasswordMismatch
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("id = ?", userID).
		Update("password", string(hash)).Error
}

// issuePair signs an access/refresh pair carrying the given verified-status
// snapshot and records the refresh token in the ledger.
func (s *Service) issuePair(ctx context.Context, userID string, verify jwtpkg.VerifyStatus) (*tokenPair, error) {
	access, err := jwtpkg.Sign(userID, jwtpkg.KindAccess, verify, s.tokens.AccessTTL.Std())
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.tokens.RefreshTTL.Std())
	refresh, err := jwtpkg.SignWithExpiry(userID, jwtpkg.KindRefresh, verify, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.led.Insert(ctx, userID, refresh, expiresAt); err != nil {
		return nil, err
	}
	return &tokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) loadUser(ctx context.Context, userID string, dst *models.UserModel, fields string) error {
	if err := s.db.WithContext(ctx).
		Select(fields).
		Where("id = ?", userID).
		First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errUserNotFound
		}
		return err
	}
	return nil
}

func (s *Service) sendMailAsync(kind string, send func() error) {
	go func() {
		if err := send(); err != nil {
			s.logger.Warn("mail send failed", zap.String("kind", kind), zap.Error(err))
		}
	}()
}
