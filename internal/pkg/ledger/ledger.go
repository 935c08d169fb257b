package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/chirp-social/core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound reports a token with no ledger row. Signature validity alone is
// never enough: absence here is how logout and rotation revoke a token.
var ErrNotFound = errors.New("refresh token not found in ledger")

// Ledger is the persisted record of currently-valid refresh tokens.
type Ledger interface {
	Insert(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindByToken(ctx context.Context, token string) (*models.RefreshTokenModel, error)
	// DeleteByToken reports whether a row was removed. Deleting an absent
	// token is not an error; logout is idempotent at this layer.
	DeleteByToken(ctx context.Context, token string) (bool, error)
	// Rotate atomically replaces oldToken with newToken. When the old row is
	// already gone (a racing refresh won) it fails with ErrNotFound and
	// writes nothing.
	Rotate(ctx context.Context, oldToken, userID, newToken string, expiresAt time.Time) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// Store is the gorm-backed Ledger.
type Store struct{ db *gorm.DB }

func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, userID, token string, expiresAt time.Time) error {
	rec := models.RefreshTokenModel{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
	}
	// Token strings resolve at second precision, so two logins by the same
	// user within one second mint byte-identical tokens. Both sessions then
	// share a single ledger row; the duplicate insert is a no-op.
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "token"}}, DoNothing: true}).
		Create(&rec).Error
}

func (s *Store) FindByToken(ctx context.Context, token string) (*models.RefreshTokenModel, error) {
	var rec models.RefreshTokenModel
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Store) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshTokenModel{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Rotate(ctx context.Context, oldToken, userID, newToken string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", oldToken).Delete(&models.RefreshTokenModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		rec := models.RefreshTokenModel{
			UserID:    userID,
			Token:     newToken,
			ExpiresAt: expiresAt,
		}
		return tx.Create(&rec).Error
	})
}

// PurgeExpired removes rows past their expiry. MySQL has no TTL index, so the
// cron scheduler calls this periodically.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.RefreshTokenModel{})
	return res.RowsAffected, res.Error
}
