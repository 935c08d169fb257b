package models

import "time"

// RefreshTokenModel is a refresh ledger row. A refresh token that verifies
// cryptographically but has no row here is revoked. The model deliberately
// carries no DeletedAt: revocation must remove the row outright, a tombstone
// would keep the token's slot in the unique index occupied and break
// re-issuing an identical token string.
type RefreshTokenModel struct {
	ID        uint64    `json:"-"          gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"index;not null"`
	Token     string    `json:"-"          gorm:"type:varchar(768);uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created"`
}

func (RefreshTokenModel) TableName() string { return "refresh_tokens" }
