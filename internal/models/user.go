package models

import (
	"time"

	"github.com/chirp-social/core/internal/pkg/jwt"
)

// UserModel is an account record. The two single-use token columns hold the
// latest issued email-verify / forgot-password token; a token that no longer
// matches the stored value is stale even when its signature is valid.
type UserModel struct {
	Base
	Name                string           `json:"name"          gorm:"not null"`
	Email               string           `json:"email"         gorm:"uniqueIndex;not null"`
	Username            string           `json:"username"      gorm:"uniqueIndex"`
	Password            string           `json:"-"             gorm:"not null"`
	DateOfBirth         *time.Time       `json:"date_of_birth"`
	Verify              jwt.VerifyStatus `json:"verify"        gorm:"default:0"`
	EmailVerifyToken    string           `json:"-"             gorm:"type:text"`
	ForgotPasswordToken string           `json:"-"             gorm:"type:text"`
	Bio                 string           `json:"bio"`
	Location            string           `json:"location"`
	Website             string           `json:"website"`
	Avatar              string           `json:"avatar"`
	CoverPhoto          string           `json:"cover_photo"`
}

func (UserModel) TableName() string { return "users" }
