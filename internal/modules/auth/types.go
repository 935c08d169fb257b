package auth

import (
	"errors"
	"time"
)

type LoginDTO struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Name            string     `json:"name"             binding:"required,min=1,max=100"`
	Email           string     `json:"email"            binding:"required,email"`
	Password        string     `json:"password"         binding:"required,min=6,max=50"`
	ConfirmPassword string     `json:"confirm_password" binding:"required,eqfield=Password"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	ForgotPasswordToken string `json:"forgot_password_token" binding:"required"`
	Password            string `json:"password"              binding:"required,min=6,max=50"`
	ConfirmPassword     string `json:"confirm_password"      binding:"required,eqfield=Password"`
}

type ChangePasswordDTO struct {
	OldPassword     string `json:"old_password"     binding:"required"`
	Password        string `json:"password"         binding:"required,min=6,max=50"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// tokenPair is the access/refresh pair returned by every issuing operation.
type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var (
	errCredentialMismatch  = errors.New("email or password is incorrect")
	errEmailTaken          = errors.New("email already in use")
	errUserNotFound        = errors.New("user not found")
	errTokenMismatch       = errors.New("token does not match the latest issued one")
	errAlreadyVerified     = errors.New("email already verified")
	errOldPasswordMismatch = errors.New("old password is incorrect")
	errEmailNotTrusted     = errors.New("oauth email is not verified by the provider")
)
