package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	dErrors "guestlist/pkg/domain-errors"
	"guestlist/pkg/platform/sentinel"
)

// Facts reported by identity providers. Transport failures wrap
// sentinel.ErrUnavailable instead.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = fmt.Errorf("token %w", sentinel.ErrExpired)
)

// MsgMissingCredentials is returned when login omits email or password.
const MsgMissingCredentials = "Email y contraseña son obligatorios."

// Identity is the organizer behind a verified session token.
type Identity struct {
	Subject string
	Email   string
}

// Session is an access token issued by the identity provider.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email  string `json:"email"`
	Passwd string `json:"passwd"`
}

// Validate trims the email and requires both fields. The password is left
// untouched.
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" || r.Passwd == "" {
		return dErrors.New(dErrors.CodeValidation, MsgMissingCredentials)
	}
	return nil
}
