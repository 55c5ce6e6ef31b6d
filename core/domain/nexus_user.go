package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User owns the encrypted OAuth credentials for one mailbox.
type User struct {
	ID                    int64     `json:"id" db:"id"`
	Email                 string    `json:"email" db:"email"`
	EncryptedAccessToken  string    `json:"-" db:"encrypted_access_token"`
	EncryptedRefreshToken *string   `json:"-" db:"encrypted_refresh_token"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// HasRefreshToken reports whether a refresh token has ever been stored.
func (u *User) HasRefreshToken() bool {
	return u.EncryptedRefreshToken != nil && *u.EncryptedRefreshToken != ""
}

// SessionProfile is the identity carried in the signed session cookie.
type SessionProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}
