package credential

import (
	"context"
	"errors"
	"fmt"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
)

// Cipher encrypts tokens at rest.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var ErrEmptyToken = errors.New("stored access token is empty")

// Store holds per-user OAuth tokens encrypted at rest.
type Store struct {
	users  out.UserRepository
	cipher Cipher
}

func NewStore(users out.UserRepository, cipher Cipher) *Store {
	return &Store{users: users, cipher: cipher}
}

// GetUser returns domain.ErrUserNotFound when email has never logged in.
func (s *Store) GetUser(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

// UpsertUser stores fresh tokens for email. An empty refreshToken keeps
// whatever refresh token was stored by an earlier login.
func (s *Store) UpsertUser(ctx context.Context, email, accessToken, refreshToken string) (*domain.User, error) {
	if email == "" {
		return nil, fmt.Errorf("upsert user: empty email")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("upsert user %s: empty access token", email)
	}

	encAccess, err := s.cipher.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}

	var encRefresh *string
	if refreshToken != "" {
		v, err := s.cipher.Encrypt(refreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt refresh token: %w", err)
		}
		encRefresh = &v
	}

	return s.users.Upsert(ctx, email, encAccess, encRefresh)
}

// DecryptAccessToken fails if the ciphertext is malformed or was sealed with another key.
func (s *Store) DecryptAccessToken(u *domain.User) (string, error) {
	token, err := s.cipher.Decrypt(u.EncryptedAccessToken)
	if err != nil {
		return "", fmt.Errorf("decrypt access token for %s: %w", u.Email, err)
	}
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
