package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/apperr"
	"nexus_server/pkg/logger"
)

const stateTTL = 10 * time.Minute

// UserUpserter stores the tokens issued by a successful login.
type UserUpserter interface {
	UpsertUser(ctx context.Context, email, accessToken, refreshToken string) (*domain.User, error)
}

// Service drives the OAuth login and callback.
type Service struct {
	idp    out.IdentityProvider
	states out.OAuthStateStore
	users  UserUpserter
}

func NewService(idp out.IdentityProvider, states out.OAuthStateStore, users UserUpserter) *Service {
	return &Service{idp: idp, states: states, users: users}
}

// LoginURL issues a one-time state and returns the provider consent URL.
func (s *Service) LoginURL(ctx context.Context) (string, error) {
	state, err := newState()
	if err != nil {
		return "", apperr.InternalWithError(err)
	}
	if err := s.states.Save(ctx, state, stateTTL); err != nil {
		return "", apperr.InternalWithError(fmt.Errorf("save oauth state: %w", err))
	}
	return s.idp.AuthCodeURL(state), nil
}

// Callback validates state, exchanges code and stores the user's tokens.
func (s *Service) Callback(ctx context.Context, code, state string) (*domain.SessionProfile, error) {
	if code == "" {
		return nil, apperr.MissingField("code")
	}
	if err := s.states.Consume(ctx, state); err != nil {
		if errors.Is(err, out.ErrStateNotFound) {
			return nil, apperr.InvalidState()
		}
		return nil, apperr.InternalWithError(err)
	}

	tok, err := s.idp.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.OAuthFailed("google", err)
	}
	if tok.Email == "" {
		return nil, apperr.OAuthFailed("google", errors.New("identity provider returned no email"))
	}

	if _, err := s.users.UpsertUser(ctx, tok.Email, tok.AccessToken, tok.RefreshToken); err != nil {
		return nil, apperr.DatabaseError("upsert user", err)
	}

	logger.WithContext(ctx).WithField("refresh_token_issued", tok.RefreshToken != "").
		Info("[AuthService.Callback] user %s signed in", tok.Email)

	return &domain.SessionProfile{Email: tok.Email, Name: tok.Name, Picture: tok.Picture}, nil
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
