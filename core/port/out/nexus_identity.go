package out

import (
	"context"
	"errors"
	"time"
)

var ErrStateNotFound = errors.New("oauth state not found")

// IdentityProvider performs the OAuth authorization code flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*IdentityToken, error)
}

// IdentityToken is the result of a successful code exchange.
type IdentityToken struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	Email        string
	Name         string
	Picture      string
}

// OAuthStateStore keeps issued CSRF states until they are consumed once.
type OAuthStateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume deletes state and returns ErrStateNotFound if it was never issued or has expired.
	Consume(ctx context.Context, state string) error
}
