package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexus_server/core/domain"
	"nexus_server/pkg/apperr"
	"nexus_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const sessionLocal = "session"

var ErrNoSession = errors.New("no session")

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	Secret     string
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Sessions issues and verifies the HS256-signed session cookie that carries
// the signed-in user's profile.
type Sessions struct {
	cfg SessionConfig
	now func() time.Time
}

type sessionClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func NewSessions(cfg SessionConfig) *Sessions {
	if cfg.CookieName == "" {
		cfg.CookieName = "session"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 14 * 24 * time.Hour
	}
	return &Sessions{cfg: cfg, now: time.Now}
}

// Sign returns a session token for profile.
func (s *Sessions) Sign(p *domain.SessionProfile) (string, error) {
	if p == nil || p.Email == "" {
		return "", errors.New("session profile requires an email")
	}
	now := s.now()
	claims := sessionClaims{
		Name:    p.Name,
		Picture: p.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.MaxAge)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

// Parse verifies a session token and returns its profile.
func (s *Sessions) Parse(token string) (*domain.SessionProfile, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("invalid session: missing subject")
	}

	return &domain.SessionProfile{
		Email:   claims.Subject,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Issue signs profile and sets the session cookie.
func (s *Sessions) Issue(c *fiber.Ctx, p *domain.SessionProfile) error {
	token, err := s.Sign(p)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Load reads the session cookie when present. Requests without a valid
// session pass through unauthenticated.
func (s *Sessions) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(s.cfg.CookieName)
		if raw == "" {
			return c.Next()
		}

		profile, err := s.Parse(raw)
		if err != nil {
			logger.WithContext(c.UserContext()).WithError(err).Debug("[Sessions.Load] ignoring session cookie")
			return c.Next()
		}

		c.Locals(sessionLocal, profile)
		c.SetUserContext(context.WithValue(c.UserContext(), logger.UserKey, profile.Email))
		return c.Next()
	}
}

// Require rejects requests that carry no valid session.
func Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		if _, ok := SessionFrom(c); !ok {
			return apperr.Unauthorized("Not authenticated")
		}
		return c.Next()
	}
}

// SessionFrom returns the profile stored by Load.
func SessionFrom(c *fiber.Ctx) (*domain.SessionProfile, bool) {
	p, ok := c.Locals(sessionLocal).(*domain.SessionProfile)
	return p, ok && p != nil
}
