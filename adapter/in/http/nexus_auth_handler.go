package http

import (
	"net/url"
	"strings"

	"nexus_server/core/domain"
	"nexus_server/core/port/in"
	"nexus_server/pkg/apperr"
	"nexus_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// SessionIssuer writes and clears the session cookie.
type SessionIssuer interface {
	Issue(c *fiber.Ctx, p *domain.SessionProfile) error
	Clear(c *fiber.Ctx)
}

type AuthHandler struct {
	auth         in.AuthService
	sessions     SessionIssuer
	frontendURL  string
	redirectPath string
}

func NewAuthHandler(auth in.AuthService, sessions SessionIssuer, frontendURL, redirectPath string) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		sessions:     sessions,
		frontendURL:  strings.TrimRight(frontendURL, "/"),
		redirectPath: redirectPath,
	}
}

func (h *AuthHandler) Register(app fiber.Router) {
	auth := app.Group("/auth")
	auth.Get("/google/login", h.Login)
	auth.Get("/google/callback", h.Callback)
	auth.Post("/logout", h.Logout)
}

// Login redirects the browser to the consent screen.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	target, err := h.auth.LoginURL(c.UserContext())
	if err != nil {
		return err
	}
	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

// Callback completes sign-in and always answers with a redirect to the front end.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if denied := c.Query("error"); denied != "" {
		logger.WithContext(ctx).Warn("[AuthHandler.Callback] provider returned error: %s", denied)
		return h.fail(c, denied)
	}

	profile, err := h.auth.Callback(ctx, c.Query("code"), c.Query("state"))
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("[AuthHandler.Callback] sign-in failed")
		return h.fail(c, strings.ToLower(apperr.AsAppError(err).Code))
	}

	if err := h.sessions.Issue(c, profile); err != nil {
		logger.WithContext(ctx).WithError(err).Error("[AuthHandler.Callback] could not issue session")
		return h.fail(c, "session_error")
	}

	logger.WithContext(ctx).Info("[AuthHandler.Callback] signed in %s", profile.Email)
	return c.Redirect(h.frontendURL+h.redirectPath, fiber.StatusFound)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Clear(c)
	return c.JSON(MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) fail(c *fiber.Ctx, code string) error {
	return c.Redirect(h.frontendURL+"/login?error="+url.QueryEscape(code), fiber.StatusFound)
}
