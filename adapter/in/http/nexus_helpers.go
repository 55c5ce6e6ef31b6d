package http

import (
	"nexus_server/core/domain"
	"nexus_server/infra/middleware"
	"nexus_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// currentUser returns the signed-in profile or an unauthorized error.
func currentUser(c *fiber.Ctx) (*domain.SessionProfile, error) {
	p, ok := middleware.SessionFrom(c)
	if !ok {
		return nil, apperr.Unauthorized("Not authenticated")
	}
	return p, nil
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}
