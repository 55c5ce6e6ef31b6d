// Package response writes the API's JSON error envelope.
package response

import (
	"time"

	"nexus_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// RequestID returns the id stored by the request id middleware.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}

// Error writes an error envelope.
func Error(c *fiber.Ctx, status int, code, message string) error {
	return write(c, status, ErrorDetail{Code: code, Message: message})
}

// AppError writes err's envelope. Non-AppErrors become a generic 500.
func AppError(c *fiber.Ctx, err error) error {
	if !apperr.IsAppError(err) {
		return Error(c, fiber.StatusInternalServerError, apperr.CodeInternalError, "An unexpected error occurred")
	}
	e := apperr.AsAppError(err)
	return write(c, e.Status, ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, apperr.CodeUnauthorized, message)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, apperr.CodeBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, apperr.CodeNotFound, message)
}

func write(c *fiber.Ctx, status int, detail ErrorDetail) error {
	return c.Status(status).JSON(ErrorResponse{
		Success:   false,
		Error:     detail,
		RequestID: RequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// CodeForStatus maps a bare HTTP status to an error code.
func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return apperr.CodeBadRequest
	case fiber.StatusUnauthorized:
		return apperr.CodeUnauthorized
	case fiber.StatusNotFound:
		return apperr.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadGateway, fiber.StatusServiceUnavailable, fiber.StatusGatewayTimeout:
		return "SERVICE_UNAVAILABLE"
	case fiber.StatusInternalServerError:
		return apperr.CodeInternalError
	default:
		return "UNKNOWN_ERROR"
	}
}
