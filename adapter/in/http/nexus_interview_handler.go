package http

import (
	"nexus_server/core/domain"
	"nexus_server/core/port/in"
	"nexus_server/infra/middleware"
	"nexus_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type InterviewHandler struct {
	interviews in.InterviewService
	feedback   in.FeedbackService
}

func NewInterviewHandler(interviews in.InterviewService, feedback in.FeedbackService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, feedback: feedback}
}

func (h *InterviewHandler) Register(app fiber.Router) {
	group := app.Group("/interviews")
	group.Get("/", middleware.Require(), h.List)
	group.Post("/analyze-answer", h.AnalyzeAnswer)
}

// List returns the signed-in user's interviews as a bare array.
func (h *InterviewHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	interviews, err := h.interviews.ListForEmail(c.UserContext(), user.Email)
	if err != nil {
		return apperr.DatabaseError("list interviews", err)
	}
	if interviews == nil {
		interviews = []*domain.Interview{}
	}
	return c.JSON(interviews)
}

func (h *InterviewHandler) AnalyzeAnswer(c *fiber.Ctx) error {
	var req domain.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("request body must be JSON with question and answer")
	}

	fb, err := h.feedback.Analyze(c.UserContext(), req.Question, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(fb)
}
