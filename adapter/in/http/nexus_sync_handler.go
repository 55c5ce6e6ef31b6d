package http

import (
	"errors"

	"nexus_server/core/domain"
	"nexus_server/core/port/in"
	"nexus_server/core/port/out"
	"nexus_server/infra/middleware"
	"nexus_server/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const syncStartedMessage = "Syncing with email server..."

type SyncHandler struct {
	sync in.SyncService
}

func NewSyncHandler(sync in.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

func (h *SyncHandler) Register(app fiber.Router) {
	group := app.Group("/sync-emails", middleware.Require())
	group.Post("/", h.Start)
	group.Get("/runs", h.Runs)
	group.Get("/runs/:id", h.Run)
}

// Start queues a sync and returns before it runs.
func (h *SyncHandler) Start(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	run, err := h.sync.Start(c.UserContext(), user.Email)
	if err != nil {
		if errors.Is(err, out.ErrQueueClosed) {
			return apperr.Wrap(err, "SERVICE_UNAVAILABLE", "sync workers are not accepting jobs", fiber.StatusServiceUnavailable)
		}
		return apperr.DatabaseError("start sync", err)
	}

	return c.JSON(MessageResponse{Message: syncStartedMessage, RunID: run.ID.String()})
}

func (h *SyncHandler) Runs(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	runs, err := h.sync.Runs(c.UserContext(), user.Email, c.QueryInt("limit", 0))
	if err != nil {
		return apperr.DatabaseError("list sync runs", err)
	}
	if runs == nil {
		runs = []*domain.SyncRun{}
	}
	return c.JSON(runs)
}

func (h *SyncHandler) Run(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.BadRequest("invalid run id")
	}

	run, err := h.sync.Run(c.UserContext(), user.Email, id)
	if err != nil {
		if errors.Is(err, domain.ErrSyncRunNotFound) {
			return apperr.NotFound("sync run")
		}
		return apperr.DatabaseError("get sync run", err)
	}
	return c.JSON(run)
}
