package worker

import (
	"context"
	"errors"
	"fmt"

	"nexus_server/pkg/logger"
)

// ErrUnknownJob is returned for message types no processor handles.
var ErrUnknownJob = errors.New("unknown job type")

type Handler struct {
	syncProcessor *SyncProcessor
}

func NewHandler(syncProcessor *SyncProcessor) *Handler {
	return &Handler{syncProcessor: syncProcessor}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	logger.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	case JobInterviewSync:
		return h.syncProcessor.ProcessSync(ctx, msg)
	default:
		logger.Warn("Unknown job type: %s", msg.Type)
		return fmt.Errorf("%w: %s", ErrUnknownJob, msg.Type)
	}
}
