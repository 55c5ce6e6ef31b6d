package out

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrQueueClosed = errors.New("task queue is not accepting work")

// SyncTask asks a background worker to run one recorded sync.
type SyncTask struct {
	RunID uuid.UUID
	Email string
}

// TaskQueue hands work to background workers without waiting for it.
type TaskQueue interface {
	EnqueueSync(ctx context.Context, task SyncTask) error
}
