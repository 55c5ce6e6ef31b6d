package in

import (
	"context"

	"nexus_server/core/domain"

	"github.com/google/uuid"
)

type AuthService interface {
	LoginURL(ctx context.Context) (string, error)
	Callback(ctx context.Context, code, state string) (*domain.SessionProfile, error)
}

type InterviewService interface {
	ListForEmail(ctx context.Context, email string) ([]*domain.Interview, error)
}

type FeedbackService interface {
	Analyze(ctx context.Context, question, answer string) (*domain.Feedback, error)
}

// SyncService starts detached syncs and reports their recorded status.
type SyncService interface {
	Start(ctx context.Context, email string) (*domain.SyncRun, error)
	Runs(ctx context.Context, email string, limit int) ([]*domain.SyncRun, error)
	Run(ctx context.Context, email string, id uuid.UUID) (*domain.SyncRun, error)
}
