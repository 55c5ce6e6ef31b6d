package out

import (
	"context"

	"nexus_server/core/domain"

	"github.com/google/uuid"
)

// UserRepository persists users and their encrypted credentials.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Upsert inserts or updates by email. A nil refresh token keeps the stored one.
	Upsert(ctx context.Context, email, encryptedAccess string, encryptedRefresh *string) (*domain.User, error)
}

// InterviewRepository persists extracted interviews.
type InterviewRepository interface {
	// InsertIfAbsent writes iv unless a row with the same dedup key exists.
	// It reports whether a row was written and fills iv.ID/CreatedAt when it was.
	InsertIfAbsent(ctx context.Context, iv *domain.Interview) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Interview, error)
}

// SyncRunRepository records detached sync runs.
type SyncRunRepository interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Finish(ctx context.Context, run *domain.SyncRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error)
	ListByEmail(ctx context.Context, email string, limit int) ([]*domain.SyncRun, error)
}
