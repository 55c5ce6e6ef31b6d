package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexus_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SyncRunAdapter implements out.SyncRunRepository using PostgreSQL.
type SyncRunAdapter struct {
	db *sqlx.DB
}

func NewSyncRunAdapter(db *sqlx.DB) *SyncRunAdapter {
	return &SyncRunAdapter{db: db}
}

const syncRunColumns = `id, user_email, status, reason, messages_scanned, interviews_created,
	duplicates_skipped, extraction_failures, created_at, started_at, finished_at`

func (a *SyncRunAdapter) Create(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_runs (id, user_email, status, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := a.db.ExecContext(ctx, query, run.ID, run.UserEmail, string(run.Status), run.CreatedAt); err != nil {
		return fmt.Errorf("create sync run: %w", err)
	}
	return nil
}

func (a *SyncRunAdapter) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sync_runs SET status = $2, started_at = NOW() WHERE id = $1`

	res, err := a.db.ExecContext(ctx, query, id, string(domain.SyncStatusRunning))
	if err != nil {
		return fmt.Errorf("mark sync run running: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSyncRunNotFound
	}
	return nil
}

func (a *SyncRunAdapter) Finish(ctx context.Context, run *domain.SyncRun) error {
	query := `
		UPDATE sync_runs SET
			status = $2,
			reason = $3,
			messages_scanned = $4,
			interviews_created = $5,
			duplicates_skipped = $6,
			extraction_failures = $7,
			started_at = COALESCE(started_at, $8),
			finished_at = $9
		WHERE id = $1`

	res, err := a.db.ExecContext(ctx, query,
		run.ID, string(run.Status), run.Reason,
		run.MessagesScanned, run.InterviewsCreated, run.DuplicatesSkipped, run.ExtractionFailures,
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish sync run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSyncRunNotFound
	}
	return nil
}

func (a *SyncRunAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncRun, error) {
	var run domain.SyncRun
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = $1`

	if err := a.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSyncRunNotFound
		}
		return nil, fmt.Errorf("get sync run: %w", err)
	}
	return &run, nil
}

func (a *SyncRunAdapter) ListByEmail(ctx context.Context, email string, limit int) ([]*domain.SyncRun, error) {
	runs := []*domain.SyncRun{}
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE user_email = $1 ORDER BY created_at DESC LIMIT $2`

	if err := a.db.SelectContext(ctx, &runs, query, email, limit); err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
