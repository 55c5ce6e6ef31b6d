package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexus_server/core/domain"

	"github.com/jmoiron/sqlx"
)

// InterviewAdapter implements out.InterviewRepository using PostgreSQL.
// Deduplication relies on the interviews_dedup_key unique constraint.
type InterviewAdapter struct {
	db *sqlx.DB
}

func NewInterviewAdapter(db *sqlx.DB) *InterviewAdapter {
	return &InterviewAdapter{db: db}
}

func (a *InterviewAdapter) InsertIfAbsent(ctx context.Context, iv *domain.Interview) (bool, error) {
	query := `
		INSERT INTO interviews (user_id, company_name, role_title, interview_date, interview_type, source_message_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, company_name, role_title) DO NOTHING
		RETURNING id, created_at`

	typ := iv.InterviewType
	if typ == "" {
		typ = domain.InterviewUnknown
	}

	err := a.db.QueryRowxContext(ctx, query,
		iv.UserID, iv.CompanyName, iv.RoleTitle, iv.InterviewDate, string(typ), iv.SourceMessageID,
	).Scan(&iv.ID, &iv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert interview: %w", err)
	}
	iv.InterviewType = typ
	return true, nil
}

func (a *InterviewAdapter) ListByUser(ctx context.Context, userID int64) ([]*domain.Interview, error) {
	interviews := []*domain.Interview{}
	query := `
		SELECT id, user_id, company_name, role_title, interview_date, interview_type, source_message_id, created_at
		FROM interviews
		WHERE user_id = $1
		ORDER BY interview_date ASC NULLS LAST, id ASC`

	if err := a.db.SelectContext(ctx, &interviews, query, userID); err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return interviews, nil
}
