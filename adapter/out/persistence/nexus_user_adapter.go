package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nexus_server/core/domain"

	"github.com/jmoiron/sqlx"
)

// UserAdapter implements out.UserRepository using PostgreSQL.
type UserAdapter struct {
	db *sqlx.DB
}

func NewUserAdapter(db *sqlx.DB) *UserAdapter {
	return &UserAdapter{db: db}
}

const userColumns = `id, email, encrypted_access_token, encrypted_refresh_token, created_at, updated_at`

func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	if err := a.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Upsert keeps the stored refresh token when encryptedRefresh is nil.
func (a *UserAdapter) Upsert(ctx context.Context, email, encryptedAccess string, encryptedRefresh *string) (*domain.User, error) {
	var u domain.User
	query := `
		INSERT INTO users (email, encrypted_access_token, encrypted_refresh_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			encrypted_access_token = EXCLUDED.encrypted_access_token,
			encrypted_refresh_token = COALESCE(EXCLUDED.encrypted_refresh_token, users.encrypted_refresh_token),
			updated_at = NOW()
		RETURNING ` + userColumns

	if err := a.db.GetContext(ctx, &u, query, email, encryptedAccess, encryptedRefresh); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}
