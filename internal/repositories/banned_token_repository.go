package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

type BannedTokenRepository interface {
	Exists(ctx context.Context, token string) (bool, error)
	Insert(ctx context.Context, token string) error
}

type bannedTokenRepository struct {
	DB *sql.DB
}

func NewBannedTokenRepository(db *sql.DB) BannedTokenRepository {
	return &bannedTokenRepository{DB: db}
}

func (r *bannedTokenRepository) Exists(ctx context.Context, token string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM jwt_banned_tokens WHERE token = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, q, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("check banned token: %w", err)
	}
	return exists, nil
}

// Insert is a no-op for a token that is already banned.
func (r *bannedTokenRepository) Insert(ctx context.Context, token string) error {
	const q = `
		INSERT INTO jwt_banned_tokens (token, created_at)
		SELECT $1, now()
		WHERE NOT EXISTS (SELECT 1 FROM jwt_banned_tokens WHERE token = $1)
	`
	if _, err := r.DB.ExecContext(ctx, q, token); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert banned token: %w", err)
	}
	return nil
}
