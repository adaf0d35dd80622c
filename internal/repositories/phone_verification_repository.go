package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"athleteapi/internal/models"
)

type PhoneVerificationRepository interface {
	Create(ctx context.Context, requestID, phone string) (*models.PhoneVerification, error)
	GetLatestByRequestID(ctx context.Context, requestID string) (*models.PhoneVerification, error)
}

type phoneVerificationRepository struct {
	DB *sql.DB
}

func NewPhoneVerificationRepository(db *sql.DB) PhoneVerificationRepository {
	return &phoneVerificationRepository{DB: db}
}

func (r *phoneVerificationRepository) Create(ctx context.Context, requestID, phone string) (*models.PhoneVerification, error) {
	const q = `
		INSERT INTO phone_verifications (request_id, phone, created_at)
		VALUES ($1, $2, now())
		RETURNING id, request_id, phone, created_at
	`
	var v models.PhoneVerification
	if err := r.DB.QueryRowContext(ctx, q, requestID, phone).Scan(
		&v.ID, &v.RequestID, &v.Phone, &v.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("create phone verification: %w", err)
	}
	return &v, nil
}

// GetLatestByRequestID returns the newest attempt, ties broken by id.
func (r *phoneVerificationRepository) GetLatestByRequestID(ctx context.Context, requestID string) (*models.PhoneVerification, error) {
	const q = `
		SELECT id, request_id, phone, created_at
		FROM phone_verifications
		WHERE request_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var v models.PhoneVerification
	if err := r.DB.QueryRowContext(ctx, q, requestID).Scan(
		&v.ID, &v.RequestID, &v.Phone, &v.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest phone verification: %w", err)
	}
	return &v, nil
}
