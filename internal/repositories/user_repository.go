package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"athleteapi/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `id, phone, nickname, deleted_at, created_at, updated_at`

// Create inserts user and fills in the stored fields. A non-zero user.ID is
// written as is; otherwise the database assigns one. A phone already held by
// an active user yields ErrDuplicatePhone.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	var row *sql.Row
	if user.ID > 0 {
		const q = `
			INSERT INTO users (id, phone, nickname, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			RETURNING ` + userColumns
		row = r.DB.QueryRowContext(ctx, q, user.ID, user.Phone, user.Nickname)
	} else {
		const q = `
			INSERT INTO users (phone, nickname, created_at, updated_at)
			VALUES ($1, $2, now(), now())
			RETURNING ` + userColumns
		row = r.DB.QueryRowContext(ctx, q, user.Phone, user.Nickname)
	}

	if err := scanUser(row, user); err != nil {
		if isUniqueViolation(err) && user.Phone != nil {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	var u models.User
	if err := scanUser(r.DB.QueryRowContext(ctx, q, id), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// FindByPhone ignores soft-deleted users.
func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		WHERE phone = $1 AND deleted_at IS NULL
		ORDER BY id
		LIMIT 1
	`
	var u models.User
	if err := scanUser(r.DB.QueryRowContext(ctx, q, phone), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return &u, nil
}

func scanUser(row *sql.Row, u *models.User) error {
	var (
		phone     sql.NullString
		nickname  sql.NullString
		deletedAt sql.NullTime
	)
	if err := row.Scan(&u.ID, &phone, &nickname, &deletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	u.Phone, u.Nickname, u.DeletedAt = nil, nil, nil
	if phone.Valid {
		s := phone.String
		u.Phone = &s
	}
	if nickname.Valid {
		s := nickname.String
		u.Nickname = &s
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return nil
}
