package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"athleteapi/internal/logger"
	"athleteapi/internal/models"
	"athleteapi/internal/repositories"
)

type UserService interface {
	FindOrCreateByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	repo  repositories.UserRepository
	group singleflight.Group
	log   *zap.Logger
}

func NewUserService(repo repositories.UserRepository, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, log: log}
}

// FindOrCreateByPhone returns the active user owning phone, creating one if
// needed. Concurrent calls in this process share one lookup; a concurrent
// insert from another process surfaces as ErrDuplicatePhone and is re-read.
// The shared lookup is detached from the caller's cancellation so one caller
// giving up does not fail the others waiting on it.
func (s *userService) FindOrCreateByPhone(ctx context.Context, phone string) (*models.User, error) {
	ch := s.group.DoChan(phone, func() (interface{}, error) {
		return s.findOrCreate(context.WithoutCancel(ctx), phone)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("find or create user: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		u := *res.Val.(*models.User)
		return &u, nil
	}
}

func (s *userService) findOrCreate(ctx context.Context, phone string) (*models.User, error) {
	u, err := s.repo.FindByPhone(ctx, phone)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storageErr("find user by phone", err)
	}

	p := phone
	u = &models.User{Phone: &p}
	err = s.repo.Create(ctx, u)
	switch {
	case err == nil:
		s.log.Info("user created", zap.Int64("user_id", u.ID), zap.String("phone", logger.MaskPhone(phone)))
		return u, nil
	case errors.Is(err, repositories.ErrDuplicatePhone):
		existing, ferr := s.repo.FindByPhone(ctx, phone)
		if ferr != nil {
			return nil, storageErr("re-read user after conflict", ferr)
		}
		return existing, nil
	default:
		return nil, storageErr("create user", err)
	}
}

func (s *userService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicatePhone) {
			return nil, fmt.Errorf("create user: %w: %w", ErrClientInput, err)
		}
		return nil, storageErr("create user", err)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, storageErr("get user", err)
	}
	return u, nil
}
