package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"athleteapi/internal/events"
	"athleteapi/internal/repositories"
)

// RevocationCache is an optional fast path in front of the banned-token table.
type RevocationCache interface {
	Contains(ctx context.Context, token string) (bool, error)
	Add(ctx context.Context, token string) error
}

type RevocationService interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

type revocationService struct {
	repo   repositories.BannedTokenRepository
	cache  RevocationCache
	events events.Publisher
	log    *zap.Logger
}

// NewRevocationService accepts a nil cache and a nil publisher.
func NewRevocationService(repo repositories.BannedTokenRepository, cache RevocationCache, pub events.Publisher, log *zap.Logger) RevocationService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &revocationService{repo: repo, cache: cache, events: pub, log: log}
}

func (s *revocationService) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s.cache != nil {
		hit, err := s.cache.Contains(ctx, token)
		if err != nil {
			s.log.Warn("revocation cache lookup failed", zap.Error(err))
		} else if hit {
			return true, nil
		}
	}

	banned, err := s.repo.Exists(ctx, token)
	if err != nil {
		return false, storageErr("check revocation", err)
	}
	if banned && s.cache != nil {
		if err := s.cache.Add(ctx, token); err != nil {
			s.log.Warn("revocation cache backfill failed", zap.Error(err))
		}
	}
	return banned, nil
}

// Revoke bans token permanently. Banning twice is not an error.
func (s *revocationService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("revoke: %w: empty token", ErrClientInput)
	}
	if err := s.repo.Insert(ctx, token); err != nil {
		return storageErr("revoke token", err)
	}
	if s.cache != nil {
		if err := s.cache.Add(ctx, token); err != nil {
			s.log.Warn("revocation cache add failed", zap.Error(err))
		}
	}
	if err := s.events.Publish(ctx, events.TokenRevoked, events.TokenRevokedEvent{At: time.Now().UTC()}); err != nil {
		s.log.Warn("publish failed", zap.String("subject", events.TokenRevoked), zap.Error(err))
	}
	s.log.Info("token revoked")
	return nil
}
