package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"athleteapi/internal/events"
	"athleteapi/internal/logger"
	"athleteapi/internal/metrics"
	"athleteapi/internal/models"
	"athleteapi/internal/repositories"
	"athleteapi/internal/utils"
)

// OTPProvider sends and checks one-time codes.
type OTPProvider interface {
	StartChallenge(ctx context.Context, phone string) (*utils.VerifyResponse, error)
	CheckChallenge(ctx context.Context, requestID, code string) (*utils.CheckResponse, error)
}

type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Verification states, reported in logs.
const (
	StateStarted       = "started"
	StateChallengeSent = "challenge_sent"
	StateConfirmed     = "confirmed"
	StateFailed        = "failed"
)

type VerificationService interface {
	StartVerification(ctx context.Context, phone string) (string, error)
	ConfirmVerification(ctx context.Context, requestID, code string) (string, error)
	GuestLogin(ctx context.Context, nickname string) (string, error)
}

type verificationService struct {
	provider OTPProvider
	store    repositories.PhoneVerificationRepository
	users    UserService
	tokens   TokenIssuer
	events   events.Publisher
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

func NewVerificationService(
	provider OTPProvider,
	store repositories.PhoneVerificationRepository,
	users UserService,
	tokens TokenIssuer,
	pub events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) VerificationService {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &verificationService{
		provider: provider,
		store:    store,
		users:    users,
		tokens:   tokens,
		events:   pub,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// StartVerification asks the provider for a challenge and records the attempt.
// Nothing is stored when the provider refuses.
func (s *verificationService) StartVerification(ctx context.Context, phone string) (string, error) {
	masked := logger.MaskPhone(phone)
	log := s.log.With(zap.String("phone", masked))
	log.Debug("verification", zap.String("state", StateStarted))

	resp, err := s.provider.StartChallenge(ctx, phone)
	if err != nil {
		s.metrics.Provider("start", "transport_error")
		s.fail(ctx, log, "start", "", masked, "provider unavailable")
		return "", upstreamErr("start challenge", err)
	}
	s.metrics.Provider("start", resp.Status)
	if err := providerStatusErr(resp.Status, resp.ErrorText); err != nil {
		s.fail(ctx, log, "start", resp.RequestID, masked, "provider status "+resp.Status)
		return "", fmt.Errorf("start challenge: %w", err)
	}
	if resp.RequestID == "" {
		s.fail(ctx, log, "start", "", masked, "empty request id")
		return "", fmt.Errorf("start challenge: %w: empty request id", ErrUpstreamProvider)
	}

	if _, err := s.store.Create(ctx, resp.RequestID, phone); err != nil {
		s.metrics.Flow("start", "storage_error")
		return "", storageErr("record verification", err)
	}

	log.Info("verification", zap.String("state", StateChallengeSent), zap.String("request_id", resp.RequestID))
	s.metrics.Flow("start", "ok")
	s.publish(ctx, events.VerificationStarted, events.VerificationEvent{
		RequestID: resp.RequestID,
		Phone:     masked,
		At:        s.now().UTC(),
	})
	return resp.RequestID, nil
}

// ConfirmVerification checks code against the newest attempt for requestID and
// returns a session token for the phone on record. A request ID may be
// confirmed any number of times.
func (s *verificationService) ConfirmVerification(ctx context.Context, requestID, code string) (string, error) {
	log := s.log.With(zap.String("request_id", requestID))

	attempt, err := s.store.GetLatestByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.metrics.Flow("confirm", "unknown_request")
			return "", fmt.Errorf("confirm verification: %w: %w: unknown request id", ErrNotFound, ErrClientInput)
		}
		return "", storageErr("load verification", err)
	}
	masked := logger.MaskPhone(attempt.Phone)

	resp, err := s.provider.CheckChallenge(ctx, attempt.RequestID, code)
	if err != nil {
		s.metrics.Provider("check", "transport_error")
		s.fail(ctx, log, "confirm", requestID, masked, "provider unavailable")
		return "", upstreamErr("check challenge", err)
	}
	s.metrics.Provider("check", resp.Status)
	// A response without the echoed request ID is an upstream fault whatever its status.
	if resp.RequestID == nil || *resp.RequestID == "" {
		s.fail(ctx, log, "confirm", requestID, masked, "request id not echoed")
		return "", fmt.Errorf("check challenge: %w: request id not echoed", ErrUpstreamProvider)
	}
	var errorText string
	if resp.ErrorText != nil {
		errorText = *resp.ErrorText
	}
	if err := providerStatusErr(resp.Status, errorText); err != nil {
		s.fail(ctx, log, "confirm", requestID, masked, "provider status "+resp.Status)
		return "", fmt.Errorf("check challenge: %w", err)
	}

	user, err := s.users.FindOrCreateByPhone(ctx, attempt.Phone)
	if err != nil {
		s.metrics.Flow("confirm", "user_error")
		return "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.Flow("confirm", "token_error")
		return "", fmt.Errorf("issue token: %w", err)
	}

	log.Info("verification", zap.String("state", StateConfirmed), zap.Int64("user_id", user.ID))
	s.metrics.Flow("confirm", "ok")
	now := s.now().UTC()
	s.publish(ctx, events.VerificationConfirmed, events.VerificationEvent{RequestID: requestID, Phone: masked, At: now})
	s.publish(ctx, events.SessionIssued, events.SessionIssuedEvent{UserID: user.ID, Guest: user.IsGuest(), At: now})
	return token, nil
}

// GuestLogin creates a phone-less user. The nickname is stored as given.
func (s *verificationService) GuestLogin(ctx context.Context, nickname string) (string, error) {
	nick := nickname
	user, err := s.users.Create(ctx, &models.User{Nickname: &nick})
	if err != nil {
		s.metrics.Flow("guest", "user_error")
		return "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.metrics.Flow("guest", "token_error")
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("guest session issued", zap.Int64("user_id", user.ID))
	s.metrics.Flow("guest", "ok")
	s.publish(ctx, events.SessionIssued, events.SessionIssuedEvent{UserID: user.ID, Guest: user.IsGuest(), At: s.now().UTC()})
	return token, nil
}

// providerStatusErr applies the provider status policy: "0" passes, "5" is the
// provider's own fault, anything else is blamed on the caller.
func providerStatusErr(status, errorText string) error {
	switch status {
	case utils.NexmoStatusSuccess:
		return nil
	case utils.NexmoStatusServerError:
		return fmt.Errorf("%w: status %s %s", ErrUpstreamProvider, status, errorText)
	default:
		return fmt.Errorf("%w: status %s %s", ErrClientInput, status, errorText)
	}
}

func (s *verificationService) fail(ctx context.Context, log *zap.Logger, flow, requestID, maskedPhone, reason string) {
	log.Warn("verification", zap.String("state", StateFailed), zap.String("reason", reason))
	s.metrics.Flow(flow, "failed")
	s.publish(ctx, events.VerificationFailed, events.VerificationEvent{
		RequestID: requestID,
		Phone:     maskedPhone,
		Reason:    reason,
		At:        s.now().UTC(),
	})
}

func (s *verificationService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.events.Publish(ctx, subject, data); err != nil {
		s.log.Warn("publish failed", zap.String("subject", subject), zap.Error(err))
	}
}
