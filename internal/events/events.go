// Package events publishes authentication events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// Subjects, relative to the configured prefix.
const (
	VerificationStarted   = "verification.started"
	VerificationConfirmed = "verification.confirmed"
	VerificationFailed    = "verification.failed"
	SessionIssued         = "session.issued"
	TokenRevoked          = "token.revoked"
)

type VerificationEvent struct {
	RequestID string    `json:"request_id"`
	Phone     string    `json:"phone"` // masked
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

type SessionIssuedEvent struct {
	UserID int64     `json:"user_id"`
	Guest  bool      `json:"guest"`
	At     time.Time `json:"at"`
}

type TokenRevokedEvent struct {
	At time.Time `json:"at"`
}

type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
}

func NewNATSPublisher(url, prefix string, log *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("athlete-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	full := Subject(n.prefix, subject)
	n.log.Debug("publishing event", zap.String("subject", full))
	return n.conn.Publish(full, payload)
}

func (n *NATSPublisher) Close() error {
	return n.conn.Drain()
}

// Subject joins prefix and subject with a dot; an empty prefix leaves subject alone.
func Subject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// NopPublisher is used when no NATS URL is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }
