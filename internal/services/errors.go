package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers translate them into HTTP statuses; anything else is a 500.
var (
	ErrClientInput      = errors.New("invalid client input")
	ErrUpstreamProvider = errors.New("verification provider failure")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrNotFound         = errors.New("not found")
	ErrStorage          = errors.New("storage failure")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func upstreamErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstreamProvider, err)
}
