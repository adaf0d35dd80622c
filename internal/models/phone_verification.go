package models

import "time"

// PhoneVerification is one row per started challenge. Rows are never updated.
type PhoneVerification struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
