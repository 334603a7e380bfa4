package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one append-only audit entry for an inbound bot event. The core
// only ever writes these; they are read back solely for listing.
type Activity struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Username   string    `json:"username" db:"username"`
	Action     string    `json:"action" db:"action"`
	Message    string    `json:"message" db:"message"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// ScriptExecution records one successful pass through the license gate.
type ScriptExecution struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	LicenseKey string    `json:"license_key" db:"license_key"`
	ExecutedAt time.Time `json:"executed_at" db:"executed_at"`
}
