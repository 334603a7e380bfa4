package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
)

// UserContact carries the display fields refreshed on every inbound event.
type UserContact struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// UserRepository is the persisted User store. All mutations are single-row
// conditional updates keyed by the user's unique identifier; implementations
// return domain sentinel errors when zero rows are affected.
type UserRepository interface {
	// GetOrCreate upserts the record for a Telegram identifier: it creates the
	// user on first contact and otherwise refreshes username, first/last name
	// and last_activity (last write wins).
	GetOrCreate(ctx context.Context, contact UserContact, now time.Time) (*models.User, error)

	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// SetBanned flips the ban flag; banning also clears is_active, unbanning
	// restores it.
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	SetLocked(ctx context.Context, id uuid.UUID, locked bool) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// ClearLicense removes the license binding and zeroes script_executions.
	ClearLicense(ctx context.Context, id uuid.UUID) error

	// ExtendLicense moves license_expires forward by the given number of days.
	// Returns ErrNoActiveLicense when the user has no expiry to extend.
	ExtendLicense(ctx context.Context, id uuid.UUID, days float64) error

	// RecordExecution increments script_executions and stamps last_login.
	RecordExecution(ctx context.Context, id uuid.UUID, now time.Time) error

	// Purge hard-deletes the user together with their tickets and execution
	// records. Irreversible.
	Purge(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, limit int) ([]*models.User, error)
}
