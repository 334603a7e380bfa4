package repository

import (
	"context"
	"time"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
)

// LicenseRepository is the persisted License store.
type LicenseRepository interface {
	Create(ctx context.Context, license *models.License) error
	FindByKey(ctx context.Context, key string) (*models.License, error)
	KeyExists(ctx context.Context, key string) (bool, error)

	// Redeem atomically claims an unused key and binds it to the user in a
	// single transaction: the claim is a conditional update (key exists AND
	// is_used=false), so at most one concurrent caller succeeds; the loser
	// receives ErrLicenseInvalidOrUsed and nothing is mutated. On success the
	// license carries activated_at=now and expires_at=now+duration, and the
	// user row is stamped with the binding, is_active=true and locked=false.
	Redeem(ctx context.Context, key string, user *models.User, now time.Time) (*models.License, error)

	// MarkReset tombstones a license after its binding was cleared. The record
	// is archived, never deleted.
	MarkReset(ctx context.Context, key string) error

	// RecordExecution increments executions_used on the license.
	RecordExecution(ctx context.Context, key string) error

	List(ctx context.Context, limit int) ([]*models.License, error)
}
