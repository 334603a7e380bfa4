package repository

import (
	"context"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
)

// ActivityRepository is the append-only inbound-event audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context, limit int) ([]*models.Activity, error)
	// Clear removes all entries. Irreversible.
	Clear(ctx context.Context) error
}

// ExecutionRepository is the append-only record of gate passes.
type ExecutionRepository interface {
	Insert(ctx context.Context, execution *models.ScriptExecution) error
	List(ctx context.Context, limit int) ([]*models.ScriptExecution, error)
	Clear(ctx context.Context) error
}
