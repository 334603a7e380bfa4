package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
)

// ActivityRepositoryPostgres implements repository.ActivityRepository using PostgreSQL.
type ActivityRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewActivityRepositoryPostgres(pool *pgxpool.Pool) *ActivityRepositoryPostgres {
	return &ActivityRepositoryPostgres{pool: pool}
}

func (r *ActivityRepositoryPostgres) Insert(ctx context.Context, activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}
	query := `
		INSERT INTO activities (id, telegram_id, username, action, message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		activity.ID, activity.TelegramID, activity.Username, activity.Action, activity.Message, activity.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepositoryPostgres) List(ctx context.Context, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, telegram_id, username, action, message, timestamp
		FROM activities ORDER BY timestamp DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		err := rows.Scan(
			&activity.ID, &activity.TelegramID, &activity.Username,
			&activity.Action, &activity.Message, &activity.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return activities, nil
}

func (r *ActivityRepositoryPostgres) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM activities`); err != nil {
		return fmt.Errorf("failed to clear activities: %w", err)
	}
	return nil
}

// ExecutionRepositoryPostgres implements repository.ExecutionRepository using PostgreSQL.
type ExecutionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewExecutionRepositoryPostgres(pool *pgxpool.Pool) *ExecutionRepositoryPostgres {
	return &ExecutionRepositoryPostgres{pool: pool}
}

func (r *ExecutionRepositoryPostgres) Insert(ctx context.Context, execution *models.ScriptExecution) error {
	if execution.ID == uuid.Nil {
		execution.ID = uuid.New()
	}
	if execution.ExecutedAt.IsZero() {
		execution.ExecutedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO script_executions (id, user_id, telegram_id, license_key, executed_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		execution.ID, execution.UserID, execution.TelegramID, execution.LicenseKey, execution.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}
	return nil
}

func (r *ExecutionRepositoryPostgres) List(ctx context.Context, limit int) ([]*models.ScriptExecution, error) {
	query := `
		SELECT id, user_id, telegram_id, license_key, executed_at
		FROM script_executions ORDER BY executed_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.ScriptExecution
	for rows.Next() {
		execution := &models.ScriptExecution{}
		err := rows.Scan(
			&execution.ID, &execution.UserID, &execution.TelegramID,
			&execution.LicenseKey, &execution.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution record: %w", err)
		}
		executions = append(executions, execution)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution rows: %w", err)
	}
	return executions, nil
}

func (r *ExecutionRepositoryPostgres) Clear(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM script_executions`); err != nil {
		return fmt.Errorf("failed to clear executions: %w", err)
	}
	return nil
}

var (
	_ repository.ActivityRepository  = (*ActivityRepositoryPostgres)(nil)
	_ repository.ExecutionRepository = (*ExecutionRepositoryPostgres)(nil)
)
