package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
)

const userColumns = `id, telegram_id, username, first_name, last_name, banned, locked, is_active,
       license_key, license_expires, script_executions, last_login, last_activity, created_at`

// UserRepositoryPostgres implements repository.UserRepository using PostgreSQL.
type UserRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewUserRepositoryPostgres(pool *pgxpool.Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.TelegramID, &user.Username, &user.FirstName, &user.LastName,
		&user.Banned, &user.Locked, &user.IsActive,
		&user.LicenseKey, &user.LicenseExpires, &user.ScriptExecutions,
		&user.LastLogin, &user.LastActivity, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// GetOrCreate upserts the record keyed by telegram_id. Display fields and
// last_activity are refreshed unconditionally on conflict.
func (r *UserRepositoryPostgres) GetOrCreate(ctx context.Context, contact repository.UserContact, now time.Time) (*models.User, error) {
	query := `
		INSERT INTO users (id, telegram_id, username, first_name, last_name, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    last_activity = EXCLUDED.last_activity
		RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query,
		uuid.New(), contact.TelegramID, contact.Username, contact.FirstName, contact.LastName, now,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}
	return user, nil
}

func (r *UserRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepositoryPostgres) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, telegramID))
}

// SetBanned flips the ban flag. Banning drops is_active, unbanning restores it.
func (r *UserRepositoryPostgres) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	query := `UPDATE users SET banned = $1, is_active = $2 WHERE id = $3`
	result, err := r.pool.Exec(ctx, query, banned, !banned, id)
	if err != nil {
		return fmt.Errorf("failed to update ban flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryPostgres) SetLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	query := `UPDATE users SET locked = $1 WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, locked, id)
	if err != nil {
		return fmt.Errorf("failed to update lock flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryPostgres) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE users SET is_active = $1 WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// ClearLicense removes the binding and zeroes the execution counter in one
// statement so the license_key/license_expires invariant cannot be observed
// half-applied.
func (r *UserRepositoryPostgres) ClearLicense(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET license_key = NULL, license_expires = NULL, script_executions = 0
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear license binding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// ExtendLicense is conditional on an existing expiry; extending a user without
// one is a precondition failure, not a not-found.
func (r *UserRepositoryPostgres) ExtendLicense(ctx context.Context, id uuid.UUID, days float64) error {
	query := `
		UPDATE users
		SET license_expires = license_expires + make_interval(secs => $1)
		WHERE id = $2 AND license_expires IS NOT NULL`
	result, err := r.pool.Exec(ctx, query, days*86400, id)
	if err != nil {
		return fmt.Errorf("failed to extend license: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if !exists {
			return domainErrors.ErrUserNotFound
		}
		return domainErrors.ErrNoActiveLicense
	}
	return nil
}

func (r *UserRepositoryPostgres) RecordExecution(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `
		UPDATE users
		SET script_executions = script_executions + 1, last_login = $1
		WHERE id = $2`
	result, err := r.pool.Exec(ctx, query, now, id)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	return nil
}

// Purge hard-deletes the user and cascades to their tickets and execution
// records inside one transaction.
func (r *UserRepositoryPostgres) Purge(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user tickets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM script_executions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user executions: %w", err)
	}
	result, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrUserNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit purge transaction: %w", err)
	}
	return nil
}

func (r *UserRepositoryPostgres) List(ctx context.Context, limit int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

var _ repository.UserRepository = (*UserRepositoryPostgres)(nil)
