package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
)

const licenseColumns = `key, is_used, used_by_user, used_by_identifier, duration_days,
       max_executions, executions_used, activated_at, expires_at, is_reset, created_at`

// LicenseRepositoryPostgres implements repository.LicenseRepository using PostgreSQL.
type LicenseRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewLicenseRepositoryPostgres(pool *pgxpool.Pool) *LicenseRepositoryPostgres {
	return &LicenseRepositoryPostgres{pool: pool}
}

func scanLicense(row pgx.Row) (*models.License, error) {
	license := &models.License{}
	err := row.Scan(
		&license.Key, &license.IsUsed, &license.UsedByUser, &license.UsedByIdentifier,
		&license.DurationDays, &license.MaxExecutions, &license.ExecutionsUsed,
		&license.ActivatedAt, &license.ExpiresAt, &license.IsReset, &license.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("failed to scan license: %w", err)
	}
	return license, nil
}

func (r *LicenseRepositoryPostgres) Create(ctx context.Context, license *models.License) error {
	query := `
		INSERT INTO licenses (key, duration_days, max_executions, created_at)
		VALUES ($1, $2, $3, $4)`
	if license.CreatedAt.IsZero() {
		license.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		license.Key, license.DurationDays, license.MaxExecutions, license.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("license key collision on %s: %w", license.Key, domainErrors.ErrInvalidRequest)
		}
		return fmt.Errorf("failed to create license: %w", err)
	}
	return nil
}

func (r *LicenseRepositoryPostgres) FindByKey(ctx context.Context, key string) (*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE key = $1`
	return scanLicense(r.pool.QueryRow(ctx, query, key))
}

func (r *LicenseRepositoryPostgres) KeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM licenses WHERE key = $1)`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check license key: %w", err)
	}
	return exists, nil
}

// Redeem performs the claim and the user bind in one transaction. The claim is
// a conditional update on (key, is_used=false); concurrent redemptions of the
// same key serialize on the row and exactly one commits. Binding stamps the
// user's license fields, sets is_active and lifts a lock. It never lifts a ban.
func (r *LicenseRepositoryPostgres) Redeem(ctx context.Context, key string, user *models.User, now time.Time) (*models.License, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redeem transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	claim := `
		UPDATE licenses
		SET is_used = TRUE,
		    used_by_user = $2,
		    used_by_identifier = $3,
		    activated_at = $4,
		    expires_at = $4 + make_interval(secs => duration_days * 86400)
		WHERE key = $1 AND is_used = FALSE
		RETURNING ` + licenseColumns
	license, err := scanLicense(tx.QueryRow(ctx, claim, key, user.ID, user.TelegramID, now))
	if err != nil {
		if errors.Is(err, domainErrors.ErrLicenseNotFound) {
			return nil, domainErrors.ErrLicenseInvalidOrUsed
		}
		return nil, err
	}

	bind := `
		UPDATE users
		SET license_key = $2, license_expires = $3, is_active = TRUE, locked = FALSE
		WHERE id = $1`
	result, err := tx.Exec(ctx, bind, user.ID, license.Key, license.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to bind license to user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, domainErrors.ErrUserNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit redeem transaction: %w", err)
	}
	return license, nil
}

func (r *LicenseRepositoryPostgres) MarkReset(ctx context.Context, key string) error {
	result, err := r.pool.Exec(ctx, `UPDATE licenses SET is_reset = TRUE WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to mark license reset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLicenseNotFound
	}
	return nil
}

func (r *LicenseRepositoryPostgres) RecordExecution(ctx context.Context, key string) error {
	result, err := r.pool.Exec(ctx, `UPDATE licenses SET executions_used = executions_used + 1 WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to record license execution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domainErrors.ErrLicenseNotFound
	}
	return nil
}

func (r *LicenseRepositoryPostgres) List(ctx context.Context, limit int) ([]*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var licenses []*models.License
	for rows.Next() {
		license, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, license)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating license rows: %w", err)
	}
	return licenses, nil
}

var _ repository.LicenseRepository = (*LicenseRepositoryPostgres)(nil)
