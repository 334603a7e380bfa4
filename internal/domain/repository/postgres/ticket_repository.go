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

const ticketColumns = `id, user_id, telegram_id, type, status, message, admin_response, created_at, updated_at`

// TicketRepositoryPostgres implements repository.TicketRepository using PostgreSQL.
type TicketRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewTicketRepositoryPostgres(pool *pgxpool.Pool) *TicketRepositoryPostgres {
	return &TicketRepositoryPostgres{pool: pool}
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := row.Scan(
		&ticket.ID, &ticket.UserID, &ticket.TelegramID, &ticket.Type, &ticket.Status,
		&ticket.Message, &ticket.AdminResponse, &ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to scan ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepositoryPostgres) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
		ticket.UpdatedAt = now
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketOpen
	}
	query := `
		INSERT INTO tickets (id, user_id, telegram_id, type, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID, ticket.UserID, ticket.TelegramID, ticket.Type, ticket.Status,
		ticket.Message, ticket.CreatedAt, ticket.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepositoryPostgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

// Close is conditional on the ticket still being open so a response lands
// exactly once.
func (r *TicketRepositoryPostgres) Close(ctx context.Context, id uuid.UUID, response string, now time.Time) (*models.Ticket, error) {
	query := `
		UPDATE tickets
		SET admin_response = $2, status = $3, updated_at = $4
		WHERE id = $1 AND status = $5
		RETURNING ` + ticketColumns
	return scanTicket(r.pool.QueryRow(ctx, query, id, response, models.TicketClosed, now, models.TicketOpen))
}

func (r *TicketRepositoryPostgres) List(ctx context.Context, limit int) ([]*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket rows: %w", err)
	}
	return tickets, nil
}

var _ repository.TicketRepository = (*TicketRepositoryPostgres)(nil)
