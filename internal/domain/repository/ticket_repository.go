package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
)

// TicketRepository is the persisted Ticket store.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	// Close records the admin response and flips the ticket to closed. The
	// update is conditional on the ticket still being open, so a ticket is
	// closed exactly once; a second attempt returns ErrTicketNotFound.
	Close(ctx context.Context, id uuid.UUID, response string, now time.Time) (*models.Ticket, error)

	List(ctx context.Context, limit int) ([]*models.Ticket, error)
}
