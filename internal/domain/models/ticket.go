package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketType classifies a user-raised request.
type TicketType string

const (
	TicketSupport  TicketType = "support"
	TicketPurchase TicketType = "purchase"
	TicketUnlock   TicketType = "unlock"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket is a manually-resolved request record. It is closed exactly once by
// an admin response, which also triggers an outbound notification.
type Ticket struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        uuid.UUID    `json:"user_id" db:"user_id"`
	TelegramID    int64        `json:"telegram_id" db:"telegram_id"`
	Type          TicketType   `json:"type" db:"type"`
	Status        TicketStatus `json:"status" db:"status"`
	Message       string       `json:"message" db:"message"`
	AdminResponse *string      `json:"admin_response,omitempty" db:"admin_response"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}
