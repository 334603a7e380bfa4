package models

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedExecutions marks a license without an execution quota.
const UnlimitedExecutions = -1

// License is a pre-generated key granting time-bounded access once redeemed.
// A key is claimed at most once; a reset leaves the record behind as an
// archival tombstone (IsReset=true) instead of deleting it.
type License struct {
	Key              string     `json:"key" db:"key"`
	IsUsed           bool       `json:"is_used" db:"is_used"`
	UsedByUser       *uuid.UUID `json:"used_by_user,omitempty" db:"used_by_user"`
	UsedByIdentifier *int64     `json:"used_by_identifier,omitempty" db:"used_by_identifier"`
	DurationDays     float64    `json:"duration_days" db:"duration_days"`
	MaxExecutions    int        `json:"max_executions" db:"max_executions"`
	ExecutionsUsed   int        `json:"executions_used" db:"executions_used"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty" db:"activated_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	IsReset          bool       `json:"is_reset" db:"is_reset"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// QuotaExhausted reports whether the license has used up its execution quota.
func (l *License) QuotaExhausted() bool {
	return l.MaxExecutions != UnlimitedExecutions && l.ExecutionsUsed >= l.MaxExecutions
}

// DurationFromDays converts a possibly fractional number of days into a
// time.Duration. 1.5 days is exactly 36 hours.
func DurationFromDays(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}
