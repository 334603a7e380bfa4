package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents one Telegram account known to the bot. There is exactly one
// record per external Telegram identifier; it is created on first contact and
// its display fields are refreshed on every inbound event (last write wins).
type User struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	TelegramID       int64      `json:"telegram_id" db:"telegram_id"`
	Username         string     `json:"username" db:"username"`
	FirstName        string     `json:"first_name" db:"first_name"`
	LastName         string     `json:"last_name" db:"last_name"`
	Banned           bool       `json:"banned" db:"banned"`
	Locked           bool       `json:"locked" db:"locked"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	LicenseKey       *string    `json:"license_key,omitempty" db:"license_key"`
	LicenseExpires   *time.Time `json:"license_expires,omitempty" db:"license_expires"`
	ScriptExecutions int        `json:"script_executions" db:"script_executions"`
	LastLogin        *time.Time `json:"last_login,omitempty" db:"last_login"`
	LastActivity     time.Time  `json:"last_activity" db:"last_activity"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// HasLicense reports whether the user currently carries a non-empty key.
// A key without an expiry is treated as no license at all.
func (u *User) HasLicense() bool {
	return u.LicenseKey != nil && *u.LicenseKey != "" && u.LicenseExpires != nil
}

// ValidationOutcome is the result of running a user through the license gate.
type ValidationOutcome string

const (
	OutcomeValid     ValidationOutcome = "valid"
	OutcomeNotFound  ValidationOutcome = "not-found"
	OutcomeBanned    ValidationOutcome = "banned"
	OutcomeLocked    ValidationOutcome = "locked"
	OutcomeNoLicense ValidationOutcome = "no-license"
	OutcomeExpired   ValidationOutcome = "expired"
)

// AdminAction is one of the fixed administrative transitions applied to a user.
type AdminAction string

const (
	ActionBan           AdminAction = "ban"
	ActionUnban         AdminAction = "unban"
	ActionLock          AdminAction = "lock"
	ActionUnlock        AdminAction = "unlock"
	ActionResetLicense  AdminAction = "reset_license"
	ActionExtendLicense AdminAction = "extend_license"
)

// DefaultExtensionDays is applied when extend_license carries no explicit value.
const DefaultExtensionDays = 30.0
