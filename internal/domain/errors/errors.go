package errors

import "errors"

var (
	// General
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")

	// Users
	ErrUserNotFound = errors.New("user not found")
	ErrUserBanned   = errors.New("user is banned")
	ErrUserLocked   = errors.New("user is locked")

	// Licenses
	ErrLicenseInvalidOrUsed = errors.New("license key invalid or already used")
	ErrLicenseNotFound      = errors.New("license not found")
	ErrNoActiveLicense      = errors.New("user has no active license")
	ErrLicenseExpired       = errors.New("license expired")
	ErrQuotaExhausted       = errors.New("license execution quota exhausted")

	// Admin actions
	ErrUnknownAction = errors.New("unknown admin action")

	// Tickets
	ErrTicketNotFound = errors.New("ticket not found or already closed")

	// Outbound delivery. Logged only; never surfaced to the caller of the
	// operation that triggered the notification.
	ErrNotificationFailed = errors.New("notification delivery failed")
)

// IsNotFound reports whether err means a referenced record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrLicenseNotFound) ||
		errors.Is(err, ErrTicketNotFound)
}

// IsPreconditionFailed reports whether err is a rejected state transition
// rather than a missing record.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrNoActiveLicense) ||
		errors.Is(err, ErrQuotaExhausted)
}

// IsBadRequest reports whether err should surface as a 400 to an admin caller.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrLicenseInvalidOrUsed)
}
