package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/events/kafka"
)

// ValidateUser is the pure license gate decision. The branch order is a design
// commitment: not-found, banned, locked, missing key, missing expiry, expired,
// valid — first match wins. A banned user who is also expired reports banned.
func ValidateUser(user *models.User, now time.Time) models.ValidationOutcome {
	switch {
	case user == nil:
		return models.OutcomeNotFound
	case user.Banned:
		return models.OutcomeBanned
	case user.Locked:
		return models.OutcomeLocked
	case user.LicenseKey == nil || *user.LicenseKey == "":
		return models.OutcomeNoLicense
	case user.LicenseExpires == nil:
		// A key without an expiry is never valid.
		return models.OutcomeNoLicense
	case now.After(*user.LicenseExpires):
		return models.OutcomeExpired
	default:
		return models.OutcomeValid
	}
}

// LicenseService owns the redemption protocol and the gated-action execution
// path on top of the stores.
type LicenseService struct {
	userRepo      repository.UserRepository
	licenseRepo   repository.LicenseRepository
	executionRepo repository.ExecutionRepository
	publisher     interfaces.EventPublisher
	logger        *zap.Logger
}

func NewLicenseService(
	userRepo repository.UserRepository,
	licenseRepo repository.LicenseRepository,
	executionRepo repository.ExecutionRepository,
	publisher interfaces.EventPublisher,
	logger *zap.Logger,
) *LicenseService {
	return &LicenseService{
		userRepo:      userRepo,
		licenseRepo:   licenseRepo,
		executionRepo: executionRepo,
		publisher:     publisher,
		logger:        logger.Named("license_service"),
	}
}

// Validate resolves the user by Telegram identifier and runs the pure gate
// decision. It performs no writes.
func (s *LicenseService) Validate(ctx context.Context, telegramID int64, now time.Time) (models.ValidationOutcome, *models.User, error) {
	user, err := s.userRepo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrUserNotFound) {
			return models.OutcomeNotFound, nil, nil
		}
		return models.OutcomeNotFound, nil, fmt.Errorf("failed to load user for validation: %w", err)
	}
	return ValidateUser(user, now), user, nil
}

// Redeem claims an unused key for the user and stamps the resulting expiry.
// The claim and the user bind are one atomic transaction in the store, so a
// key is redeemed at most once; the losing side of a race receives
// ErrLicenseInvalidOrUsed with nothing mutated. Redemption lifts a lock but
// never a ban — the validator rejects banned users before this is reached.
func (s *LicenseService) Redeem(ctx context.Context, key string, user *models.User, now time.Time) (*models.License, error) {
	license, err := s.licenseRepo.Redeem(ctx, key, user, now)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, kafka.TopicLicenseEvents, kafka.EventLicenseActivated, license.Key, license); err != nil {
		s.logger.Warn("Failed to publish license activation event", zap.Error(err))
	}
	return license, nil
}

// RunProgram is the gated-action execution stub. On a valid gate pass it
// records exactly one execution counter increment and one audit entry. When
// the bound license carries a quota, an exhausted quota rejects the run
// before any mutation.
func (s *LicenseService) RunProgram(ctx context.Context, user *models.User, now time.Time) error {
	outcome := ValidateUser(user, now)
	if outcome != models.OutcomeValid {
		return outcomeError(outcome)
	}

	license, err := s.licenseRepo.FindByKey(ctx, *user.LicenseKey)
	if err != nil {
		return fmt.Errorf("failed to load bound license: %w", err)
	}
	if license.QuotaExhausted() {
		return domainErrors.ErrQuotaExhausted
	}

	if err := s.userRepo.RecordExecution(ctx, user.ID, now); err != nil {
		return fmt.Errorf("failed to record user execution: %w", err)
	}
	if err := s.licenseRepo.RecordExecution(ctx, license.Key); err != nil {
		return fmt.Errorf("failed to record license execution: %w", err)
	}
	execution := &models.ScriptExecution{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		LicenseKey: license.Key,
		ExecutedAt: now,
	}
	if err := s.executionRepo.Insert(ctx, execution); err != nil {
		return fmt.Errorf("failed to insert execution record: %w", err)
	}

	if err := s.publisher.Publish(ctx, kafka.TopicLicenseEvents, kafka.EventScriptExecuted, license.Key, execution); err != nil {
		s.logger.Warn("Failed to publish execution event", zap.Error(err))
	}
	return nil
}

func outcomeError(outcome models.ValidationOutcome) error {
	switch outcome {
	case models.OutcomeNotFound:
		return domainErrors.ErrUserNotFound
	case models.OutcomeBanned:
		return domainErrors.ErrUserBanned
	case models.OutcomeLocked:
		return domainErrors.ErrUserLocked
	case models.OutcomeNoLicense:
		return domainErrors.ErrNoActiveLicense
	case models.OutcomeExpired:
		return domainErrors.ErrLicenseExpired
	default:
		return nil
	}
}
