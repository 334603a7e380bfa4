package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/events/kafka"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/security"
)

// Page caps for the read projections.
const (
	MaxEntityPage    = 1000
	MaxActivityPage  = 100
	MaxExecutionPage = 200
)

// AdminService dispatches administrative transitions onto user and license
// records and owns batch key creation, ticket responses and purges.
type AdminService struct {
	userRepo      repository.UserRepository
	licenseRepo   repository.LicenseRepository
	ticketRepo    repository.TicketRepository
	activityRepo  repository.ActivityRepository
	executionRepo repository.ExecutionRepository
	keygen        *security.KeyGenerator
	notifier      interfaces.Notifier
	publisher     interfaces.EventPublisher
	logger        *zap.Logger
}

func NewAdminService(
	userRepo repository.UserRepository,
	licenseRepo repository.LicenseRepository,
	ticketRepo repository.TicketRepository,
	activityRepo repository.ActivityRepository,
	executionRepo repository.ExecutionRepository,
	keygen *security.KeyGenerator,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:      userRepo,
		licenseRepo:   licenseRepo,
		ticketRepo:    ticketRepo,
		activityRepo:  activityRepo,
		executionRepo: executionRepo,
		keygen:        keygen,
		notifier:      notifier,
		publisher:     publisher,
		logger:        logger.Named("admin_service"),
	}
}

// Apply runs one administrative action against one user. Each action is an
// atomic single-row update; zero affected rows surface as ErrUserNotFound and
// strings outside the fixed vocabulary are rejected with ErrUnknownAction.
func (s *AdminService) Apply(ctx context.Context, userID uuid.UUID, action string, valueDays *float64) error {
	switch models.AdminAction(action) {
	case models.ActionBan:
		return s.setBanned(ctx, userID, true)
	case models.ActionUnban:
		return s.setBanned(ctx, userID, false)
	case models.ActionLock:
		return s.setLocked(ctx, userID, true)
	case models.ActionUnlock:
		return s.setLocked(ctx, userID, false)
	case models.ActionResetLicense:
		return s.resetLicense(ctx, userID)
	case models.ActionExtendLicense:
		days := models.DefaultExtensionDays
		if valueDays != nil {
			days = *valueDays
		}
		return s.extendLicense(ctx, userID, days)
	default:
		return fmt.Errorf("%w: %q", domainErrors.ErrUnknownAction, action)
	}
}

func (s *AdminService) setBanned(ctx context.Context, userID uuid.UUID, banned bool) error {
	if err := s.userRepo.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	eventType := kafka.EventUserUnbanned
	if banned {
		eventType = kafka.EventUserBanned
	}
	s.publish(ctx, kafka.TopicUserEvents, eventType, userID.String(), nil)
	return nil
}

func (s *AdminService) setLocked(ctx context.Context, userID uuid.UUID, locked bool) error {
	if err := s.userRepo.SetLocked(ctx, userID, locked); err != nil {
		return err
	}
	eventType := kafka.EventUserUnlocked
	if locked {
		eventType = kafka.EventUserLocked
	}
	s.publish(ctx, kafka.TopicUserEvents, eventType, userID.String(), nil)
	return nil
}

// resetLicense clears the user's binding and zeroes the execution counter;
// a formerly bound license is kept as a tombstone, not deleted.
func (s *AdminService) resetLicense(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	boundKey := ""
	if user.LicenseKey != nil {
		boundKey = *user.LicenseKey
	}

	if err := s.userRepo.ClearLicense(ctx, userID); err != nil {
		return err
	}
	if boundKey != "" {
		if err := s.licenseRepo.MarkReset(ctx, boundKey); err != nil {
			return fmt.Errorf("cleared user binding but failed to tombstone license %s: %w", boundKey, err)
		}
		s.publish(ctx, kafka.TopicLicenseEvents, kafka.EventLicenseReset, boundKey, nil)
	}
	return nil
}

// extendLicense fails with ErrNoActiveLicense when the user has no expiry to
// extend; nothing is mutated in that case.
func (s *AdminService) extendLicense(ctx context.Context, userID uuid.UUID, days float64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.LicenseExpires == nil {
		return domainErrors.ErrNoActiveLicense
	}
	if err := s.userRepo.ExtendLicense(ctx, userID, days); err != nil {
		return err
	}
	s.publish(ctx, kafka.TopicLicenseEvents, kafka.EventLicenseExtended, userID.String(), map[string]float64{"days": days})
	return nil
}

// CreateLicenses pre-generates a batch of unused keys.
func (s *AdminService) CreateLicenses(ctx context.Context, count int, durationDays float64, maxExecutions int) ([]*models.License, error) {
	if count <= 0 || durationDays <= 0 {
		return nil, fmt.Errorf("%w: count and duration_days must be positive", domainErrors.ErrInvalidRequest)
	}
	licenses := make([]*models.License, 0, count)
	for i := 0; i < count; i++ {
		key, err := s.keygen.Generate(ctx)
		if err != nil {
			return nil, err
		}
		license := &models.License{
			Key:           key,
			DurationDays:  durationDays,
			MaxExecutions: maxExecutions,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.licenseRepo.Create(ctx, license); err != nil {
			return nil, err
		}
		licenses = append(licenses, license)
	}
	s.publish(ctx, kafka.TopicLicenseEvents, kafka.EventLicenseCreated, "", map[string]int{"count": count})
	return licenses, nil
}

// RespondTicket closes the ticket exactly once and notifies the user. The
// notification is best effort; a delivery failure never reopens the ticket.
func (s *AdminService) RespondTicket(ctx context.Context, ticketID uuid.UUID, response string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.Close(ctx, ticketID, response, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("Reply to your ticket:\n\n%s", response)
	if err := s.notifier.Notify(ctx, ticket.TelegramID, text); err != nil {
		s.logger.Warn("Failed to deliver ticket response",
			zap.String("ticket_id", ticket.ID.String()), zap.Error(err))
	}
	s.publish(ctx, kafka.TopicTicketEvents, kafka.EventTicketClosed, ticket.ID.String(), ticket)
	return ticket, nil
}

// PurgeUser hard-deletes the user and cascades to their tickets and
// execution records.
func (s *AdminService) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.Purge(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, kafka.TopicUserEvents, kafka.EventUserPurged, userID.String(), nil)
	return nil
}

func (s *AdminService) ClearActivities(ctx context.Context) error {
	return s.activityRepo.Clear(ctx)
}

func (s *AdminService) ClearExecutions(ctx context.Context) error {
	return s.executionRepo.Clear(ctx)
}

// Read projections, newest first, capped.

func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx, MaxEntityPage)
}

func (s *AdminService) ListLicenses(ctx context.Context) ([]*models.License, error) {
	return s.licenseRepo.List(ctx, MaxEntityPage)
}

func (s *AdminService) ListTickets(ctx context.Context) ([]*models.Ticket, error) {
	return s.ticketRepo.List(ctx, MaxEntityPage)
}

func (s *AdminService) ListActivities(ctx context.Context) ([]*models.Activity, error) {
	return s.activityRepo.List(ctx, MaxActivityPage)
}

func (s *AdminService) ListExecutions(ctx context.Context) ([]*models.ScriptExecution, error) {
	return s.executionRepo.List(ctx, MaxExecutionPage)
}

func (s *AdminService) publish(ctx context.Context, topic, eventType, subject string, payload interface{}) {
	if err := s.publisher.Publish(ctx, topic, eventType, subject, payload); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
