package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/models"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/repository"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/events/kafka"
)

// Callback data values used on inline keyboards. Button presses re-enter the
// same intent dispatch as typed commands.
const (
	cbMainMenu      = "main_menu"
	cbBuy           = "buy"
	cbSupport       = "support"
	cbStatus        = "status"
	cbUnlockRequest = "unlock_request"
	cbProgramStart  = "program_start"
	cbLogout        = "logout"
)

// BotService translates inbound Telegram updates into core operations and
// renders their outcomes as messages. All rendering lives here; the core
// services below it return typed outcomes only.
type BotService struct {
	userRepo     repository.UserRepository
	ticketRepo   repository.TicketRepository
	activityRepo repository.ActivityRepository
	licenses     *LicenseService
	notifier     interfaces.Notifier
	publisher    interfaces.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewBotService(
	userRepo repository.UserRepository,
	ticketRepo repository.TicketRepository,
	activityRepo repository.ActivityRepository,
	licenses *LicenseService,
	notifier interfaces.Notifier,
	publisher interfaces.EventPublisher,
	logger *zap.Logger,
) *BotService {
	return &BotService{
		userRepo:     userRepo,
		ticketRepo:   ticketRepo,
		activityRepo: activityRepo,
		licenses:     licenses,
		notifier:     notifier,
		publisher:    publisher,
		logger:       logger.Named("bot_service"),
		now:          time.Now,
	}
}

// HandleUpdate processes one decoded Telegram update. Errors are returned for
// the worker to log; the store mutations that already happened stay committed
// regardless of later notification failures.
func (s *BotService) HandleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return s.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return s.handleCallback(ctx, update.CallbackQuery)
	default:
		// Updates without an actionable sender are dropped.
		return nil
	}
}

func (s *BotService) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	user, err := s.touchUser(ctx, message.From, "message", message.Text)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(message.Text)
	lower := strings.ToLower(text)
	switch {
	case lower == "/start" || lower == "start":
		return s.intentStart(ctx, user)
	case lower == "/buy" || lower == "buy":
		return s.intentBuy(ctx, user)
	case lower == "/support" || lower == "support":
		return s.intentSupport(ctx, user)
	case lower == "/status" || lower == "status":
		return s.intentStatus(ctx, user)
	case lower == "/unlock":
		return s.intentUnlockRequest(ctx, user)
	case lower == "/program" || lower == "/run":
		return s.intentProgramStart(ctx, user)
	case lower == "/logout" || lower == "logout":
		return s.intentLogout(ctx, user)
	case strings.HasPrefix(lower, "license activate "):
		key := strings.TrimSpace(text[len("license activate "):])
		return s.intentActivate(ctx, user, key)
	case strings.HasPrefix(lower, "/activate "):
		key := strings.TrimSpace(text[len("/activate "):])
		return s.intentActivate(ctx, user, key)
	default:
		return s.send(ctx, user.TelegramID, "Unknown command. Send /start for the menu.")
	}
}

func (s *BotService) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	user, err := s.touchUser(ctx, callback.From, "callback", callback.Data)
	if err != nil {
		return err
	}

	switch callback.Data {
	case cbMainMenu:
		return s.intentStart(ctx, user)
	case cbBuy:
		return s.intentBuy(ctx, user)
	case cbSupport:
		return s.intentSupport(ctx, user)
	case cbStatus:
		return s.intentStatus(ctx, user)
	case cbUnlockRequest:
		return s.intentUnlockRequest(ctx, user)
	case cbProgramStart:
		return s.intentProgramStart(ctx, user)
	case cbLogout:
		return s.intentLogout(ctx, user)
	default:
		s.logger.Debug("Ignoring unknown callback", zap.String("data", callback.Data))
		return nil
	}
}

// touchUser upserts the user record, refreshes the display fields and writes
// the audit activity entry for the inbound event.
func (s *BotService) touchUser(ctx context.Context, from *tgbotapi.User, action, payload string) (*models.User, error) {
	contact := repository.UserContact{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	}
	user, err := s.userRepo.GetOrCreate(ctx, contact, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	activity := &models.Activity{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		Action:     action,
		Message:    payload,
		Timestamp:  s.now().UTC(),
	}
	if err := s.activityRepo.Insert(ctx, activity); err != nil {
		s.logger.Warn("Failed to write activity entry", zap.Error(err))
	}
	return user, nil
}

func (s *BotService) intentStart(ctx context.Context, user *models.User) error {
	switch ValidateUser(user, s.now()) {
	case models.OutcomeValid:
		return s.send(ctx, user.TelegramID,
			fmt.Sprintf("Welcome back! Your license is active until %s.", user.LicenseExpires.Format("2006-01-02 15:04")),
			interfaces.Button{Label: "Start program", Data: cbProgramStart},
			interfaces.Button{Label: "Status", Data: cbStatus},
			interfaces.Button{Label: "Support", Data: cbSupport},
			interfaces.Button{Label: "Logout", Data: cbLogout},
		)
	case models.OutcomeBanned:
		return s.send(ctx, user.TelegramID, "Your account is banned. Contact support if you believe this is a mistake.")
	case models.OutcomeLocked:
		return s.send(ctx, user.TelegramID,
			"Your account is locked. You can request an unlock from an administrator.",
			interfaces.Button{Label: "Request unlock", Data: cbUnlockRequest},
		)
	case models.OutcomeExpired:
		return s.send(ctx, user.TelegramID,
			"Your license has expired. Buy a new key or activate one with:\nlicense activate <key>",
			interfaces.Button{Label: "Buy license", Data: cbBuy},
			interfaces.Button{Label: "Status", Data: cbStatus},
			interfaces.Button{Label: "Support", Data: cbSupport},
		)
	default: // no license
		return s.send(ctx, user.TelegramID,
			"Welcome! You need a license key to use this bot.\nActivate one with:\nlicense activate <key>",
			interfaces.Button{Label: "Buy license", Data: cbBuy},
			interfaces.Button{Label: "Status", Data: cbStatus},
			interfaces.Button{Label: "Support", Data: cbSupport},
		)
	}
}

// intentBuy opens a purchase ticket for manual handling. No payment flow
// exists; an administrator follows up out of band.
func (s *BotService) intentBuy(ctx context.Context, user *models.User) error {
	if err := s.openTicket(ctx, user, models.TicketPurchase, "License purchase requested"); err != nil {
		return err
	}
	return s.send(ctx, user.TelegramID,
		"Purchase ticket created. An administrator will contact you to arrange payment and your license key.")
}

// intentSupport opens a one-off support ticket for manual follow-up.
func (s *BotService) intentSupport(ctx context.Context, user *models.User) error {
	if err := s.openTicket(ctx, user, models.TicketSupport, "Support requested"); err != nil {
		return err
	}
	return s.send(ctx, user.TelegramID,
		"Support ticket created. An administrator will get back to you shortly.")
}

func (s *BotService) intentUnlockRequest(ctx context.Context, user *models.User) error {
	if err := s.openTicket(ctx, user, models.TicketUnlock, "Account unlock requested"); err != nil {
		return err
	}
	return s.send(ctx, user.TelegramID,
		"Unlock request submitted. An administrator will review your account shortly.")
}

func (s *BotService) intentActivate(ctx context.Context, user *models.User, key string) error {
	if ValidateUser(user, s.now()) == models.OutcomeBanned {
		return s.send(ctx, user.TelegramID, "Your account is banned. A license cannot be activated.")
	}
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" {
		return s.send(ctx, user.TelegramID, "Usage: license activate <key>")
	}

	license, err := s.licenses.Redeem(ctx, key, user, s.now().UTC())
	if err != nil {
		if errors.Is(err, domainErrors.ErrLicenseInvalidOrUsed) {
			return s.send(ctx, user.TelegramID, "That license key is invalid or has already been used.")
		}
		return fmt.Errorf("redeem failed: %w", err)
	}
	return s.send(ctx, user.TelegramID,
		fmt.Sprintf("License activated! Valid until %s.", license.ExpiresAt.Format("2006-01-02 15:04")),
		interfaces.Button{Label: "Start program", Data: cbProgramStart},
	)
}

func (s *BotService) intentStatus(ctx context.Context, user *models.User) error {
	switch ValidateUser(user, s.now()) {
	case models.OutcomeValid:
		return s.send(ctx, user.TelegramID, fmt.Sprintf(
			"License: %s\nExpires: %s\nExecutions: %d",
			*user.LicenseKey, user.LicenseExpires.Format("2006-01-02 15:04"), user.ScriptExecutions))
	case models.OutcomeBanned:
		return s.send(ctx, user.TelegramID, "Status: banned.")
	case models.OutcomeLocked:
		return s.send(ctx, user.TelegramID, "Status: locked.",
			interfaces.Button{Label: "Request unlock", Data: cbUnlockRequest})
	case models.OutcomeExpired:
		return s.send(ctx, user.TelegramID, "Status: license expired.",
			interfaces.Button{Label: "Buy license", Data: cbBuy})
	default:
		return s.send(ctx, user.TelegramID, "Status: no license.",
			interfaces.Button{Label: "Buy license", Data: cbBuy})
	}
}

func (s *BotService) intentProgramStart(ctx context.Context, user *models.User) error {
	err := s.licenses.RunProgram(ctx, user, s.now().UTC())
	switch {
	case err == nil:
		return s.send(ctx, user.TelegramID, "Program started.",
			interfaces.Button{Label: "Status", Data: cbStatus},
			interfaces.Button{Label: "Logout", Data: cbLogout},
		)
	case errors.Is(err, domainErrors.ErrQuotaExhausted):
		return s.send(ctx, user.TelegramID, "Your license has no executions left.",
			interfaces.Button{Label: "Buy license", Data: cbBuy})
	case errors.Is(err, domainErrors.ErrUserBanned):
		return s.send(ctx, user.TelegramID, "Your account is banned.")
	case errors.Is(err, domainErrors.ErrUserLocked):
		return s.send(ctx, user.TelegramID, "Your account is locked.",
			interfaces.Button{Label: "Request unlock", Data: cbUnlockRequest})
	case errors.Is(err, domainErrors.ErrLicenseExpired):
		return s.send(ctx, user.TelegramID, "Your license has expired.",
			interfaces.Button{Label: "Buy license", Data: cbBuy})
	case errors.Is(err, domainErrors.ErrNoActiveLicense):
		return s.send(ctx, user.TelegramID, "You need an active license to start the program.",
			interfaces.Button{Label: "Buy license", Data: cbBuy})
	default:
		return fmt.Errorf("program start failed: %w", err)
	}
}

// intentLogout deactivates the session flag without touching the license
// binding; a later /start with a valid license reactivates normally.
func (s *BotService) intentLogout(ctx context.Context, user *models.User) error {
	if err := s.userRepo.SetActive(ctx, user.ID, false); err != nil {
		return err
	}
	return s.send(ctx, user.TelegramID, "Logged out. Send /start to come back.")
}

func (s *BotService) openTicket(ctx context.Context, user *models.User, ticketType models.TicketType, message string) error {
	ticket := &models.Ticket{
		UserID:     user.ID,
		TelegramID: user.TelegramID,
		Type:       ticketType,
		Status:     models.TicketOpen,
		Message:    message,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return fmt.Errorf("failed to open %s ticket: %w", ticketType, err)
	}
	if err := s.publisher.Publish(ctx, kafka.TopicTicketEvents, kafka.EventTicketOpened, ticket.ID.String(), ticket); err != nil {
		s.logger.Warn("Failed to publish ticket event", zap.Error(err))
	}
	return nil
}

// send delivers best effort: a failed notification is logged and swallowed so
// the mutation that preceded it stays committed.
func (s *BotService) send(ctx context.Context, chatID int64, text string, buttons ...interfaces.Button) error {
	if err := s.notifier.Notify(ctx, chatID, text, buttons...); err != nil {
		s.logger.Warn("Failed to send bot reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	return nil
}
