package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/interfaces"
)

// TelegramNotifier delivers outbound messages through the Telegram Bot API.
// Failures are wrapped as ErrNotificationFailed; callers log and move on.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewTelegramNotifier(botToken string, logger *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot api: %w", err)
	}
	return &TelegramNotifier{
		api:    api,
		logger: logger.Named("telegram_notifier"),
	}, nil
}

// SetWebhook registers the webhook URL with Telegram. Startup continues even
// when this fails; the operator can re-register later.
func (n *TelegramNotifier) SetWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to build webhook config: %w", err)
	}
	if _, err := n.api.Request(wh); err != nil {
		return fmt.Errorf("failed to set telegram webhook: %w", err)
	}
	return nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, text string, buttons ...interfaces.Button) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
		for _, b := range buttons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("Failed to deliver telegram message",
			zap.Int64("chat_id", chatID), zap.Error(err))
		return fmt.Errorf("%w: %v", domainErrors.ErrNotificationFailed, err)
	}
	return nil
}

var _ interfaces.Notifier = (*TelegramNotifier)(nil)
