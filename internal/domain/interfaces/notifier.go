package interfaces

import "context"

// Button is one inline keyboard affordance attached to an outbound message.
type Button struct {
	Label string
	Data  string
}

// Notifier delivers text to a Telegram chat. Delivery is best effort: callers
// treat failures as logged-only and never roll back the mutation that
// triggered the message.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string, buttons ...Button) error
}
