package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/queue"
)

// UpdateHandler processes one decoded Telegram update.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update) error
}

// Pool consumes queued webhook payloads and dispatches them to the bot
// service. Each task is handled independently; there is no ordering guarantee
// across users, and a malformed payload is logged and dropped without a
// user-visible response.
type Pool struct {
	queue       queue.TaskQueue
	bot         UpdateHandler
	logger      *zap.Logger
	concurrency int
}

func NewPool(q queue.TaskQueue, bot UpdateHandler, concurrency int, logger *zap.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:       q,
		bot:         bot,
		logger:      logger.Named("worker_pool"),
		concurrency: concurrency,
	}
}

// Run blocks until ctx is cancelled and all workers have drained.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.loop(ctx, id)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, id int) {
	logger := p.logger.With(zap.Int("worker", id))
	for {
		if ctx.Err() != nil {
			return
		}
		payload, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || errors.Is(err, context.Canceled) {
				continue
			}
			logger.Error("Failed to dequeue task", zap.Error(err))
			continue
		}
		p.process(ctx, logger, payload)
	}
}

func (p *Pool) process(ctx context.Context, logger *zap.Logger, payload []byte) {
	var update tgbotapi.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		logger.Warn("Dropping malformed update payload", zap.Error(err))
		return
	}
	if err := p.bot.HandleUpdate(ctx, &update); err != nil {
		logger.Error("Failed to handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}
