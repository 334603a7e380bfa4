package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/infrastructure/queue"
)

// WebhookHandler accepts Telegram webhook calls. The raw payload is enqueued
// and the transport acknowledged immediately; processing happens in the
// worker pool. Malformed payloads are logged and dropped — Telegram still
// gets a 200 so it does not retry a request that will never parse.
type WebhookHandler struct {
	logger *zap.Logger
	queue  queue.TaskQueue
}

func NewWebhookHandler(logger *zap.Logger, q queue.TaskQueue) *WebhookHandler {
	return &WebhookHandler{
		logger: logger.Named("webhook_handler"),
		queue:  q,
	}
}

// Receive handles POST /api/telegram-webhook.
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		h.logger.Warn("Dropping unreadable webhook payload", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), payload); err != nil {
		h.logger.Error("Failed to enqueue webhook payload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "queue unavailable", Code: "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
