package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/bot"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// WebhookHandler receives inbound updates pushed by the messaging gateway
// and hands them to the conversation dispatcher. Processing is async; the
// gateway gets a 202 as soon as the update is queued.
type WebhookHandler struct {
	dispatcher *bot.Dispatcher
	logger     *zap.Logger
}

// NewWebhookHandler returns a new handler instance.
func NewWebhookHandler(dispatcher *bot.Dispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, logger: logger}
}

// Receive parses and enqueues one gateway update.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var update gateway.Update
	if err := c.BodyParser(&update); err != nil {
		return errorutil.NewValidationError("invalid update payload", map[string]any{"parse": err.Error()})
	}

	if update.From.ID == 0 {
		return errorutil.NewValidationError("update is missing sender identity", nil)
	}

	h.dispatcher.Enqueue(update)
	h.logger.Debug("update queued",
		zap.Int64("channel", update.Channel),
		zap.Int64("from_id", update.From.ID),
		zap.String("intent", update.Intent))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}
