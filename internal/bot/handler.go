package bot

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/service"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// Handler routes inbound updates to the intake wizard or the staff flow
// and is the error boundary: every recoverable failure becomes a message
// to the party that caused it, and nothing propagates past this point.
type Handler struct {
	intake    *service.IntakeService
	replies   *service.ReplyRouter
	lifecycle *service.LifecycleService
	gateway   gateway.Gateway
	catalog   *render.Catalog
	cfg       config.SupportConfig
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// HandlerDependencies bundles collaborators for the update handler.
type HandlerDependencies struct {
	Intake    *service.IntakeService
	Replies   *service.ReplyRouter
	Lifecycle *service.LifecycleService
	Gateway   gateway.Gateway
	Catalog   *render.Catalog
	Metrics   *observability.Metrics
}

// NewHandler constructs the handler.
func NewHandler(cfg config.SupportConfig, deps HandlerDependencies, logger *zap.Logger) *Handler {
	return &Handler{
		intake:    deps.Intake,
		replies:   deps.Replies,
		lifecycle: deps.Lifecycle,
		gateway:   deps.Gateway,
		catalog:   deps.Catalog,
		cfg:       cfg,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// Handle processes one inbound update. It is invoked by the Dispatcher,
// already serialized per conversation.
func (h *Handler) Handle(ctx context.Context, u gateway.Update) {
	if h.cfg.StaffChannel != 0 && u.Channel == h.cfg.StaffChannel {
		h.metrics.RecordUpdate("staff")
		h.handleStaff(ctx, u)
		return
	}

	h.metrics.RecordUpdate("requester")
	if err := h.intake.HandleUpdate(ctx, u); err != nil {
		domainErr := errorutil.ToDomainError(err)
		h.metrics.RecordError("intake", domainErr.Code)
		h.logger.Error("intake update failed",
			zap.Int64("requester_id", u.From.ID),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr))
	}
}

func (h *Handler) handleStaff(ctx context.Context, u gateway.Update) {
	switch u.Intent {
	case gateway.IntentTake:
		ticketID, ok := h.ticketIDFromAction(u)
		if !ok {
			return
		}
		if _, err := h.lifecycle.Take(ctx, ticketID, u.From); err != nil {
			h.reportStaffError(ctx, ticketID, err)
		}
	case gateway.IntentClose:
		ticketID, ok := h.ticketIDFromAction(u)
		if !ok {
			return
		}
		if _, err := h.lifecycle.Close(ctx, ticketID, u.From); err != nil {
			h.reportStaffError(ctx, ticketID, err)
		}
	case gateway.IntentReply:
		ticketID, ok := h.ticketIDFromAction(u)
		if !ok {
			return
		}
		if err := h.replies.BeginReply(ctx, u.From, ticketID); err != nil {
			h.reportStaffError(ctx, ticketID, err)
			return
		}
		h.sendStaff(ctx, h.catalog.ReplyPrompt(ticketID))
	case "":
		handled, err := h.replies.ConsumeMessage(ctx, u.From, u)
		if !handled {
			// Ordinary staff-channel chatter, none of our business.
			return
		}
		if err != nil {
			h.reportStaffError(ctx, 0, err)
		}
	default:
		h.logger.Debug("ignoring unknown staff intent", zap.String("intent", u.Intent))
	}
}

// ticketIDFromAction parses the ticket id carried by a card action. Card
// actions are bot-generated, so a malformed one is logged and dropped
// rather than answered.
func (h *Handler) ticketIDFromAction(u gateway.Update) (int64, bool) {
	ticketID, err := strconv.ParseInt(u.Data, 10, 64)
	if err != nil || ticketID <= 0 {
		h.logger.Warn("malformed ticket action",
			zap.String("intent", u.Intent),
			zap.String("data", u.Data))
		return 0, false
	}
	return ticketID, true
}

// reportStaffError renders a staff action failure back into the staff
// channel. None of these abort anything: the ticket stays as it was.
func (h *Handler) reportStaffError(ctx context.Context, ticketID int64, err error) {
	domainErr := errorutil.ToDomainError(err)
	h.metrics.RecordError("staff", domainErr.Code)

	if id, ok := domainErr.Details["ticket_id"].(int64); ok {
		ticketID = id
	}

	var text string
	switch domainErr.Code {
	case errorutil.CodeTicketNotFound:
		text = h.catalog.TicketNotFound(ticketID)
	case errorutil.CodeTicketClosed, errorutil.CodeInvalidTransition:
		text = h.catalog.TicketClosed(ticketID)
	case errorutil.CodeDeliveryFailure:
		text = h.catalog.DeliveryWarn(ticketID)
	default:
		h.logger.Error("staff action failed",
			zap.Int64("ticket_id", ticketID),
			zap.String("code", domainErr.Code),
			zap.Error(domainErr))
		return
	}

	h.logger.Info("staff action rejected",
		zap.Int64("ticket_id", ticketID),
		zap.String("code", domainErr.Code))
	h.sendStaff(ctx, text)
}

func (h *Handler) sendStaff(ctx context.Context, text string) {
	if _, err := h.gateway.SendText(ctx, h.cfg.StaffChannel, text); err != nil {
		h.logger.Warn("staff channel send failed", zap.Error(err))
	}
}
