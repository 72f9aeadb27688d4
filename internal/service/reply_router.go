package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// ReplyRouter maps a staff identity to the ticket they are currently
// answering. The bindings map is owned here and nowhere else; at most one
// binding per staff identity, last writer wins.
type ReplyRouter struct {
	mu       sync.Mutex
	bindings map[int64]int64

	tickets    repository.TicketRepository
	lifecycle  *LifecycleService
	gateway    gateway.Gateway
	dispatcher events.Dispatcher
	catalog    *render.Catalog
	logger     *zap.Logger
}

// ReplyRouterDependencies bundles collaborators for the router.
type ReplyRouterDependencies struct {
	Tickets    repository.TicketRepository
	Lifecycle  *LifecycleService
	Gateway    gateway.Gateway
	Dispatcher events.Dispatcher
	Catalog    *render.Catalog
}

// NewReplyRouter constructs the router.
func NewReplyRouter(deps ReplyRouterDependencies, logger *zap.Logger) *ReplyRouter {
	return &ReplyRouter{
		bindings:   make(map[int64]int64),
		tickets:    deps.Tickets,
		lifecycle:  deps.Lifecycle,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		catalog:    deps.Catalog,
		logger:     logger,
	}
}

// BeginReply binds the staff member's next message to the given ticket.
// A doomed reply is rejected up front: the ticket must exist and be open.
func (r *ReplyRouter) BeginReply(ctx context.Context, staff gateway.User, ticketID int64) error {
	ticket, err := r.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return errorutil.NewTicketClosed(ticketID)
	}

	r.mu.Lock()
	r.bindings[staff.ID] = ticketID
	r.mu.Unlock()
	return nil
}

// ConsumeMessage resolves a staff-channel message against the sender's
// binding. Without a binding the message is ordinary chatter and is left
// alone (false, nil). With one, the binding is consumed no matter the
// outcome: delivered, ticket vanished, or delivery failed — there is no
// retry queue.
func (r *ReplyRouter) ConsumeMessage(ctx context.Context, staff gateway.User, u gateway.Update) (bool, error) {
	r.mu.Lock()
	ticketID, ok := r.bindings[staff.ID]
	if ok {
		delete(r.bindings, staff.ID)
	}
	r.mu.Unlock()
	if !ok {
		return false, nil
	}

	ticket, err := r.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return true, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		// Closed between button press and message.
		return true, errorutil.NewTicketClosed(ticketID)
	}

	if err := r.deliver(ctx, ticket, u); err != nil {
		return true, errorutil.NewDeliveryFailure(err)
	}

	if _, err := r.lifecycle.ReplyDelivered(ctx, ticketID, staff); err != nil {
		// The reply reached the requester; a failed auto-advance is an
		// internal matter, not a staff-facing error.
		r.logger.Warn("reply auto-advance failed", zap.Int64("ticket_id", ticketID), zap.Error(err))
	}

	publishEvent(ctx, r.dispatcher, events.Event{
		Type:     events.EventReplyDelivered,
		TicketID: ticketID,
		Actor:    staffActor(staff),
		Payload: events.ReplyDeliveredPayload{
			StaffID:       staff.ID,
			HasAttachment: u.Attachment != nil,
			BodyPreview:   preview(u.Text, 120),
		},
	})
	return true, nil
}

// HasBinding reports whether the staff member has a pending reply target.
func (r *ReplyRouter) HasBinding(staffID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bindings[staffID]
	return ok
}

func (r *ReplyRouter) deliver(ctx context.Context, ticket *domain.Ticket, u gateway.Update) error {
	if u.Attachment != nil {
		caption := u.Attachment.Caption
		if caption == "" {
			caption = u.Text
		}
		_, err := r.gateway.SendMedia(ctx, ticket.Requester.ID, *u.Attachment, caption)
		return err
	}
	_, err := r.gateway.SendText(ctx, ticket.Requester.ID, r.catalog.StaffReply(u.Text))
	return err
}
