package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// LifecycleService owns every ticket status write. Centralizing the writes
// here keeps the reply-delivered auto-advance rule on a single code path.
type LifecycleService struct {
	tickets    repository.TicketRepository
	gateway    gateway.Gateway
	dispatcher events.Dispatcher
	catalog    *render.Catalog
	cfg        config.SupportConfig
	logger     *zap.Logger
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Tickets    repository.TicketRepository
	Gateway    gateway.Gateway
	Dispatcher events.Dispatcher
	Catalog    *render.Catalog
}

// NewLifecycleService constructs the service.
func NewLifecycleService(cfg config.SupportConfig, deps LifecycleDependencies, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		tickets:    deps.Tickets,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		catalog:    deps.Catalog,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew:        {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Take marks the ticket as being worked on by the given staff member and
// re-renders the card. Re-taking an in-progress ticket just changes the
// assignee. The requester is not notified unless NotifyOnTake is set.
func (s *LifecycleService) Take(ctx context.Context, ticketID int64, staff gateway.User) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errorutil.NewTicketClosed(ticketID)
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusInProgress) {
		return nil, errorutil.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusInProgress))
	}

	oldStatus := ticket.Status
	status := domain.TicketStatusInProgress
	assignee := staff.DisplayName
	updated, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{
		Status:       &status,
		AssigneeName: &assignee,
	})
	if err != nil {
		return nil, err
	}

	s.refreshCard(ctx, updated)
	if s.cfg.NotifyOnTake {
		s.notifyRequester(ctx, updated, s.catalog.TakenNotice(updated.ID))
	}
	s.publishStatusChange(ctx, updated, oldStatus, "taken", staffActor(staff))
	return updated, nil
}

// Close terminates the ticket and sends the mandatory closure notice to
// the requester with a fresh-ticket affordance.
func (s *LifecycleService) Close(ctx context.Context, ticketID int64, staff gateway.User) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errorutil.NewTicketClosed(ticketID)
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusClosed) {
		return nil, errorutil.NewInvalidTransition(string(ticket.Status), string(domain.TicketStatusClosed))
	}

	oldStatus := ticket.Status
	status := domain.TicketStatusClosed
	closedAt := s.now()
	updated, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{
		Status:   &status,
		ClosedAt: &closedAt,
	})
	if err != nil {
		return nil, err
	}

	s.refreshCard(ctx, updated)
	s.notifyRequester(ctx, updated, s.catalog.ClosureNotice(updated.ID), s.catalog.NewTicketAction())
	s.publishStatusChange(ctx, updated, oldStatus, "closed", staffActor(staff))
	return updated, nil
}

// ReplyDelivered applies the first-contact side effect: a reply landing on
// a NEW ticket silently advances it to IN_PROGRESS, exactly once.
func (s *LifecycleService) ReplyDelivered(ctx context.Context, ticketID int64, staff gateway.User) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, errorutil.NewTicketClosed(ticketID)
	}
	if ticket.Status != domain.TicketStatusNew {
		return ticket, nil
	}

	status := domain.TicketStatusInProgress
	updated, err := s.tickets.Update(ctx, ticketID, repository.TicketPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	s.refreshCard(ctx, updated)
	s.publishStatusChange(ctx, updated, domain.TicketStatusNew, "first_reply", staffActor(staff))
	return updated, nil
}

// refreshCard re-renders the staff-channel card in place. Closed tickets
// lose their action buttons.
func (s *LifecycleService) refreshCard(ctx context.Context, ticket *domain.Ticket) {
	if ticket.CardMessage == nil {
		return
	}
	var actions []gateway.Action
	if ticket.Status != domain.TicketStatusClosed {
		actions = s.catalog.CardActions(ticket.ID)
	}
	if err := s.gateway.EditMessage(ctx, ticket.CardMessage.Channel, *ticket.CardMessage, s.catalog.Card(ticket), actions...); err != nil {
		s.logger.Warn("card refresh failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (s *LifecycleService) notifyRequester(ctx context.Context, ticket *domain.Ticket, text string, actions ...gateway.Action) {
	if _, err := s.gateway.SendText(ctx, ticket.Requester.ID, text, actions...); err != nil {
		s.logger.Warn("requester notification failed",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("requester_id", ticket.Requester.ID),
			zap.Error(err))
	}
}

func (s *LifecycleService) publishStatusChange(ctx context.Context, ticket *domain.Ticket, oldStatus domain.TicketStatus, reason string, actor events.Actor) {
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Reason:    reason,
		},
	})
}
