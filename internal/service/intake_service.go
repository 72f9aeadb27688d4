package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/repository"
	"github.com/spec-kit/support-bot/internal/session"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// IntakeService drives the per-requester ticket wizard: category selection,
// detail collection, attachment collection and confirmation. All recoverable
// intake errors are answered with a re-prompt right here and never propagate.
type IntakeService struct {
	sessions   session.Store
	tickets    repository.TicketRepository
	gateway    gateway.Gateway
	dispatcher events.Dispatcher
	catalog    *render.Catalog
	cfg        config.SupportConfig
	logger     *zap.Logger
}

// IntakeDependencies bundles collaborators for the intake service.
type IntakeDependencies struct {
	Sessions   session.Store
	Tickets    repository.TicketRepository
	Gateway    gateway.Gateway
	Dispatcher events.Dispatcher
	Catalog    *render.Catalog
}

// NewIntakeService constructs the service.
func NewIntakeService(cfg config.SupportConfig, deps IntakeDependencies, logger *zap.Logger) *IntakeService {
	return &IntakeService{
		sessions:   deps.Sessions,
		tickets:    deps.Tickets,
		gateway:    deps.Gateway,
		dispatcher: deps.Dispatcher,
		catalog:    deps.Catalog,
		cfg:        cfg,
		logger:     logger,
	}
}

// HandleUpdate processes one inbound update from a requester conversation.
// Updates for one requester arrive strictly serialized (see bot.Dispatcher),
// so the phase transitions below need no locking.
func (s *IntakeService) HandleUpdate(ctx context.Context, u gateway.Update) error {
	if u.Intent == gateway.IntentHome {
		// Home destroys the session unconditionally, from any phase.
		if err := s.sessions.Delete(ctx, u.From.ID); err != nil {
			s.logger.Warn("session delete failed", zap.Int64("requester_id", u.From.ID), zap.Error(err))
		}
		s.send(ctx, u.Channel, s.catalog.Greeting(), s.catalog.NewTicketAction())
		return nil
	}

	sess, err := s.sessions.Get(ctx, u.From.ID)
	if err != nil {
		s.logger.Warn("session load failed; starting fresh", zap.Int64("requester_id", u.From.ID), zap.Error(err))
		sess = nil
	}
	if sess == nil {
		// No session: a "new ticket" press, or content that raced a
		// destroyed session. Either way the wizard restarts at the
		// category step.
		sess = domain.NewIntakeSession()
		s.put(ctx, u.From.ID, sess)
		s.send(ctx, u.Channel, s.catalog.ChooseCategory(), s.catalog.CategoryActions()...)
		return nil
	}

	switch sess.Phase {
	case domain.PhaseChoosingCategory:
		s.handleChoosing(ctx, u, sess)
	case domain.PhaseCollecting:
		s.handleCollecting(ctx, u, sess)
	case domain.PhaseConfirming:
		return s.handleConfirming(ctx, u, sess)
	default:
		s.sessions.Delete(ctx, u.From.ID) //nolint:errcheck
		s.send(ctx, u.Channel, s.catalog.ChooseCategory(), s.catalog.CategoryActions()...)
		s.put(ctx, u.From.ID, domain.NewIntakeSession())
	}
	return nil
}

func (s *IntakeService) handleChoosing(ctx context.Context, u gateway.Update, sess *domain.IntakeSession) {
	if u.Intent == gateway.IntentCategory {
		category := domain.Category(u.Data)
		if category.Valid() {
			sess.Category = category
			sess.Phase = domain.PhaseCollecting
			s.put(ctx, u.From.ID, sess)
			s.send(ctx, u.Channel, s.catalog.PromptDetails(), s.catalog.CollectActions()...)
			return
		}
	}
	// Unrecognized selection: re-prompt, session unchanged.
	s.reject(ctx, u.Channel, errorutil.NewInvalidSelection(u.Data), s.catalog.InvalidSelection(), s.catalog.CategoryActions()...)
}

func (s *IntakeService) handleCollecting(ctx context.Context, u gateway.Update, sess *domain.IntakeSession) {
	switch {
	case u.Attachment != nil:
		s.appendAttachment(ctx, u, sess)
	case u.Text != "":
		// First (or corrected) description. Body present means the draft
		// is complete enough to confirm; attachments stay optional.
		sess.Body = u.Text
		sess.Phase = domain.PhaseConfirming
		s.put(ctx, u.From.ID, sess)
		s.sendConfirmation(ctx, u.Channel, sess)
	default:
		s.send(ctx, u.Channel, s.catalog.PromptDetails(), s.catalog.CollectActions()...)
	}
}

func (s *IntakeService) handleConfirming(ctx context.Context, u gateway.Update, sess *domain.IntakeSession) error {
	switch u.Intent {
	case gateway.IntentSubmit:
		return s.submit(ctx, u, sess)
	case gateway.IntentAddAttachment:
		s.send(ctx, u.Channel, s.catalog.PromptAttachment(), s.catalog.HomeAction())
	case gateway.IntentEditText:
		// Back to collecting with attachments preserved; the next text
		// message overwrites the body.
		sess.Phase = domain.PhaseCollecting
		s.put(ctx, u.From.ID, sess)
		s.send(ctx, u.Channel, s.catalog.PromptEditText(), s.catalog.CollectActions()...)
	case gateway.IntentBack:
		// Changing topic discards the whole draft.
		fresh := domain.NewIntakeSession()
		s.put(ctx, u.From.ID, fresh)
		s.send(ctx, u.Channel, s.catalog.ChooseCategory(), s.catalog.CategoryActions()...)
	case "":
		switch {
		case u.Attachment != nil:
			if !s.cfg.MediaDuringConfirm {
				s.send(ctx, u.Channel, s.catalog.MediaNotAccepted(), s.catalog.ConfirmActions()...)
				return nil
			}
			s.appendAttachment(ctx, u, sess)
		case u.Text != "":
			// Bare text while confirming overwrites the body.
			sess.Body = u.Text
			s.put(ctx, u.From.ID, sess)
			s.sendConfirmation(ctx, u.Channel, sess)
		default:
			s.sendConfirmation(ctx, u.Channel, sess)
		}
	default:
		s.sendConfirmation(ctx, u.Channel, sess)
	}
	return nil
}

// appendAttachment applies the shared append rule for COLLECTING and
// CONFIRMING: reject beyond the bound with the draft untouched, otherwise
// append and advance to confirmation once a body exists.
func (s *IntakeService) appendAttachment(ctx context.Context, u gateway.Update, sess *domain.IntakeSession) {
	if len(sess.Attachments) >= s.cfg.MaxAttachments {
		s.reject(ctx, u.Channel, errorutil.NewAttachmentLimit(s.cfg.MaxAttachments), s.catalog.AttachmentLimit(s.cfg.MaxAttachments))
		return
	}
	sess.Attachments = append(sess.Attachments, *u.Attachment)
	if sess.HasBody() {
		sess.Phase = domain.PhaseConfirming
		s.put(ctx, u.From.ID, sess)
		s.sendConfirmation(ctx, u.Channel, sess)
		return
	}
	s.put(ctx, u.From.ID, sess)
	s.send(ctx, u.Channel, s.catalog.AttachmentSaved(), s.catalog.CollectActions()...)
}

func (s *IntakeService) submit(ctx context.Context, u gateway.Update, sess *domain.IntakeSession) error {
	if !sess.HasBody() {
		s.reject(ctx, u.Channel, errorutil.NewIncompleteSubmission(), s.catalog.IncompleteSubmission(), s.catalog.ConfirmActions()...)
		return nil
	}

	ticket := &domain.Ticket{
		Status:      domain.TicketStatusNew,
		Requester:   u.Requester(),
		Category:    sess.Category,
		Body:        sess.Body,
		Attachments: sess.Attachments,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		// Session is kept so the requester can retry the submit.
		return err
	}
	if err := s.sessions.Delete(ctx, u.From.ID); err != nil {
		s.logger.Warn("session delete failed", zap.Int64("requester_id", u.From.ID), zap.Error(err))
	}

	s.send(ctx, u.Channel, s.catalog.TicketCreated(ticket.ID))
	s.postCard(ctx, ticket)

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    requesterActor(ticket.Requester),
		Payload: events.TicketCreatedPayload{
			Category:        ticket.Category,
			AttachmentCount: len(ticket.Attachments),
			RequesterID:     ticket.Requester.ID,
		},
	})
	return nil
}

// postCard publishes the submitted ticket to the staff channel and records
// the card reference for later in-place edits. Tickets become visible to
// staff only here, never mid-intake.
func (s *IntakeService) postCard(ctx context.Context, ticket *domain.Ticket) {
	if s.cfg.StaffChannel == 0 {
		return
	}
	ref, err := s.gateway.SendText(ctx, s.cfg.StaffChannel, s.catalog.Card(ticket), s.catalog.CardActions(ticket.ID)...)
	if err != nil {
		s.logger.Warn("ticket card post failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if _, err := s.tickets.Update(ctx, ticket.ID, repository.TicketPatch{CardMessage: &ref}); err != nil {
		s.logger.Warn("card ref update failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (s *IntakeService) put(ctx context.Context, requesterID int64, sess *domain.IntakeSession) {
	if err := s.sessions.Put(ctx, requesterID, sess); err != nil {
		s.logger.Warn("session store failed", zap.Int64("requester_id", requesterID), zap.Error(err))
	}
}

// reject answers a recoverable intake error with a re-prompt. The error
// never propagates; its code lands on the debug log for tracing.
func (s *IntakeService) reject(ctx context.Context, channel int64, err error, text string, actions ...gateway.Action) {
	s.logger.Debug("intake rejected",
		zap.Int64("channel", channel),
		zap.String("code", errorutil.ToDomainError(err).Code),
		zap.Error(err))
	s.send(ctx, channel, text, actions...)
}

func (s *IntakeService) send(ctx context.Context, channel int64, text string, actions ...gateway.Action) {
	if _, err := s.gateway.SendText(ctx, channel, text, actions...); err != nil {
		s.logger.Warn("gateway send failed", zap.Int64("channel", channel), zap.Error(err))
	}
}

func (s *IntakeService) sendConfirmation(ctx context.Context, channel int64, sess *domain.IntakeSession) {
	s.send(ctx, channel, s.catalog.Confirmation(sess), s.catalog.ConfirmActions()...)
}
