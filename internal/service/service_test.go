package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
	"github.com/spec-kit/support-bot/internal/gateway/gatewaytest"
	"github.com/spec-kit/support-bot/internal/render"
	"github.com/spec-kit/support-bot/internal/repository"
)

const (
	testStaffChannel   = int64(900)
	testRequesterID    = int64(42)
	testStaffMemberID  = int64(7)
	testOtherStaffID   = int64(8)
	testMaxAttachments = 5
)

// memSessions is a plain map-backed session store for tests.
type memSessions struct {
	mu       sync.Mutex
	sessions map[int64]domain.IntakeSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[int64]domain.IntakeSession)}
}

func (s *memSessions) Get(ctx context.Context, requesterID int64) (*domain.IntakeSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[requesterID]
	if !ok {
		return nil, nil
	}
	clone := sess
	clone.Attachments = append([]domain.Attachment(nil), sess.Attachments...)
	return &clone, nil
}

func (s *memSessions) Put(ctx context.Context, requesterID int64, session *domain.IntakeSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	clone.Attachments = append([]domain.Attachment(nil), session.Attachments...)
	s.sessions[requesterID] = clone
	return nil
}

func (s *memSessions) Delete(ctx context.Context, requesterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, requesterID)
	return nil
}

// eventSink captures every published event for assertions.
type eventSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *eventSink) capture(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *eventSink) all() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func (s *eventSink) ofType(eventType events.EventType) []events.Event {
	var result []events.Event
	for _, event := range s.all() {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

// testEnv wires the full service stack against fakes.
type testEnv struct {
	cfg       config.SupportConfig
	sessions  *memSessions
	tickets   repository.TicketRepository
	gw        *gatewaytest.Recorder
	sink      *eventSink
	catalog   *render.Catalog
	intake    *IntakeService
	lifecycle *LifecycleService
	replies   *ReplyRouter
}

func newTestEnv(mutate ...func(*config.SupportConfig)) *testEnv {
	cfg := config.SupportConfig{
		StaffChannel:       testStaffChannel,
		MaxAttachments:     testMaxAttachments,
		MediaDuringConfirm: true,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	env := &testEnv{
		cfg:      cfg,
		sessions: newMemSessions(),
		tickets:  repository.NewMemoryTicketRepository(),
		gw:       gatewaytest.NewRecorder(),
		sink:     &eventSink{},
		catalog:  render.NewCatalog(),
	}

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketCreated, env.sink.capture)
	dispatcher.Subscribe(events.EventTicketStatusChanged, env.sink.capture)
	dispatcher.Subscribe(events.EventReplyDelivered, env.sink.capture)

	logger := zap.NewNop()
	env.intake = NewIntakeService(cfg, IntakeDependencies{
		Sessions:   env.sessions,
		Tickets:    env.tickets,
		Gateway:    env.gw,
		Dispatcher: dispatcher,
		Catalog:    env.catalog,
	}, logger)
	env.lifecycle = NewLifecycleService(cfg, LifecycleDependencies{
		Tickets:    env.tickets,
		Gateway:    env.gw,
		Dispatcher: dispatcher,
		Catalog:    env.catalog,
	}, logger)
	env.replies = NewReplyRouter(ReplyRouterDependencies{
		Tickets:    env.tickets,
		Lifecycle:  env.lifecycle,
		Gateway:    env.gw,
		Dispatcher: dispatcher,
		Catalog:    env.catalog,
	}, logger)
	return env
}

func requesterUpdate(mutate func(*gateway.Update)) gateway.Update {
	u := gateway.Update{
		Channel: testRequesterID,
		From:    gateway.User{ID: testRequesterID, DisplayName: "Alice", Username: "alice"},
	}
	if mutate != nil {
		mutate(&u)
	}
	return u
}

func staffUser(id int64) gateway.User {
	return gateway.User{ID: id, DisplayName: "Bob"}
}

func staffUpdate(staffID int64, mutate func(*gateway.Update)) gateway.Update {
	u := gateway.Update{
		Channel: testStaffChannel,
		From:    staffUser(staffID),
	}
	if mutate != nil {
		mutate(&u)
	}
	return u
}

// runIntake pushes one update through the wizard, failing the test on error.
func (env *testEnv) runIntake(ctx context.Context, u gateway.Update) error {
	return env.intake.HandleUpdate(ctx, u)
}

// startDraft walks the wizard to the collecting phase for testRequesterID.
func (env *testEnv) startDraft(ctx context.Context, category domain.Category) {
	_ = env.runIntake(ctx, requesterUpdate(func(u *gateway.Update) { u.Intent = gateway.IntentNewTicket }))
	_ = env.runIntake(ctx, requesterUpdate(func(u *gateway.Update) {
		u.Intent = gateway.IntentCategory
		u.Data = string(category)
	}))
}

// submitTicket drives a full intake to submission and returns the new ticket.
func (env *testEnv) submitTicket(ctx context.Context, body string) *domain.Ticket {
	env.startDraft(ctx, domain.CategoryBug)
	_ = env.runIntake(ctx, requesterUpdate(func(u *gateway.Update) { u.Text = body }))
	_ = env.runIntake(ctx, requesterUpdate(func(u *gateway.Update) { u.Intent = gateway.IntentSubmit }))

	tickets, err := env.tickets.ListByRequester(ctx, testRequesterID, 0, 0)
	if err != nil || len(tickets) == 0 {
		return nil
	}
	latest := tickets[len(tickets)-1]
	ticket, err := env.tickets.GetByID(ctx, latest.ID)
	if err != nil {
		return nil
	}
	return ticket
}
