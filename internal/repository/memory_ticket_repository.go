package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// memoryTicketRepository is the process-local system of record used when no
// POSTGRES_DSN is configured. A single mutex guards the id counter and the
// ticket map; these are the only pieces of state shared across
// conversations.
type memoryTicketRepository struct {
	mu      sync.Mutex
	nextID  int64
	tickets map[int64]*domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository instantiates the in-memory repository.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets: make(map[int64]*domain.Ticket),
		now:     time.Now,
	}
}

// NewMemoryTicketRepositoryWithClock instantiates the repository with a
// fixed clock for tests.
func NewMemoryTicketRepositoryWithClock(now func() time.Time) TicketRepository {
	return &memoryTicketRepository{
		tickets: make(map[int64]*domain.Ticket),
		now:     now,
	}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	ticket.ID = r.nextID
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	stored := cloneTicket(ticket)
	r.tickets[ticket.ID] = stored
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok {
		return nil, errorutil.NewTicketNotFound(id)
	}
	return cloneTicket(stored), nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, id int64, patch TicketPatch) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok {
		return nil, errorutil.NewTicketNotFound(id)
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	if patch.CardMessage != nil {
		ref := *patch.CardMessage
		stored.CardMessage = &ref
	}
	if patch.AssigneeName != nil {
		stored.AssigneeName = *patch.AssigneeName
	}
	if patch.ClosedAt != nil {
		closedAt := *patch.ClosedAt
		stored.ClosedAt = &closedAt
	}
	stored.UpdatedAt = r.now()
	return cloneTicket(stored), nil
}

func (r *memoryTicketRepository) ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.Ticket
	for _, stored := range r.tickets {
		if stored.Requester.ID == requesterID {
			result = append(result, *cloneTicket(stored))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// cloneTicket deep-copies a ticket so callers never share mutable state
// with the store.
func cloneTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	if t.Attachments != nil {
		clone.Attachments = append([]domain.Attachment(nil), t.Attachments...)
	}
	if t.CardMessage != nil {
		ref := *t.CardMessage
		clone.CardMessage = &ref
	}
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		clone.ClosedAt = &closedAt
	}
	return &clone
}
