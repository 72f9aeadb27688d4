package repository

import (
	"context"
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
)

// TicketPatch describes a partial, last-writer-wins ticket mutation.
// Nil fields are left untouched.
type TicketPatch struct {
	Status       *domain.TicketStatus
	CardMessage  *domain.MessageRef
	AssigneeName *string
	ClosedAt     *time.Time
}

// TicketRepository encapsulates ticket persistence. Create must be atomic
// with respect to id allocation: ids are sequential integers and no two
// concurrent creations may observe the same one.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, id int64, patch TicketPatch) (*domain.Ticket, error)
	// ListByRequester returns the requester's tickets in id order. A limit
	// of zero or less means no limit.
	ListByRequester(ctx context.Context, requesterID int64, limit, offset int) ([]domain.Ticket, error)
}
