package session

import (
	"context"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Store keeps transient intake sessions keyed by requester id. A missing
// session is not an error: Get returns (nil, nil) and the wizard starts a
// fresh one, so a message racing a destroyed session re-enters the
// category step instead of failing.
type Store interface {
	Get(ctx context.Context, requesterID int64) (*domain.IntakeSession, error)
	Put(ctx context.Context, requesterID int64, session *domain.IntakeSession) error
	Delete(ctx context.Context, requesterID int64) error
}
