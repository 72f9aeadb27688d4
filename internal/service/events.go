package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/internal/gateway"
)

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func requesterActor(requester domain.Requester) events.Actor {
	return events.Actor{
		Kind: events.ActorRequester,
		ID:   requester.ID,
		Name: requester.DisplayName,
	}
}

func staffActor(staff gateway.User) events.Actor {
	return events.Actor{
		Kind: events.ActorStaff,
		ID:   staff.ID,
		Name: staff.DisplayName,
	}
}

// preview shortens a reply body to at most max runes for event payloads.
// Truncation happens on rune boundaries so multi-byte text stays valid.
func preview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
