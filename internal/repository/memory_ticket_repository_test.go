package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

func newTicket(requesterID int64) *domain.Ticket {
	return &domain.Ticket{
		Status:    domain.TicketStatusNew,
		Requester: domain.Requester{ID: requesterID, DisplayName: "Alice"},
		Category:  domain.CategoryBug,
		Body:      "something broke",
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		ticket := newTicket(42)
		require.NoError(t, repo.Create(ctx, ticket))
		assert.Equal(t, want, ticket.ID)
		assert.False(t, ticket.CreatedAt.IsZero())
	}
}

func TestCreateConcurrentIDsAreUnique(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	const n = 100
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := newTicket(42)
			require.NoError(t, repo.Create(ctx, ticket))
			ids <- ticket.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		assert.GreaterOrEqual(t, id, int64(1))
		assert.LessOrEqual(t, id, int64(n))
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestGetByIDReturnsNotFound(t *testing.T) {
	repo := NewMemoryTicketRepository()

	_, err := repo.GetByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketNotFound))
}

func TestGetByIDReturnsACopy(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	ticket := newTicket(42)
	ticket.Attachments = []domain.Attachment{{Kind: domain.AttachmentImage, MediaRef: "m1"}}
	require.NoError(t, repo.Create(ctx, ticket))

	first, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	first.Body = "mutated"
	first.Attachments[0].MediaRef = "mutated"

	second, err := repo.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "something broke", second.Body)
	assert.Equal(t, "m1", second.Attachments[0].MediaRef)
}

func TestUpdateAppliesPatchFields(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryTicketRepositoryWithClock(func() time.Time { return base })
	ctx := context.Background()

	ticket := newTicket(42)
	require.NoError(t, repo.Create(ctx, ticket))

	status := domain.TicketStatusInProgress
	assignee := "Bob"
	ref := domain.MessageRef{Channel: 900, MessageID: 5}
	updated, err := repo.Update(ctx, ticket.ID, TicketPatch{
		Status:       &status,
		AssigneeName: &assignee,
		CardMessage:  &ref,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "Bob", updated.AssigneeName)
	require.NotNil(t, updated.CardMessage)
	assert.Equal(t, int64(5), updated.CardMessage.MessageID)
	assert.Nil(t, updated.ClosedAt)

	closed := domain.TicketStatusClosed
	closedAt := base.Add(time.Hour)
	updated, err = repo.Update(ctx, ticket.ID, TicketPatch{Status: &closed, ClosedAt: &closedAt})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.NotNil(t, updated.ClosedAt)
	assert.Equal(t, closedAt, *updated.ClosedAt)
	// Untouched fields survive partial patches.
	assert.Equal(t, "Bob", updated.AssigneeName)
}

func TestUpdateUnknownTicket(t *testing.T) {
	repo := NewMemoryTicketRepository()

	status := domain.TicketStatusClosed
	_, err := repo.Update(context.Background(), 7, TicketPatch{Status: &status})
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketNotFound))
}

func TestListByRequesterFiltersAndPaginates(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newTicket(42)))
	}
	require.NoError(t, repo.Create(ctx, newTicket(7)))

	all, err := repo.ListByRequester(ctx, 42, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}

	page, err := repo.ListByRequester(ctx, 42, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)

	empty, err := repo.ListByRequester(ctx, 42, 10, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
