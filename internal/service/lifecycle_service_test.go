package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/events"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

func TestLifecycleTransitionTable(t *testing.T) {
	cases := []struct {
		from, to domain.TicketStatus
		allowed  bool
	}{
		{domain.TicketStatusNew, domain.TicketStatusInProgress, true},
		{domain.TicketStatusNew, domain.TicketStatusClosed, true},
		{domain.TicketStatusInProgress, domain.TicketStatusInProgress, true},
		{domain.TicketStatusInProgress, domain.TicketStatusClosed, true},
		{domain.TicketStatusInProgress, domain.TicketStatusNew, false},
		{domain.TicketStatusClosed, domain.TicketStatusNew, false},
		{domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
		{domain.TicketStatusClosed, domain.TicketStatusClosed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, isValidTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTakeAssignsAndRefreshesCard(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)
	env.gw.Reset()

	updated, err := env.lifecycle.Take(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "Bob", updated.AssigneeName)

	sent := env.gw.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "edit", sent[0].Op)
	assert.Equal(t, ticket.CardMessage.MessageID, sent[0].Ref.MessageID)
	assert.Equal(t, env.catalog.Card(updated), sent[0].Text)
	assert.Len(t, sent[0].Actions, 3)

	// Default policy: the requester hears nothing about a take.
	assert.Empty(t, env.gw.SentTo(testRequesterID))

	changes := env.sink.ofType(events.EventTicketStatusChanged)
	require.Len(t, changes, 1)
	payload := changes[0].Payload.(events.TicketStatusChangedPayload)
	assert.Equal(t, "taken", payload.Reason)
}

func TestTakeNotifiesRequesterWhenConfigured(t *testing.T) {
	env := newTestEnv(func(cfg *config.SupportConfig) { cfg.NotifyOnTake = true })
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)
	env.gw.Reset()

	_, err := env.lifecycle.Take(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)

	toRequester := env.gw.SentTo(testRequesterID)
	require.Len(t, toRequester, 1)
	assert.Equal(t, env.catalog.TakenNotice(ticket.ID), toRequester[0].Text)
}

func TestReTakeChangesAssignee(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)

	_, err := env.lifecycle.Take(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)

	other := staffUser(testOtherStaffID)
	other.DisplayName = "Carol"
	updated, err := env.lifecycle.Take(ctx, ticket.ID, other)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "Carol", updated.AssigneeName)
}

func TestCloseSendsClosureNoticeAndStripsCardActions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)
	env.gw.Reset()

	updated, err := env.lifecycle.Close(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.NotNil(t, updated.ClosedAt)

	staffMsgs := env.gw.SentTo(testStaffChannel)
	require.Len(t, staffMsgs, 1)
	assert.Equal(t, "edit", staffMsgs[0].Op)
	assert.Empty(t, staffMsgs[0].Actions)

	toRequester := env.gw.SentTo(testRequesterID)
	require.Len(t, toRequester, 1)
	assert.Equal(t, env.catalog.ClosureNotice(ticket.ID), toRequester[0].Text)
	require.Len(t, toRequester[0].Actions, 1)
	assert.Equal(t, env.catalog.NewTicketAction(), toRequester[0].Actions[0])
}

func TestClosedTicketIsTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)
	_, err := env.lifecycle.Close(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)

	_, err = env.lifecycle.Take(ctx, ticket.ID, staffUser(testStaffMemberID))
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketClosed))

	_, err = env.lifecycle.Close(ctx, ticket.ID, staffUser(testStaffMemberID))
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketClosed))

	_, err = env.lifecycle.ReplyDelivered(ctx, ticket.ID, staffUser(testStaffMemberID))
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketClosed))
}

func TestReplyDeliveredAdvancesNewTicketOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "broken export")
	require.NotNil(t, ticket)

	updated, err := env.lifecycle.ReplyDelivered(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	// A second delivery is a no-op status-wise.
	env.gw.Reset()
	again, err := env.lifecycle.ReplyDelivered(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, again.Status)
	assert.Empty(t, env.gw.Sent())

	changes := env.sink.ofType(events.EventTicketStatusChanged)
	require.Len(t, changes, 1)
	payload := changes[0].Payload.(events.TicketStatusChangedPayload)
	assert.Equal(t, "first_reply", payload.Reason)
}

func TestLifecycleUnknownTicket(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.lifecycle.Take(ctx, 404, staffUser(testStaffMemberID))
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketNotFound))

	_, err = env.lifecycle.Close(ctx, 404, staffUser(testStaffMemberID))
	assert.True(t, errorutil.HasCode(err, errorutil.CodeTicketNotFound))
}

func TestCardRefreshSkippedWithoutCard(t *testing.T) {
	env := newTestEnv(func(cfg *config.SupportConfig) { cfg.StaffChannel = 0 })
	ctx := context.Background()

	ticket := env.submitTicket(ctx, "no card posted")
	require.NotNil(t, ticket)
	require.Nil(t, ticket.CardMessage)
	env.gw.Reset()

	_, err := env.lifecycle.Take(ctx, ticket.ID, staffUser(testStaffMemberID))
	require.NoError(t, err)
	for _, s := range env.gw.Sent() {
		assert.NotEqual(t, "edit", s.Op)
	}
}
