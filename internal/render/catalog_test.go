package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/gateway"
)

func TestDefaultsCoverEveryText(t *testing.T) {
	c := NewCatalog()

	assert.NotEmpty(t, c.Greeting())
	assert.NotEmpty(t, c.ChooseCategory())
	assert.NotEmpty(t, c.PromptDetails())
	assert.NotEmpty(t, c.InvalidSelection())
	assert.NotEmpty(t, c.IncompleteSubmission())
	assert.Contains(t, c.TicketCreated(12), "#12")
	assert.Contains(t, c.ClosureNotice(12), "#12")
	assert.Contains(t, c.ReplyPrompt(12), "#12")
	assert.Contains(t, c.AttachmentLimit(5), "5")
	assert.Contains(t, c.StaffReply("hello"), "hello")

	for _, category := range domain.Categories {
		assert.NotEqual(t, string(category), c.CategoryLabel(category), "missing label for %s", category)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	c := NewCatalog()
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"greeting: \"Welcome to ACME support.\"\nbutton_take: \"Grab\"\n"), 0o600))

	require.NoError(t, c.LoadFile(path))

	assert.Equal(t, "Welcome to ACME support.", c.Greeting())
	actions := c.CardActions(3)
	require.Len(t, actions, 3)
	assert.Equal(t, "Grab", actions[0].Label)
	// Untouched keys keep their defaults.
	assert.Equal(t, defaultMessages().ChooseCategory, c.ChooseCategory())
}

func TestLoadFileRejectsBrokenYAML(t *testing.T) {
	c := NewCatalog()
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: [unclosed"), 0o600))

	assert.Error(t, c.LoadFile(path))
	assert.Equal(t, defaultMessages().Greeting, c.Greeting())
}

func TestWatchReloadsOnRewrite(t *testing.T) {
	c := NewCatalog()
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("greeting: \"v1\"\n"), 0o600))
	require.NoError(t, c.LoadFile(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx, path, zap.NewNop()))

	require.NoError(t, os.WriteFile(path, []byte("greeting: \"v2\"\n"), 0o600))
	assert.Eventually(t, func() bool {
		return c.Greeting() == "v2"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCategoryActionsCarryCategoryData(t *testing.T) {
	c := NewCatalog()

	actions := c.CategoryActions()
	require.Len(t, actions, len(domain.Categories)+1)
	for i, category := range domain.Categories {
		assert.Equal(t, gateway.IntentCategory, actions[i].Intent)
		assert.Equal(t, string(category), actions[i].Data)
	}
	assert.Equal(t, gateway.IntentHome, actions[len(actions)-1].Intent)
}

func TestConfirmationRendersDraft(t *testing.T) {
	c := NewCatalog()
	sess := &domain.IntakeSession{
		Phase:    domain.PhaseConfirming,
		Category: domain.CategoryBilling,
		Body:     "charged twice this month",
		Attachments: []domain.Attachment{
			{Kind: domain.AttachmentImage, MediaRef: "m1"},
			{Kind: domain.AttachmentDocument, MediaRef: "m2"},
		},
	}

	text := c.Confirmation(sess)
	assert.Contains(t, text, c.CategoryLabel(domain.CategoryBilling))
	assert.Contains(t, text, "2")
	assert.Contains(t, text, "charged twice this month")
}

func TestCardRendering(t *testing.T) {
	c := NewCatalog()
	ticket := &domain.Ticket{
		ID:        7,
		Status:    domain.TicketStatusInProgress,
		Requester: domain.Requester{ID: 42, DisplayName: "Alice", Username: "alice"},
		Category:  domain.CategoryBug,
		Body:      "the app crashes on start",
		Attachments: []domain.Attachment{
			{Kind: domain.AttachmentImage, MediaRef: "m1"},
		},
		AssigneeName: "Bob",
	}

	card := c.Card(ticket)
	assert.Contains(t, card, "Ticket #7")
	assert.Contains(t, card, c.StatusLabel(domain.TicketStatusInProgress))
	assert.Contains(t, card, "Alice (@alice)")
	assert.Contains(t, card, "Attachments: 1")
	assert.Contains(t, card, "Assignee: Bob")
	assert.Contains(t, card, "the app crashes on start")

	// No username and no attachments trims those lines.
	ticket.Requester.Username = ""
	ticket.Attachments = nil
	ticket.AssigneeName = ""
	card = c.Card(ticket)
	assert.Contains(t, card, "From: Alice\n")
	assert.NotContains(t, card, "Attachments:")
	assert.NotContains(t, card, "Assignee:")
}
