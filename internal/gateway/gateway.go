package gateway

import (
	"context"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Intents the core attaches to outbound actions and expects back on
// inbound updates. The gateway renders them however its UI supports
// (inline buttons, quick replies).
const (
	IntentNewTicket     = "new-ticket"
	IntentCategory      = "category"
	IntentSubmit        = "submit"
	IntentAddAttachment = "add-file"
	IntentEditText      = "edit-text"
	IntentBack          = "back"
	IntentHome          = "home"
	IntentTake          = "take"
	IntentReply         = "reply"
	IntentClose         = "close"
)

// Action is a user-selectable intent rendered by the gateway UI. Data
// carries intent arguments such as a category value or a ticket id.
type Action struct {
	Label  string `json:"label"`
	Intent string `json:"intent"`
	Data   string `json:"data,omitempty"`
}

// User identifies a sender on the gateway side.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
}

// Update is one inbound event from the messaging gateway. Exactly one of
// Text, Attachment or Intent is expected to be meaningful; an update with
// an Intent is an action press, everything else is free-form content.
type Update struct {
	Channel    int64              `json:"channel"`
	From       User               `json:"from"`
	Text       string             `json:"text,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	Intent     string             `json:"intent,omitempty"`
	Data       string             `json:"data,omitempty"`
}

// IsAction reports whether the update is an action press.
func (u Update) IsAction() bool {
	return u.Intent != ""
}

// Requester builds the domain requester identity for the sender.
func (u Update) Requester() domain.Requester {
	return domain.Requester{
		ID:          u.From.ID,
		DisplayName: u.From.DisplayName,
		Username:    u.From.Username,
	}
}

// Gateway is the outbound messaging capability consumed by the core. All
// sends are best-effort: the core logs failures and moves on, it never
// retries and never blocks on a human.
type Gateway interface {
	SendText(ctx context.Context, channel int64, text string, actions ...Action) (domain.MessageRef, error)
	SendMedia(ctx context.Context, channel int64, attachment domain.Attachment, caption string) (domain.MessageRef, error)
	EditMessage(ctx context.Context, channel int64, ref domain.MessageRef, text string, actions ...Action) error
}
