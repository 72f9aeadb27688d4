package render

import (
	"fmt"
	"strconv"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/gateway"
)

func (c *Catalog) Greeting() string             { return c.snapshot().Greeting }
func (c *Catalog) ChooseCategory() string       { return c.snapshot().ChooseCategory }
func (c *Catalog) PromptDetails() string        { return c.snapshot().PromptDetails }
func (c *Catalog) AttachmentSaved() string      { return c.snapshot().AttachmentSaved }
func (c *Catalog) PromptAttachment() string     { return c.snapshot().PromptAttachment }
func (c *Catalog) PromptEditText() string       { return c.snapshot().PromptEditText }
func (c *Catalog) InvalidSelection() string     { return c.snapshot().InvalidSelection }
func (c *Catalog) IncompleteSubmission() string { return c.snapshot().IncompleteSubmission }
func (c *Catalog) MediaNotAccepted() string     { return c.snapshot().MediaNotAccepted }

func (c *Catalog) TicketCreated(id int64) string {
	return fmt.Sprintf(c.snapshot().TicketCreated, id)
}

func (c *Catalog) ClosureNotice(id int64) string {
	return fmt.Sprintf(c.snapshot().ClosureNotice, id)
}

func (c *Catalog) TakenNotice(id int64) string {
	return fmt.Sprintf(c.snapshot().TakenNotice, id)
}

func (c *Catalog) StaffReply(body string) string {
	return fmt.Sprintf(c.snapshot().StaffReply, body)
}

func (c *Catalog) ReplyPrompt(id int64) string {
	return fmt.Sprintf(c.snapshot().ReplyPrompt, id)
}

func (c *Catalog) AttachmentLimit(max int) string {
	return fmt.Sprintf(c.snapshot().AttachmentLimit, max)
}

func (c *Catalog) TicketNotFound(id int64) string {
	return fmt.Sprintf(c.snapshot().TicketNotFound, id)
}

func (c *Catalog) TicketClosed(id int64) string {
	return fmt.Sprintf(c.snapshot().TicketClosed, id)
}

func (c *Catalog) DeliveryWarn(id int64) string {
	return fmt.Sprintf(c.snapshot().DeliveryWarn, id)
}

// CategoryLabel falls back to the raw value for labels a YAML override
// dropped.
func (c *Catalog) CategoryLabel(category domain.Category) string {
	if label, ok := c.snapshot().CategoryLabels[category]; ok {
		return label
	}
	return string(category)
}

// StatusLabel falls back to the raw value as well.
func (c *Catalog) StatusLabel(status domain.TicketStatus) string {
	if label, ok := c.snapshot().StatusLabels[status]; ok {
		return label
	}
	return string(status)
}

// Confirmation renders the draft summary shown while confirming.
func (c *Catalog) Confirmation(session *domain.IntakeSession) string {
	return fmt.Sprintf(c.snapshot().Confirmation,
		c.CategoryLabel(session.Category),
		len(session.Attachments),
		session.Body,
	)
}

// NewTicketAction is the affordance to start a fresh intake.
func (c *Catalog) NewTicketAction() gateway.Action {
	return gateway.Action{Label: c.snapshot().ButtonNewTicket, Intent: gateway.IntentNewTicket}
}

// HomeAction abandons the current intake from any step.
func (c *Catalog) HomeAction() gateway.Action {
	return gateway.Action{Label: c.snapshot().ButtonHome, Intent: gateway.IntentHome}
}

// CategoryActions renders one action per selectable category, plus home.
func (c *Catalog) CategoryActions() []gateway.Action {
	actions := make([]gateway.Action, 0, len(domain.Categories)+1)
	for _, category := range domain.Categories {
		actions = append(actions, gateway.Action{
			Label:  c.CategoryLabel(category),
			Intent: gateway.IntentCategory,
			Data:   string(category),
		})
	}
	return append(actions, c.HomeAction())
}

// CollectActions accompanies the detail-collection prompts.
func (c *Catalog) CollectActions() []gateway.Action {
	return []gateway.Action{c.HomeAction()}
}

// ConfirmActions accompanies the confirmation summary.
func (c *Catalog) ConfirmActions() []gateway.Action {
	msgs := c.snapshot()
	return []gateway.Action{
		{Label: msgs.ButtonSubmit, Intent: gateway.IntentSubmit},
		{Label: msgs.ButtonAddFile, Intent: gateway.IntentAddAttachment},
		{Label: msgs.ButtonEditText, Intent: gateway.IntentEditText},
		{Label: msgs.ButtonBack, Intent: gateway.IntentBack},
		c.HomeAction(),
	}
}

// CardActions renders the staff controls attached to a ticket card.
func (c *Catalog) CardActions(ticketID int64) []gateway.Action {
	msgs := c.snapshot()
	data := strconv.FormatInt(ticketID, 10)
	return []gateway.Action{
		{Label: msgs.ButtonTake, Intent: gateway.IntentTake, Data: data},
		{Label: msgs.ButtonReply, Intent: gateway.IntentReply, Data: data},
		{Label: msgs.ButtonClose, Intent: gateway.IntentClose, Data: data},
	}
}
