package render

import (
	"fmt"
	"strings"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Card renders the staff-channel ticket card. It is re-rendered in place
// on every status change, so it always reflects the current state.
func (c *Catalog) Card(ticket *domain.Ticket) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ticket #%d — %s\n", ticket.ID, c.StatusLabel(ticket.Status))
	if ticket.Requester.Username != "" {
		fmt.Fprintf(&b, "From: %s (@%s)\n", ticket.Requester.DisplayName, ticket.Requester.Username)
	} else {
		fmt.Fprintf(&b, "From: %s\n", ticket.Requester.DisplayName)
	}
	fmt.Fprintf(&b, "Topic: %s\n", c.CategoryLabel(ticket.Category))
	if len(ticket.Attachments) > 0 {
		fmt.Fprintf(&b, "Attachments: %d\n", len(ticket.Attachments))
	}
	if ticket.AssigneeName != "" {
		fmt.Fprintf(&b, "Assignee: %s\n", ticket.AssigneeName)
	}
	b.WriteString("\n")
	b.WriteString(ticket.Body)

	return b.String()
}
