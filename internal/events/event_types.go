package events

import (
	"time"

	"github.com/spec-kit/support-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventReplyDelivered      EventType = "ticket_reply_delivered"
)

// ActorKind distinguishes requester and staff actors.
type ActorKind string

const (
	ActorRequester ActorKind = "requester"
	ActorStaff     ActorKind = "staff"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   int64     `json:"id"`
	Name string    `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category        domain.Category `json:"category"`
	AttachmentCount int             `json:"attachment_count"`
	RequesterID     int64           `json:"requester_id"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// ReplyDeliveredPayload payload.
type ReplyDeliveredPayload struct {
	StaffID       int64  `json:"staff_id"`
	HasAttachment bool   `json:"has_attachment"`
	BodyPreview   string `json:"body_preview,omitempty"`
}
