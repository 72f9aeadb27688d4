package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "NEW"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Category enumerates intake topics.
type Category string

const (
	CategoryBug        Category = "BUG"
	CategoryQuestion   Category = "QUESTION"
	CategorySuggestion Category = "SUGGESTION"
	CategoryBilling    Category = "BILLING"
	CategoryAccount    Category = "ACCOUNT"
	CategoryOther      Category = "OTHER"
)

// Categories lists selectable intake topics in presentation order.
var Categories = []Category{
	CategoryBug,
	CategoryQuestion,
	CategorySuggestion,
	CategoryBilling,
	CategoryAccount,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// AttachmentKind enumerates media types accepted during intake.
type AttachmentKind string

const (
	AttachmentImage      AttachmentKind = "image"
	AttachmentVideo      AttachmentKind = "video"
	AttachmentDocument   AttachmentKind = "document"
	AttachmentShortVideo AttachmentKind = "short_video"
	AttachmentVoice      AttachmentKind = "voice"
	AttachmentAudio      AttachmentKind = "audio"
)

// Attachment references a media object held by the messaging gateway.
// MediaRef is opaque to the core; only the gateway can resolve it.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	MediaRef string         `json:"media_ref"`
	Caption  string         `json:"caption,omitempty"`
}

// Requester identifies the end user who opened a ticket. Immutable after
// ticket creation.
type Requester struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
}

// MessageRef points at a message previously posted through the gateway,
// kept so the staff-channel ticket card can be edited in place.
type MessageRef struct {
	Channel   int64 `json:"channel"`
	MessageID int64 `json:"message_id"`
}

// Ticket is the aggregate for support requests. Body and Attachments are
// frozen at submission; only status, card reference and assignee mutate
// afterwards.
type Ticket struct {
	ID           int64
	Status       TicketStatus
	Requester    Requester
	Category     Category
	Body         string
	Attachments  []Attachment
	CardMessage  *MessageRef
	AssigneeName string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}
