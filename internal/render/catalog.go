package render

import (
	"bytes"
	"context"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/domain"
)

// Messages holds every user-visible text the engine produces. Fields are
// fmt patterns where noted. A deployment overrides any subset via a YAML
// file; absent keys keep their defaults.
type Messages struct {
	Greeting         string `yaml:"greeting"`
	ChooseCategory   string `yaml:"choose_category"`
	PromptDetails    string `yaml:"prompt_details"`
	AttachmentSaved  string `yaml:"attachment_saved"`
	PromptAttachment string `yaml:"prompt_attachment"`
	PromptEditText   string `yaml:"prompt_edit_text"`
	// Confirmation is a pattern: category label, attachment count, body.
	Confirmation string `yaml:"confirmation"`
	// TicketCreated is a pattern: ticket id.
	TicketCreated string `yaml:"ticket_created"`
	// ClosureNotice is a pattern: ticket id.
	ClosureNotice string `yaml:"closure_notice"`
	// TakenNotice is a pattern: ticket id. Sent only when NotifyOnTake is on.
	TakenNotice string `yaml:"taken_notice"`
	// StaffReply is a pattern: reply body.
	StaffReply string `yaml:"staff_reply"`
	// ReplyPrompt is a pattern: ticket id.
	ReplyPrompt string `yaml:"reply_prompt"`

	InvalidSelection string `yaml:"invalid_selection"`
	// AttachmentLimit is a pattern: max attachments.
	AttachmentLimit      string `yaml:"attachment_limit"`
	IncompleteSubmission string `yaml:"incomplete_submission"`
	MediaNotAccepted     string `yaml:"media_not_accepted"`
	// TicketNotFound is a pattern: ticket id.
	TicketNotFound string `yaml:"ticket_not_found"`
	// TicketClosed is a pattern: ticket id.
	TicketClosed string `yaml:"ticket_closed"`
	// DeliveryWarn is a pattern: ticket id.
	DeliveryWarn string `yaml:"delivery_warn"`

	ButtonNewTicket  string `yaml:"button_new_ticket"`
	ButtonSubmit     string `yaml:"button_submit"`
	ButtonAddFile    string `yaml:"button_add_file"`
	ButtonEditText   string `yaml:"button_edit_text"`
	ButtonBack       string `yaml:"button_back"`
	ButtonHome       string `yaml:"button_home"`
	ButtonTake       string `yaml:"button_take"`
	ButtonReply      string `yaml:"button_reply"`
	ButtonClose      string `yaml:"button_close"`

	CategoryLabels map[domain.Category]string     `yaml:"category_labels"`
	StatusLabels   map[domain.TicketStatus]string `yaml:"status_labels"`
}

func defaultMessages() Messages {
	return Messages{
		Greeting:         "Hi! I am the support bot. Press the button below to open a ticket.",
		ChooseCategory:   "Pick a topic for your request:",
		PromptDetails:    "Describe your problem in one message. You can also attach screenshots or files.",
		AttachmentSaved:  "Attachment saved. Now describe your problem in a message.",
		PromptAttachment: "Send the file you want to attach.",
		PromptEditText:   "Send the new description in one message.",
		Confirmation: "Here is your request:\n\nTopic: %s\nAttachments: %d\n\n%s\n\n" +
			"Submit it, attach more files or edit the text.",
		TicketCreated: "Ticket #%d created. We will reply right here.",
		ClosureNotice: "Ticket #%d has been closed. If you need anything else, open a new ticket.",
		TakenNotice:   "Ticket #%d is being worked on.",
		StaffReply:    "Support reply:\n\n%s",
		ReplyPrompt:   "Your next message will be forwarded to the requester of ticket #%d.",

		InvalidSelection:     "Please use one of the buttons below.",
		AttachmentLimit:      "A ticket can carry at most %d attachments.",
		IncompleteSubmission: "A description is required before submitting. Send it as a message.",
		MediaNotAccepted:     "Attachments are not accepted at this step.",
		TicketNotFound:       "Ticket #%d no longer exists.",
		TicketClosed:         "Ticket #%d is closed; reopen is not supported.",
		DeliveryWarn:         "Could not deliver the reply for ticket #%d; the requester may be unreachable.",

		ButtonNewTicket: "New ticket",
		ButtonSubmit:    "Submit",
		ButtonAddFile:   "Attach file",
		ButtonEditText:  "Edit text",
		ButtonBack:      "Change topic",
		ButtonHome:      "Cancel",
		ButtonTake:      "Take",
		ButtonReply:     "Reply",
		ButtonClose:     "Close",

		CategoryLabels: map[domain.Category]string{
			domain.CategoryBug:        "Bug",
			domain.CategoryQuestion:   "Question",
			domain.CategorySuggestion: "Suggestion",
			domain.CategoryBilling:    "Billing",
			domain.CategoryAccount:    "Sign-in / account",
			domain.CategoryOther:      "Other",
		},
		StatusLabels: map[domain.TicketStatus]string{
			domain.TicketStatusNew:        "new",
			domain.TicketStatusInProgress: "in progress",
			domain.TicketStatusClosed:     "closed",
		},
	}
}

// Catalog serves message texts, optionally overridden from a YAML file and
// hot-reloaded when that file changes.
type Catalog struct {
	mu       sync.RWMutex
	messages Messages
}

// NewCatalog returns a catalog with built-in defaults.
func NewCatalog() *Catalog {
	return &Catalog{messages: defaultMessages()}
}

// LoadFile merges overrides from a YAML file over the defaults. Keys
// absent from the file keep their default text.
func (c *Catalog) LoadFile(path string) error {
	input, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	merged := defaultMessages()
	if err := yaml.NewDecoder(bytes.NewBuffer(input)).Decode(&merged); err != nil {
		return err
	}
	c.mu.Lock()
	c.messages = merged
	c.mu.Unlock()
	return nil
}

// Watch reloads the catalog whenever the file at path is rewritten. A
// broken file keeps the previous texts and logs a warning. Watch returns
// once the watcher is installed; reloading happens in the background until
// ctx is done.
func (c *Catalog) Watch(ctx context.Context, path string, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := c.LoadFile(path); err != nil {
					logger.Warn("catalog reload failed; keeping previous texts",
						zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("catalog reloaded", zap.String("path", path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("catalog watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (c *Catalog) snapshot() Messages {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages
}
