package gatewaytest

import (
	"context"
	"sync"

	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/gateway"
)

// Sent records one outbound gateway call.
type Sent struct {
	Op         string // "text", "media" or "edit"
	Channel    int64
	Text       string
	Caption    string
	Attachment *domain.Attachment
	Ref        domain.MessageRef
	Actions    []gateway.Action
}

// Recorder is a gateway.Gateway that records outbound calls for
// assertions. FailNext makes the next call return the given error.
type Recorder struct {
	mu     sync.Mutex
	sent   []Sent
	nextID int64
	fail   error
}

// NewRecorder builds an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailNext makes the next outbound call fail with err.
func (r *Recorder) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Sent returns a copy of all recorded calls.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// SentTo returns recorded calls addressed to the given channel.
func (r *Recorder) SentTo(channel int64) []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Sent
	for _, s := range r.sent {
		if s.Channel == channel {
			result = append(result, s)
		}
	}
	return result
}

// Last returns the most recent call, or a zero Sent when none happened.
func (r *Recorder) Last() Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}
	}
	return r.sent[len(r.sent)-1]
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

func (r *Recorder) SendText(ctx context.Context, channel int64, text string, actions ...gateway.Action) (domain.MessageRef, error) {
	return r.record(Sent{Op: "text", Channel: channel, Text: text, Actions: actions})
}

func (r *Recorder) SendMedia(ctx context.Context, channel int64, attachment domain.Attachment, caption string) (domain.MessageRef, error) {
	att := attachment
	return r.record(Sent{Op: "media", Channel: channel, Caption: caption, Attachment: &att})
}

func (r *Recorder) EditMessage(ctx context.Context, channel int64, ref domain.MessageRef, text string, actions ...gateway.Action) error {
	_, err := r.record(Sent{Op: "edit", Channel: channel, Ref: ref, Text: text, Actions: actions})
	return err
}

func (r *Recorder) record(s Sent) (domain.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		err := r.fail
		r.fail = nil
		return domain.MessageRef{}, err
	}
	r.nextID++
	if s.Op != "edit" {
		s.Ref = domain.MessageRef{Channel: s.Channel, MessageID: r.nextID}
	}
	r.sent = append(r.sent, s)
	return s.Ref, nil
}
