package domain

// IntakePhase enumerates the steps of the ticket intake wizard.
type IntakePhase string

const (
	PhaseChoosingCategory IntakePhase = "CHOOSING_CATEGORY"
	PhaseCollecting       IntakePhase = "COLLECTING"
	PhaseConfirming       IntakePhase = "CONFIRMING"
)

// IntakeSession is the transient per-requester draft accumulated by the
// wizard. It is serialized into the session store between messages and
// destroyed on submit, cancel or home.
type IntakeSession struct {
	Phase       IntakePhase  `json:"phase"`
	Category    Category     `json:"category,omitempty"`
	Body        string       `json:"body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewIntakeSession returns a fresh session at the category step.
func NewIntakeSession() *IntakeSession {
	return &IntakeSession{Phase: PhaseChoosingCategory}
}

// HasBody reports whether the draft carries a non-empty description.
// Confirmation is reachable only when this holds.
func (s *IntakeSession) HasBody() bool {
	return s.Body != ""
}
