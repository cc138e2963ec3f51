package domain

import "time"

// Intent enumerates the categorical reasons for a customer message.
type Intent string

const (
	IntentBilling        Intent = "billing"
	IntentTechnicalIssue Intent = "technical_issue"
	IntentAccountAccess  Intent = "account_access"
	IntentCancellation   Intent = "cancellation"
	IntentFeatureRequest Intent = "feature_request"
	IntentGeneralInquiry Intent = "general_inquiry"
)

// Urgency enumerates the severity levels driving SLA and escalation.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Disposition enumerates lifecycle states in the approval/send state machine.
type Disposition string

const (
	DispositionAutoSendable Disposition = "auto_sendable"
	DispositionNeedsReview  Disposition = "needs_review"
	DispositionEscalated    Disposition = "escalated"
	DispositionSent         Disposition = "sent"
	DispositionRejected     Disposition = "rejected"
)

// ParseIntent validates a raw label against the closed intent enumeration.
func ParseIntent(raw string) (Intent, bool) {
	switch Intent(raw) {
	case IntentBilling, IntentTechnicalIssue, IntentAccountAccess,
		IntentCancellation, IntentFeatureRequest, IntentGeneralInquiry:
		return Intent(raw), true
	}
	return "", false
}

// ParseUrgency validates a raw label against the closed urgency enumeration.
func ParseUrgency(raw string) (Urgency, bool) {
	switch Urgency(raw) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return Urgency(raw), true
	}
	return "", false
}

// ParseDisposition validates a raw disposition label.
func ParseDisposition(raw string) (Disposition, bool) {
	switch Disposition(raw) {
	case DispositionAutoSendable, DispositionNeedsReview, DispositionEscalated,
		DispositionSent, DispositionRejected:
		return Disposition(raw), true
	}
	return "", false
}

// Terminal reports whether no further transition is permitted from d.
func (d Disposition) Terminal() bool {
	return d == DispositionSent || d == DispositionRejected
}

// InboundMessage is a raw message record produced by the mail collaborator.
type InboundMessage struct {
	MessageID     string
	SenderAddress string
	Subject       string
	Body          string
	ReceivedAt    time.Time
}

// Feedback is a post-send rating appended at most once per ticket.
type Feedback struct {
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Ticket is the aggregate for one customer inquiry through its
// classification, drafting and disposition lifecycle.
type Ticket struct {
	ID string

	// Source message, immutable once assembled.
	SourceMessageID string
	SenderAddress   string
	Subject         string
	Body            string
	ReceivedAt      time.Time

	// Classification. Intent and urgency may be corrected by a reviewer;
	// confidence is read-only downstream of the classifier.
	Intent                 Intent
	Urgency                Urgency
	Confidence             float64
	ClassificationDegraded bool

	// Drafting. DraftReply preserves the model output; FinalReply holds the
	// human-edited text actually sent.
	DraftReply    string
	DraftDegraded bool
	FinalReply    *string

	// Routing and state.
	Team        string
	Disposition Disposition
	SLADeadline time.Time

	Feedback *Feedback

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}
