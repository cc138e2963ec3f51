package events

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTriaged   EventType = "ticket_triaged"
	EventTicketSent      EventType = "ticket_sent"
	EventTicketEscalated EventType = "ticket_escalated"
	EventTicketRejected  EventType = "ticket_rejected"
	EventFeedbackAdded   EventType = "ticket_feedback_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketTriagedPayload describes a freshly assembled ticket.
type TicketTriagedPayload struct {
	Intent                 domain.Intent      `json:"intent"`
	Urgency                domain.Urgency     `json:"urgency"`
	Confidence             float64            `json:"confidence"`
	Team                   string             `json:"team"`
	Disposition            domain.Disposition `json:"disposition"`
	ClassificationDegraded bool               `json:"classification_degraded"`
	DraftDegraded          bool               `json:"draft_degraded"`
}

// TicketSentPayload describes an approved and delivered reply.
type TicketSentPayload struct {
	Recipient string `json:"recipient"`
	Edited    bool   `json:"edited"`
}

// TicketEscalatedPayload describes an escalation.
type TicketEscalatedPayload struct {
	From domain.Disposition `json:"from"`
	Team string             `json:"team"`
}

// FeedbackAddedPayload describes submitted feedback.
type FeedbackAddedPayload struct {
	Rating int `json:"rating"`
}
