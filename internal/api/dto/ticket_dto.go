package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// CreateTicketRequest payload for manual ticket creation.
type CreateTicketRequest struct {
	SenderAddress string `json:"sender_address"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// ApproveTicketRequest payload; an empty edited reply sends the draft as-is.
type ApproveTicketRequest struct {
	EditedReply string `json:"edited_reply"`
}

// CorrectClassificationRequest payload for reviewer label corrections.
type CorrectClassificationRequest struct {
	Intent  string `json:"intent"`
	Urgency string `json:"urgency"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// IngestResponse summarizes a batch ingest.
type IngestResponse struct {
	Fetched    int `json:"fetched"`
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// FeedbackResponse embeds the post-send rating.
type FeedbackResponse struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketSummary response for listings.
type TicketSummary struct {
	ID                     string             `json:"id"`
	SenderAddress          string             `json:"sender_address"`
	Subject                string             `json:"subject"`
	Intent                 domain.Intent      `json:"intent"`
	Urgency                domain.Urgency     `json:"urgency"`
	Confidence             float64            `json:"confidence"`
	ClassificationDegraded bool               `json:"classification_degraded"`
	Team                   string             `json:"team"`
	Disposition            domain.Disposition `json:"disposition"`
	SLADeadline            time.Time          `json:"sla_deadline"`
	ReceivedAt             time.Time          `json:"received_at"`
	CreatedAt              time.Time          `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID                     string             `json:"id"`
	SourceMessageID        string             `json:"source_message_id"`
	SenderAddress          string             `json:"sender_address"`
	Subject                string             `json:"subject"`
	Body                   string             `json:"body"`
	ReceivedAt             time.Time          `json:"received_at"`
	Intent                 domain.Intent      `json:"intent"`
	Urgency                domain.Urgency     `json:"urgency"`
	Confidence             float64            `json:"confidence"`
	ClassificationDegraded bool               `json:"classification_degraded"`
	DraftReply             string             `json:"draft_reply"`
	DraftDegraded          bool               `json:"draft_degraded"`
	FinalReply             *string            `json:"final_reply"`
	Team                   string             `json:"team"`
	Disposition            domain.Disposition `json:"disposition"`
	SLADeadline            time.Time          `json:"sla_deadline"`
	Feedback               *FeedbackResponse  `json:"feedback"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
	ResolvedAt             *time.Time         `json:"resolved_at"`
}
