package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/triage"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketService implements the review-facing actions that drive a ticket
// through its disposition lifecycle. Every disposition change goes through
// domain.Transition.
type TicketService struct {
	tickets    repository.TicketRepository
	mailbox    mail.Mailbox
	policy     *triage.Policy
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      func() time.Time
}

// TicketDependencies bundles collaborators for the action API.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Mailbox    mail.Mailbox
	Policy     *triage.Policy
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		mailbox:    deps.Mailbox,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		clock:      clock,
	}
}

// List returns tickets matching the filter, newest received first.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// Get fetches one ticket by ID.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Approve sends the reply and transitions the ticket to sent. When
// editedReply is non-empty it replaces the draft as the text actually sent.
// The ticket is only marked sent after the mail collaborator confirms
// delivery; a send failure leaves the disposition unchanged and is safe to
// retry.
func (s *TicketService) Approve(ctx context.Context, id string, editedReply string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	finalReply := strings.TrimSpace(editedReply)
	edited := finalReply != ""
	if !edited {
		finalReply = strings.TrimSpace(ticket.DraftReply)
	}
	if finalReply == "" {
		return nil, apperrors.NewValidationError("ticket has no reply to send", nil)
	}
	if !domain.CanTransition(ticket.Disposition, domain.DispositionSent) {
		return nil, apperrors.NewInvalidTransition(ticket.Disposition, domain.DispositionSent)
	}

	if err := s.mailbox.Send(ctx, ticket.SenderAddress, mail.ReplySubject(ticket.Subject), finalReply); err != nil {
		s.logger.Error("reply send failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil, apperrors.NewSendFailed(err)
	}

	if err := domain.Transition(ticket, domain.DispositionSent); err != nil {
		return nil, err
	}
	now := s.clock()
	ticket.FinalReply = &finalReply
	ticket.ResolvedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketSent,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload:   events.TicketSentPayload{Recipient: ticket.SenderAddress, Edited: edited},
	})
	return ticket, nil
}

// Escalate moves any non-terminal ticket to escalated.
func (s *TicketService) Escalate(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := ticket.Disposition
	if err := domain.Transition(ticket, domain.DispositionEscalated); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Timestamp: s.clock(),
		Payload:   events.TicketEscalatedPayload{From: from, Team: ticket.Team},
	})
	return ticket, nil
}

// Deescalate returns an escalated ticket to the review queue.
func (s *TicketService) Deescalate(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(ticket, domain.DispositionNeedsReview); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Reject discards a ticket without sending anything. Terminal.
func (s *TicketService) Reject(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(ticket, domain.DispositionRejected); err != nil {
		return nil, err
	}
	now := s.clock()
	ticket.ResolvedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketRejected,
		TicketID:  ticket.ID,
		Timestamp: now,
	})
	return ticket, nil
}

// CorrectClassification lets a reviewer overwrite the model's intent and
// urgency labels. The team is re-derived from the corrected intent; the
// disposition and confidence are left untouched.
func (s *TicketService) CorrectClassification(ctx context.Context, id string, intent domain.Intent, urgency domain.Urgency) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Disposition.Terminal() {
		return nil, apperrors.NewConflict("cannot correct a closed ticket",
			map[string]any{"disposition": string(ticket.Disposition)})
	}

	ticket.Intent = intent
	ticket.Urgency = urgency
	ticket.Team = s.policy.TeamFor(intent)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// SubmitFeedback appends a post-send rating. Only sent tickets accept
// feedback, and at most once.
func (s *TicketService) SubmitFeedback(ctx context.Context, id string, rating int, comment string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5",
			map[string]any{"rating": rating})
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Disposition != domain.DispositionSent {
		return nil, apperrors.NewConflict("feedback requires a sent ticket",
			map[string]any{"disposition": string(ticket.Disposition)})
	}
	if ticket.Feedback != nil {
		return nil, apperrors.NewConflict("ticket already has feedback", nil)
	}

	now := s.clock()
	ticket.Feedback = &domain.Feedback{
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventFeedbackAdded,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload:   events.FeedbackAddedPayload{Rating: rating},
	})
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
