package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/triage"
)

// SeenCache is the fast-path dedup store consulted before the database's
// conditional insert. A cache miss or error is never authoritative.
type SeenCache interface {
	MarkMessageSeen(ctx context.Context, messageID string) bool
	ClearMessageSeen(ctx context.Context, messageID string)
}

// noopSeenCache is used when no cache is wired.
type noopSeenCache struct{}

func (noopSeenCache) MarkMessageSeen(ctx context.Context, messageID string) bool { return true }
func (noopSeenCache) ClearMessageSeen(ctx context.Context, messageID string)     {}

// TriageService runs the ticket-processing pipeline: classify, draft, decide,
// derive the SLA deadline and persist exactly one ticket per inbound message.
type TriageService struct {
	tickets    repository.TicketRepository
	classifier *triage.Classifier
	drafter    *triage.Drafter
	policy     *triage.Policy
	mailbox    mail.Mailbox
	seen       SeenCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      func() time.Time
	fetchBatch int
}

// TriageDependencies bundles collaborators for the pipeline.
type TriageDependencies struct {
	TicketRepo repository.TicketRepository
	Classifier *triage.Classifier
	Drafter    *triage.Drafter
	Policy     *triage.Policy
	Mailbox    mail.Mailbox
	SeenCache  SeenCache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
	FetchBatch int
}

// NewTriageService constructs the pipeline service.
func NewTriageService(deps TriageDependencies) *TriageService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	seen := deps.SeenCache
	if seen == nil {
		seen = noopSeenCache{}
	}
	batch := deps.FetchBatch
	if batch <= 0 {
		batch = 10
	}
	return &TriageService{
		tickets:    deps.TicketRepo,
		classifier: deps.Classifier,
		drafter:    deps.Drafter,
		policy:     deps.Policy,
		mailbox:    deps.Mailbox,
		seen:       seen,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      clock,
		fetchBatch: batch,
	}
}

// Assemble turns one raw inbound message into a stored ticket. Returns the
// ticket and whether this call created it; assembling the same source message
// twice yields the existing ticket with created=false. Classification and
// drafting failures degrade to fallbacks and never abort assembly.
func (s *TriageService) Assemble(ctx context.Context, raw domain.InboundMessage) (*domain.Ticket, bool, error) {
	if raw.MessageID == "" {
		return nil, false, fmt.Errorf("inbound message has no message ID")
	}

	// Dedup fast-path before any model call; the unique constraint on the
	// insert below is what actually guarantees idempotence.
	if !s.seen.MarkMessageSeen(ctx, raw.MessageID) {
		existing, err := s.tickets.GetBySourceMessageID(ctx, raw.MessageID)
		if err == nil {
			s.metrics.RecordDuplicateIngest()
			return existing, false, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, err
		}
		// Stale marker; fall through to assembly.
	}

	classification := s.classifier.Classify(ctx, raw.Subject, raw.Body)
	draft := s.drafter.Draft(ctx, raw.Subject, raw.Body, classification.Intent, classification.Urgency)
	decision := s.policy.Decide(classification.Intent, classification.Urgency, classification.Confidence)

	now := s.clock()
	ticket := &domain.Ticket{
		ID:                     uuid.NewString(),
		SourceMessageID:        raw.MessageID,
		SenderAddress:          raw.SenderAddress,
		Subject:                raw.Subject,
		Body:                   raw.Body,
		ReceivedAt:             raw.ReceivedAt,
		Intent:                 classification.Intent,
		Urgency:                classification.Urgency,
		Confidence:             classification.Confidence,
		ClassificationDegraded: classification.Degraded,
		DraftReply:             draft.Reply,
		DraftDegraded:          draft.Degraded,
		Team:                   decision.Team,
		Disposition:            decision.Disposition,
		SLADeadline:            s.policy.SLADeadline(classification.Urgency, now),
	}

	stored, created, err := s.tickets.CreateIfAbsent(ctx, ticket)
	if err != nil {
		s.seen.ClearMessageSeen(ctx, raw.MessageID)
		return nil, false, err
	}
	if !created {
		s.metrics.RecordDuplicateIngest()
		return stored, false, nil
	}

	s.metrics.RecordTicketProcessed(classification.Degraded, draft.Degraded)
	s.publish(ctx, events.Event{
		Type:      events.EventTicketTriaged,
		TicketID:  stored.ID,
		Timestamp: now,
		Payload: events.TicketTriagedPayload{
			Intent:                 stored.Intent,
			Urgency:                stored.Urgency,
			Confidence:             stored.Confidence,
			Team:                   stored.Team,
			Disposition:            stored.Disposition,
			ClassificationDegraded: stored.ClassificationDegraded,
			DraftDegraded:          stored.DraftDegraded,
		},
	})

	s.logger.Info("assembled ticket",
		zap.String("ticket_id", stored.ID),
		zap.String("intent", string(stored.Intent)),
		zap.String("urgency", string(stored.Urgency)),
		zap.Float64("confidence", stored.Confidence),
		zap.String("team", stored.Team),
		zap.String("disposition", string(stored.Disposition)))
	return stored, true, nil
}

// IngestResult summarizes one batch ingest.
type IngestResult struct {
	Fetched    int
	Processed  int
	Duplicates int
	Failed     int
}

// Ingest fetches unread messages from the mailbox and assembles a ticket for
// each. Per-message failures never abort the batch.
func (s *TriageService) Ingest(ctx context.Context) (IngestResult, error) {
	messages, err := s.mailbox.FetchUnread(ctx, s.fetchBatch)
	if err != nil {
		return IngestResult{}, fmt.Errorf("fetch unread: %w", err)
	}

	result := IngestResult{Fetched: len(messages)}
	for _, msg := range messages {
		_, created, err := s.Assemble(ctx, msg)
		if err != nil {
			result.Failed++
			s.logger.Error("failed to assemble ticket",
				zap.String("message_id", msg.MessageID), zap.Error(err))
			continue
		}
		if created {
			result.Processed++
		} else {
			result.Duplicates++
		}
		if err := s.mailbox.MarkRead(ctx, msg.MessageID); err != nil {
			s.logger.Warn("failed to mark message read",
				zap.String("message_id", msg.MessageID), zap.Error(err))
		}
	}
	return result, nil
}

// CreateManual assembles a ticket from a hand-entered message, bypassing the
// mailbox fetch. Useful from the dashboard and in smoke tests.
func (s *TriageService) CreateManual(ctx context.Context, sender, subject, body string) (*domain.Ticket, error) {
	raw := domain.InboundMessage{
		MessageID:     "manual-" + uuid.NewString(),
		SenderAddress: sender,
		Subject:       subject,
		Body:          body,
		ReceivedAt:    s.clock(),
	}
	ticket, _, err := s.Assemble(ctx, raw)
	return ticket, err
}

func (s *TriageService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
