package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-service/internal/domain"
)

// TicketFilter captures review-dashboard listing parameters.
type TicketFilter struct {
	Dispositions []domain.Disposition
	Intents      []domain.Intent
	Urgencies    []domain.Urgency
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateIfAbsent inserts the ticket unless one already exists for the
	// same source message ID. The insert is a single conditional write so
	// concurrent ingest of the same message cannot produce duplicates.
	// Returns the stored ticket and whether this call created it.
	CreateIfAbsent(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, bool, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetBySourceMessageID(ctx context.Context, messageID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, source_message_id, sender_address, subject, body, received_at,
        intent, urgency, confidence, classification_degraded,
        draft_reply, draft_degraded, final_reply,
        team, disposition, sla_deadline,
        feedback_rating, feedback_comment, feedback_at,
        created_at, updated_at, resolved_at`

func (r *ticketRepository) CreateIfAbsent(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, bool, error) {
	const query = `
        INSERT INTO tickets (id, source_message_id, sender_address, subject, body, received_at,
            intent, urgency, confidence, classification_degraded,
            draft_reply, draft_degraded, team, disposition, sla_deadline)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        ON CONFLICT (source_message_id) DO NOTHING
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.SourceMessageID,
		ticket.SenderAddress,
		ticket.Subject,
		ticket.Body,
		ticket.ReceivedAt,
		ticket.Intent,
		ticket.Urgency,
		ticket.Confidence,
		ticket.ClassificationDegraded,
		ticket.DraftReply,
		ticket.DraftDegraded,
		ticket.Team,
		ticket.Disposition,
		ticket.SLADeadline,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	if err == nil {
		return ticket, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Conflict: another ingest already stored this message.
	existing, err := r.GetBySourceMessageID(ctx, ticket.SourceMessageID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET intent=$1, urgency=$2, team=$3, disposition=$4,
            draft_reply=$5, final_reply=$6,
            feedback_rating=$7, feedback_comment=$8, feedback_at=$9,
            resolved_at=$10, updated_at=NOW()
        WHERE id=$11`

	var rating *int
	var comment *string
	var feedbackAt any
	if ticket.Feedback != nil {
		rating = &ticket.Feedback.Rating
		comment = &ticket.Feedback.Comment
		feedbackAt = ticket.Feedback.CreatedAt
	}

	cmd, err := r.pool.Exec(ctx, query,
		ticket.Intent,
		ticket.Urgency,
		ticket.Team,
		ticket.Disposition,
		ticket.DraftReply,
		ticket.FinalReply,
		rating,
		comment,
		feedbackAt,
		ticket.ResolvedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetBySourceMessageID(ctx context.Context, messageID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE source_message_id=$1`
	return r.fetchSingle(ctx, query, messageID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanTicket(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Dispositions) > 0 {
		placeholders := make([]string, len(filter.Dispositions))
		for i, d := range filter.Dispositions {
			args = append(args, d)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("disposition IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Intents) > 0 {
		placeholders := make([]string, len(filter.Intents))
		for i, in := range filter.Intents {
			args = append(args, in)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("intent IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Urgencies) > 0 {
		placeholders := make([]string, len(filter.Urgencies))
		for i, u := range filter.Urgencies {
			args = append(args, u)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("urgency IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY received_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var rating *int
	var comment *string
	var feedbackAt *time.Time
	if err := row.Scan(
		&ticket.ID,
		&ticket.SourceMessageID,
		&ticket.SenderAddress,
		&ticket.Subject,
		&ticket.Body,
		&ticket.ReceivedAt,
		&ticket.Intent,
		&ticket.Urgency,
		&ticket.Confidence,
		&ticket.ClassificationDegraded,
		&ticket.DraftReply,
		&ticket.DraftDegraded,
		&ticket.FinalReply,
		&ticket.Team,
		&ticket.Disposition,
		&ticket.SLADeadline,
		&rating,
		&comment,
		&feedbackAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	if rating != nil {
		feedback := domain.Feedback{Rating: *rating}
		if comment != nil {
			feedback.Comment = *comment
		}
		if feedbackAt != nil {
			feedback.CreatedAt = *feedbackAt
		}
		ticket.Feedback = &feedback
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
