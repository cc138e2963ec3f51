package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-service/internal/api/dto"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/service"
	apperrors "github.com/spec-kit/triage-service/pkg/util/errorutil"
)

// TicketsHandler exposes the triage pipeline and review actions.
type TicketsHandler struct {
	triageService *service.TriageService
	ticketService *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(triageService *service.TriageService, ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{triageService: triageService, ticketService: ticketService}
}

// Ingest POST /api/tickets/ingest.
func (h *TicketsHandler) Ingest(c *fiber.Ctx) error {
	result, err := h.triageService.Ingest(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IngestResponse{
		Fetched:    result.Fetched,
		Processed:  result.Processed,
		Duplicates: result.Duplicates,
		Failed:     result.Failed,
	}})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.SenderAddress) == "" ||
		strings.TrimSpace(req.Subject) == "" ||
		strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("sender_address, subject, body required", nil)
	}

	ticket, err := h.triageService.CreateManual(c.Context(), req.SenderAddress, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, err := h.ticketService.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.ticketService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ApproveTicket PUT /api/tickets/:id/approve.
func (h *TicketsHandler) ApproveTicket(c *fiber.Ctx) error {
	var req dto.ApproveTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.ticketService.Approve(c.Context(), c.Params("id"), req.EditedReply)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// EscalateTicket PUT /api/tickets/:id/escalate.
func (h *TicketsHandler) EscalateTicket(c *fiber.Ctx) error {
	ticket, err := h.ticketService.Escalate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// DeescalateTicket PUT /api/tickets/:id/deescalate.
func (h *TicketsHandler) DeescalateTicket(c *fiber.Ctx) error {
	ticket, err := h.ticketService.Deescalate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// RejectTicket PUT /api/tickets/:id/reject.
func (h *TicketsHandler) RejectTicket(c *fiber.Ctx) error {
	ticket, err := h.ticketService.Reject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// CorrectClassification PUT /api/tickets/:id/classification.
func (h *TicketsHandler) CorrectClassification(c *fiber.Ctx) error {
	var req dto.CorrectClassificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	intent, ok := domain.ParseIntent(strings.ToLower(strings.TrimSpace(req.Intent)))
	if !ok {
		return apperrors.NewValidationError("unknown intent", map[string]any{"intent": req.Intent})
	}
	urgency, ok := domain.ParseUrgency(strings.ToLower(strings.TrimSpace(req.Urgency)))
	if !ok {
		return apperrors.NewValidationError("unknown urgency", map[string]any{"urgency": req.Urgency})
	}

	ticket, err := h.ticketService.CorrectClassification(c.Context(), c.Params("id"), intent, urgency)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// SubmitFeedback POST /api/tickets/:id/feedback.
func (h *TicketsHandler) SubmitFeedback(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.ticketService.SubmitFeedback(c.Context(), c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if dispositionStr := c.Query("disposition"); dispositionStr != "" {
		for _, part := range strings.Split(dispositionStr, ",") {
			if d, ok := domain.ParseDisposition(strings.TrimSpace(part)); ok {
				filter.Dispositions = append(filter.Dispositions, d)
			}
		}
	}
	if intentStr := c.Query("intent"); intentStr != "" {
		for _, part := range strings.Split(intentStr, ",") {
			if in, ok := domain.ParseIntent(strings.TrimSpace(part)); ok {
				filter.Intents = append(filter.Intents, in)
			}
		}
	}
	if urgencyStr := c.Query("urgency"); urgencyStr != "" {
		for _, part := range strings.Split(urgencyStr, ",") {
			if u, ok := domain.ParseUrgency(strings.TrimSpace(part)); ok {
				filter.Urgencies = append(filter.Urgencies, u)
			}
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                     ticket.ID,
		SenderAddress:          ticket.SenderAddress,
		Subject:                ticket.Subject,
		Intent:                 ticket.Intent,
		Urgency:                ticket.Urgency,
		Confidence:             ticket.Confidence,
		ClassificationDegraded: ticket.ClassificationDegraded,
		Team:                   ticket.Team,
		Disposition:            ticket.Disposition,
		SLADeadline:            ticket.SLADeadline,
		ReceivedAt:             ticket.ReceivedAt,
		CreatedAt:              ticket.CreatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		ID:                     ticket.ID,
		SourceMessageID:        ticket.SourceMessageID,
		SenderAddress:          ticket.SenderAddress,
		Subject:                ticket.Subject,
		Body:                   ticket.Body,
		ReceivedAt:             ticket.ReceivedAt,
		Intent:                 ticket.Intent,
		Urgency:                ticket.Urgency,
		Confidence:             ticket.Confidence,
		ClassificationDegraded: ticket.ClassificationDegraded,
		DraftReply:             ticket.DraftReply,
		DraftDegraded:          ticket.DraftDegraded,
		FinalReply:             ticket.FinalReply,
		Team:                   ticket.Team,
		Disposition:            ticket.Disposition,
		SLADeadline:            ticket.SLADeadline,
		CreatedAt:              ticket.CreatedAt,
		UpdatedAt:              ticket.UpdatedAt,
		ResolvedAt:             ticket.ResolvedAt,
	}
	if ticket.Feedback != nil {
		resp.Feedback = &dto.FeedbackResponse{
			Rating:    ticket.Feedback.Rating,
			Comment:   ticket.Feedback.Comment,
			CreatedAt: ticket.Feedback.CreatedAt,
		}
	}
	return resp
}
