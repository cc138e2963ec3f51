package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/llm"
	"github.com/spec-kit/triage-service/internal/observability"
	"github.com/spec-kit/triage-service/internal/repository"
	"github.com/spec-kit/triage-service/internal/triage"
)

// fakeTicketRepo is an in-memory TicketRepository with the same conditional
// insert semantics as the Postgres implementation.
type fakeTicketRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.Ticket
	bySource map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		byID:     make(map[string]*domain.Ticket),
		bySource: make(map[string]*domain.Ticket),
	}
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	if t.FinalReply != nil {
		v := *t.FinalReply
		c.FinalReply = &v
	}
	if t.Feedback != nil {
		f := *t.Feedback
		c.Feedback = &f
	}
	if t.ResolvedAt != nil {
		r := *t.ResolvedAt
		c.ResolvedAt = &r
	}
	return &c
}

func (r *fakeTicketRepo) CreateIfAbsent(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bySource[ticket.SourceMessageID]; ok {
		return cloneTicket(existing), false, nil
	}
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := cloneTicket(ticket)
	r.byID[stored.ID] = stored
	r.bySource[stored.SourceMessageID] = stored
	return cloneTicket(stored), true, nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := cloneTicket(ticket)
	updated.UpdatedAt = time.Now()
	r.byID[ticket.ID] = updated
	r.bySource[existing.SourceMessageID] = updated
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket, ok := r.byID[id]; ok {
		return cloneTicket(ticket), nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) GetBySourceMessageID(ctx context.Context, messageID string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket, ok := r.bySource[messageID]; ok {
		return cloneTicket(ticket), nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		result = append(result, *cloneTicket(ticket))
	}
	return result, nil
}

func (r *fakeTicketRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeMailbox records sends and serves scripted inbound messages.
type fakeMailbox struct {
	mu      sync.Mutex
	inbox   []domain.InboundMessage
	sent    []string
	read    []string
	sendErr error
}

func (m *fakeMailbox) FetchUnread(ctx context.Context, max int) ([]domain.InboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inbox) > max {
		return m.inbox[:max], nil
	}
	return m.inbox, nil
}

func (m *fakeMailbox) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func (m *fakeMailbox) MarkRead(ctx context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.read = append(m.read, messageID)
	return nil
}

// scriptedLLM replays canned completions in order.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (f *scriptedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	var err error
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	var resp string
	if idx < len(f.responses) {
		resp = f.responses[idx]
	}
	return resp, err
}

const (
	billingClassification = `{"intent": "billing", "urgency": "high", "confidence": 0.9}`
	safeReply             = "Thanks for reaching out. Could you share your invoice number so the billing team can review it?"
)

func testTriageConfig() config.TriageConfig {
	return config.TriageConfig{
		AutoSendThreshold:   0.8,
		EscalationThreshold: 0.6,
		SLALowHours:         48,
		SLAMediumHours:      24,
		SLAHighHours:        8,
		SLACriticalHours:    2,
	}
}

func newTriageServiceForTest(t *testing.T, client llm.Client, repo *fakeTicketRepo, mailbox *fakeMailbox, clock func() time.Time) *TriageService {
	t.Helper()
	policy, err := triage.NewPolicy(testTriageConfig())
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	llmCfg := config.LLMConfig{MaxBodyChars: 4000, TimeoutSeconds: 5}
	logger := zap.NewNop()
	return NewTriageService(TriageDependencies{
		TicketRepo: repo,
		Classifier: triage.NewClassifier(client, llmCfg, logger),
		Drafter:    triage.NewDrafter(client, llmCfg, logger),
		Policy:     policy,
		Mailbox:    mailbox,
		Metrics:    observability.NewMetrics(),
		Logger:     logger,
		Clock:      clock,
	})
}

func inboundBilling(id string) domain.InboundMessage {
	return domain.InboundMessage{
		MessageID:     id,
		SenderAddress: "customer@example.com",
		Subject:       "Double charged this month",
		Body:          "My card was charged twice for the June invoice.",
		ReceivedAt:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestAssembleCreatesTicket(t *testing.T) {
	repo := newFakeTicketRepo()
	client := &scriptedLLM{responses: []string{billingClassification, safeReply}}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTriageServiceForTest(t, client, repo, &fakeMailbox{}, func() time.Time { return now })

	ticket, created, err := svc.Assemble(context.Background(), inboundBilling("msg-1"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !created {
		t.Fatal("expected ticket to be created")
	}
	if ticket.Intent != domain.IntentBilling || ticket.Urgency != domain.UrgencyHigh {
		t.Fatalf("classification = %s/%s", ticket.Intent, ticket.Urgency)
	}
	if ticket.Team != "Finance Team" {
		t.Errorf("team = %q", ticket.Team)
	}
	if ticket.Disposition != domain.DispositionAutoSendable {
		t.Errorf("disposition = %s, want auto_sendable", ticket.Disposition)
	}
	if ticket.DraftReply != safeReply {
		t.Errorf("draft = %q", ticket.DraftReply)
	}
	wantDeadline := now.Add(8 * time.Hour)
	if !ticket.SLADeadline.Equal(wantDeadline) {
		t.Errorf("sla deadline = %v, want %v", ticket.SLADeadline, wantDeadline)
	}
}

func TestAssembleIsIdempotentPerSourceMessage(t *testing.T) {
	repo := newFakeTicketRepo()
	client := &scriptedLLM{responses: []string{
		billingClassification, safeReply,
		billingClassification, safeReply,
	}}
	svc := newTriageServiceForTest(t, client, repo, &fakeMailbox{}, nil)

	first, created, err := svc.Assemble(context.Background(), inboundBilling("msg-dup"))
	if err != nil || !created {
		t.Fatalf("first assemble: created=%v err=%v", created, err)
	}
	second, created, err := svc.Assemble(context.Background(), inboundBilling("msg-dup"))
	if err != nil {
		t.Fatalf("second assemble: %v", err)
	}
	if created {
		t.Fatal("second assemble must not create a new ticket")
	}
	if second.ID != first.ID {
		t.Fatalf("expected existing ticket %s, got %s", first.ID, second.ID)
	}
	if repo.count() != 1 {
		t.Fatalf("store holds %d tickets, want 1", repo.count())
	}
}

func TestAssembleDegradedClassificationRoutesConservatively(t *testing.T) {
	repo := newFakeTicketRepo()
	client := &scriptedLLM{errs: []error{
		errors.New("timeout"), errors.New("timeout"), errors.New("timeout"),
	}}
	svc := newTriageServiceForTest(t, client, repo, &fakeMailbox{}, nil)

	ticket, created, err := svc.Assemble(context.Background(), inboundBilling("msg-degraded"))
	if err != nil || !created {
		t.Fatalf("assemble: created=%v err=%v", created, err)
	}
	if ticket.Intent != domain.IntentGeneralInquiry || ticket.Urgency != domain.UrgencyMedium {
		t.Errorf("fallback labels = %s/%s", ticket.Intent, ticket.Urgency)
	}
	if ticket.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", ticket.Confidence)
	}
	if !ticket.ClassificationDegraded {
		t.Error("classification_degraded must be set")
	}
	if !ticket.DraftDegraded {
		t.Error("draft_degraded must be set when drafting also failed")
	}
	// 0.3 sits below the escalation threshold.
	if ticket.Disposition != domain.DispositionEscalated {
		t.Errorf("disposition = %s, want escalated", ticket.Disposition)
	}
}

func TestAssembleRejectsMissingMessageID(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTriageServiceForTest(t, &scriptedLLM{}, repo, &fakeMailbox{}, nil)

	if _, _, err := svc.Assemble(context.Background(), domain.InboundMessage{}); err == nil {
		t.Fatal("expected error for missing message ID")
	}
	if repo.count() != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestIngestProcessesBatchAndMarksRead(t *testing.T) {
	repo := newFakeTicketRepo()
	mailbox := &fakeMailbox{inbox: []domain.InboundMessage{
		inboundBilling("msg-a"),
		inboundBilling("msg-b"),
	}}
	client := &scriptedLLM{responses: []string{
		billingClassification, safeReply,
		billingClassification, safeReply,
	}}
	svc := newTriageServiceForTest(t, client, repo, mailbox, nil)

	result, err := svc.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Fetched != 2 || result.Processed != 2 || result.Duplicates != 0 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(mailbox.read) != 2 {
		t.Errorf("marked read = %d, want 2", len(mailbox.read))
	}
	if repo.count() != 2 {
		t.Errorf("store holds %d tickets, want 2", repo.count())
	}
}

func TestIngestCountsDuplicates(t *testing.T) {
	repo := newFakeTicketRepo()
	mailbox := &fakeMailbox{inbox: []domain.InboundMessage{
		inboundBilling("msg-same"),
		inboundBilling("msg-same"),
	}}
	client := &scriptedLLM{responses: []string{
		billingClassification, safeReply,
		billingClassification, safeReply,
	}}
	svc := newTriageServiceForTest(t, client, repo, mailbox, nil)

	result, err := svc.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Processed != 1 || result.Duplicates != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.count() != 1 {
		t.Fatalf("store holds %d tickets, want 1", repo.count())
	}
}

func TestCreateManualRunsPipeline(t *testing.T) {
	repo := newFakeTicketRepo()
	client := &scriptedLLM{responses: []string{billingClassification, safeReply}}
	svc := newTriageServiceForTest(t, client, repo, &fakeMailbox{}, nil)

	ticket, err := svc.CreateManual(context.Background(), "someone@example.com", "Billing question", "Why two charges?")
	if err != nil {
		t.Fatalf("CreateManual: %v", err)
	}
	if ticket.SourceMessageID == "" {
		t.Error("manual ticket needs a generated source message ID")
	}
	if ticket.Intent != domain.IntentBilling {
		t.Errorf("intent = %s", ticket.Intent)
	}
}
