// Package mail defines the support-mailbox collaborator. Fetching and
// sending are delegated to a provider integration; the pipeline only depends
// on the Mailbox interface.
package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

// Mailbox is the external mail collaborator.
type Mailbox interface {
	// FetchUnread returns up to max unread messages from the support inbox.
	FetchUnread(ctx context.Context, max int) ([]domain.InboundMessage, error)
	// Send delivers a reply. The caller must not mark a ticket sent unless
	// Send returns nil.
	Send(ctx context.Context, to, subject, body string) error
	// MarkRead flags an inbound message as processed at the provider.
	MarkRead(ctx context.Context, messageID string) error
}

// LogMailbox is a no-provider implementation that logs instead of touching a
// real inbox. It stands in until a provider integration is configured.
type LogMailbox struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewLogMailbox constructs the stub mailbox.
func NewLogMailbox(cfg config.MailConfig, logger *zap.Logger) *LogMailbox {
	return &LogMailbox{cfg: cfg, logger: logger}
}

// FetchUnread returns no messages; ingest becomes a no-op without a provider.
func (m *LogMailbox) FetchUnread(ctx context.Context, max int) ([]domain.InboundMessage, error) {
	m.logger.Debug("mailbox fetch (stub)",
		zap.String("mailbox", m.cfg.SupportAddress),
		zap.Int("max", max))
	return nil, nil
}

// Send logs the outbound reply.
func (m *LogMailbox) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("mailbox send (stub)",
		zap.String("from", m.cfg.SupportAddress),
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

// MarkRead logs the acknowledgment.
func (m *LogMailbox) MarkRead(ctx context.Context, messageID string) error {
	m.logger.Debug("mailbox mark read (stub)", zap.String("message_id", messageID))
	return nil
}

var _ Mailbox = (*LogMailbox)(nil)

// ReplySubject prefixes the original subject the way mail clients do.
func ReplySubject(subject string) string {
	return "Re: " + subject
}
