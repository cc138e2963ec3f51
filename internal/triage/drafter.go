package triage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/llm"
)

// fallbackReply is the deterministic template used when drafting fails or
// the generated text violates the content policy.
const fallbackReply = "Thank you for contacting us. A member of our support " +
	"team has received your message and will follow up with you shortly."

// promissoryPhrases is the blocklist enforced after generation. Prompt
// instructions alone are not trusted to keep commitments out of replies.
var promissoryPhrases = []string{
	"i'll issue a refund",
	"we will refund",
	"refund is guaranteed",
	"you will receive a refund",
	"i guarantee",
	"we guarantee",
	"guaranteed to be resolved",
	"will be fixed by",
	"we'll fix this by",
	"by tomorrow",
	"by end of day",
	"you'll receive compensation",
	"we will compensate",
	"i promise",
	"we promise",
	"you will be credited",
	"we'll credit your account",
}

// DraftResult carries the generated reply and whether it degraded to the
// template.
type DraftResult struct {
	Reply    string
	Degraded bool
}

// Drafter produces a brand-safe reply draft for a classified message.
type Drafter struct {
	client       llm.Client
	maxBodyChars int
	logger       *zap.Logger
}

// NewDrafter constructs the drafter.
func NewDrafter(client llm.Client, cfg config.LLMConfig, logger *zap.Logger) *Drafter {
	return &Drafter{client: client, maxBodyChars: cfg.MaxBodyChars, logger: logger}
}

// Draft generates a reply for the message. Drafting failure degrades quality,
// not correctness: external-call errors and content-policy violations both
// yield the generic template with Degraded set.
func (d *Drafter) Draft(ctx context.Context, subject, body string, intent domain.Intent, urgency domain.Urgency) DraftResult {
	prompt := replyUserPrompt(subject, truncate(body, d.maxBodyChars), string(intent), string(urgency))

	raw, err := d.client.Complete(ctx, llm.Request{
		System:      replySystemPrompt,
		User:        prompt,
		Temperature: 0.2,
		MaxTokens:   1000,
	})
	if err != nil {
		d.logger.Warn("draft call failed, using template reply", zap.Error(err))
		return DraftResult{Reply: fallbackReply, Degraded: true}
	}

	reply := strings.TrimSpace(raw)
	if reply == "" {
		d.logger.Warn("draft call returned empty reply, using template reply")
		return DraftResult{Reply: fallbackReply, Degraded: true}
	}

	if phrase, found := findPromissoryPhrase(reply); found {
		d.logger.Warn("draft contained promissory language, using template reply",
			zap.String("phrase", phrase))
		return DraftResult{Reply: fallbackReply, Degraded: true}
	}

	return DraftResult{Reply: reply}
}

func findPromissoryPhrase(reply string) (string, bool) {
	lowered := strings.ToLower(reply)
	for _, phrase := range promissoryPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase, true
		}
	}
	return "", false
}
