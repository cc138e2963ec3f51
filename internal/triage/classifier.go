package triage

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/llm"
)

// fallbackConfidence is assigned whenever the model output cannot be trusted.
const fallbackConfidence = 0.3

// classifyRetries bounds transport retries so a flaky provider cannot stall
// ingest.
const classifyRetries = 1

// Classification is the structured judgment for one message.
type Classification struct {
	Intent     domain.Intent
	Urgency    domain.Urgency
	Confidence float64
	Reasoning  string
	Degraded   bool
}

// Classifier turns a raw subject/body into a validated classification.
// It never returns an error: any failure of the external call or of output
// validation degrades to a conservative fallback judgment.
type Classifier struct {
	client       llm.Client
	maxBodyChars int
	logger       *zap.Logger
}

// NewClassifier constructs the adapter.
func NewClassifier(client llm.Client, cfg config.LLMConfig, logger *zap.Logger) *Classifier {
	return &Classifier{client: client, maxBodyChars: cfg.MaxBodyChars, logger: logger}
}

type classifierOutput struct {
	Intent     string  `json:"intent"`
	Urgency    string  `json:"urgency"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify invokes the model and validates its output against the closed
// enumerations. Unrecognized labels, malformed JSON, timeouts and transport
// errors all map to the fallback judgment with Degraded set.
func (c *Classifier) Classify(ctx context.Context, subject, body string) Classification {
	prompt := classifierUserPrompt(subject, truncate(body, c.maxBodyChars))

	var raw string
	var err error
	for attempt := 0; attempt <= classifyRetries; attempt++ {
		raw, err = c.client.Complete(ctx, llm.Request{
			System:      classifierSystemPrompt,
			User:        prompt,
			Temperature: 0.1,
			MaxTokens:   500,
			ForceJSON:   true,
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		c.logger.Warn("classification call failed, using fallback", zap.Error(err))
		return fallbackClassification()
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		c.logger.Warn("classification output is not valid JSON, using fallback",
			zap.String("output", preview(raw)))
		return fallbackClassification()
	}

	intent, intentOK := domain.ParseIntent(strings.ToLower(strings.TrimSpace(out.Intent)))
	urgency, urgencyOK := domain.ParseUrgency(strings.ToLower(strings.TrimSpace(out.Urgency)))
	if !intentOK || !urgencyOK {
		c.logger.Warn("classification returned unknown labels, using fallback",
			zap.String("intent", out.Intent), zap.String("urgency", out.Urgency))
		return fallbackClassification()
	}

	result := Classification{
		Intent:     intent,
		Urgency:    urgency,
		Confidence: clamp01(out.Confidence),
		Reasoning:  strings.TrimSpace(out.Reasoning),
	}
	c.logger.Info("classified ticket",
		zap.String("intent", string(result.Intent)),
		zap.String("urgency", string(result.Urgency)),
		zap.Float64("confidence", result.Confidence))
	return result
}

func fallbackClassification() Classification {
	return Classification{
		Intent:     domain.IntentGeneralInquiry,
		Urgency:    domain.UrgencyMedium,
		Confidence: fallbackConfidence,
		Degraded:   true,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// truncate caps the body sent to the model; the subject is never truncated.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func preview(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
