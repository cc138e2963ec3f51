package triage

import (
	"fmt"
	"time"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

// teamByIntent is the deterministic routing table. Every enumerated intent
// has exactly one default team.
var teamByIntent = map[domain.Intent]string{
	domain.IntentBilling:        "Finance Team",
	domain.IntentTechnicalIssue: "Tech Support",
	domain.IntentAccountAccess:  "Account Services",
	domain.IntentCancellation:   "Retention Team",
	domain.IntentFeatureRequest: "Product Team",
	domain.IntentGeneralInquiry: "General Support",
}

// Decision is the policy outcome for one classified message.
type Decision struct {
	Team        string
	Disposition domain.Disposition
}

// Policy maps classification results to team assignments and dispositions.
// It is side-effect-free and safe for concurrent use; the thresholds are
// fixed at construction.
type Policy struct {
	cfg config.TriageConfig
}

// NewPolicy validates the threshold configuration and builds the engine.
// An escalation threshold above the auto-send threshold is a configuration
// error and must prevent startup.
func NewPolicy(cfg config.TriageConfig) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("triage policy: %w", err)
	}
	return &Policy{cfg: cfg}, nil
}

// Decide computes the team and initial disposition. Precedence, first match
// wins:
//  1. critical urgency always escalates, regardless of confidence
//  2. confidence below the escalation threshold escalates
//  3. confidence at or above the auto-send threshold may bypass review
//  4. everything else needs human review
func (p *Policy) Decide(intent domain.Intent, urgency domain.Urgency, confidence float64) Decision {
	decision := Decision{Team: p.TeamFor(intent)}

	switch {
	case urgency == domain.UrgencyCritical:
		decision.Disposition = domain.DispositionEscalated
	case confidence < p.cfg.EscalationThreshold:
		decision.Disposition = domain.DispositionEscalated
	case confidence >= p.cfg.AutoSendThreshold:
		decision.Disposition = domain.DispositionAutoSendable
	default:
		decision.Disposition = domain.DispositionNeedsReview
	}
	return decision
}

// TeamFor returns the default team for an intent.
func (p *Policy) TeamFor(intent domain.Intent) string {
	if team, ok := teamByIntent[intent]; ok {
		return team
	}
	return teamByIntent[domain.IntentGeneralInquiry]
}

// SLAHours returns the response-time commitment for an urgency level.
func (p *Policy) SLAHours(urgency domain.Urgency) int {
	switch urgency {
	case domain.UrgencyLow:
		return p.cfg.SLALowHours
	case domain.UrgencyMedium:
		return p.cfg.SLAMediumHours
	case domain.UrgencyHigh:
		return p.cfg.SLAHighHours
	case domain.UrgencyCritical:
		return p.cfg.SLACriticalHours
	}
	return p.cfg.SLAMediumHours
}

// SLADeadline derives the response deadline from the urgency and a clock
// read supplied by the caller.
func (p *Policy) SLADeadline(urgency domain.Urgency, now time.Time) time.Time {
	return now.Add(time.Duration(p.SLAHours(urgency)) * time.Hour)
}
