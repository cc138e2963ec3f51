package triage

import (
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/domain"
)

func defaultTriageConfig() config.TriageConfig {
	return config.TriageConfig{
		AutoSendThreshold:   0.8,
		EscalationThreshold: 0.6,
		SLALowHours:         48,
		SLAMediumHours:      24,
		SLAHighHours:        8,
		SLACriticalHours:    2,
	}
}

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	policy, err := NewPolicy(defaultTriageConfig())
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	return policy
}

func TestNewPolicyRejectsOverlappingThresholds(t *testing.T) {
	cfg := defaultTriageConfig()
	cfg.EscalationThreshold = 0.9
	if _, err := NewPolicy(cfg); err == nil {
		t.Fatal("expected error when escalation threshold exceeds auto-send threshold")
	}
}

func TestNewPolicyRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := defaultTriageConfig()
	cfg.AutoSendThreshold = 1.2
	if _, err := NewPolicy(cfg); err == nil {
		t.Fatal("expected error for threshold above 1")
	}
}

func TestDecideCriticalAlwaysEscalates(t *testing.T) {
	policy := newTestPolicy(t)
	for _, confidence := range []float64{0.0, 0.3, 0.6, 0.8, 0.95, 1.0} {
		for _, intent := range []domain.Intent{
			domain.IntentBilling, domain.IntentTechnicalIssue, domain.IntentGeneralInquiry,
		} {
			decision := policy.Decide(intent, domain.UrgencyCritical, confidence)
			if decision.Disposition != domain.DispositionEscalated {
				t.Errorf("critical/%s/confidence=%v: got %s, want escalated",
					intent, confidence, decision.Disposition)
			}
		}
	}
}

func TestDecideConfidenceBands(t *testing.T) {
	policy := newTestPolicy(t)
	cases := []struct {
		name       string
		confidence float64
		want       domain.Disposition
	}{
		{"below escalation threshold", 0.59, domain.DispositionEscalated},
		{"zero confidence", 0.0, domain.DispositionEscalated},
		{"at escalation threshold", 0.6, domain.DispositionNeedsReview},
		{"mid band", 0.7, domain.DispositionNeedsReview},
		{"just under auto-send", 0.79, domain.DispositionNeedsReview},
		{"at auto-send threshold", 0.8, domain.DispositionAutoSendable},
		{"full confidence", 1.0, domain.DispositionAutoSendable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, urgency := range []domain.Urgency{domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh} {
				decision := policy.Decide(domain.IntentBilling, urgency, tc.confidence)
				if decision.Disposition != tc.want {
					t.Errorf("urgency=%s confidence=%v: got %s, want %s",
						urgency, tc.confidence, decision.Disposition, tc.want)
				}
			}
		})
	}
}

func TestDecideScenarios(t *testing.T) {
	policy := newTestPolicy(t)
	cases := []struct {
		name            string
		intent          domain.Intent
		urgency         domain.Urgency
		confidence      float64
		wantTeam        string
		wantDisposition domain.Disposition
	}{
		{
			name:   "confident billing auto-sends to finance",
			intent: domain.IntentBilling, urgency: domain.UrgencyHigh, confidence: 0.9,
			wantTeam: "Finance Team", wantDisposition: domain.DispositionAutoSendable,
		},
		{
			name:   "low-confidence technical issue escalates",
			intent: domain.IntentTechnicalIssue, urgency: domain.UrgencyLow, confidence: 0.4,
			wantTeam: "Tech Support", wantDisposition: domain.DispositionEscalated,
		},
		{
			name:   "critical overrides high confidence",
			intent: domain.IntentGeneralInquiry, urgency: domain.UrgencyCritical, confidence: 0.95,
			wantTeam: "General Support", wantDisposition: domain.DispositionEscalated,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := policy.Decide(tc.intent, tc.urgency, tc.confidence)
			if decision.Team != tc.wantTeam {
				t.Errorf("team = %q, want %q", decision.Team, tc.wantTeam)
			}
			if decision.Disposition != tc.wantDisposition {
				t.Errorf("disposition = %s, want %s", decision.Disposition, tc.wantDisposition)
			}
		})
	}
}

func TestTeamForCoversEveryIntent(t *testing.T) {
	policy := newTestPolicy(t)
	want := map[domain.Intent]string{
		domain.IntentBilling:        "Finance Team",
		domain.IntentTechnicalIssue: "Tech Support",
		domain.IntentAccountAccess:  "Account Services",
		domain.IntentCancellation:   "Retention Team",
		domain.IntentFeatureRequest: "Product Team",
		domain.IntentGeneralInquiry: "General Support",
	}
	for intent, team := range want {
		if got := policy.TeamFor(intent); got != team {
			t.Errorf("TeamFor(%s) = %q, want %q", intent, got, team)
		}
	}
}

func TestSLADeadline(t *testing.T) {
	policy := newTestPolicy(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		urgency domain.Urgency
		hours   int
	}{
		{domain.UrgencyLow, 48},
		{domain.UrgencyMedium, 24},
		{domain.UrgencyHigh, 8},
		{domain.UrgencyCritical, 2},
	}
	for _, tc := range cases {
		got := policy.SLADeadline(tc.urgency, now)
		want := now.Add(time.Duration(tc.hours) * time.Hour)
		if !got.Equal(want) {
			t.Errorf("SLADeadline(%s) = %v, want %v", tc.urgency, got, want)
		}
	}
}

func TestConfigValidateMessagesNameTheVariable(t *testing.T) {
	cfg := defaultTriageConfig()
	cfg.SLAHighHours = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero SLA hours")
	}
	if !strings.Contains(err.Error(), "SLA_HIGH") {
		t.Errorf("error should name the offending variable, got %q", err)
	}
}
