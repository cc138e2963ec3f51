package triage

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
)

func TestDraftReturnsModelReply(t *testing.T) {
	reply := "Thank you for reaching out. Could you share the invoice number so the right team can review it?"
	client := &fakeLLM{responses: []string{reply}}
	drafter := NewDrafter(client, testLLMConfig(), zap.NewNop())

	result := drafter.Draft(context.Background(), "Invoice", "Double charged.",
		domain.IntentBilling, domain.UrgencyHigh)
	if result.Degraded {
		t.Fatal("clean reply should not degrade")
	}
	if result.Reply != reply {
		t.Fatalf("reply = %q", result.Reply)
	}
}

func TestDraftFallbackOnFailure(t *testing.T) {
	client := &fakeLLM{errs: []error{errors.New("service unavailable")}}
	drafter := NewDrafter(client, testLLMConfig(), zap.NewNop())

	result := drafter.Draft(context.Background(), "Hi", "body",
		domain.IntentGeneralInquiry, domain.UrgencyLow)
	if !result.Degraded {
		t.Fatal("failure must degrade to template")
	}
	if result.Reply != fallbackReply {
		t.Fatalf("reply = %q, want template", result.Reply)
	}
}

func TestDraftFallbackOnEmptyReply(t *testing.T) {
	client := &fakeLLM{responses: []string{"   "}}
	drafter := NewDrafter(client, testLLMConfig(), zap.NewNop())

	result := drafter.Draft(context.Background(), "Hi", "body",
		domain.IntentGeneralInquiry, domain.UrgencyLow)
	if !result.Degraded || result.Reply != fallbackReply {
		t.Fatalf("empty reply should yield template, got %+v", result)
	}
}

func TestDraftBlocksPromissoryLanguage(t *testing.T) {
	cases := []string{
		"Don't worry, I'll issue a refund right away.",
		"This is guaranteed to be resolved within the hour.",
		"Our team will have everything working by tomorrow.",
		"We promise this won't happen again.",
		"As an apology, you'll receive compensation for the outage.",
	}
	for _, reply := range cases {
		t.Run(reply[:20], func(t *testing.T) {
			client := &fakeLLM{responses: []string{reply}}
			drafter := NewDrafter(client, testLLMConfig(), zap.NewNop())

			result := drafter.Draft(context.Background(), "Hi", "body",
				domain.IntentBilling, domain.UrgencyMedium)
			if !result.Degraded {
				t.Fatalf("promissory reply %q must degrade", reply)
			}
			if result.Reply != fallbackReply {
				t.Fatalf("reply = %q, want template", result.Reply)
			}
		})
	}
}

func TestDraftBlocklistIsCaseInsensitive(t *testing.T) {
	client := &fakeLLM{responses: []string{"WE GUARANTEE a full resolution."}}
	drafter := NewDrafter(client, testLLMConfig(), zap.NewNop())

	result := drafter.Draft(context.Background(), "Hi", "body",
		domain.IntentBilling, domain.UrgencyMedium)
	if !result.Degraded {
		t.Fatal("uppercase promissory phrase must still be caught")
	}
}
