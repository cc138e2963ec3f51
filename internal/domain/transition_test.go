package domain

import (
	"errors"
	"testing"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    Disposition
		to      Disposition
		allowed bool
	}{
		{DispositionAutoSendable, DispositionSent, true},
		{DispositionAutoSendable, DispositionRejected, true},
		{DispositionAutoSendable, DispositionEscalated, true},
		{DispositionNeedsReview, DispositionSent, true},
		{DispositionNeedsReview, DispositionRejected, true},
		{DispositionNeedsReview, DispositionEscalated, true},
		{DispositionEscalated, DispositionSent, true},
		{DispositionEscalated, DispositionRejected, true},
		{DispositionEscalated, DispositionNeedsReview, true},
		{DispositionEscalated, DispositionEscalated, true},

		{DispositionSent, DispositionEscalated, false},
		{DispositionSent, DispositionNeedsReview, false},
		{DispositionSent, DispositionRejected, false},
		{DispositionRejected, DispositionSent, false},
		{DispositionRejected, DispositionEscalated, false},
		{DispositionNeedsReview, DispositionAutoSendable, false},
		{DispositionEscalated, DispositionAutoSendable, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
			}
		})
	}
}

func TestTransitionRejectedAttemptLeavesStateUnchanged(t *testing.T) {
	ticket := &Ticket{Disposition: DispositionSent}

	err := Transition(ticket, DispositionEscalated)
	if err == nil {
		t.Fatal("expected error transitioning out of sent")
	}
	var invalid *ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidTransition, got %T", err)
	}
	if invalid.From != DispositionSent || invalid.To != DispositionEscalated {
		t.Fatalf("unexpected error detail: %v", invalid)
	}
	if ticket.Disposition != DispositionSent {
		t.Fatalf("disposition changed after rejected attempt: %s", ticket.Disposition)
	}
}

func TestTransitionApplies(t *testing.T) {
	ticket := &Ticket{Disposition: DispositionEscalated}
	if err := Transition(ticket, DispositionNeedsReview); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Disposition != DispositionNeedsReview {
		t.Fatalf("disposition = %s, want needs_review", ticket.Disposition)
	}
}

func TestTransitionEscalatedToEscalatedIsLegal(t *testing.T) {
	ticket := &Ticket{Disposition: DispositionEscalated}
	if err := Transition(ticket, DispositionEscalated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Disposition != DispositionEscalated {
		t.Fatalf("disposition = %s, want escalated", ticket.Disposition)
	}
}

func TestTerminal(t *testing.T) {
	for _, d := range []Disposition{DispositionSent, DispositionRejected} {
		if !d.Terminal() {
			t.Errorf("%s should be terminal", d)
		}
	}
	for _, d := range []Disposition{DispositionAutoSendable, DispositionNeedsReview, DispositionEscalated} {
		if d.Terminal() {
			t.Errorf("%s should not be terminal", d)
		}
	}
}

func TestParseIntent(t *testing.T) {
	if _, ok := ParseIntent("billing"); !ok {
		t.Error("billing should parse")
	}
	if _, ok := ParseIntent("refunds"); ok {
		t.Error("unknown label should not parse")
	}
	if _, ok := ParseIntent(""); ok {
		t.Error("empty label should not parse")
	}
}

func TestParseUrgency(t *testing.T) {
	if _, ok := ParseUrgency("critical"); !ok {
		t.Error("critical should parse")
	}
	if _, ok := ParseUrgency("URGENT"); ok {
		t.Error("unknown label should not parse")
	}
}
