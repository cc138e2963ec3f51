package domain

import "fmt"

// ErrInvalidTransition is returned when a disposition change is not permitted
// by the state machine.
type ErrInvalidTransition struct {
	From Disposition
	To   Disposition
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid disposition transition %s -> %s", e.From, e.To)
}

// transitionTable enumerates every legal disposition change. Tickets enter
// the table in one of auto_sendable, needs_review or escalated; sent and
// rejected are terminal. Escalating an already-escalated ticket is a no-op,
// not an error, so the self-transition is legal.
var transitionTable = map[Disposition][]Disposition{
	DispositionAutoSendable: {DispositionSent, DispositionRejected, DispositionEscalated},
	DispositionNeedsReview:  {DispositionSent, DispositionRejected, DispositionEscalated},
	DispositionEscalated:    {DispositionSent, DispositionRejected, DispositionNeedsReview, DispositionEscalated},
	DispositionSent:         nil,
	DispositionRejected:     nil,
}

// CanTransition reports whether moving from one disposition to another is legal.
func CanTransition(from, to Disposition) bool {
	for _, allowed := range transitionTable[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the ticket to the target disposition, rejecting anything
// the transition table does not permit. Every mutator goes through here;
// nothing writes the disposition field directly.
func Transition(t *Ticket, target Disposition) error {
	if !CanTransition(t.Disposition, target) {
		return &ErrInvalidTransition{From: t.Disposition, To: target}
	}
	t.Disposition = target
	return nil
}
