package runtime

import "github.com/aretw0/psys/pkg/domain"

// LoopDetector remembers every multiset a run has passed through and flags
// the first one that contains an earlier one. Since the rules are applied
// deterministically, a state that dominates a past state can keep growing
// forever.
//
// This is a best-effort check: it catches monotone growth and exact
// repeats, not every non-terminating run.
type LoopDetector struct {
	history []domain.Multiset
}

// NewLoopDetector seeds the history with the initial multiset.
func NewLoopDetector(initial domain.Multiset) *LoopDetector {
	return &LoopDetector{history: []domain.Multiset{initial}}
}

// Observe checks next against the history in insertion order and records
// it when no earlier state is dominated. step is only used for the error.
func (d *LoopDetector) Observe(next domain.Multiset, step int) error {
	for _, prev := range d.history {
		if next.Contains(prev) {
			return &domain.DivergenceError{Previous: prev, Current: next, Step: step}
		}
	}
	d.history = append(d.history, next)
	return nil
}

// History returns the recorded states, oldest first.
func (d *LoopDetector) History() []domain.Multiset {
	return append([]domain.Multiset(nil), d.history...)
}
