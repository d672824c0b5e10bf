package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidRule is returned when a rule has no outgoing symbols.
var ErrInvalidRule = errors.New("rules without outgoing component are invalid")

// ErrDivergence is returned when loop detection finds a state that dominates
// an earlier one.
var ErrDivergence = errors.New("divergence detected")

// ErrCountOverflow is returned when a symbol count no longer fits in 64 bits.
var ErrCountOverflow = errors.New("symbol count overflow")

// ErrStepLimit is returned when a run exceeds its configured step budget.
var ErrStepLimit = errors.New("step limit exceeded")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// InvalidRuleError locates a rule rejected at load time.
type InvalidRuleError struct {
	Token  string
	Source string
	Line   int
}

func (e *InvalidRuleError) Error() string {
	msg := ErrInvalidRule.Error()
	if e.Token != "" {
		msg += fmt.Sprintf(": %q", e.Token)
	}
	switch {
	case e.Source != "" && e.Line > 0:
		msg += fmt.Sprintf(" (%s:%d)", e.Source, e.Line)
	case e.Source != "":
		msg += fmt.Sprintf(" (%s)", e.Source)
	}
	return msg
}

func (e *InvalidRuleError) Unwrap() error { return ErrInvalidRule }

// DivergenceError carries the pair of states that triggered loop detection:
// Current contains Previous, so the run can repeat forever.
type DivergenceError struct {
	Previous Multiset
	Current  Multiset
	Step     int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("found increasing sequence: %s->%s", e.Previous, e.Current)
}

func (e *DivergenceError) Unwrap() error { return ErrDivergence }
