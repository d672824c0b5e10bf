package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepStart   EventType = "step_start"
	EventStepEnd     EventType = "step_end"
	EventRuleApplied EventType = "rule_applied"
	EventHalt        EventType = "halt"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	// Step is the 1-based index of the step the event belongs to.
	Step int `json:"step"`
}

// StepEvent marks the start or the end of a step.
// On start State is the multiset the step reads; on end it is the result.
type StepEvent struct {
	EventBase
	State Multiset `json:"state"`
	Fired bool     `json:"fired,omitempty"`
}

// RuleEvent reports that a rule fired Applications times in a row.
type RuleEvent struct {
	EventBase
	RuleIndex    int    `json:"rule_index"`
	Rule         Rule   `json:"rule"`
	Applications uint64 `json:"applications"`
}

// HaltEvent reports the end of a run, successful or not.
type HaltEvent struct {
	EventBase
	Final   Multiset      `json:"final"`
	Steps   int           `json:"steps"`
	Status  Status        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the simulation goroutine and must not
// retain the events.
type LifecycleHooks struct {
	OnStepStart   func(context.Context, *StepEvent)
	OnStepEnd     func(context.Context, *StepEvent)
	OnRuleApplied func(context.Context, *RuleEvent)
	OnHalt        func(context.Context, *HaltEvent)
}

// ChainHooks returns hooks that call every non-nil hook of hs in order.
func ChainHooks(hs ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hs {
		h := h
		if h.OnStepStart != nil {
			prev := out.OnStepStart
			out.OnStepStart = func(ctx context.Context, e *StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepStart(ctx, e)
			}
		}
		if h.OnStepEnd != nil {
			prev := out.OnStepEnd
			out.OnStepEnd = func(ctx context.Context, e *StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepEnd(ctx, e)
			}
		}
		if h.OnRuleApplied != nil {
			prev := out.OnRuleApplied
			out.OnRuleApplied = func(ctx context.Context, e *RuleEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnRuleApplied(ctx, e)
			}
		}
		if h.OnHalt != nil {
			prev := out.OnHalt
			out.OnHalt = func(ctx context.Context, e *HaltEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnHalt(ctx, e)
			}
		}
	}
	return out
}
