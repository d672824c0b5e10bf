package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/psys/pkg/domain"
)

// Engine applies a fixed rule set to multisets.
// It holds no run state, so one Engine may serve concurrent runs.
type Engine struct {
	rules       domain.RuleSet
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	detectLoops bool
	stepLimit   int
	now         func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLoopDetection enables the history-based divergence check.
// It costs O(steps²) containment tests over a run.
func WithLoopDetection(enabled bool) EngineOption {
	return func(e *Engine) {
		e.detectLoops = enabled
	}
}

// WithStepLimit aborts a run with domain.ErrStepLimit once it has fired more
// than n steps, so a run halting within n steps is unaffected. Zero means no
// limit.
func WithStepLimit(n int) EngineOption {
	return func(e *Engine) {
		e.stepLimit = n
	}
}

// NewEngine validates rules and builds an engine for them.
func NewEngine(rules domain.RuleSet, opts ...EngineOption) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		rules:  append(domain.RuleSet(nil), rules...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() domain.RuleSet {
	return append(domain.RuleSet(nil), e.rules...)
}

// Step performs one pass over the rules.
//
// Each rule, in order, is drained: it fires as long as its outgoing multiset
// is contained in what is left of state. Produced symbols are collected apart
// and only merged after the last rule, so nothing produced during a pass can
// be consumed in the same pass. fired reports whether any rule applied.
//
// step is the 1-based index reported to hooks.
func (e *Engine) Step(ctx context.Context, state domain.Multiset, step int) (next domain.Multiset, fired bool, err error) {
	next, applied, err := e.apply(ctx, state, step)
	return next, applied > 0, err
}

// apply is Step, returning the number of rule applications.
func (e *Engine) apply(ctx context.Context, state domain.Multiset, step int) (domain.Multiset, uint64, error) {
	var pending domain.Multiset
	var applied uint64

	for i, rule := range e.rules {
		// Draining n times at once is the same as n single applications:
		// pending is never consulted for containment.
		n := state.Fits(rule.Out)
		if n == 0 {
			continue
		}

		consumed, ok := rule.Out.Scale(n)
		if !ok {
			return state, applied, fmt.Errorf("rule %d (%s): %w", i, rule, domain.ErrCountOverflow)
		}
		produced, ok := rule.In.Scale(n)
		if !ok {
			return state, applied, fmt.Errorf("rule %d (%s): %w", i, rule, domain.ErrCountOverflow)
		}
		if pending, ok = pending.AddChecked(produced); !ok {
			return state, applied, fmt.Errorf("rule %d (%s): %w", i, rule, domain.ErrCountOverflow)
		}
		state = state.Sub(consumed)
		applied += n

		if e.hooks.OnRuleApplied != nil {
			e.hooks.OnRuleApplied(ctx, &domain.RuleEvent{
				EventBase:    e.event(domain.EventRuleApplied, step),
				RuleIndex:    i,
				Rule:         rule,
				Applications: n,
			})
		}
	}

	next, ok := state.AddChecked(pending)
	if !ok {
		return state, applied, fmt.Errorf("merging products: %w", domain.ErrCountOverflow)
	}
	return next, applied, nil
}

func (e *Engine) event(t domain.EventType, step int) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, Step: step}
}
