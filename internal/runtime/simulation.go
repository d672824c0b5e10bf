package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/psys/pkg/domain"
)

// Run steps from initial until a step fires no rule.
//
// The returned Result is never nil: on error it holds the last state reached
// and a non-halted status, so callers can record failed runs. Without loop
// detection or a step limit a divergent rule set runs until ctx is done.
func (e *Engine) Run(ctx context.Context, initial domain.Multiset) (*domain.Result, error) {
	res := &domain.Result{Final: initial, Status: domain.StatusRunning}
	started := e.now()

	var detector *LoopDetector
	if e.detectLoops {
		detector = NewLoopDetector(initial)
	}

	e.logger.DebugContext(ctx, "simulation started",
		"rules", len(e.rules),
		"initial", initial.String(),
		"detect_loops", e.detectLoops,
	)

	state := initial
	for step := 1; ; step++ {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, res, state, step, started, err)
		}

		if e.hooks.OnStepStart != nil {
			e.hooks.OnStepStart(ctx, &domain.StepEvent{
				EventBase: e.event(domain.EventStepStart, step),
				State:     state,
			})
		}

		next, applied, err := e.apply(ctx, state, step)
		if err != nil {
			return e.finish(ctx, res, state, step, started, fmt.Errorf("step %d: %w", step, err))
		}

		if e.hooks.OnStepEnd != nil {
			e.hooks.OnStepEnd(ctx, &domain.StepEvent{
				EventBase: e.event(domain.EventStepEnd, step),
				State:     next,
				Fired:     applied > 0,
			})
		}

		if applied == 0 {
			return e.finish(ctx, res, state, step, started, nil)
		}

		state = next
		res.Steps++
		res.Applications += applied

		if detector != nil {
			if err := detector.Observe(state, step); err != nil {
				return e.finish(ctx, res, state, step, started, err)
			}
		}
		if e.stepLimit > 0 && res.Steps > e.stepLimit {
			return e.finish(ctx, res, state, step, started, fmt.Errorf("%w: %d", domain.ErrStepLimit, e.stepLimit))
		}
	}
}

func (e *Engine) finish(ctx context.Context, res *domain.Result, state domain.Multiset, step int, started time.Time, err error) (*domain.Result, error) {
	res.Final = state
	res.Status = domain.StatusOf(err)

	if e.hooks.OnHalt != nil {
		ev := e.event(domain.EventHalt, step)
		e.hooks.OnHalt(ctx, &domain.HaltEvent{
			EventBase: ev,
			Final:     state,
			Steps:     res.Steps,
			Status:    res.Status,
			Elapsed:   ev.Timestamp.Sub(started),
			Err:       err,
		})
	}

	if err != nil {
		e.logger.DebugContext(ctx, "simulation stopped", "steps", res.Steps, "status", res.Status, "err", err)
		return res, err
	}
	e.logger.DebugContext(ctx, "simulation halted", "steps", res.Steps, "final", state.String())
	return res, nil
}
