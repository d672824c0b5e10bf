package psys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/internal/runtime"
	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/google/uuid"
)

// Simulator is the high-level entry point for the psys library.
// It wraps the internal runtime and optionally records every run.
type Simulator struct {
	runtime     *runtime.Engine
	loader      ports.RuleLoader
	store       ports.RunStore
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	detectLoops bool
	stepLimit   int
	now         func() time.Time
	newID       func() string
	Name        string
}

// Option defines a functional option for configuring the Simulator.
type Option func(*Simulator)

// WithLifecycleHooks registers observability hooks. Repeated calls add
// hooks; they run in registration order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Simulator) {
		s.hooks = domain.ChainHooks(s.hooks, hooks)
	}
}

// WithLoader injects a custom RuleLoader, bypassing the rule files.
func WithLoader(l ports.RuleLoader) Option {
	return func(s *Simulator) {
		s.loader = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// WithLoopDetection stops runs that reach a state containing an earlier one.
func WithLoopDetection(enabled bool) Option {
	return func(s *Simulator) {
		s.detectLoops = enabled
	}
}

// WithStepLimit stops runs after n fired steps. 0 means unlimited.
func WithStepLimit(n int) Option {
	return func(s *Simulator) {
		s.stepLimit = n
	}
}

// WithStore records a RunRecord for every run.
func WithStore(store ports.RunStore) Option {
	return func(s *Simulator) {
		s.store = store
	}
}

// New loads the rule files at paths and prepares a Simulator.
// If WithLoader is provided, paths can be empty and are only used as a label.
func New(ctx context.Context, paths []string, opts ...Option) (*Simulator, error) {
	sim := &Simulator{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}

	// Apply Options first to check if a loader is provided
	for _, opt := range opts {
		opt(sim)
	}

	if sim.loader == nil {
		if len(paths) == 0 {
			return nil, fmt.Errorf("at least one rule file is required when no custom loader is provided")
		}
		sim.loader = file.NewLoader(paths...)
	}
	if len(paths) > 0 {
		sim.Name = filepath.Base(paths[0])
	}

	if sim.logger == nil {
		sim.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sim.Name != "" {
		sim.logger = sim.logger.With("rules", sim.Name)
	}

	rules, err := sim.loader.LoadRules(ctx)
	if err != nil {
		return nil, err
	}

	sim.runtime, err = runtime.NewEngine(rules,
		runtime.WithLifecycleHooks(sim.hooks),
		runtime.WithLogger(sim.logger),
		runtime.WithLoopDetection(sim.detectLoops),
		runtime.WithStepLimit(sim.stepLimit),
	)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

// NewFactory returns a ports.SimulatorFactory that builds simulators with
// opts, for rules supplied per request.
func NewFactory(opts ...Option) ports.SimulatorFactory {
	return func(ctx context.Context, req ports.SimulationRequest) (ports.Simulator, error) {
		all := append(append([]Option{}, opts...),
			WithLoader(req.Rules),
			WithLoopDetection(req.DetectLoops),
			WithLifecycleHooks(req.Hooks),
		)
		sim, err := New(ctx, nil, all...)
		if err != nil {
			return nil, err
		}
		return sim, nil
	}
}

// Rules returns the loaded rule set in application order.
func (s *Simulator) Rules() domain.RuleSet {
	return s.runtime.Rules()
}

// Run simulates from initial until no rule applies.
//
// The Result is non-nil even on error. With a store configured the run is
// recorded whatever its outcome; a failure to record is logged and leaves
// Result.RunID empty.
func (s *Simulator) Run(ctx context.Context, initial domain.Multiset) (*domain.Result, error) {
	started := s.now()
	res, err := s.runtime.Run(ctx, initial)
	if s.store == nil {
		return res, err
	}

	rec := &domain.RunRecord{
		ID:          s.newID(),
		Rules:       s.runtime.Rules().Tokens(),
		Initial:     initial,
		Final:       res.Final,
		Steps:       res.Steps,
		Status:      res.Status,
		DetectLoops: s.detectLoops,
		StartedAt:   started,
		FinishedAt:  s.now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// A cancelled run is still worth recording.
	if serr := s.store.Save(context.WithoutCancel(ctx), rec); serr != nil {
		s.logger.WarnContext(ctx, "failed to record run", "run_id", rec.ID, "err", serr)
		return res, err
	}
	res.RunID = rec.ID
	return res, err
}

// RunReader reads the initial multiset from r, then runs.
func (s *Simulator) RunReader(ctx context.Context, r io.Reader) (*domain.Result, error) {
	initial, err := compiler.ReadState(r)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, initial)
}
