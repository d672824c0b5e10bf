package ports

import (
	"context"

	"github.com/aretw0/psys/pkg/domain"
)

// Simulator runs a loaded rule set against initial multisets.
// It is the interface adapters (HTTP, MCP) depend on.
type Simulator interface {
	// Rules returns the rule set in application order.
	Rules() domain.RuleSet

	// Run simulates until no rule applies. The Result is non-nil even on
	// error, describing where the run stopped.
	Run(ctx context.Context, initial domain.Multiset) (*domain.Result, error)
}

// SimulationRequest describes a simulator built at request time.
type SimulationRequest struct {
	Rules       RuleLoader
	DetectLoops bool
	// Hooks run in addition to any the factory was configured with.
	Hooks domain.LifecycleHooks
}

// SimulatorFactory builds a Simulator for rules supplied at request time.
type SimulatorFactory func(ctx context.Context, req SimulationRequest) (Simulator, error)
