package ports

import (
	"context"

	"github.com/aretw0/psys/pkg/domain"
)

// RuleLoader defines how the simulator obtains its rule set.
// This allows the rule source (files, memory, request bodies) to be decoupled.
type RuleLoader interface {
	// LoadRules returns the ordered rule set. Implementations must reject
	// rules without outgoing symbols with domain.ErrInvalidRule.
	LoadRules(ctx context.Context) (domain.RuleSet, error)
}
