package tests

import (
	"context"
	"testing"

	"github.com/aretw0/psys/pkg/ports"
)

// RuleLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.RuleLoader.
// wantTokens lists the rule tokens the loader is expected to produce, in order.
func RuleLoaderContractTest(t *testing.T, loader ports.RuleLoader, wantTokens []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadRules_Order", func(t *testing.T) {
		rules, err := loader.LoadRules(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading rules: %v", err)
		}
		if len(rules) != len(wantTokens) {
			t.Fatalf("expected %d rules, got %d", len(wantTokens), len(rules))
		}
		for i, r := range rules {
			if r.Token != wantTokens[i] {
				t.Errorf("rule %d: got token %q, want %q", i, r.Token, wantTokens[i])
			}
		}
	})

	t.Run("LoadRules_Valid", func(t *testing.T) {
		rules, err := loader.LoadRules(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading rules: %v", err)
		}
		if err := rules.Validate(); err != nil {
			t.Errorf("loader returned an invalid rule: %v", err)
		}
	})

	t.Run("LoadRules_Repeatable", func(t *testing.T) {
		first, err := loader.LoadRules(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading rules: %v", err)
		}
		second, err := loader.LoadRules(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading rules: %v", err)
		}
		if len(first) != len(second) {
			t.Fatalf("second load returned %d rules, first %d", len(second), len(first))
		}
		for i := range first {
			if first[i].Out != second[i].Out || first[i].In != second[i].In {
				t.Errorf("rule %d differs between loads", i)
			}
		}
	})
}
