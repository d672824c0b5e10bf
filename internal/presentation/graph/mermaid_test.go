package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/psys/internal/presentation/graph"
	"github.com/aretw0/psys/pkg/domain"
)

func rule(out, in string) domain.Rule {
	return domain.Rule{Out: domain.NewMultiset(out), In: domain.NewMultiset(in)}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name        string
		rules       domain.RuleSet
		overlay     *graph.Overlay
		contains    []string
		notContains []string
	}{
		{
			name:  "Symbol Nodes",
			rules: domain.RuleSet{rule("a", "b")},
			contains: []string{
				"graph LR",
				`a(("a"))`,
				`b(("b"))`,
			},
			notContains: []string{`c(("c"))`},
		},
		{
			name:  "Rule Node And Edges",
			rules: domain.RuleSet{rule("aa", "bc")},
			contains: []string{
				`r0["aa -> bc"]`,
				`a -- "x2" --> r0`,
				"r0 --> b",
				"r0 --> c",
			},
		},
		{
			name:    "Overlay",
			rules:   domain.RuleSet{rule("a", "b")},
			overlay: &graph.Overlay{State: domain.NewMultiset("bbe")},
			contains: []string{
				"classDef present",
				"class b present;",
				`e(("e"))`,
			},
			notContains: []string{"class a present;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.rules, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.notContains {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
		})
	}
}
