package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/psys/pkg/domain"
)

// Overlay marks a multiset on the graph, typically the final state of a run.
type Overlay struct {
	State domain.Multiset
}

// GenerateMermaid produces a Mermaid flowchart of how rules move symbols:
// - Symbol: ((Circle))
// - Rule: [Rectangle], labelled "out -> in"
// Edges carry the multiplicity consumed or produced. Symbols present in the
// overlay state are highlighted.
func GenerateMermaid(rules domain.RuleSet, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	var used domain.Multiset
	for _, r := range rules {
		used = used.Add(r.Out).Add(r.In)
	}
	for i := domain.Symbol(0); i < domain.NumSymbols; i++ {
		if used[i] > 0 || (overlay != nil && overlay.State[i] > 0) {
			fmt.Fprintf(&sb, "    %s((\"%s\"))\n", i, i)
		}
	}

	for idx, r := range rules {
		id := fmt.Sprintf("r%d", idx)
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, r.String())
		for s := domain.Symbol(0); s < domain.NumSymbols; s++ {
			if n := r.Out[s]; n > 0 {
				sb.WriteString(edge(s.String(), id, n))
			}
		}
		for s := domain.Symbol(0); s < domain.NumSymbols; s++ {
			if n := r.In[s]; n > 0 {
				sb.WriteString(edge(id, s.String(), n))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef present fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for s := domain.Symbol(0); s < domain.NumSymbols; s++ {
			if overlay.State[s] > 0 {
				fmt.Fprintf(&sb, "    class %s present;\n", s)
			}
		}
	}

	return sb.String()
}

func edge(from, to string, n uint64) string {
	if n == 1 {
		return fmt.Sprintf("    %s --> %s\n", from, to)
	}
	return fmt.Sprintf("    %s -- \"x%d\" --> %s\n", from, n, to)
}
