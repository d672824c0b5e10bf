package validator

import (
	"fmt"

	"github.com/aretw0/psys/pkg/domain"
)

// Kind classifies a Finding.
type Kind string

const (
	// KindShadowed marks a rule that can never fire because an earlier rule
	// drains every copy of a sub-multiset of its outgoing component first.
	KindShadowed Kind = "shadowed"
	// KindSelfSustaining marks a rule whose products contain its own inputs.
	KindSelfSustaining Kind = "self-sustaining"
	// KindUnreachable marks a rule needing a symbol that no run from the
	// given initial state can ever produce.
	KindUnreachable Kind = "unreachable"
)

// Finding is a warning about a rule set. Findings never make a rule set
// invalid; the simulator runs it as written.
type Finding struct {
	Kind    Kind   `json:"kind"`
	Rule    int    `json:"rule"`
	Token   string `json:"token"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("line %d: %q %s", f.Line, f.Token, f.Message)
	}
	return fmt.Sprintf("rule %d: %q %s", f.Rule, f.Token, f.Message)
}

// ValidateRules inspects rules for rules that can never fire or that keep a
// run alive. When initial is non-nil, rules that cannot fire from it are
// reported too. Findings are ordered by rule index.
func ValidateRules(rules domain.RuleSet, initial *domain.Multiset) []Finding {
	var reachable []bool
	if initial != nil {
		reachable = Reachable(rules, *initial)
	}

	var findings []Finding
	for i, rule := range rules {
		add := func(kind Kind, msg string) {
			findings = append(findings, Finding{Kind: kind, Rule: i, Token: rule.Token, Line: rule.Line, Message: msg})
		}

		if j, ok := shadowedBy(rules, i); ok {
			add(KindShadowed, fmt.Sprintf("never fires: rule %q drains %s first", rules[j].Token, rules[j].Out))
		} else if reachable != nil && !reachable[i] {
			add(KindUnreachable, "never fires from the initial state")
		}
		if rule.In.Contains(rule.Out) {
			add(KindSelfSustaining, "produces everything it consumes and can keep a run from halting")
		}
	}
	return findings
}

func shadowedBy(rules domain.RuleSet, i int) (int, bool) {
	for j := 0; j < i; j++ {
		if !rules[j].Out.IsEmpty() && rules[i].Out.Contains(rules[j].Out) {
			return j, true
		}
	}
	return 0, false
}

// Reachable reports, per rule, whether some run from initial could fire it.
// It crawls symbol availability to a fixed point, ignoring counts and rule
// order, so a false entry is certain while a true one is only possible.
func Reachable(rules domain.RuleSet, initial domain.Multiset) []bool {
	var present [domain.NumSymbols]bool
	for sym := range present {
		present[sym] = initial[sym] > 0
	}

	fired := make([]bool, len(rules))
	for changed := true; changed; {
		changed = false
		for i, rule := range rules {
			if fired[i] || !available(present, rule.Out) {
				continue
			}
			fired[i] = true
			changed = true
			for sym, n := range rule.In {
				if n > 0 {
					present[sym] = true
				}
			}
		}
	}
	return fired
}

func available(present [domain.NumSymbols]bool, m domain.Multiset) bool {
	for sym, n := range m {
		if n > 0 && !present[sym] {
			return false
		}
	}
	return true
}
