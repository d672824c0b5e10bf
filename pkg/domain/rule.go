package domain

import "fmt"

// Rule is a symport/antiport rule: Out is consumed from the membrane and
// In is produced into it.
type Rule struct {
	Out Multiset `json:"out"`
	In  Multiset `json:"in"`

	// Token is the rule as written in its source, e.g. "aaB".
	Token string `json:"token,omitempty"`
	// Source and Line locate the token; both are optional.
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
}

// Validate checks that the rule consumes at least one symbol.
func (r Rule) Validate() error {
	if r.Out.IsEmpty() {
		return &InvalidRuleError{Token: r.Token, Source: r.Source, Line: r.Line}
	}
	return nil
}

// String renders the rule as "out -> in".
func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.Out, r.In)
}

// RuleSet is an ordered list of rules. Order fixes the application policy.
type RuleSet []Rule

// Validate returns the first invalid rule's error, if any.
func (rs RuleSet) Validate() error {
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Tokens returns the source tokens of every rule.
func (rs RuleSet) Tokens() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Token
	}
	return out
}

// Applicable reports whether at least one rule can fire on m.
func (rs RuleSet) Applicable(m Multiset) bool {
	for _, r := range rs {
		if m.Contains(r.Out) {
			return true
		}
	}
	return false
}
