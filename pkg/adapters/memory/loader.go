package memory

import (
	"context"
	"strings"

	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/pkg/domain"
)

// Loader implements ports.RuleLoader over rule text held in memory.
type Loader struct {
	source string
	text   string
	tokens []string
}

// NewLoader creates a loader for text in the plain rule format.
// source labels the rules in error messages and may be empty.
func NewLoader(source, text string) *Loader {
	return &Loader{source: source, text: text}
}

// NewFromTokens creates a loader with exactly one rule per token, in order.
// Tokens are never read as comments: "#x" is rejected for having no outgoing
// symbol and "#aB" is the rule a -> b.
func NewFromTokens(tokens ...string) *Loader {
	return &Loader{tokens: append([]string{}, tokens...)}
}

// LoadRules parses the text on every call.
func (l *Loader) LoadRules(ctx context.Context) (domain.RuleSet, error) {
	if l.tokens == nil {
		return compiler.ParseRules(strings.NewReader(l.text), l.source)
	}

	rules := make(domain.RuleSet, 0, len(l.tokens))
	for i, tok := range l.tokens {
		rule := compiler.ParseToken(tok)
		rule.Source = l.source
		rule.Line = i + 1
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
