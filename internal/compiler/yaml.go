package compiler

import (
	"fmt"

	"github.com/aretw0/psys/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ruleDocument is the YAML rule file layout:
//
//	rules:
//	  - aB
//	  - ccD dE
//
// Each entry is read like a line of the text format.
type ruleDocument struct {
	Rules []yaml.Node `yaml:"rules"`
}

// ParseYAMLRules reads a YAML rule file.
func ParseYAMLRules(data []byte, source string) (domain.RuleSet, error) {
	var doc ruleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", displayName(source), err)
	}

	var rules domain.RuleSet
	for _, node := range doc.Rules {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%s:%d: rule entries must be strings", displayName(source), node.Line)
		}
		for _, rule := range ParseLine(node.Value) {
			rule.Source = source
			rule.Line = node.Line
			if err := rule.Validate(); err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func displayName(source string) string {
	if source == "" {
		return "rules"
	}
	return source
}
