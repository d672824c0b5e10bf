// Package presentation renders multisets, rules and run traces for humans.
package presentation

import (
	"fmt"
	"strings"

	"github.com/aretw0/psys/pkg/domain"
)

// FormatMultiset renders m as its symbols, each repeated by its count, in
// alphabetical order. The empty multiset renders as "".
func FormatMultiset(m domain.Multiset) string {
	return m.String()
}

// FormatRule renders r as "out -> in".
func FormatRule(r domain.Rule) string {
	return r.String()
}

// RuleTable renders the rule set as a markdown table.
func RuleTable(rules domain.RuleSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Rules (%d)\n\n", len(rules))
	if len(rules) == 0 {
		sb.WriteString("_No rules._\n")
		return sb.String()
	}

	sb.WriteString("| # | Token | Consumes | Produces | Source |\n")
	sb.WriteString("|---|-------|----------|----------|--------|\n")
	for i, r := range rules {
		fmt.Fprintf(&sb, "| %d | `%s` | %s | %s | %s |\n",
			i, escapeCell(r.Token), cell(r.Out), cell(r.In), location(r))
	}
	return sb.String()
}

func cell(m domain.Multiset) string {
	if m.IsEmpty() {
		return "-"
	}
	return "`" + m.String() + "`"
}

func location(r domain.Rule) string {
	if r.Source == "" {
		return "-"
	}
	if r.Line == 0 {
		return escapeCell(r.Source)
	}
	return fmt.Sprintf("%s:%d", escapeCell(r.Source), r.Line)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "`", "'")
}
