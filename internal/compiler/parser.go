package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/psys/pkg/domain"
)

// CommentMarker starts a comment line in a rule file. Only the very first
// character of a line is considered.
const CommentMarker = '#'

// ParseToken turns one whitespace-free token into a rule: lowercase letters
// of the alphabet are consumed, uppercase ones produced, anything else is
// ignored. The rule is not validated.
func ParseToken(token string) domain.Rule {
	r := domain.Rule{Token: token}
	for _, c := range token {
		sym, dir, ok := domain.ParseSymbol(c)
		if !ok {
			continue
		}
		if dir == domain.Outgoing {
			r.Out[sym]++
		} else {
			r.In[sym]++
		}
	}
	return r
}

// ParseLine splits a rule line into tokens. Comment lines yield no rules.
func ParseLine(line string) []domain.Rule {
	if strings.HasPrefix(line, string(CommentMarker)) {
		return nil
	}
	fields := strings.Fields(line)
	rules := make([]domain.Rule, 0, len(fields))
	for _, tok := range fields {
		rules = append(rules, ParseToken(tok))
	}
	return rules
}

// ParseRules reads a rule file in the plain text format. source is recorded
// on every rule for error messages and may be empty. The first rule with no
// outgoing symbol aborts parsing with a *domain.InvalidRuleError.
func ParseRules(r io.Reader, source string) (domain.RuleSet, error) {
	br := bufio.NewReader(r)
	var rules domain.RuleSet

	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read rules: %w", err)
		}

		for _, rule := range ParseLine(line) {
			rule.Source = source
			rule.Line = lineNo
			if verr := rule.Validate(); verr != nil {
				return nil, verr
			}
			rules = append(rules, rule)
		}

		if err != nil {
			return rules, nil
		}
	}
}

// ReadState builds the initial multiset from a text stream. Letters a-e are
// counted regardless of case; every other byte is discarded.
func ReadState(r io.Reader) (domain.Multiset, error) {
	var m domain.Multiset
	buf := make([]byte, 32*1024)

	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if sym, _, ok := domain.ParseSymbol(rune(b)); ok {
				m[sym]++
			}
		}
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			return m, fmt.Errorf("failed to read state: %w", err)
		}
	}
}
