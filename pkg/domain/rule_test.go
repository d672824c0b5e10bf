package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_Validate(t *testing.T) {
	ok := Rule{Out: NewMultiset("a"), Token: "a"}
	assert.NoError(t, ok.Validate())

	bad := Rule{In: NewMultiset("abc"), Token: "ABC", Source: "rules.txt", Line: 3}
	err := bad.Validate()
	assert.ErrorIs(t, err, ErrInvalidRule)

	var ire *InvalidRuleError
	assert.True(t, errors.As(err, &ire))
	assert.Equal(t, "ABC", ire.Token)
	assert.Equal(t, `rules without outgoing component are invalid: "ABC" (rules.txt:3)`, err.Error())
}

func TestRuleSet_Validate_ReportsFirstInvalid(t *testing.T) {
	rs := RuleSet{
		{Out: NewMultiset("a"), Token: "a"},
		{Token: "B"},
		{Token: "C"},
	}
	var ire *InvalidRuleError
	assert.True(t, errors.As(rs.Validate(), &ire))
	assert.Equal(t, "B", ire.Token)
}

func TestRuleSet_Applicable(t *testing.T) {
	rs := RuleSet{{Out: NewMultiset("aa")}, {Out: NewMultiset("bc")}}
	assert.False(t, rs.Applicable(NewMultiset("abd")))
	assert.True(t, rs.Applicable(NewMultiset("aad")))
	assert.True(t, rs.Applicable(NewMultiset("bcc")))
}

func TestRule_String(t *testing.T) {
	r := Rule{Out: NewMultiset("ba"), In: NewMultiset("cc")}
	assert.Equal(t, "ab -> cc", r.String())
	assert.Equal(t, "a -> ", Rule{Out: NewMultiset("a")}.String())
}

func TestDivergenceError(t *testing.T) {
	err := error(&DivergenceError{Previous: NewMultiset("a"), Current: NewMultiset("aa"), Step: 1})
	assert.ErrorIs(t, err, ErrDivergence)
	assert.Equal(t, "found increasing sequence: a->aa", err.Error())
	assert.Equal(t, StatusDiverged, StatusOf(err))
	assert.Equal(t, StatusHalted, StatusOf(nil))
	assert.Equal(t, StatusFailed, StatusOf(ErrStepLimit))
}

func TestChainHooks_CallsInOrder(t *testing.T) {
	var calls []string
	first := LifecycleHooks{
		OnStepStart: func(context.Context, *StepEvent) { calls = append(calls, "first") },
	}
	second := LifecycleHooks{
		OnStepStart: func(context.Context, *StepEvent) { calls = append(calls, "second") },
		OnHalt:      func(context.Context, *HaltEvent) { calls = append(calls, "halt") },
	}

	h := ChainHooks(first, LifecycleHooks{}, second)
	h.OnStepStart(context.Background(), &StepEvent{})
	h.OnHalt(context.Background(), &HaltEvent{})

	assert.Equal(t, []string{"first", "second", "halt"}, calls)
	assert.Nil(t, h.OnRuleApplied)
}
