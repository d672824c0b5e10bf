package presentation

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/psys/pkg/domain"
	"github.com/muesli/termenv"
)

// Tracer writes the verbose run trace: the multiset at the start of every
// step, then one "  out -> in" line per rule application.
// Colours are only emitted when the writer is a terminal.
type Tracer struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{out: termenv.NewOutput(w)}
}

// Hooks returns the lifecycle hooks that drive the trace.
func (t *Tracer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepStart: func(_ context.Context, e *domain.StepEvent) {
			t.state(e.State)
		},
		OnRuleApplied: func(_ context.Context, e *domain.RuleEvent) {
			t.applications(e.Rule, e.Applications)
		},
	}
}

func (t *Tracer) state(m domain.Multiset) {
	s := FormatMultiset(m)
	if s == "" {
		s = "(empty)"
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, t.out.String(s).Bold().Foreground(t.out.Color("#818cf8")))
}

func (t *Tracer) applications(r domain.Rule, n uint64) {
	line := t.out.String("  " + FormatRule(r)).Foreground(t.out.Color("#a78bfa")).String()
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := uint64(0); i < n; i++ {
		fmt.Fprintln(t.out, line)
	}
}
