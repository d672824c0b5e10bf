package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/psys/internal/logging"
	"github.com/aretw0/psys/pkg/domain"
	"golang.org/x/term"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger configures the application logger from a level name.
// An empty level turns logging off.
func NewLogger(level string) (*slog.Logger, error) {
	if strings.TrimSpace(level) == "" {
		return logging.NewNop(), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// createDebugHooks logs every step and rule application at debug level.
func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	var before domain.Multiset
	return domain.LifecycleHooks{
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			before = e.State
			logger.DebugContext(ctx, "Step Start", "step", e.Step, "state", e.State.String(), "size", e.State.Size())
		},
		OnRuleApplied: func(ctx context.Context, e *domain.RuleEvent) {
			logger.DebugContext(ctx, "Rule Applied", "step", e.Step, "rule", e.RuleIndex, "token", e.Rule.Token, "times", e.Applications)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "Step End", "step", e.Step, "fired", e.Fired, "delta", domain.Diff(before, e.State).String())
		},
		OnHalt: func(ctx context.Context, e *domain.HaltEvent) {
			if e.Err != nil {
				logger.DebugContext(ctx, "Run Stopped", "steps", e.Steps, "status", e.Status, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "Run Halted", "steps", e.Steps, "final", e.Final.String(), "elapsed", e.Elapsed)
		},
	}
}

// stdinHint tells an interactive user how to finish the initial state.
func stdinHint(in io.Reader, w io.Writer) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return
	}
	fmt.Fprintln(w, ">>> Reading initial state from the terminal; end it with Ctrl-D.")
}

// errInterrupted is returned by InterruptibleReader once its context is done.
var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	// Check before blocking
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	// Read (This blocks!)
	n, err = r.base.Read(p)

	// Check after returning
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled)
}
