package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/psys"
	"github.com/aretw0/psys/internal/config"
	"github.com/aretw0/psys/internal/presentation"
	"github.com/aretw0/psys/pkg/domain"
)

// RunOptions contains all the configuration for a simulation run.
type RunOptions struct {
	RulePaths   []string
	Verbose     bool
	DetectLoops bool
	Config      config.Config

	Stdin  io.Reader
	Stdout io.Writer
	// Stderr receives the interactive input hint.
	Stderr io.Writer
}

// Execute loads the rules, reads the initial state from Stdin, runs the
// simulation and prints the final multiset on Stdout. Any failure is
// returned for the caller to report; nothing is printed on error.
func Execute(ctx context.Context, opts RunOptions) error {
	logger, err := NewLogger(opts.Config.LogLevel)
	if err != nil {
		return err
	}

	store, closeStore, err := OpenStore(ctx, opts.Config)
	if err != nil {
		return err
	}
	defer closeStore()

	simOpts := []psys.Option{
		psys.WithLogger(logger),
		psys.WithLoopDetection(opts.DetectLoops),
		psys.WithStepLimit(opts.Config.StepLimit),
	}
	if store != nil {
		simOpts = append(simOpts, psys.WithStore(store))
	}
	if opts.Verbose {
		simOpts = append(simOpts, psys.WithLifecycleHooks(presentation.NewTracer(opts.Stdout).Hooks()))
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		simOpts = append(simOpts, psys.WithLifecycleHooks(createDebugHooks(logger)))
	}

	sim, err := psys.New(ctx, opts.RulePaths, simOpts...)
	if err != nil {
		return describeRunError(nil, err)
	}

	if opts.Stderr != nil {
		stdinHint(opts.Stdin, opts.Stderr)
	}
	res, err := sim.RunReader(ctx, NewInterruptibleReader(opts.Stdin, ctx.Done()))
	if err != nil {
		return describeRunError(res, err)
	}

	logger.Info("Run Finished", "steps", res.Steps, "applications", res.Applications, "run_id", res.RunID)
	_, err = fmt.Fprintln(opts.Stdout, presentation.FormatMultiset(res.Final))
	return err
}

// describeRunError keeps domain errors as they are and adds context to
// interruptions.
func describeRunError(res *domain.Result, err error) error {
	if !isInterrupted(err) {
		return err
	}
	if res == nil {
		return fmt.Errorf("interrupted before the run started")
	}
	return fmt.Errorf("interrupted after %d steps: %w", res.Steps, err)
}
