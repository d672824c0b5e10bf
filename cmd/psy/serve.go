package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/psys"
	"github.com/aretw0/psys/internal/cli"
	"github.com/aretw0/psys/internal/presentation/tui"
	httpAdapter "github.com/aretw0/psys/pkg/adapters/http"
	"github.com/aretw0/psys/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// defaultServeStepLimit applies when the config sets none: a server must
// not spin on a non-halting rule set until the request deadline.
const defaultServeStepLimit = 100_000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP simulation server",
	Long: `Serves POST /simulate, POST /simulate/stream and POST /validate, recorded
runs under /runs (when a store is configured) and Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		port := cfg.Serve.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		if err := runServe(cmd.Context(), port); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from serve.port)")
}

func runServe(parent context.Context, port int) error {
	logger, err := cli.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	store, closeStore, err := cli.OpenStore(parent, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	stepLimit := cfg.StepLimit
	if stepLimit == 0 {
		stepLimit = defaultServeStepLimit
	}
	simOpts := []psys.Option{
		psys.WithLogger(logger),
		psys.WithStepLimit(stepLimit),
		psys.WithLifecycleHooks(metrics.Hooks()),
	}
	handlerOpts := []httpAdapter.Option{
		httpAdapter.WithMetrics(metrics.Handler()),
		httpAdapter.WithVersion(psys.Version),
		httpAdapter.WithLogger(logger),
		httpAdapter.WithRequestTimeout(cfg.Serve.Timeout),
	}
	if store != nil {
		simOpts = append(simOpts, psys.WithStore(store))
		handlerOpts = append(handlerOpts, httpAdapter.WithStore(store))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: httpAdapter.NewHandler(psys.NewFactory(simOpts...), handlerOpts...),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		tui.PrintBanner(os.Stdout, psys.Version)
		fmt.Printf("Starting psy server on %s (store: %s)\n", srv.Addr, cfg.Store)
		serverErrors <- srv.ListenAndServe()
	}()

	ctx := cli.NewSignalContext(parent)
	defer ctx.Cancel()

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return err

	case <-ctx.Done():
		fmt.Printf("\nStart shutdown... Signal: %v\n", ctx.Signal())

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				fmt.Printf("Error killing server: %v\n", err)
			}
		}
		fmt.Println("psy server stopped gracefully")
		return nil
	}
}
