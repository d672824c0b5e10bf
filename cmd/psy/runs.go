package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/psys/internal/cli"
	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/internal/presentation/graph"
	"github.com/aretw0/psys/pkg/ports"
	"github.com/spf13/cobra"
)

var errNoStore = errors.New("no run store configured (set store in psy.yaml or PSY_STORE)")

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage recorded runs",
	Long:  `List, inspect and remove the run records kept by the configured store.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := withStore(cmd.Context(), func(store ports.RunStore) error {
			return listRuns(cmd.Context(), store, cmd.OutOrStdout())
		})
		if err != nil {
			fmt.Printf("Error listing runs: %v\n", err)
			os.Exit(1)
		}
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asGraph, _ := cmd.Flags().GetBool("graph")
		err := withStore(cmd.Context(), func(store ports.RunStore) error {
			return showRun(cmd.Context(), store, args[0], asGraph, cmd.OutOrStdout())
		})
		if err != nil {
			fmt.Printf("Error loading run '%s': %v\n", args[0], err)
			os.Exit(1)
		}
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hasError := false
		err := withStore(cmd.Context(), func(store ports.RunStore) error {
			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					fmt.Printf("Error removing '%s': %v\n", id, err)
					hasError = true
				} else {
					fmt.Printf("Removed run '%s'\n", id)
				}
			}
			return nil
		})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsRmCmd)
	runsShowCmd.Flags().Bool("graph", false, "Print a Mermaid flowchart of the run's rules, highlighting the final state")
}

func withStore(ctx context.Context, fn func(ports.RunStore) error) error {
	store, closeStore, err := cli.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return errNoStore
	}
	return fn(store)
}

func listRuns(ctx context.Context, store ports.RunStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No recorded runs found.")
		return nil
	}

	fmt.Fprintln(w, "Recorded Runs:")
	for _, id := range ids {
		rec, err := store.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(w, "- %s %s %s steps=%d final=%q\n",
			id, rec.StartedAt.Format("2006-01-02T15:04:05"), rec.Status, rec.Steps, rec.Final.String())
	}
	return nil
}

func showRun(ctx context.Context, store ports.RunStore, id string, asGraph bool, w io.Writer) error {
	rec, err := store.Load(ctx, id)
	if err != nil {
		return err
	}

	if asGraph {
		rules := compiler.ParseLine(strings.Join(rec.Rules, " "))
		fmt.Fprint(w, graph.GenerateMermaid(rules, &graph.Overlay{State: rec.Final}))
		return nil
	}

	// Pretty print JSON
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
