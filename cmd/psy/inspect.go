package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/psys/internal/presentation"
	"github.com/aretw0/psys/internal/presentation/graph"
	"github.com/aretw0/psys/internal/presentation/tui"
	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect RULEFILE...",
	Short: "Show the rules in application order",
	Long: `Prints the rule set as a table: each rule's token, what it consumes,
what it produces and where it was defined. With --graph a Mermaid flowchart
of how rules move symbols is printed instead.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw, _ := cmd.Flags().GetBool("raw")
		asGraph, _ := cmd.Flags().GetBool("graph")

		if err := runInspect(cmd.Context(), args, raw, asGraph, cmd.OutOrStdout()); err != nil {
			fmt.Printf("Error inspecting rules: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "Print markdown instead of rendering it")
	inspectCmd.Flags().Bool("graph", false, "Print a Mermaid flowchart")
}

func runInspect(ctx context.Context, args []string, raw, asGraph bool, w io.Writer) error {
	rules, err := file.NewLoader(args...).LoadRules(ctx)
	if err != nil {
		return err
	}

	if asGraph {
		fmt.Fprint(w, graph.GenerateMermaid(rules, nil))
		return nil
	}

	table := presentation.RuleTable(rules)
	if raw {
		fmt.Fprint(w, table)
		return nil
	}

	render, err := newRenderer(w)
	if err != nil {
		return err
	}
	out, err := render(table)
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	return nil
}

// newRenderer styles markdown for a terminal and keeps it plain otherwise.
func newRenderer(w io.Writer) (func(string) (string, error), error) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 0
		}
		return tui.NewRenderer(width)
	}
	return tui.NewPlainRenderer()
}
