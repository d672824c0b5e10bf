package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/psys/internal/validator"
	"github.com/aretw0/psys/pkg/adapters/file"
	"github.com/aretw0/psys/pkg/domain"
	"github.com/spf13/cobra"
)

var validateState string

var validateCmd = &cobra.Command{
	Use:   "validate RULEFILE...",
	Short: "Check rule files without running them",
	Long: `Parses every rule file and reports the first rule that consumes nothing.

Rules that can never fire, or that produce everything they consume, are
listed as warnings. With --state, rules that cannot fire from that initial
state are listed too.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var initial *domain.Multiset
		if cmd.Flags().Changed("state") {
			m := domain.NewMultiset(validateState)
			initial = &m
		}
		if err := runValidate(cmd.Context(), args, initial, cmd.OutOrStdout()); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateState, "state", "", "Initial state to check reachability from")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(ctx context.Context, args []string, initial *domain.Multiset, w io.Writer) error {
	rules, err := file.NewLoader(args...).LoadRules(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Rules are valid! ✅ (%d rules)\n", len(rules))
	for _, f := range validator.ValidateRules(rules, initial) {
		fmt.Fprintf(w, "⚠️  %s: %s\n", f.Kind, f)
	}
	return nil
}
