package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/psys/internal/cli"
	"github.com/aretw0/psys/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg         config.Config
	verbose     bool
	detectLoops bool
)

var rootCmd = &cobra.Command{
	Use:   "psy [-v] [-l] RULEFILE...",
	Short: "psy simulates a one-membrane P-system",
	Long: `psy reads an initial multiset of the symbols a-e from standard input and
rewrites it with the rules in RULEFILE until no rule applies, then prints the
final multiset.

Each whitespace-separated token of a rule file is a rule: lowercase letters
are consumed, uppercase letters produced. Lines starting with # are comments.

Settings are read from psy.yaml (or $PSY_CONFIG) and PSY_* variables.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load("")
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Execute(ctx, cli.RunOptions{
			RulePaths:   args,
			Verbose:     verbose,
			DetectLoops: detectLoops,
			Config:      cfg,
			Stdin:       cmd.InOrStdin(),
			Stdout:      cmd.OutOrStdout(),
			Stderr:      cmd.ErrOrStderr(),
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the multiset before each step and every rule application")
	rootCmd.Flags().BoolVarP(&detectLoops, "detect-loops", "l", false, "Fail when a state contains an earlier one")
}
