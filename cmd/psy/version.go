package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/psys"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of psy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "psy version %s\n", strings.TrimSpace(psys.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
