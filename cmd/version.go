package cmd

import (
	"fmt"

	"github.com/cohere-llc/kbase-transfers/info"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of genomexfer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "genomexfer -- %s\n", info.Version)
	},
}
