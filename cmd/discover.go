package cmd

import (
	"fmt"

	"github.com/cohere-llc/kbase-transfers/flags"
	"github.com/cohere-llc/kbase-transfers/runner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	discoverCmd.Flags().StringVarP(&flags.Prefix, flags.PrefixName, "p", "", flags.PrefixMsg)
	discoverCmd.Flags().IntVarP(&flags.Limit, flags.LimitName, "l", 0, flags.LimitMsg)
	discoverCmd.Flags().StringVarP(&flags.OutputList, flags.OutputListName, "o", "", flags.OutputListMsg)
	addArchiveFlags(discoverCmd)

	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List the assembly directories under an archive subtree.",
	Long: `List the assembly directories under an archive subtree without
transferring anything. With --output-list the canonical accessions are also
written to a file that transfer accepts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setConfig()
		if err := bindFlags(cmd); err != nil {
			return err
		}
		flags.FoldEnvVarsIntoFlagValues()
		if flags.Prefix == "" {
			return errors.New("discover needs --prefix")
		}

		ctx, stop := signalContext()
		defer stop()

		dialer, err := newDialer()
		if err != nil {
			return err
		}
		paths, err := runner.Discover(ctx, dialer, flags.Prefix, flags.Limit)
		for _, p := range paths {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return errors.Errorf("no assemblies discovered under %s", flags.Prefix)
		}
		if flags.OutputList != "" {
			return writeAccessionList(flags.OutputList, paths)
		}
		return nil
	},
}
