package cmd

import (
	"os"

	"github.com/cohere-llc/kbase-transfers/flags"
	"github.com/cohere-llc/kbase-transfers/runner"
	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/cohere-llc/kbase-transfers/transfer"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	transferCmd.Flags().StringVarP(&flags.Prefix, flags.PrefixName, "p", "", flags.PrefixMsg)
	transferCmd.Flags().IntVarP(&flags.Limit, flags.LimitName, "l", 0, flags.LimitMsg)
	transferCmd.Flags().StringVarP(&flags.OutputList, flags.OutputListName, "o", "", flags.OutputListMsg)

	transferCmd.Flags().StringVarP(&flags.Bucket, flags.BucketName, "b", flags.BucketDefault, flags.BucketMsg)
	transferCmd.Flags().StringVarP(&flags.StorePrefix, flags.StorePrefixName, "", flags.StorePrefixDefault, flags.StorePrefixMsg)
	transferCmd.Flags().StringVarP(&flags.Store, flags.StoreName, "", "s3", flags.StoreMsg)
	transferCmd.Flags().StringVarP(&flags.Endpoint, flags.EndpointName, "e", "", flags.EndpointMsg)
	transferCmd.Flags().StringVarP(&flags.AccessKey, flags.AccessKeyName, "", "", flags.AccessKeyMsg)
	transferCmd.Flags().StringVarP(&flags.SecretKey, flags.SecretKeyName, "", "", flags.SecretKeyMsg)
	transferCmd.Flags().StringVarP(&flags.Region, flags.RegionName, "", "", flags.RegionMsg)

	addArchiveFlags(transferCmd)

	transferCmd.Flags().IntVarP(&flags.Workers, flags.WorkersName, "w", 1, flags.WorkersMsg)
	transferCmd.Flags().DurationVarP(&flags.Delay, flags.DelayName, "", runner.DefaultDelay, flags.DelayMsg)
	transferCmd.Flags().IntVarP(&flags.Attempts, flags.AttemptsName, "", transfer.DefaultAttempts, flags.AttemptsMsg)
	transferCmd.Flags().DurationVarP(&flags.RetryDelay, flags.RetryDelayName, "", 0, flags.RetryDelayMsg)
	transferCmd.Flags().StringVarP(&flags.StagingDir, flags.StagingDirName, "", "", flags.StagingDirMsg)
	transferCmd.Flags().StringVarP(&flags.Report, flags.ReportName, "r", "", flags.ReportMsg)

	rootCmd.AddCommand(transferCmd)
}

var transferCmd = &cobra.Command{
	Use:   "transfer [accession-file]",
	Short: "Copy genome assemblies from the NCBI archive into the object store.",
	Long: `Copy genome assemblies from the NCBI archive into the object store.

Give either a file of accessions (a local path or an s3 url) or --prefix to
discover every assembly under an archive subtree. Files already stored with
a matching checksum are skipped, so a run can simply be repeated.

The exit status is non-zero only when the run could not start. Failures of
single assemblies or files are listed in the summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setConfig()
		if err := bindFlags(cmd); err != nil {
			return err
		}
		flags.FoldEnvVarsIntoFlagValues()

		if len(args) == 1 && flags.Prefix != "" {
			return errors.New("give either an accession file or --prefix, not both")
		}
		if len(args) == 0 && flags.Prefix == "" {
			return errors.New("no accessions provided")
		}
		if flags.OutputList != "" && flags.Prefix == "" {
			return errors.New("--output-list only applies with --prefix")
		}

		ctx, stop := signalContext()
		defer stop()

		dialer, err := newDialer()
		if err != nil {
			return err
		}
		st, err := newStore()
		if err != nil {
			return err
		}
		if err := store.CheckDestination(ctx, st, flags.Bucket, flags.StorePrefix); err != nil {
			return err
		}
		log.Infof("writing to %s/%s", flags.Bucket, flags.StorePrefix)

		var items []runner.Item
		if flags.Prefix != "" {
			paths, err := runner.Discover(ctx, dialer, flags.Prefix, flags.Limit)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.Errorf("no assemblies discovered under %s", flags.Prefix)
			}
			if flags.OutputList != "" {
				if err := writeAccessionList(flags.OutputList, paths); err != nil {
					return err
				}
				log.Infof("wrote %d accessions to %s", len(paths), flags.OutputList)
			}
			items = runner.PathItems(paths)
		} else {
			entries, err := flags.ResolveAccession(args[0])
			if err != nil {
				return err
			}
			if flags.Limit > 0 && len(entries) > flags.Limit {
				entries = entries[:flags.Limit]
			}
			items = runner.AccessionItems(entries)
		}

		r := &runner.Runner{
			Dialer: dialer,
			Engine: &transfer.Engine{
				Store:      st,
				Bucket:     flags.Bucket,
				Prefix:     flags.StorePrefix,
				Attempts:   flags.Attempts,
				RetryDelay: flags.RetryDelay,
			},
			Options: runner.Options{
				Workers:    flags.Workers,
				Delay:      flags.Delay,
				StagingDir: flags.StagingDir,
			},
		}
		sum, err := r.Run(ctx, items)
		if sum == nil {
			return err
		}
		if err != nil {
			log.Warnf("run interrupted: %v", err)
		}
		if werr := sum.Write(cmd.OutOrStdout()); werr != nil {
			return werr
		}
		if flags.Report != "" {
			return writeReport(flags.Report, sum)
		}
		return nil
	},
}

func writeReport(path string, sum *runner.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "couldn't create %s", path)
	}
	if err := sum.WriteYAML(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "couldn't write %s", path)
}
