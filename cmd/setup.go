package cmd

import (
	"bufio"
	"os"
	"time"

	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/archive"
	"github.com/cohere-llc/kbase-transfers/awsutil"
	"github.com/cohere-llc/kbase-transfers/flags"
	"github.com/cohere-llc/kbase-transfers/info"
	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.Archive, flags.ArchiveName, "", "ftp", flags.ArchiveMsg)
	cmd.Flags().StringVarP(&flags.FTPHost, flags.FTPHostName, "", archive.DefaultFTPHost, flags.FTPHostMsg)
	cmd.Flags().StringVarP(&flags.HTTPSURL, flags.HTTPSURLName, "", archive.DefaultHTTPSURL, flags.HTTPSURLMsg)
}

// bindFlags ties the flags of the command being run to their environment
// variables. Commands share flag names, so this happens at run time rather
// than in init.
func bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = viper.BindPFlag(f.Name, f)
		}
	})
	return errors.Wrap(err, "INTERNAL ERROR: could not bind flags to environment variables")
}

func newDialer() (archive.Dialer, error) {
	switch flags.Archive {
	case "ftp":
		d := archive.FTPDialer{Host: flags.FTPHost, Timeout: 30 * time.Second}
		if debug {
			d.Debug = log.Writer()
		}
		return d, nil
	case "https":
		return archive.HTTPSDialer{BaseURL: flags.HTTPSURL, UserAgent: info.UserAgent}, nil
	}
	return nil, errors.Errorf("unknown archive protocol %q, want ftp or https", flags.Archive)
}

func newStore() (store.ObjectStore, error) {
	cfg := store.ResolveConfig(store.Config{
		Endpoint:  flags.Endpoint,
		AccessKey: flags.AccessKey,
		SecretKey: flags.SecretKey,
		Region:    flags.Region,
		Debug:     debug,
	})
	log.Debugf("object store endpoint %s", cfg.Endpoint)
	switch flags.Store {
	case "s3":
		return awsutil.NewStore(cfg)
	case "minio":
		return store.NewMinioStore(cfg)
	}
	return nil, errors.Errorf("unknown object store client %q, want s3 or minio", flags.Store)
}

// writeAccessionList writes the canonical accession of every discovered
// path, one per line.
func writeAccessionList(path string, paths []string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "couldn't create %s", path)
	}
	w := bufio.NewWriter(f)
	for _, p := range paths {
		ref, err := accession.ParseAssemblyPath(p)
		if err != nil {
			log.Warnf("leaving %s out of %s: %v", p, path, err)
			continue
		}
		w.WriteString(ref.Accession.String() + "\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "couldn't write %s", path)
	}
	return errors.Wrapf(f.Close(), "couldn't write %s", path)
}
