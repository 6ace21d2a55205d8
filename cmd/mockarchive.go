// Modifications Copyright 2018 The MITRE Corporation
// Authors: Matthew Bianchi
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"net/http"

	"github.com/cohere-llc/kbase-transfers/logging"
	"github.com/cohere-llc/kbase-transfers/mock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mockDir  string
	mockAddr string
)

func init() {
	mockArchiveCmd.Flags().StringVarP(&mockDir, "dir", "", "", "Local directory served as the archive root. It should contain genomes/all/...")
	mockArchiveCmd.Flags().StringVarP(&mockAddr, "addr", "", ":8080", "Address to listen on.")
	rootCmd.AddCommand(mockArchiveCmd)
}

var mockArchiveCmd = &cobra.Command{
	Use:   "mock-archive",
	Short: "Serve a local directory as an HTTPS-style genomes archive.",
	Long: `Serve a local directory with the index pages of the NCBI HTTPS archive,
so transfer --archive https --https-url http://localhost:8080 can run
offline.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setConfig()
		if mockDir == "" {
			return errors.New("mock-archive needs --dir")
		}
		a, err := mock.LoadDir(mockDir)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		srv := &http.Server{
			Addr:     mockAddr,
			Handler:  a.Handler(),
			ErrorLog: logging.GetStdLogger(log, logrus.WarnLevel),
		}
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		log.Infof("serving %s on %s", mockDir, mockAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrapf(err, "couldn't serve on %s", mockAddr)
		}
		return nil
	},
}
