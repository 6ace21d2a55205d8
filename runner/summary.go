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

package runner

import (
	"fmt"
	"io"
	"time"

	"github.com/cohere-llc/kbase-transfers/transfer"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const rule = "============================================================"

type FailedItem struct {
	Entry  string `yaml:"entry"`
	Reason string `yaml:"reason"`
}

type FailedTransfer struct {
	Entry    string `yaml:"entry"`
	Filename string `yaml:"filename"`
	Reason   string `yaml:"reason"`
}

// Unverifiable is a file stored without a published checksum. Existing is
// true when the stored copy predates the run.
type Unverifiable struct {
	Entry    string `yaml:"entry"`
	Filename string `yaml:"filename"`
	Existing bool   `yaml:"existing"`
}

// Summary is the outcome of one run.
type Summary struct {
	RunID      string    `yaml:"run_id"`
	Started    time.Time `yaml:"started"`
	Finished   time.Time `yaml:"finished"`
	Total      int       `yaml:"total"`
	Succeeded  int       `yaml:"succeeded"`
	NotStarted int       `yaml:"not_started,omitempty"`

	Files           map[transfer.Status]int `yaml:"files"`
	FailedItems     []FailedItem            `yaml:"failed_items"`
	FailedTransfers []FailedTransfer        `yaml:"failed_transfers"`
	Unverifiable    []Unverifiable          `yaml:"unverifiable"`
}

func newSummary(runID string, total int) *Summary {
	return &Summary{
		RunID:   runID,
		Started: time.Now().UTC(),
		Total:   total,
		Files:   make(map[transfer.Status]int),
	}
}

func (s *Summary) add(it Item, report *transfer.Report, err error) {
	if report != nil {
		for _, o := range report.Outcomes {
			s.Files[o.Status]++
			switch o.Status {
			case transfer.Failed:
				s.FailedTransfers = append(s.FailedTransfers, FailedTransfer{Entry: it.Entry, Filename: o.Filename, Reason: o.Reason})
			case transfer.SkippedUnverifiable, transfer.UploadedUnverifiable:
				s.Unverifiable = append(s.Unverifiable, Unverifiable{
					Entry:    it.Entry,
					Filename: o.Filename,
					Existing: o.Status == transfer.SkippedUnverifiable,
				})
			}
		}
	}
	if err != nil {
		s.FailedItems = append(s.FailedItems, FailedItem{Entry: it.Entry, Reason: err.Error()})
		return
	}
	s.Succeeded++
}

// Write prints the summary for people.
func (s *Summary) Write(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("%s\nSUMMARY (run %s)\n%s\n", rule, s.RunID, rule)
	ew.printf("Total items:      %d\n", s.Total)
	ew.printf("Successful:       %d\n", s.Succeeded)
	ew.printf("Failed:           %d\n", len(s.FailedItems))
	if s.NotStarted > 0 {
		ew.printf("Not started:      %d\n", s.NotStarted)
	}
	ew.printf("Failed transfers: %d\n", len(s.FailedTransfers))
	ew.printf("Unverifiable:     %d\n", len(s.Unverifiable))

	if len(s.FailedItems) > 0 {
		ew.printf("\nFailed items:\n")
		for _, f := range s.FailedItems {
			ew.printf("  - %s: %s\n", f.Entry, f.Reason)
		}
	}
	if len(s.FailedTransfers) > 0 {
		ew.printf("\nFailed file transfers:\n")
		for _, f := range s.FailedTransfers {
			ew.printf("  - %s / %s: %s\n", f.Entry, f.Filename, f.Reason)
		}
	}
	if len(s.Unverifiable) > 0 {
		ew.printf("\nFiles without checksum verification:\n")
		for _, u := range s.Unverifiable {
			how := "newly uploaded"
			if u.Existing {
				how = "already in store"
			}
			ew.printf("  - %s / %s (%s)\n", u.Entry, u.Filename, how)
		}
	}
	return ew.err
}

// WriteYAML writes the machine readable report.
func (s *Summary) WriteYAML(w io.Writer) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "couldn't encode run report")
	}
	_, err = w.Write(b)
	return errors.Wrap(err, "couldn't write run report")
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
