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

package transfer

import (
	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/datapackage"
)

// Status is what happened to one target file.
type Status string

const (
	// SkippedVerified means the stored copy matched the published digest.
	SkippedVerified Status = "skipped_verified"
	// SkippedUnverifiable means a stored copy exists but no digest was published.
	SkippedUnverifiable Status = "skipped_unverifiable"
	// UploadedVerified means a fetched copy matched its digest and was stored.
	UploadedVerified Status = "uploaded_verified"
	// UploadedUnverifiable means a fetched copy was stored without a digest to check.
	UploadedUnverifiable Status = "uploaded_unverifiable"
	// Failed means nothing was stored; Reason says why.
	Failed Status = "failed"
)

// Uploaded reports whether the file was written to the store in this run.
func (s Status) Uploaded() bool {
	return s == UploadedVerified || s == UploadedUnverifiable
}

// Outcome is the record kept for one target file.
type Outcome struct {
	Filename string `yaml:"filename"`
	Status   Status `yaml:"status"`
	Bytes    int64  `yaml:"bytes,omitempty"`
	Digest   string `yaml:"digest,omitempty"`
	Reason   string `yaml:"reason,omitempty"`
	Attempts int    `yaml:"attempts,omitempty"`
}

// Report holds the outcomes for one assembly, in target file order.
type Report struct {
	Assembly accession.AssemblyRef
	Outcomes []Outcome
	// Described is set once datapackage.json has been stored.
	Described bool
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Uploaded reports whether any file was written to the store.
func (r *Report) Uploaded() bool {
	for _, o := range r.Outcomes {
		if o.Status.Uploaded() {
			return true
		}
	}
	return false
}

// Resources lists every file whose stored content is known, for the data
// package descriptor.
func (r *Report) Resources() []datapackage.File {
	var files []datapackage.File
	for _, o := range r.Outcomes {
		switch o.Status {
		case UploadedVerified, UploadedUnverifiable, SkippedVerified:
			files = append(files, datapackage.File{Name: o.Filename, Bytes: o.Bytes, Digest: o.Digest})
		}
	}
	return files
}
