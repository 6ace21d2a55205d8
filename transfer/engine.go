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

// Package transfer replicates one located assembly directory from the
// archive into the object store, verifying every file against the
// published checksums.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/archive"
	"github.com/cohere-llc/kbase-transfers/checksum"
	"github.com/cohere-llc/kbase-transfers/datapackage"
	"github.com/cohere-llc/kbase-transfers/logging"
	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
)

var log = logging.GetLogger("transfer")

// DefaultAttempts is how many times a file is fetched before giving up.
const DefaultAttempts = 3

var (
	// ErrChecksumMismatch means fetched content did not match its digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrTransferIO means the archive or the store failed mid transfer.
	ErrTransferIO = errors.New("transfer error")
)

// DefaultSuffixes selects the files replicated from each assembly.
var DefaultSuffixes = []string{
	"_gene_ontology.gaf.gz",
	"_genomic.fna.gz",
	"_genomic.gff.gz",
	"_protein.faa.gz",
	"_ani_contam_ranges.tsv",
	"_assembly_regions.txt",
	"_assembly_report.txt",
	"_assembly_stats.txt",
	"_gene_expression_counts.txt.gz",
	"_normalized_gene_expression_counts.txt.gz",
}

// Engine copies assemblies into Bucket under Prefix. An Engine holds no
// per-assembly state and may be shared between goroutines.
type Engine struct {
	Store  store.ObjectStore
	Bucket string
	Prefix string
	// Attempts bounds fetches per file; zero means DefaultAttempts.
	Attempts int
	// RetryDelay is waited before every fetch after the first.
	RetryDelay time.Duration
	// Suffixes selects target files; nil means DefaultSuffixes.
	Suffixes []string
	// Now stamps data packages; nil means time.Now.
	Now func() time.Time
}

func (e *Engine) attempts() int {
	if e.Attempts <= 0 {
		return DefaultAttempts
	}
	return e.Attempts
}

func (e *Engine) suffixes() []string {
	if e.Suffixes == nil {
		return DefaultSuffixes
	}
	return e.Suffixes
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Key is the object key a file of ref is stored under.
func (e *Engine) Key(ref accession.AssemblyRef, name string) string {
	return store.Join(e.Prefix, ref.StorePath()+name)
}

// Targets returns the names that end in one of the engine's suffixes, in
// listing order.
func (e *Engine) Targets(names []string) []string {
	var targets []string
	for _, name := range names {
		for _, suffix := range e.suffixes() {
			if strings.HasSuffix(name, suffix) {
				targets = append(targets, name)
				break
			}
		}
	}
	return targets
}

// Transfer brings every target file of ref into the store and records one
// outcome per file. File level problems end up in the outcomes; the error
// is only set when the directory cannot be listed, the data package cannot
// be stored or ctx is cancelled. The report is never nil.
func (e *Engine) Transfer(ctx context.Context, sess archive.Session, ref accession.AssemblyRef, stagingDir string) (*Report, error) {
	report := &Report{Assembly: ref}
	remote := ref.RemotePath()

	names, err := sess.NameList(ctx, remote)
	if err != nil {
		return report, errors.Wrapf(err, "couldn't list %s", remote)
	}
	for i := range names {
		names[i] = path.Base(names[i])
	}

	ledger := e.loadLedger(ctx, sess, report, names, stagingDir)

	targets := e.Targets(names)
	if len(targets) == 0 {
		log.Warnf("%s: no files match the target suffixes", ref.Dir)
		return report, nil
	}

	for _, name := range targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		f := &file{
			name:  name,
			state: statePending,
			local: filepath.Join(stagingDir, name),
		}
		f.expected, f.known = ledger.Lookup(name)
		o := e.process(ctx, sess, ref, f)
		log.Infof("%s: %s %s", ref.Dir, name, o.Status)
		report.Outcomes = append(report.Outcomes, o)
		os.Remove(f.local)
	}

	if report.Uploaded() {
		if err := e.describe(ctx, ref, report, stagingDir); err != nil {
			return report, err
		}
		report.Described = true
	}
	return report, ctx.Err()
}

// loadLedger reads md5checksums.txt and copies it next to the data. A
// missing or unreadable manifest yields an empty ledger. A failed copy is
// recorded in report as a failed outcome for the manifest.
func (e *Engine) loadLedger(ctx context.Context, sess archive.Session, report *Report, names []string, stagingDir string) checksum.Ledger {
	ref := report.Assembly
	found := false
	for _, name := range names {
		if name == checksum.ManifestName {
			found = true
			break
		}
	}
	if !found {
		log.Warnf("%s: no %s, files cannot be verified", ref.Dir, checksum.ManifestName)
		return checksum.Ledger{}
	}

	content, err := sess.RetrieveText(ctx, ref.RemotePath()+checksum.ManifestName)
	if err != nil {
		log.Warnf("%s: couldn't read %s: %v", ref.Dir, checksum.ManifestName, err)
		return checksum.Ledger{}
	}
	if err := e.storeManifest(ctx, ref, content, stagingDir); err != nil {
		log.Errorf("%s: couldn't copy %s: %v", ref.Dir, checksum.ManifestName, err)
		report.Outcomes = append(report.Outcomes, Outcome{
			Filename: checksum.ManifestName,
			Status:   Failed,
			Reason:   fmt.Sprintf("couldn't copy checksum manifest: %v", err),
			Attempts: 1,
		})
	}
	return checksum.Parse(content)
}

// storeManifest uploads the checksum manifest unless an identical copy is
// already stored.
func (e *Engine) storeManifest(ctx context.Context, ref accession.AssemblyRef, content []byte, stagingDir string) error {
	key := e.Key(ref, checksum.ManifestName)
	local := filepath.Join(stagingDir, checksum.ManifestName)
	defer os.Remove(local)

	exists, err := e.Store.Exists(ctx, e.Bucket, key)
	if err != nil {
		return err
	}
	if exists {
		if err := e.Store.Download(ctx, e.Bucket, key, local); err == nil {
			if stored, err := ioutil.ReadFile(local); err == nil && bytes.Equal(stored, content) {
				log.Debugf("%s: stored %s is current", ref.Dir, checksum.ManifestName)
				return nil
			}
		}
	}
	if err := ioutil.WriteFile(local, content, 0644); err != nil {
		return errors.Wrapf(err, "couldn't stage %s", local)
	}
	return e.Store.Upload(ctx, e.Bucket, key, local)
}

// describe stores datapackage.json for the files of report.
func (e *Engine) describe(ctx context.Context, ref accession.AssemblyRef, report *Report, stagingDir string) error {
	pkg, err := datapackage.New(ref.Dir, ref.Accession.String(), report.Resources(), e.now())
	if err != nil {
		return err
	}
	b, err := pkg.Marshal()
	if err != nil {
		return err
	}
	local := filepath.Join(stagingDir, datapackage.FileName)
	defer os.Remove(local)
	if err := ioutil.WriteFile(local, b, 0644); err != nil {
		return errors.Wrapf(err, "couldn't stage %s", local)
	}
	key := e.Key(ref, datapackage.FileName)
	if err := e.Store.Upload(ctx, e.Bucket, key, local); err != nil {
		return errors.Wrapf(err, "couldn't store %s", key)
	}
	log.Infof("%s: stored %s with %d resources", ref.Dir, datapackage.FileName, len(pkg.Resources))
	return nil
}
