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

// Package runner drives a transfer run over a worklist of accessions or
// discovered assembly paths and keeps the run summary.
package runner

import (
	"context"
	"io/ioutil"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/archive"
	"github.com/cohere-llc/kbase-transfers/logging"
	"github.com/cohere-llc/kbase-transfers/transfer"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var log = logging.GetLogger("runner")

// DefaultDelay is the pause between two items handled by the same worker.
const DefaultDelay = 500 * time.Millisecond

// Item is one unit of work: an accession entry, or the archive path of an
// assembly found by discovery.
type Item struct {
	Entry string
	Path  bool
}

// AccessionItems wraps accession entries.
func AccessionItems(entries []string) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{Entry: e})
	}
	return items
}

// PathItems wraps discovered assembly paths.
func PathItems(paths []string) []Item {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		items = append(items, Item{Entry: p, Path: true})
	}
	return items
}

type Options struct {
	// Workers bounds how many items are in flight; zero means one.
	Workers int
	// Delay is waited by a worker between two items.
	Delay time.Duration
	// StagingDir is where the run's scratch directory is created; empty
	// means the system temp directory.
	StagingDir string
}

type Runner struct {
	Dialer archive.Dialer
	Engine *transfer.Engine
	Options
}

type job struct {
	index int
	item  Item
}

type result struct {
	index  int
	report *transfer.Report
	err    error
}

// Run processes items and returns the summary. Item failures are recorded
// in the summary and never stop the run. The error is set only when the
// staging directory cannot be created or ctx is cancelled; the summary is
// still returned in the latter case.
func (r *Runner) Run(ctx context.Context, items []Item) (*Summary, error) {
	sum := newSummary(uuid.New().String(), len(items))
	log.Infof("run %s: %d items", sum.RunID, len(items))

	staging, err := ioutil.TempDir(r.StagingDir, "genomexfer-"+sum.RunID+"-")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create staging directory")
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			log.Warnf("couldn't remove staging directory %s: %v", staging, err)
		}
	}()

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan job)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(ctx, staging, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for i, it := range items {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{index: i, item: it}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := make([]*result, len(items))
	for res := range results {
		res := res
		done[res.index] = &res
	}
	for i, res := range done {
		if res == nil {
			sum.NotStarted++
			continue
		}
		sum.add(items[i], res.report, res.err)
	}
	sum.Finished = time.Now().UTC()

	log.Infof("run %s: %d of %d items succeeded", sum.RunID, sum.Succeeded, sum.Total)
	return sum, ctx.Err()
}

func (r *Runner) work(ctx context.Context, staging string, jobs <-chan job, results chan<- result) {
	first := true
	for j := range jobs {
		if !first && r.Delay > 0 {
			t := time.NewTimer(r.Delay)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
		first = false

		if ctx.Err() != nil {
			// Leave it unstarted; the producer stops feeding on its own.
			continue
		}
		log.Infof("processing %s", j.item.Entry)
		report, err := r.one(ctx, staging, j.item)
		if err != nil {
			log.Errorf("%s: %v", j.item.Entry, err)
		}
		results <- result{index: j.index, report: report, err: err}
	}
}

// one handles a single item with its own session and staging directory.
func (r *Runner) one(ctx context.Context, staging string, it Item) (*transfer.Report, error) {
	sess, err := r.Dialer.Dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't connect to archive")
	}
	defer sess.Close()

	ref, err := resolve(ctx, sess, it)
	if err != nil {
		return nil, err
	}

	dir, err := ioutil.TempDir(staging, ref.Dir+"-")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create item staging directory")
	}
	defer os.RemoveAll(dir)

	return r.Engine.Transfer(ctx, sess, ref, dir)
}

func resolve(ctx context.Context, sess archive.Session, it Item) (accession.AssemblyRef, error) {
	if it.Path {
		return accession.ParseAssemblyPath(it.Entry)
	}
	acc, err := accession.Parse(it.Entry)
	if err != nil {
		return accession.AssemblyRef{}, err
	}
	name, err := archive.Locate(ctx, sess, acc.ShardPath(), acc.String())
	if err != nil {
		return accession.AssemblyRef{}, err
	}
	return accession.NewAssemblyRef(acc, name), nil
}

// DiscoverRoot turns a subtree prefix such as "GCF/000/001" into the
// archive path discovery starts from.
func DiscoverRoot(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	prefix = strings.TrimPrefix(prefix, strings.Trim(accession.ArchiveRoot, "/"))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return accession.ArchiveRoot
	}
	return accession.ArchiveRoot + prefix + "/"
}

// Discover lists every assembly path below prefix, at most limit of them
// when limit is positive.
func Discover(ctx context.Context, d archive.Dialer, prefix string, limit int) ([]string, error) {
	sess, err := d.Dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't connect to archive")
	}
	defer sess.Close()

	paths, err := archive.Discover(ctx, sess, DiscoverRoot(prefix))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, err
}
