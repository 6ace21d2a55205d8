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
	"context"
	"fmt"
	"time"

	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/archive"
	"github.com/cohere-llc/kbase-transfers/checksum"
	"github.com/pkg/errors"
)

type state int

const (
	statePending state = iota
	stateFetching
	stateVerifying
	stateRetrying
	stateUploading
	stateUploaded
	stateFailed
)

var stateNames = [...]string{"pending", "fetching", "verifying", "retrying", "uploading", "uploaded", "failed"}

func (s state) String() string {
	return stateNames[s]
}

// file is the state of one target file. The staging path is reused by
// every attempt, so a file is only ever driven by one goroutine.
type file struct {
	name     string
	local    string
	expected string
	known    bool

	state   state
	attempt int
	actual  string
	size    int64
	err     error
}

func (f *file) to(s state) {
	log.Debugf("%s: %s -> %s (attempt %d)", f.name, f.state, s, f.attempt)
	f.state = s
}

func (f *file) outcome(status Status) Outcome {
	o := Outcome{Filename: f.name, Status: status, Attempts: f.attempt}
	if status != Failed {
		o.Bytes = f.size
		if f.known {
			o.Digest = f.actual
		}
	}
	return o
}

// process runs the per file state machine:
//
//	pending -> fetching -> verifying -> uploading -> uploaded
//	               ^                        |
//	               +------- retrying <------+-> failed
func (e *Engine) process(ctx context.Context, sess archive.Session, ref accession.AssemblyRef, f *file) Outcome {
	key := e.Key(ref, f.name)

	exists, err := e.Store.Exists(ctx, e.Bucket, key)
	if err != nil {
		o := f.outcome(Failed)
		o.Reason = fmt.Sprintf("couldn't check %s in store: %v", key, err)
		return o
	}
	if exists {
		if !f.known {
			return f.outcome(SkippedUnverifiable)
		}
		if e.storedMatches(ctx, key, f) {
			return f.outcome(SkippedVerified)
		}
	}

	f.to(stateFetching)
	for {
		switch f.state {
		case stateFetching:
			f.attempt++
			log.Debugf("fetching %s (attempt %d/%d)", f.name, f.attempt, e.attempts())
			n, err := sess.Retrieve(ctx, ref.RemotePath()+f.name, f.local)
			if err != nil {
				f.err = err
				f.to(stateRetrying)
				continue
			}
			f.size = n
			f.to(stateVerifying)

		case stateVerifying:
			if !f.known {
				log.Warnf("%s: no published checksum, storing unverified", f.name)
				f.to(stateUploading)
				continue
			}
			sum, size, err := checksum.File(f.local)
			if err != nil {
				f.err = err
				f.to(stateRetrying)
				continue
			}
			f.actual, f.size = sum, size
			if !checksum.Matches(f.expected, sum) {
				log.Warnf("%s: checksum mismatch: expected %s, got %s", f.name, f.expected, sum)
				f.err = ErrChecksumMismatch
				f.to(stateRetrying)
				continue
			}
			f.to(stateUploading)

		case stateUploading:
			if err := e.Store.Upload(ctx, e.Bucket, key, f.local); err != nil {
				f.err = err
				f.to(stateRetrying)
				continue
			}
			f.to(stateUploaded)

		case stateRetrying:
			if ctx.Err() != nil || f.attempt >= e.attempts() {
				f.to(stateFailed)
				continue
			}
			if err := wait(ctx, e.RetryDelay); err != nil {
				f.to(stateFailed)
				continue
			}
			f.to(stateFetching)

		case stateUploaded:
			if f.known {
				return f.outcome(UploadedVerified)
			}
			return f.outcome(UploadedUnverifiable)

		case stateFailed:
			o := f.outcome(Failed)
			o.Reason = f.reason(ctx)
			return o

		default:
			panic(fmt.Sprintf("transfer: unexpected state %s", f.state))
		}
	}
}

func (f *file) reason(ctx context.Context) string {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("cancelled after %d attempts: %v", f.attempt, err)
	}
	if errors.Cause(f.err) == ErrChecksumMismatch {
		return fmt.Sprintf("checksum mismatch after %d attempts (expected %s, got %s)", f.attempt, f.expected, f.actual)
	}
	return fmt.Sprintf("%v after %d attempts: %v", ErrTransferIO, f.attempt, f.err)
}

// storedMatches downloads the stored copy and compares it to the published
// digest. Any failure to read it counts as a mismatch.
func (e *Engine) storedMatches(ctx context.Context, key string, f *file) bool {
	if err := e.Store.Download(ctx, e.Bucket, key, f.local); err != nil {
		log.Warnf("%s: couldn't read stored copy, fetching again: %v", f.name, err)
		return false
	}
	sum, size, err := checksum.File(f.local)
	if err != nil {
		log.Warnf("%s: couldn't checksum stored copy, fetching again: %v", f.name, err)
		return false
	}
	if !checksum.Matches(f.expected, sum) {
		log.Warnf("%s: stored copy does not match: expected %s, got %s", f.name, f.expected, sum)
		return false
	}
	f.actual, f.size = sum, size
	return true
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
