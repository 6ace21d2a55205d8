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

package mock

import (
	"context"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
)

var _ store.ObjectStore = (*Store)(nil)

// Store is an in-memory object store that counts the calls made to it.
type Store struct {
	mu         sync.Mutex
	buckets    map[string]map[string][]byte
	failUpload map[string]int
	failExists map[string]bool
	uploads    int
	downloads  int
}

// NewStore returns a store holding the named, empty buckets.
func NewStore(buckets ...string) *Store {
	s := &Store{
		buckets:    make(map[string]map[string][]byte),
		failUpload: make(map[string]int),
		failExists: make(map[string]bool),
	}
	for _, b := range buckets {
		s.buckets[b] = make(map[string][]byte)
	}
	return s
}

// Put writes an object directly, without counting an upload.
func (s *Store) Put(bucket, key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] == nil {
		s.buckets[bucket] = make(map[string][]byte)
	}
	s.buckets[bucket][key] = content
}

// Get reads an object directly.
func (s *Store) Get(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket][key]
	return b, ok
}

// Keys returns every key in bucket, sorted.
func (s *Store) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys(bucket, "")
}

// FailUploads makes the next n uploads of key fail.
func (s *Store) FailUploads(key string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpload[key] = n
}

// FailExists makes every existence check of key fail.
func (s *Store) FailExists(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failExists[key] = true
}

// Uploads reports how many uploads succeeded.
func (s *Store) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// Downloads reports how many downloads succeeded.
func (s *Store) Downloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloads
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.buckets[bucket]
	return ok, nil
}

func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failExists[key] {
		return false, errors.Errorf("503 head %s/%s: service unavailable", bucket, key)
	}
	_, ok := s.buckets[bucket][key]
	return ok, nil
}

func (s *Store) Upload(ctx context.Context, bucket, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := ioutil.ReadFile(localPath)
	if err != nil {
		return errors.Wrapf(err, "couldn't read %s", localPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.failUpload[key]; n > 0 {
		s.failUpload[key] = n - 1
		return errors.Errorf("500 put %s/%s: internal error", bucket, key)
	}
	if s.buckets[bucket] == nil {
		return errors.Errorf("bucket %s does not exist", bucket)
	}
	s.buckets[bucket][key] = b
	s.uploads++
	return nil
}

func (s *Store) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	b, ok := s.buckets[bucket][key]
	if ok {
		s.downloads++
	}
	s.mu.Unlock()
	if !ok {
		return errors.Errorf("404 get %s/%s: no such key", bucket, key)
	}
	return errors.Wrapf(ioutil.WriteFile(localPath, b, 0644), "couldn't write %s", localPath)
}

func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buckets[bucket] == nil {
		return nil, errors.Errorf("bucket %s does not exist", bucket)
	}
	return s.keys(bucket, prefix), nil
}

func (s *Store) Any(ctx context.Context, bucket, prefix string) (bool, error) {
	keys, err := s.List(ctx, bucket, prefix)
	return len(keys) > 0, err
}

func (s *Store) keys(bucket, prefix string) []string {
	var keys []string
	for k := range s.buckets[bucket] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
