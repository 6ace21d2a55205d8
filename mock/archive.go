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

// Package mock provides an in-memory genomes archive and object store. The
// archive can also be served over HTTP in the layout of the real index
// pages, which is what the mock-archive command does.
package mock

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cohere-llc/kbase-transfers/archive"
	"github.com/cohere-llc/kbase-transfers/checksum"
	"github.com/pkg/errors"
)

var _ archive.Dialer = (*Archive)(nil)

// Archive is a file tree keyed by absolute slash paths. Faults can be
// injected per path. It is safe for concurrent use.
type Archive struct {
	mu        sync.Mutex
	files     map[string][]byte
	dirs      map[string]bool
	corrupt   map[string]int
	failFetch map[string]int
	failList  map[string]bool
	fetches   map[string]int
	lists     map[string]int
	dials     int
}

// NewArchive returns an empty archive holding only the root directory.
func NewArchive() *Archive {
	return &Archive{
		files:     make(map[string][]byte),
		dirs:      map[string]bool{"/": true},
		corrupt:   make(map[string]int),
		failFetch: make(map[string]int),
		failList:  make(map[string]bool),
		fetches:   make(map[string]int),
		lists:     make(map[string]int),
	}
}

// LoadDir builds an archive from the files below root on disk. Paths in the
// archive are relative to root.
func LoadDir(root string) (*Archive, error) {
	a := NewArchive()
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = "/" + filepath.ToSlash(rel)
		if info.IsDir() {
			a.AddDir(rel)
			return nil
		}
		b, err := ioutil.ReadFile(p)
		if err != nil {
			return err
		}
		a.Add(rel, b)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't load archive from %s", root)
	}
	return a, nil
}

func clean(p string) string {
	return path.Clean("/" + p)
}

// Add stores a file, creating its parent directories.
func (a *Archive) Add(p string, content []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p = clean(p)
	a.files[p] = content
	a.addParents(p)
}

// AddDir creates an empty directory and its parents.
func (a *Archive) AddDir(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p = clean(p)
	a.dirs[p] = true
	a.addParents(p)
}

func (a *Archive) addParents(p string) {
	for d := path.Dir(p); ; d = path.Dir(d) {
		a.dirs[d] = true
		if d == "/" {
			return
		}
	}
}

// Content returns the file stored at p.
func (a *Archive) Content(p string) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.files[clean(p)]
	return b, ok
}

// Corrupt makes the next n retrievals of p deliver altered bytes. A
// negative n corrupts every retrieval.
func (a *Archive) Corrupt(p string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.corrupt[clean(p)] = n
}

// FailFetch makes the next n retrievals of p fail outright.
func (a *Archive) FailFetch(p string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failFetch[clean(p)] = n
}

// FailList makes every listing of dir fail.
func (a *Archive) FailList(dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failList[clean(dir)] = true
}

// Fetches reports how many times p was retrieved.
func (a *Archive) Fetches(p string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches[clean(p)]
}

// Lists reports how many times dir was listed.
func (a *Archive) Lists(dir string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lists[clean(dir)]
}

// Dials reports how many sessions were opened.
func (a *Archive) Dials() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dials
}

// Dial opens a session on the archive.
func (a *Archive) Dial(ctx context.Context) (archive.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.dials++
	a.mu.Unlock()
	return &session{a: a}, nil
}

func (a *Archive) list(dir string) ([]archive.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	dir = clean(dir)
	a.lists[dir]++
	if a.failList[dir] {
		return nil, errors.Errorf("550 listing of %s refused", dir)
	}
	if !a.dirs[dir] {
		return nil, errors.Errorf("550 %s: no such directory", dir)
	}
	prefix := strings.TrimSuffix(dir, "/") + "/"
	seen := make(map[string]bool)
	var entries []archive.Entry
	for d := range a.dirs {
		if d != dir && path.Dir(d) == dir && !seen[d] {
			seen[d] = true
			entries = append(entries, archive.Entry{Name: strings.TrimPrefix(d, prefix), Dir: true})
		}
	}
	for f, b := range a.files {
		if path.Dir(f) == dir && !seen[f] {
			seen[f] = true
			entries = append(entries, archive.Entry{Name: strings.TrimPrefix(f, prefix), Size: uint64(len(b))})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (a *Archive) fetch(p string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p = clean(p)
	a.fetches[p]++
	if n := a.failFetch[p]; n > 0 {
		a.failFetch[p] = n - 1
		return nil, errors.Errorf("426 transfer of %s aborted", p)
	}
	b, ok := a.files[p]
	if !ok {
		return nil, errors.Errorf("550 %s: no such file", p)
	}
	if n := a.corrupt[p]; n != 0 {
		if n > 0 {
			a.corrupt[p] = n - 1
		}
		return append(append([]byte{}, b...), "corrupted"...), nil
	}
	return b, nil
}

type session struct {
	a      *Archive
	closed bool
}

func (s *session) check(ctx context.Context) error {
	if s.closed {
		return errors.New("session closed")
	}
	return ctx.Err()
}

func (s *session) List(ctx context.Context, dir string) ([]archive.Entry, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.a.list(dir)
}

func (s *session) NameList(ctx context.Context, dir string) ([]string, error) {
	entries, err := s.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (s *session) RetrieveText(ctx context.Context, file string) ([]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return s.a.fetch(file)
}

func (s *session) Retrieve(ctx context.Context, file, localPath string) (int64, error) {
	if err := s.check(ctx); err != nil {
		return 0, err
	}
	b, err := s.a.fetch(file)
	if err != nil {
		return 0, err
	}
	if err := ioutil.WriteFile(localPath, b, 0644); err != nil {
		return 0, errors.Wrapf(err, "couldn't write %s", localPath)
	}
	return int64(len(b)), nil
}

func (s *session) Close() error {
	s.closed = true
	return nil
}

// AddAssembly stores files in the assembly directory at dir together with
// an md5checksums.txt listing all of them.
func (a *Archive) AddAssembly(dir string, files map[string][]byte) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var manifest strings.Builder
	for _, name := range names {
		a.Add(path.Join(dir, name), files[name])
		fmt.Fprintf(&manifest, "%s  ./%s\n", checksum.Bytes(files[name]), name)
	}
	a.Add(path.Join(dir, checksum.ManifestName), []byte(manifest.String()))
}
