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

// Package archive reads the NCBI genomes/all tree. Sessions never keep a
// current directory: every call takes a fully-qualified path, so a session
// can be retried or discarded at any point.
package archive

import (
	"context"
	"path"
	"strings"

	"github.com/cohere-llc/kbase-transfers/logging"
)

var log = logging.GetLogger("archive")

// Entry is one line of a directory listing.
type Entry struct {
	Name string
	Dir  bool
	Size uint64
}

// Session is an open connection to the archive.
type Session interface {
	// List returns the entries of dir.
	List(ctx context.Context, dir string) ([]Entry, error)
	// NameList returns the bare names in dir.
	NameList(ctx context.Context, dir string) ([]string, error)
	// RetrieveText reads a small file fully into memory.
	RetrieveText(ctx context.Context, file string) ([]byte, error)
	// Retrieve copies file to localPath, replacing it, and returns the byte count.
	Retrieve(ctx context.Context, file, localPath string) (int64, error)
	Close() error
}

// Dialer opens sessions. Sessions are not safe for concurrent use, so every
// worker dials its own.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// DirPath makes sure p ends with a separator.
func DirPath(p string) string {
	if !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}

func baseName(name string) string {
	return path.Base(strings.TrimSuffix(name, "/"))
}
