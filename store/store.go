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

// Package store describes the object store replicated assemblies are
// written to and how its connection settings are resolved.
package store

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrBucketNotFound means the destination bucket does not exist.
	// Buckets are never created by this tool.
	ErrBucketNotFound = errors.New("bucket does not exist")
	// ErrPrefixNotFound means nothing exists under the destination prefix.
	ErrPrefixNotFound = errors.New("prefix does not exist")
)

// ObjectStore is the bucket+key namespace files are replicated into.
// Implementations must not leave a partially written object behind when ctx
// is cancelled during Upload.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Upload(ctx context.Context, bucket, key, localPath string) error
	Download(ctx context.Context, bucket, key, localPath string) error
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// Any reports whether at least one key starts with prefix. It reads at
	// most one listing page.
	Any(ctx context.Context, bucket, prefix string) (bool, error)
}

// CheckDestination verifies that bucket exists and that prefix already has
// at least one object under it.
func CheckDestination(ctx context.Context, s ObjectStore, bucket, prefix string) error {
	ok, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrapf(err, "couldn't check bucket %s", bucket)
	}
	if !ok {
		return errors.Wrapf(ErrBucketNotFound, "bucket %s", bucket)
	}
	found, err := s.Any(ctx, bucket, prefix)
	if err != nil {
		return errors.Wrapf(err, "couldn't list %s/%s", bucket, prefix)
	}
	if !found {
		return errors.Wrapf(ErrPrefixNotFound, "prefix %s in bucket %s", prefix, bucket)
	}
	return nil
}

// Join appends rel to prefix, inserting a separator when prefix lacks one.
func Join(prefix, rel string) string {
	if prefix == "" {
		return rel
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + strings.TrimPrefix(rel, "/")
}
