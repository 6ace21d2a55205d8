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

// Package accession parses NCBI genome assembly accessions and derives
// the sharded directory layout the genomes/all archive uses for them.
package accession

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Database is the assembly database code.
type Database string

// Registry is the optional source registry prefix some accession lists carry.
type Registry string

const (
	GCA Database = "GCA"
	GCF Database = "GCF"

	GenBank Registry = "GB"
	RefSeq  Registry = "RS"

	// ArchiveRoot is where every assembly lives on the archive.
	ArchiveRoot = "/genomes/all/"
	// StoreRoot is the store-side root below the configured prefix.
	StoreRoot = "raw_data/"

	numericLen = 9
)

var (
	// ErrMalformedAccession is returned when an entry matches neither grammar.
	ErrMalformedAccession = errors.New("malformed accession")
	// ErrUnparseableAccession is returned when the numeric id or version
	// cannot be turned into a shard path.
	ErrUnparseableAccession = errors.New("unparseable accession")

	registryForm   = regexp.MustCompile(`^(GB|RS)_(GC[AF])_(\d+)\.(\d+)`)
	bareForm       = regexp.MustCompile(`^(GC[AF])_(\d+)\.(\d+)`)
	assemblyDir    = regexp.MustCompile(`^GC[AF]_\d{9}\.\d+_.+`)
	assemblyInTree = regexp.MustCompile(`/(GC[AF])/(\d{3})/(\d{3})/(\d{3})/((GC[AF]_\d{9}\.\d+)_[^/]+)/?$`)
)

// Accession identifies one version of one genome assembly.
type Accession struct {
	Registry  Registry
	Database  Database
	NumericID string
	Version   int
}

// Parse reads either GB_GCA_000195005.1 or GCA_000195005.1. Anything after
// the version is ignored.
func Parse(entry string) (Accession, error) {
	entry = strings.TrimSpace(entry)

	var reg, db, num, ver string
	if m := registryForm.FindStringSubmatch(entry); m != nil {
		reg, db, num, ver = m[1], m[2], m[3], m[4]
	} else if m := bareForm.FindStringSubmatch(entry); m != nil {
		db, num, ver = m[1], m[2], m[3]
	} else {
		return Accession{}, errors.Wrapf(ErrMalformedAccession, "%q", entry)
	}

	if len(num) != numericLen {
		return Accession{}, errors.Wrapf(ErrUnparseableAccession, "%q: numeric id must have %d digits", entry, numericLen)
	}
	version, err := strconv.Atoi(ver)
	if err != nil || version < 1 {
		return Accession{}, errors.Wrapf(ErrUnparseableAccession, "%q: version must be a positive integer", entry)
	}

	return Accession{
		Registry:  Registry(reg),
		Database:  Database(db),
		NumericID: num,
		Version:   version,
	}, nil
}

// String returns the canonical form, e.g. GCA_000195005.1.
func (a Accession) String() string {
	return fmt.Sprintf("%s_%s.%d", a.Database, a.NumericID, a.Version)
}

// Shards splits the numeric id into its three directory levels.
func (a Accession) Shards() [3]string {
	return [3]string{a.NumericID[0:3], a.NumericID[3:6], a.NumericID[6:9]}
}

// ShardPath is the archive directory holding every version of the assembly,
// e.g. /genomes/all/GCA/000/195/005/.
func (a Accession) ShardPath() string {
	s := a.Shards()
	return fmt.Sprintf("%s%s/%s/%s/%s/", ArchiveRoot, a.Database, s[0], s[1], s[2])
}

// IsAssemblyDir reports whether a directory name looks like an assembly
// directory (accession plus free text suffix).
func IsAssemblyDir(name string) bool {
	return assemblyDir.MatchString(name)
}

// AssemblyRef is a located assembly directory.
type AssemblyRef struct {
	Accession Accession
	ShardPath string
	Dir       string
}

// NewAssemblyRef ties a located directory name to its accession.
func NewAssemblyRef(acc Accession, dir string) AssemblyRef {
	return AssemblyRef{Accession: acc, ShardPath: acc.ShardPath(), Dir: dir}
}

// RemotePath is the fully-qualified archive path of the assembly directory.
func (r AssemblyRef) RemotePath() string {
	return r.ShardPath + r.Dir + "/"
}

// StorePath is the key prefix, relative to the store prefix, that holds the
// assembly's files, e.g. raw_data/GCA/000/195/005/GCA_000195005.1_ASM19500v1/.
func (r AssemblyRef) StorePath() string {
	s := r.Accession.Shards()
	return fmt.Sprintf("%s%s/%s/%s/%s/%s/", StoreRoot, r.Accession.Database, s[0], s[1], s[2], r.Dir)
}

// ParseAssemblyPath turns a discovered archive path such as
// /genomes/all/GCF/000/001/215/GCF_000001215.2_Release_5/ into a ref.
func ParseAssemblyPath(p string) (AssemblyRef, error) {
	m := assemblyInTree.FindStringSubmatch(p)
	if m == nil {
		return AssemblyRef{}, errors.Wrapf(ErrMalformedAccession, "cannot parse assembly path %q", p)
	}
	acc, err := Parse(m[6])
	if err != nil {
		return AssemblyRef{}, err
	}
	if string(acc.Database) != m[1] || acc.NumericID != m[2]+m[3]+m[4] {
		return AssemblyRef{}, errors.Wrapf(ErrUnparseableAccession, "assembly %s is not under its shard in %q", acc, p)
	}
	ref := AssemblyRef{Accession: acc, Dir: m[5]}
	ref.ShardPath = strings.TrimSuffix(strings.TrimSuffix(p, "/"), m[5])
	return ref, nil
}
