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

// Package datapackage builds the frictionless data package descriptor that
// is stored next to every replicated assembly.
package datapackage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FileName is the key the descriptor is stored under.
const FileName = "datapackage.json"

// ErrNoResources is returned when asked to describe zero files.
var ErrNoResources = errors.New("data package needs at least one resource")

// File is one successfully stored file. Digest is empty when unknown.
type File struct {
	Name   string
	Bytes  int64
	Digest string
}

type Package struct {
	Profile      string        `json:"profile"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Homepage     string        `json:"homepage"`
	Version      string        `json:"version"`
	Created      string        `json:"created"`
	Licenses     []License     `json:"licenses"`
	Sources      []Source      `json:"sources"`
	Contributors []Contributor `json:"contributors"`
	Citations    []Citation    `json:"citations"`
	Resources    []Resource    `json:"resources"`
}

type License struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

type Source struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type Contributor struct {
	Title        string `json:"title"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

type Citation struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Journal string `json:"journal"`
	Year    string `json:"year"`
	Volume  string `json:"volume"`
	Issue   string `json:"issue"`
	Pages   string `json:"pages"`
	DOI     string `json:"doi"`
	PMID    string `json:"pmid"`
	PMCID   string `json:"pmcid"`
}

// Resource describes one stored file. Hash is null when no digest was
// published for it.
type Resource struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Format string  `json:"format"`
	Bytes  int64   `json:"bytes"`
	Hash   *string `json:"hash"`
}

var (
	sources = []Source{{
		Title: "NCBI Genomes FTP",
		Path:  "ftp.ncbi.nlm.nih.gov/genomes/all/",
	}}
	contributors = []Contributor{{
		Title:        "NCBI Datasets Team",
		Role:         "author",
		Organization: "National Center for Biotechnology Information",
	}}
	citations = []Citation{{
		Title:   "Exploring and retrieving sequence and metadata for species across the tree of life with NCBI Datasets",
		Authors: "O'Leary NA, Cox E, Holmes JB, Anderson WR, Falk R, Hem V, Tsuchiya MTN, Schuler GD, Zhang X, Torcivia J, Ketter A, Breen L, Cothran J, Bajwa H, Tinne J, Meric PA, Hlavina W, Schneider VA",
		Journal: "Sci Data",
		Year:    "2024",
		Volume:  "11",
		Issue:   "1",
		Pages:   "732",
		DOI:     "10.1038/s41597-024-03571-y",
		PMID:    "38969627",
		PMCID:   "PMC11226681",
	}}
)

// New describes the files stored for one assembly directory. The output
// depends only on its arguments.
func New(assemblyDir, accession string, files []File, created time.Time) (*Package, error) {
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrNoResources, "assembly %s", assemblyDir)
	}

	resources := make([]Resource, 0, len(files))
	for _, f := range files {
		r := Resource{
			Name:   f.Name,
			Path:   f.Name,
			Format: format(f.Name),
			Bytes:  f.Bytes,
		}
		if f.Digest != "" {
			digest := f.Digest
			r.Hash = &digest
		}
		resources = append(resources, r)
	}

	return &Package{
		Profile:      "tabular-data-package",
		Name:         strings.NewReplacer(".", "-", "_", "-").Replace(strings.ToLower(assemblyDir)),
		Title:        fmt.Sprintf("NCBI Genome Assembly %s", assemblyDir),
		Description:  fmt.Sprintf("Genome assembly files for %s downloaded from NCBI Datasets", accession),
		Homepage:     fmt.Sprintf("https://www.ncbi.nlm.nih.gov/datasets/genome/%s/", accession),
		Version:      version(accession),
		Created:      created.Format(time.RFC3339),
		Licenses:     []License{},
		Sources:      append([]Source(nil), sources...),
		Contributors: append([]Contributor(nil), contributors...),
		Citations:    append([]Citation(nil), citations...),
		Resources:    resources,
	}, nil
}

// Marshal renders the descriptor as indented JSON.
func (p *Package) Marshal() ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encode data package")
	}
	return b, nil
}

func format(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return "unknown"
	}
	return name[i+1:]
}

func version(accession string) string {
	i := strings.LastIndex(accession, ".")
	if i < 0 {
		return accession
	}
	return accession[i+1:]
}
