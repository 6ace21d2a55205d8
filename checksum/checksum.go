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

// Package checksum reads the md5checksums.txt manifests the archive
// publishes next to every assembly and computes digests to compare with.
package checksum

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ManifestName is the name of the per-assembly checksum manifest.
const ManifestName = "md5checksums.txt"

// Ledger maps a file name to its published lowercase hex digest.
type Ledger map[string]string

// Parse reads "digest  ./path" lines. Lines with fewer than two fields are
// skipped; the manifest is advisory.
func Parse(content []byte) Ledger {
	ledger := make(Ledger)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		name := strings.TrimLeft(fields[1], "./")
		if name == "" {
			continue
		}
		ledger[name] = strings.ToLower(fields[0])
	}
	return ledger
}

// Lookup returns the digest published for name.
func (l Ledger) Lookup(name string) (string, bool) {
	sum, ok := l[name]
	return sum, ok
}

// Matches reports whether digest equals the published one, ignoring case.
func Matches(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

// File returns the MD5 digest and size of the file at path.
func File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errors.Wrapf(err, "couldn't open %s to checksum it", path)
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, errors.Wrapf(err, "couldn't read %s to checksum it", path)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Bytes returns the MD5 digest of b.
func Bytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
