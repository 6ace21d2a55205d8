// Modifications Copyright 2018 The MITRE Corporation
// Authors: Matthew Bianchi
//
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

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
)

func prettyPrintError(err error) {
	fprettyPrintError(os.Stderr, err)
}

func fprettyPrintError(w io.Writer, err error) {
	log.Debug(err)
	msg := err.Error()

	switch {
	// Destination errors
	case errors.Cause(err) == store.ErrBucketNotFound:
		fmt.Fprintln(w, "Bucket not found: the destination bucket does not exist. genomexfer never creates buckets, so ask whoever runs the object store to create it or pick another one with --bucket.")
	case errors.Cause(err) == store.ErrPrefixNotFound:
		fmt.Fprintln(w, "Prefix not found: nothing exists under the destination prefix. This usually means --store-prefix has a typo. Check it against the bucket's contents before trying again.")
	case strings.Contains(msg, "couldn't check bucket") || strings.Contains(msg, "couldn't list"):
		fmt.Fprintln(w, "Object store unreachable: genomexfer could not talk to the object store. Check --endpoint and the credentials, or run with debug enabled for a more detailed error message.")

	// Accession errors
	case msg == "no accessions provided":
		fmt.Fprintln(w, "No accessions provided: give genomexfer either a file of accessions or a --prefix to discover assemblies under.")
	case strings.Contains(msg, "couldn't open accession list file"):
		fmt.Fprintln(w, "Bad accession file or path: genomexfer could not open the accession file at the path specified. Make sure the path leads to a valid file and that you have permissions to read it. If you do and you're still getting this message, run with debug enabled for a more detailed error message.")
	case strings.Contains(msg, "accession list file was empty"):
		fmt.Fprintln(w, "Bad accession file: the file seems empty. Accessions can be separated by newlines, tabs, commas or spaces.")
	case strings.Contains(msg, "no assemblies discovered"):
		fmt.Fprintln(w, "Nothing discovered: no assembly directories were found under the given prefix. Check the prefix, e.g. GCF/000/001.")

	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
