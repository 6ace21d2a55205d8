package cmd

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cohere-llc/kbase-transfers/flags"
	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
)

func TestPrettyPrintError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.Wrapf(store.ErrBucketNotFound, "bucket %s", "cdm-lake"), "Bucket not found"},
		{errors.Wrapf(store.ErrPrefixNotFound, "prefix %s", "ncbi/"), "Prefix not found"},
		{errors.New("no accessions provided"), "No accessions provided"},
		{errors.Wrap(errors.New("open x: no such file"), "couldn't open accession list file at: x"), "Bad accession file or path"},
		{errors.New("something else"), "Error: something else"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		fprettyPrintError(&buf, tt.err)
		if !strings.HasPrefix(buf.String(), tt.want) {
			t.Errorf("%v printed %q, want prefix %q", tt.err, buf.String(), tt.want)
		}
	}
}

func TestWriteAccessionList(t *testing.T) {
	out := filepath.Join(t.TempDir(), "accessions.txt")
	paths := []string{
		"/genomes/all/GCF/000/001/215/GCF_000001215.4_Release_6_plus_ISO1_MT/",
		"/genomes/all/not/an/assembly/",
		"/genomes/all/GCA/000/195/005/GCA_000195005.1_ASM19500v1/",
	}
	if err := writeAccessionList(out, paths); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if want := "GCF_000001215.4\nGCA_000195005.1\n"; string(b) != want {
		t.Fatalf("wrote %q, want %q", b, want)
	}
}

func execute(args ...string) (string, error) {
	flags.Prefix, flags.OutputList = "", ""
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestTransferArguments(t *testing.T) {
	if _, err := execute("transfer"); err == nil || err.Error() != "no accessions provided" {
		t.Errorf("no input: got %v", err)
	}
	if _, err := execute("transfer", "list.txt", "--prefix", "GCF"); err == nil || !strings.Contains(err.Error(), "not both") {
		t.Errorf("both inputs: got %v", err)
	}
	if _, err := execute("transfer", "list.txt", "--output-list", "out.txt"); err == nil || !strings.Contains(err.Error(), "--output-list") {
		t.Errorf("output list without prefix: got %v", err)
	}
	if _, err := execute("discover"); err == nil || !strings.Contains(err.Error(), "--prefix") {
		t.Errorf("discover without prefix: got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "genomexfer -- ") {
		t.Errorf("version printed %q", out)
	}
}
