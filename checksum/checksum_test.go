package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	content := []byte(`d41d8cd98f00b204e9800998ecf8427e  ./GCA_000195005.1_ASM19500v1_genomic.fna.gz
ABCDEF0123456789ABCDEF0123456789	./GCA_000195005.1_ASM19500v1_genomic.gff.gz

garbage
0123456789abcdef0123456789abcdef  ./GCA_000195005.1_ASM19500v1_assembly_structure/Primary_Assembly/assembled_chromosomes/chr2acc
  11111111111111111111111111111111     annotation_hashes.txt   
`)
	ledger := Parse(content)

	tests := map[string]string{
		"GCA_000195005.1_ASM19500v1_genomic.fna.gz": "d41d8cd98f00b204e9800998ecf8427e",
		"GCA_000195005.1_ASM19500v1_genomic.gff.gz": "abcdef0123456789abcdef0123456789",
		"annotation_hashes.txt":                     "11111111111111111111111111111111",
		"GCA_000195005.1_ASM19500v1_assembly_structure/Primary_Assembly/assembled_chromosomes/chr2acc": "0123456789abcdef0123456789abcdef",
	}
	if len(ledger) != len(tests) {
		t.Fatalf("expected %d entries, got %d: %v", len(tests), len(ledger), ledger)
	}
	for name, want := range tests {
		got, ok := ledger.Lookup(name)
		if !ok {
			t.Errorf("missing %s", name)
			continue
		}
		if got != want {
			t.Errorf("%s = %s, want %s", name, got, want)
		}
	}
	if _, ok := ledger.Lookup("garbage"); ok {
		t.Error("single-field line should be skipped")
	}
}

func TestParseEmpty(t *testing.T) {
	if l := Parse(nil); len(l) != 0 {
		t.Errorf("expected empty ledger, got %v", l)
	}
}

func TestFileAndBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("Hello, MinIO!"), 0644); err != nil {
		t.Fatal(err)
	}
	sum, n, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if n != 13 {
		t.Errorf("size = %d, want 13", n)
	}
	if sum != Bytes([]byte("Hello, MinIO!")) {
		t.Errorf("File and Bytes disagree: %s vs %s", sum, Bytes([]byte("Hello, MinIO!")))
	}
	if Bytes(nil) != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("unexpected empty digest %s", Bytes(nil))
	}
	if !Matches("ABC", "abc") {
		t.Error("Matches should ignore case")
	}
}

func TestFileMissing(t *testing.T) {
	if _, _, err := File(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
