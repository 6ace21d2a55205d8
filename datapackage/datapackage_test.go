package datapackage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
)

var created = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestNewPreservesResources(t *testing.T) {
	files := []File{
		{Name: "a.fna.gz", Bytes: 100, Digest: "abc"},
		{Name: "a.gff.gz", Bytes: 50, Digest: "def"},
	}
	pkg, err := New("GCA_000195005.1_ASM19500v1", "GCA_000195005.1", files, created)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(pkg.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(pkg.Resources))
	}
	want := []struct {
		name, format string
		bytes        int64
		hash         string
	}{
		{"a.fna.gz", "gz", 100, "abc"},
		{"a.gff.gz", "gz", 50, "def"},
	}
	for i, w := range want {
		r := pkg.Resources[i]
		if r.Name != w.name || r.Path != w.name || r.Format != w.format || r.Bytes != w.bytes {
			t.Errorf("resource %d = %+v, want %+v", i, r, w)
		}
		if r.Hash == nil || *r.Hash != w.hash {
			t.Errorf("resource %d hash = %v, want %s", i, r.Hash, w.hash)
		}
	}
}

func TestNewIdentity(t *testing.T) {
	pkg, err := New("GCA_000195005.1_ASM19500v1", "GCA_000195005.1", []File{{Name: "x_assembly_report.txt", Bytes: 1}}, created)
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Name != "gca-000195005-1-asm19500v1" {
		t.Errorf("name = %s", pkg.Name)
	}
	if pkg.Title != "NCBI Genome Assembly GCA_000195005.1_ASM19500v1" {
		t.Errorf("title = %s", pkg.Title)
	}
	if pkg.Homepage != "https://www.ncbi.nlm.nih.gov/datasets/genome/GCA_000195005.1/" {
		t.Errorf("homepage = %s", pkg.Homepage)
	}
	if pkg.Version != "1" {
		t.Errorf("version = %s", pkg.Version)
	}
	if pkg.Created != "2026-10-16T12:00:00Z" {
		t.Errorf("created = %s", pkg.Created)
	}
	if len(pkg.Citations) != 1 || pkg.Citations[0].DOI != "10.1038/s41597-024-03571-y" {
		t.Errorf("unexpected citations %+v", pkg.Citations)
	}
	if pkg.Resources[0].Format != "txt" {
		t.Errorf("format = %s", pkg.Resources[0].Format)
	}
}

func TestNewEmptyFails(t *testing.T) {
	_, err := New("GCA_000195005.1_ASM19500v1", "GCA_000195005.1", nil, created)
	if errors.Cause(err) != ErrNoResources {
		t.Fatalf("expected ErrNoResources, got %v", err)
	}
}

func TestMarshalNullHash(t *testing.T) {
	pkg, err := New("GCF_000001215.2_Release_5", "GCF_000001215.2", []File{{Name: "README", Bytes: 7}}, created)
	if err != nil {
		t.Fatal(err)
	}
	b, err := pkg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Resources []map[string]interface{} `json:"resources"`
		Licenses  []interface{}            `json:"licenses"`
	}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	r := decoded.Resources[0]
	if v, ok := r["hash"]; !ok || v != nil {
		t.Errorf("expected explicit null hash, got %v (present=%v)", v, ok)
	}
	if r["format"] != "unknown" {
		t.Errorf("format = %v", r["format"])
	}
	if decoded.Licenses == nil {
		t.Error("licenses should encode as an empty list")
	}
}

func TestNewIsDeterministic(t *testing.T) {
	files := []File{{Name: "a.fna.gz", Bytes: 1, Digest: "x"}}
	a, _ := New("GCA_000195005.1_ASM19500v1", "GCA_000195005.1", files, created)
	b, _ := New("GCA_000195005.1_ASM19500v1", "GCA_000195005.1", files, created)
	ab, _ := a.Marshal()
	bb, _ := b.Marshal()
	if string(ab) != string(bb) {
		t.Error("same inputs produced different descriptors")
	}
}
