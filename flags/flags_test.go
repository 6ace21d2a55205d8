package flags

import (
	"io/ioutil"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSplitAccessions(t *testing.T) {
	raw := "GCA_000195005.1\nGB_GCA_000001405.29,GCF_000001215.4\tGCA_000195005.1 \r\n\nRS_GCF_000005845.2"
	want := []string{"GCA_000195005.1", "GB_GCA_000001405.29", "GCF_000001215.4", "RS_GCF_000005845.2"}
	if got := SplitAccessions(raw); !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitAccessions = %v, want %v", got, want)
	}
}

func TestResolveAccession(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "accessions.txt")
	if err := ioutil.WriteFile(list, []byte("GCF_000001215.4\nGCA_000195005.1\nGCF_000001215.4\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ResolveAccession(list)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"GCF_000001215.4", "GCA_000195005.1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveAccession = %v, want %v", got, want)
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := ioutil.WriteFile(empty, []byte("\n \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveAccession(empty); err == nil {
		t.Error("expected an error for an empty list")
	}
	if _, err := ResolveAccession(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestResolveFolding(t *testing.T) {
	defer viper.Reset()
	viper.Set("test-bucket", "other-lake")
	viper.Set("test-workers", 4)
	viper.Set("test-delay", "2s")

	bucket, workers, delay := "cdm-lake", 1, 500*time.Millisecond
	unset := "kept"
	ResolveString("test-bucket", &bucket)
	ResolveInt("test-workers", &workers)
	ResolveDuration("test-delay", &delay)
	ResolveString("test-unset", &unset)

	if bucket != "other-lake" || workers != 4 || delay != 2*time.Second || unset != "kept" {
		t.Fatalf("bucket %q workers %d delay %v unset %q", bucket, workers, delay, unset)
	}
}
