package runner_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"reflect"
	"strings"
	"testing"

	"github.com/cohere-llc/kbase-transfers/accession"
	"github.com/cohere-llc/kbase-transfers/mock"
	"github.com/cohere-llc/kbase-transfers/runner"
	"github.com/cohere-llc/kbase-transfers/transfer"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const bucket = "cdm-lake"

var assemblies = []string{
	"/genomes/all/GCA/000/195/005/GCA_000195005.1_ASM19500v1/",
	"/genomes/all/GCF/000/001/215/GCF_000001215.4_Release_6_plus_ISO1_MT/",
	"/genomes/all/GCF/000/001/405/GCF_000001405.40_GRCh38.p14/",
}

func newArchive() *mock.Archive {
	a := mock.NewArchive()
	for _, p := range assemblies {
		ref, err := accession.ParseAssemblyPath(p)
		if err != nil {
			panic(err)
		}
		a.AddAssembly(p, map[string][]byte{
			ref.Dir + "_genomic.fna.gz":      []byte(">" + ref.Dir + "\nACGT\n"),
			ref.Dir + "_assembly_report.txt": []byte("# " + ref.Dir + "\n"),
		})
	}
	return a
}

func newRunner(t *testing.T, a *mock.Archive, s *mock.Store, workers int) *runner.Runner {
	return &runner.Runner{
		Dialer: a,
		Engine: &transfer.Engine{Store: s, Bucket: bucket, Prefix: "ncbi/"},
		Options: runner.Options{
			Workers:    workers,
			StagingDir: t.TempDir(),
		},
	}
}

func assertStagingRemoved(t *testing.T, r *runner.Runner) {
	t.Helper()
	left, err := ioutil.ReadDir(r.StagingDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("staging directory not cleaned up: %d entries left", len(left))
	}
}

func TestRunAccessions(t *testing.T) {
	a := newArchive()
	s := mock.NewStore(bucket)
	r := newRunner(t, a, s, 1)

	items := runner.AccessionItems([]string{"GCA_000195005.1", "XX_12345", "RS_GCF_000001405.40", "GCA_000195005.3"})
	sum, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 4 || sum.Succeeded != 2 || len(sum.FailedItems) != 2 {
		t.Fatalf("summary %+v", sum)
	}
	if sum.FailedItems[0].Entry != "XX_12345" || !strings.Contains(sum.FailedItems[0].Reason, accession.ErrMalformedAccession.Error()) {
		t.Errorf("first failure %+v", sum.FailedItems[0])
	}
	if sum.FailedItems[1].Entry != "GCA_000195005.3" || !strings.Contains(sum.FailedItems[1].Reason, "assembly directory not found") {
		t.Errorf("second failure %+v", sum.FailedItems[1])
	}
	if n := sum.Files[transfer.UploadedVerified]; n != 4 {
		t.Errorf("uploaded_verified = %d, want 4", n)
	}
	if sum.RunID == "" {
		t.Error("no run id")
	}
	if a.Dials() != 4 {
		t.Errorf("dialed %d sessions, want one per item", a.Dials())
	}
	assertStagingRemoved(t, r)
}

func TestRunPathsInParallel(t *testing.T) {
	a := newArchive()
	a.Corrupt(assemblies[1]+"GCF_000001215.4_Release_6_plus_ISO1_MT_genomic.fna.gz", -1)
	a.FailList(assemblies[2])
	s := mock.NewStore(bucket)
	r := newRunner(t, a, s, 3)

	sum, err := r.Run(context.Background(), runner.PathItems(assemblies))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Succeeded != 2 || len(sum.FailedItems) != 1 || sum.FailedItems[0].Entry != assemblies[2] {
		t.Fatalf("summary %+v", sum)
	}
	if len(sum.FailedTransfers) != 1 {
		t.Fatalf("failed transfers %+v", sum.FailedTransfers)
	}
	ft := sum.FailedTransfers[0]
	if ft.Entry != assemblies[1] || !strings.HasPrefix(ft.Reason, "checksum mismatch after 3 attempts") {
		t.Errorf("failed transfer %+v", ft)
	}
	assertStagingRemoved(t, r)
}

func TestRunReportsManifestCopyFailure(t *testing.T) {
	a := newArchive()
	s := mock.NewStore(bucket)
	s.FailUploads("ncbi/raw_data/GCA/000/195/005/GCA_000195005.1_ASM19500v1/md5checksums.txt", 1)
	r := newRunner(t, a, s, 1)

	sum, err := r.Run(context.Background(), runner.PathItems(assemblies[:1]))
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.FailedTransfers) != 1 || sum.FailedTransfers[0].Entry != assemblies[0] || sum.FailedTransfers[0].Filename != "md5checksums.txt" {
		t.Fatalf("failed transfers %+v", sum.FailedTransfers)
	}
}

func TestRunSecondPassUploadsNothing(t *testing.T) {
	a := newArchive()
	s := mock.NewStore(bucket)
	r := newRunner(t, a, s, 2)

	if _, err := r.Run(context.Background(), runner.PathItems(assemblies)); err != nil {
		t.Fatal(err)
	}
	uploads := s.Uploads()
	sum, err := r.Run(context.Background(), runner.PathItems(assemblies))
	if err != nil {
		t.Fatal(err)
	}
	if s.Uploads() != uploads {
		t.Errorf("second pass uploaded %d objects", s.Uploads()-uploads)
	}
	if sum.Files[transfer.SkippedVerified] != 6 || sum.Succeeded != 3 {
		t.Errorf("summary %+v", sum)
	}
}

func TestRunUnverifiable(t *testing.T) {
	a := mock.NewArchive()
	dir := "/genomes/all/GCA/000/195/005/GCA_000195005.1_ASM19500v1/"
	a.Add(dir+"GCA_000195005.1_ASM19500v1_genomic.fna.gz", []byte("ACGT"))
	a.Add(dir+"GCA_000195005.1_ASM19500v1_protein.faa.gz", []byte("MK"))
	s := mock.NewStore(bucket)
	s.Put(bucket, "ncbi/raw_data/GCA/000/195/005/GCA_000195005.1_ASM19500v1/GCA_000195005.1_ASM19500v1_protein.faa.gz", []byte("MK"))
	r := newRunner(t, a, s, 1)

	sum, err := r.Run(context.Background(), runner.AccessionItems([]string{"GB_GCA_000195005.1"}))
	if err != nil {
		t.Fatal(err)
	}
	want := []runner.Unverifiable{
		{Entry: "GB_GCA_000195005.1", Filename: "GCA_000195005.1_ASM19500v1_genomic.fna.gz", Existing: false},
		{Entry: "GB_GCA_000195005.1", Filename: "GCA_000195005.1_ASM19500v1_protein.faa.gz", Existing: true},
	}
	if !reflect.DeepEqual(sum.Unverifiable, want) {
		t.Fatalf("unverifiable = %+v", sum.Unverifiable)
	}

	var buf bytes.Buffer
	if err := sum.Write(&buf); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"Total items:      1", "(newly uploaded)", "(already in store)"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("summary output lacks %q:\n%s", s, buf.String())
		}
	}

	buf.Reset()
	if err := sum.WriteYAML(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["run_id"] != sum.RunID || decoded["succeeded"] != 1 {
		t.Errorf("report %v", decoded)
	}
}

func TestRunCancelled(t *testing.T) {
	r := newRunner(t, newArchive(), mock.NewStore(bucket), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.Run(ctx, runner.PathItems(assemblies))
	if errors.Cause(err) != context.Canceled {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if sum == nil || sum.NotStarted != len(assemblies) || sum.Succeeded != 0 {
		t.Fatalf("summary %+v", sum)
	}
	assertStagingRemoved(t, r)
}

func TestDiscoverRoot(t *testing.T) {
	tests := map[string]string{
		"":                     "/genomes/all/",
		"GCF":                  "/genomes/all/GCF/",
		"GCF/000/001/":         "/genomes/all/GCF/000/001/",
		"/genomes/all/GCA/000": "/genomes/all/GCA/000/",
	}
	for in, want := range tests {
		if got := runner.DiscoverRoot(in); got != want {
			t.Errorf("DiscoverRoot(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDiscover(t *testing.T) {
	paths, err := runner.Discover(context.Background(), newArchive(), "GCF", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(paths, assemblies[1:]) {
		t.Fatalf("Discover = %v", paths)
	}
	paths, err = runner.Discover(context.Background(), newArchive(), "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(paths, assemblies[:2]) {
		t.Fatalf("limited Discover = %v", paths)
	}
}
