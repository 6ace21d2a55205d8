package store_test

import (
	"context"
	"testing"

	"github.com/cohere-llc/kbase-transfers/mock"
	"github.com/cohere-llc/kbase-transfers/store"
	"github.com/pkg/errors"
)

func TestCheckDestination(t *testing.T) {
	s := mock.NewStore("cdm-lake", "empty")
	s.Put("cdm-lake", "tenant/ncbi/raw_data/GCA/000/195/005/x/md5checksums.txt", []byte("x"))
	ctx := context.Background()

	if err := store.CheckDestination(ctx, s, "cdm-lake", "tenant/ncbi/"); err != nil {
		t.Errorf("existing destination: %v", err)
	}
	if err := store.CheckDestination(ctx, s, "missing", "tenant/ncbi/"); errors.Cause(err) != store.ErrBucketNotFound {
		t.Errorf("missing bucket: got %v", err)
	}
	if err := store.CheckDestination(ctx, s, "empty", "tenant/ncbi/"); errors.Cause(err) != store.ErrPrefixNotFound {
		t.Errorf("empty prefix: got %v", err)
	}
	if err := store.CheckDestination(ctx, s, "cdm-lake", "tenant/other/"); errors.Cause(err) != store.ErrPrefixNotFound {
		t.Errorf("wrong prefix: got %v", err)
	}
}
