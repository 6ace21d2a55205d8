package archive

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrAssemblyNotFound means no directory in the shard belongs to the
// accession. Directory names do not change, so callers should not retry.
var ErrAssemblyNotFound = errors.New("assembly directory not found")

// Locate lists shardPath and returns the name of the first directory that
// belongs to the canonical accession. A name must equal the accession or
// continue with an underscore, so GCA_000195005.1 never claims
// GCA_000195005.10_x.
func Locate(ctx context.Context, s Session, shardPath, canonical string) (string, error) {
	entries, err := s.List(ctx, DirPath(shardPath))
	if err != nil {
		return "", errors.Wrapf(err, "couldn't list %s", shardPath)
	}
	for _, e := range entries {
		name := baseName(e.Name)
		if name == canonical || strings.HasPrefix(name, canonical+"_") {
			log.Debugf("located %s as %s%s", canonical, DirPath(shardPath), name)
			return name, nil
		}
	}
	return "", errors.Wrapf(ErrAssemblyNotFound, "%s in %s", canonical, shardPath)
}
