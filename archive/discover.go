package archive

import (
	"context"
	"sort"

	"github.com/cohere-llc/kbase-transfers/accession"
)

// Discover walks the tree below root and returns the path of every
// assembly directory in it, each ending in a slash. Assembly directories
// are leaves and are never listed. A node that cannot be listed is logged
// and its subtree skipped. Children are visited in lexical order, so an
// unchanged tree always yields the same sequence.
//
// If ctx is cancelled between nodes, the paths found so far are returned
// along with ctx.Err().
func Discover(ctx context.Context, s Session, root string) ([]string, error) {
	var found []string
	visited := make(map[string]bool)
	stack := []string{DirPath(root)}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[dir] {
			continue
		}
		visited[dir] = true

		entries, err := s.List(ctx, dir)
		if err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			log.Warnf("skipping %s: %v", dir, err)
			continue
		}

		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		var children []string
		for _, e := range entries {
			if !e.Dir {
				continue
			}
			name := baseName(e.Name)
			if name == "." || name == ".." || name == "" {
				continue
			}
			child := dir + name + "/"
			if accession.IsAssemblyDir(name) {
				if !visited[child] {
					visited[child] = true
					found = append(found, child)
				}
				continue
			}
			children = append(children, child)
		}
		// Reverse push keeps the lexically smallest child on top.
		for i := len(children) - 1; i >= 0; i-- {
			if !visited[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}
	log.Infof("discovered %d assemblies under %s", len(found), root)
	return found, nil
}
