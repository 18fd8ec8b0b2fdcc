// Package payload finds the installable directory inside an extracted
// archive tree.
package payload

import (
	"os"
	"path/filepath"
	"sort"
)

// Locate searches root for a directory whose base name equals expectedName,
// descending at most maxDepth levels below root. Only directories are
// visited; the depth bound keeps pathological archive layouts from walking
// forever.
//
// The traversal is breadth-first with lexicographically sorted siblings, so
// when duplicates exist the shallowest (then alphabetically first) match
// wins. Returns ("", false) when nothing matches within the bound.
func Locate(root, expectedName string, maxDepth int) (string, bool) {
	type node struct {
		path  string
		depth int
	}

	queue := []node{{path: root, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(cur.path)
		if err != nil {
			// Unreadable subtrees are skipped, not fatal; the caller only
			// cares whether a match exists somewhere.
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			child := filepath.Join(cur.path, entry.Name())
			if entry.Name() == expectedName {
				return child, true
			}
			if cur.depth+1 < maxDepth {
				queue = append(queue, node{path: child, depth: cur.depth + 1})
			}
		}
	}
	return "", false
}
