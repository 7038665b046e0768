// Package features enumerates feature directories.
package features

import (
	"fmt"
	"os"
	"path/filepath"
)

// List returns the names of the subdirectories of root, sorted by name.
// Plain files are ignored. A symlink counts when it resolves to a directory.
func List(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list features in %s: %w", root, err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(root, e.Name())); err == nil && info.IsDir() {
				ids = append(ids, e.Name())
			}
		}
	}
	return ids, nil
}

// DescriptorPath joins root, the feature id, and the descriptor file name.
func DescriptorPath(root, id, fileName string) string {
	return filepath.Join(root, id, fileName)
}
