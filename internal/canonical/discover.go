package canonical

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverMeta expands pattern into metadata table paths. A plain file is
// returned as is, a directory is searched for metaName, and anything else is
// treated as a doublestar glob such as "validation/**/chi32_canonical_meta.csv".
func DiscoverMeta(pattern, metaName string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil {
		if info.IsDir() {
			pattern = filepath.Join(pattern, metaName)
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no %s in directory: %w", metaName, err)
			}
		}
		return []string{pattern}, nil
	}

	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid metadata pattern %q", pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no metadata tables match %q", pattern)
	}

	sort.Strings(matches)
	return matches, nil
}
