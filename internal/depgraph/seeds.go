package depgraph

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sourceExtension is the file suffix selected when expanding directories.
const sourceExtension = ".py"

// ErrUnsupportedPath is returned when a seed path is neither a regular file
// nor a directory.
var ErrUnsupportedPath = errors.New("unsupported path, not a directory nor a file")

// ErrRelativeInput is returned when a seed path is not absolute.
var ErrRelativeInput = errors.New("seed path must be absolute")

// ExpandPaths resolves the initial paths of the dependency graph: files are
// taken as-is, directories are expanded recursively into every source file
// beneath them in lexicographic order. Duplicates are kept once, first
// occurrence wins. The result contains only absolute files.
func ExpandPaths(initialPaths []string) ([]string, error) {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(initialPaths))

	for _, pth := range initialPaths {
		if !filepath.IsAbs(pth) {
			return nil, fmt.Errorf("%w: %s", ErrRelativeInput, pth)
		}

		info, err := os.Stat(pth)
		if err != nil {
			return nil, fmt.Errorf("stat seed path: %w", err)
		}

		switch {
		case info.Mode().IsRegular():
			if _, ok := seen[pth]; !ok {
				seen[pth] = struct{}{}
				result = append(result, pth)
			}

		case info.IsDir():
			files, err := expandDir(pth)
			if err != nil {
				return nil, err
			}

			for _, sub := range files {
				if _, ok := seen[sub]; !ok {
					seen[sub] = struct{}{}
					result = append(result, sub)
				}
			}

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPath, pth)
		}
	}

	return result, nil
}

// expandDir lists the source files beneath dir. WalkDir visits entries in
// lexical order, so the result is deterministic.
func expandDir(dir string) ([]string, error) {
	var files []string

	walkErr := filepath.WalkDir(dir, func(pth string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.Type().IsRegular() && strings.HasSuffix(pth, sourceExtension) {
			files = append(files, pth)
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("expand directory %s: %w", dir, walkErr)
	}

	return files, nil
}
