package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/MeKo-Tech/folio/internal/utils"
)

// discoverImageFiles expands the input arguments into a sorted list of image
// paths. Directories are scanned, optionally recursively. Explicit file
// arguments bypass the extension check so odd names can still be processed.
func discoverImageFiles(args []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var found []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		switch {
		case info.IsDir():
			files, err := scanDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			found = append(found, files...)
		case keepFile(arg, includePatterns, excludePatterns):
			found = append(found, arg)
		}
	}

	slices.Sort(found)
	return found, nil
}

func scanDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsSupportedImage(path) && keepFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// keepFile applies exclude patterns first so an exclusion always wins, then
// requires a matching include pattern when any are given. Patterns match the
// base name only.
func keepFile(path string, includePatterns, excludePatterns []string) bool {
	base := filepath.Base(path)
	if matchesAny(base, excludePatterns) {
		return false
	}
	return len(includePatterns) == 0 || matchesAny(base, includePatterns)
}

func matchesAny(base string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
