package imports

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ProjectMarkerFile is the file whose presence in a directory marks it
// as an HQL project root, used to anchor relative import resolution
// and system-macro discovery.
const ProjectMarkerFile = "hql.project"

// FindProjectRoot walks upward from startDir looking for
// ProjectMarkerFile, grounded on the teacher's parser/collector.go
// upward filepath.Walk scan for its own "tadl.ws" workspace marker,
// generalized here from a downward workspace scan to a simple upward
// walk toward the filesystem root.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("unable to resolve start directory: %w", err)
	}

	for {
		marker := filepath.Join(dir, ProjectMarkerFile)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found above %s", ProjectMarkerFile, startDir)
		}
		dir = parent
	}
}

// ListHQLFiles walks dir collecting every ".hql" source file, skipping
// dot-directories, mirroring the teacher's collector.go convention of
// ignoring any directory whose name starts with ".".
func ListHQLFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".hql") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
