package imports

import (
	"os"
	"path/filepath"
	"strings"
)

// remotePrefixes are the specifier prefixes spec §4.6 routes to the
// host's dynamic module loader instead of the filesystem resolver.
var remotePrefixes = []string{"npm:", "jsr:", "node:", "http://", "https://"}

// IsRemote reports whether path names a remote/native module rather
// than a local file.
func IsRemote(path string) bool {
	for _, p := range remotePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// ResolveLocal implements spec §4.6's path resolution order: relative
// to the importer's own directory, relative to a caller-provided
// source_dir, relative to the current working directory, relative to
// "<cwd>/lib/". The first candidate that exists on disk wins.
func ResolveLocal(path, importerDir, sourceDir, baseDir string) (string, bool) {
	candidates := make([]string, 0, 4)

	if importerDir != "" {
		candidates = append(candidates, filepath.Join(importerDir, path))
	}
	if sourceDir != "" {
		candidates = append(candidates, filepath.Join(sourceDir, path))
	}
	if baseDir != "" {
		candidates = append(candidates, filepath.Join(baseDir, path))
		candidates = append(candidates, filepath.Join(baseDir, "lib", path))
	}
	if filepath.IsAbs(path) {
		candidates = append([]string{path}, candidates...)
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
