// Package paths resolves output and artifact paths relative to a root.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize converts an absolute path to a root-relative path with
// forward slashes. Symlinks are resolved when the target exists.
func Canonicalize(absolutePath string, root string) (string, error) {
	resolved, err := evalOrKeep(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalOrKeep(root)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func evalOrKeep(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Clean(p), nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithin reports whether path lies inside root (root itself included).
func IsWithin(path string, root string) bool {
	canonical, err := Canonicalize(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// RunDir returns the output directory of a run.
func RunDir(outputRoot, runID string) string {
	return filepath.Join(outputRoot, runID)
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
