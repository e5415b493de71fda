package export

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	cverrors "codevision/internal/errors"
	"codevision/internal/paths"
)

// File is one artifact of a run directory.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ListFiles returns the regular files directly inside dir, sorted by name.
func ListFiles(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cverrors.New(cverrors.ExportFileNotFound, "output directory not found: "+dir, err)
		}
		return nil, err
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ResolveFile returns the path of name inside dir. Names must be plain file
// names; anything that could leave dir is rejected.
func ResolveFile(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", cverrors.Newf(cverrors.PathTraversal, "invalid export file name %q", name)
	}
	path := filepath.Join(dir, name)
	if !paths.IsWithin(path, dir) {
		return "", cverrors.Newf(cverrors.PathTraversal, "export file %q escapes the run directory", name)
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", cverrors.New(cverrors.ExportFileNotFound, "export file not found: "+name, err)
	}
	return path, nil
}
