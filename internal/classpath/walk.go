package classpath

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Unit is one class file found on the classpath.
type Unit struct {
	// Name is the slash-separated path inside the directory or archive.
	Name string
	// Location is the directory or archive the unit came from.
	Location string
	Data     []byte
}

// Walk calls fn for every class file reachable from desc: directories
// recursively in lexical order, archives entry by entry. Unreadable entries
// and archives are logged and skipped. An error from fn stops the walk.
func Walk(ctx context.Context, desc *Descriptor, logger *slog.Logger, fn func(Unit) error) error {
	for _, entry := range desc.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(entry)
		if err != nil {
			logger.Warn("Skipping classpath entry", "path", entry, "error", err)
			continue
		}
		if info.IsDir() {
			err = walkDir(ctx, entry, logger, fn)
		} else if isArchive(entry) {
			err = walkArchive(ctx, entry, logger, fn)
		} else {
			logger.Debug("Ignoring non-archive classpath entry", "path", entry)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func walkDir(ctx context.Context, dir string, logger *slog.Logger, fn func(Unit) error) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		name := filepath.ToSlash(rel)
		if !isClassEntry(name) {
			return nil
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			logger.Warn("Skipping unreadable class", "path", p, "error", readErr)
			return nil
		}
		return fn(Unit{Name: name, Location: dir, Data: data})
	})
}

func walkArchive(ctx context.Context, archive string, logger *slog.Logger, fn func(Unit) error) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		logger.Warn("Skipping unreadable archive", "path", archive, "error", err)
		return nil
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() || !isClassEntry(f.Name) {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			logger.Warn("Skipping unreadable archive entry", "archive", archive, "entry", f.Name, "error", err)
			continue
		}
		if err := fn(Unit{Name: f.Name, Location: archive, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func isArchive(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".jar" || ext == ".zip"
}

// isClassEntry accepts class files, skipping module and package descriptors
// and versioned copies under META-INF.
func isClassEntry(name string) bool {
	if !strings.HasSuffix(name, ".class") || strings.HasPrefix(name, "META-INF/") {
		return false
	}
	base := path.Base(name)
	return base != "module-info.class" && base != "package-info.class"
}
