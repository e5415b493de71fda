package classfiletest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// EntryName returns the class file path for a dotted class name.
func EntryName(dotted string) string {
	return internal(dotted) + ".class"
}

// WriteClasses encodes each builder under dir using the package layout.
func WriteClasses(dir string, classes ...*Builder) error {
	for _, b := range classes {
		p := filepath.Join(dir, filepath.FromSlash(EntryName(b.name)))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, b.Bytes(), 0644); err != nil {
			return err
		}
	}
	return nil
}

// WriteJar writes an archive holding entries (slash path to bytes), in name order.
func WriteJar(path string, entries map[string][]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasSuffix(name, "/") {
			if _, err := zw.Create(name); err != nil {
				_ = f.Close()
				return err
			}
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := w.Write(entries[name]); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// JarOf maps each builder to its archive entry.
func JarOf(classes ...*Builder) map[string][]byte {
	out := make(map[string][]byte, len(classes))
	for _, b := range classes {
		out[EntryName(b.name)] = b.Bytes()
	}
	return out
}
