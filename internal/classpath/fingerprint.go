package classpath

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes the classpath contents with BLAKE2b-256. Directories
// contribute every class file's relative path and bytes, archives their raw
// bytes. Missing entries contribute only their path.
func Fingerprint(desc *Descriptor) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}
	for _, entry := range desc.Entries() {
		writeField(h, entry)
		info, err := os.Stat(entry)
		if err != nil {
			continue
		}
		if info.IsDir() {
			err = hashDir(h, entry)
		} else {
			err = hashFile(h, entry)
		}
		if err != nil {
			return "", fmt.Errorf("failed to fingerprint %s: %w", entry, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashDir(h hash.Hash, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".class" {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		writeField(h, filepath.ToSlash(rel))
		return hashFile(h, p)
	})
}

func hashFile(h hash.Hash, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	_, err = io.Copy(h, f)
	return err
}

func writeField(h hash.Hash, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}
