// Package classpath locates compiled classes and dependency archives for a
// project and walks the class files they contain.
package classpath

import (
	"os"
	"strings"
)

// Descriptor is the resolved, ordered classpath of one project. It is
// immutable once built.
type Descriptor struct {
	repoRoot   string
	classesDir string
	entries    []string
}

// NewDescriptor builds a descriptor. Blank and repeated entries are dropped,
// keeping the first occurrence.
func NewDescriptor(repoRoot, classesDir string, entries []string) *Descriptor {
	seen := make(map[string]bool, len(entries))
	kept := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		kept = append(kept, e)
	}
	return &Descriptor{repoRoot: repoRoot, classesDir: classesDir, entries: kept}
}

// Entries returns a copy of the classpath entries in discovery order.
func (d *Descriptor) Entries() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.entries...)
}

// Len returns the number of entries.
func (d *Descriptor) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// ClasspathString joins the entries with the platform path list separator.
func (d *Descriptor) ClasspathString() string {
	if d == nil {
		return ""
	}
	return strings.Join(d.entries, string(os.PathListSeparator))
}

// RepoRoot returns the project root the descriptor was resolved for.
func (d *Descriptor) RepoRoot() string {
	if d == nil {
		return ""
	}
	return d.repoRoot
}

// ClassesDir returns the compiled output directory.
func (d *Descriptor) ClassesDir() string {
	if d == nil {
		return ""
	}
	return d.classesDir
}
