// Package project detects the build layout of a JVM repository and reads its
// codevision.toml declaration.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BuildTool is the build system that produces a repository's classes.
type BuildTool string

const (
	BuildMaven   BuildTool = "maven"
	BuildGradle  BuildTool = "gradle"
	BuildUnknown BuildTool = "unknown"
)

// SourceRoot is the conventional main source directory.
const SourceRoot = "src/main/java"

// DetectBuild detects the build tool from manifest files.
// Returns the tool, manifest path, and whether detection succeeded.
func DetectBuild(root string) (BuildTool, string, bool) {
	manifests := []struct {
		path string
		tool BuildTool
	}{
		{"pom.xml", BuildMaven},
		{"build.gradle", BuildGradle},
		{"build.gradle.kts", BuildGradle},
		{"settings.gradle", BuildGradle},
		{"settings.gradle.kts", BuildGradle},
	}

	for _, m := range manifests {
		if _, err := os.Stat(filepath.Join(root, m.path)); err == nil {
			return m.tool, m.path, true
		}
	}
	return BuildUnknown, "", false
}

// GuessBasePackage returns the deepest package under src/main/java that
// contains every source file, or "" when there is none. It follows a chain of
// directories that each hold exactly one subdirectory and no .java files.
func GuessBasePackage(root string) string {
	dir := filepath.Join(root, filepath.FromSlash(SourceRoot))
	var parts []string
	for {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return strings.Join(parts, ".")
		}
		var subdirs []string
		hasSource := false
		for _, e := range entries {
			switch {
			case e.IsDir() && !strings.HasPrefix(e.Name(), "."):
				subdirs = append(subdirs, e.Name())
			case filepath.Ext(e.Name()) == ".java":
				hasSource = true
			}
		}
		if hasSource || len(subdirs) != 1 {
			return strings.Join(parts, ".")
		}
		parts = append(parts, subdirs[0])
		dir = filepath.Join(dir, subdirs[0])
	}
}

// Modules returns the repo-relative directories below root that carry
// their own pom.xml, sorted. The root itself is not included.
func Modules(root string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "target" || name == "build" || name == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "pom.xml" && filepath.Dir(path) != root {
			if rel, err := filepath.Rel(root, filepath.Dir(path)); err == nil {
				out = append(out, filepath.ToSlash(rel))
			}
		}
		return nil
	})
	sort.Strings(out)
	return out
}
