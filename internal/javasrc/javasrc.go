// Package javasrc builds the source-derived class graph from Java files under
// src/main/java. Parsing needs cgo; without it Build returns an empty graph.
package javasrc

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"codevision/internal/graph"
	"codevision/internal/scanner"
	"codevision/internal/slogutil"
)

// sourceMarker selects production sources.
const sourceMarker = "/src/main/java/"

var excludedMarkers = []string{
	"/src/test/",
	"/src/it/",
	"/src/integration-test/",
	"/src/integrationtest/",
	"/mock/",
	"/mocks/",
}

var skippedDirs = map[string]bool{
	"target":       true,
	"build":        true,
	"node_modules": true,
	"out":          true,
}

// Builder turns a repository's Java sources into a graph whose classes all
// have origin SOURCE.
type Builder struct {
	logger      *slog.Logger
	warnNoParse sync.Once
}

// NewBuilder creates a builder. A nil logger discards output.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Builder{logger: logger}
}

// Build parses every production source file below repoRoot and returns the
// accepted classes. Unparseable files are logged and skipped.
func (b *Builder) Build(ctx context.Context, repoRoot string, acceptPackages []string) (*graph.Model, error) {
	if !Available() {
		b.warnNoParse.Do(func() {
			b.logger.Warn("Source scanning unavailable in this build; using bytecode only")
		})
		return graph.New(), nil
	}

	files, err := SourceFiles(repoRoot)
	if err != nil {
		return nil, err
	}

	filter := scanner.NewFilter(acceptPackages)
	model := graph.New()
	p := newParser()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		classes, err := p.parseFile(ctx, path)
		if err != nil {
			b.logger.Warn("Skipping unparseable source", "file", path, "error", err)
			continue
		}
		for _, c := range classes {
			if !filter.Accepts(c.Name) {
				continue
			}
			if _, dup := model.Class(c.Name); dup {
				continue
			}
			model.AddClass(c)
		}
	}

	b.logger.Info("Source scan complete", "files", len(files), "classes", len(model.Classes))
	return model, nil
}

// SourceFiles returns the production .java files below root in lexical order.
// Hidden and build output directories are skipped, as are test and mock trees.
func SourceFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".java" {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if IsProductionSource(rel) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// IsProductionSource reports whether a root-relative path lies in a main
// source set and outside every test or mock tree.
func IsProductionSource(rel string) bool {
	p := "/" + filepath.ToSlash(rel)
	lower := strings.ToLower(p)
	if !strings.Contains(lower, sourceMarker) {
		return false
	}
	for _, m := range excludedMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return !strings.HasSuffix(p, "/package-info.java") && !strings.HasSuffix(p, "/module-info.java")
}
