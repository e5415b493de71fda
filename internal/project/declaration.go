package project

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"codevision/internal/config"
)

// DeclarationFile is the per-repository declaration file name.
const DeclarationFile = "codevision.toml"

// File is the root structure of codevision.toml.
type File struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Build records the detected build tool; informational only
	Build string `toml:"build,omitempty"`

	Analysis AnalysisDeclaration `toml:"analysis"`
}

// AnalysisDeclaration overrides analysis settings for one repository.
type AnalysisDeclaration struct {
	// AcceptPackages are the package prefixes to analyse; empty accepts all
	AcceptPackages []string `toml:"accept_packages"`

	// IncludeDependencies adds dependency jars to the classpath when set
	IncludeDependencies *bool `toml:"include_dependencies,omitempty"`

	// MaxCallDepth bounds sequence diagram traversal when positive
	MaxCallDepth int `toml:"max_call_depth,omitempty"`

	// ExcludeJars replaces the archive exclusion globs when non-empty
	ExcludeJars []string `toml:"exclude_jars,omitempty"`

	// SourceGraph is a repo-relative JSON or YAML graph used instead of source scanning
	SourceGraph string `toml:"source_graph,omitempty"`
}

// Parse reads a declaration file.
func Parse(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DeclarationFile, err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DeclarationFile, err)
	}
	if f.Version < 1 {
		f.Version = 1
	}
	return &f, nil
}

// Load reads codevision.toml from repoRoot. It returns nil when the file
// does not exist.
func Load(repoRoot string) (*File, error) {
	path := filepath.Join(repoRoot, DeclarationFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return Parse(path)
}

// Write stores f at path, creating parent directories.
func Write(path string, f *File) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", DeclarationFile, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", DeclarationFile, err)
	}
	return nil
}

// Detect builds a declaration from the repository layout.
func Detect(repoRoot string) *File {
	f := &File{Version: 1, Analysis: AnalysisDeclaration{AcceptPackages: []string{}}}
	if tool, _, ok := DetectBuild(repoRoot); ok {
		f.Build = string(tool)
	}
	if base := GuessBasePackage(repoRoot); base != "" {
		f.Analysis.AcceptPackages = []string{base}
	}
	return f
}

// Apply overlays the declaration onto cfg. Unset values leave cfg unchanged.
func (f *File) Apply(cfg *config.Config) {
	if f == nil || cfg == nil {
		return
	}
	a := f.Analysis
	if len(a.AcceptPackages) > 0 {
		cfg.Analysis.AcceptPackages = append([]string(nil), a.AcceptPackages...)
	}
	if a.IncludeDependencies != nil {
		cfg.Analysis.IncludeDependencies = *a.IncludeDependencies
	}
	if a.MaxCallDepth > 0 {
		cfg.Analysis.MaxCallDepth = a.MaxCallDepth
	}
	if len(a.ExcludeJars) > 0 {
		cfg.Filters.ExcludeJars = append([]string(nil), a.ExcludeJars...)
	}
}

// SourceGraphPath returns the absolute source graph path, or "" when unset.
func (f *File) SourceGraphPath(repoRoot string) string {
	if f == nil || f.Analysis.SourceGraph == "" {
		return ""
	}
	if filepath.IsAbs(f.Analysis.SourceGraph) {
		return f.Analysis.SourceGraph
	}
	return filepath.Join(repoRoot, f.Analysis.SourceGraph)
}
