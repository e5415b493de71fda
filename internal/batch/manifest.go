// Package batch analyses many projects listed in one TOML manifest, running
// a bounded number of analyses at a time.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	cverrors "codevision/internal/errors"
)

// DefaultMaxParallel is used when the manifest does not set max_parallel.
const DefaultMaxParallel = 2

// Manifest lists the projects of one batch.
type Manifest struct {
	// MaxParallel bounds concurrent analyses
	MaxParallel int `toml:"max_parallel,omitempty"`

	// OutputRoot, when set, collects every project's runs under
	// <output_root>/<name>. Otherwise each project keeps its own state dir.
	OutputRoot string `toml:"output_root,omitempty"`

	// Projects are analysed in manifest order
	Projects []Project `toml:"project"`

	// dir is the manifest's directory; relative paths resolve against it
	dir string
}

// Project is one [[project]] entry.
type Project struct {
	// Name identifies the project in results and output directories
	Name string `toml:"name"`

	// Path is the project root
	Path string `toml:"path"`

	// AcceptPackages overrides the batch-wide package filter
	AcceptPackages []string `toml:"accept_packages,omitempty"`

	// IncludeDependencies overrides the batch-wide setting when present
	IncludeDependencies *bool `toml:"include_dependencies,omitempty"`
}

// Load reads and validates a manifest. Relative project paths and the
// output root are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		if os.IsNotExist(err) {
			return nil, cverrors.New(cverrors.InvalidConfig, "batch manifest not found: "+path, err)
		}
		return nil, cverrors.New(cverrors.InvalidConfig, "failed to parse batch manifest", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	m.dir = filepath.Dir(abs)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	for i := range m.Projects {
		m.Projects[i].Path = m.resolve(m.Projects[i].Path)
	}
	if m.OutputRoot != "" {
		m.OutputRoot = m.resolve(m.OutputRoot)
	}
	if m.MaxParallel <= 0 {
		m.MaxParallel = DefaultMaxParallel
	}
	return &m, nil
}

// Validate checks that every project has a unique name and a path.
func (m *Manifest) Validate() error {
	if len(m.Projects) == 0 {
		return cverrors.New(cverrors.InvalidConfig, "batch manifest lists no projects", nil)
	}
	seen := make(map[string]bool, len(m.Projects))
	for i, p := range m.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return cverrors.Newf(cverrors.InvalidConfig, "project %d has no name", i+1)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return cverrors.Newf(cverrors.InvalidConfig, "project name %q is not a valid directory name", name)
		}
		if seen[name] {
			return cverrors.Newf(cverrors.InvalidConfig, "duplicate project name %q", name)
		}
		seen[name] = true
		if strings.TrimSpace(p.Path) == "" {
			return cverrors.Newf(cverrors.InvalidConfig, "project %q has no path", name)
		}
	}
	if m.MaxParallel < 0 {
		return cverrors.New(cverrors.InvalidConfig, "max_parallel must not be negative", nil)
	}
	return nil
}

// AddProject appends a project, rejecting duplicate names and paths.
func (m *Manifest) AddProject(p Project) error {
	for _, existing := range m.Projects {
		if existing.Name == p.Name {
			return fmt.Errorf("project %q already exists", p.Name)
		}
		if existing.Path == p.Path {
			return fmt.Errorf("project at path %q already exists (as %q)", p.Path, existing.Name)
		}
	}
	m.Projects = append(m.Projects, p)
	return m.Validate()
}

// Save writes the manifest to path.
func (m *Manifest) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return nil
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}
