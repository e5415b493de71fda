// Package diagram renders the analysed graph as PlantUML and Mermaid text.
package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cverrors "codevision/internal/errors"
	"codevision/internal/graph"
	"codevision/internal/paths"
)

// Fixed artifact names inside a run directory.
const (
	ClassDiagramFile = "class-diagram.puml"
	ERDPlantUMLFile  = "erd.puml"
	ERDMermaidFile   = "erd.mmd"
)

// DefaultMaxSequenceDiagrams caps the number of sequence diagrams per run.
const DefaultMaxSequenceDiagrams = 25

// Options controls sequence diagram generation.
type Options struct {
	MaxCallDepth        int
	MaxSequenceDiagrams int
}

// Artifacts lists the files written by Write.
type Artifacts struct {
	ClassDiagram     string
	ERDPlantUML      string
	ERDMermaid       string
	SequenceDiagrams []string
}

// Files returns every artifact path, sequence diagrams last.
func (a *Artifacts) Files() []string {
	out := []string{a.ClassDiagram, a.ERDPlantUML, a.ERDMermaid}
	return append(out, a.SequenceDiagrams...)
}

// Write renders every diagram into dir, creating it first. Files already
// written stay in place when a later one fails.
func Write(dir string, m *graph.Model, opts Options) (*Artifacts, error) {
	if err := paths.EnsureDir(dir); err != nil {
		return nil, cverrors.New(cverrors.OutputUnavailable, "cannot create diagram directory "+dir, err)
	}
	if opts.MaxSequenceDiagrams <= 0 {
		opts.MaxSequenceDiagrams = DefaultMaxSequenceDiagrams
	}

	art := &Artifacts{
		ClassDiagram: filepath.Join(dir, ClassDiagramFile),
		ERDPlantUML:  filepath.Join(dir, ERDPlantUMLFile),
		ERDMermaid:   filepath.Join(dir, ERDMermaidFile),
	}
	for _, f := range []struct {
		path string
		body string
	}{
		{art.ClassDiagram, ClassDiagram(m)},
		{art.ERDPlantUML, ERDPlantUML(m)},
		{art.ERDMermaid, ERDMermaid(m)},
	} {
		if err := writeFile(f.path, f.body); err != nil {
			return nil, err
		}
	}

	adj := m.CallAdjacency()
	for i, ep := range SequenceEndpoints(m, opts.MaxSequenceDiagrams) {
		name := SequenceFileName(i+1, ep)
		path := filepath.Join(dir, name)
		if err := writeFile(path, SequenceDiagram(ep, adj, m, opts.MaxCallDepth)); err != nil {
			return nil, err
		}
		art.SequenceDiagrams = append(art.SequenceDiagrams, path)
	}
	return art, nil
}

func writeFile(path, body string) error {
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sanitize replaces every character outside [A-Za-z0-9] with '_'.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func alias(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}
