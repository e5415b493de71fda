package graph

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a graph document written as YAML or JSON (JSON is accepted
// by the YAML decoder as-is). Every class is tagged with origin SOURCE, since
// imported graphs only ever act as the source side of a merge.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph file %s: %w", path, err)
	}
	for _, c := range m.Classes {
		c.Origin = OriginSource
	}
	return m, nil
}

// Decode parses a YAML or JSON graph document. Class and sequence entries
// are re-keyed by their own names; entries without a name are dropped.
func Decode(data []byte) (*Model, error) {
	var raw Model
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}

	m := New()
	for key, c := range raw.Classes {
		if c == nil {
			continue
		}
		if c.Name == "" {
			c.Name = key
		}
		if c.PackageName == "" {
			c.PackageName = PackageOf(c.Name)
		}
		if c.SimpleName == "" {
			c.SimpleName = SimpleName(c.Name)
		}
		if c.Kind == "" {
			c.Kind = KindClass
		}
		m.AddClass(c)
	}
	for key, s := range raw.Sequences {
		if s == nil {
			continue
		}
		if s.GeneratorName == "" {
			s.GeneratorName = key
		}
		m.AddSequence(*s)
	}
	for _, u := range raw.SequenceUsages {
		m.AddSequenceUsage(u)
	}
	m.Endpoints = append(m.Endpoints, raw.Endpoints...)
	m.MethodCallEdges = append(m.MethodCallEdges, raw.MethodCallEdges...)
	m.DependencyEdges = append(m.DependencyEdges, raw.DependencyEdges...)
	return m, nil
}
