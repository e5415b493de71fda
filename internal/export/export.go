// Package export writes the analysed graph as one JSON document and four CSV
// tables, and serves the files of a run directory.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cverrors "codevision/internal/errors"
	"codevision/internal/graph"
	"codevision/internal/paths"
)

// Fixed export file names inside a run directory.
const (
	AnalysisFile     = "analysis.json"
	EntitiesFile     = "entities.csv"
	SequencesFile    = "sequences.csv"
	EndpointsFile    = "endpoints.csv"
	DependenciesFile = "dependencies.csv"
)

// Table headers. Downstream tooling depends on the column order.
var (
	EntitiesHeader     = []string{"className", "packageName", "tableName", "origin", "stereotypes"}
	SequencesHeader    = []string{"generatorName", "sequenceName", "allocationSize", "initialValue"}
	EndpointsHeader    = []string{"type", "httpMethod", "path", "controllerClass", "controllerMethod", "framework"}
	DependenciesHeader = []string{"fromClass", "toClass", "kind", "label"}
)

// Paths lists the files written by WriteAll.
type Paths struct {
	Dir          string
	Analysis     string
	Entities     string
	Sequences    string
	Endpoints    string
	Dependencies string
}

// WriteAll serializes m into dir, creating it first.
func WriteAll(dir string, m *graph.Model) (*Paths, error) {
	if err := paths.EnsureDir(dir); err != nil {
		return nil, cverrors.New(cverrors.OutputUnavailable, "cannot create export directory "+dir, err)
	}
	p := &Paths{
		Dir:          dir,
		Analysis:     filepath.Join(dir, AnalysisFile),
		Entities:     filepath.Join(dir, EntitiesFile),
		Sequences:    filepath.Join(dir, SequencesFile),
		Endpoints:    filepath.Join(dir, EndpointsFile),
		Dependencies: filepath.Join(dir, DependenciesFile),
	}

	if err := writeJSON(p.Analysis, m); err != nil {
		return nil, err
	}
	tables := []struct {
		path   string
		header []string
		rows   [][]string
	}{
		{p.Entities, EntitiesHeader, EntityRows(m)},
		{p.Sequences, SequencesHeader, SequenceRows(m)},
		{p.Endpoints, EndpointsHeader, EndpointRows(m)},
		{p.Dependencies, DependenciesHeader, DependencyRows(m)},
	}
	for _, t := range tables {
		if err := writeCSV(t.path, t.header, t.rows); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// EntityRows returns one row per class in canonical order.
func EntityRows(m *graph.Model) [][]string {
	classes := m.SortedClasses()
	rows := make([][]string, 0, len(classes))
	for _, c := range classes {
		table := ""
		if c.TableName != nil {
			table = *c.TableName
		}
		rows = append(rows, []string{
			c.Name,
			c.PackageName,
			table,
			string(c.Origin),
			strings.Join(c.Stereotypes, "|"),
		})
	}
	return rows
}

// SequenceRows returns one row per generator ordered by generator name.
func SequenceRows(m *graph.Model) [][]string {
	seqs := m.SortedSequences()
	rows := make([][]string, 0, len(seqs))
	for _, s := range seqs {
		rows = append(rows, []string{
			s.GeneratorName,
			s.SequenceName,
			optInt(s.AllocationSize),
			optInt(s.InitialValue),
		})
	}
	return rows
}

// EndpointRows returns one row per endpoint in canonical order.
func EndpointRows(m *graph.Model) [][]string {
	eps := m.SortedEndpoints()
	rows := make([][]string, 0, len(eps))
	for _, e := range eps {
		rows = append(rows, []string{
			string(e.Type),
			e.HTTPMethod,
			e.Path,
			e.ControllerClass,
			e.ControllerMethod,
			e.Framework,
		})
	}
	return rows
}

// DependencyRows returns one row per dependency edge ordered by source then target.
func DependencyRows(m *graph.Model) [][]string {
	deps := m.SortedDependencies()
	rows := make([][]string, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, []string{d.From, d.To, string(d.Kind), d.Label})
	}
	return rows
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func writeJSON(path string, m *graph.Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
