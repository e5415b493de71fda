package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"codevision/internal/export"
	"codevision/internal/store"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// AnalyzeResponseCLI is the printed result of one analysis run.
type AnalyzeResponseCLI struct {
	RunID        string   `json:"runId"`
	OutputDir    string   `json:"outputDir"`
	Fingerprint  string   `json:"fingerprint,omitempty"`
	PreviousRun  string   `json:"previousRun,omitempty"`
	Classes      int      `json:"classes"`
	Endpoints    int      `json:"endpoints"`
	Dependencies int      `json:"dependencies"`
	CyclicNodes  int      `json:"cyclicClasses"`
	Files        []string `json:"files"`
	DurationMs   int64    `json:"durationMs"`
}

// BatchResponseCLI is the printed result of a batch.
type BatchResponseCLI struct {
	Projects []BatchProjectCLI `json:"projects"`
	Failed   int               `json:"failed"`
}

// BatchProjectCLI is one project of a batch.
type BatchProjectCLI struct {
	Name       string `json:"name"`
	RunID      string `json:"runId,omitempty"`
	OutputDir  string `json:"outputDir,omitempty"`
	Classes    int    `json:"classes"`
	Endpoints  int    `json:"endpoints"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// RunListCLI is the printed run registry.
type RunListCLI struct {
	Runs []*store.Run `json:"runs"`
}

// RunDetailCLI is one run with its entities.
type RunDetailCLI struct {
	Run      *store.Run `json:"run"`
	Entities []string   `json:"entities"`
}

// RunFilesCLI lists a run's output files.
type RunFilesCLI struct {
	RunID string        `json:"runId"`
	Dir   string        `json:"dir"`
	Files []export.File `json:"files"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *AnalyzeResponseCLI:
		return formatAnalyzeHuman(v), nil
	case *BatchResponseCLI:
		return formatBatchHuman(v), nil
	case *RunListCLI:
		return formatRunListHuman(v), nil
	case *RunDetailCLI:
		return formatRunDetailHuman(v), nil
	case *RunFilesCLI:
		return formatRunFilesHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatAnalyzeHuman(r *AnalyzeResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s completed in %s\n", r.RunID, formatDuration(r.DurationMs))
	fmt.Fprintf(&b, "  Classes:      %d\n", r.Classes)
	fmt.Fprintf(&b, "  Endpoints:    %d\n", r.Endpoints)
	fmt.Fprintf(&b, "  Dependencies: %d\n", r.Dependencies)
	fmt.Fprintf(&b, "  In cycles:    %d\n", r.CyclicNodes)
	if r.PreviousRun != "" {
		fmt.Fprintf(&b, "  Unchanged since run %s\n", r.PreviousRun)
	}
	fmt.Fprintf(&b, "\nOutput: %s\n", r.OutputDir)
	for _, f := range r.Files {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBatchHuman(r *BatchResponseCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-8s %8s %9s  %s\n", "PROJECT", "STATUS", "CLASSES", "ENDPOINTS", "RUN")
	for _, p := range r.Projects {
		if p.Error != "" {
			fmt.Fprintf(&b, "%-24s %-8s %8s %9s  %s\n", truncate(p.Name, 24), "FAILED", "-", "-", p.Error)
			continue
		}
		fmt.Fprintf(&b, "%-24s %-8s %8d %9d  %s\n", truncate(p.Name, 24), "OK", p.Classes, p.Endpoints, p.RunID)
	}
	fmt.Fprintf(&b, "\n%d project(s), %d failed", len(r.Projects), r.Failed)
	return b.String()
}

func formatRunListHuman(r *RunListCLI) string {
	if len(r.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-9s %-20s %8s %9s\n", "ID", "STATUS", "STARTED", "CLASSES", "ENDPOINTS")
	for _, run := range r.Runs {
		fmt.Fprintf(&b, "%-36s %-9s %-20s %8d %9d\n",
			run.ID, run.Status, run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.ClassCount, run.EndpointCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunDetailHuman(r *RunDetailCLI) string {
	run := r.Run
	var b strings.Builder
	fmt.Fprintf(&b, "Run:          %s\n", run.ID)
	fmt.Fprintf(&b, "Status:       %s\n", run.Status)
	fmt.Fprintf(&b, "Repository:   %s\n", run.RepoRoot)
	if len(run.AcceptPackages) > 0 {
		fmt.Fprintf(&b, "Packages:     %s\n", strings.Join(run.AcceptPackages, ", "))
	}
	fmt.Fprintf(&b, "Started:      %s\n", run.StartedAt.Local().Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Fprintf(&b, "Completed:    %s (%s)\n", run.CompletedAt.Local().Format(time.RFC3339), run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "Error:        %s\n", run.Error)
	}
	if run.OutputDir != "" {
		fmt.Fprintf(&b, "Output:       %s\n", run.OutputDir)
	}
	fmt.Fprintf(&b, "Classes:      %d\n", run.ClassCount)
	fmt.Fprintf(&b, "Endpoints:    %d\n", run.EndpointCount)
	fmt.Fprintf(&b, "Dependencies: %d\n", run.DependencyCount)
	fmt.Fprintf(&b, "In cycles:    %d\n", run.CycleCount)
	if len(r.Entities) > 0 {
		fmt.Fprintf(&b, "\nEntities (%d):\n", len(r.Entities))
		for _, e := range r.Entities {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunFilesHuman(r *RunFilesCLI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Dir)
	for _, f := range r.Files {
		fmt.Fprintf(&b, "  %-40s %10s\n", f.Name, formatBytes(f.Size))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
