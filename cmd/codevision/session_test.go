package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"codevision/internal/analysis"
	"codevision/internal/config"
	"codevision/internal/diagram"
	cverrors "codevision/internal/errors"
	"codevision/internal/export"
	"codevision/internal/project"
	"codevision/internal/store"
)

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, cverrors.New(cverrors.ClassesNotFound, "no compiled classes", nil))
	out := buf.String()
	if !strings.HasPrefix(out, "Error: [CLASSES_NOT_FOUND] no compiled classes\n") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "hint:") || !strings.Contains(out, "mvn -q -DskipTests compile") {
		t.Errorf("expected suggested fixes, got %q", out)
	}

	buf.Reset()
	printError(&buf, errors.New("plain"))
	if buf.String() != "Error: plain\n" {
		t.Errorf("plain output = %q", buf.String())
	}
}

func TestApplyAnalyzeFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	cmd := analyzeCmd
	t.Cleanup(func() {
		for _, name := range []string{"accept", "max-depth", "include-deps"} {
			cmd.Flags().Lookup(name).Changed = false
		}
		analyzeOutput = ""
	})
	if err := cmd.Flags().Set("accept", "com.acme,org.x"); err != nil {
		t.Fatalf("Set(accept) error = %v", err)
	}
	if err := cmd.Flags().Set("max-depth", "3"); err != nil {
		t.Fatalf("Set(max-depth) error = %v", err)
	}
	if err := cmd.Flags().Set("include-deps", "false"); err != nil {
		t.Fatalf("Set(include-deps) error = %v", err)
	}
	analyzeOutput = "runs-out"

	if err := applyAnalyzeFlags(cmd, cfg); err != nil {
		t.Fatalf("applyAnalyzeFlags() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.Analysis.AcceptPackages, []string{"com.acme", "org.x"}) {
		t.Errorf("AcceptPackages = %v", cfg.Analysis.AcceptPackages)
	}
	if cfg.Analysis.MaxCallDepth != 3 || cfg.Analysis.IncludeDependencies {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
	if !cfg.Compile.AutoCompile {
		t.Error("unset auto-compile flag should keep the config value")
	}
	if !filepath.IsAbs(cfg.Output.Root) || filepath.Base(cfg.Output.Root) != "runs-out" {
		t.Errorf("Output.Root = %q", cfg.Output.Root)
	}
}

func TestSessionRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysis.AcceptPackages = []string{"com.acme"}
	s := &session{
		repoRoot: "/repo",
		cfg:      cfg,
		decl:     &project.File{Analysis: project.AnalysisDeclaration{SourceGraph: "graph.yaml"}},
	}
	req := s.request("/repo")
	want := analysis.Request{
		RepoRoot:            "/repo",
		AcceptPackages:      []string{"com.acme"},
		IncludeDependencies: true,
		ExcludeJars:         config.DefaultExcludeJars,
		AutoCompile:         true,
		MaxCallDepth:        8,
		ScanSources:         true,
		SourceGraph:         filepath.Join("/repo", "graph.yaml"),
		OutputRoot:          filepath.Join("/repo", ".codevision", "runs"),
	}
	if !reflect.DeepEqual(req, want) {
		t.Errorf("request() = %+v, want %+v", req, want)
	}

	s.decl = nil
	if got := s.request("/repo").SourceGraph; got != "" {
		t.Errorf("SourceGraph without declaration = %q", got)
	}
}

func TestNewLoggerHonoursFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	var buf bytes.Buffer

	quiet = true
	t.Cleanup(func() { quiet = false; logFormat = "" })
	newLogger(&buf, cfg).Error("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}

	quiet = false
	logFormat = "json"
	newLogger(&buf, cfg).Info("shown")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}

func TestNewAnalyzeResponse(t *testing.T) {
	res := &analysis.Result{
		RunID:     "r1",
		OutputDir: "/out/r1",
		Summary:   store.RunSummary{ClassCount: 4, EndpointCount: 1, DependencyCount: 6, CycleCount: 2},
		Exports: &export.Paths{
			Analysis:     "/out/r1/analysis.json",
			Entities:     "/out/r1/entities.csv",
			Sequences:    "/out/r1/sequences.csv",
			Endpoints:    "/out/r1/endpoints.csv",
			Dependencies: "/out/r1/dependencies.csv",
		},
		Diagrams: &diagram.Artifacts{
			ClassDiagram:     "/out/r1/class-diagram.puml",
			ERDPlantUML:      "/out/r1/erd.puml",
			ERDMermaid:       "/out/r1/erd.mmd",
			SequenceDiagrams: []string{"/out/r1/seq_01_com_acme_A_run.puml"},
		},
		Duration: 250 * time.Millisecond,
	}
	resp := newAnalyzeResponse(res)
	wantFiles := []string{
		"analysis.json", "entities.csv", "sequences.csv", "endpoints.csv", "dependencies.csv",
		"class-diagram.puml", "erd.puml", "erd.mmd", "seq_01_com_acme_A_run.puml",
	}
	if !reflect.DeepEqual(resp.Files, wantFiles) {
		t.Errorf("Files = %v", resp.Files)
	}
	if resp.Classes != 4 || resp.CyclicNodes != 2 || resp.DurationMs != 250 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "entities.csv")
	if err := os.WriteFile(src, []byte("a,b\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout bytes.Buffer
	if err := copyFile(src, "", &stdout); err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}
	if stdout.String() != "a,b\n" {
		t.Errorf("stdout = %q", stdout.String())
	}

	dest := filepath.Join(dir, "copy.csv")
	if err := copyFile(src, dest, &stdout); err != nil {
		t.Fatalf("copyFile() error = %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "a,b\n" {
		t.Errorf("dest = %q, %v", data, err)
	}
}
