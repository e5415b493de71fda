package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"codevision/internal/analysis"
	"codevision/internal/config"
)

var (
	analyzeFormat       string
	analyzeAccept       []string
	analyzeIncludeDeps  bool
	analyzeExcludeJars  []string
	analyzeAutoCompile  bool
	analyzeBuildTimeout int
	analyzeMaxDepth     int
	analyzeSourceGraph  string
	analyzeOutput       string
	analyzeNoStore      bool
	analyzeNoSources    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the compiled classes of a project",
	Long: `Resolve the project's classpath, scan its classes and sources, and write
diagrams and exports into a new run directory.

Settings come from flags, then codevision.toml, then .codevision/config.json.

Examples:
  codevision analyze
  codevision analyze --accept com.acme --max-depth 5
  codevision analyze --auto-compile --build-timeout 900
  codevision analyze --source-graph graph.yaml --format json`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFormat, "format", "human", "Output format (json, human)")
	f.StringSliceVar(&analyzeAccept, "accept", nil, "Accepted package prefixes (repeatable)")
	f.BoolVar(&analyzeIncludeDeps, "include-deps", true, "Scan dependency archives from the build tool's dependency list")
	f.StringSliceVar(&analyzeExcludeJars, "exclude-jar", nil, "Glob of dependency archive names to skip (repeatable)")
	f.BoolVar(&analyzeAutoCompile, "auto-compile", true, "Run the build tool when compiled classes are missing")
	f.IntVar(&analyzeBuildTimeout, "build-timeout", 0, "Build tool timeout in seconds")
	f.IntVar(&analyzeMaxDepth, "max-depth", 0, "Maximum call depth in sequence diagrams")
	f.StringVar(&analyzeSourceGraph, "source-graph", "", "YAML or JSON graph file to use instead of source scanning")
	f.StringVarP(&analyzeOutput, "output", "o", "", "Directory that receives run output directories")
	f.BoolVar(&analyzeNoStore, "no-store", false, "Do not record the run in the analysis store")
	f.BoolVar(&analyzeNoSources, "no-sources", false, "Skip source scanning")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if err := applyAnalyzeFlags(cmd, s.cfg); err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, closeStore, err := s.newService(!analyzeNoStore)
	defer closeStore()
	if err != nil {
		return err
	}

	req := s.request(s.repoRoot)
	if analyzeSourceGraph != "" {
		path, err := filepath.Abs(analyzeSourceGraph)
		if err != nil {
			return err
		}
		req.SourceGraph = path
	}

	res, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}

	out, err := FormatResponse(newAnalyzeResponse(res), OutputFormat(analyzeFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// applyAnalyzeFlags overlays the flags the user set onto cfg.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("accept") {
		cfg.Analysis.AcceptPackages = analyzeAccept
	}
	if flags.Changed("include-deps") {
		cfg.Analysis.IncludeDependencies = analyzeIncludeDeps
	}
	if flags.Changed("exclude-jar") {
		cfg.Filters.ExcludeJars = analyzeExcludeJars
	}
	if flags.Changed("auto-compile") {
		cfg.Compile.AutoCompile = analyzeAutoCompile
	}
	if flags.Changed("build-timeout") {
		cfg.Compile.MaxRuntimeSeconds = analyzeBuildTimeout
	}
	if flags.Changed("max-depth") {
		cfg.Analysis.MaxCallDepth = analyzeMaxDepth
	}
	if analyzeNoSources {
		cfg.Analysis.ScanSources = false
	}
	if analyzeOutput != "" {
		abs, err := filepath.Abs(analyzeOutput)
		if err != nil {
			return err
		}
		cfg.Output.Root = abs
	}
	return nil
}

func newAnalyzeResponse(res *analysis.Result) *AnalyzeResponseCLI {
	resp := &AnalyzeResponseCLI{
		RunID:        res.RunID,
		OutputDir:    res.OutputDir,
		Fingerprint:  res.Fingerprint,
		PreviousRun:  res.PreviousRun,
		Classes:      res.Summary.ClassCount,
		Endpoints:    res.Summary.EndpointCount,
		Dependencies: res.Summary.DependencyCount,
		CyclicNodes:  res.Summary.CycleCount,
		Files:        []string{},
		DurationMs:   res.Duration.Milliseconds(),
	}
	if res.Exports != nil {
		for _, p := range []string{res.Exports.Analysis, res.Exports.Entities, res.Exports.Sequences, res.Exports.Endpoints, res.Exports.Dependencies} {
			resp.Files = append(resp.Files, filepath.Base(p))
		}
	}
	if res.Diagrams != nil {
		for _, p := range res.Diagrams.Files() {
			resp.Files = append(resp.Files, filepath.Base(p))
		}
	}
	return resp
}
