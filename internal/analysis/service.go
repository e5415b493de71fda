// Package analysis runs one complete analysis of a compiled project: it
// resolves the classpath, scans it, merges in the source graph, finds
// cycles, writes diagrams and exports, and records the run.
package analysis

import (
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"codevision/internal/classpath"
	"codevision/internal/diagram"
	cverrors "codevision/internal/errors"
	"codevision/internal/export"
	"codevision/internal/graph"
	"codevision/internal/paths"
	"codevision/internal/scanner"
	"codevision/internal/scc"
	"codevision/internal/slogutil"
	"codevision/internal/store"
)

// SourceBuilder produces the source-derived side of the merge.
type SourceBuilder interface {
	Build(ctx context.Context, repoRoot string, acceptPackages []string) (*graph.Model, error)
}

// RunStore records run lifecycle and persists the final graph.
type RunStore interface {
	CreateRun(ctx context.Context, run *store.Run) error
	FinishRun(ctx context.Context, id string, sum store.RunSummary) error
	FailRun(ctx context.Context, id string, message string) error
	SaveGraph(ctx context.Context, runID string, m *graph.Model) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*store.Run, error)
}

// Request describes one analysis run.
type Request struct {
	RepoRoot            string
	AcceptPackages      []string
	IncludeDependencies bool
	ExcludeJars         []string
	AutoCompile         bool
	MaxCallDepth        int
	// ScanSources enables the source builder. Ignored when SourceGraph is set.
	ScanSources bool
	// SourceGraph is a YAML or JSON graph file used as the source side.
	// Relative paths are resolved against RepoRoot.
	SourceGraph string
	OutputRoot  string
}

// Result is the outcome of a successful run.
type Result struct {
	RunID       string
	OutputDir   string
	Fingerprint string
	// PreviousRun is the latest earlier successful run over an identical
	// classpath, if any.
	PreviousRun string
	Model       *graph.Model
	Diagrams    *diagram.Artifacts
	Exports     *export.Paths
	Summary     store.RunSummary
	Duration    time.Duration
}

// Service wires the pipeline stages together. It holds no per-run state and
// may run several analyses concurrently.
type Service struct {
	resolver   *classpath.Resolver
	structural *scanner.StructuralScanner
	calls      *scanner.CallGraphScanner
	sources    SourceBuilder
	runs       RunStore
	logger     *slog.Logger
	newID      func() string
}

// NewService creates a service. A nil sources disables source scanning and a
// nil runs disables persistence.
func NewService(resolver *classpath.Resolver, sources SourceBuilder, runs RunStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Service{
		resolver:   resolver,
		structural: scanner.NewStructuralScanner(logger),
		calls:      scanner.NewCallGraphScanner(logger),
		sources:    sources,
		runs:       runs,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Analyze executes one run. The run is recorded as RUNNING first and ends as
// SUCCEEDED or FAILED; a failure carries the run id in its details.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.RepoRoot) == "" {
		return nil, cverrors.New(cverrors.InvalidConfig, "repository root is required", nil)
	}
	if strings.TrimSpace(req.OutputRoot) == "" {
		return nil, cverrors.New(cverrors.InvalidConfig, "output root is required", nil)
	}
	repoRoot, err := filepath.Abs(req.RepoRoot)
	if err != nil {
		return nil, cverrors.New(cverrors.InvalidConfig, "invalid repository root", err)
	}

	runID := s.newID()
	outputDir := paths.RunDir(req.OutputRoot, runID)
	logger := s.logger.With("runId", runID)
	start := time.Now()

	if s.runs != nil {
		run := &store.Run{
			ID:             runID,
			RepoRoot:       repoRoot,
			AcceptPackages: req.AcceptPackages,
			Status:         store.RunRunning,
			StartedAt:      start.UTC(),
			OutputDir:      outputDir,
		}
		if err := s.runs.CreateRun(ctx, run); err != nil {
			return nil, err
		}
	}

	logger.Info("Starting analysis", "repo", repoRoot, "accept", strings.Join(req.AcceptPackages, ","))

	res, err := s.run(ctx, logger, runID, repoRoot, outputDir, req)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		if s.runs != nil {
			if ferr := s.runs.FailRun(context.WithoutCancel(ctx), runID, err.Error()); ferr != nil {
				logger.Warn("Failed to record run failure", "error", ferr)
			}
		}
		return nil, withRunID(err, runID)
	}

	if s.runs != nil {
		if err := s.runs.FinishRun(ctx, runID, res.Summary); err != nil {
			return nil, withRunID(err, runID)
		}
	}

	res.Duration = time.Since(start)
	logger.Info("Analysis complete",
		"classes", res.Summary.ClassCount,
		"endpoints", res.Summary.EndpointCount,
		"dependencies", res.Summary.DependencyCount,
		"cyclic", res.Summary.CycleCount,
		"output", res.OutputDir,
		"duration", res.Duration.Round(time.Millisecond),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, runID, repoRoot, outputDir string, req Request) (*Result, error) {
	desc, err := s.resolver.Resolve(ctx, repoRoot, classpath.Options{
		IncludeDependencies: req.IncludeDependencies,
		ExcludeJars:         req.ExcludeJars,
		AutoCompile:         req.AutoCompile,
	})
	if err != nil {
		return nil, err
	}

	fingerprint, err := classpath.Fingerprint(desc)
	if err != nil {
		logger.Warn("Failed to fingerprint classpath", "error", err)
		fingerprint = ""
	}
	previous := s.previousRun(ctx, logger, fingerprint)

	source, err := s.sourceGraph(ctx, repoRoot, req)
	if err != nil {
		return nil, err
	}

	bytecode, err := s.structural.Scan(ctx, desc, req.AcceptPackages)
	if err != nil {
		return nil, err
	}
	calls, err := s.calls.Scan(ctx, desc, req.AcceptPackages)
	if err != nil {
		return nil, err
	}
	calls.Fold(bytecode)

	model := graph.Merge(source, bytecode)
	components := scc.Compute(model.DependencyAdjacency())
	scc.Annotate(model, components)
	logger.Debug("Graph assembled",
		"sourceClasses", len(source.Classes),
		"bytecodeClasses", len(bytecode.Classes),
		"components", components.NumComponents(),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	arts, err := diagram.Write(outputDir, model, diagram.Options{MaxCallDepth: req.MaxCallDepth})
	if err != nil {
		return nil, err
	}
	exports, err := export.WriteAll(outputDir, model)
	if err != nil {
		return nil, err
	}

	if s.runs != nil {
		if err := s.runs.SaveGraph(ctx, runID, model); err != nil {
			return nil, err
		}
	}

	return &Result{
		RunID:       runID,
		OutputDir:   outputDir,
		Fingerprint: fingerprint,
		PreviousRun: previous,
		Model:       model,
		Diagrams:    arts,
		Exports:     exports,
		Summary: store.RunSummary{
			OutputDir:       outputDir,
			Fingerprint:     fingerprint,
			ClassCount:      len(model.Classes),
			EndpointCount:   len(model.Endpoints),
			DependencyCount: len(model.DependencyEdges),
			CycleCount:      model.CountCyclicClasses(),
		},
	}, nil
}

func (s *Service) previousRun(ctx context.Context, logger *slog.Logger, fingerprint string) string {
	if s.runs == nil || fingerprint == "" {
		return ""
	}
	prev, err := s.runs.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		logger.Warn("Failed to look up earlier runs", "error", err)
		return ""
	}
	if prev == nil {
		return ""
	}
	logger.Info("Classpath unchanged since an earlier run", "previousRun", prev.ID)
	return prev.ID
}

// sourceGraph returns the source side of the merge: an imported graph file
// when one is named, else the source builder's output, else an empty graph.
func (s *Service) sourceGraph(ctx context.Context, repoRoot string, req Request) (*graph.Model, error) {
	if req.SourceGraph != "" {
		path := req.SourceGraph
		if !filepath.IsAbs(path) {
			path = filepath.Join(repoRoot, path)
		}
		m, err := graph.LoadFile(path)
		if err != nil {
			return nil, cverrors.New(cverrors.InvalidConfig, "cannot load source graph", err)
		}
		return m, nil
	}
	if req.ScanSources && s.sources != nil {
		m, err := s.sources.Build(ctx, repoRoot, req.AcceptPackages)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return graph.New(), nil
}

// withRunID attaches the run id to the first CvError in err's chain. Errors
// without one are wrapped as internal errors.
func withRunID(err error, runID string) error {
	details := map[string]string{"runId": runID}
	var cv *cverrors.CvError
	if !stderrors.As(err, &cv) {
		return cverrors.New(cverrors.InternalError, "analysis failed", err).WithDetails(details)
	}
	if cv.Details == nil {
		cv.WithDetails(details)
	}
	return err
}
