package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"codevision/internal/analysis"
	"codevision/internal/config"
	"codevision/internal/slogutil"
	"codevision/internal/store"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Outcome is the result of one project's analysis.
type Outcome struct {
	Project   string
	RunID     string
	OutputDir string
	Summary   store.RunSummary
	Duration  time.Duration
	Err       error
}

// Run analyses every project in the manifest, at most MaxParallel at a time.
// A failing project does not stop the others. Outcomes are returned in
// manifest order. base supplies the settings a project does not override.
func Run(ctx context.Context, a Analyzer, m *Manifest, base analysis.Request, logger *slog.Logger) []Outcome {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	limit := m.MaxParallel
	if limit <= 0 {
		limit = DefaultMaxParallel
	}

	outcomes := make([]Outcome, len(m.Projects))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, p := range m.Projects {
		i, p := i, p
		g.Go(func() error {
			req := requestFor(m, p, base)
			start := time.Now()
			out := Outcome{Project: p.Name}
			if err := ctx.Err(); err != nil {
				out.Err = err
				outcomes[i] = out
				return nil
			}

			logger.Info("Analysing project", "project", p.Name, "path", p.Path)
			res, err := a.Analyze(ctx, req)
			out.Duration = time.Since(start)
			if err != nil {
				logger.Warn("Project analysis failed", "project", p.Name, "error", err)
				out.Err = err
			} else {
				out.RunID = res.RunID
				out.OutputDir = res.OutputDir
				out.Summary = res.Summary
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("Batch complete", "projects", len(outcomes), "failed", failed)
	return outcomes
}

func requestFor(m *Manifest, p Project, base analysis.Request) analysis.Request {
	req := base
	req.RepoRoot = p.Path
	// A source graph file belongs to a single repository.
	req.SourceGraph = ""
	if len(p.AcceptPackages) > 0 {
		req.AcceptPackages = append([]string(nil), p.AcceptPackages...)
	}
	if p.IncludeDependencies != nil {
		req.IncludeDependencies = *p.IncludeDependencies
	}
	if m.OutputRoot != "" {
		req.OutputRoot = filepath.Join(m.OutputRoot, p.Name)
	} else {
		req.OutputRoot = filepath.Join(p.Path, config.StateDirName, "runs")
	}
	return req
}
