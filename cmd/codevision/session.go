package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"codevision/internal/analysis"
	"codevision/internal/classpath"
	"codevision/internal/config"
	cverrors "codevision/internal/errors"
	"codevision/internal/javasrc"
	"codevision/internal/project"
	"codevision/internal/slogutil"
	"codevision/internal/store"
)

// session is the configuration and logger of one command invocation against
// one repository.
type session struct {
	repoRoot string
	cfg      *config.Config
	decl     *project.File
	logger   *slog.Logger
}

func newSession() (*session, error) {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, cverrors.New(cverrors.InvalidConfig, "failed to load configuration", err)
	}
	decl, err := project.Load(repoRoot)
	if err != nil {
		return nil, cverrors.New(cverrors.InvalidConfig, "failed to load "+project.DeclarationFile, err)
	}
	decl.Apply(cfg)

	return &session{
		repoRoot: repoRoot,
		cfg:      cfg,
		decl:     decl,
		logger:   newLogger(os.Stderr, cfg),
	}, nil
}

// getRepoRoot returns the absolute repository root.
func getRepoRoot() (string, error) {
	root := repoFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", cverrors.New(cverrors.InternalError, "failed to get current directory", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", cverrors.New(cverrors.InvalidConfig, "invalid repository root", err)
	}
	return abs, nil
}

// newLogger builds the command logger. Flags win over the config.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet, slogutil.LevelFromString(cfg.Logging.Level))
	return slogutil.New(w, format, level)
}

func (s *session) validate() error {
	if err := s.cfg.Validate(); err != nil {
		return cverrors.New(cverrors.InvalidConfig, "invalid configuration", err)
	}
	return nil
}

func (s *session) openStore() (*store.Store, error) {
	return store.Open(s.cfg.StorePath(s.repoRoot), s.logger)
}

// newService wires the analysis pipeline. The returned func releases the
// store, if one was opened.
func (s *session) newService(persist bool) (*analysis.Service, func(), error) {
	runner := classpath.NewMavenRunner(s.cfg.Compile.MavenExecutable, s.cfg.Compile.MaxRuntimeSeconds, s.cfg.Compile.MaxHeapMb, s.logger)
	resolver := classpath.NewResolver(runner, s.logger)

	var sources analysis.SourceBuilder
	if s.cfg.Analysis.ScanSources {
		sources = javasrc.NewBuilder(s.logger)
	}

	closeFn := func() {}
	var runs analysis.RunStore
	if persist && s.cfg.Store.Enabled {
		st, err := s.openStore()
		if err != nil {
			return nil, closeFn, err
		}
		runs = st
		closeFn = func() {
			if err := st.Close(); err != nil {
				s.logger.Warn("Failed to close store", "error", err)
			}
		}
	}
	return analysis.NewService(resolver, sources, runs, s.logger), closeFn, nil
}

// request builds an analysis request for repoRoot from the merged config.
func (s *session) request(repoRoot string) analysis.Request {
	return analysis.Request{
		RepoRoot:            repoRoot,
		AcceptPackages:      append([]string(nil), s.cfg.Analysis.AcceptPackages...),
		IncludeDependencies: s.cfg.Analysis.IncludeDependencies,
		ExcludeJars:         append([]string(nil), s.cfg.Filters.ExcludeJars...),
		AutoCompile:         s.cfg.Compile.AutoCompile,
		MaxCallDepth:        s.cfg.Analysis.MaxCallDepth,
		ScanSources:         s.cfg.Analysis.ScanSources,
		SourceGraph:         s.decl.SourceGraphPath(repoRoot),
		OutputRoot:          s.cfg.OutputRoot(repoRoot),
	}
}

// printError writes err and, for typed errors, its suggested fixes.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	var cv *cverrors.CvError
	if !stderrors.As(err, &cv) {
		return
	}
	for _, fix := range cv.SuggestedFixes {
		switch {
		case fix.Command != "" && fix.Description != "":
			fmt.Fprintf(w, "  hint: %s: %s\n", fix.Description, fix.Command)
		case fix.Command != "":
			fmt.Fprintf(w, "  hint: %s\n", fix.Command)
		case fix.Description != "":
			fmt.Fprintf(w, "  hint: %s\n", fix.Description)
		}
	}
}
