package classpath

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	cverrors "codevision/internal/errors"
	"codevision/internal/slogutil"
)

// Conventional layout relative to the project root.
const (
	MavenClassesDir  = "target/classes"
	GradleClassesDir = "build/classes/java/main"
	DependencyList   = "target/classpath.txt"
)

var (
	compileArgs = []string{"-q", "-DskipTests", "compile"}
	depListArgs = []string{"-q", "-DincludeScope=compile", "-DoutputFile=" + DependencyList, "dependency:build-classpath"}
)

// Options controls a single resolution.
type Options struct {
	// IncludeDependencies adds the project's compile-scope archives.
	IncludeDependencies bool
	// ExcludeJars are case-insensitive file-name globs; '*' matches any run.
	ExcludeJars []string
	// AutoCompile allows the resolver to invoke the build tool.
	AutoCompile bool
}

// Resolver turns a project root into a Descriptor.
type Resolver struct {
	runner BuildRunner
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil runner disables every build step.
func NewResolver(runner BuildRunner, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Resolver{runner: runner, logger: logger}
}

// Resolve locates the compiled classes of repoRoot, compiling first when
// allowed, and optionally appends the dependency archives.
func (r *Resolver) Resolve(ctx context.Context, repoRoot string, opts Options) (*Descriptor, error) {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	classesDir := locateClasses(root)
	if classesDir == "" && r.canBuild(root, opts) {
		r.logger.Info("Compiled classes missing, running build", "root", root)
		if err := r.runner.Run(ctx, root, compileArgs...); err != nil {
			return nil, err
		}
		classesDir = locateClasses(root)
	}
	if classesDir == "" {
		return nil, cverrors.Newf(cverrors.ClassesNotFound,
			"no compiled classes under %s (looked for %s and %s)", root, MavenClassesDir, GradleClassesDir)
	}

	entries := []string{classesDir}
	if opts.IncludeDependencies {
		deps, err := r.dependencies(ctx, root, opts)
		if err != nil {
			return nil, err
		}
		excludes := compileGlobs(opts.ExcludeJars)
		for _, dep := range deps {
			if matchesAny(excludes, filepath.Base(dep)) {
				r.logger.Debug("Excluded dependency", "path", dep)
				continue
			}
			entries = append(entries, dep)
		}
	}

	desc := NewDescriptor(root, classesDir, entries)
	r.logger.Info("Classpath resolved", "classes", classesDir, "entries", desc.Len())
	return desc, nil
}

func (r *Resolver) canBuild(root string, opts Options) bool {
	return opts.AutoCompile && r.runner != nil && fileExists(filepath.Join(root, "pom.xml"))
}

// dependencies returns the archive list written by the build tool. A missing
// or empty list only loses the dependency archives.
func (r *Resolver) dependencies(ctx context.Context, root string, opts Options) ([]string, error) {
	if r.canBuild(root, opts) {
		if err := r.runner.Run(ctx, root, depListArgs...); err != nil {
			return nil, err
		}
	}

	listPath := filepath.Join(root, filepath.FromSlash(DependencyList))
	data, err := os.ReadFile(listPath)
	if err != nil {
		r.logger.Warn("Dependency list unavailable, scanning compiled classes only", "path", listPath, "error", err)
		return nil, nil
	}
	deps := ParseDependencyList(string(data))
	if len(deps) == 0 {
		r.logger.Warn("Dependency list is empty", "path", listPath)
	}
	return deps, nil
}

// ParseDependencyList splits the build tool's list on newlines and the
// platform path separator, ignoring blanks.
func ParseDependencyList(content string) []string {
	sep := string(os.PathListSeparator)
	var out []string
	for _, line := range strings.Split(content, "\n") {
		for _, part := range strings.Split(line, sep) {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func locateClasses(root string) string {
	for _, rel := range []string{MavenClassesDir, GradleClassesDir} {
		dir := filepath.Join(root, filepath.FromSlash(rel))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// compileGlobs turns wildcard patterns into anchored, lowercase expressions.
func compileGlobs(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, ".*") + "$"
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

// MatchesGlob reports whether name matches the wildcard pattern, ignoring case.
func MatchesGlob(pattern, name string) bool {
	return matchesAny(compileGlobs([]string{pattern}), name)
}

func matchesAny(globs []*regexp.Regexp, name string) bool {
	lower := strings.ToLower(name)
	for _, g := range globs {
		if g.MatchString(lower) {
			return true
		}
	}
	return false
}
