package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"codevision/internal/batch"
	cverrors "codevision/internal/errors"
)

var (
	batchFormat   string
	batchParallel int
	batchNoStore  bool
	batchAccept   []string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze many projects from a manifest",
	Long: `Run analyses for every [[project]] in a TOML manifest.

Examples:
  codevision batch run projects.toml
  codevision batch run projects.toml --parallel 4
  codevision batch add projects.toml orders ../orders --accept com.acme.orders`,
}

var batchRunCmd = &cobra.Command{
	Use:   "run <manifest>",
	Short: "Analyze every project in the manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

var batchAddCmd = &cobra.Command{
	Use:   "add <manifest> <name> <path>",
	Short: "Add a project to a manifest, creating it if needed",
	Args:  cobra.ExactArgs(3),
	RunE:  runBatchAdd,
}

func init() {
	batchRunCmd.Flags().StringVar(&batchFormat, "format", "human", "Output format (json, human)")
	batchRunCmd.Flags().IntVar(&batchParallel, "parallel", 0, "Override max_parallel from the manifest")
	batchRunCmd.Flags().BoolVar(&batchNoStore, "no-store", false, "Do not record runs in the analysis store")

	batchAddCmd.Flags().StringSliceVar(&batchAccept, "accept", nil, "Accepted package prefixes for the project")

	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchAddCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if err := s.validate(); err != nil {
		return err
	}
	m, err := batch.Load(args[0])
	if err != nil {
		return err
	}
	if batchParallel > 0 {
		m.MaxParallel = batchParallel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, closeStore, err := s.newService(!batchNoStore)
	defer closeStore()
	if err != nil {
		return err
	}

	outcomes := batch.Run(ctx, svc, m, s.request(s.repoRoot), s.logger)

	resp := &BatchResponseCLI{Projects: make([]BatchProjectCLI, 0, len(outcomes))}
	for _, o := range outcomes {
		p := BatchProjectCLI{
			Name:       o.Project,
			RunID:      o.RunID,
			OutputDir:  o.OutputDir,
			Classes:    o.Summary.ClassCount,
			Endpoints:  o.Summary.EndpointCount,
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			p.Error = o.Err.Error()
			resp.Failed++
		}
		resp.Projects = append(resp.Projects, p)
	}

	out, err := FormatResponse(resp, OutputFormat(batchFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)

	if resp.Failed > 0 {
		return cverrors.Newf(cverrors.InternalError, "%d of %d project(s) failed", resp.Failed, len(outcomes))
	}
	return nil
}

func runBatchAdd(cmd *cobra.Command, args []string) error {
	manifestPath, name, path := args[0], args[1], args[2]

	m := &batch.Manifest{}
	if _, err := os.Stat(manifestPath); err == nil {
		loaded, err := batch.Load(manifestPath)
		if err != nil {
			return err
		}
		m = loaded
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := m.AddProject(batch.Project{Name: name, Path: abs, AcceptPackages: batchAccept}); err != nil {
		return cverrors.New(cverrors.InvalidConfig, "cannot add project", err)
	}
	if err := m.Save(manifestPath); err != nil {
		return err
	}
	fmt.Printf("Added %s (%s) to %s\n", name, abs, manifestPath)
	return nil
}
