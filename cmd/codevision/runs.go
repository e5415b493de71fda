package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"codevision/internal/export"
	"codevision/internal/store"
)

var (
	runsFormat   string
	runsLimit    int
	exportOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded analysis runs",
	Long: `List recorded runs, show one run, list its output files, or copy one out.

Examples:
  codevision runs list --limit 5
  codevision runs show <run-id>
  codevision runs files <run-id>
  codevision runs export <run-id> entities.csv -o entities.csv
  codevision runs graph <run-id> > analysis.json`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its entities",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsFilesCmd = &cobra.Command{
	Use:   "files <run-id>",
	Short: "List the output files of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsFiles,
}

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id> <file>",
	Short: "Copy one output file of a run to stdout or a path",
	Args:  cobra.ExactArgs(2),
	RunE:  runRunsExport,
}

var runsGraphCmd = &cobra.Command{
	Use:   "graph <run-id>",
	Short: "Print the stored graph snapshot of a run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsGraph,
}

func init() {
	runsListCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list")
	runsShowCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")
	runsFilesCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")
	runsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Destination path (default: stdout)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsFilesCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsGraphCmd)
	rootCmd.AddCommand(runsCmd)
}

// withStore opens the repository's store for the duration of fn.
func withStore(fn func(ctx context.Context, st *store.Store) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	st, err := s.openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(context.Background(), st)
}

func printResponse(resp interface{}) error {
	out, err := FormatResponse(resp, OutputFormat(runsFormat))
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		return printResponse(&RunListCLI{Runs: runs})
	})
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		entities, err := st.EntityClasses(ctx, run.ID)
		if err != nil {
			return err
		}
		if entities == nil {
			entities = []string{}
		}
		return printResponse(&RunDetailCLI{Run: run, Entities: entities})
	})
}

func runRunsFiles(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		files, err := export.ListFiles(run.OutputDir)
		if err != nil {
			return err
		}
		return printResponse(&RunFilesCLI{RunID: run.ID, Dir: run.OutputDir, Files: files})
	})
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		path, err := export.ResolveFile(run.OutputDir, args[1])
		if err != nil {
			return err
		}
		return copyFile(path, exportOutput, os.Stdout)
	})
}

func runRunsGraph(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		m, err := st.LoadSnapshot(ctx, args[0])
		if err != nil {
			return err
		}
		out, err := formatJSON(m)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	})
}

// copyFile copies src to dest, or to stdout when dest is empty.
func copyFile(src, dest string, stdout io.Writer) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if dest == "" {
		_, err = io.Copy(stdout, in)
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
