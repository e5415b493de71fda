package main

import (
	"github.com/spf13/cobra"

	"codevision/internal/version"
)

var (
	// verbosity is the count of -v flags
	verbosity int
	// quiet suppresses all log output
	quiet bool
	// logFormat overrides logging.format from the config
	logFormat string
	// repoFlag is the repository root; defaults to the working directory
	repoFlag string
)

var rootCmd = &cobra.Command{
	Use:   "codevision",
	Short: "codevision - structural analysis of compiled JVM projects",
	Long: `codevision reads the compiled classes of a JVM project, merges them with the
source tree, and writes class diagrams, ERDs, sequence diagrams, and CSV/JSON
exports for each analysis run.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("codevision version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: human or json (default from config)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "C", "", "Repository root (default: current directory)")
}
