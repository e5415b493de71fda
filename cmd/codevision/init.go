package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codevision/internal/config"
	cverrors "codevision/internal/errors"
	"codevision/internal/project"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize codevision for a repository",
	Long: `Writes codevision.toml with the detected build tool and base package, and
.codevision/config.json with default settings.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return err
	}

	declPath := filepath.Join(repoRoot, project.DeclarationFile)
	configPath := filepath.Join(repoRoot, config.StateDirName, "config.json")
	if !initForce {
		if _, err := os.Stat(declPath); err == nil {
			// Already initialized is success.
			fmt.Println("codevision already initialized.")
			fmt.Printf("Declaration at: %s\n", declPath)
			fmt.Println("\nRun 'codevision init --force' to reinitialize.")
			return nil
		}
	}

	decl := project.Detect(repoRoot)
	if err := project.Write(declPath, decl); err != nil {
		return cverrors.New(cverrors.InternalError, "failed to write "+project.DeclarationFile, err)
	}

	if _, err := os.Stat(configPath); err != nil || initForce {
		if err := config.DefaultConfig().Save(repoRoot); err != nil {
			return cverrors.New(cverrors.InternalError, "failed to write config file", err)
		}
	}

	fmt.Println("codevision initialized successfully!")
	fmt.Printf("Declaration written to: %s\n", declPath)
	if decl.Build != "" {
		fmt.Printf("  Build tool: %s\n", decl.Build)
	}
	if len(decl.Analysis.AcceptPackages) > 0 {
		fmt.Printf("  Accepted packages: %v\n", decl.Analysis.AcceptPackages)
	}
	if modules := project.Modules(repoRoot); len(modules) > 0 {
		fmt.Printf("  Modules: %d (analyze each with --repo, or list them in a batch manifest)\n", len(modules))
	}
	fmt.Printf("Configuration at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Review accept_packages in " + project.DeclarationFile)
	fmt.Println("  2. Run 'codevision analyze'")
	return nil
}
