package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/gitops"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/backend"
)

func newInitCommand() *cobra.Command {
	var driver string
	var dsn string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tally repo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), absDir, driver, dsn, useGit)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", store.DriverSQLite, "store driver (memory, sqlite, postgres, bolt)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "store location; defaults to a file under data/ for sqlite and bolt")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize git and commit the reconcile log after each command")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, dir, driver, dsn string, useGit bool) error {
	cfg := config.Default(driver)
	if dsn != "" {
		cfg.Store.DSN = dsn
	}
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{
		"data",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Opening the store creates its schema.
	s, err := backend.Open(cfg.Store.Driver, cfg.Store.DSN, dir)
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	gitignore := "data/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !useGit {
		fmt.Fprintf(out, "Initialized tally repo at %s (%s)\n", dir, cfg.Store.Driver)
		return nil
	}

	if err := gitops.Init(ctx, dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitPaths(ctx, dir, "init: tally repo", author,
		config.FileName, ".gitignore", filepath.Join("import", ".gitkeep"))
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(out, "Initialized tally repo at %s (%s, %s)\n", dir, cfg.Store.Driver, hash)
	return nil
}
