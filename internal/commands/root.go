package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	repoDir string
}

func (o *rootOptions) repoRoot() (string, error) {
	abs, err := filepath.Abs(o.repoDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// withRuntime opens a Runtime for the command, runs fn and closes it.
func (o *rootOptions) withRuntime(cmd *cobra.Command, fn func(rt *Runtime) error) (err error) {
	root, err := o.repoRoot()
	if err != nil {
		return err
	}
	rt, err := NewRuntime(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(rt)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Keep account and savings balances consistent with their history",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.repoDir, "repo", ".", "repository directory")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newFundsCommand(opts))
	rootCmd.AddCommand(newApplyCommand(opts))
	rootCmd.AddCommand(newReconcileCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}
