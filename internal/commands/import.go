package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load CSV files from import/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				im := importer.New(nil, rt.store, rt.accounts, rt.movements, rt.log)
				sum, err := im.Run(cmd.Context(), rt.repoRoot)
				for _, f := range sum.Files {
					rt.record(auditlog.OpImport, f.Name, noAmount, noAmount, fmt.Sprintf("%s: %d rows", f.Format, f.Rows))
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(sum.Files) == 0 {
					fmt.Fprintln(out, "Nothing to import")
					return nil
				}
				for _, f := range sum.Files {
					fmt.Fprintf(out, "%-30s %-12s %d rows\n", f.Name, f.Format, f.Rows)
				}
				fmt.Fprintf(out, "Imported %d accounts, %d funds, %d transactions, %d movements\n",
					sum.Accounts, sum.Funds, sum.Transactions, sum.Movements)
				if sum.Skipped > 0 {
					fmt.Fprintf(out, "Skipped %d rows already imported\n", sum.Skipped)
				}
				return nil
			})
		},
	}
}
