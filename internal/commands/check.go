package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
)

// errDrift makes `tally check` exit non-zero when a balance is out of sync.
var errDrift = errors.New("stored balance does not match history")

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <account-id>",
		Short: "Compare an account's stored balance with its history without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				drift, err := rt.engine.CheckAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "stored:   %s\n", drift.Stored.StringFixed(2))
				fmt.Fprintf(out, "expected: %s\n", drift.Expected.StringFixed(2))
				if drift.InSync() {
					fmt.Fprintln(out, "in sync")
					rt.record(auditlog.OpCheck, drift.AccountID, auditlog.Amount(drift.Stored), auditlog.Amount(drift.Expected), "in sync")
					return nil
				}

				fmt.Fprintf(out, "drift:    %s\n", drift.Difference.StringFixed(2))
				rt.record(auditlog.OpCheck, drift.AccountID, auditlog.Amount(drift.Stored), auditlog.Amount(drift.Expected),
					"drift "+drift.Difference.String())
				return fmt.Errorf("account %s: %w", drift.AccountID, errDrift)
			})
		},
	}
}
