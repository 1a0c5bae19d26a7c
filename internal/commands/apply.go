package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/ledger"
)

var noAmount decimal.NullDecimal

func newApplyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <account-id> <delta>",
		Short: "Add a signed delta to an account's stored balance",
		Long: "Adds delta to the stored balance after the account type's sign rule:\n" +
			"a positive delta raises a checking balance and lowers what a credit card owes.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("parsing delta %q: %w", args[1], err)
			}

			return opts.withRuntime(cmd, func(rt *Runtime) error {
				res, err := rt.engine.ApplyAccountDelta(cmd.Context(), args[0], delta)
				if err != nil {
					return err
				}

				details := fmt.Sprintf("delta %s; %s", delta, res.Outcome)
				if res.Outcome == ledger.OutcomeAccountMissing {
					rt.record(auditlog.OpApply, args[0], noAmount, noAmount, details)
					return fmt.Errorf("account %s: %w", args[0], ledger.ErrAccountNotFound)
				}

				previous := res.Balance.Sub(res.Adjusted)
				rt.record(auditlog.OpApply, args[0], auditlog.Amount(previous), auditlog.Amount(res.Balance), details)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s (adjusted %s)\n",
					res.AccountID, previous.StringFixed(2), res.Balance.StringFixed(2), res.Adjusted.StringFixed(2))
				return nil
			})
		},
	}
}
