package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/ledger"
)

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute stored balances from history",
	}
	cmd.AddCommand(newReconcileAccountCommand(opts))
	cmd.AddCommand(newReconcileAllCommand(opts))
	cmd.AddCommand(newReconcileFundCommand(opts))
	return cmd
}

func newReconcileAccountCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account <account-id>",
		Short: "Recompute one account's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				rec, err := rt.engine.ReconcileAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rt.record(auditlog.OpReconcileAccount, rec.AccountID,
					auditlog.Amount(rec.Previous), auditlog.Amount(rec.Balance), changedDetail(rec.Changed()))
				printReconciliation(cmd, rec)
				return nil
			})
		},
	}
}

func newReconcileAllCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Recompute every account a user owns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				res, err := rt.engine.ReconcileAllAccounts(cmd.Context(), userID)
				if err != nil {
					return err
				}

				for _, rec := range res.Results {
					if rec.Changed() {
						rt.record(auditlog.OpReconcileAccount, rec.AccountID,
							auditlog.Amount(rec.Previous), auditlog.Amount(rec.Balance), "corrected during sweep")
					}
					printReconciliation(cmd, rec)
				}
				for _, f := range res.Failures {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: failed: %v\n", f.AccountID, f.Err)
				}
				rt.record(auditlog.OpReconcileAll, userID, noAmount, noAmount,
					fmt.Sprintf("considered %d, updated %d, failed %d", res.Considered, res.Updated, len(res.Failures)))
				fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d of %d accounts\n", res.Updated, res.Considered)

				if len(res.Failures) > 0 {
					return fmt.Errorf("%d of %d accounts failed to reconcile", len(res.Failures), res.Considered)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newReconcileFundCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fund <fund-id>",
		Short: "Recompute a savings fund's balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				rec, err := rt.engine.ReconcileFundBalance(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				changed := !rec.Previous.Equal(rec.Balance)
				rt.record(auditlog.OpReconcileFund, rec.FundID,
					auditlog.Amount(rec.Previous), auditlog.Amount(rec.Balance), changedDetail(changed))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n",
					rec.FundID, rec.Previous.StringFixed(2), rec.Balance.StringFixed(2))
				return nil
			})
		},
	}
}

func printReconciliation(cmd *cobra.Command, rec ledger.Reconciliation) {
	mark := ""
	if rec.Changed() {
		mark = " (corrected)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s%s\n",
		rec.AccountID, rec.Previous.StringFixed(2), rec.Balance.StringFixed(2), mark)
}

func changedDetail(changed bool) string {
	if changed {
		return "drift corrected"
	}
	return "in sync"
}
