package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/accounts"
)

func newAccountsCommand(opts *rootOptions) *cobra.Command {
	var userID string
	var export bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List a user's accounts and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				accts, err := rt.accounts.List(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if export {
					return accounts.WriteAccounts(cmd.OutOrStdout(), accts)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE\tAVAILABLE\tARCHIVED")
				for _, a := range accts {
					available := "-"
					if avail, ok := a.AvailableCredit(); ok {
						available = avail.StringFixed(2)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						a.ID, a.Name, a.Type, a.CurrentBalance.StringFixed(2), available, strconv.FormatBool(a.Archived))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().BoolVar(&export, "export", false, "write accounts as an importable CSV")

	return cmd
}

func newFundsCommand(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "funds",
		Short: "List a user's savings funds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				funds, err := rt.accounts.ListFunds(cmd.Context(), userID)
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tBALANCE\tTARGET")
				for _, f := range funds {
					target := "-"
					if f.TargetAmount != nil {
						target = f.TargetAmount.StringFixed(2)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.CurrentBalance.StringFixed(2), target)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
