package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// AccountFailure records one account the sweep could not reconcile.
type AccountFailure struct {
	AccountID string
	Err       error
}

// SweepResult summarizes ReconcileAllAccounts.
type SweepResult struct {
	UserID     string
	Considered int
	Updated    int
	Results    []Reconciliation
	Failures   []AccountFailure
}

// ReconcileAllAccounts reconciles every account the user owns, archived ones
// included. A failure on one account (for example, deleted mid-sweep) is
// recorded in Failures and does not stop the sweep; only a failure to list the
// accounts is returned as an error.
func (e *Engine) ReconcileAllAccounts(ctx context.Context, userID string) (SweepResult, error) {
	ids, err := e.store.ListAccountIDs(ctx, userID)
	if err != nil {
		return SweepResult{}, fmt.Errorf("listing accounts for user %s: %w", userID, err)
	}

	recs := make([]Reconciliation, len(ids))
	errs := make([]error, len(ids))

	if e.sweepConcurrency > 1 {
		var g errgroup.Group
		g.SetLimit(e.sweepConcurrency)
		for i, accountID := range ids {
			g.Go(func() error {
				recs[i], errs[i] = e.ReconcileAccount(ctx, accountID)
				return nil
			})
		}
		_ = g.Wait() // workers never return errors; failures are in errs
	} else {
		for i, accountID := range ids {
			recs[i], errs[i] = e.ReconcileAccount(ctx, accountID)
		}
	}

	result := SweepResult{UserID: userID, Considered: len(ids)}
	for i, accountID := range ids {
		if errs[i] != nil {
			e.log.WithFields(logrus.Fields{"user_id": userID, "account_id": accountID}).
				WithError(errs[i]).Warn("sweep: account not reconciled")
			result.Failures = append(result.Failures, AccountFailure{AccountID: accountID, Err: errs[i]})
			continue
		}
		result.Updated++
		result.Results = append(result.Results, recs[i])
	}

	e.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"considered": result.Considered,
		"updated":    result.Updated,
	}).Info("sweep finished")
	return result, nil
}
