package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/model"
)

// Reconciliation is the result of recomputing one account.
type Reconciliation struct {
	AccountID string
	Previous  decimal.Decimal // stored balance before the write
	Balance   decimal.Decimal // recomputed and stored balance
}

// Changed reports whether the recompute corrected drift.
func (r Reconciliation) Changed() bool {
	return !r.Previous.Equal(r.Balance)
}

// ReconcileAccount recomputes an account's balance as its initial balance plus
// every paid transaction, signed per the account type, and stores the result.
// Unpaid transactions are ignored. Running it twice with no movement changes in
// between yields the same balance and the same write.
//
// The caller is responsible for confirming the account belongs to the
// requesting user. An unknown account returns ErrAccountNotFound.
func (e *Engine) ReconcileAccount(ctx context.Context, accountID string) (Reconciliation, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("loading account: %w", notFound(ErrAccountNotFound, accountID, err))
	}

	balance, err := e.expectedBalance(ctx, acct)
	if err != nil {
		return Reconciliation{}, err
	}

	if err := e.store.SetAccountBalance(ctx, accountID, balance); err != nil {
		return Reconciliation{}, fmt.Errorf("storing balance: %w", notFound(ErrAccountNotFound, accountID, err))
	}

	rec := Reconciliation{AccountID: accountID, Previous: acct.CurrentBalance, Balance: balance}
	log := e.log.WithFields(logrus.Fields{
		"account_id": accountID,
		"previous":   rec.Previous.String(),
		"balance":    rec.Balance.String(),
	})
	if rec.Changed() {
		log.Info("account balance corrected")
	} else {
		log.Debug("account balance in sync")
	}
	return rec, nil
}

// expectedBalance is initial + sign(income)·Σincome + sign(expense)·Σexpense
// over paid transactions.
func (e *Engine) expectedBalance(ctx context.Context, acct model.Account) (decimal.Decimal, error) {
	income, err := e.store.SumPaidTransactions(ctx, acct.ID, model.TransactionIncome)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing paid income for %s: %w", acct.ID, err)
	}
	expense, err := e.store.SumPaidTransactions(ctx, acct.ID, model.TransactionExpense)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing paid expenses for %s: %w", acct.ID, err)
	}

	return acct.InitialBalance.
		Add(signedFor(acct.Type, model.TransactionIncome, income)).
		Add(signedFor(acct.Type, model.TransactionExpense, expense)), nil
}
