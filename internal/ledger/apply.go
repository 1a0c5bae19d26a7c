package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// ApplyResult describes one ApplyAccountDelta call.
type ApplyResult struct {
	AccountID string
	Outcome   Outcome
	// Adjusted is the delta actually added to the stored balance, after the
	// account type's sign rule.
	Adjusted decimal.Decimal
	// Balance is the stored balance after the add. Zero when nothing was applied.
	Balance decimal.Decimal
}

// ApplyAccountDelta adds delta to an account's stored balance without reading
// its history. delta uses the debit-like convention: positive for income,
// negative for expense. Credit cards receive the negated delta.
//
// A missing account yields OutcomeAccountMissing and a nil error. A delta with
// more than model.MaxScale decimal places is rejected with ErrDeltaScale before
// anything is read or written. Storage failures are returned as-is.
func (e *Engine) ApplyAccountDelta(ctx context.Context, accountID string, delta decimal.Decimal) (ApplyResult, error) {
	if model.CheckScale("delta", delta) != nil {
		return ApplyResult{AccountID: accountID}, fmt.Errorf("applying %s to account %s: %w", delta, accountID, ErrDeltaScale)
	}

	result := ApplyResult{AccountID: accountID, Outcome: OutcomeAccountMissing}
	log := e.log.WithFields(logrus.Fields{"account_id": accountID, "delta": delta.String()})

	acct, err := e.store.GetAccount(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("apply skipped: account not found")
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("loading account %s: %w", accountID, err)
	}

	adjusted := signedFor(acct.Type, model.TransactionIncome, delta)
	balance, err := e.store.AddAccountBalance(ctx, accountID, adjusted)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted between the read and the write.
		log.Warn("apply skipped: account deleted before write")
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("adding %s to account %s: %w", adjusted, accountID, err)
	}

	result.Outcome = OutcomeApplied
	result.Adjusted = adjusted
	result.Balance = balance
	log.WithField("balance", balance.String()).Debug("delta applied")
	return result, nil
}
