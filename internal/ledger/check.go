package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Drift compares an account's stored balance with its recomputed one.
type Drift struct {
	AccountID  string
	Stored     decimal.Decimal
	Expected   decimal.Decimal
	Difference decimal.Decimal // Stored - Expected
}

// InSync reports whether the stored balance matches the history.
func (d Drift) InSync() bool {
	return d.Difference.IsZero()
}

// CheckAccount recomputes an account's balance like ReconcileAccount but
// writes nothing.
func (e *Engine) CheckAccount(ctx context.Context, accountID string) (Drift, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return Drift{}, fmt.Errorf("loading account: %w", notFound(ErrAccountNotFound, accountID, err))
	}

	expected, err := e.expectedBalance(ctx, acct)
	if err != nil {
		return Drift{}, err
	}

	return Drift{
		AccountID:  accountID,
		Stored:     acct.CurrentBalance,
		Expected:   expected,
		Difference: acct.CurrentBalance.Sub(expected),
	}, nil
}
