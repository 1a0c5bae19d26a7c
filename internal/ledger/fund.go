package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/model"
)

// FundReconciliation is the result of recomputing a savings fund.
type FundReconciliation struct {
	FundID   string
	Previous decimal.Decimal
	Balance  decimal.Decimal
}

// ReconcileFundBalance sets a fund's balance to Σdeposits − Σwithdrawals.
// Fund movements have no paid flag and funds have no type, so no sign rule
// applies. An unknown fund returns ErrFundNotFound.
func (e *Engine) ReconcileFundBalance(ctx context.Context, fundID string) (FundReconciliation, error) {
	fund, err := e.store.GetFund(ctx, fundID)
	if err != nil {
		return FundReconciliation{}, fmt.Errorf("loading fund: %w", notFound(ErrFundNotFound, fundID, err))
	}

	deposits, err := e.store.SumMovements(ctx, fundID, model.MovementDeposit)
	if err != nil {
		return FundReconciliation{}, fmt.Errorf("summing deposits for %s: %w", fundID, err)
	}
	withdrawals, err := e.store.SumMovements(ctx, fundID, model.MovementWithdrawal)
	if err != nil {
		return FundReconciliation{}, fmt.Errorf("summing withdrawals for %s: %w", fundID, err)
	}

	balance := deposits.Sub(withdrawals)
	if err := e.store.SetFundBalance(ctx, fundID, balance); err != nil {
		return FundReconciliation{}, fmt.Errorf("storing fund balance: %w", notFound(ErrFundNotFound, fundID, err))
	}

	e.log.WithFields(logrus.Fields{
		"fund_id":  fundID,
		"previous": fund.CurrentBalance.String(),
		"balance":  balance.String(),
	}).Debug("fund reconciled")
	return FundReconciliation{FundID: fundID, Previous: fund.CurrentBalance, Balance: balance}, nil
}
