// Package movements records transaction and savings-movement mutations and
// keeps the affected balances current as they happen.
package movements

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service persists mutations and triggers the matching balance update:
// ApplyAccountDelta for transactions, ReconcileFundBalance for fund movements.
type Service struct {
	store  store.Store
	engine *ledger.Engine
	log    logrus.FieldLogger
}

// NewService creates a movement Service.
func NewService(s store.Store, engine *ledger.Engine, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, engine: engine, log: log}
}

// CreateTransaction stores txn and applies its contribution if it is paid.
func (s *Service) CreateTransaction(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	if err := s.store.CreateTransaction(ctx, &txn); err != nil {
		return model.Transaction{}, fmt.Errorf("creating transaction: %w", err)
	}
	if err := s.apply(ctx, txn.AccountID, ledger.Contribution(txn)); err != nil {
		return txn, err
	}
	return txn, nil
}

// UpdateTransaction replaces a stored transaction and applies the difference
// between its old and new contributions. Moving a transaction between accounts
// reverses it on the old account and applies it on the new one.
func (s *Service) UpdateTransaction(ctx context.Context, next model.Transaction) (model.Transaction, error) {
	prev, err := s.store.GetTransaction(ctx, next.ID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction: %w", err)
	}
	if err := s.store.UpdateTransaction(ctx, next); err != nil {
		return model.Transaction{}, fmt.Errorf("updating transaction: %w", err)
	}

	before := ledger.Contribution(prev)
	after := ledger.Contribution(next)
	if prev.AccountID != next.AccountID {
		if err := s.apply(ctx, prev.AccountID, before.Neg()); err != nil {
			return next, err
		}
		return next, s.apply(ctx, next.AccountID, after)
	}
	return next, s.apply(ctx, next.AccountID, after.Sub(before))
}

// SetPaid marks a transaction paid or unpaid.
func (s *Service) SetPaid(ctx context.Context, txnID string, paid bool) (model.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction: %w", err)
	}
	if txn.IsPaid == paid {
		return txn, nil
	}
	txn.IsPaid = paid
	return s.UpdateTransaction(ctx, txn)
}

// DeleteTransaction removes a transaction and reverses its contribution.
func (s *Service) DeleteTransaction(ctx context.Context, txnID string) error {
	prev, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return fmt.Errorf("loading transaction: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, txnID); err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	return s.apply(ctx, prev.AccountID, ledger.Contribution(prev).Neg())
}

// RecordMovement stores a savings movement and reconciles its fund.
func (s *Service) RecordMovement(ctx context.Context, mv model.SavingsMovement) (model.SavingsMovement, error) {
	if err := s.store.CreateMovement(ctx, &mv); err != nil {
		return model.SavingsMovement{}, fmt.Errorf("recording movement: %w", err)
	}
	if _, err := s.engine.ReconcileFundBalance(ctx, mv.FundID); err != nil {
		return mv, err
	}
	return mv, nil
}

// UpdateMovement replaces a movement and reconciles every fund it touched.
func (s *Service) UpdateMovement(ctx context.Context, next model.SavingsMovement) (model.SavingsMovement, error) {
	prev, err := s.store.GetMovement(ctx, next.ID)
	if err != nil {
		return model.SavingsMovement{}, fmt.Errorf("loading movement: %w", err)
	}
	if err := s.store.UpdateMovement(ctx, next); err != nil {
		return model.SavingsMovement{}, fmt.Errorf("updating movement: %w", err)
	}
	if prev.FundID != next.FundID {
		if _, err := s.engine.ReconcileFundBalance(ctx, prev.FundID); err != nil {
			return next, err
		}
	}
	if _, err := s.engine.ReconcileFundBalance(ctx, next.FundID); err != nil {
		return next, err
	}
	return next, nil
}

// DeleteMovement removes a movement and reconciles its fund.
func (s *Service) DeleteMovement(ctx context.Context, movementID string) error {
	prev, err := s.store.GetMovement(ctx, movementID)
	if err != nil {
		return fmt.Errorf("loading movement: %w", err)
	}
	if err := s.store.DeleteMovement(ctx, movementID); err != nil {
		return fmt.Errorf("deleting movement: %w", err)
	}
	_, err = s.engine.ReconcileFundBalance(ctx, prev.FundID)
	return err
}

func (s *Service) apply(ctx context.Context, accountID string, delta decimal.Decimal) error {
	if accountID == "" || delta.IsZero() {
		return nil
	}
	res, err := s.engine.ApplyAccountDelta(ctx, accountID, delta)
	if err != nil {
		return fmt.Errorf("applying delta to account %s: %w", accountID, err)
	}
	if res.Outcome == ledger.OutcomeAccountMissing {
		s.log.WithField("account_id", accountID).Warn("transaction saved but account is gone; balance left untouched")
	}
	return nil
}
