// Package accounts opens and lists the balance holders: accounts and savings
// funds.
package accounts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Service creates accounts and funds with consistent opening balances.
type Service struct {
	store store.Store
	log   logrus.FieldLogger
}

// NewService creates a Service.
func NewService(s store.Store, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: s, log: log}
}

// Open creates an account whose current balance starts at its initial
// balance. Any CurrentBalance on acct is ignored.
func (s *Service) Open(ctx context.Context, acct model.Account) (model.Account, error) {
	acct.CurrentBalance = acct.InitialBalance
	if err := s.store.CreateAccount(ctx, &acct); err != nil {
		return model.Account{}, fmt.Errorf("opening account: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"account_id": acct.ID,
		"user_id":    acct.UserID,
		"type":       acct.Type,
		"balance":    acct.CurrentBalance.String(),
	}).Debug("account opened")
	return acct, nil
}

// OpenFund creates an empty savings fund. Money enters through movements.
func (s *Service) OpenFund(ctx context.Context, fund model.SavingsFund) (model.SavingsFund, error) {
	fund.CurrentBalance = decimal.Zero
	if err := s.store.CreateFund(ctx, &fund); err != nil {
		return model.SavingsFund{}, fmt.Errorf("opening fund: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"fund_id": fund.ID,
		"user_id": fund.UserID,
	}).Debug("fund opened")
	return fund, nil
}

// List returns the user's accounts, archived included.
func (s *Service) List(ctx context.Context, userID string) ([]model.Account, error) {
	accts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts for %s: %w", userID, err)
	}
	return accts, nil
}

// ListFunds returns the user's savings funds.
func (s *Service) ListFunds(ctx context.Context, userID string) ([]model.SavingsFund, error) {
	funds, err := s.store.ListFunds(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing funds for %s: %w", userID, err)
	}
	return funds, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, accountID string) (model.Account, error) {
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return model.Account{}, fmt.Errorf("getting account: %w", err)
	}
	return acct, nil
}
