// Package memory is an in-process store backed by maps. It is the reference
// backend for engine tests and the "memory" driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Store holds every row in memory behind a single mutex.
type Store struct {
	mu           sync.Mutex
	accounts     map[string]model.Account
	transactions map[string]model.Transaction
	funds        map[string]model.SavingsFund
	movements    map[string]model.SavingsMovement
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]model.Account),
		transactions: make(map[string]model.Transaction),
		funds:        make(map[string]model.SavingsFund),
		movements:    make(map[string]model.SavingsMovement),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateAccount stores a new account, assigning an ID when empty.
func (s *Store) CreateAccount(_ context.Context, acct *model.Account) error {
	acct.ID = id.OrNew(acct.ID)
	if err := acct.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.ID]; ok {
		return fmt.Errorf("account %s: %w", acct.ID, store.ErrConflict)
	}
	s.accounts[acct.ID] = cloneAccount(*acct)
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(_ context.Context, accountID string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	return cloneAccount(acct), nil
}

// ListAccounts returns the user's accounts ordered by ID, archived included.
func (s *Store) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAccountIDs returns the IDs of the user's accounts ordered by ID.
func (s *Store) ListAccountIDs(ctx context.Context, userID string) ([]string, error) {
	accts, err := s.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(accts))
	for i, a := range accts {
		ids[i] = a.ID
	}
	return ids, nil
}

// DeleteAccount removes an account and every transaction tied to it.
func (s *Store) DeleteAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	delete(s.accounts, accountID)
	for txnID, txn := range s.transactions {
		if txn.AccountID == accountID {
			delete(s.transactions, txnID)
		}
	}
	return nil
}

// SetAccountBalance overwrites the stored current balance.
func (s *Store) SetAccountBalance(_ context.Context, accountID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	acct.CurrentBalance = balance
	s.accounts[accountID] = acct
	return nil
}

// AddAccountBalance adds delta to the stored balance under the store lock.
func (s *Store) AddAccountBalance(_ context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	acct.CurrentBalance = acct.CurrentBalance.Add(delta)
	s.accounts[accountID] = acct
	return acct.CurrentBalance, nil
}

// CreateTransaction stores a new transaction.
func (s *Store) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	txn.ID = id.OrNew(txn.ID)
	if err := txn.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[txn.ID]; ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, store.ErrConflict)
	}
	if err := s.requireAccountLocked(txn.AccountID); err != nil {
		return err
	}
	s.transactions[txn.ID] = *txn
	return nil
}

// GetTransaction returns a transaction by ID.
func (s *Store) GetTransaction(_ context.Context, txnID string) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txn, ok := s.transactions[txnID]
	if !ok {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", txnID, store.ErrNotFound)
	}
	return txn, nil
}

// UpdateTransaction replaces a stored transaction.
func (s *Store) UpdateTransaction(_ context.Context, txn model.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[txn.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, store.ErrNotFound)
	}
	if err := s.requireAccountLocked(txn.AccountID); err != nil {
		return err
	}
	s.transactions[txn.ID] = txn
	return nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(_ context.Context, txnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[txnID]; !ok {
		return fmt.Errorf("transaction %s: %w", txnID, store.ErrNotFound)
	}
	delete(s.transactions, txnID)
	return nil
}

// SumPaidTransactions totals paid transactions of one type on an account.
func (s *Store) SumPaidTransactions(_ context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, txn := range s.transactions {
		if txn.AccountID == accountID && txn.Type == txnType && txn.IsPaid {
			total = total.Add(txn.BaseAmount)
		}
	}
	return total, nil
}

// CreateFund stores a new savings fund.
func (s *Store) CreateFund(_ context.Context, fund *model.SavingsFund) error {
	fund.ID = id.OrNew(fund.ID)
	if err := fund.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.funds[fund.ID]; ok {
		return fmt.Errorf("fund %s: %w", fund.ID, store.ErrConflict)
	}
	s.funds[fund.ID] = cloneFund(*fund)
	return nil
}

// GetFund returns a fund by ID.
func (s *Store) GetFund(_ context.Context, fundID string) (model.SavingsFund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fund, ok := s.funds[fundID]
	if !ok {
		return model.SavingsFund{}, fmt.Errorf("fund %s: %w", fundID, store.ErrNotFound)
	}
	return cloneFund(fund), nil
}

// ListFunds returns the user's funds ordered by ID.
func (s *Store) ListFunds(_ context.Context, userID string) ([]model.SavingsFund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SavingsFund
	for _, f := range s.funds {
		if f.UserID == userID {
			out = append(out, cloneFund(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetFundBalance overwrites the stored fund balance.
func (s *Store) SetFundBalance(_ context.Context, fundID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fund, ok := s.funds[fundID]
	if !ok {
		return fmt.Errorf("fund %s: %w", fundID, store.ErrNotFound)
	}
	fund.CurrentBalance = balance
	s.funds[fundID] = fund
	return nil
}

// CreateMovement stores a new savings movement.
func (s *Store) CreateMovement(_ context.Context, mv *model.SavingsMovement) error {
	mv.ID = id.OrNew(mv.ID)
	if err := mv.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[mv.ID]; ok {
		return fmt.Errorf("movement %s: %w", mv.ID, store.ErrConflict)
	}
	if _, ok := s.funds[mv.FundID]; !ok {
		return fmt.Errorf("fund %s: %w", mv.FundID, store.ErrNotFound)
	}
	s.movements[mv.ID] = *mv
	return nil
}

// GetMovement returns a movement by ID.
func (s *Store) GetMovement(_ context.Context, movementID string) (model.SavingsMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mv, ok := s.movements[movementID]
	if !ok {
		return model.SavingsMovement{}, fmt.Errorf("movement %s: %w", movementID, store.ErrNotFound)
	}
	return mv, nil
}

// UpdateMovement replaces a stored movement.
func (s *Store) UpdateMovement(_ context.Context, mv model.SavingsMovement) error {
	if err := mv.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[mv.ID]; !ok {
		return fmt.Errorf("movement %s: %w", mv.ID, store.ErrNotFound)
	}
	if _, ok := s.funds[mv.FundID]; !ok {
		return fmt.Errorf("fund %s: %w", mv.FundID, store.ErrNotFound)
	}
	s.movements[mv.ID] = mv
	return nil
}

// DeleteMovement removes a movement.
func (s *Store) DeleteMovement(_ context.Context, movementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movements[movementID]; !ok {
		return fmt.Errorf("movement %s: %w", movementID, store.ErrNotFound)
	}
	delete(s.movements, movementID)
	return nil
}

// SumMovements totals one type of movement for a fund.
func (s *Store) SumMovements(_ context.Context, fundID string, movementType model.MovementType) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, mv := range s.movements {
		if mv.FundID == fundID && mv.Type == movementType {
			total = total.Add(mv.Amount)
		}
	}
	return total, nil
}

func (s *Store) requireAccountLocked(accountID string) error {
	if accountID == "" {
		return nil
	}
	if _, ok := s.accounts[accountID]; !ok {
		return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	return nil
}

// Optional decimals are copied so callers cannot mutate stored rows.

func cloneAccount(a model.Account) model.Account {
	if a.CreditLimit != nil {
		limit := *a.CreditLimit
		a.CreditLimit = &limit
	}
	return a
}

func cloneFund(f model.SavingsFund) model.SavingsFund {
	if f.TargetAmount != nil {
		target := *f.TargetAmount
		f.TargetAmount = &target
	}
	return f
}
