package boltstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

func requireAccount(tx *bolt.Tx, accountID string) error {
	if accountID == "" || exists(tx, BucketAccounts, accountID) {
		return nil
	}
	return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
}

// CreateTransaction stores a new transaction.
func (s *Store) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	txn.ID = id.OrNew(txn.ID)
	if err := txn.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, BucketTransactions, txn.ID) {
			return fmt.Errorf("transaction %s: %w", txn.ID, store.ErrConflict)
		}
		if err := requireAccount(tx, txn.AccountID); err != nil {
			return err
		}
		return put(tx, BucketTransactions, txn.ID, toTransactionRecord(*txn))
	})
}

// GetTransaction returns a transaction by ID.
func (s *Store) GetTransaction(_ context.Context, txnID string) (model.Transaction, error) {
	var rec transactionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, BucketTransactions, txnID, &rec)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("transaction %s: %w", txnID, store.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return rec.model(), nil
}

// UpdateTransaction replaces a stored transaction.
func (s *Store) UpdateTransaction(_ context.Context, txn model.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, BucketTransactions, txn.ID) {
			return fmt.Errorf("transaction %s: %w", txn.ID, store.ErrNotFound)
		}
		if err := requireAccount(tx, txn.AccountID); err != nil {
			return err
		}
		return put(tx, BucketTransactions, txn.ID, toTransactionRecord(txn))
	})
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(_ context.Context, txnID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, BucketTransactions, txnID) {
			return fmt.Errorf("transaction %s: %w", txnID, store.ErrNotFound)
		}
		return tx.Bucket([]byte(BucketTransactions)).Delete([]byte(txnID))
	})
}

// SumPaidTransactions totals paid transactions of one type on an account.
func (s *Store) SumPaidTransactions(_ context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx, BucketTransactions, func(_ string, rec transactionRecord) error {
			if rec.AccountID == accountID && rec.Type == string(txnType) && rec.IsPaid {
				total = total.Add(rec.BaseAmount)
			}
			return nil
		})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing %s transactions of account %s: %w", txnType, accountID, err)
	}
	return total, nil
}
