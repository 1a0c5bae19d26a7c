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

// CreateAccount stores a new account, assigning an ID when empty.
func (s *Store) CreateAccount(_ context.Context, acct *model.Account) error {
	acct.ID = id.OrNew(acct.ID)
	if err := acct.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, BucketAccounts, acct.ID) {
			return fmt.Errorf("account %s: %w", acct.ID, store.ErrConflict)
		}
		return put(tx, BucketAccounts, acct.ID, toAccountRecord(*acct))
	})
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(_ context.Context, accountID string) (model.Account, error) {
	var rec accountRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return getAccount(tx, accountID, &rec)
	})
	if err != nil {
		return model.Account{}, err
	}
	return rec.model(), nil
}

func getAccount(tx *bolt.Tx, accountID string, rec *accountRecord) error {
	ok, err := get(tx, BucketAccounts, accountID, rec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	return nil
}

// ListAccounts returns the user's accounts ordered by ID, archived included.
func (s *Store) ListAccounts(_ context.Context, userID string) ([]model.Account, error) {
	var out []model.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx, BucketAccounts, func(_ string, rec accountRecord) error {
			if rec.UserID == userID {
				out = append(out, rec.model())
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
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
	return s.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, BucketAccounts, accountID) {
			return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
		}

		var doomed []string
		err := each(tx, BucketTransactions, func(key string, rec transactionRecord) error {
			if rec.AccountID == accountID {
				doomed = append(doomed, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		txns := tx.Bucket([]byte(BucketTransactions))
		for _, key := range doomed {
			if err := txns.Delete([]byte(key)); err != nil {
				return fmt.Errorf("deleting transaction %s: %w", key, err)
			}
		}
		return tx.Bucket([]byte(BucketAccounts)).Delete([]byte(accountID))
	})
}

// SetAccountBalance overwrites the stored current balance.
func (s *Store) SetAccountBalance(_ context.Context, accountID string, balance decimal.Decimal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var rec accountRecord
		if err := getAccount(tx, accountID, &rec); err != nil {
			return err
		}
		rec.CurrentBalance = balance
		return put(tx, BucketAccounts, accountID, rec)
	})
}

// AddAccountBalance adds delta to the stored balance. bbolt allows a single
// writer, so the read and write cannot interleave with another update.
func (s *Store) AddAccountBalance(_ context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.db.Update(func(tx *bolt.Tx) error {
		var rec accountRecord
		if err := getAccount(tx, accountID, &rec); err != nil {
			return err
		}
		rec.CurrentBalance = rec.CurrentBalance.Add(delta)
		balance = rec.CurrentBalance
		return put(tx, BucketAccounts, accountID, rec)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
