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

// CreateFund stores a new savings fund.
func (s *Store) CreateFund(_ context.Context, fund *model.SavingsFund) error {
	fund.ID = id.OrNew(fund.ID)
	if err := fund.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, BucketFunds, fund.ID) {
			return fmt.Errorf("fund %s: %w", fund.ID, store.ErrConflict)
		}
		return put(tx, BucketFunds, fund.ID, toFundRecord(*fund))
	})
}

func getFund(tx *bolt.Tx, fundID string, rec *fundRecord) error {
	ok, err := get(tx, BucketFunds, fundID, rec)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("fund %s: %w", fundID, store.ErrNotFound)
	}
	return nil
}

// GetFund returns a fund by ID.
func (s *Store) GetFund(_ context.Context, fundID string) (model.SavingsFund, error) {
	var rec fundRecord
	if err := s.db.View(func(tx *bolt.Tx) error { return getFund(tx, fundID, &rec) }); err != nil {
		return model.SavingsFund{}, err
	}
	return rec.model(), nil
}

// ListFunds returns the user's funds ordered by ID.
func (s *Store) ListFunds(_ context.Context, userID string) ([]model.SavingsFund, error) {
	var out []model.SavingsFund
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx, BucketFunds, func(_ string, rec fundRecord) error {
			if rec.UserID == userID {
				out = append(out, rec.model())
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing funds: %w", err)
	}
	return out, nil
}

// SetFundBalance overwrites the stored fund balance.
func (s *Store) SetFundBalance(_ context.Context, fundID string, balance decimal.Decimal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var rec fundRecord
		if err := getFund(tx, fundID, &rec); err != nil {
			return err
		}
		rec.CurrentBalance = balance
		return put(tx, BucketFunds, fundID, rec)
	})
}

// CreateMovement stores a new savings movement.
func (s *Store) CreateMovement(_ context.Context, mv *model.SavingsMovement) error {
	mv.ID = id.OrNew(mv.ID)
	if err := mv.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if exists(tx, BucketMovements, mv.ID) {
			return fmt.Errorf("movement %s: %w", mv.ID, store.ErrConflict)
		}
		if !exists(tx, BucketFunds, mv.FundID) {
			return fmt.Errorf("fund %s: %w", mv.FundID, store.ErrNotFound)
		}
		return put(tx, BucketMovements, mv.ID, toMovementRecord(*mv))
	})
}

// GetMovement returns a movement by ID.
func (s *Store) GetMovement(_ context.Context, movementID string) (model.SavingsMovement, error) {
	var rec movementRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		ok, err := get(tx, BucketMovements, movementID, &rec)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("movement %s: %w", movementID, store.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return model.SavingsMovement{}, err
	}
	return rec.model(), nil
}

// UpdateMovement replaces a stored movement.
func (s *Store) UpdateMovement(_ context.Context, mv model.SavingsMovement) error {
	if err := mv.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, BucketMovements, mv.ID) {
			return fmt.Errorf("movement %s: %w", mv.ID, store.ErrNotFound)
		}
		if !exists(tx, BucketFunds, mv.FundID) {
			return fmt.Errorf("fund %s: %w", mv.FundID, store.ErrNotFound)
		}
		return put(tx, BucketMovements, mv.ID, toMovementRecord(mv))
	})
}

// DeleteMovement removes a movement.
func (s *Store) DeleteMovement(_ context.Context, movementID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if !exists(tx, BucketMovements, movementID) {
			return fmt.Errorf("movement %s: %w", movementID, store.ErrNotFound)
		}
		return tx.Bucket([]byte(BucketMovements)).Delete([]byte(movementID))
	})
}

// SumMovements totals one type of movement for a fund.
func (s *Store) SumMovements(_ context.Context, fundID string, movementType model.MovementType) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx, BucketMovements, func(_ string, rec movementRecord) error {
			if rec.FundID == fundID && rec.Type == string(movementType) {
				total = total.Add(rec.Amount)
			}
			return nil
		})
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing %s movements of fund %s: %w", movementType, fundID, err)
	}
	return total, nil
}
