package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store/memory"
)

// faultyStore injects storage failures into a memory store.
type faultyStore struct {
	*memory.Store
	sumErr  error
	listErr error
}

func (f *faultyStore) SumPaidTransactions(ctx context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error) {
	if f.sumErr != nil {
		return decimal.Zero, f.sumErr
	}
	return f.Store.SumPaidTransactions(ctx, accountID, txnType)
}

func (f *faultyStore) ListAccountIDs(ctx context.Context, userID string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListAccountIDs(ctx, userID)
}

// racyStore deletes chosen accounts right after they are listed or read,
// simulating a concurrent delete.
type racyStore struct {
	*memory.Store
	deleteOnList map[string]bool
	deleteOnRead map[string]bool
}

func (r *racyStore) ListAccountIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.Store.ListAccountIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, accountID := range ids {
		if r.deleteOnList[accountID] {
			if err := r.Store.DeleteAccount(ctx, accountID); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func (r *racyStore) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	acct, err := r.Store.GetAccount(ctx, accountID)
	if err == nil && r.deleteOnRead[accountID] {
		if err := r.Store.DeleteAccount(ctx, accountID); err != nil {
			return model.Account{}, err
		}
	}
	return acct, err
}
