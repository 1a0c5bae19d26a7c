package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

const transactionColumns = `id, account_id, type, base_amount, is_paid, occurred_on, description`

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		t         model.Transaction
		accountID sql.NullString
	)
	err := row.Scan(&t.ID, &accountID, &t.Type, &t.BaseAmount, &t.IsPaid, &t.Date, &t.Description)
	if err != nil {
		return model.Transaction{}, err
	}
	t.AccountID = accountID.String
	return t, nil
}

// CreateTransaction inserts a new transaction.
func (s *Store) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	txn.ID = id.OrNew(txn.ID)
	if err := txn.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		txn.ID, nullString(txn.AccountID), string(txn.Type), txn.BaseAmount, txn.IsPaid,
		txn.Date.Format(dateFormat), txn.Description)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w",
			mapError(err, "transaction "+txn.ID, "account", txn.AccountID))
	}
	return nil
}

// GetTransaction returns a transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, txnID string) (model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`), txnID)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", txnID, store.ErrNotFound)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("getting transaction %s: %w", txnID, err)
	}
	return txn, nil
}

// UpdateTransaction replaces a stored transaction.
func (s *Store) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE transactions
		SET account_id = ?, type = ?, base_amount = ?, is_paid = ?, occurred_on = ?, description = ?
		WHERE id = ?`),
		nullString(txn.AccountID), string(txn.Type), txn.BaseAmount, txn.IsPaid,
		txn.Date.Format(dateFormat), txn.Description, txn.ID)
	if err != nil {
		return fmt.Errorf("updating transaction: %w",
			mapError(err, "transaction "+txn.ID, "account", txn.AccountID))
	}
	return expectOne(res, "transaction "+txn.ID)
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, txnID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM transactions WHERE id = ?`), txnID)
	if err != nil {
		return fmt.Errorf("deleting transaction %s: %w", txnID, err)
	}
	return expectOne(res, "transaction "+txnID)
}

// SumPaidTransactions totals paid transactions of one type on an account.
func (s *Store) SumPaidTransactions(ctx context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error) {
	total, err := s.sum(ctx, "base_amount", "transactions",
		"account_id = ? AND type = ? AND is_paid = ?", accountID, string(txnType), true)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing %s transactions of account %s: %w", txnType, accountID, err)
	}
	return total, nil
}
