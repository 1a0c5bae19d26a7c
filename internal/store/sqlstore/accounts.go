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

const accountColumns = `id, user_id, name, type, initial_balance, current_balance, credit_limit, archived`

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a     model.Account
		limit decimal.NullDecimal
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.InitialBalance, &a.CurrentBalance, &limit, &a.Archived)
	if err != nil {
		return model.Account{}, err
	}
	a.CreditLimit = fromNullDecimal(limit)
	return a, nil
}

// CreateAccount inserts a new account, assigning an ID when empty.
func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	acct.ID = id.OrNew(acct.ID)
	if err := acct.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		acct.ID, acct.UserID, acct.Name, string(acct.Type),
		acct.InitialBalance, acct.CurrentBalance, nullDecimal(acct.CreditLimit), acct.Archived)
	if err != nil {
		return fmt.Errorf("inserting account: %w", mapError(err, "account "+acct.ID, "", ""))
	}
	return nil
}

// GetAccount returns an account by ID.
func (s *Store) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), accountID)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("getting account %s: %w", accountID, err)
	}
	return acct, nil
}

// ListAccounts returns the user's accounts ordered by ID, archived included.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

// ListAccountIDs returns the IDs of the user's accounts ordered by ID.
func (s *Store) ListAccountIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id FROM accounts WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("listing account ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var accountID string
		if err := rows.Scan(&accountID); err != nil {
			return nil, fmt.Errorf("scanning account id: %w", err)
		}
		ids = append(ids, accountID)
	}
	return ids, rows.Err()
}

// DeleteAccount removes an account; its transactions go with it.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM accounts WHERE id = ?`), accountID)
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", accountID, err)
	}
	return expectOne(res, "account "+accountID)
}

// SetAccountBalance overwrites the stored current balance.
func (s *Store) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE accounts SET current_balance = ? WHERE id = ?`), balance, accountID)
	if err != nil {
		return fmt.Errorf("setting balance of account %s: %w", accountID, err)
	}
	return expectOne(res, "account "+accountID)
}

// AddAccountBalance adds delta to the stored balance and returns the result.
// Postgres does it in one UPDATE; SQLite reads and writes inside an
// immediate transaction, which holds the write lock throughout.
func (s *Store) AddAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if s.dialect.nativeDecimal {
		var balance decimal.Decimal
		err := s.db.QueryRowContext(ctx, s.q(`UPDATE accounts SET current_balance = current_balance + ?
			WHERE id = ? RETURNING current_balance`), delta, accountID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("adjusting balance of account %s: %w", accountID, err)
		}
		return balance, nil
	}

	var balance decimal.Decimal
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		var current decimal.Decimal
		err := tx.QueryRowContext(ctx, `SELECT current_balance FROM accounts WHERE id = ?`, accountID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %s: %w", accountID, store.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("reading balance of account %s: %w", accountID, err)
		}
		balance = current.Add(delta)
		if _, err := tx.ExecContext(ctx, `UPDATE accounts SET current_balance = ? WHERE id = ?`, balance, accountID); err != nil {
			return fmt.Errorf("writing balance of account %s: %w", accountID, err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}
