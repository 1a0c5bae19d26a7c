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

const (
	fundColumns     = `id, user_id, name, current_balance, target_amount`
	movementColumns = `id, fund_id, type, amount, occurred_on, note`
)

func scanFund(row rowScanner) (model.SavingsFund, error) {
	var (
		f      model.SavingsFund
		target decimal.NullDecimal
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.CurrentBalance, &target); err != nil {
		return model.SavingsFund{}, err
	}
	f.TargetAmount = fromNullDecimal(target)
	return f, nil
}

func scanMovement(row rowScanner) (model.SavingsMovement, error) {
	var m model.SavingsMovement
	if err := row.Scan(&m.ID, &m.FundID, &m.Type, &m.Amount, &m.Date, &m.Note); err != nil {
		return model.SavingsMovement{}, err
	}
	return m, nil
}

// CreateFund inserts a new savings fund.
func (s *Store) CreateFund(ctx context.Context, fund *model.SavingsFund) error {
	fund.ID = id.OrNew(fund.ID)
	if err := fund.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO savings_funds (`+fundColumns+`) VALUES (?, ?, ?, ?, ?)`),
		fund.ID, fund.UserID, fund.Name, fund.CurrentBalance, nullDecimal(fund.TargetAmount))
	if err != nil {
		return fmt.Errorf("inserting fund: %w", mapError(err, "fund "+fund.ID, "", ""))
	}
	return nil
}

// GetFund returns a fund by ID.
func (s *Store) GetFund(ctx context.Context, fundID string) (model.SavingsFund, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+fundColumns+` FROM savings_funds WHERE id = ?`), fundID)
	fund, err := scanFund(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavingsFund{}, fmt.Errorf("fund %s: %w", fundID, store.ErrNotFound)
	}
	if err != nil {
		return model.SavingsFund{}, fmt.Errorf("getting fund %s: %w", fundID, err)
	}
	return fund, nil
}

// ListFunds returns the user's funds ordered by ID.
func (s *Store) ListFunds(ctx context.Context, userID string) ([]model.SavingsFund, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+fundColumns+` FROM savings_funds WHERE user_id = ? ORDER BY id`), userID)
	if err != nil {
		return nil, fmt.Errorf("listing funds: %w", err)
	}
	defer rows.Close()

	var out []model.SavingsFund
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning fund: %w", err)
		}
		out = append(out, fund)
	}
	return out, rows.Err()
}

// SetFundBalance overwrites the stored fund balance.
func (s *Store) SetFundBalance(ctx context.Context, fundID string, balance decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE savings_funds SET current_balance = ? WHERE id = ?`), balance, fundID)
	if err != nil {
		return fmt.Errorf("setting balance of fund %s: %w", fundID, err)
	}
	return expectOne(res, "fund "+fundID)
}

// CreateMovement inserts a new savings movement.
func (s *Store) CreateMovement(ctx context.Context, mv *model.SavingsMovement) error {
	mv.ID = id.OrNew(mv.ID)
	if err := mv.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO savings_movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		mv.ID, mv.FundID, string(mv.Type), mv.Amount, mv.Date.Format(dateFormat), mv.Note)
	if err != nil {
		return fmt.Errorf("inserting movement: %w", mapError(err, "movement "+mv.ID, "fund", mv.FundID))
	}
	return nil
}

// GetMovement returns a movement by ID.
func (s *Store) GetMovement(ctx context.Context, movementID string) (model.SavingsMovement, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+movementColumns+` FROM savings_movements WHERE id = ?`), movementID)
	mv, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavingsMovement{}, fmt.Errorf("movement %s: %w", movementID, store.ErrNotFound)
	}
	if err != nil {
		return model.SavingsMovement{}, fmt.Errorf("getting movement %s: %w", movementID, err)
	}
	return mv, nil
}

// UpdateMovement replaces a stored movement.
func (s *Store) UpdateMovement(ctx context.Context, mv model.SavingsMovement) error {
	if err := mv.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.q(`UPDATE savings_movements
		SET fund_id = ?, type = ?, amount = ?, occurred_on = ?, note = ?
		WHERE id = ?`),
		mv.FundID, string(mv.Type), mv.Amount, mv.Date.Format(dateFormat), mv.Note, mv.ID)
	if err != nil {
		return fmt.Errorf("updating movement: %w", mapError(err, "movement "+mv.ID, "fund", mv.FundID))
	}
	return expectOne(res, "movement "+mv.ID)
}

// DeleteMovement removes a movement.
func (s *Store) DeleteMovement(ctx context.Context, movementID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM savings_movements WHERE id = ?`), movementID)
	if err != nil {
		return fmt.Errorf("deleting movement %s: %w", movementID, err)
	}
	return expectOne(res, "movement "+movementID)
}

// SumMovements totals one type of movement for a fund.
func (s *Store) SumMovements(ctx context.Context, fundID string, movementType model.MovementType) (decimal.Decimal, error) {
	total, err := s.sum(ctx, "amount", "savings_movements", "fund_id = ? AND type = ?", fundID, string(movementType))
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing %s movements of fund %s: %w", movementType, fundID, err)
	}
	return total, nil
}
