package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the direction of money into or out of a savings fund.
type MovementType string

const (
	MovementDeposit    MovementType = "deposit"
	MovementWithdrawal MovementType = "withdrawal"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	return t == MovementDeposit || t == MovementWithdrawal
}

// SavingsFund holds money set aside toward a goal. Its balance has no anchor:
// an opening deposit is just the first movement.
type SavingsFund struct {
	ID             string
	UserID         string
	Name           string
	CurrentBalance decimal.Decimal
	TargetAmount   *decimal.Decimal
}

// Validate checks the fund's owner and target.
func (f SavingsFund) Validate() error {
	if f.UserID == "" {
		return fmt.Errorf("fund %s: user id is required", f.ID)
	}
	if f.TargetAmount != nil && f.TargetAmount.IsNegative() {
		return fmt.Errorf("fund %s: target %s is negative", f.ID, f.TargetAmount)
	}
	if f.TargetAmount != nil {
		if err := CheckScale("target", *f.TargetAmount); err != nil {
			return fmt.Errorf("fund %s: %w", f.ID, err)
		}
	}
	return nil
}

// SavingsMovement is a deposit into or withdrawal from a fund.
type SavingsMovement struct {
	ID     string
	FundID string
	Type   MovementType
	Amount decimal.Decimal // unsigned
	Date   time.Time
	Note   string
}

// Validate checks fund, type and amount.
func (m SavingsMovement) Validate() error {
	if m.FundID == "" {
		return fmt.Errorf("movement %s: fund id is required", m.ID)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("movement %s: unknown type %q", m.ID, m.Type)
	}
	if m.Amount.IsNegative() {
		return fmt.Errorf("movement %s: amount %s is negative", m.ID, m.Amount)
	}
	if err := CheckScale("amount", m.Amount); err != nil {
		return fmt.Errorf("movement %s: %w", m.ID, err)
	}
	return nil
}
