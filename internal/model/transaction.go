package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction from the holder's point of view.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Transaction is a dated movement against an account.
type Transaction struct {
	ID          string
	AccountID   string          // empty = not tied to an account
	Type        TransactionType
	BaseAmount  decimal.Decimal // unsigned, in the account's own unit
	IsPaid      bool
	Date        time.Time
	Description string
}

// Validate checks type and amount.
func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("transaction %s: unknown type %q", t.ID, t.Type)
	}
	if t.BaseAmount.IsNegative() {
		return fmt.Errorf("transaction %s: amount %s is negative", t.ID, t.BaseAmount)
	}
	if err := CheckScale("amount", t.BaseAmount); err != nil {
		return fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	return nil
}
