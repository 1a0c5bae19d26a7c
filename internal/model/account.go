package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts by how their balance reads.
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCreditCard AccountType = "credit_card"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeCash, AccountTypeCreditCard:
		return true
	}
	return false
}

// IsCreditCard reports whether the stored balance is money owed rather than money held.
func (t AccountType) IsCreditCard() bool {
	return t == AccountTypeCreditCard
}

// Account is a user-owned balance holder.
type Account struct {
	ID             string
	UserID         string
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreditLimit    *decimal.Decimal // credit cards only; nil = no limit recorded
	Archived       bool
}

// AvailableCredit returns limit - balance for a credit card with a limit.
func (a Account) AvailableCredit() (decimal.Decimal, bool) {
	if !a.Type.IsCreditCard() || a.CreditLimit == nil {
		return decimal.Zero, false
	}
	return a.CreditLimit.Sub(a.CurrentBalance), true
}

// Validate checks the fields a store must never persist in a broken state.
func (a Account) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("account %s: user id is required", a.ID)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("account %s: unknown type %q", a.ID, a.Type)
	}
	if err := CheckScale("initial balance", a.InitialBalance); err != nil {
		return fmt.Errorf("account %s: %w", a.ID, err)
	}
	if err := CheckScale("current balance", a.CurrentBalance); err != nil {
		return fmt.Errorf("account %s: %w", a.ID, err)
	}
	if a.CreditLimit != nil {
		if !a.Type.IsCreditCard() {
			return fmt.Errorf("account %s: credit limit set on %s account", a.ID, a.Type)
		}
		if a.CreditLimit.IsNegative() {
			return fmt.Errorf("account %s: credit limit %s is negative", a.ID, a.CreditLimit)
		}
		if err := CheckScale("credit limit", *a.CreditLimit); err != nil {
			return fmt.Errorf("account %s: %w", a.ID, err)
		}
	}
	return nil
}
