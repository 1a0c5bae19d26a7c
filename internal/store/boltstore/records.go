package boltstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Decimals marshal as quoted strings, so values survive JSON exactly.

type accountRecord struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	CreditLimit    *decimal.Decimal `json:"credit_limit,omitempty"`
	Archived       bool             `json:"archived"`
}

func toAccountRecord(a model.Account) accountRecord {
	return accountRecord{
		ID:             a.ID,
		UserID:         a.UserID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: a.InitialBalance,
		CurrentBalance: a.CurrentBalance,
		CreditLimit:    a.CreditLimit,
		Archived:       a.Archived,
	}
}

func (r accountRecord) model() model.Account {
	return model.Account{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		Type:           model.AccountType(r.Type),
		InitialBalance: r.InitialBalance,
		CurrentBalance: r.CurrentBalance,
		CreditLimit:    r.CreditLimit,
		Archived:       r.Archived,
	}
}

type transactionRecord struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id,omitempty"`
	Type        string          `json:"type"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	IsPaid      bool            `json:"is_paid"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
}

func toTransactionRecord(t model.Transaction) transactionRecord {
	return transactionRecord{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		BaseAmount:  t.BaseAmount,
		IsPaid:      t.IsPaid,
		Date:        t.Date,
		Description: t.Description,
	}
}

func (r transactionRecord) model() model.Transaction {
	return model.Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Type:        model.TransactionType(r.Type),
		BaseAmount:  r.BaseAmount,
		IsPaid:      r.IsPaid,
		Date:        r.Date,
		Description: r.Description,
	}
}

type fundRecord struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	Name           string           `json:"name"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
	TargetAmount   *decimal.Decimal `json:"target_amount,omitempty"`
}

func toFundRecord(f model.SavingsFund) fundRecord {
	return fundRecord{
		ID:             f.ID,
		UserID:         f.UserID,
		Name:           f.Name,
		CurrentBalance: f.CurrentBalance,
		TargetAmount:   f.TargetAmount,
	}
}

func (r fundRecord) model() model.SavingsFund {
	return model.SavingsFund{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		CurrentBalance: r.CurrentBalance,
		TargetAmount:   r.TargetAmount,
	}
}

type movementRecord struct {
	ID     string          `json:"id"`
	FundID string          `json:"fund_id"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

func toMovementRecord(m model.SavingsMovement) movementRecord {
	return movementRecord{
		ID:     m.ID,
		FundID: m.FundID,
		Type:   string(m.Type),
		Amount: m.Amount,
		Date:   m.Date,
		Note:   m.Note,
	}
}

func (r movementRecord) model() model.SavingsMovement {
	return model.SavingsMovement{
		ID:     r.ID,
		FundID: r.FundID,
		Type:   model.MovementType(r.Type),
		Amount: r.Amount,
		Date:   r.Date,
		Note:   r.Note,
	}
}
