// Package store defines the movement store contract shared by every backend.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// ErrNotFound is returned (wrapped) when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Driver names accepted by the CLI and config.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
)

// Drivers lists every supported backend.
var Drivers = []string{DriverMemory, DriverSQLite, DriverPostgres, DriverBolt}

// Store is a persisted log of accounts, funds and the movements against them.
//
// AddAccountBalance must apply the delta atomically on the store side: two
// concurrent calls against the same account must both take effect.
type Store interface {
	// Accounts.
	CreateAccount(ctx context.Context, acct *model.Account) error
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]model.Account, error)
	ListAccountIDs(ctx context.Context, userID string) ([]string, error)
	DeleteAccount(ctx context.Context, accountID string) error
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	AddAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)

	// Transactions.
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, txnID string) (model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn model.Transaction) error
	DeleteTransaction(ctx context.Context, txnID string) error
	SumPaidTransactions(ctx context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error)

	// Savings.
	CreateFund(ctx context.Context, fund *model.SavingsFund) error
	GetFund(ctx context.Context, fundID string) (model.SavingsFund, error)
	ListFunds(ctx context.Context, userID string) ([]model.SavingsFund, error)
	SetFundBalance(ctx context.Context, fundID string, balance decimal.Decimal) error
	CreateMovement(ctx context.Context, mv *model.SavingsMovement) error
	GetMovement(ctx context.Context, movementID string) (model.SavingsMovement, error)
	UpdateMovement(ctx context.Context, mv model.SavingsMovement) error
	DeleteMovement(ctx context.Context, movementID string) error
	SumMovements(ctx context.Context, fundID string, movementType model.MovementType) (decimal.Decimal, error)

	Close() error
}

// ErrConflict is returned (wrapped) when creating a row whose ID is taken.
var ErrConflict = errors.New("record already exists")
