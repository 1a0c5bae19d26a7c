package ledger

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/tally/internal/model"
)

// Store is the slice of the movement store the engine reads and writes.
// Missing rows must be reported as errors wrapping store.ErrNotFound.
type Store interface {
	GetAccount(ctx context.Context, accountID string) (model.Account, error)
	ListAccountIDs(ctx context.Context, userID string) ([]string, error)
	SumPaidTransactions(ctx context.Context, accountID string, txnType model.TransactionType) (decimal.Decimal, error)
	SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	// AddAccountBalance must add delta atomically and return the new balance.
	AddAccountBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)

	GetFund(ctx context.Context, fundID string) (model.SavingsFund, error)
	SumMovements(ctx context.Context, fundID string, movementType model.MovementType) (decimal.Decimal, error)
	SetFundBalance(ctx context.Context, fundID string, balance decimal.Decimal) error
}

// Engine applies and reconciles balances against a Store.
type Engine struct {
	store            Store
	log              logrus.FieldLogger
	sweepConcurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSweepConcurrency sets how many accounts ReconcileAllAccounts reconciles
// at once. Values below 2 keep the sweep sequential.
func WithSweepConcurrency(n int) Option {
	return func(e *Engine) {
		e.sweepConcurrency = n
	}
}

// New creates an Engine over s.
func New(s Store, opts ...Option) *Engine {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	e := &Engine{store: s, log: discard, sweepConcurrency: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
