package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func TestApplyAccountDelta_CreditCardExpense(t *testing.T) {
	s := memory.New()
	card := newAccount(t, s, model.AccountTypeCreditCard, "0")

	res, err := New(s).ApplyAccountDelta(context.Background(), card.ID, dec("-20000"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	storetest.AssertDecimal(t, "20000", res.Adjusted)
	storetest.AssertDecimal(t, "20000", res.Balance)
	storetest.AssertDecimal(t, "20000", stored(t, s, card.ID))
}

func TestApplyAccountDelta_DebitLike(t *testing.T) {
	for _, typ := range debitLike {
		s := memory.New()
		e := New(s)
		acct := newAccount(t, s, typ, "100")

		_, err := e.ApplyAccountDelta(context.Background(), acct.ID, dec("25.50"))
		require.NoError(t, err)
		res, err := e.ApplyAccountDelta(context.Background(), acct.ID, dec("-5.50"))
		require.NoError(t, err)

		storetest.AssertDecimal(t, "120", res.Balance, "%s", typ)
	}
}

func TestApplyAccountDelta_MissingAccount(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := New(memory.New(), WithLogger(logger))

	res, err := e.ApplyAccountDelta(context.Background(), "gone", dec("10"))
	require.NoError(t, err, "a missing account is not an error on the fast path")
	assert.Equal(t, OutcomeAccountMissing, res.Outcome)
	assert.True(t, res.Balance.IsZero())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "gone", hook.LastEntry().Data["account_id"])
}

func TestApplyAccountDelta_RejectsOverScaleDelta(t *testing.T) {
	s := memory.New()
	acct := newAccount(t, s, model.AccountTypeChecking, "100")

	res, err := New(s).ApplyAccountDelta(context.Background(), acct.ID, dec("0.000001"))
	require.ErrorIs(t, err, ErrDeltaScale)
	assert.ErrorIs(t, err, model.ErrScale)
	assert.NotEqual(t, OutcomeApplied, res.Outcome)
	storetest.AssertDecimal(t, "100", stored(t, s, acct.ID), "nothing written")

	res, err = New(s).ApplyAccountDelta(context.Background(), acct.ID, dec("0.0001"))
	require.NoError(t, err)
	storetest.AssertDecimal(t, "100.0001", res.Balance)
}

func TestApplyAccountDelta_DeletedBeforeWrite(t *testing.T) {
	mem := memory.New()
	acct := newAccount(t, mem, model.AccountTypeChecking, "10")
	s := &racyStore{Store: mem, deleteOnRead: map[string]bool{acct.ID: true}}

	res, err := New(s).ApplyAccountDelta(context.Background(), acct.ID, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccountMissing, res.Outcome)
}

func TestApplyAccountDelta_Concurrent(t *testing.T) {
	s := memory.New()
	e := New(s)
	card := newAccount(t, s, model.AccountTypeCreditCard, "0")

	const calls = 50
	var wg sync.WaitGroup
	for range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ApplyAccountDelta(context.Background(), card.ID, dec("-1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	storetest.AssertDecimal(t, "50", stored(t, s, card.ID), "concurrent deltas must not clobber each other")
}

// Applying each paid transaction's contribution once must land on the same
// balance a full reconcile computes.
func TestApplyMatchesReconcile(t *testing.T) {
	movements := []struct {
		typ    model.TransactionType
		amount string
		paid   bool
	}{
		{model.TransactionExpense, "50000", true},
		{model.TransactionIncome, "30000", true},
		{model.TransactionExpense, "1234.56", true},
		{model.TransactionIncome, "999", false},
		{model.TransactionExpense, "0.01", true},
	}

	for _, typ := range append(debitLike, model.AccountTypeCreditCard) {
		s := memory.New()
		e := New(s)
		acct := newAccount(t, s, typ, "250")

		for _, m := range movements {
			txn := addTxn(t, s, acct.ID, m.typ, m.amount, m.paid)
			if delta := Contribution(txn); !delta.IsZero() {
				_, err := e.ApplyAccountDelta(context.Background(), acct.ID, delta)
				require.NoError(t, err)
			}
		}
		incremental := stored(t, s, acct.ID)

		rec, err := e.ReconcileAccount(context.Background(), acct.ID)
		require.NoError(t, err)
		assert.True(t, incremental.Equal(rec.Balance), "%s: incremental %s != reconciled %s", typ, incremental, rec.Balance)
		assert.False(t, rec.Changed(), "%s: reconcile found drift", typ)
	}
}
