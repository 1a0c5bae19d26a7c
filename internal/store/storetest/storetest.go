// Package storetest is a conformance suite run by every store backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"AccountRoundTrip", testAccountRoundTrip},
		{"AccountNotFound", testAccountNotFound},
		{"AccountConflict", testAccountConflict},
		{"ListAccountsByUser", testListAccountsByUser},
		{"SumPaidTransactions", testSumPaidTransactions},
		{"TransactionLifecycle", testTransactionLifecycle},
		{"TransactionUnknownAccount", testTransactionUnknownAccount},
		{"DeleteAccountDropsTransactions", testDeleteAccountDropsTransactions},
		{"ConcurrentAddAccountBalance", testConcurrentAddAccountBalance},
		{"FundRoundTrip", testFundRoundTrip},
		{"SumMovements", testSumMovements},
		{"MovementLifecycle", testMovementLifecycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			tt.fn(t, s)
		})
	}
}

// Dec parses a decimal literal or fails the test.
func Dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// AssertDecimal compares decimals by value, ignoring scale.
func AssertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if Dec(want).Equal(got) {
		return
	}
	msg := fmt.Sprintf("want %s, got %s", want, got.String())
	if len(msgAndArgs) > 0 {
		if format, ok := msgAndArgs[0].(string); ok {
			msg += ": " + fmt.Sprintf(format, msgAndArgs[1:]...)
		}
	}
	assert.Fail(t, msg)
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func mustAccount(t *testing.T, s store.Store, acct model.Account) model.Account {
	t.Helper()
	require.NoError(t, s.CreateAccount(context.Background(), &acct))
	return acct
}

func mustTxn(t *testing.T, s store.Store, txn model.Transaction) model.Transaction {
	t.Helper()
	require.NoError(t, s.CreateTransaction(context.Background(), &txn))
	return txn
}

func mustFund(t *testing.T, s store.Store, fund model.SavingsFund) model.SavingsFund {
	t.Helper()
	require.NoError(t, s.CreateFund(context.Background(), &fund))
	return fund
}

func testAccountRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	limit := Dec("1500.50")
	acct := mustAccount(t, s, model.Account{
		UserID:         "u1",
		Name:           "Visa",
		Type:           model.AccountTypeCreditCard,
		InitialBalance: Dec("120.25"),
		CurrentBalance: Dec("120.25"),
		CreditLimit:    &limit,
		Archived:       true,
	})
	require.NotEmpty(t, acct.ID, "store assigns an ID")

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Visa", got.Name)
	assert.Equal(t, model.AccountTypeCreditCard, got.Type)
	AssertDecimal(t, "120.25", got.InitialBalance)
	AssertDecimal(t, "120.25", got.CurrentBalance)
	require.NotNil(t, got.CreditLimit)
	AssertDecimal(t, "1500.50", *got.CreditLimit)
	assert.True(t, got.Archived)

	plain := mustAccount(t, s, model.Account{ID: "cash-1", UserID: "u1", Type: model.AccountTypeCash})
	got, err = s.GetAccount(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, "cash-1", got.ID)
	assert.Nil(t, got.CreditLimit)
	AssertDecimal(t, "0", got.CurrentBalance)

	require.NoError(t, s.SetAccountBalance(ctx, plain.ID, Dec("42.10")))
	got, err = s.GetAccount(ctx, plain.ID)
	require.NoError(t, err)
	AssertDecimal(t, "42.10", got.CurrentBalance)

	bal, err := s.AddAccountBalance(ctx, plain.ID, Dec("-2.10"))
	require.NoError(t, err)
	AssertDecimal(t, "40", bal)
}

func testAccountNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.SetAccountBalance(ctx, "missing", Dec("1"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.AddAccountBalance(ctx, "missing", Dec("1"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeleteAccount(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAccountConflict(t *testing.T, s store.Store) {
	mustAccount(t, s, model.Account{ID: "dup", UserID: "u1", Type: model.AccountTypeChecking})
	err := s.CreateAccount(context.Background(), &model.Account{ID: "dup", UserID: "u1", Type: model.AccountTypeChecking})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testListAccountsByUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAccount(t, s, model.Account{ID: "b", UserID: "u1", Type: model.AccountTypeChecking})
	mustAccount(t, s, model.Account{ID: "a", UserID: "u1", Type: model.AccountTypeSavings, Archived: true})
	mustAccount(t, s, model.Account{ID: "c", UserID: "u2", Type: model.AccountTypeCash})

	ids, err := s.ListAccountIDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids, "archived accounts are listed, other users are not")

	accts, err := s.ListAccounts(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "c", accts[0].ID)

	ids, err = s.ListAccountIDs(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func testSumPaidTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	acct := mustAccount(t, s, model.Account{UserID: "u1", Type: model.AccountTypeChecking})
	other := mustAccount(t, s, model.Account{UserID: "u1", Type: model.AccountTypeChecking})

	mustTxn(t, s, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, BaseAmount: Dec("100.10"), IsPaid: true, Date: day(1)})
	mustTxn(t, s, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, BaseAmount: Dec("0.20"), IsPaid: true, Date: day(2)})
	mustTxn(t, s, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, BaseAmount: Dec("999"), IsPaid: false, Date: day(3)})
	mustTxn(t, s, model.Transaction{AccountID: acct.ID, Type: model.TransactionExpense, BaseAmount: Dec("30.05"), IsPaid: true, Date: day(4)})
	mustTxn(t, s, model.Transaction{AccountID: other.ID, Type: model.TransactionExpense, BaseAmount: Dec("5"), IsPaid: true, Date: day(5)})
	mustTxn(t, s, model.Transaction{Type: model.TransactionExpense, BaseAmount: Dec("7"), IsPaid: true, Date: day(6)})

	income, err := s.SumPaidTransactions(ctx, acct.ID, model.TransactionIncome)
	require.NoError(t, err)
	AssertDecimal(t, "100.30", income, "unpaid income excluded")

	expense, err := s.SumPaidTransactions(ctx, acct.ID, model.TransactionExpense)
	require.NoError(t, err)
	AssertDecimal(t, "30.05", expense, "other account excluded")

	none, err := s.SumPaidTransactions(ctx, "missing", model.TransactionIncome)
	require.NoError(t, err)
	AssertDecimal(t, "0", none)
}

func testTransactionLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	acct := mustAccount(t, s, model.Account{UserID: "u1", Type: model.AccountTypeChecking})
	txn := mustTxn(t, s, model.Transaction{
		AccountID:   acct.ID,
		Type:        model.TransactionExpense,
		BaseAmount:  Dec("20000"),
		Date:        day(15),
		Description: "rent",
	})
	require.NotEmpty(t, txn.ID)

	got, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.AccountID)
	assert.Equal(t, model.TransactionExpense, got.Type)
	AssertDecimal(t, "20000", got.BaseAmount)
	assert.False(t, got.IsPaid)
	assert.Equal(t, "2025-01-15", got.Date.Format("2006-01-02"))
	assert.Equal(t, "rent", got.Description)

	got.IsPaid = true
	got.BaseAmount = Dec("21000")
	require.NoError(t, s.UpdateTransaction(ctx, got))

	again, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPaid)
	AssertDecimal(t, "21000", again.BaseAmount)

	require.NoError(t, s.DeleteTransaction(ctx, txn.ID))
	_, err = s.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, txn.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTransaction(ctx, got), store.ErrNotFound)
}

func testTransactionUnknownAccount(t *testing.T, s store.Store) {
	err := s.CreateTransaction(context.Background(), &model.Transaction{
		AccountID:  "missing",
		Type:       model.TransactionIncome,
		BaseAmount: Dec("1"),
		Date:       day(1),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteAccountDropsTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	acct := mustAccount(t, s, model.Account{UserID: "u1", Type: model.AccountTypeCash})
	txn := mustTxn(t, s, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, BaseAmount: Dec("5"), IsPaid: true, Date: day(1)})

	require.NoError(t, s.DeleteAccount(ctx, acct.ID))

	_, err := s.GetAccount(ctx, acct.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testConcurrentAddAccountBalance(t *testing.T, s store.Store) {
	ctx := context.Background()
	acct := mustAccount(t, s, model.Account{UserID: "u1", Type: model.AccountTypeChecking})

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddAccountBalance(ctx, acct.ID, Dec("1.50")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	AssertDecimal(t, "30", got.CurrentBalance, "no increment may be lost")
}

func testFundRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	target := Dec("5000")
	fund := mustFund(t, s, model.SavingsFund{UserID: "u1", Name: "Holiday", TargetAmount: &target})
	mustFund(t, s, model.SavingsFund{ID: "other", UserID: "u2", Name: "Car"})

	got, err := s.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.Equal(t, "Holiday", got.Name)
	require.NotNil(t, got.TargetAmount)
	AssertDecimal(t, "5000", *got.TargetAmount)
	AssertDecimal(t, "0", got.CurrentBalance)

	funds, err := s.ListFunds(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, fund.ID, funds[0].ID)

	require.NoError(t, s.SetFundBalance(ctx, fund.ID, Dec("13000")))
	got, err = s.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	AssertDecimal(t, "13000", got.CurrentBalance)

	_, err = s.GetFund(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.SetFundBalance(ctx, "missing", Dec("1")), store.ErrNotFound)

	err = s.CreateFund(ctx, &model.SavingsFund{ID: "other", UserID: "u2"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testSumMovements(t *testing.T, s store.Store) {
	ctx := context.Background()
	fund := mustFund(t, s, model.SavingsFund{UserID: "u1"})
	other := mustFund(t, s, model.SavingsFund{UserID: "u1"})

	for _, mv := range []model.SavingsMovement{
		{FundID: fund.ID, Type: model.MovementDeposit, Amount: Dec("10000"), Date: day(1)},
		{FundID: fund.ID, Type: model.MovementDeposit, Amount: Dec("5000"), Date: day(2)},
		{FundID: fund.ID, Type: model.MovementWithdrawal, Amount: Dec("2000"), Date: day(3)},
		{FundID: other.ID, Type: model.MovementDeposit, Amount: Dec("1"), Date: day(3)},
	} {
		require.NoError(t, s.CreateMovement(ctx, &mv))
	}

	deposits, err := s.SumMovements(ctx, fund.ID, model.MovementDeposit)
	require.NoError(t, err)
	AssertDecimal(t, "15000", deposits)

	withdrawals, err := s.SumMovements(ctx, fund.ID, model.MovementWithdrawal)
	require.NoError(t, err)
	AssertDecimal(t, "2000", withdrawals)
}

func testMovementLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	fund := mustFund(t, s, model.SavingsFund{UserID: "u1"})
	next := mustFund(t, s, model.SavingsFund{UserID: "u1"})

	err := s.CreateMovement(ctx, &model.SavingsMovement{FundID: "missing", Type: model.MovementDeposit, Amount: Dec("1"), Date: day(1)})
	assert.ErrorIs(t, err, store.ErrNotFound)

	mv := model.SavingsMovement{FundID: fund.ID, Type: model.MovementDeposit, Amount: Dec("75.5"), Date: day(9), Note: "payday"}
	require.NoError(t, s.CreateMovement(ctx, &mv))

	got, err := s.GetMovement(ctx, mv.ID)
	require.NoError(t, err)
	assert.Equal(t, fund.ID, got.FundID)
	AssertDecimal(t, "75.5", got.Amount)
	assert.Equal(t, "2025-01-09", got.Date.Format("2006-01-02"))
	assert.Equal(t, "payday", got.Note)

	got.FundID = next.ID
	got.Type = model.MovementWithdrawal
	require.NoError(t, s.UpdateMovement(ctx, got))

	sum, err := s.SumMovements(ctx, next.ID, model.MovementWithdrawal)
	require.NoError(t, err)
	AssertDecimal(t, "75.5", sum)

	require.NoError(t, s.DeleteMovement(ctx, mv.ID))
	_, err = s.GetMovement(ctx, mv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMovement(ctx, mv.ID), store.ErrNotFound)
}
