package movements

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/memory"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

var dec = storetest.Dec

type fixture struct {
	store  *memory.Store
	engine *ledger.Engine
	svc    *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := memory.New()
	e := ledger.New(s, ledger.WithLogger(logger))
	return fixture{store: s, engine: e, svc: NewService(s, e, logger)}
}

func (f fixture) account(t *testing.T, typ model.AccountType, initial string) model.Account {
	t.Helper()
	acct := model.Account{UserID: "u1", Type: typ, InitialBalance: dec(initial), CurrentBalance: dec(initial)}
	require.NoError(t, f.store.CreateAccount(context.Background(), &acct))
	return acct
}

func (f fixture) balance(t *testing.T, accountID string) string {
	t.Helper()
	acct, err := f.store.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	return acct.CurrentBalance.String()
}

// requireInSync fails when the incrementally maintained balance differs from
// a full recompute.
func (f fixture) requireInSync(t *testing.T, accountID string) {
	t.Helper()
	drift, err := f.engine.CheckAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.True(t, drift.InSync(), "stored %s, expected %s", drift.Stored, drift.Expected)
}

func TestTransactionLifecycle_StaysInSync(t *testing.T) {
	for _, typ := range []model.AccountType{model.AccountTypeChecking, model.AccountTypeCreditCard} {
		t.Run(string(typ), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			acct := f.account(t, typ, "1000")

			// created paid
			rent, err := f.svc.CreateTransaction(ctx, model.Transaction{AccountID: acct.ID, Type: model.TransactionExpense, BaseAmount: dec("400"), IsPaid: true})
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)

			// created unpaid, then became paid
			salary, err := f.svc.CreateTransaction(ctx, model.Transaction{AccountID: acct.ID, Type: model.TransactionIncome, BaseAmount: dec("2500")})
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)
			_, err = f.svc.SetPaid(ctx, salary.ID, true)
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)

			// amount changed while paid
			rent.BaseAmount = dec("450.75")
			_, err = f.svc.UpdateTransaction(ctx, rent)
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)

			// type flipped while paid
			rent.Type = model.TransactionIncome
			_, err = f.svc.UpdateTransaction(ctx, rent)
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)

			// became unpaid
			_, err = f.svc.SetPaid(ctx, salary.ID, false)
			require.NoError(t, err)
			f.requireInSync(t, acct.ID)

			// deleted while paid
			require.NoError(t, f.svc.DeleteTransaction(ctx, rent.ID))
			f.requireInSync(t, acct.ID)

			assert.Equal(t, "1000", f.balance(t, acct.ID))
		})
	}
}

func TestCreateTransaction_CreditCardPurchase(t *testing.T) {
	f := newFixture(t)
	card := f.account(t, model.AccountTypeCreditCard, "0")

	_, err := f.svc.CreateTransaction(context.Background(), model.Transaction{
		AccountID: card.ID, Type: model.TransactionExpense, BaseAmount: dec("50000"), IsPaid: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "50000", f.balance(t, card.ID))
}

func TestUpdateTransaction_MoveBetweenAccounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	checking := f.account(t, model.AccountTypeChecking, "100")
	card := f.account(t, model.AccountTypeCreditCard, "0")

	txn, err := f.svc.CreateTransaction(ctx, model.Transaction{AccountID: checking.ID, Type: model.TransactionExpense, BaseAmount: dec("30"), IsPaid: true})
	require.NoError(t, err)
	assert.Equal(t, "70", f.balance(t, checking.ID))

	txn.AccountID = card.ID
	_, err = f.svc.UpdateTransaction(ctx, txn)
	require.NoError(t, err)

	assert.Equal(t, "100", f.balance(t, checking.ID))
	assert.Equal(t, "30", f.balance(t, card.ID))
	f.requireInSync(t, checking.ID)
	f.requireInSync(t, card.ID)
}

func TestTransactionWithoutAccount(t *testing.T) {
	f := newFixture(t)
	txn, err := f.svc.CreateTransaction(context.Background(), model.Transaction{Type: model.TransactionIncome, BaseAmount: dec("10"), IsPaid: true})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteTransaction(context.Background(), txn.ID))
}

func TestDeleteTransaction_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeleteTransaction(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMovements_ReconcileFund(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fund := model.SavingsFund{UserID: "u1", Name: "Holiday"}
	require.NoError(t, f.store.CreateFund(ctx, &fund))
	other := model.SavingsFund{UserID: "u1", Name: "Car"}
	require.NoError(t, f.store.CreateFund(ctx, &other))

	fundBalance := func(id string) string {
		got, err := f.store.GetFund(ctx, id)
		require.NoError(t, err)
		return got.CurrentBalance.String()
	}

	_, err := f.svc.RecordMovement(ctx, model.SavingsMovement{FundID: fund.ID, Type: model.MovementDeposit, Amount: dec("10000")})
	require.NoError(t, err)
	_, err = f.svc.RecordMovement(ctx, model.SavingsMovement{FundID: fund.ID, Type: model.MovementDeposit, Amount: dec("5000")})
	require.NoError(t, err)
	wd, err := f.svc.RecordMovement(ctx, model.SavingsMovement{FundID: fund.ID, Type: model.MovementWithdrawal, Amount: dec("2000")})
	require.NoError(t, err)
	assert.Equal(t, "13000", fundBalance(fund.ID))

	wd.Amount = dec("3000")
	_, err = f.svc.UpdateMovement(ctx, wd)
	require.NoError(t, err)
	assert.Equal(t, "12000", fundBalance(fund.ID))

	wd.FundID = other.ID
	_, err = f.svc.UpdateMovement(ctx, wd)
	require.NoError(t, err)
	assert.Equal(t, "15000", fundBalance(fund.ID))
	assert.Equal(t, "-3000", fundBalance(other.ID))

	require.NoError(t, f.svc.DeleteMovement(ctx, wd.ID))
	assert.Equal(t, "0", fundBalance(other.ID))
}

func TestRecordMovement_UnknownFund(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RecordMovement(context.Background(), model.SavingsMovement{FundID: "missing", Type: model.MovementDeposit, Amount: dec("1")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
