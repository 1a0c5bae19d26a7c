package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store"
	"github.com/cleared-dev/tally/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(filepath.Join(t.TempDir(), "tally.bolt"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_ReopenKeepsCreditLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tally.bolt")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	limit := storetest.Dec("5000.00")
	acct := model.Account{ID: "card", UserID: "u1", Type: model.AccountTypeCreditCard, CreditLimit: &limit}
	require.NoError(t, s.CreateAccount(ctx, &acct))
	_, err = s.AddAccountBalance(ctx, "card", storetest.Dec("1250.25"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetAccount(ctx, "card")
	require.NoError(t, err)
	require.NotNil(t, got.CreditLimit)
	storetest.AssertDecimal(t, "5000", *got.CreditLimit)
	storetest.AssertDecimal(t, "1250.25", got.CurrentBalance)

	avail, ok := got.AvailableCredit()
	assert.True(t, ok)
	storetest.AssertDecimal(t, "3749.75", avail)
}
